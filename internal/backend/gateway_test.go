package backend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-wata/meeting-transcriber/internal/logging"
)

// fakeTransport is a scriptable transport for gateway tests.
type fakeTransport struct {
	name      string
	available bool
	results   []result
	calls     int
}

type result struct {
	text string
	err  error
}

func (f *fakeTransport) Name() string                   { return f.name }
func (f *fakeTransport) Available(context.Context) bool { return f.available }

func (f *fakeTransport) Generate(context.Context, string) (string, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	r := f.results[i]
	return r.text, r.err
}

func opts() Options {
	return Options{Log: logging.Discard(), MaxRetries: 2, BaseDelay: time.Millisecond}
}

func TestSelectAutoPrefersFirstAvailable(t *testing.T) {
	cli := &fakeTransport{name: PreferCLI, available: false}
	ollama := &fakeTransport{name: PreferOllama, available: true}
	apiT := &fakeTransport{name: PreferAPI, available: true}

	g, err := Select(context.Background(), PreferAuto, []Transport{cli, ollama, apiT}, opts())
	require.NoError(t, err)
	assert.Equal(t, PreferOllama, g.TransportName())
}

func TestSelectAutoNoneAvailable(t *testing.T) {
	cli := &fakeTransport{name: PreferCLI}
	_, err := Select(context.Background(), PreferAuto, []Transport{cli}, opts())

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindUnavailable, be.Kind)
}

func TestSelectPinnedFailsClosed(t *testing.T) {
	// api is available but the user pinned cli: no silent fallback.
	cli := &fakeTransport{name: PreferCLI, available: false}
	apiT := &fakeTransport{name: PreferAPI, available: true}

	_, err := Select(context.Background(), PreferCLI, []Transport{cli, apiT}, opts())

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindUnavailable, be.Kind)
	assert.Equal(t, PreferCLI, be.Transport)
}

func TestSelectPinnedUnknownName(t *testing.T) {
	apiT := &fakeTransport{name: PreferAPI, available: true}
	_, err := Select(context.Background(), "carrier-pigeon", []Transport{apiT}, opts())
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindUnavailable, be.Kind)
}

func TestGenerateRetriesTransient(t *testing.T) {
	tr := &fakeTransport{
		name:      PreferAPI,
		available: true,
		results: []result{
			{err: newError(KindTransient, PreferAPI, fmt.Errorf("http 503"))},
			{err: newError(KindTransient, PreferAPI, fmt.Errorf("http 503"))},
			{text: "minutes"},
		},
	}
	g, err := Select(context.Background(), PreferAPI, []Transport{tr}, opts())
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "minutes", text)
	assert.Equal(t, 3, tr.calls)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	tr := &fakeTransport{
		name:      PreferAPI,
		available: true,
		results:   []result{{err: newError(KindTransient, PreferAPI, fmt.Errorf("http 503"))}},
	}
	g, err := Select(context.Background(), PreferAPI, []Transport{tr}, opts())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindTransient, be.Kind)
	assert.Equal(t, 3, tr.calls) // initial + 2 retries
}

func TestGenerateDoesNotRetryRejection(t *testing.T) {
	tr := &fakeTransport{
		name:      PreferAPI,
		available: true,
		results:   []result{{err: newError(KindRejected, PreferAPI, fmt.Errorf("declined"))}},
	}
	g, err := Select(context.Background(), PreferAPI, []Transport{tr}, opts())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindRejected, be.Kind)
	assert.Equal(t, 1, tr.calls)
}

func TestGenerateDoesNotRetryAuth(t *testing.T) {
	tr := &fakeTransport{
		name:      PreferAPI,
		available: true,
		results:   []result{{err: newError(KindAuth, PreferAPI, fmt.Errorf("bad key"))}},
	}
	g, err := Select(context.Background(), PreferAPI, []Transport{tr}, opts())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindAuth, be.Kind)
	assert.Equal(t, 1, tr.calls)
}

func TestAutoDemotesUnauthenticatedTransport(t *testing.T) {
	// The availability probe cannot see credential state: an installed but
	// logged-out transport wins auto-selection, fails with auth, and is
	// demoted in favor of the next available candidate.
	cli := &fakeTransport{
		name:      PreferCLI,
		available: true,
		results:   []result{{err: newError(KindAuth, PreferCLI, fmt.Errorf("not logged in"))}},
	}
	ollama := &fakeTransport{name: PreferOllama, available: false}
	apiT := &fakeTransport{name: PreferAPI, available: true, results: []result{{text: "minutes"}}}

	g, err := Select(context.Background(), PreferAuto, []Transport{cli, ollama, apiT}, opts())
	require.NoError(t, err)
	require.Equal(t, PreferCLI, g.TransportName())

	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "minutes", text)
	assert.Equal(t, PreferAPI, g.TransportName())
	assert.Equal(t, 1, cli.calls)
	assert.Equal(t, 0, ollama.calls)

	// The demotion sticks for later passes.
	_, err = g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, 1, cli.calls)
}

func TestPinnedTransportIsNotDemoted(t *testing.T) {
	cli := &fakeTransport{
		name:      PreferCLI,
		available: true,
		results:   []result{{err: newError(KindAuth, PreferCLI, fmt.Errorf("not logged in"))}},
	}
	apiT := &fakeTransport{name: PreferAPI, available: true, results: []result{{text: "minutes"}}}

	g, err := Select(context.Background(), PreferCLI, []Transport{cli, apiT}, opts())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindAuth, be.Kind)
	assert.Equal(t, PreferCLI, g.TransportName())
	assert.Equal(t, 0, apiT.calls)
}
