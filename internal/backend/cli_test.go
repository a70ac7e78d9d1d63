package backend

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIAvailableProbesVersion(t *testing.T) {
	mock := &MockRunner{Stdout: map[string]string{"claude": "1.0.0"}}
	tr := NewCLITransport(mock)

	assert.True(t, tr.Available(context.Background()))
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, []string{"--version"}, mock.Calls[0].Args)
}

func TestCLIUnavailableWhenProbeFails(t *testing.T) {
	mock := &MockRunner{Errs: map[string]error{"claude": fmt.Errorf("exec: not found")}}
	tr := NewCLITransport(mock)
	assert.False(t, tr.Available(context.Background()))
}

func TestCLIGenerate(t *testing.T) {
	mock := &MockRunner{Stdout: map[string]string{"claude": "# Minutes\n\n## Overview\n- ok\n"}}
	tr := NewCLITransport(mock)

	text, err := tr.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "# Minutes\n\n## Overview\n- ok", text)

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, []string{"-p", "the prompt", "--output-format", "text"}, mock.Calls[0].Args)
}

func TestCLIGenerateAuthError(t *testing.T) {
	mock := &MockRunner{
		Errs:   map[string]error{"claude": fmt.Errorf("exit status 1")},
		Stderr: map[string]string{"claude": "Please run /login to authenticate"},
	}
	tr := NewCLITransport(mock)

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindAuth, be.Kind)
}

func TestCLIGenerateRejected(t *testing.T) {
	mock := &MockRunner{
		Errs:   map[string]error{"claude": fmt.Errorf("exit status 1")},
		Stderr: map[string]string{"claude": "something exploded"},
	}
	tr := NewCLITransport(mock)

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindRejected, be.Kind)
}

func TestCLIGenerateEmptyOutput(t *testing.T) {
	mock := &MockRunner{Stdout: map[string]string{"claude": "  \n"}}
	tr := NewCLITransport(mock)

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindRejected, be.Kind)
}

func TestEnvWithout(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	env := envWithout("ANTHROPIC_API_KEY")
	for _, kv := range env {
		assert.NotContains(t, kv, "ANTHROPIC_API_KEY=")
	}
}
