// Package backend provides the uniform gateway over the minute-generation
// transports: the Claude CLI, a local Ollama server, and the hosted
// Anthropic API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/h-wata/meeting-transcriber/internal/logging"
)

// Transport is a single way of turning a prompt into generated text. The
// returned text is opaque; the gateway performs no interpretation.
type Transport interface {
	Name() string
	// Available reports whether the transport is usable right now
	// (binary installed, server reachable, credential present).
	Available(ctx context.Context) bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Preference names accepted in configuration.
const (
	PreferAuto   = "auto"
	PreferCLI    = "cli"
	PreferOllama = "ollama"
	PreferAPI    = "api"
)

// Gateway routes generation requests to a selected transport and retries
// transient failures with backoff.
//
// Availability probes are cheap (binary presence, server reachable) and
// cannot see credential state, so an auto-selected transport may turn out
// to be unauthenticated on first use. When that happens the gateway demotes
// it and moves to the next available candidate. A pinned transport has no
// fallbacks and fails closed.
type Gateway struct {
	transport  Transport
	fallbacks  []Transport
	log        *logging.Logger
	maxRetries int
	baseDelay  time.Duration
}

// Options tunes gateway construction.
type Options struct {
	Log        *logging.Logger
	MaxRetries int           // transient retries per Generate, default 2
	BaseDelay  time.Duration // first backoff delay, default 2s
}

// Select applies the selection policy to the candidate transports and wraps
// the winner in a Gateway.
//
// auto prefers the transports in the given order, taking the first available.
// An explicit preference pins that transport and fails closed when it is not
// usable; there is no silent fallback from a pinned transport.
func Select(ctx context.Context, preference string, candidates []Transport, opts Options) (*Gateway, error) {
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = 2 * time.Second
	}

	transport, fallbacks, err := pick(ctx, preference, candidates)
	if err != nil {
		return nil, err
	}
	opts.Log.Info("transport_selected", map[string]any{"transport": transport.Name()})

	return &Gateway{
		transport:  transport,
		fallbacks:  fallbacks,
		log:        opts.Log,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
	}, nil
}

func pick(ctx context.Context, preference string, candidates []Transport) (Transport, []Transport, error) {
	if preference == "" {
		preference = PreferAuto
	}

	if preference != PreferAuto {
		for _, t := range candidates {
			if t.Name() != preference {
				continue
			}
			if !t.Available(ctx) {
				return nil, nil, newError(KindUnavailable, preference,
					fmt.Errorf("pinned transport is not usable"))
			}
			return t, nil, nil
		}
		return nil, nil, newError(KindUnavailable, preference, fmt.Errorf("no such transport"))
	}

	for i, t := range candidates {
		if t.Available(ctx) {
			return t, candidates[i+1:], nil
		}
	}
	return nil, nil, newError(KindUnavailable, "", fmt.Errorf("no usable transport; install the claude CLI, run an ollama server, or set ANTHROPIC_API_KEY"))
}

// TransportName returns the name of the selected transport.
func (g *Gateway) TransportName() string { return g.transport.Name() }

// Generate produces text for the prompt, retrying transient failures.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	delay := g.baseDelay

	var lastErr error
	for attempt := 0; ; attempt++ {
		text, err := g.transport.Generate(ctx, prompt)
		if err == nil {
			g.log.TimedEvent("generate", start, map[string]any{
				"transport": g.transport.Name(),
				"attempts":  attempt + 1,
				"chars":     len(text),
			})
			return text, nil
		}
		lastErr = err

		var be *Error
		if !errors.As(err, &be) || be.Kind != KindTransient || attempt >= g.maxRetries {
			break
		}
		g.log.Warn("generate_retry", map[string]any{
			"transport": g.transport.Name(),
			"attempt":   attempt + 1,
		}, err)

		select {
		case <-ctx.Done():
			return "", newError(KindTransient, g.transport.Name(), ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	var be *Error
	if errors.As(lastErr, &be) && be.Kind == KindAuth {
		if next := g.demote(ctx); next != nil {
			g.log.Warn("transport_demoted", map[string]any{
				"from": be.Transport,
				"to":   next.Name(),
			}, lastErr)
			return g.Generate(ctx, prompt)
		}
	}

	g.log.Error("generate_failed", map[string]any{"transport": g.transport.Name()}, lastErr)
	return "", lastErr
}

// demote drops the active transport after an auth failure and activates
// the next available fallback, if any.
func (g *Gateway) demote(ctx context.Context) Transport {
	for len(g.fallbacks) > 0 {
		t := g.fallbacks[0]
		g.fallbacks = g.fallbacks[1:]
		if t.Available(ctx) {
			g.transport = t
			return t
		}
	}
	return nil
}
