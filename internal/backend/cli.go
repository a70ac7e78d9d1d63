package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
	"time"
)

const cliTimeout = 120 * time.Second

// CLITransport invokes the claude CLI as a subprocess. Requires a prior
// interactive `claude` login; availability is probed with `claude --version`.
type CLITransport struct {
	runner  Runner
	command string
}

// NewCLITransport creates the CLI transport using the given runner.
func NewCLITransport(runner Runner) *CLITransport {
	if runner == nil {
		runner = OSRunner{}
	}
	return &CLITransport{runner: runner, command: "claude"}
}

func (t *CLITransport) Name() string { return PreferCLI }

// Available probes the CLI binary.
func (t *CLITransport) Available(ctx context.Context) bool {
	probe, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _, err := t.runner.Run(probe, nil, t.command, "--version")
	return err == nil
}

// Generate runs `claude -p <prompt> --output-format text`. The API key is
// stripped from the environment so the call bills against the subscription
// plan instead of the metered API.
func (t *CLITransport) Generate(ctx context.Context, prompt string) (string, error) {
	run, cancel := context.WithTimeout(ctx, cliTimeout)
	defer cancel()

	env := envWithout("ANTHROPIC_API_KEY")
	stdout, stderr, err := t.runner.Run(run, env, t.command, "-p", prompt, "--output-format", "text")
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		switch {
		case errors.Is(run.Err(), context.DeadlineExceeded):
			return "", newError(KindTransient, t.Name(), fmt.Errorf("timed out after %s", cliTimeout))
		case errors.Is(err, osexec.ErrNotFound):
			return "", newError(KindUnavailable, t.Name(), fmt.Errorf("claude binary not found"))
		case strings.Contains(strings.ToLower(msg), "login") ||
			strings.Contains(strings.ToLower(msg), "authenticate"):
			return "", newError(KindAuth, t.Name(), fmt.Errorf("%s", msg))
		default:
			return "", newError(KindRejected, t.Name(), fmt.Errorf("claude CLI: %s", msg))
		}
	}

	text := strings.TrimSpace(string(stdout))
	if text == "" {
		return "", newError(KindRejected, t.Name(), fmt.Errorf("empty output"))
	}
	return text, nil
}

func envWithout(keys ...string) []string {
	env := os.Environ()
	out := env[:0:0]
	for _, kv := range env {
		drop := false
		for _, key := range keys {
			if strings.HasPrefix(kv, key+"=") {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, kv)
		}
	}
	return out
}
