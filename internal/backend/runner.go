package backend

import (
	"bytes"
	"context"
	osexec "os/exec"
)

// Runner abstracts subprocess execution so CLI transports can be tested
// without the real binary installed.
type Runner interface {
	// Run executes a command and returns stdout and stderr separately.
	Run(ctx context.Context, env []string, name string, args ...string) (stdout, stderr []byte, err error)
}

// OSRunner executes commands with os/exec.
type OSRunner struct{}

// Run executes the command, returning stdout and stderr separately.
func (OSRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, []byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	if env != nil {
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// MockCall records one invocation seen by a MockRunner.
type MockCall struct {
	Name string
	Args []string
}

// MockRunner implements Runner for tests with canned responses keyed by
// command name.
type MockRunner struct {
	Calls     []MockCall
	Stdout    map[string]string
	Stderr    map[string]string
	Errs      map[string]error
}

// Run returns the canned response for the command name.
func (m *MockRunner) Run(_ context.Context, _ []string, name string, args ...string) ([]byte, []byte, error) {
	m.Calls = append(m.Calls, MockCall{Name: name, Args: args})
	var out, errOut []byte
	if m.Stdout != nil {
		out = []byte(m.Stdout[name])
	}
	if m.Stderr != nil {
		errOut = []byte(m.Stderr[name])
	}
	var err error
	if m.Errs != nil {
		err = m.Errs[name]
	}
	return out, errOut, err
}
