package activate

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/envctl/internal/compose"
)

// DefaultShell is used when neither the caller nor $SHELL names one.
const DefaultShell = "/bin/sh"

// CommandRunner abstracts process execution for shell activation.
type CommandRunner interface {
	Run(name string, args []string, env []string) error
}

// ExecRunner runs commands on the local host with inherited standard
// streams, suitable for interactive shells.
type ExecRunner struct{}

func (r ExecRunner) Run(name string, args []string, env []string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ExitCode maps a runner error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	return 1
}

// Shell drops the caller into an interactive shell inside the composed
// environment. The base process environment is merged under the composed
// bindings; the shell choice falls back to $SHELL, then DefaultShell.
func Shell(env *compose.Environment, base []string, shell string, runner CommandRunner) error {
	resolved := strings.TrimSpace(shell)
	if resolved == "" {
		resolved = strings.TrimSpace(os.Getenv("SHELL"))
	}
	if resolved == "" {
		resolved = DefaultShell
	}
	log.Info().
		Str("shell", resolved).
		Str("platform", env.Platform).
		Int("capabilities", len(env.Capabilities)).
		Msg("activating environment")
	return runner.Run(resolved, nil, env.Environ(base))
}
