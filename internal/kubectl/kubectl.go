package kubectl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Injection points for unit tests, so runs can be exercised without a real
// kubectl on PATH.
var (
	execCommandContext = exec.CommandContext
	lookPath           = exec.LookPath
)

// ExitCodeError carries the exit status of a failed kubectl invocation so
// callers can propagate it as the process exit code.
type ExitCodeError struct {
	Code   int
	Stderr string
}

func (e ExitCodeError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("kubectl exited with status %d", e.Code)
	}
	return fmt.Sprintf("kubectl exited with status %d: %s", e.Code, msg)
}

// Runner invokes kubectl and captures its output.
type Runner struct {
	path    string
	timeout time.Duration
}

// New creates a Runner. path may be empty, in which case "kubectl" is
// resolved from PATH. A zero timeout means invocations block indefinitely.
func New(path string, timeout time.Duration) (*Runner, error) {
	if path == "" {
		path = "kubectl"
	}
	resolved, err := lookPath(path)
	if err != nil {
		return nil, fmt.Errorf("kubectl not found at %q: %w", path, err)
	}
	return &Runner{path: resolved, timeout: timeout}, nil
}

// Nodes returns the wide node listing.
func (r *Runner) Nodes(ctx context.Context) (string, error) {
	return r.run(ctx, "get", "nodes", "-o", "wide")
}

// Services returns the default service listing.
func (r *Runner) Services(ctx context.Context) (string, error) {
	return r.run(ctx, "get", "services")
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log.Debug().Str("path", r.path).Strs("args", args).Msg("running kubectl")

	cmd := execCommandContext(ctx, r.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A killed child also surfaces as *exec.ExitError (status -1), so
		// check the context first to report hangs as hangs.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), fmt.Errorf("kubectl did not finish before the timeout: %w", ctx.Err())
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return stdout.String(), fmt.Errorf("kubectl invocation canceled: %w", ctx.Err())
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return stdout.String(), ExitCodeError{
				Code:   exitErr.ExitCode(),
				Stderr: stderr.String(),
			}
		}
		return stdout.String(), fmt.Errorf("failed to run kubectl: %w", err)
	}

	return stdout.String(), nil
}
