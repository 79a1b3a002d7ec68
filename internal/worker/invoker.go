package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds an invocation when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// Invoker is the boundary to the extraction/answering worker. Implementations
// may shell out, call an RPC endpoint, or embed a library; callers rely only
// on a bounded-time call that can fail wholesale.
type Invoker interface {
	Invoke(ctx context.Context, payload any) (json.RawMessage, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, payload any) (json.RawMessage, error)

func (f InvokerFunc) Invoke(ctx context.Context, payload any) (json.RawMessage, error) {
	return f(ctx, payload)
}

// ScriptInvoker runs a fresh worker process per invocation; workers are never
// pooled or reused, so no invocation can observe another's state. The request
// is serialized to a single JSON text and passed as the sole argument. Stdout
// carries the result; stderr is captured for diagnostics only and never
// parsed.
type ScriptInvoker struct {
	Interpreter string // e.g. "python3"
	Script      string
	Env         []string // KEY=VALUE pairs appended to the current environment
	Timeout     time.Duration
	Logger      *log.Logger
}

func (s *ScriptInvoker) Invoke(ctx context.Context, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode worker request: %w", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interpreter := s.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}
	cmd := exec.CommandContext(ctx, interpreter, s.Script, string(body))
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return nil, &TimeoutError{Timeout: timeout}
	case ctx.Err() != nil:
		return nil, ctx.Err()
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			if s.Logger != nil {
				s.Logger.Printf("worker %s failed (exit %d): %s", s.Script, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
			}
			return nil, &ExecutionError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("start worker: %w", runErr)
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return nil, ErrEmptyOutput
	}
	obj, err := ExtractObject(out)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Printf("unparsable output from %s: %s", s.Script, truncate(out, 200))
		}
		return nil, err
	}
	return obj, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
