package zfs

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Runner executes one zfs invocation and returns its stdout. It exists so
// everything above the subprocess boundary can be tested without a pool.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// execRunner invokes the real binary.
type execRunner struct {
	binary string
}

func (r execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &SubsystemError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}
