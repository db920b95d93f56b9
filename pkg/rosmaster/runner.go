package rosmaster

import (
	"context"
	"os/exec"
)

// Process is a handle to a started master process.
type Process interface {
	PID() int
}

// Runner starts the master executable. It is the process-control
// collaborator; the default implementation shells out, tests inject fakes.
type Runner interface {
	Start(ctx context.Context, bin string, args ...string) (Process, error)
}

type execRunner struct{}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (execRunner) Start(ctx context.Context, bin string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// Reap the child when it exits; the master outlives construction and has
	// no teardown in this core.
	go func() { _ = cmd.Wait() }()
	return &execProcess{cmd: cmd}, nil
}
