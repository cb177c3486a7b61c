// Package process provides the handle used to supervise a spawned backend
// and liveness checks for arbitrary PIDs.
package process

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Handle is an opaque reference to a running child process.
type Handle interface {
	// Pid returns the OS process ID.
	Pid() int
	// Kill sends a termination signal. It does not wait for the process to exit.
	Kill() error
	// Done is closed once the process has exited and been reaped.
	Done() <-chan struct{}
}

// Child is a Handle for a process started through os/exec.
type Child struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

// Adopt wraps a started command and reaps it in the background so an exited
// backend never lingers as a zombie. cmd.Start must have succeeded.
func Adopt(cmd *exec.Cmd) *Child {
	c := &Child{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.waitErr = err
		c.mu.Unlock()
		close(c.done)
	}()
	return c
}

// Pid returns the child's process ID.
func (c *Child) Pid() int {
	return c.cmd.Process.Pid
}

// Kill sends SIGKILL to the child.
func (c *Child) Kill() error {
	return c.cmd.Process.Kill()
}

// Done is closed after the child exits.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// ExitErr returns the error from Wait once the child has exited.
func (c *Child) ExitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitErr
}

// IsProcessAlive checks if a process with the given PID is still running.
// It uses a signal-sending method that is cross-platform for Unix-like systems (macOS, Linux).
func IsProcessAlive(pid int) bool {
	// PID 0 or less is invalid.
	if pid <= 0 {
		return false
	}

	// Find the process. This doesn't fail on Unix if the process doesn't exist.
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 checks existence without delivering anything.
	// EPERM means the process exists but belongs to another user.
	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// Terminate sends SIGTERM to pid.
func Terminate(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.SIGTERM)
}

var _ Handle = (*Child)(nil)
