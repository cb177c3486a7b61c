package command

import "os/exec"

// Executor turns a validated executable and argument list into an unstarted
// command. Tests substitute it to run a stand-in for the backend interpreter.
type Executor interface {
	Command(name string, args ...string) *exec.Cmd
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(name string, args ...string) *exec.Cmd

// Command calls f(name, args...).
func (f ExecutorFunc) Command(name string, args ...string) *exec.Cmd {
	return f(name, args...)
}

// OSExecutor creates commands with os/exec.
var OSExecutor Executor = ExecutorFunc(exec.Command)
