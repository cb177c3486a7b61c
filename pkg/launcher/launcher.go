// Package launcher starts the exporter backend as a child process with the
// session credential and loopback binding injected through its environment.
package launcher

import (
	"io"
	"os"
	"strings"

	"github.com/grovetools/exportshell/command"
	"github.com/grovetools/exportshell/config"
	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/credential"
	"github.com/grovetools/exportshell/pkg/process"
	"github.com/grovetools/exportshell/pkg/session"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultExecutable is used when neither the environment nor config name one.
	DefaultExecutable = config.DefaultExecutable
	// DefaultWorkDir points at the backend project root relative to the shell.
	DefaultWorkDir = config.DefaultWorkDir
)

// DefaultArgs runs the backend's entry module.
var DefaultArgs = config.DefaultArgs

// Config describes how to start the backend.
type Config struct {
	Executable string   // Optional, defaults to IMEXPORT_BACKEND_PYTHON or python3
	Args       []string // Optional, defaults to DefaultArgs
	WorkDir    string   // Optional, defaults to DefaultWorkDir
	InheritEnv bool     // Pass the shell's environment through (minus managed keys)
}

// Launcher spawns the backend. It holds no per-launch state and can be shared.
type Launcher struct {
	cfg     Config
	builder *command.SafeBuilder
	environ func() []string
	getenv  func(string) string
	logger  *logrus.Entry
}

// Option customises a Launcher.
type Option func(*Launcher)

// WithExecutor substitutes how commands are created.
func WithExecutor(exec command.Executor) Option {
	return func(l *Launcher) {
		l.builder = command.NewSafeBuilderWithExecutor(exec)
	}
}

// WithEnviron substitutes the launcher's own environment.
func WithEnviron(environ []string) Option {
	return func(l *Launcher) {
		l.environ = func() []string { return environ }
		l.getenv = func(key string) string {
			for _, kv := range environ {
				if value, ok := strings.CutPrefix(kv, key+"="); ok {
					return value
				}
			}
			return ""
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// New creates a Launcher, filling defaults for empty config fields.
func New(cfg Config, opts ...Option) *Launcher {
	if len(cfg.Args) == 0 {
		cfg.Args = append([]string(nil), DefaultArgs...)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir
	}

	l := &Launcher{
		cfg:     cfg,
		builder: command.NewSafeBuilder(),
		environ: os.Environ,
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		l.logger = logrus.NewEntry(discard)
	}
	return l
}

// Launch starts the backend bound to the loopback address on port with token
// injected. There is no retry: a failure here aborts startup.
func (l *Launcher) Launch(token string, port int) (process.Handle, error) {
	if port <= 0 || port > 65535 {
		return nil, errors.InvalidInput("port", "must be between 1 and 65535")
	}
	// The backend exits at startup on a short token, and its stderr is the
	// null device, so the check happens here.
	if err := credential.CheckStrength(token); err != nil {
		return nil, err
	}

	executable := ResolveExecutable(l.cfg.Executable, l.getenv)
	cmd, err := l.builder.Build(command.Spec{
		Executable: executable,
		Args:       l.cfg.Args,
		Dir:        l.cfg.WorkDir,
		Env:        childEnv(l.environ(), l.cfg.InheritEnv, token, session.LoopbackHost, port),
	})
	if err != nil {
		return nil, errors.SpawnFailed(executable, err)
	}

	if err := cmd.Start(); err != nil {
		l.logger.WithError(err).WithField("executable", executable).Error("Failed to start backend")
		return nil, errors.SpawnFailed(executable, err)
	}

	child := process.Adopt(cmd)
	l.logger.WithFields(logrus.Fields{
		"pid":        child.Pid(),
		"executable": executable,
		"dir":        l.cfg.WorkDir,
		"port":       port,
	}).Info("Backend started")
	return child, nil
}
