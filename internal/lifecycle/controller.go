// Package lifecycle orchestrates the shell's startup and shutdown: generate
// a credential, launch the backend, publish the session, and terminate the
// backend when the application exits.
package lifecycle

import (
	"fmt"
	"io"
	"sync"

	"github.com/grovetools/exportshell/config"
	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/credential"
	"github.com/grovetools/exportshell/pkg/process"
	"github.com/grovetools/exportshell/pkg/session"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPort is the fixed port the backend listens on.
	DefaultPort = config.DefaultPort
	// DefaultTitle is shown on the application window.
	DefaultTitle = config.DefaultTitle
)

// Registry holds what startup publishes and shutdown takes back.
// *registry.Registry implements it.
type Registry interface {
	PublishSession(d session.Descriptor) error
	PublishProcess(h process.Handle) error
	TakeProcess() (process.Handle, error)
}

// Launcher starts the backend process.
type Launcher interface {
	Launch(credential string, port int) (process.Handle, error)
}

// Config holds configuration options for the Controller.
type Config struct {
	Port   int           // Optional, defaults to DefaultPort
	Title  string        // Optional, defaults to DefaultTitle
	Window Window        // Optional; a nil window skips the title step
	Logger *logrus.Entry // Optional, defaults to a discarding logger

	// NewCredential is optional and defaults to credential.Generate.
	NewCredential func() string
}

// Controller drives the Starting → Running → ShuttingDown → Stopped state
// machine. One Controller supervises at most one backend for its lifetime.
type Controller struct {
	registry Registry
	launcher Launcher
	cfg      Config
	logger   *logrus.Entry

	mu          sync.Mutex
	state       State
	backendPID  int
	backendDone <-chan struct{}
}

// New creates a Controller publishing into reg.
func New(reg Registry, launcher Launcher, cfg Config) *Controller {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.NewCredential == nil {
		cfg.NewCredential = credential.Generate
	}
	logger := cfg.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = logrus.NewEntry(discard)
	}

	return &Controller{
		registry: reg,
		launcher: launcher,
		cfg:      cfg,
		logger:   logger,
		state:    StateStarting,
	}
}

// BackendPID returns the pid of the supervised backend, or 0 when none was
// launched successfully.
func (c *Controller) BackendPID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backendPID
}

// BackendDone is closed when the supervised backend exits. It is nil, and
// so never ready, until Start succeeds.
func (c *Controller) BackendDone() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backendDone
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.logTransition(prev, s)
}

// transition moves from one state to another only if the controller is still
// in from.
func (c *Controller) transition(from, to State) bool {
	c.mu.Lock()
	if c.state != from {
		c.mu.Unlock()
		return false
	}
	c.state = to
	c.mu.Unlock()
	c.logTransition(from, to)
	return true
}

func (c *Controller) logTransition(from, to State) {
	c.logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("Lifecycle transition")
}

// Start runs the startup sequence. It may be called once. Any failure leaves
// the controller in StateFailed and must abort the application; there is no
// partially running state. A Shutdown that arrives while Start is still
// running wins: the backend is killed and Start returns NOT_RUNNING.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.state != StateStarting {
		state := c.state
		c.mu.Unlock()
		return errors.InvalidInput("lifecycle", fmt.Sprintf("cannot start from state %s", state))
	}
	c.mu.Unlock()

	if err := c.start(); err != nil {
		if c.transition(StateStarting, StateFailed) {
			c.logger.WithError(err).Error("Startup aborted")
		}
		return err
	}
	return nil
}

func (c *Controller) start() error {
	token := c.cfg.NewCredential()
	port := c.cfg.Port

	child, err := c.launcher.Launch(token, port)
	if err != nil {
		return err
	}

	// From here on a failure must not leave an orphaned backend behind.
	published := false
	abort := func(err error) error {
		c.release(child, published)
		return err
	}

	if err := c.registry.PublishProcess(child); err != nil {
		return abort(err)
	}
	published = true

	if c.cfg.Window != nil {
		if err := c.cfg.Window.SetTitle(c.cfg.Title); err != nil {
			return abort(errors.WindowSetupFailed("set title", err))
		}
	}

	// The session goes last so the UI sees either nothing or a backend that
	// finished starting.
	descriptor := session.NewDescriptor(session.LoopbackHost, port, token)
	if err := c.registry.PublishSession(descriptor); err != nil {
		return abort(err)
	}

	c.mu.Lock()
	if c.state != StateStarting {
		c.mu.Unlock()
		return abort(errors.New(errors.ErrCodeNotRunning, "shutdown requested during startup"))
	}
	c.backendPID = child.Pid()
	c.backendDone = child.Done()
	c.state = StateRunning
	c.mu.Unlock()
	c.logTransition(StateStarting, StateRunning)

	c.logger.WithFields(logrus.Fields{
		"base_url": descriptor.BaseURL,
		"pid":      child.Pid(),
	}).Info("Backend supervised")
	return nil
}

// release kills the backend after an aborted startup. A published handle is
// taken back first; if Shutdown already took it, the backend was signalled
// there and is not signalled again.
func (c *Controller) release(child process.Handle, published bool) {
	if published {
		taken, err := c.registry.TakeProcess()
		if err != nil {
			c.logger.WithError(err).Warn("Could not take backend handle after aborted startup")
		}
		if taken == nil && err == nil {
			return
		}
	}
	if err := child.Kill(); err != nil {
		c.logger.WithError(err).WithField("pid", child.Pid()).Warn("Failed to kill backend after aborted startup")
	}
}

// Shutdown handles the application exit event. It takes the backend handle
// and signals it without waiting for the process to exit. Failures are
// logged and never returned, so the exit path cannot block or crash.
// Repeated calls are no-ops.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.setState(StateShuttingDown)
	defer c.setState(StateStopped)

	child, err := c.registry.TakeProcess()
	if err != nil {
		c.logger.WithError(err).Warn("Could not take backend handle during shutdown")
		return
	}
	if child == nil {
		return
	}

	if err := child.Kill(); err != nil {
		c.logger.WithError(err).WithField("pid", child.Pid()).Warn("Failed to terminate backend")
		return
	}
	c.logger.WithField("pid", child.Pid()).Info("Backend terminated")
}
