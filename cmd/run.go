package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/exportshell/cli"
	"github.com/grovetools/exportshell/config"
	"github.com/grovetools/exportshell/internal/configwatch"
	"github.com/grovetools/exportshell/internal/ipc"
	"github.com/grovetools/exportshell/internal/lifecycle"
	"github.com/grovetools/exportshell/internal/pidfile"
	"github.com/grovetools/exportshell/internal/registry"
	"github.com/grovetools/exportshell/pkg/launcher"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const component = "exportshell"

// NewRunCmd returns the foreground supervisor command.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the backend and supervise it until exit",
		Long: `Start the exporter backend with a fresh session credential and supervise it.

The session descriptor (base URL and token) is served to local UI processes
on a private unix socket. On SIGINT or SIGTERM the backend is terminated and
the shell exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.GetLogger(cmd, component)

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reload := func() (*config.Config, error) { return cli.LoadConfig(cmd) }
			return runShell(ctx, cfg, reload, logger)
		},
	}
}

// runShell runs one supervisor lifetime: it returns after ctx is cancelled or
// the backend exits, with the backend terminated in either case. A non-nil
// reload enables watching the config files while running.
func runShell(ctx context.Context, cfg *config.Config, reload configwatch.LoadFunc, logger *logrus.Entry) error {
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create exportshell directories: %w", err)
	}

	// 1. Acquire single-instance lock
	pidPath := paths.PidFilePath()
	if err := pidfile.Acquire(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(pidPath); err != nil {
			logger.WithError(err).Error("Failed to release pidfile")
		}
	}()

	// 2. Wire registry, launcher and controller
	reg := registry.New()
	backend := launcher.New(launcher.Config{
		Executable: cfg.Backend.Executable,
		Args:       cfg.Backend.Args,
		WorkDir:    paths.Expand(cfg.Backend.WorkDir),
		InheritEnv: cfg.Backend.InheritsEnv(),
	}, launcher.WithLogger(logger))

	window := lifecycle.NewTerminalWindow(os.Stdout)
	ctrl := lifecycle.New(reg, backend, lifecycle.Config{
		Port:   cfg.Backend.Port,
		Title:  cfg.Window.Title,
		Window: window,
		Logger: logger,
	})
	defer ctrl.Shutdown()

	// 3. Serve session queries before startup so early callers see NOT_INITIALIZED
	socketPath := paths.ResolveSocket(cfg.IPC.Socket)
	startedAt := time.Now()
	srv := ipc.New(reg, logger)
	srv.SetStatus(func() ipc.Status {
		return ipc.Status{
			State:      ctrl.State().String(),
			PID:        os.Getpid(),
			BackendPID: ctrl.BackendPID(),
			StartedAt:  startedAt,
		}
	})
	if err := srv.Listen(socketPath); err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Session socket shutdown error")
		}
	}()

	// 4. Start the backend
	if err := ctrl.Start(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"pid":    os.Getpid(),
		"socket": socketPath,
	}).Info("exportshell running")

	// 5. Follow config edits until exit
	if reload != nil {
		watchCtx, stopWatch := context.WithCancel(ctx)
		defer stopWatch()
		watchConfig(watchCtx, cfg, reload, window, logger)
	}

	// 6. Wait for exit
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal")
	case <-ctrl.BackendDone():
		logger.WithField("backend_pid", ctrl.BackendPID()).Warn("Backend exited on its own")
	case err := <-serveErr:
		if err != nil {
			logger.WithError(err).Error("Session socket failed")
			ctrl.Shutdown()
			return fmt.Errorf("session socket: %w", err)
		}
	}

	ctrl.Shutdown()
	return nil
}

// watchConfig applies a changed window title live and warns about settings
// that only take effect on the next run. Watch setup failures are logged.
func watchConfig(ctx context.Context, cfg *config.Config, reload configwatch.LoadFunc, window lifecycle.Window, logger *logrus.Entry) {
	onChange := func(old, updated *config.Config) {
		for _, key := range configwatch.Changed(old, updated) {
			if key == "window.title" && window != nil {
				if err := window.SetTitle(updated.Window.Title); err != nil {
					logger.WithError(err).Warn("Failed to apply new window title")
				} else {
					logger.WithField("title", updated.Window.Title).Info("Window title updated")
				}
				continue
			}
			logger.WithField("setting", key).Warn("Configuration changed; restart exportshell to apply")
		}
	}

	cwd, _ := os.Getwd()
	w, err := configwatch.New(cfg, configwatch.Dirs(cfg, paths.ConfigDir(), cwd), reload, onChange,
		configwatch.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Warn("Config watching disabled")
		return
	}
	go w.Run(ctx)
}
