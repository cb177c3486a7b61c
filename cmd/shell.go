package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grovetools/exportshell/cli"
	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/internal/ipc"
	"github.com/grovetools/exportshell/internal/pidfile"
	"github.com/grovetools/exportshell/logging"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/grovetools/exportshell/pkg/process"
	"github.com/grovetools/exportshell/pkg/session"
	"github.com/spf13/cobra"
)

// ErrNotRunning is returned by status when no shell holds the pidfile, so
// scripts get a non-zero exit code.
var ErrNotRunning = errors.NotRunning()

func socketFor(cmd *cobra.Command) (string, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return "", err
	}
	return paths.ResolveSocket(cfg.IPC.Socket), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// sessionOutput is the JSON shape of the session command.
type sessionOutput struct {
	session.Descriptor
	Health *session.Health `json:"health,omitempty"`
}

// NewSessionCmd returns the command that prints the running shell's session
// descriptor, the way the UI obtains it.
func NewSessionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Print the base URL and token of the running backend",
		Long: `Query the running shell for its session descriptor.

Fails with NOT_INITIALIZED while startup is still in progress. With --check
the descriptor is also used to call the backend's authenticated /health
endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sock, err := socketFor(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			desc, err := ipc.NewClient(sock).Session(ctx)
			if err != nil {
				return err
			}

			out := sessionOutput{Descriptor: desc}
			if check {
				health, err := session.CheckHealth(ctx, nil, desc)
				if err != nil {
					return err
				}
				out.Health = &health
			}

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, out)
			}
			p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			p.Field("base_url", desc.BaseURL)
			p.Field("token", desc.Token)
			if out.Health != nil {
				p.Field("backend", fmt.Sprintf("ok=%t mode=%s", out.Health.OK, out.Health.Mode))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Also verify the backend accepts the session token")
	return cmd
}

// NewStatusCmd reports whether a shell is running and what it supervises.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether exportshell is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
				return ErrNotRunning
			}

			sock, err := socketFor(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			st, err := ipc.NewClient(sock).Status(ctx)
			if err != nil {
				// The process holds the lock but its socket does not answer.
				st = ipc.Status{State: "Unknown", PID: pid}
			}

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, st)
			}
			p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			p.Field("state", st.State)
			p.Field("pid", st.PID)
			if st.BackendPID != 0 {
				p.Field("backend_pid", st.BackendPID)
			}
			if !st.StartedAt.IsZero() {
				p.Field("uptime", time.Since(st.StartedAt).Round(time.Second))
			}
			p.Path("socket", sock)
			return nil
		},
	}
}

// NewStopCmd signals a running shell to shut down.
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running exportshell and its backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if !running {
				p.Warn("exportshell is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return fmt.Errorf("failed to send stop signal to %d: %w", pid, err)
			}
			p.Success(fmt.Sprintf("Sent SIGTERM to process %d", pid))
			return nil
		},
	}
}
