package cmd

import (
	"github.com/grovetools/exportshell/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the exportshell command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"exportshell",
		"Supervise the Messages Exporter backend and hand its session to the UI",
	)

	root.AddCommand(NewRunCmd())
	root.AddCommand(NewSessionCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewStopCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(NewLogsCmd())
	root.AddCommand(cli.NewVersionCommand("exportshell"))

	return root
}
