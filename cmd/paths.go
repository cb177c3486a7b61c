package cmd

import (
	"github.com/grovetools/exportshell/cli"
	"github.com/grovetools/exportshell/logging"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the locations exportshell reads and writes.
type PathsOutput struct {
	ConfigDir    string `json:"config_dir"`
	GlobalConfig string `json:"global_config"`
	StateDir     string `json:"state_dir"`
	LogDir       string `json:"log_dir"`
	RuntimeDir   string `json:"runtime_dir"`
	Socket       string `json:"socket"`
	PidFile      string `json:"pid_file"`
}

func currentPaths() PathsOutput {
	return PathsOutput{
		ConfigDir:    paths.ConfigDir(),
		GlobalConfig: paths.GlobalConfigPath(),
		StateDir:     paths.StateDir(),
		LogDir:       paths.LogDir(),
		RuntimeDir:   paths.RuntimeDir(),
		Socket:       paths.SocketPath(),
		PidFile:      paths.PidFilePath(),
	}
}

func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by exportshell",
		Long: `Print the paths used by exportshell.

Directories follow the XDG Base Directory Specification. Setting
EXPORTSHELL_HOME moves all of them under a single root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := currentPaths()

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, out)
			}

			p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			p.Path("config_dir", out.ConfigDir)
			p.Path("global_config", out.GlobalConfig)
			p.Path("state_dir", out.StateDir)
			p.Path("log_dir", out.LogDir)
			p.Path("runtime_dir", out.RuntimeDir)
			p.Path("socket", out.Socket)
			p.Path("pid_file", out.PidFile)
			return nil
		},
	}
}
