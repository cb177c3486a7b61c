package cmd

import (
	"fmt"

	"github.com/grovetools/exportshell/cli"
	"github.com/grovetools/exportshell/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd groups the configuration inspection commands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect exportshell configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSchemaCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the merged configuration and the files it came from",
		Long: `Shows the final configuration built by merging layers:
1. Global config (~/.config/exportshell/exportshell.yml)
2. Project config (exportshell.yml, .yaml or .toml, found walking up)
3. Override files (exportshell.override.yml)
Defaults fill anything no layer sets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if cli.GetOptions(cmd).JSONOutput {
				format = "json"
			}
			return renderConfig(cmd, cfg, format)
		},
	}

	cmd.Flags().String("format", "yaml", "Output format: yaml, toml or json")
	return cmd
}

func renderConfig(cmd *cobra.Command, cfg *config.Config, format string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		return printJSON(cmd, cfg)
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render TOML: %w", err)
		}
		writeSources(cmd, cfg)
		fmt.Fprint(out, string(data))
		return nil
	case "yaml", "":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render YAML: %w", err)
		}
		writeSources(cmd, cfg)
		fmt.Fprint(out, string(data))
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeSources(cmd *cobra.Command, cfg *config.Config) {
	if len(cfg.Sources) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "# Source: defaults")
		return
	}
	for _, src := range cfg.Sources {
		fmt.Fprintf(cmd.OutOrStdout(), "# Source: %s\n", src)
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for exportshell.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
