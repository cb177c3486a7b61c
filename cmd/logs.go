package cmd

import (
	"bufio"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show exportshell's log file",
		Long: `Prints the most recent log file of a component from the log directory.

Examples:
  # Follow the supervisor log
  exportshell logs -f

  # Last 50 lines
  exportshell logs --tail 50
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, _ := cmd.Flags().GetString("component")
			follow, _ := cmd.Flags().GetBool("follow")
			tailLines, _ := cmd.Flags().GetInt("tail")

			path, err := findLatestLogFile(paths.LogDir(), comp)
			if err != nil {
				return err
			}

			if err := printTail(cmd.OutOrStdout(), path, tailLines); err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return followFile(cmd, path)
		},
	}

	cmd.Flags().String("component", component, "Component whose log to show")
	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of the log (default: all)")

	return cmd
}

// findLatestLogFile returns the most recently modified <component>-*.log in dir.
func findLatestLogFile(dir, comp string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, comp+"-*.log"))
	if err != nil {
		return "", err
	}

	var latest string
	var latestInfo os.FileInfo
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latestInfo == nil || info.ModTime().After(latestInfo.ModTime()) {
			latest, latestInfo = m, info
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no log files for %s found in %s", comp, dir)
	}
	return latest, nil
}

// printTail writes the last n lines of path, or all of it when n < 0.
func printTail(w io.Writer, path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n >= 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(lines) > 0 {
		fmt.Fprintln(w, strings.Join(lines, "\n"))
	}
	return nil
}

// followFile streams lines appended to path until the command's context ends.
func followFile(cmd *cobra.Command, path string) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to follow %s: %w", path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
