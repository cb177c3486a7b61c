package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/exportshell/config"
	"github.com/grovetools/exportshell/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	var logCfg Config
	if cfg, err := config.LoadDefault(); err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}

	entry := New(component, logCfg)
	loggers[component] = entry
	return entry
}

// New builds an uncached logger for component from an explicit config.
func New(component string, logCfg Config) *logrus.Entry {
	logger := logrus.New()
	logger.AddHook(NewRedactHook())

	levelStr := "info"
	if env := os.Getenv(EnvLevel); env != "" {
		levelStr = env
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv(EnvCaller) == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	interactive := isInteractive(os.Stderr)
	logger.SetFormatter(newFormatter(logCfg.Format, !interactive))

	if !logCfg.File.Disabled {
		path := logCfg.File.Path
		if path == "" {
			path = DefaultFilePath(component, time.Now())
		}
		if hook, err := newFileHook(paths.Expand(path), logCfg); err == nil {
			logger.AddHook(hook)
		} else if logCfg.File.Path != "" {
			// Only an explicitly configured file is worth a warning.
			fmt.Fprintf(defaultStderr, "exportshell: failed to open log file %s: %v\n", path, err)
		}
	}

	if shouldLogToStderr(logCfg.Format.StructuredToStderr, level, interactive) {
		logger.SetOutput(defaultStderr)
	} else {
		logger.SetOutput(io.Discard)
	}

	return logger.WithField("component", component)
}

// DefaultFilePath is where a component logs on a given day.
func DefaultFilePath(component string, day time.Time) string {
	return filepath.Join(paths.LogDir(), fmt.Sprintf("%s-%s.log", component, day.Format("2006-01-02")))
}

func newFormatter(format FormatConfig, plain bool) logrus.Formatter {
	switch format.Preset {
	case "json":
		return &logrus.JSONFormatter{}
	case "simple":
		return &TextFormatter{Config: FormatConfig{DisableTimestamp: true, DisableComponent: true}, Plain: plain}
	default:
		return &TextFormatter{Config: format, Plain: plain}
	}
}

// shouldLogToStderr applies the structured_to_stderr mode. In "auto" mode
// structured logs reach stderr only when debugging or when stderr is not a terminal.
func shouldLogToStderr(mode string, level logrus.Level, interactive bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return level >= logrus.DebugLevel || !interactive
	}
}

func isInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// fileHook writes every entry to a file with its own formatter, so the file
// never carries terminal styling.
type fileHook struct {
	mu        sync.Mutex
	w         io.Writer
	formatter logrus.Formatter
}

func newFileHook(path string, logCfg Config) (*fileHook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}

	var formatter logrus.Formatter = &TextFormatter{Config: FormatConfig{}, Plain: true}
	if logCfg.File.Format == "json" {
		formatter = &logrus.JSONFormatter{}
	}
	return &fileHook{w: file, formatter: formatter}, nil
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(line)
	return err
}
