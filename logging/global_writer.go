package logging

import (
	"io"
	"os"
	"sync"
)

// stderrSink delegates to a writer that can be swapped at runtime.
// Every logger's stderr output goes through it.
type stderrSink struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *stderrSink) Write(p []byte) (n int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *stderrSink) set(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

var defaultStderr = &stderrSink{w: os.Stderr}

// SetStderr redirects the stderr sink of all loggers and returns the previous writer.
func SetStderr(w io.Writer) io.Writer {
	return defaultStderr.set(w)
}
