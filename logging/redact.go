package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Redacted replaces the value of a sensitive field.
const Redacted = "[redacted]"

// DefaultRedactedKeys name fields that may carry the session credential.
var DefaultRedactedKeys = []string{"token", "credential", "api_token"}

// RedactHook blanks sensitive fields before any formatter sees them.
// Keys match case-insensitively.
type RedactHook struct {
	keys map[string]struct{}
}

// NewRedactHook returns a hook for the given keys, or DefaultRedactedKeys if none.
func NewRedactHook(keys ...string) *RedactHook {
	if len(keys) == 0 {
		keys = DefaultRedactedKeys
	}
	h := &RedactHook{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		h.keys[strings.ToLower(k)] = struct{}{}
	}
	return h
}

func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire runs on the entry copy logrus builds per call, so rewriting Data
// does not touch the caller's fields.
func (h *RedactHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if _, ok := h.keys[strings.ToLower(key)]; ok {
			entry.Data[key] = Redacted
		}
	}
	return nil
}
