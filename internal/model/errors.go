package model

import "fmt"

// ConfigError is a fatal specification problem detected before any solver
// call. It names the offending class (and subject, when applicable) and is
// never retried or silently relaxed. Solver-reported infeasibility is not a
// ConfigError; it is a normal outcome handled by the diagnoser.
type ConfigError struct {
	Class   string
	Subject string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("class %q subject %q: %v", e.Class, e.Subject, e.Reason)
	}
	if e.Class != "" {
		return fmt.Sprintf("class %q: %v", e.Class, e.Reason)
	}
	return e.Reason
}

func configErrorf(class, subject, format string, args ...any) *ConfigError {
	return &ConfigError{Class: class, Subject: subject, Reason: fmt.Sprintf(format, args...)}
}
