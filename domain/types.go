package domain

import (
	"fmt"
)

// Logger is the minimal logging surface the core packages depend on.
type Logger interface {
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// DefaultLogger writes to stdout and is used when no logger is injected.
type DefaultLogger struct{}

func (DefaultLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] "+newline(format), args...)
}

func (DefaultLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
