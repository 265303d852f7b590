package errors

import (
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination
// at the command boundary. Every fatal condition gets exactly one log
// line and one exit code.
type CLIErrorAdapter struct {
	logger *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{logger: logger}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch GetCategory(err) {
	case CategoryConfig:
		return 2 // configuration error
	case CategoryStore:
		return 3 // persisted counter error
	case CategoryNetwork:
		return 4 // broker error
	default:
		return 1
	}
}

// Report logs the error with its category and returns the exit code.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	a.logger.Error("command failed", "category", GetCategory(err), "error", err)
	return a.ExitCodeFor(err)
}
