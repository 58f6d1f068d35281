// Package audit defines the audit/event sink consumed by the memory engine.
//
// Reinforcement and flag signals from the feedback loop are delivered as
// check events. Delivery is fire-and-forget: a sink failure is reported to
// the caller for logging but must never abort the primary operation.
package audit

import (
	"context"

	"github.com/charmbracelet/log"
)

// Severity levels for check events.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Check is a single audit check event.
type Check struct {
	// CheckName identifies the check, e.g. "pattern_reinforcement".
	CheckName string `json:"check_name"`

	// Result is the human-readable check result.
	Result string `json:"result"`

	// Passed reports whether the check passed.
	Passed bool `json:"passed"`

	// Severity is one of the Severity* constants.
	Severity string `json:"severity"`

	// Notes carries supporting detail.
	Notes string `json:"notes,omitempty"`
}

// Sink accepts audit check events.
type Sink interface {
	// Record delivers a check event. Implementations should return quickly;
	// callers treat failures as degradations, not errors.
	Record(ctx context.Context, check *Check) error
}

// LogSink writes check events to a structured logger. It is the default
// sink when the host application provides none.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink writing to the given logger, or the standard
// logger if nil.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

// Record implements Sink.
func (s *LogSink) Record(_ context.Context, check *Check) error {
	s.logger.Info("audit check",
		"check", check.CheckName,
		"result", check.Result,
		"passed", check.Passed,
		"severity", check.Severity,
		"notes", check.Notes,
	)
	return nil
}

// NoopSink discards all check events.
type NoopSink struct{}

// Record implements Sink.
func (NoopSink) Record(context.Context, *Check) error {
	return nil
}
