// Package notifications carries operator-facing notices: storage degradation,
// delivery failures and wizard prompts. Customers never see them.
package notifications

import (
	"context"
	"strings"

	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	default:
		return false
	}
}

// Sink receives operator notices. Implementations must not block on the caller.
type Sink interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// LogSink writes notices to the structured log.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	return &LogSink{logg: logg}
}

func (s *LogSink) Notify(ctx context.Context, message string, severity Severity) {
	if s == nil || s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"notice":   strings.TrimSpace(message),
		"severity": string(severity),
	})
	switch severity {
	case SeverityError:
		s.logg.Error(ctx, "operator.notice", nil)
	case SeverityWarning:
		s.logg.Warn(ctx, "operator.notice")
	default:
		s.logg.Info(ctx, "operator.notice")
	}
}

// Fanout forwards every notice to each non-nil sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, message string, severity Severity) {
	for _, sink := range f {
		if sink != nil {
			sink.Notify(ctx, message, severity)
		}
	}
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(context.Context, string, Severity) {}

