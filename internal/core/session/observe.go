package session

import (
	"github.com/yndnr/lexdesk-go/internal/core/domain"
	"github.com/yndnr/lexdesk-go/internal/telemetry/logger"
	"github.com/yndnr/lexdesk-go/internal/telemetry/metric"
)

// LogTransitions returns a subscriber logging every transition.
// Error states are logged at warn level with their code.
func LogTransitions(l logger.Logger) Subscriber {
	return func(t domain.Transition) {
		args := []any{
			"from", t.From.Kind.String(),
			"to", t.To.Kind.String(),
			"cause", string(t.Cause),
			"seq", t.Seq,
		}
		if u := t.To.CurrentUser(); u != nil {
			args = append(args, "user_id", u.ID)
		}

		if t.To.Kind == domain.KindError {
			args = append(args, "reason", string(t.To.Reason), "error_code", domain.GetErrorCode(t.To.Err))
			l.Warn("session operation failed", args...)
			return
		}
		if t.To.Reason != domain.ReasonNone {
			args = append(args, "reason", string(t.To.Reason))
		}
		l.Info("session transition", args...)
	}
}

// RecordTransitions returns a subscriber feeding session metrics.
func RecordTransitions(r *metric.Registry) Subscriber {
	return func(t domain.Transition) {
		r.RecordTransition(string(t.Cause), t.To.Kind.String())
	}
}
