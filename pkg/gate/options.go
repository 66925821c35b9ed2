package gate

import (
	"log/slog"

	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the logger for degradation warnings.
// Nil loggers are ignored; the default discards output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEvaluator sets a custom evaluator, e.g. one built on a non-default
// feature catalog.
func WithEvaluator(eval *entitlement.Evaluator) Option {
	return func(s *Service) {
		if eval != nil {
			s.eval = eval
		}
	}
}

// WithFallback overrides the snapshot substituted when the billing
// collaborator cannot be reached. The default is the free-tier
// entitlement.DefaultSnapshot.
func WithFallback(fn func() *entitlement.Snapshot) Option {
	return func(s *Service) {
		if fn != nil {
			s.fallback = fn
		}
	}
}
