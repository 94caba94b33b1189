// Package notify delivers alerts to operators and downstream consumers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
)

// Sink delivers alerts to one destination.
type Sink interface {
	Name() string
	Notify(ctx context.Context, alert domain.Alert) error
}

// Null discards alerts.
type Null struct{}

// Name implements Sink.
func (Null) Name() string { return "null" }

// Notify implements Sink.
func (Null) Notify(context.Context, domain.Alert) error { return nil }

// Multi fans an alert out to several sinks. A failing sink does not stop
// delivery to the others.
type Multi struct {
	sinks  []Sink
	logger *zerolog.Logger
}

// NewMulti combines sinks. With no sinks it behaves like Null.
func NewMulti(logger *zerolog.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Multi{sinks: sinks, logger: logger}
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }

// Notify implements Sink. The returned error joins every sink failure.
func (m *Multi) Notify(ctx context.Context, alert domain.Alert) error {
	var errs []error

	for _, s := range m.sinks {
		if err := s.Notify(ctx, alert); err != nil {
			observability.NotifyFailures.WithLabelValues(s.Name()).Inc()
			m.logger.Warn().Err(err).Str("sink", s.Name()).Str("alert_type", string(alert.Type)).Msg("alert delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}

	return errors.Join(errs...)
}
