package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	"github.com/lueurxax/threat-monitor/internal/output/notify"
	"github.com/lueurxax/threat-monitor/internal/platform/observability"
)

// AlertRepository persists alerts and analysis audit entries.
type AlertRepository interface {
	SaveAlert(ctx context.Context, alert domain.Alert) (string, error)
	SaveAnalysisLog(ctx context.Context, kind, input string, result any, took time.Duration) error
}

// Alerter stores alerts and hands them to a sink. Storage comes first so an
// alert survives a failing sink.
type Alerter struct {
	repo   AlertRepository
	sink   notify.Sink
	logger *zerolog.Logger
}

// NewAlerter creates an Alerter. A nil sink only stores alerts.
func NewAlerter(repo AlertRepository, sink notify.Sink, logger *zerolog.Logger) *Alerter {
	if sink == nil {
		sink = notify.Null{}
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Alerter{repo: repo, sink: sink, logger: logger}
}

// Emit stores and delivers alert. Failures are logged.
func (a *Alerter) Emit(ctx context.Context, alert domain.Alert) {
	id, err := a.repo.SaveAlert(ctx, alert)
	if err != nil {
		a.logger.Error().Err(err).Str("alert_type", string(alert.Type)).Msg("failed to save alert")

		return
	}

	alert.ID = id
	observability.AlertsEmitted.WithLabelValues(string(alert.Type)).Inc()

	a.logger.Info().
		Str("alert_id", id).
		Str("alert_type", string(alert.Type)).
		Str("severity", alert.Severity).
		Msg(alert.Message)

	if err := a.sink.Notify(ctx, alert); err != nil {
		a.logger.Warn().Err(err).Str("alert_id", id).Msg("alert delivery failed")
	}
}
