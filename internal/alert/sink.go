package alert

import (
	"context"
	"errors"

	"quantfolio/internal/models"

	"github.com/sirupsen/logrus"
)

// Sink receives alert events. Formatting and destination are the sink's business.
type Sink interface {
	Notify(ctx context.Context, ev models.AlertEvent) error
}

type SinkFunc func(ctx context.Context, ev models.AlertEvent) error

func (f SinkFunc) Notify(ctx context.Context, ev models.AlertEvent) error { return f(ctx, ev) }

type LogSink struct {
	log *logrus.Logger
}

func NewLogSink(log *logrus.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(_ context.Context, ev models.AlertEvent) error {
	s.log.WithFields(logrus.Fields{
		"alert_id":       ev.AlertID,
		"symbol":         ev.Symbol,
		"target_price":   ev.TargetPrice.String(),
		"observed_price": ev.ObservedPrice.String(),
		"alert_time":     ev.Time,
	}).Infof("ALERT: %s has reached the target price of %s", ev.Symbol, ev.TargetPrice)
	return nil
}

// MultiSink delivers to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, ev models.AlertEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
