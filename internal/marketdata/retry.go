package marketdata

import (
	"context"
	"time"

	"quantfolio/internal/models"

	"github.com/sirupsen/logrus"
)

// Retrying retries transient provider faults with doubling backoff. Unknown
// symbols and other errors are returned on the first attempt.
type Retrying struct {
	inner    Provider
	attempts int
	backoff  time.Duration
	log      *logrus.Logger
}

func NewRetrying(inner Provider, attempts int, backoff time.Duration, log *logrus.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{inner: inner, attempts: attempts, backoff: backoff, log: log}
}

func (r *Retrying) Name() string { return r.inner.Name() }

func (r *Retrying) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	wait := r.backoff
	var err error
	for i := 1; i <= r.attempts; i++ {
		var q models.Quote
		q, err = r.inner.FetchQuote(ctx, symbol)
		if err == nil || !models.IsRetryable(err) || i == r.attempts {
			return q, err
		}
		r.log.Warnf("fetch %s from %s failed (attempt %d/%d): %v", symbol, r.inner.Name(), i, r.attempts, err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return models.Quote{}, models.ProviderUnavailableError{Provider: r.inner.Name(), Symbol: symbol, Err: ctx.Err()}
		case <-t.C:
		}
		wait *= 2
	}
	return models.Quote{}, err
}
