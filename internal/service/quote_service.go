package service

import (
	"context"
	"fmt"
	"time"

	"quantfolio/internal/alert"
	"quantfolio/internal/marketdata"
	"quantfolio/internal/models"
	"quantfolio/internal/portfolio"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxParallelFetches = 8

// QuoteService pipes provider quotes into a portfolio and polls the alert
// book after every price change. Fetches run in parallel; applying them is
// serialized through the portfolio lock.
type QuoteService struct {
	portfolio *portfolio.Portfolio
	provider  marketdata.Provider
	alerts    *alert.Book
	timeout   time.Duration
	log       *logrus.Logger
}

func NewQuoteService(p *portfolio.Portfolio, provider marketdata.Provider, alerts *alert.Book, timeout time.Duration, log *logrus.Logger) *QuoteService {
	return &QuoteService{portfolio: p, provider: provider, alerts: alerts, timeout: timeout, log: log}
}

type RefreshReport struct {
	Applied map[string]models.Quote `json:"applied"`
	Failed  map[string]error        `json:"-"`
	Fired   []models.AlertEvent     `json:"fired"`
}

type fetchResult struct {
	quote models.Quote
	err   error
}

// Refresh quotes every held symbol once. A symbol whose fetch fails, or every
// symbol when ctx is cancelled before the fetches finish, is left untouched.
func (s *QuoteService) Refresh(ctx context.Context) (RefreshReport, error) {
	report := RefreshReport{
		Applied: map[string]models.Quote{},
		Failed:  map[string]error{},
		Fired:   []models.AlertEvent{},
	}
	symbols := s.portfolio.Symbols()
	results := make([]fetchResult, len(symbols))

	var g errgroup.Group
	g.SetLimit(maxParallelFetches)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			q, err := s.provider.FetchQuote(fctx, sym)
			results[i] = fetchResult{quote: q, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for _, sym := range symbols {
			report.Failed[sym] = err
		}
		return report, err
	}

	for i, sym := range symbols {
		r := results[i]
		if r.err != nil {
			s.log.Warnf("failed to fetch quote for %s: %v", sym, r.err)
			report.Failed[sym] = r.err
			continue
		}
		r.quote.Symbol = sym
		if _, err := s.portfolio.ApplySymbolQuote(r.quote); err != nil {
			s.log.Warnf("failed to apply quote for %s: %v", sym, err)
			report.Failed[sym] = err
			continue
		}
		s.log.Debugf("applied %s quote %s from %s", sym, r.quote.Price, r.quote.Source)
		report.Applied[sym] = r.quote
	}

	fired, err := s.alerts.EvaluateAll(ctx)
	report.Fired = append(report.Fired, fired...)
	if err != nil {
		return report, fmt.Errorf("evaluate alerts: %w", err)
	}
	return report, nil
}

// ApplyQuote records an externally observed price and returns the alerts it fired.
func (s *QuoteService) ApplyQuote(ctx context.Context, id uuid.UUID, price decimal.Decimal) ([]models.AlertEvent, error) {
	if err := s.portfolio.ApplyQuote(id, price); err != nil {
		return nil, err
	}
	fired, err := s.alerts.EvaluateAll(ctx)
	if err != nil {
		return fired, fmt.Errorf("evaluate alerts: %w", err)
	}
	return fired, nil
}

// Start refreshes on every tick until ctx is done.
func (s *QuoteService) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("price updater stopping")
				return
			case <-ticker.C:
				report, err := s.Refresh(ctx)
				if err != nil {
					s.log.Warnf("refresh failed: %v", err)
					continue
				}
				s.log.Infof("refreshed %d symbols, %d failed, %d alerts fired", len(report.Applied), len(report.Failed), len(report.Fired))
			}
		}
	}()
}
