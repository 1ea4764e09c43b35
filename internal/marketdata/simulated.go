package marketdata

import (
	"context"
	"math/rand"
	"time"

	"quantfolio/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// priceRange synthesizes prices in [low, low+span) rounded to cents. This is
// where a real vendor call would go.
type priceRange struct {
	low  float64
	span float64
	rnd  func() float64
}

func (r priceRange) next() decimal.Decimal {
	return decimal.NewFromFloat(r.low + r.rnd()*r.span).Round(2)
}

func simulatedQuote(ctx context.Context, name, symbol string, r priceRange) (models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return models.Quote{}, models.ProviderUnavailableError{Provider: name, Symbol: symbol, Err: err}
	}
	return models.Quote{
		Symbol:     symbol,
		Price:      r.next(),
		ObservedAt: time.Now().UTC(),
		Source:     name,
	}, nil
}

// AlphaVantage is the simulated equity feed keyed by an API key.
type AlphaVantage struct {
	apiKey string
	prices priceRange
	log    *logrus.Logger
}

func NewAlphaVantage(apiKey string, log *logrus.Logger) (*AlphaVantage, error) {
	if apiKey == "" {
		return nil, models.InvalidInputError{Op: "new alphavantage", Field: "api key", Reason: "must not be empty"}
	}
	return &AlphaVantage{
		apiKey: apiKey,
		prices: priceRange{low: 100, span: 100, rnd: rand.Float64},
		log:    log,
	}, nil
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	a.log.Debugf("fetching price for %s from Alpha Vantage", symbol)
	return simulatedQuote(ctx, a.Name(), symbol, a.prices)
}

// Binance is the simulated crypto feed bound to one trading pair.
type Binance struct {
	pair   string
	prices priceRange
	log    *logrus.Logger
}

func NewBinance(pair string, log *logrus.Logger) (*Binance, error) {
	if pair == "" {
		return nil, models.InvalidInputError{Op: "new binance", Field: "pair", Reason: "must not be empty"}
	}
	return &Binance{
		pair:   pair,
		prices: priceRange{low: 1000, span: 50000, rnd: rand.Float64},
		log:    log,
	}, nil
}

func (b *Binance) Name() string { return "binance" }
func (b *Binance) Pair() string { return b.pair }

// FetchQuote quotes symbol, or the bound pair when symbol is empty.
func (b *Binance) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if symbol == "" {
		symbol = b.pair
	}
	b.log.Debugf("fetching price for %s from Binance", symbol)
	return simulatedQuote(ctx, b.Name(), symbol, b.prices)
}

// YahooFinance is the simulated equity feed whose only identity is its
// request headers.
type YahooFinance struct {
	headers map[string]string
	prices  priceRange
	log     *logrus.Logger
}

func NewYahooFinance(log *logrus.Logger) *YahooFinance {
	return &YahooFinance{
		headers: map[string]string{"User-Agent": "Quantfolio"},
		prices:  priceRange{low: 100, span: 100, rnd: rand.Float64},
		log:     log,
	}
}

func (y *YahooFinance) Name() string { return "yahoofinance" }

func (y *YahooFinance) Headers() map[string]string {
	res := make(map[string]string, len(y.headers))
	for k, v := range y.headers {
		res[k] = v
	}
	return res
}

func (y *YahooFinance) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	y.log.Debugf("fetching price for %s from Yahoo Finance", symbol)
	return simulatedQuote(ctx, y.Name(), symbol, y.prices)
}
