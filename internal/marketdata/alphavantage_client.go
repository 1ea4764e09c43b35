package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quantfolio/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultAlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantageClient fetches GLOBAL_QUOTE over HTTP.
type AlphaVantageClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

// NewAlphaVantageClient returns a network-backed provider. An empty baseURL
// targets the public API; a nil httpClient gets a 10s timeout client.
func NewAlphaVantageClient(apiKey, baseURL string, httpClient *http.Client, log *logrus.Logger) (*AlphaVantageClient, error) {
	if apiKey == "" {
		return nil, models.InvalidInputError{Op: "new alphavantage client", Field: "api key", Reason: "must not be empty"}
	}
	if baseURL == "" {
		baseURL = defaultAlphaVantageURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AlphaVantageClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		log:     log,
	}, nil
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

type globalQuoteResponse struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	ErrorMessage string            `json:"Error Message"`
}

func (c *AlphaVantageClient) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	unavailable := func(err error) (models.Quote, error) {
		return models.Quote{}, models.ProviderUnavailableError{Provider: c.Name(), Symbol: symbol, Err: err}
	}

	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return unavailable(err)
	}

	c.log.Debugf("fetching price for %s from Alpha Vantage", symbol)
	resp, err := c.client.Do(req)
	if err != nil {
		return unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unavailable(fmt.Errorf("status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return unavailable(err)
	}

	price, err := parseGlobalQuote(body)
	if err != nil {
		var unknown errUnknown
		if errors.As(err, &unknown) {
			return models.Quote{}, models.UnknownSymbolError{Provider: c.Name(), Symbol: symbol}
		}
		return unavailable(err)
	}
	return models.Quote{
		Symbol:     symbol,
		Price:      price,
		ObservedAt: time.Now().UTC(),
		Source:     c.Name(),
	}, nil
}

type errUnknown struct{ msg string }

func (e errUnknown) Error() string { return e.msg }

func parseGlobalQuote(body []byte) (decimal.Decimal, error) {
	var res globalQuoteResponse
	if err := json.Unmarshal(body, &res); err != nil {
		if strings.Contains(string(body), "Thank you for using Alpha Vantage") {
			return decimal.Zero, errors.New("rate limit exceeded")
		}
		return decimal.Zero, fmt.Errorf("decode global quote: %w", err)
	}
	if res.Note != "" || res.Information != "" {
		return decimal.Zero, fmt.Errorf("rate limit exceeded: %s%s", res.Note, res.Information)
	}
	if res.ErrorMessage != "" {
		return decimal.Zero, errUnknown{msg: res.ErrorMessage}
	}
	raw, ok := res.GlobalQuote["05. price"]
	if !ok || raw == "" {
		return decimal.Zero, errUnknown{msg: "empty global quote"}
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", raw)
	}
	return price, nil
}
