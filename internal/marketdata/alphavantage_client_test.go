package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quantfolio/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ibmQuote = `{
	"Global Quote": {
		"01. symbol": "IBM",
		"02. open": "185.00",
		"03. high": "186.50",
		"04. low": "184.50",
		"05. price": "186.20",
		"06. volume": "3456789",
		"07. latest trading day": "2024-01-15",
		"08. previous close": "185.00",
		"09. change": "1.20",
		"10. change percent": "0.65%"
	}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *AlphaVantageClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewAlphaVantageClient("test-key", srv.URL, srv.Client(), logrus.New())
	require.NoError(t, err)
	return c
}

func TestAlphaVantageClientFetchQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "IBM", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(ibmQuote))
	})

	q, err := c.FetchQuote(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Equal(t, "IBM", q.Symbol)
	assert.Equal(t, "186.2", q.Price.String())
	assert.Equal(t, "alphavantage", q.Source)
	assert.False(t, q.ObservedAt.IsZero())
}

func TestAlphaVantageClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		unknown bool
	}{
		{name: "server error", status: http.StatusBadGateway, body: ``},
		{name: "rate limit note", status: http.StatusOK, body: `{"Note": "API call frequency is limited"}`},
		{name: "information", status: http.StatusOK, body: `{"Information": "premium endpoint"}`},
		{name: "thank you message", status: http.StatusOK, body: `Thank you for using Alpha Vantage!`},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
		{name: "zero price", status: http.StatusOK, body: `{"Global Quote": {"05. price": "0.0000"}}`},
		{name: "error message", status: http.StatusOK, body: `{"Error Message": "Invalid API call"}`, unknown: true},
		{name: "empty quote", status: http.StatusOK, body: `{"Global Quote": {}}`, unknown: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.FetchQuote(context.Background(), "XYZ")
			require.Error(t, err)

			var us models.UnknownSymbolError
			var pu models.ProviderUnavailableError
			if tt.unknown {
				assert.True(t, errors.As(err, &us), "want UnknownSymbolError, got %v", err)
				assert.Equal(t, "XYZ", us.Symbol)
			} else {
				assert.True(t, errors.As(err, &pu), "want ProviderUnavailableError, got %v", err)
			}
		})
	}
}

func TestAlphaVantageClientTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.FetchQuote(ctx, "IBM")
	assert.True(t, models.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewAlphaVantageClientDefaults(t *testing.T) {
	_, err := NewAlphaVantageClient("", "", nil, logrus.New())
	var inv models.InvalidInputError
	require.True(t, errors.As(err, &inv))

	c, err := NewAlphaVantageClient("k", "", nil, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, defaultAlphaVantageURL, c.baseURL)
	assert.Equal(t, 10*time.Second, c.client.Timeout)

	c, err = NewAlphaVantageClient("k", "http://localhost:9000/", nil, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", c.baseURL)
}
