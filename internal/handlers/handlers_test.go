package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quantfolio/internal/alert"
	"quantfolio/internal/models"
	"quantfolio/internal/portfolio"
	"quantfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedProvider quotes every symbol at the same price.
type fixedProvider struct {
	price decimal.Decimal
}

func (f fixedProvider) Name() string { return "fixed" }

func (f fixedProvider) FetchQuote(_ context.Context, symbol string) (models.Quote, error) {
	if symbol == "NOPE" {
		return models.Quote{}, models.UnknownSymbolError{Provider: f.Name(), Symbol: symbol}
	}
	return models.Quote{Symbol: symbol, Price: f.price, ObservedAt: time.Now().UTC(), Source: f.Name()}, nil
}

type testServer struct {
	engine    *gin.Engine
	portfolio *portfolio.Portfolio
	alerts    *alert.Book
}

func setupServer(t *testing.T, sink alert.Sink) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(new(bytes.Buffer))

	p := portfolio.New()
	book := alert.NewBook()
	svc := service.NewQuoteService(p, fixedProvider{price: decimal.RequireFromString("200")}, book, time.Second, log)

	r := gin.New()
	NewHandler(p, svc, book, sink, log).Register(r)
	return &testServer{engine: r, portfolio: p, alerts: book}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *testServer) addHolding(t *testing.T, symbol, qty, cost string) string {
	t.Helper()
	w := s.do(t, "POST", "/holdings", gin.H{"symbol": symbol, "quantity": qty, "cost_basis": cost, "platform": "Robinhood"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res map[string]string
	decode(t, w, &res)
	return res["holding_id"]
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil)
	w := s.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHoldingLifecycle(t *testing.T) {
	s := setupServer(t, nil)
	id := s.addHolding(t, "AAPL", "10", "150")

	w := s.do(t, "GET", "/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sum map[string]string
	decode(t, w, &sum)
	assert.Equal(t, "1500.0000", sum["total_invested"])
	assert.Equal(t, "0.00%", sum["overall_return"])

	w = s.do(t, "POST", "/holdings/"+id+"/quote", gin.H{"price": "180"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, "GET", "/holdings/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ho HoldingView
	decode(t, w, &ho)
	assert.Equal(t, "AAPL", ho.Symbol)
	assert.Equal(t, "180.0000", ho.LivePrice)
	assert.Equal(t, "300.0000", ho.UnrealizedPnL)

	w = s.do(t, "GET", "/summary", nil)
	decode(t, w, &sum)
	assert.Equal(t, "1800.0000", sum["current_value"])
	assert.Equal(t, "20.00%", sum["overall_return"])

	w = s.do(t, "GET", "/holdings", nil)
	var list []HoldingView
	decode(t, w, &list)
	assert.Len(t, list, 1)
}

func TestPostHoldingValidation(t *testing.T) {
	s := setupServer(t, nil)
	cases := []struct {
		name string
		body gin.H
	}{
		{"missing symbol", gin.H{"quantity": "1", "cost_basis": "10"}},
		{"bad quantity", gin.H{"symbol": "AAPL", "quantity": "ten", "cost_basis": "10"}},
		{"zero quantity", gin.H{"symbol": "AAPL", "quantity": "0", "cost_basis": "10"}},
		{"negative cost", gin.H{"symbol": "AAPL", "quantity": "1", "cost_basis": "-5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, "POST", "/holdings", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
	assert.Equal(t, 0, s.portfolio.Len())
}

func TestQuoteErrors(t *testing.T) {
	s := setupServer(t, nil)
	id := s.addHolding(t, "TSLA", "3", "800")

	w := s.do(t, "POST", "/holdings/"+id+"/quote", gin.H{"price": "0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/holdings/"+uuid.NewString()+"/quote", gin.H{"price": "10"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "POST", "/holdings/not-a-uuid/quote", gin.H{"price": "10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "GET", "/holdings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.True(t, s.portfolio.Summary().CurrentValue.Equal(decimal.RequireFromString("2400")))
}

func TestAlertFiresOnceThroughQuote(t *testing.T) {
	var events []models.AlertEvent
	sink := alert.SinkFunc(func(_ context.Context, ev models.AlertEvent) error {
		events = append(events, ev)
		return nil
	})
	s := setupServer(t, sink)
	id := s.addHolding(t, "AAPL", "10", "150")

	w := s.do(t, "POST", "/alerts", gin.H{"holding_id": id, "target_price": "180"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]string
	decode(t, w, &created)
	alertID := created["alert_id"]
	require.NotEmpty(t, alertID)

	w = s.do(t, "POST", "/alerts/"+alertID+"/evaluate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Fired bool      `json:"fired"`
		Alert AlertView `json:"alert"`
	}
	decode(t, w, &res)
	assert.False(t, res.Fired)
	assert.Equal(t, "ARMED", res.Alert.State)

	s.do(t, "POST", "/holdings/"+id+"/quote", gin.H{"price": "181"})
	s.do(t, "POST", "/holdings/"+id+"/quote", gin.H{"price": "190"})
	require.Len(t, events, 1)
	assert.True(t, events[0].ObservedPrice.Equal(decimal.RequireFromString("181")))

	w = s.do(t, "GET", "/alerts", nil)
	var alerts []AlertView
	decode(t, w, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "FIRED", alerts[0].State)
	require.NotNil(t, alerts[0].Event)
	assert.Equal(t, "AAPL", alerts[0].Event.Symbol)
}

func TestPostAlertErrors(t *testing.T) {
	s := setupServer(t, nil)
	id := s.addHolding(t, "AAPL", "1", "100")

	w := s.do(t, "POST", "/alerts", gin.H{"holding_id": uuid.NewString(), "target_price": "10"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "POST", "/alerts", gin.H{"holding_id": id, "target_price": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/alerts/missing/evaluate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Empty(t, s.alerts.List())
}

func TestRefreshEndpoint(t *testing.T) {
	s := setupServer(t, nil)
	s.addHolding(t, "AAPL", "10", "150")
	s.addHolding(t, "NOPE", "1", "10")

	w := s.do(t, "POST", "/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Applied map[string]string `json:"applied"`
		Failed  map[string]string `json:"failed"`
	}
	decode(t, w, &res)
	assert.Equal(t, "200.0000", res.Applied["AAPL"])
	assert.Contains(t, res.Failed, "NOPE")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(models.InvalidInputError{Op: "x", Field: "y"}))
	assert.Equal(t, http.StatusNotFound, statusFor(models.NotFoundError{Op: "x", ID: "1"}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(models.UnknownSymbolError{Provider: "p", Symbol: "s"}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(models.ProviderUnavailableError{Provider: "p", Symbol: "s", Err: errors.New("down")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
