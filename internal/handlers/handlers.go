package handlers

import (
	"errors"
	"net/http"
	"time"

	"quantfolio/internal/alert"
	"quantfolio/internal/models"
	"quantfolio/internal/portfolio"
	"quantfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	portfolio *portfolio.Portfolio
	quotes    *service.QuoteService
	alerts    *alert.Book
	sink      alert.Sink
	log       *logrus.Logger
}

func NewHandler(p *portfolio.Portfolio, q *service.QuoteService, alerts *alert.Book, sink alert.Sink, log *logrus.Logger) *Handler {
	return &Handler{portfolio: p, quotes: q, alerts: alerts, sink: sink, log: log}
}

func (h *Handler) Register(rg gin.IRouter) {
	rg.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	rg.POST("/holdings", h.PostHolding)
	rg.GET("/holdings", h.GetHoldings)
	rg.GET("/holdings/:id", h.GetHolding)
	rg.POST("/holdings/:id/quote", h.PostQuote)
	rg.POST("/refresh", h.PostRefresh)
	rg.GET("/summary", h.GetSummary)
	rg.POST("/alerts", h.PostAlert)
	rg.GET("/alerts", h.GetAlerts)
	rg.POST("/alerts/:id/evaluate", h.EvaluateAlert)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var inv models.InvalidInputError
	var nf models.NotFoundError
	var us models.UnknownSymbolError
	var pu models.ProviderUnavailableError
	switch {
	case errors.As(err, &inv):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &us):
		return http.StatusUnprocessableEntity
	case errors.As(err, &pu):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("%s failed: %v", op, err)
	} else {
		h.log.Warnf("%s rejected: %v", op, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type HoldingView struct {
	ID            string    `json:"holding_id"`
	Symbol        string    `json:"symbol"`
	Quantity      string    `json:"quantity"`
	CostBasis     string    `json:"cost_basis"`
	LivePrice     string    `json:"live_price"`
	UnrealizedPnL string    `json:"unrealized_pnl"`
	Platform      string    `json:"platform"`
	LastQuotedAt  time.Time `json:"last_quoted_at"`
}

func holdingView(ho portfolio.Holding) HoldingView {
	return HoldingView{
		ID:            ho.ID().String(),
		Symbol:        ho.Symbol(),
		Quantity:      ho.Quantity().StringFixed(6),
		CostBasis:     ho.CostBasisPerUnit().StringFixed(4),
		LivePrice:     ho.LivePrice().StringFixed(4),
		UnrealizedPnL: ho.UnrealizedPnL().StringFixed(4),
		Platform:      ho.Platform(),
		LastQuotedAt:  ho.LastQuotedAt(),
	}
}

type AlertView struct {
	ID          string             `json:"alert_id"`
	HoldingID   string             `json:"holding_id"`
	TargetPrice string             `json:"target_price"`
	State       string             `json:"state"`
	Event       *models.AlertEvent `json:"event,omitempty"`
}

func alertView(e *alert.Evaluator) AlertView {
	v := AlertView{
		ID:          e.ID(),
		HoldingID:   e.HoldingID().String(),
		TargetPrice: e.TargetPrice().StringFixed(4),
		State:       e.State().String(),
	}
	if ev, ok := e.Event(); ok {
		v.Event = &ev
	}
	return v
}

type AcquisitionRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	CostBasis string `json:"cost_basis" binding:"required"`
	Platform  string `json:"platform"`
}

func (h *Handler) PostHolding(c *gin.Context) {
	var req AcquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid post body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		h.log.Warnf("invalid quantity: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity format"})
		return
	}
	cost, err := decimal.NewFromString(req.CostBasis)
	if err != nil {
		h.log.Warnf("invalid cost basis: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cost_basis format"})
		return
	}

	id, err := h.portfolio.RecordAcquisition(req.Symbol, q, cost, req.Platform)
	if err != nil {
		h.fail(c, "record acquisition", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"holding_id": id.String()})
}

func (h *Handler) GetHoldings(c *gin.Context) {
	res := []HoldingView{}
	for _, ho := range h.portfolio.Holdings() {
		res = append(res, holdingView(ho))
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) holdingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holding id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) GetHolding(c *gin.Context) {
	id, ok := h.holdingID(c)
	if !ok {
		return
	}
	ho, err := h.portfolio.Holding(id)
	if err != nil {
		h.fail(c, "get holding", err)
		return
	}
	c.JSON(http.StatusOK, holdingView(ho))
}

type QuoteRequest struct {
	Price string `json:"price" binding:"required"`
}

func (h *Handler) PostQuote(c *gin.Context) {
	id, ok := h.holdingID(c)
	if !ok {
		return
	}
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price format"})
		return
	}

	fired, err := h.quotes.ApplyQuote(c.Request.Context(), id, price)
	if err != nil {
		if s := statusFor(err); s == http.StatusBadRequest || s == http.StatusNotFound {
			h.fail(c, "apply quote", err)
			return
		}
		// the price is recorded; only alert delivery failed
		h.log.Warnf("alert delivery: %v", err)
	}
	if fired == nil {
		fired = []models.AlertEvent{}
	}
	ho, _ := h.portfolio.Holding(id)
	c.JSON(http.StatusOK, gin.H{"holding": holdingView(ho), "fired": fired})
}

func (h *Handler) PostRefresh(c *gin.Context) {
	report, err := h.quotes.Refresh(c.Request.Context())
	if err != nil {
		h.log.Warnf("refresh: %v", err)
	}
	applied := map[string]string{}
	for sym, q := range report.Applied {
		applied[sym] = q.Price.StringFixed(4)
	}
	failed := map[string]string{}
	for sym, e := range report.Failed {
		failed[sym] = e.Error()
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied, "failed": failed, "fired": report.Fired})
}

func (h *Handler) GetSummary(c *gin.Context) {
	s := h.portfolio.Summary()
	c.JSON(http.StatusOK, gin.H{
		"total_invested": s.TotalInvested.StringFixed(4),
		"current_value":  s.CurrentValue.StringFixed(4),
		"overall_return": s.ReturnString(),
	})
}

type AlertRequest struct {
	HoldingID   string `json:"holding_id" binding:"required"`
	TargetPrice string `json:"target_price" binding:"required"`
}

func (h *Handler) PostAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := uuid.Parse(req.HoldingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holding id"})
		return
	}
	target, err := decimal.NewFromString(req.TargetPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_price format"})
		return
	}

	e, err := alert.NewEvaluator(h.portfolio, id, target, h.sink)
	if err != nil {
		h.fail(c, "create alert", err)
		return
	}
	h.alerts.Add(e)
	c.JSON(http.StatusCreated, gin.H{"alert_id": e.ID()})
}

func (h *Handler) GetAlerts(c *gin.Context) {
	res := []AlertView{}
	for _, e := range h.alerts.List() {
		res = append(res, alertView(e))
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) EvaluateAlert(c *gin.Context) {
	e, err := h.alerts.Get(c.Param("id"))
	if err != nil {
		h.fail(c, "evaluate alert", err)
		return
	}
	fired, err := e.Evaluate(c.Request.Context())
	if err != nil && !fired {
		h.fail(c, "evaluate alert", err)
		return
	}
	if err != nil {
		h.log.Warnf("alert delivery: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"fired": fired, "alert": alertView(e)})
}
