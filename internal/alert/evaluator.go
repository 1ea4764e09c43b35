// Package alert watches holdings against target prices. An Evaluator fires at
// most once: the first Evaluate that sees the target reached emits one event
// through the Sink, later calls only report the fired state.
package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quantfolio/internal/models"
	"quantfolio/internal/portfolio"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingSource resolves a holding handle to a snapshot. The evaluator keeps
// only the handle, never the holding itself.
type HoldingSource interface {
	Holding(id uuid.UUID) (portfolio.Holding, error)
}

type State int

const (
	Armed State = iota
	Fired
)

func (s State) String() string {
	if s == Fired {
		return "FIRED"
	}
	return "ARMED"
}

type Evaluator struct {
	id        string
	source    HoldingSource
	holdingID uuid.UUID
	target    decimal.Decimal
	sink      Sink

	mu    sync.Mutex
	state State
	event models.AlertEvent
}

func NewEvaluator(source HoldingSource, holdingID uuid.UUID, targetPrice decimal.Decimal, sink Sink) (*Evaluator, error) {
	if targetPrice.IsNegative() {
		return nil, models.InvalidInputError{Op: "new alert", Field: "target price", Value: targetPrice.String(), Reason: "must not be negative"}
	}
	if _, err := source.Holding(holdingID); err != nil {
		return nil, err
	}
	return &Evaluator{
		id:        uuid.NewString(),
		source:    source,
		holdingID: holdingID,
		target:    targetPrice,
		sink:      sink,
	}, nil
}

func (e *Evaluator) ID() string                   { return e.id }
func (e *Evaluator) HoldingID() uuid.UUID         { return e.holdingID }
func (e *Evaluator) TargetPrice() decimal.Decimal { return e.target }

func (e *Evaluator) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Event returns the emitted event once the evaluator has fired.
func (e *Evaluator) Event() (models.AlertEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.event, e.state == Fired
}

// Evaluate reports whether the target has been reached. The notification is
// sent only on the ARMED -> FIRED transition; a sink error is returned but
// does not re-arm the evaluator.
func (e *Evaluator) Evaluate(ctx context.Context) (bool, error) {
	fired, _, err := e.evaluate(ctx)
	return fired, err
}

func (e *Evaluator) evaluate(ctx context.Context) (fired, transitioned bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Fired {
		return true, false, nil
	}

	h, err := e.source.Holding(e.holdingID)
	if err != nil {
		return false, false, err
	}
	if !h.HasReached(e.target) {
		return false, false, nil
	}

	e.state = Fired
	e.event = models.AlertEvent{
		AlertID:       e.id,
		Symbol:        h.Symbol(),
		TargetPrice:   e.target,
		ObservedPrice: h.LivePrice(),
		Time:          time.Now().UTC(),
	}
	if e.sink == nil {
		return true, true, nil
	}
	if err := e.sink.Notify(ctx, e.event); err != nil {
		return true, true, fmt.Errorf("notify alert %s: %w", e.id, err)
	}
	return true, true, nil
}
