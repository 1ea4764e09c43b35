package alert

import (
	"context"
	"errors"
	"sync"

	"quantfolio/internal/models"
)

// Book keeps evaluators in creation order.
type Book struct {
	mu    sync.RWMutex
	order []*Evaluator
	byID  map[string]*Evaluator
}

func NewBook() *Book {
	return &Book{byID: map[string]*Evaluator{}}
}

func (b *Book) Add(e *Evaluator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byID[e.id]; ok {
		return
	}
	b.byID[e.id] = e
	b.order = append(b.order, e)
}

func (b *Book) Get(id string) (*Evaluator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.byID[id]
	if !ok {
		return nil, models.NotFoundError{Op: "get alert", ID: id}
	}
	return e, nil
}

func (b *Book) List() []*Evaluator {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]*Evaluator, len(b.order))
	copy(res, b.order)
	return res
}

// EvaluateAll polls every evaluator and returns the events that fired during
// this pass. Errors from individual evaluators are joined.
func (b *Book) EvaluateAll(ctx context.Context) ([]models.AlertEvent, error) {
	fired := []models.AlertEvent{}
	var errs []error
	for _, e := range b.List() {
		_, transitioned, err := e.evaluate(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		if transitioned {
			ev, _ := e.Event()
			fired = append(fired, ev)
		}
	}
	return fired, errors.Join(errs...)
}
