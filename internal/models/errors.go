package models

import (
	"errors"
	"fmt"
)

// InvalidInputError rejects malformed quantities, prices or credentials.
type InvalidInputError struct {
	Op     string
	Field  string
	Value  string
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("%s: invalid %s %q: %s", e.Op, e.Field, e.Value, e.Reason)
}

// NotFoundError reports a reference to a holding or alert that does not exist.
type NotFoundError struct {
	Op string
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Op, e.ID)
}

// ProviderUnavailableError is a transient provider fault (transport, timeout, rate limit).
type ProviderUnavailableError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e ProviderUnavailableError) Error() string {
	return fmt.Sprintf("%s: quote for %s unavailable: %v", e.Provider, e.Symbol, e.Err)
}

func (e ProviderUnavailableError) Unwrap() error { return e.Err }

// UnknownSymbolError means the provider cannot resolve the symbol. Never retried.
type UnknownSymbolError struct {
	Provider string
	Symbol   string
}

func (e UnknownSymbolError) Error() string {
	return fmt.Sprintf("%s: unknown symbol %s", e.Provider, e.Symbol)
}

// IsRetryable reports whether err is worth another fetch attempt.
func IsRetryable(err error) bool {
	var pu ProviderUnavailableError
	return errors.As(err, &pu)
}
