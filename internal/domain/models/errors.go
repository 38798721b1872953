package models

import "fmt"

// NotFoundError means the upstream has no data for the symbol/range.
// Terminal: never retried, never cached as records.
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ticker '%s' not found or no data available", e.Symbol)
}

// UpstreamError means the upstream fetch failed after the client exhausted
// its retries.
type UpstreamError struct {
	Symbol string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to fetch prices for %s: %v", e.Symbol, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StoreError is a record store transport failure. Reads degrade to a cache
// miss; writes are best-effort and only logged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError is a malformed request. Surfaced to the caller before any
// store or upstream interaction.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}
