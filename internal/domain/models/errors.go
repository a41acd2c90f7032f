package models

import "errors"

// Pipeline error taxonomy. Collaborator failures are wrapped with these so
// callers can classify with errors.Is.
var (
	// ErrValidation marks a rejected record; never fatal to a run.
	ErrValidation = errors.New("record validation failed")
	// ErrDuplicateBatch marks a batch whose fingerprint was already processed.
	ErrDuplicateBatch = errors.New("batch already processed")
	// ErrEnrichmentRetryable marks one failed enrichment attempt.
	ErrEnrichmentRetryable = errors.New("enrichment attempt failed")
	// ErrEnrichmentExhausted fails the analyze run.
	ErrEnrichmentExhausted = errors.New("enrichment attempts exhausted")
	// ErrObjectNotFound marks a missing blob key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrStorage wraps any blob, record store or bus failure; fatal to a run.
	ErrStorage = errors.New("storage failure")
	// ErrInternalComputation is absorbed by the metrics engine.
	ErrInternalComputation = errors.New("internal computation error")
)
