package service

import "errors"

var (
	// ErrReasonerDisabled is returned when no API key is configured
	ErrReasonerDisabled = errors.New("language reasoning is not enabled")
	// ErrEmptyResponse is returned when the reasoning service answers with no choices
	ErrEmptyResponse = errors.New("empty reasoning response")
	// ErrListingNotFound is returned when a listing id is not in the current snapshot
	ErrListingNotFound = errors.New("listing not found")
	// ErrCommuteUnavailable is returned by routing scorers that cannot answer
	ErrCommuteUnavailable = errors.New("commute routing unavailable")
)
