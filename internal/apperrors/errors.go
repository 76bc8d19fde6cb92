package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrRateLimited indicates the upstream market-data API answered with HTTP 429.
// It is retried internally and never surfaced past the service boundary.
var ErrRateLimited = errors.New("upstream rate limited")

// ErrTransient indicates a temporary upstream failure (timeout, network error,
// 5xx). Retried internally, never surfaced past the service boundary.
var ErrTransient = errors.New("transient upstream error")

// ErrDataUnavailable indicates retries were exhausted and no cached data,
// fresh or stale, exists to fall back on. This is the only upstream failure
// mode surfaced to the API layer.
var ErrDataUnavailable = errors.New("market data unavailable")
