package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNotConfigured is returned when no provider API key is configured.
var ErrNotConfigured = errors.New("ai provider not configured")

// ErrMalformedOutput means the completion was not JSON matching the analysis schema.
var ErrMalformedOutput = errors.New("ai output does not match analysis schema")
