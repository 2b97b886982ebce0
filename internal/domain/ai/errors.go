package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNotConfigured indicates no API key is set; callers fall back to rule-based analysis.
var ErrNotConfigured = errors.New("ai client not configured")
