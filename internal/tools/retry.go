package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/corvid0/corvid/internal/index"
)

// retryablePatterns groups transient-failure substrings, matched
// case-insensitively against err.Error(). String matching is used because
// tool backends and their SDKs rarely expose typed errors for transient
// failures; index.ErrUnavailable is checked structurally first.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},
	{"500", "502", "503", "504", "unavailable"},
	{"connection reset", "timeout", "temporary"},
}

// Transient reports whether a tool backend failure is worth one retry.
// Handlers return transient errors to the dispatcher instead of folding them
// into a Result, so the retry happens before the model sees a failure.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, index.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}
