package llm

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"
)

var retryableStatus = map[int]bool{403: true, 404: true, 408: true, 409: true, 429: true, 500: true, 502: true, 503: true}

var retryHints = []string{
	"rate limit", "too many requests", "quota", "timeout", "timed out", "deadline", "resource exhausted", "resource_exhausted",
	"unavailable", "overloaded", "connection reset", "connection refused", "eof", "temporarily",
}

// IsRetryable reports whether err looks transient, so the next model is
// worth a try. Caller cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatus[apiErr.StatusCode] || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, h := range retryHints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}

var spaceRe = regexp.MustCompile(`\s+`)

// shortError squashes whitespace and caps the message for logs.
func shortError(err error) string {
	if err == nil {
		return ""
	}
	s := strings.TrimSpace(spaceRe.ReplaceAllString(err.Error(), " "))
	if r := []rune(s); len(r) > 400 {
		s = string(r[:400])
	}
	return s
}
