package provider

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ErrorClass categorizes a remote call failure for retry decisions.
type ErrorClass int

const (
	// ClassUnknown is an unrecognized error shape. Callers treat it as
	// retryable, bounded by the attempt limit.
	ClassUnknown ErrorClass = iota
	// ClassRetryable covers transient failures worth another attempt.
	ClassRetryable
	// ClassNonRetryable covers failures that will not improve on retry.
	ClassNonRetryable
)

// String returns a human-readable representation of the error class.
func (c ErrorClass) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassNonRetryable:
		return "non-retryable"
	default:
		return "unknown"
	}
}

// nonRetryableMarkers are provider-reported error types that indicate a
// request which will fail identically on retry.
var nonRetryableMarkers = []string{
	"invalid_request",
	"authentication",
	"permission",
	"not_found",
	"unprocessable",
	"insufficient_quota",
	"billing",
	"content_policy",
	"content_filter",
	"context_length",
}

// retryableMarkers are provider-reported error types for transient
// conditions.
var retryableMarkers = []string{
	"overloaded",
	"rate_limit",
	"api_error",
	"server_error",
	"timeout",
}

// Classify maps an error from a provider call to an ErrorClass.
//
// Retryable: connection errors, HTTP 5xx, 429, 408, timeouts, and
// provider-reported overload/rate-limit/transient types.
// Non-retryable: other HTTP 4xx and provider-reported quota, credential,
// invalid-request, content-policy, and context-length errors.
// Anything else is unknown.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}

	// Context deadline on a remote call is treated as a timeout.
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassRetryable
	}
	// Caller cancellation is final.
	if errors.Is(err, context.Canceled) {
		return ClassNonRetryable
	}

	if code, ok := statusCode(err); ok {
		return classifyStatus(code)
	}

	// Network-level connection failures.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetryable
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return ClassRetryable
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range nonRetryableMarkers {
		if strings.Contains(msg, marker) {
			return ClassNonRetryable
		}
	}
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return ClassRetryable
		}
	}

	return ClassUnknown
}

// statusCode extracts an HTTP status code from a provider SDK error.
func statusCode(err error) (int, bool) {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}
	return 0, false
}

func classifyStatus(code int) ErrorClass {
	switch {
	case code == 408 || code == 429:
		return ClassRetryable
	case code >= 500:
		return ClassRetryable
	case code >= 400:
		return ClassNonRetryable
	default:
		return ClassUnknown
	}
}
