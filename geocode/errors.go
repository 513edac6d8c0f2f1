// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// BackendError represents a failure while talking to a geocoding service.
// The resolver treats every BackendError as a tier miss, never as a fatal
// condition, but callers can still inspect the type for reporting.
type BackendError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies backend failures.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit means the service throttled us.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the service quota ran out.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout is a connection or deadline timeout.
	ErrorTypeTimeout
	// ErrorTypeInvalidRequest means the service rejected the query.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError is a transport-level failure.
	ErrorTypeNetworkError
	// ErrorTypeMalformedResponse means the payload could not be decoded.
	ErrorTypeMalformedResponse
)

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether the error is a throttling response.
func IsRateLimitError(err error) bool {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsTimeoutError reports whether the error is a timeout.
func IsTimeoutError(err error) bool {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPStatus maps an HTTP status code from a geocoding service to a
// typed backend error.
func ClassifyHTTPStatus(statusCode int) *BackendError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &BackendError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden:
		return &BackendError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &BackendError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &BackendError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &BackendError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected HTTP status %d", statusCode),
		}
	}
}
