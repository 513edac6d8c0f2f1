// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusServiceUnavailable, ErrorTypeNetworkError},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusGatewayTimeout, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			backendErr := ClassifyHTTPStatus(tt.status)
			assert.Equal(t, tt.expected, backendErr.Type)
			assert.NotEmpty(t, backendErr.Message)
		})
	}
}

func TestBackendError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &BackendError{
		Type:    ErrorTypeNetworkError,
		Message: "request failed",
		Err:     inner,
	}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(&BackendError{Type: ErrorTypeRateLimit}))
	assert.True(t, IsRateLimitError(errors.New("HTTP 429 too many requests")))
	assert.False(t, IsRateLimitError(errors.New("boom")))
}

func TestIsTimeoutError(t *testing.T) {
	assert.True(t, IsTimeoutError(&BackendError{Type: ErrorTypeTimeout}))
	assert.True(t, IsTimeoutError(errors.New("context deadline exceeded")))
	assert.False(t, IsTimeoutError(errors.New("boom")))
}
