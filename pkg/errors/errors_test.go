package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewUpstreamError("eligibility request rejected", 400, `{"error":"bad dob"}`, nil)
	assert.Equal(t, "UPSTREAM: eligibility request rejected (status 400)", err.Error())

	wrapped := NewTransportError("eligibility call failed", context.DeadlineExceeded)
	assert.Equal(t, "TRANSPORT: eligibility call failed: context deadline exceeded", wrapped.Error())
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestIsType_WrappedChain(t *testing.T) {
	err := fmt.Errorf("procedure D0120: %w", NewTransportError("dial", nil))

	assert.True(t, IsType(err, ErrorTypeTransport))
	assert.False(t, IsType(err, ErrorTypeUpstream))
	assert.True(t, IsUpstreamFailure(err))
	assert.False(t, IsUpstreamFailure(NewValidationError("provider is required")))
	assert.False(t, IsUpstreamFailure(fmt.Errorf("plain")))
}

func TestAs(t *testing.T) {
	appErr, ok := As(fmt.Errorf("outer: %w", NewUpstreamError("boom", 503, "down", nil)))
	assert.True(t, ok)
	assert.Equal(t, 503, appErr.StatusCode)
	assert.Equal(t, "down", appErr.Body)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestClassifyUpstreamFailure(t *testing.T) {
	assert.Equal(t, FailureRejected, ClassifyUpstreamFailure(NewUpstreamError("bad request", 422, "", nil)))
	assert.Equal(t, FailureUnavailable, ClassifyUpstreamFailure(NewUpstreamError("down", 503, "", nil)))
	assert.Equal(t, FailureUnavailable, ClassifyUpstreamFailure(NewUpstreamError("undecodable", 200, "<html>", nil)))
	assert.Equal(t, FailureUnreachable, ClassifyUpstreamFailure(fmt.Errorf("procedure D0120: %w", NewTransportError("dial", nil))))
	assert.Equal(t, FailureUnknown, ClassifyUpstreamFailure(NewValidationError("x")))
	assert.Equal(t, FailureUnknown, ClassifyUpstreamFailure(context.Canceled))
}
