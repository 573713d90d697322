package temporal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.flowcore.dev/sdk/internal/bridge"
)

func defaultConverter() *DefaultFailureConverter {
	return NewDefaultFailureConverter(nil, false)
}

func TestApplicationErrorToFailureAndBack(t *testing.T) {
	fc := defaultConverter()

	cause := errors.New("root cause")
	appErr := NewApplicationError("transient glitch", "Transient", false, cause, "detail", 7)

	f := fc.ErrorToFailure(appErr)
	require.NotNil(t, f)
	assert.Equal(t, "transient glitch", f.Message)
	info, ok := f.Info.(bridge.ApplicationFailureInfo)
	require.True(t, ok)
	assert.Equal(t, "Transient", info.Type)
	assert.False(t, info.NonRetryable)
	assert.Len(t, info.Details, 2)
	require.NotNil(t, f.Cause)
	assert.Equal(t, "root cause", f.Cause.Message)

	back := fc.FailureToError(f)
	var roundTripped *ApplicationError
	require.ErrorAs(t, back, &roundTripped)
	assert.Equal(t, "Transient", roundTripped.Type())
	var d1 string
	var d2 int
	require.NoError(t, roundTripped.Details(&d1, &d2))
	assert.Equal(t, "detail", d1)
	assert.Equal(t, 7, d2)
}

func TestFailureRoundTripIsLossless(t *testing.T) {
	fc := defaultConverter()

	original := &bridge.Failure{
		Message:    "activity failed",
		Source:     "server",
		StackTrace: "frame1\nframe2",
		Info: bridge.ActivityFailureInfo{
			ScheduledEventID: 5,
			StartedEventID:   6,
			ActivityType:     "Charge",
			ActivityID:       "a-1",
			RetryState:       bridge.RetryStateNonRetryableFailure,
		},
		Cause: &bridge.Failure{
			Message: "card declined",
			Info:    bridge.ApplicationFailureInfo{Type: "PaymentDeclined", NonRetryable: true},
		},
	}

	err := fc.FailureToError(original)
	var actErr *ActivityError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, bridge.RetryStateNonRetryableFailure, actErr.RetryState())

	// An error that round-tripped unchanged re-encodes to the exact same
	// Failure record.
	assert.Same(t, original, fc.ErrorToFailure(err))
}

func TestUnknownErrorBecomesApplicationFailure(t *testing.T) {
	fc := defaultConverter()

	f := fc.ErrorToFailure(errors.New("some library error"))
	info, ok := f.Info.(bridge.ApplicationFailureInfo)
	require.True(t, ok)
	assert.Equal(t, "errorString", info.Type)
	assert.False(t, info.NonRetryable)
}

func TestCancelledTimeoutTerminatedConversions(t *testing.T) {
	fc := defaultConverter()

	cancelled := fc.FailureToError(fc.ErrorToFailure(NewCancelledError("cleanup info")))
	require.True(t, IsCanceledError(cancelled))

	timeout := fc.FailureToError(fc.ErrorToFailure(NewHeartbeatTimeoutError("52%")))
	var timeoutErr *TimeoutError
	require.ErrorAs(t, timeout, &timeoutErr)
	assert.Equal(t, bridge.TimeoutTypeHeartbeat, timeoutErr.TimeoutType())
	var progress string
	require.NoError(t, timeoutErr.LastHeartbeatDetails(&progress))
	assert.Equal(t, "52%", progress)

	terminated := fc.FailureToError(fc.ErrorToFailure(NewTerminatedError()))
	var terminatedErr *TerminatedError
	require.ErrorAs(t, terminated, &terminatedErr)
}

func TestEncodeCommonAttributesRedactsAndRestores(t *testing.T) {
	encoding := NewDefaultFailureConverter(nil, true)
	plain := NewDefaultFailureConverter(nil, false)

	f := encoding.ErrorToFailure(NewApplicationError("secret message", "Leaky", false, nil))
	assert.Equal(t, "Encoded failure attributes", f.Message)
	assert.NotNil(t, f.EncodedAttributes)

	restored := plain.FailureToError(f)
	assert.Equal(t, "secret message", restored.Error())
}

func TestPanicErrorConversion(t *testing.T) {
	fc := defaultConverter()

	f := fc.ErrorToFailure(NewPanicError("nil deref", "stack frames"))
	info, ok := f.Info.(bridge.ApplicationFailureInfo)
	require.True(t, ok)
	assert.Equal(t, "PanicError", info.Type)
	assert.True(t, info.NonRetryable)
	assert.Equal(t, "stack frames", f.StackTrace)
}

func TestNexusFailureConversions(t *testing.T) {
	fc := defaultConverter()

	opFailure := &bridge.Failure{
		Message: "operation failed",
		Info: bridge.NexusOperationFailureInfo{
			Endpoint:  "payments",
			Service:   "billing",
			Operation: "charge",
		},
		Cause: &bridge.Failure{
			Message: "handler rejected",
			Info:    bridge.NexusHandlerFailureInfo{Type: bridge.NexusHandlerErrorBadRequest},
		},
	}

	err := fc.FailureToError(opFailure)
	var opErr *NexusOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "charge", opErr.Operation)

	var handlerErr *NexusHandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, "BAD_REQUEST", string(handlerErr.HandlerErrorType))

	// And back out again without losing the classification.
	f2 := fc.ErrorToFailure(err)
	assert.Same(t, opFailure, f2)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil, nil))
	assert.False(t, IsRetryable(NewCancelledError(), nil))
	assert.False(t, IsRetryable(NewTerminatedError(), nil))
	assert.False(t, IsRetryable(NewApplicationError("bad", "Invalid", true, nil), nil))
	assert.True(t, IsRetryable(NewApplicationError("flaky", "Transient", false, nil), nil))
	assert.False(t, IsRetryable(NewApplicationError("flaky", "Transient", false, nil), []string{"Transient"}))
	assert.True(t, IsRetryable(NewTimeoutError(bridge.TimeoutTypeStartToClose, nil), nil))
	assert.False(t, IsRetryable(NewTimeoutError(bridge.TimeoutTypeScheduleToStart, nil), nil))
	assert.False(t, IsRetryable(NewServerError("overloaded", true, nil), nil))
	assert.True(t, IsRetryable(NewServerError("overloaded", false, nil), nil))
}

func TestNextRetryDelaySurvivesRoundTrip(t *testing.T) {
	fc := defaultConverter()

	appErr := NewApplicationError("glitch", "Transient", false, nil).WithNextRetryDelay(int64(5e9))
	f := fc.ErrorToFailure(appErr)
	info := f.Info.(bridge.ApplicationFailureInfo)
	require.NotNil(t, info.NextRetryDelay)
	assert.Equal(t, int64(5e9), *info.NextRetryDelay)
}
