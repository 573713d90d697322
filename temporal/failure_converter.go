package temporal

import (
	"errors"
	"reflect"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
)

// FailureConverter converts between Go errors and the wire-independent
// bridge.Failure record, preserving cause chains in both directions.
type FailureConverter interface {
	ErrorToFailure(err error) *bridge.Failure
	FailureToError(f *bridge.Failure) error
}

// DefaultFailureConverter is the package default. EncodeCommonAttributes, if
// set, moves Message and StackTrace into EncodedAttributes so a codec (e.g.
// an encryption PayloadCodec) can redact them, leaving placeholders in the
// outer fields.
type DefaultFailureConverter struct {
	DataConverter          converter.DataConverter
	EncodeCommonAttributes bool
}

// NewDefaultFailureConverter builds a DefaultFailureConverter, defaulting
// DataConverter to converter.DefaultDataConverter when nil.
func NewDefaultFailureConverter(dc converter.DataConverter, encodeCommonAttributes bool) *DefaultFailureConverter {
	if dc == nil {
		dc = converter.DefaultDataConverter
	}
	return &DefaultFailureConverter{DataConverter: dc, EncodeCommonAttributes: encodeCommonAttributes}
}

func errorType(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func detailsToPayloads(v converter.Values, dc converter.DataConverter) []*bridge.Payload {
	if v == nil || !v.HasValues() {
		return nil
	}
	if ev, ok := v.(*converter.EncodedValues); ok {
		return ev.Payloads()
	}
	raw, ok := v.(converter.ErrorDetailsValues)
	if !ok {
		return nil
	}
	payloads, err := dc.ToPayloads(([]interface{})(raw)...)
	if err != nil {
		return nil
	}
	return payloads
}

// ErrorToFailure converts a Go error (possibly wrapping a chain of causes)
// into a bridge.Failure, recursing through errors.Unwrap for the cause
// chain. If err already carries its originating Failure (it round-tripped
// through FailureToError and was never mutated), that Failure is returned
// unchanged.
func (c *DefaultFailureConverter) ErrorToFailure(err error) *bridge.Failure {
	if err == nil {
		return nil
	}

	if fh, ok := err.(failureHolder); ok {
		if f := fh.failure(); f != nil {
			return f
		}
	}

	failure := &bridge.Failure{
		Source:  "FlowcoreGoSDK",
		Message: err.Error(),
	}

	switch e := err.(type) {
	case *ApplicationError:
		failure.Info = bridge.ApplicationFailureInfo{
			Type:           e.errType,
			NonRetryable:   e.nonRetryable,
			Details:        detailsToPayloads(e.details, c.DataConverter),
			NextRetryDelay: e.nextRetryDelay,
		}
	case *CancelledError:
		failure.Info = bridge.CancelledFailureInfo{Details: detailsToPayloads(e.details, c.DataConverter)}
	case *PanicError:
		failure.Info = bridge.ApplicationFailureInfo{Type: "PanicError", NonRetryable: true}
		failure.StackTrace = e.stackTrace
	case *TimeoutError:
		failure.Info = bridge.TimeoutFailureInfo{
			TimeoutType:          e.timeoutType,
			LastHeartbeatDetails: detailsToPayloads(e.lastHeartbeatDetails, c.DataConverter),
		}
	case *TerminatedError:
		failure.Info = bridge.TerminatedFailureInfo{}
	case *ServerError:
		failure.Info = bridge.ServerFailureInfo{NonRetryable: e.nonRetryable}
	case *ActivityError:
		failure.Info = bridge.ActivityFailureInfo{
			ScheduledEventID: e.scheduledEventID,
			StartedEventID:   e.startedEventID,
			Identity:         e.identity,
			ActivityType:     e.activityType,
			ActivityID:       e.activityID,
			RetryState:       e.retryState,
		}
	case *ChildWorkflowExecutionError:
		failure.Info = bridge.ChildWorkflowExecutionFailureInfo{
			Namespace:    e.namespace,
			WorkflowID:   e.workflowID,
			RunID:        e.runID,
			WorkflowName: e.workflowType,
			RetryState:   e.retryState,
		}
	case *NexusOperationError:
		failure.Info = bridge.NexusOperationFailureInfo{
			Endpoint:       e.Endpoint,
			Service:        e.Service,
			Operation:      e.Operation,
			OperationToken: e.OperationToken,
		}
	case *NexusHandlerError:
		failure.Info = bridge.NexusHandlerFailureInfo{Type: bridgeNexusHandlerErrorType(e.HandlerErrorType)}
	default:
		failure.Info = bridge.ApplicationFailureInfo{Type: errorType(err), NonRetryable: false}
	}

	if c.EncodeCommonAttributes {
		encodeCommonFailureAttributes(failure, c.DataConverter)
	}

	failure.Cause = c.ErrorToFailure(errors.Unwrap(err))
	return failure
}

func encodeCommonFailureAttributes(f *bridge.Failure, dc converter.DataConverter) {
	payloads, err := dc.ToPayloads(map[string]string{"message": f.Message, "stack_trace": f.StackTrace})
	if err != nil || len(payloads) == 0 {
		return
	}
	f.EncodedAttributes = payloads[0]
	f.Message = "Encoded failure attributes"
	f.StackTrace = ""
}

// decodeCommonFailureAttributes restores Message/StackTrace from
// EncodedAttributes (set when the encoding side redacted them), working on
// a copy so the original Failure is preserved for round-tripping.
func decodeCommonFailureAttributes(f *bridge.Failure, dc converter.DataConverter) *bridge.Failure {
	if f.EncodedAttributes == nil {
		return f
	}
	var attrs map[string]string
	if err := dc.FromPayloads([]*bridge.Payload{f.EncodedAttributes}, &attrs); err != nil {
		return f
	}
	restored := *f
	if msg, ok := attrs["message"]; ok {
		restored.Message = msg
	}
	if st, ok := attrs["stack_trace"]; ok {
		restored.StackTrace = st
	}
	return &restored
}

// FailureToError reconstructs a Go error from a received bridge.Failure,
// dispatching on the concrete FailureInfo variant. The returned error
// carries the original Failure, so re-encoding it (e.g. to fail an
// activity with the same cause) is lossless.
func (c *DefaultFailureConverter) FailureToError(f *bridge.Failure) error {
	if f == nil {
		return nil
	}
	f = decodeCommonFailureAttributes(f, c.DataConverter)

	var err error
	switch info := f.Info.(type) {
	case bridge.ApplicationFailureInfo:
		details := converter.NewEncodedValues(info.Details, c.DataConverter)
		switch info.Type {
		case "PanicError":
			err = NewPanicError(f.Message, f.StackTrace)
		default:
			appErr := NewApplicationError(f.Message, info.Type, info.NonRetryable, c.FailureToError(f.Cause), details)
			if info.NextRetryDelay != nil {
				appErr.WithNextRetryDelay(*info.NextRetryDelay)
			}
			err = appErr
		}
	case bridge.CancelledFailureInfo:
		err = NewCancelledError(converter.NewEncodedValues(info.Details, c.DataConverter))
	case bridge.TimeoutFailureInfo:
		details := converter.NewEncodedValues(info.LastHeartbeatDetails, c.DataConverter)
		err = NewTimeoutError(info.TimeoutType, c.FailureToError(f.Cause), details)
	case bridge.TerminatedFailureInfo:
		err = NewTerminatedError()
	case bridge.ServerFailureInfo:
		err = NewServerError(f.Message, info.NonRetryable, c.FailureToError(f.Cause))
	case bridge.ActivityFailureInfo:
		err = NewActivityError(info.ScheduledEventID, info.StartedEventID, info.Identity,
			info.ActivityType, info.ActivityID, info.RetryState, c.FailureToError(f.Cause))
	case bridge.ChildWorkflowExecutionFailureInfo:
		err = NewChildWorkflowExecutionError(info.Namespace, info.WorkflowID, info.RunID,
			info.WorkflowName, info.RetryState, c.FailureToError(f.Cause))
	case bridge.NexusOperationFailureInfo:
		err = &NexusOperationError{
			Endpoint:       info.Endpoint,
			Service:        info.Service,
			Operation:      info.Operation,
			OperationToken: info.OperationToken,
			cause:          c.FailureToError(f.Cause),
		}
	case bridge.NexusHandlerFailureInfo:
		err = &NexusHandlerError{
			HandlerErrorType: nexusHandlerErrorType(info.Type),
			message:          f.Message,
			cause:            c.FailureToError(f.Cause),
		}
	default:
		err = NewApplicationError(f.Message, "", false, c.FailureToError(f.Cause))
	}

	if fh, ok := err.(failureHolder); ok {
		fh.setFailure(f)
	}
	return err
}
