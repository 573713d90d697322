// Package temporal holds the public error types exchanged between
// workflow/activity code and the engine.
package temporal

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/nexus-rpc/sdk-go/nexus"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
)

// ErrNoData is returned when extracting strongly typed data that is absent.
var ErrNoData = errors.New("no data available")

type flowError struct {
	originalFailure *bridge.Failure
}

func (e *flowError) setFailure(f *bridge.Failure) { e.originalFailure = f }
func (e *flowError) failure() *bridge.Failure      { return e.originalFailure }

type failureHolder interface {
	setFailure(*bridge.Failure)
	failure() *bridge.Failure
}

// ApplicationError is returned from activity/workflow code via
// NewApplicationError, or synthesized for any unrecognized error type
// returned by user code (Application failure info).
type ApplicationError struct {
	flowError
	message        string
	errType        string
	nonRetryable   bool
	nextRetryDelay *int64
	cause          error
	details        converter.Values
}

// NewApplicationError creates an ApplicationError with a message, a type
// name used for retry-policy matching, a non-retryable flag, and optional
// details. Passing a single *converter.EncodedValues (as produced when
// reconstructing an error from a received Failure) defers decoding instead
// of re-wrapping it.
func NewApplicationError(message string, errType string, nonRetryable bool, cause error, details ...interface{}) *ApplicationError {
	if errType == "" {
		errType = "ApplicationError"
	}
	e := &ApplicationError{message: message, errType: errType, nonRetryable: nonRetryable, cause: cause}
	if len(details) == 1 {
		if d, ok := details[0].(*converter.EncodedValues); ok {
			e.details = d
			return e
		}
	}
	e.details = converter.ErrorDetailsValues(details)
	return e
}

func (e *ApplicationError) Error() string      { return e.message }
func (e *ApplicationError) Unwrap() error      { return e.cause }
func (e *ApplicationError) Type() string       { return e.errType }
func (e *ApplicationError) NonRetryable() bool { return e.nonRetryable }

// HasDetails reports whether the application error carries details.
func (e *ApplicationError) HasDetails() bool { return e.details != nil && e.details.HasValues() }

// Details decodes the error's details into valuePtrs.
func (e *ApplicationError) Details(valuePtrs ...interface{}) error {
	if e.details == nil {
		return ErrNoData
	}
	return e.details.Get(valuePtrs...)
}

// WithNextRetryDelay overrides the server-computed retry backoff for the
// next attempt (next_retry_delay).
func (e *ApplicationError) WithNextRetryDelay(d int64) *ApplicationError {
	e.nextRetryDelay = &d
	return e
}

// CancelledError is returned when a workflow or activity observes
// cooperative cancellation.
type CancelledError struct {
	flowError
	details converter.Values
}

func NewCancelledError(details ...interface{}) *CancelledError {
	if len(details) == 1 {
		if d, ok := details[0].(*converter.EncodedValues); ok {
			return &CancelledError{details: d}
		}
	}
	return &CancelledError{details: converter.ErrorDetailsValues(details)}
}

func (e *CancelledError) Error() string { return "canceled" }

func (e *CancelledError) HasDetails() bool { return e.details != nil && e.details.HasValues() }

func (e *CancelledError) Details(valuePtrs ...interface{}) error {
	if e.details == nil {
		return ErrNoData
	}
	return e.details.Get(valuePtrs...)
}

// TimeoutError is returned when an activity or child workflow times out.
type TimeoutError struct {
	flowError
	timeoutType          bridge.TimeoutType
	lastHeartbeatDetails converter.Values
	cause                error
}

func NewTimeoutError(timeoutType bridge.TimeoutType, cause error, lastHeartbeatDetails ...interface{}) *TimeoutError {
	e := &TimeoutError{timeoutType: timeoutType, cause: cause}
	if len(lastHeartbeatDetails) == 1 {
		if d, ok := lastHeartbeatDetails[0].(*converter.EncodedValues); ok {
			e.lastHeartbeatDetails = d
			return e
		}
	}
	e.lastHeartbeatDetails = converter.ErrorDetailsValues(lastHeartbeatDetails)
	return e
}

// NewHeartbeatTimeoutError creates a TimeoutError of type Heartbeat.
func NewHeartbeatTimeoutError(details ...interface{}) *TimeoutError {
	return NewTimeoutError(bridge.TimeoutTypeHeartbeat, nil, details...)
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("timeout (type %v): %v", e.timeoutType, e.cause) }
func (e *TimeoutError) Unwrap() error                   { return e.cause }
func (e *TimeoutError) TimeoutType() bridge.TimeoutType { return e.timeoutType }

func (e *TimeoutError) HasLastHeartbeatDetails() bool {
	return e.lastHeartbeatDetails != nil && e.lastHeartbeatDetails.HasValues()
}

func (e *TimeoutError) LastHeartbeatDetails(valuePtrs ...interface{}) error {
	if e.lastHeartbeatDetails == nil {
		return ErrNoData
	}
	return e.lastHeartbeatDetails.Get(valuePtrs...)
}

// TerminatedError is returned when the workflow was force-terminated.
// Reason and details are only populated when the termination was observed
// through a close event, which carries them; the in-workflow failure record
// does not.
type TerminatedError struct {
	flowError
	reason  string
	details converter.Values
}

func NewTerminatedError() *TerminatedError { return &TerminatedError{} }

// NewTerminatedErrorWithReason is the close-event form of TerminatedError.
func NewTerminatedErrorWithReason(reason string, details converter.Values) *TerminatedError {
	return &TerminatedError{reason: reason, details: details}
}

func (e *TerminatedError) Error() string {
	if e.reason == "" {
		return "terminated"
	}
	return fmt.Sprintf("terminated: %s", e.reason)
}

// Reason returns the termination reason the close event carried, if any.
func (e *TerminatedError) Reason() string { return e.reason }

// ServerError is server-originated.
type ServerError struct {
	flowError
	message      string
	nonRetryable bool
	cause        error
}

func NewServerError(message string, nonRetryable bool, cause error) *ServerError {
	return &ServerError{message: message, nonRetryable: nonRetryable, cause: cause}
}

func (e *ServerError) Error() string      { return e.message }
func (e *ServerError) Unwrap() error      { return e.cause }
func (e *ServerError) NonRetryable() bool { return e.nonRetryable }

// ActivityError wraps the cause with activity scheduling metadata.
type ActivityError struct {
	flowError
	scheduledEventID int64
	startedEventID   int64
	identity         string
	activityType     string
	activityID       string
	retryState       bridge.RetryState
	cause            error
}

func NewActivityError(scheduledEventID, startedEventID int64, identity, activityType, activityID string, retryState bridge.RetryState, cause error) *ActivityError {
	return &ActivityError{
		scheduledEventID: scheduledEventID,
		startedEventID:   startedEventID,
		identity:         identity,
		activityType:     activityType,
		activityID:       activityID,
		retryState:       retryState,
		cause:            cause,
	}
}

func (e *ActivityError) Error() string {
	return fmt.Sprintf("activity error (type: %s, id: %s, identity: %s): %v", e.activityType, e.activityID, e.identity, e.cause)
}
func (e *ActivityError) Unwrap() error                  { return e.cause }
func (e *ActivityError) RetryState() bridge.RetryState  { return e.retryState }
func (e *ActivityError) ActivityType() string           { return e.activityType }
func (e *ActivityError) ActivityID() string             { return e.activityID }

// ChildWorkflowExecutionError wraps the cause with child-workflow metadata.
type ChildWorkflowExecutionError struct {
	flowError
	namespace    string
	workflowID   string
	runID        string
	workflowType string
	retryState   bridge.RetryState
	cause        error
}

func NewChildWorkflowExecutionError(namespace, workflowID, runID, workflowType string, retryState bridge.RetryState, cause error) *ChildWorkflowExecutionError {
	return &ChildWorkflowExecutionError{
		namespace: namespace, workflowID: workflowID, runID: runID, workflowType: workflowType,
		retryState: retryState, cause: cause,
	}
}

func (e *ChildWorkflowExecutionError) Error() string {
	return fmt.Sprintf("child workflow execution error (workflowID: %s, runID: %s, type: %s): %v",
		e.workflowID, e.runID, e.workflowType, e.cause)
}
func (e *ChildWorkflowExecutionError) Unwrap() error { return e.cause }

// WorkflowExecutionError is the terminal error surfaced to a caller of
// WorkflowRun.Get / Client.result (WorkflowFailed).
type WorkflowExecutionError struct {
	workflowID   string
	runID        string
	workflowType string
	cause        error
}

func NewWorkflowExecutionError(workflowID, runID, workflowType string, cause error) *WorkflowExecutionError {
	return &WorkflowExecutionError{workflowID: workflowID, runID: runID, workflowType: workflowType, cause: cause}
}

func (e *WorkflowExecutionError) Error() string {
	return fmt.Sprintf("workflow execution error (workflowID: %s, runID: %s, type: %s): %v",
		e.workflowID, e.runID, e.workflowType, e.cause)
}
func (e *WorkflowExecutionError) Unwrap() error { return e.cause }

// PanicError wraps a recovered workflow/activity panic.
type PanicError struct {
	value      interface{}
	stackTrace string
}

func NewPanicError(value interface{}, stackTrace string) *PanicError {
	return &PanicError{value: value, stackTrace: stackTrace}
}

func (e *PanicError) Error() string      { return fmt.Sprintf("%v", e.value) }
func (e *PanicError) StackTrace() string { return e.stackTrace }

// ContinueAsNewError, when returned from a workflow's run function,
// terminates the current run and starts a fresh one with the given input,
// preserving the workflow ID.
type ContinueAsNewError struct {
	WorkflowType string
	Args         []interface{}
}

func NewContinueAsNewError(workflowType string, args ...interface{}) *ContinueAsNewError {
	return &ContinueAsNewError{WorkflowType: workflowType, Args: args}
}

func (e *ContinueAsNewError) Error() string { return "continue as new" }

// IsCanceledError reports whether err is, or wraps, a *CancelledError.
func IsCanceledError(err error) bool {
	var e *CancelledError
	return errors.As(err, &e)
}

// IsRetryable decides whether a failed activity/workflow-task attempt
// should be retried, given an explicit non-retryable-type allowlist from
// the retry policy.
func IsRetryable(err error, nonRetryableTypes []string) bool {
	if err == nil {
		return false
	}

	var terminated *TerminatedError
	var cancelled *CancelledError
	if errors.As(err, &terminated) || errors.As(err, &cancelled) {
		return false
	}

	var appErr *ApplicationError
	var appErrType string
	if errors.As(err, &appErr) {
		if appErr.nonRetryable {
			return false
		}
		appErrType = appErr.errType
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		if timeoutErr.timeoutType != bridge.TimeoutTypeStartToClose && timeoutErr.timeoutType != bridge.TimeoutTypeHeartbeat {
			return false
		}
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.nonRetryable {
		return false
	}

	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	rootType := typeName(root)
	for _, nrt := range nonRetryableTypes {
		if nrt == rootType || nrt == appErrType {
			return false
		}
	}
	return true
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// WorkflowExecutionAlreadyStartedError is returned when starting a workflow
// whose ID collides with a running execution under the configured reuse
// policy.
type WorkflowExecutionAlreadyStartedError struct {
	Message        string
	StartRequestID string
	RunID          string
}

func (e *WorkflowExecutionAlreadyStartedError) Error() string { return e.Message }

// WorkflowContinuedAsNewError is returned by a result fetch that is not
// following runs when the observed run continued as new.
type WorkflowContinuedAsNewError struct {
	NewRunID string
}

func (e *WorkflowContinuedAsNewError) Error() string {
	return fmt.Sprintf("workflow continued as new (new run id: %s)", e.NewRunID)
}

// NonDeterminismError marks a replay mismatch: the workflow code produced a
// command history the recorded one contradicts. It fails the workflow task
// so the server retries against a freshly cached instance.
type NonDeterminismError struct {
	Message string
}

func (e *NonDeterminismError) Error() string { return e.Message }

// InvalidOperationError is returned for client calls that cannot be
// performed as requested, before any RPC is attempted.
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string { return e.Message }

// UnknownWorkflowEventError is returned when a history read surfaces a
// close event this client version does not recognize.
type UnknownWorkflowEventError struct {
	EventType string
}

func (e *UnknownWorkflowEventError) Error() string {
	return fmt.Sprintf("unknown workflow close event: %s", e.EventType)
}

// NexusOperationError wraps the cause of a failed nexus operation with the
// operation's addressing metadata.
type NexusOperationError struct {
	flowError
	Endpoint       string
	Service        string
	Operation      string
	OperationToken string
	cause          error
}

func (e *NexusOperationError) Error() string {
	return fmt.Sprintf("nexus operation error (endpoint: %s, service: %s, operation: %s): %v",
		e.Endpoint, e.Service, e.Operation, e.cause)
}

func (e *NexusOperationError) Unwrap() error { return e.cause }

// NexusHandlerError is a handler-classified nexus failure, carrying the
// wire-level error type spelling from the nexus SDK.
type NexusHandlerError struct {
	flowError
	HandlerErrorType nexus.HandlerErrorType
	message          string
	cause            error
}

func (e *NexusHandlerError) Error() string {
	return fmt.Sprintf("nexus handler error (%s): %s", e.HandlerErrorType, e.message)
}

func (e *NexusHandlerError) Unwrap() error { return e.cause }

// nexusHandlerErrorType maps the bridge's handler-error classification onto
// the nexus SDK's wire-level error types. Unknown values map to the
// internal error type, the nexus default for unclassifiable failures.
func nexusHandlerErrorType(t bridge.NexusHandlerErrorType) nexus.HandlerErrorType {
	switch t {
	case bridge.NexusHandlerErrorBadRequest:
		return nexus.HandlerErrorTypeBadRequest
	case bridge.NexusHandlerErrorUnauthenticated:
		return nexus.HandlerErrorTypeUnauthenticated
	case bridge.NexusHandlerErrorUnauthorized:
		return nexus.HandlerErrorTypeUnauthorized
	case bridge.NexusHandlerErrorNotFound:
		return nexus.HandlerErrorTypeNotFound
	case bridge.NexusHandlerErrorResourceExhausted:
		return nexus.HandlerErrorTypeResourceExhausted
	case bridge.NexusHandlerErrorNotImplemented:
		return nexus.HandlerErrorTypeNotImplemented
	case bridge.NexusHandlerErrorUnavailable:
		return nexus.HandlerErrorTypeUnavailable
	case bridge.NexusHandlerErrorUpstreamTimeout:
		return nexus.HandlerErrorTypeUpstreamTimeout
	default:
		return nexus.HandlerErrorTypeInternal
	}
}

// bridgeNexusHandlerErrorType is the reverse of nexusHandlerErrorType.
func bridgeNexusHandlerErrorType(t nexus.HandlerErrorType) bridge.NexusHandlerErrorType {
	switch t {
	case nexus.HandlerErrorTypeBadRequest:
		return bridge.NexusHandlerErrorBadRequest
	case nexus.HandlerErrorTypeUnauthenticated:
		return bridge.NexusHandlerErrorUnauthenticated
	case nexus.HandlerErrorTypeUnauthorized:
		return bridge.NexusHandlerErrorUnauthorized
	case nexus.HandlerErrorTypeNotFound:
		return bridge.NexusHandlerErrorNotFound
	case nexus.HandlerErrorTypeResourceExhausted:
		return bridge.NexusHandlerErrorResourceExhausted
	case nexus.HandlerErrorTypeNotImplemented:
		return bridge.NexusHandlerErrorNotImplemented
	case nexus.HandlerErrorTypeUnavailable:
		return bridge.NexusHandlerErrorUnavailable
	case nexus.HandlerErrorTypeUpstreamTimeout:
		return bridge.NexusHandlerErrorUpstreamTimeout
	default:
		return bridge.NexusHandlerErrorInternal
	}
}
