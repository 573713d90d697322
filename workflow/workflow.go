// Package workflow holds the primitives workflow code is written against.
// Everything here is deterministic by construction: time, randomness, and
// concurrency all flow through the run's state machine, never the host.
package workflow

import (
	"time"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal"
	"go.flowcore.dev/sdk/internal/coroutine"
)

type (
	// Context is the workflow-scoped context threaded through every
	// primitive. It is not a context.Context: workflow code must never
	// block on host-level I/O or deadlines.
	Context = internal.Context

	// CancelFunc cancels the Context it was returned alongside.
	CancelFunc = internal.CancelFunc

	// Future represents the result of an asynchronous operation owned by
	// the run's state machine.
	Future = internal.Future

	// Settable is the resolving half of a Future.
	Settable = internal.Settable

	// ChildWorkflowFuture is a Future that additionally exposes the
	// child's execution once the server accepts the start.
	ChildWorkflowFuture = internal.ChildWorkflowFuture

	// Channel is a deterministic channel between workflow coroutines.
	Channel = coroutine.Channel

	// Selector is a deterministic multi-way blocking wait over channels
	// and futures.
	Selector = coroutine.Selector

	// ActivityOptions configures ExecuteActivity calls made through a
	// Context (see WithActivityOptions).
	ActivityOptions = internal.ActivityOptions

	// ChildWorkflowOptions configures ExecuteChildWorkflow calls made
	// through a Context (see WithChildWorkflowOptions).
	ChildWorkflowOptions = internal.ChildWorkflowOptions

	// UpdateHandlerOptions configures SetUpdateHandlerWithOptions.
	UpdateHandlerOptions = internal.UpdateHandlerOptions

	// Info holds read-only facts about the running workflow execution.
	Info = internal.WorkflowInfo

	// Version identifies a code revision behind a GetVersion patch point.
	Version = internal.Version

	// NexusClient invokes nexus operations from workflow code.
	NexusClient = internal.NexusClient

	// NexusOperationOptions configures one nexus operation call.
	NexusOperationOptions = internal.NexusOperationOptions

	// NexusOperationFuture is the future of a nexus operation.
	NexusOperationFuture = internal.NexusOperationFuture

	// NexusOperationExecution is the started state of a nexus operation.
	NexusOperationExecution = internal.NexusOperationExecution
)

// DefaultVersion is returned by GetVersion for a change never recorded on
// the run.
const DefaultVersion = internal.DefaultVersion

// ErrCanceled is returned by Await when its Context is cancelled. A
// cancelled timer or activity instead surfaces as a *temporal.CancelledError
// from Sleep or Future.Get.
var ErrCanceled = internal.ErrCanceled

// Go starts fn as a coroutine of the run, scheduled cooperatively with
// every other coroutine.
func Go(ctx Context, fn func(ctx Context)) { internal.Go(ctx, fn) }

// GoNamed is Go with a diagnostic name shown in stack traces.
func GoNamed(ctx Context, name string, fn func(ctx Context)) { internal.GoNamed(ctx, name, fn) }

// WithCancel returns a child Context plus a CancelFunc.
func WithCancel(parent Context) (Context, CancelFunc) { return internal.WithCancel(parent) }

// WithValue returns a Context carrying key/val.
func WithValue(parent Context, key, val interface{}) Context {
	return internal.WithValue(parent, key, val)
}

// NewFuture creates a Future/Settable pair bound to the run.
func NewFuture(ctx Context) (Future, Settable) { return internal.NewFuture(ctx) }

// NewChannel creates an unbuffered deterministic channel.
func NewChannel(ctx Context) Channel { return coroutine.NewChannel(ctx) }

// NewBufferedChannel creates a deterministic channel with a buffer.
func NewBufferedChannel(ctx Context, size int) Channel {
	return coroutine.NewBufferedChannel(ctx, size)
}

// NewSelector creates a deterministic multi-way wait.
func NewSelector(ctx Context) Selector { return coroutine.NewSelector(ctx) }

// Await blocks until predicate returns true, re-evaluated after every
// state change of the run.
func Await(ctx Context, predicate func() bool) error { return internal.Await(ctx, predicate) }

// Sleep pauses the run for d of durable, replay-safe time.
func Sleep(ctx Context, d time.Duration) error { return internal.Sleep(ctx, d) }

// NewTimer starts a durable timer that resolves after d.
func NewTimer(ctx Context, d time.Duration) Future { return internal.NewTimerFuture(ctx, d) }

// WithActivityOptions returns a Context whose ExecuteActivity calls use
// opts.
func WithActivityOptions(ctx Context, opts ActivityOptions) Context {
	return internal.WithActivityOptions(ctx, opts)
}

// WithChildOptions returns a Context whose ExecuteChildWorkflow calls use
// opts.
func WithChildOptions(ctx Context, opts ChildWorkflowOptions) Context {
	return internal.WithChildWorkflowOptions(ctx, opts)
}

// ExecuteActivity schedules the named activity and returns a Future for
// its result.
func ExecuteActivity(ctx Context, activityType string, args ...interface{}) Future {
	return internal.ExecuteActivity(ctx, activityType, args...)
}

// ExecuteLocalActivity runs the named activity in-process on this worker,
// skipping the server round trip a regular activity pays.
func ExecuteLocalActivity(ctx Context, activityType string, args ...interface{}) Future {
	return internal.ExecuteLocalActivity(ctx, activityType, args...)
}

// ExecuteChildWorkflow starts a child workflow execution and returns a
// future for its eventual result.
func ExecuteChildWorkflow(ctx Context, workflowType string, args ...interface{}) ChildWorkflowFuture {
	return internal.ExecuteChildWorkflow(ctx, workflowType, args...)
}

// NewNexusClient creates a client for nexus operations on one endpoint and
// service.
func NewNexusClient(endpoint, service string) NexusClient {
	return internal.NewNexusClient(endpoint, service)
}

// GetSignalChannel returns the channel delivering payloads sent to the
// named signal, in order, including any buffered before this call.
func GetSignalChannel(ctx Context, signalName string) Channel {
	return internal.GetSignalChannel(ctx, signalName)
}

// SetQueryHandler registers a synchronous read-only handler for the named
// query type.
func SetQueryHandler(ctx Context, queryType string, handler interface{}) error {
	return internal.SetQueryHandler(ctx, queryType, handler)
}

// SetUpdateHandler registers an async handler for the named update type.
func SetUpdateHandler(ctx Context, updateName string, handler interface{}) error {
	return internal.SetUpdateHandler(ctx, updateName, handler)
}

// SetUpdateHandlerWithOptions is SetUpdateHandler with a synchronous
// validator that may reject the update before it is accepted.
func SetUpdateHandlerWithOptions(ctx Context, updateName string, handler interface{}, opts UpdateHandlerOptions) error {
	return internal.SetUpdateHandlerWithOptions(ctx, updateName, handler, opts)
}

// SignalExternalWorkflow sends a signal to another workflow execution.
func SignalExternalWorkflow(ctx Context, workflowID, runID, signalName string, arg interface{}) Future {
	return internal.SignalExternalWorkflow(ctx, workflowID, runID, signalName, arg)
}

// RequestCancelExternalWorkflow requests cancellation of another workflow
// execution.
func RequestCancelExternalWorkflow(ctx Context, workflowID, runID string) Future {
	return internal.RequestCancelExternalWorkflow(ctx, workflowID, runID)
}

// SideEffect records the result of f on first execution and replays it
// thereafter; for small non-deterministic reads not worth an activity.
func SideEffect(ctx Context, f func(ctx Context) (interface{}, error)) converter.Values {
	return internal.SideEffect(ctx, f)
}

// MutableSideEffect is SideEffect keyed by id: recomputed each call, only
// re-recorded when equals reports a change.
func MutableSideEffect(ctx Context, id string, f func(ctx Context) (interface{}, error), equals func(a, b interface{}) bool) converter.Values {
	return internal.MutableSideEffect(ctx, id, f, equals)
}

// GetVersion records (once per change per run) which code revision handles
// the change, and returns it stably across replays.
func GetVersion(ctx Context, changeID string, minSupported, maxSupported Version) Version {
	return internal.GetVersion(ctx, changeID, minSupported, maxSupported)
}

// UpsertSearchAttributes merges attributes into the run's indexed search
// attributes.
func UpsertSearchAttributes(ctx Context, attributes map[string]interface{}) error {
	return internal.UpsertSearchAttributes(ctx, attributes)
}

// UpsertMemo merges fields into the run's memo.
func UpsertMemo(ctx Context, memo map[string]interface{}) error {
	return internal.UpsertMemo(ctx, memo)
}

// GetInfo returns the running workflow's Info.
func GetInfo(ctx Context) *Info { return internal.GetWorkflowInfo(ctx) }

// IsReplaying reports whether the current activation replays recorded
// history. Workflow code must not branch on this in a way that changes
// commands.
func IsReplaying(ctx Context) bool { return internal.IsReplaying(ctx) }

// Now returns the run's replay-safe current time.
func Now(ctx Context) time.Time { return internal.Now(ctx) }

// NewContinueAsNewError returns the error a workflow returns to close this
// run and start a fresh one with newArgs. Empty workflowType keeps the
// current type.
func NewContinueAsNewError(ctx Context, workflowType string, newArgs ...interface{}) error {
	return internal.NewContinueAsNewError(ctx, workflowType, newArgs...)
}
