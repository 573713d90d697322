// Package internal implements the worker runtime core: the event-sourced
// workflow state machine, the cooperative workflow task executor built on
// the coroutine package, the activity executor, and the client surface,
// all in terms of the wire-independent bridge.Activation/Command contract.
package internal

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/coroutine"
	"go.flowcore.dev/sdk/temporal"
)

// Context carries workflow-scoped cancellation, values, and (via the
// unexported environment key) a handle to the running instance's state
// machine. It is the workflow-code-facing counterpart of coroutine.Context.
type Context = coroutine.Context

// CancelFunc cancels the Context it was returned alongside.
type CancelFunc = coroutine.CancelFunc

type envKeyType struct{}

var envKey = envKeyType{}

// withWorkflowEnvironment attaches env to ctx so ExecuteActivity, NewTimer,
// etc. can reach the owning instance's state machine.
func withWorkflowEnvironment(ctx Context, env *workflowEnvironment) Context {
	return coroutine.WithValue(ctx, envKey, env)
}

func getWorkflowEnvironment(ctx Context) *workflowEnvironment {
	env, _ := ctx.Value(envKey).(*workflowEnvironment)
	if env == nil {
		panic("internal: workflow primitive called from a Context with no workflow environment")
	}
	return env
}

// Go starts fn as a child coroutine of ctx's dispatcher, scheduled
// cooperatively alongside every other coroutine in the run.
func Go(ctx Context, fn func(ctx Context)) { coroutine.Go(ctx, fn) }

// GoNamed is Go with a diagnostic name shown in stack traces.
func GoNamed(ctx Context, name string, fn func(ctx Context)) { coroutine.GoNamed(ctx, name, fn) }

// WithCancel returns a child Context plus a CancelFunc. Cancelling it fails
// fast any blocking primitive (timer, activity, child workflow, condition)
// awaited through it with a Cancelled failure.
func WithCancel(parent Context) (Context, CancelFunc) { return coroutine.WithCancel(parent) }

// WithValue returns a Context that resolves key to val.
func WithValue(parent Context, key, val interface{}) Context {
	return coroutine.WithValue(parent, key, val)
}

// Await blocks the calling coroutine until predicate returns true,
// re-evaluating it after every job the state machine applies.
// Returns ctx.Err() if ctx is cancelled first.
func Await(ctx Context, predicate func() bool) error {
	if predicate() {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	env := getWorkflowEnvironment(ctx)
	notify := coroutine.NewBufferedChannel(ctx, 1)
	waiter := env.registerConditionWaiter(predicate, func() { notify.SendAsync(struct{}{}) })
	defer env.removeConditionWaiter(waiter)

	if done := ctx.Done(); done != nil {
		fired := false
		sel := coroutine.NewSelector(ctx)
		sel.AddReceive(notify, func(c coroutine.Channel, more bool) { fired = true })
		sel.AddReceive(done, func(c coroutine.Channel, more bool) {})
		for !fired && ctx.Err() == nil {
			sel.Select(ctx)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}

	var discard struct{}
	notify.Receive(ctx, &discard)
	return nil
}

// Sleep blocks the calling coroutine for d, as measured by the state
// machine's replay clock.
func Sleep(ctx Context, d time.Duration) error {
	f := NewTimerFuture(ctx, d)
	return f.Get(ctx, nil)
}

// NewTimerFuture starts a durable timer and returns a Future that resolves
// (possibly with a Cancelled error) once it fires.
func NewTimerFuture(ctx Context, d time.Duration) Future {
	return getWorkflowOutbound(ctx).NewTimer(ctx, d)
}

// ActivityOptions configures a single ExecuteActivity call.
type ActivityOptions struct {
	TaskQueue              string
	ScheduleToCloseTimeout time.Duration
	ScheduleToStartTimeout time.Duration
	StartToCloseTimeout    time.Duration
	HeartbeatTimeout       time.Duration
	RetryPolicy            *bridge.RetryPolicy
	CancellationType       bridge.CancellationType
	ActivityID             string
	DisableEagerExecution  bool
	VersioningIntent       bridge.VersioningIntent
	Priority               int32
	Summary                string
	WaitForCancellation    bool // deprecated alias honored for CancellationType
}

type activityOptionsKeyType struct{}

var activityOptionsKey = activityOptionsKeyType{}

// WithActivityOptions returns a Context whose ExecuteActivity calls use
// opts.
func WithActivityOptions(ctx Context, opts ActivityOptions) Context {
	return WithValue(ctx, activityOptionsKey, opts)
}

func getActivityOptions(ctx Context) ActivityOptions {
	if v, ok := ctx.Value(activityOptionsKey).(ActivityOptions); ok {
		return v
	}
	return ActivityOptions{}
}

// ExecuteActivity requests execution of the named activity with args,
// returning a Future for its result.
func ExecuteActivity(ctx Context, activityType string, args ...interface{}) Future {
	return getWorkflowOutbound(ctx).ExecuteActivity(ctx, activityType, args...)
}

// ExecuteLocalActivity requests in-process execution of the named activity
// on this worker, skipping the server round trip a regular activity pays.
// Options come from the same WithActivityOptions context values.
func ExecuteLocalActivity(ctx Context, activityType string, args ...interface{}) Future {
	return getWorkflowOutbound(ctx).ExecuteLocalActivity(ctx, activityType, args...)
}

// ChildWorkflowOptions configures StartChildWorkflow / ExecuteChildWorkflow.
type ChildWorkflowOptions = bridge.ChildWorkflowOptions

type childWorkflowOptionsKeyType struct{}

var childWorkflowOptionsKey = childWorkflowOptionsKeyType{}

// WithChildWorkflowOptions returns a Context whose ExecuteChildWorkflow
// calls use opts.
func WithChildWorkflowOptions(ctx Context, opts ChildWorkflowOptions) Context {
	return WithValue(ctx, childWorkflowOptionsKey, opts)
}

func getChildWorkflowOptions(ctx Context) ChildWorkflowOptions {
	if v, ok := ctx.Value(childWorkflowOptionsKey).(ChildWorkflowOptions); ok {
		return v
	}
	return ChildWorkflowOptions{}
}

// ChildWorkflowFuture additionally exposes the child's execution once the
// server has accepted the start request.
type ChildWorkflowFuture interface {
	Future
	GetChildWorkflowExecution() Future
}

type childWorkflowFutureImpl struct {
	Future
	startFuture Future
}

func (f *childWorkflowFutureImpl) GetChildWorkflowExecution() Future { return f.startFuture }

// ExecuteChildWorkflow starts a child workflow execution and returns a
// ChildWorkflowFuture for its eventual result.
func ExecuteChildWorkflow(ctx Context, workflowType string, args ...interface{}) ChildWorkflowFuture {
	return getWorkflowOutbound(ctx).ExecuteChildWorkflow(ctx, workflowType, args...)
}

// GetSignalChannel returns the (possibly not-yet-existing) channel that
// receives every payload sent to the named signal, in delivery order,
// buffering deliveries that arrived before this call.
func GetSignalChannel(ctx Context, signalName string) coroutine.Channel {
	return getWorkflowEnvironment(ctx).signalChannel(ctx, signalName)
}

// UpdateHandlerOptions configures SetUpdateHandlerWithOptions.
type UpdateHandlerOptions struct {
	Validator interface{}
}

// SetQueryHandler registers handler to answer queries named queryType. A
// query handler runs synchronously and may not mutate workflow state or
// start commands; returning an error rejects the query rather
// than failing the whole activation.
func SetQueryHandler(ctx Context, queryType string, handler interface{}) error {
	return getWorkflowEnvironment(ctx).setQueryHandler(queryType, handler)
}

// SetUpdateHandler registers handler (and optionally a synchronous
// validator, via SetUpdateHandlerWithOptions) to run updates named
// updateName.
func SetUpdateHandler(ctx Context, updateName string, handler interface{}) error {
	return SetUpdateHandlerWithOptions(ctx, updateName, handler, UpdateHandlerOptions{})
}

// SetUpdateHandlerWithOptions is SetUpdateHandler with an optional
// validator function sharing the update handler's signature but returning
// only error.
func SetUpdateHandlerWithOptions(ctx Context, updateName string, handler interface{}, opts UpdateHandlerOptions) error {
	return getWorkflowEnvironment(ctx).setUpdateHandler(updateName, handler, opts.Validator)
}

// GetVersion implements the patching primitive: it returns
// DefaultVersion pre-patch, or a version in [minSupported, maxSupported]
// recorded for this changeID otherwise, emitting one set_patch_marker
// command per changeID per run.
func GetVersion(ctx Context, changeID string, minSupported, maxSupported Version) Version {
	return getWorkflowEnvironment(ctx).getVersion(changeID, minSupported, maxSupported)
}

// Version identifies a code revision behind a GetVersion patch point.
type Version int

// DefaultVersion is returned by GetVersion when changeID has never been
// recorded for this run.
const DefaultVersion Version = -1

// SideEffect executes f exactly once (on first execution; replayed runs
// reuse the recorded result) and returns its encoded result, for
// non-deterministic operations too small to warrant an activity.
func SideEffect(ctx Context, f func(ctx Context) (interface{}, error)) converter.Values {
	return getWorkflowOutbound(ctx).SideEffect(ctx, f)
}

// MutableSideEffect executes f on every non-replaying call but records a
// new value only when equals reports the result changed, keyed by id.
// Replays return the recorded value for the id.
func MutableSideEffect(ctx Context, id string, f func(ctx Context) (interface{}, error), equals func(a, b interface{}) bool) converter.Values {
	return getWorkflowEnvironment(ctx).mutableSideEffect(ctx, id, f, equals)
}

// UpsertSearchAttributes merges attributes into the run's search
// attributes, emitting an upsert_search_attributes command.
func UpsertSearchAttributes(ctx Context, attributes map[string]interface{}) error {
	return getWorkflowOutbound(ctx).UpsertSearchAttributes(ctx, attributes)
}

// UpsertMemo merges fields into the run's memo, emitting a
// modify_workflow_properties command.
func UpsertMemo(ctx Context, memo map[string]interface{}) error {
	return getWorkflowOutbound(ctx).UpsertMemo(ctx, memo)
}

// RequestCancelExternalWorkflow asks the server to cancel another
// workflow execution, returning a Future for the server's acknowledgement.
func RequestCancelExternalWorkflow(ctx Context, workflowID, runID string) Future {
	return getWorkflowOutbound(ctx).RequestCancelExternalWorkflow(ctx, workflowID, runID)
}

// SignalExternalWorkflow sends a named signal to another workflow
// execution, returning a Future for the server's acknowledgement.
func SignalExternalWorkflow(ctx Context, workflowID, runID, signalName string, arg interface{}) Future {
	return getWorkflowOutbound(ctx).SignalExternalWorkflow(ctx, workflowID, runID, signalName, arg)
}

// IsReplaying reports whether the current activation is being replayed
// from history rather than executed live (is_replaying flag).
// Workflow code must not branch on this in a way that affects commands.
func IsReplaying(ctx Context) bool { return getWorkflowEnvironment(ctx).isReplaying }

// Now returns the state machine's replay clock.
func Now(ctx Context) time.Time { return getWorkflowOutbound(ctx).Now(ctx) }

// NewContinueAsNewError builds the error workflow code returns to request
// continue-as-new with newArgs. An empty workflowType continues as the same
// workflow type.
func NewContinueAsNewError(ctx Context, workflowType string, newArgs ...interface{}) error {
	return temporal.NewContinueAsNewError(workflowType, newArgs...)
}

// ErrCanceled is returned by Await when its Context is cancelled. A
// cancelled timer or activity instead surfaces as a *temporal.CancelledError
// from Sleep or Future.Get.
var ErrCanceled = coroutine.ErrCanceled

func assignFutureValue(valuePtr interface{}, value interface{}, dc converter.DataConverter) error {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("internal: destination is not a non-nil pointer")
	}
	dv := rv.Elem()
	sv := reflect.ValueOf(value)
	if !sv.IsValid() {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	if p, ok := value.(*bridge.Payload); ok && dv.Type() != reflect.TypeOf(p) {
		return dc.FromPayloads([]*bridge.Payload{p}, valuePtr)
	}
	if sv.Type().AssignableTo(dv.Type()) {
		dv.Set(sv)
		return nil
	}
	if sv.Type().ConvertibleTo(dv.Type()) {
		dv.Set(sv.Convert(dv.Type()))
		return nil
	}
	return fmt.Errorf("internal: cannot assign value of type %T to destination of type %s", value, dv.Type())
}
