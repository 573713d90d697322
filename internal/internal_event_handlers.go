package internal

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/common/metrics"
	"go.flowcore.dev/sdk/internal/coroutine"
	"go.flowcore.dev/sdk/temporal"
)

// unboundedChannelSize approximates an unbounded buffer for signal
// channels: signals delivered before a handler (GetSignalChannel call)
// exists must be buffered FIFO, with no fixed cap.
const unboundedChannelSize = int(^uint(0) >> 1)

var contextType = reflect.TypeOf((*Context)(nil)).Elem()
var errorIfaceType = reflect.TypeOf((*error)(nil)).Elem()

type pendingActivityEntry struct {
	callback         func(*bridge.Payload, error)
	cancellationType bridge.CancellationType
}

type pendingChildEntry struct {
	callback         func(*bridge.Payload, error)
	cancellationType bridge.CancellationType
}

type conditionWaiter struct {
	predicate func() bool
	fire      func()
}

type updateHandlerEntry struct {
	fn        reflect.Value
	validator reflect.Value
}

// workflowEnvironment is the event-sourced workflow state machine. Exactly
// one instance runs per cached workflow run; every field is touched only
// from the poll-loop goroutine that drives apply(), and that
// single-threaded access makes its mutation safe without locks. Commands are appended straight to commandsBuffer as
// workflow code requests them; there is no intermediate decision-state
// layer between workflow primitives and the bridge command model.
type workflowEnvironment struct {
	runID        string
	workflowType string
	def          *workflowDefinition

	inbound  WorkflowInboundInterceptor
	outbound WorkflowOutboundInterceptor

	dataConverterField converter.DataConverter
	failureConverter   temporal.FailureConverter
	logger             *zap.Logger
	metricsScope       tally.Scope

	seqCounter     uint32
	commandsBuffer []bridge.Command

	pendingActivities  map[uint32]*pendingActivityEntry
	pendingTimers      map[uint32]func(error)
	pendingChildStarts map[uint32]func(bridge.WorkflowExecution, error)
	pendingChildren    map[uint32]*pendingChildEntry
	pendingSignalsSent map[uint32]func(error)
	pendingCancelsSent map[uint32]func(error)
	pendingNexusStarts map[uint32]func(*string, error)
	pendingNexusOps    map[uint32]func(*bridge.Payload, error)

	conditionWaiters []*conditionWaiter

	signalChannels map[string]coroutine.Channel
	queryHandlers  map[string]reflect.Value
	updateHandlers map[string]updateHandlerEntry

	patchesUsed   map[string]bool
	patchesMarked map[string]bool

	sideEffectValues []*bridge.Payload
	sideEffectIndex  int

	mutableSideEffects      map[string]*bridge.Payload
	mutableSideEffectValues map[string]interface{}

	isReplaying bool
	replayNow   time.Time
	randomSeed  uint64
	rng         *rand.Rand

	// activationFailure marks a replay mismatch observed while applying
	// jobs; the whole activation is reported failed so the server retries
	// the task against a freshly cached instance.
	activationFailure error

	isComplete      bool
	terminalEmitted bool
	result          *bridge.Payload
	failure         error
	continueAsNew   *temporal.ContinueAsNewError
	cancelRequested bool

	info *WorkflowInfo

	dispatcher coroutine.Dispatcher
	rootCtx    Context
	rootCancel CancelFunc
}

// newWorkflowEnvironment constructs the per-run instance and schedules the
// top-level run function as the dispatcher's root coroutine. The run
// function does not execute until the first apply() call drains the
// dispatcher.
func newWorkflowEnvironment(init bridge.InitializeWorkflowJob, runID string, dc converter.DataConverter, fc temporal.FailureConverter, logger *zap.Logger, interceptors []WorkerInterceptor) (*workflowEnvironment, error) {
	def, ok := lookupWorkflow(init.WorkflowType)
	if !ok {
		return nil, fmt.Errorf("workflow type %q is not registered with this worker", init.WorkflowType)
	}
	if dc == nil {
		dc = converter.DefaultDataConverter
	}
	if fc == nil {
		fc = temporal.NewDefaultFailureConverter(dc, false)
	}

	e := &workflowEnvironment{
		runID:                   runID,
		workflowType:            init.WorkflowType,
		def:                     def,
		dataConverterField:      dc,
		failureConverter:        fc,
		logger:                  logger,
		pendingActivities:       map[uint32]*pendingActivityEntry{},
		pendingTimers:           map[uint32]func(error){},
		pendingChildStarts:      map[uint32]func(bridge.WorkflowExecution, error){},
		pendingChildren:         map[uint32]*pendingChildEntry{},
		pendingSignalsSent:      map[uint32]func(error){},
		pendingCancelsSent:      map[uint32]func(error){},
		pendingNexusStarts:      map[uint32]func(*string, error){},
		pendingNexusOps:         map[uint32]func(*bridge.Payload, error){},
		signalChannels:          map[string]coroutine.Channel{},
		queryHandlers:           map[string]reflect.Value{},
		updateHandlers:          map[string]updateHandlerEntry{},
		patchesUsed:             map[string]bool{},
		patchesMarked:           map[string]bool{},
		mutableSideEffects:      map[string]*bridge.Payload{},
		mutableSideEffectValues: map[string]interface{}{},
		metricsScope:            tally.NoopScope,
		randomSeed:              init.RandomSeed,
		rng:                     rand.New(rand.NewSource(int64(init.RandomSeed))),
	}
	e.info = &WorkflowInfo{
		WorkflowExecution:   bridge.WorkflowExecution{WorkflowID: init.WorkflowID, RunID: runID},
		FirstExecutionRunID: init.FirstExecutionRunID,
		WorkflowType:        init.WorkflowType,
		Attempt:             init.Attempt,
		CronSchedule:        init.CronSchedule,
		RetryPolicy:         init.RetryPolicy,
		Memo:                init.Memo,
		SearchAttributes:    init.SearchAttrs,
	}

	background, cancel := coroutine.WithCancel(coroutine.Background())
	e.rootCancel = cancel
	bg := withWorkflowInfo(background, e.info)

	var dispatcherCtx Context
	e.dispatcher, dispatcherCtx = coroutine.NewDispatcher(bg, func(ctx Context) {
		ctx = withWorkflowEnvironment(ctx, e)
		e.runWorkflow(ctx, init.Arguments)
	})
	e.rootCtx = withWorkflowEnvironment(dispatcherCtx, e)

	// Innermost-last interceptor composition: the terminal inbound invokes
	// the registered handlers, and its Init stores the (possibly wrapped)
	// outbound chain on the environment.
	inbound := WorkflowInboundInterceptor(&workflowInboundImpl{env: e})
	for i := len(interceptors) - 1; i >= 0; i-- {
		inbound = interceptors[i].InterceptWorkflow(e.rootCtx, inbound)
	}
	e.inbound = inbound
	if err := inbound.Init(&workflowOutboundImpl{env: e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *workflowEnvironment) dataConverter() converter.DataConverter { return e.dataConverterField }

func (e *workflowEnvironment) runWorkflow(ctx Context, input []*bridge.Payload) {
	result, err := e.inbound.ExecuteWorkflow(ctx, &ExecuteWorkflowInput{Args: input})
	e.finish(result, err)
}

func (e *workflowEnvironment) finish(result interface{}, err error) {
	e.isComplete = true
	if err != nil {
		var can *temporal.ContinueAsNewError
		if errors.As(err, &can) {
			e.continueAsNew = can
			return
		}
		e.failure = err
		return
	}
	if result == nil {
		return
	}
	payloads, perr := e.dataConverterField.ToPayloads(result)
	if perr != nil {
		e.failure = perr
		return
	}
	if len(payloads) > 0 {
		e.result = payloads[0]
	}
}

// invokeHandler calls fn (a workflow/activity/query/update handler), with
// ctx bound as its first argument if fn declares a leading Context
// parameter, decoding input positionally into the remaining parameters.
func (e *workflowEnvironment) invokeHandler(ctx Context, fn reflect.Value, input []*bridge.Payload) (result interface{}, err error) {
	t := fn.Type()
	numIn := t.NumIn()
	args := make([]reflect.Value, numIn)
	start := 0
	if numIn > 0 && t.In(0) == contextType {
		args[0] = reflect.ValueOf(ctx)
		start = 1
	}
	for i := start; i < numIn; i++ {
		argPtr := reflect.New(t.In(i))
		if idx := i - start; idx < len(input) {
			if derr := e.dataConverterField.FromPayloads([]*bridge.Payload{input[idx]}, argPtr.Interface()); derr != nil {
				return nil, derr
			}
		}
		args[i] = argPtr.Elem()
	}
	out := fn.Call(args)
	return splitHandlerResults(out)
}

func splitHandlerResults(out []reflect.Value) (interface{}, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(errorIfaceType) {
		var err error
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, err
		}
		return out[0].Interface(), err
	}
	return out[0].Interface(), nil
}

// invokeSynchronous runs a query handler or update validator on the
// activation-processing goroutine, converting a panic (including the one a
// blocking primitive raises when called outside a coroutine) into an
// error instead of crashing the poll loop.
func (e *workflowEnvironment) invokeSynchronous(fn func() (interface{}, error)) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = temporal.NewPanicError(r, "")
		}
	}()
	return fn()
}

func (e *workflowEnvironment) nextSeq() uint32 {
	e.seqCounter++
	return e.seqCounter
}

// --- condition waits ---

func (e *workflowEnvironment) registerConditionWaiter(predicate func() bool, fire func()) *conditionWaiter {
	w := &conditionWaiter{predicate: predicate, fire: fire}
	e.conditionWaiters = append(e.conditionWaiters, w)
	return w
}

func (e *workflowEnvironment) removeConditionWaiter(w *conditionWaiter) {
	for i, cur := range e.conditionWaiters {
		if cur == w {
			e.conditionWaiters = append(e.conditionWaiters[:i], e.conditionWaiters[i+1:]...)
			return
		}
	}
}

// evaluateConditionsOnce fires every waiter whose predicate currently holds,
// in registration order (ties broken FIFO), and reports
// whether anything fired.
func (e *workflowEnvironment) evaluateConditionsOnce() bool {
	any := false
	for {
		fired := false
		for i, w := range e.conditionWaiters {
			if w.predicate() {
				e.conditionWaiters = append(e.conditionWaiters[:i], e.conditionWaiters[i+1:]...)
				w.fire()
				fired, any = true, true
				break
			}
		}
		if !fired {
			return any
		}
	}
}

// drainToQuiescence runs the executor until no runnable job remains and no
// condition predicate newly holds.
func (e *workflowEnvironment) drainToQuiescence() error {
	for {
		if err := e.dispatcher.ExecuteUntilAllBlocked(); err != nil {
			return err
		}
		if !e.evaluateConditionsOnce() {
			return nil
		}
	}
}

// --- timers ---

func (e *workflowEnvironment) startTimer(d time.Duration, callback func(interface{}, error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.StartTimerCommand{Seq: seq, Duration: d})
	e.pendingTimers[seq] = func(err error) { callback(nil, err) }
	return seq
}

func (e *workflowEnvironment) cancelTimer(seq uint32) {
	cb, ok := e.pendingTimers[seq]
	if !ok {
		return
	}
	delete(e.pendingTimers, seq)
	e.commandsBuffer = append(e.commandsBuffer, bridge.CancelTimerCommand{Seq: seq})
	cb(temporal.NewCancelledError())
}

func (e *workflowEnvironment) fireTimer(seq uint32) {
	cb, ok := e.pendingTimers[seq]
	if !ok {
		return
	}
	delete(e.pendingTimers, seq)
	cb(nil)
}

// --- activities ---

func activityCommandOptions(opts ActivityOptions) bridge.ActivityOptions {
	return bridge.ActivityOptions{
		TaskQueue:              opts.TaskQueue,
		ScheduleToCloseTimeout: opts.ScheduleToCloseTimeout,
		ScheduleToStartTimeout: opts.ScheduleToStartTimeout,
		StartToCloseTimeout:    opts.StartToCloseTimeout,
		HeartbeatTimeout:       opts.HeartbeatTimeout,
		RetryPolicy:            opts.RetryPolicy,
		CancellationType:       opts.CancellationType,
		ActivityID:             opts.ActivityID,
		DisableEagerExecution:  opts.DisableEagerExecution,
		VersioningIntent:       opts.VersioningIntent,
		Priority:               opts.Priority,
		Summary:                opts.Summary,
	}
}

func (e *workflowEnvironment) scheduleActivity(activityType string, input []*bridge.Payload, opts ActivityOptions, callback func(*bridge.Payload, error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.ScheduleActivityCommand{
		Seq: seq, Type: activityType, Input: input, Options: activityCommandOptions(opts),
	})
	e.pendingActivities[seq] = &pendingActivityEntry{callback: callback, cancellationType: opts.CancellationType}
	return seq
}

func (e *workflowEnvironment) scheduleLocalActivity(activityType string, input []*bridge.Payload, opts ActivityOptions, callback func(*bridge.Payload, error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.ScheduleLocalActivityCommand{
		Seq: seq, Type: activityType, Input: input, Options: activityCommandOptions(opts),
	})
	e.pendingActivities[seq] = &pendingActivityEntry{callback: callback, cancellationType: opts.CancellationType}
	return seq
}

// requestCancelActivity implements the per-CancellationType policy:
// try_cancel fails the awaiter fast locally once the request is sent;
// wait_cancellation_completed leaves it pending for the server's eventual
// Cancelled resolution; abandon neither sends a command nor resolves.
func (e *workflowEnvironment) requestCancelActivity(seq uint32) {
	pa, ok := e.pendingActivities[seq]
	if !ok {
		return
	}
	if pa.cancellationType == bridge.CancellationTypeAbandon {
		return
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.RequestCancelActivityCommand{Seq: seq})
	if pa.cancellationType == bridge.CancellationTypeTryCancel {
		delete(e.pendingActivities, seq)
		pa.callback(nil, temporal.NewCancelledError())
	}
}

func (e *workflowEnvironment) resolveActivity(seq uint32, res bridge.ActivityResolution) {
	pa, ok := e.pendingActivities[seq]
	if !ok {
		return
	}
	delete(e.pendingActivities, seq)
	switch {
	case res.Completed != nil:
		pa.callback(res.Completed, nil)
	case res.Cancelled != nil:
		pa.callback(nil, e.failureConverter.FailureToError(res.Cancelled))
	case res.Failed != nil:
		pa.callback(nil, e.failureConverter.FailureToError(res.Failed))
	}
}

// --- child workflows ---

func (e *workflowEnvironment) startChildWorkflow(workflowType string, input []*bridge.Payload, opts bridge.ChildWorkflowOptions, onStart func(bridge.WorkflowExecution, error), onResult func(*bridge.Payload, error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.StartChildWorkflowCommand{Seq: seq, Type: workflowType, Input: input, Options: opts})
	e.pendingChildStarts[seq] = onStart
	e.pendingChildren[seq] = &pendingChildEntry{callback: onResult, cancellationType: opts.CancellationType}
	return seq
}

func (e *workflowEnvironment) cancelChildWorkflow(seq uint32) {
	pc, ok := e.pendingChildren[seq]
	if !ok {
		return
	}
	if pc.cancellationType == bridge.CancellationTypeAbandon {
		return
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.CancelChildWorkflowCommand{Seq: seq})
	if pc.cancellationType == bridge.CancellationTypeTryCancel {
		delete(e.pendingChildren, seq)
		pc.callback(nil, temporal.NewCancelledError())
	}
}

func (e *workflowEnvironment) resolveChildWorkflowStart(seq uint32, res bridge.ChildWorkflowStartResolution) {
	cb, ok := e.pendingChildStarts[seq]
	if !ok {
		return
	}
	delete(e.pendingChildStarts, seq)
	if res.Failed != nil {
		cb(bridge.WorkflowExecution{}, e.failureConverter.FailureToError(res.Failed))
		return
	}
	if res.Succeeded != nil {
		cb(*res.Succeeded, nil)
	}
}

func (e *workflowEnvironment) resolveChildWorkflow(seq uint32, res bridge.ChildWorkflowResolution) {
	pc, ok := e.pendingChildren[seq]
	if !ok {
		return
	}
	delete(e.pendingChildren, seq)
	switch {
	case res.Completed != nil:
		pc.callback(res.Completed, nil)
	case res.Cancelled != nil:
		pc.callback(nil, e.failureConverter.FailureToError(res.Cancelled))
	case res.Failed != nil:
		pc.callback(nil, e.failureConverter.FailureToError(res.Failed))
	}
}

// --- external signal / cancel ---

func (e *workflowEnvironment) signalExternalWorkflow(target bridge.WorkflowExecution, name string, input []*bridge.Payload, callback func(error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.SignalExternalWorkflowCommand{Seq: seq, Target: target, Name: name, Input: input})
	e.pendingSignalsSent[seq] = callback
	return seq
}

func (e *workflowEnvironment) requestCancelExternalWorkflow(target bridge.WorkflowExecution, callback func(error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.RequestCancelExternalWorkflowCommand{Seq: seq, Target: target})
	e.pendingCancelsSent[seq] = callback
	return seq
}

func (e *workflowEnvironment) resolveSignalSent(seq uint32, f *bridge.Failure) {
	cb, ok := e.pendingSignalsSent[seq]
	if !ok {
		return
	}
	delete(e.pendingSignalsSent, seq)
	if f != nil {
		cb(e.failureConverter.FailureToError(f))
		return
	}
	cb(nil)
}

func (e *workflowEnvironment) resolveCancelSent(seq uint32, f *bridge.Failure) {
	cb, ok := e.pendingCancelsSent[seq]
	if !ok {
		return
	}
	delete(e.pendingCancelsSent, seq)
	if f != nil {
		cb(e.failureConverter.FailureToError(f))
		return
	}
	cb(nil)
}

// --- nexus operations ---

func (e *workflowEnvironment) scheduleNexusOperation(opts bridge.NexusOperationOptions, input *bridge.Payload, onStart func(*string, error), onResult func(*bridge.Payload, error)) uint32 {
	seq := e.nextSeq()
	e.commandsBuffer = append(e.commandsBuffer, bridge.ScheduleNexusOperationCommand{Seq: seq, Options: opts, Input: input})
	e.pendingNexusStarts[seq] = onStart
	e.pendingNexusOps[seq] = onResult
	return seq
}

func (e *workflowEnvironment) requestCancelNexusOperation(seq uint32) {
	if _, ok := e.pendingNexusOps[seq]; !ok {
		return
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.RequestCancelNexusOperationCommand{Seq: seq})
}

func (e *workflowEnvironment) resolveNexusOperationStart(seq uint32, res bridge.NexusOperationStartResolution) {
	cb, ok := e.pendingNexusStarts[seq]
	if !ok {
		return
	}
	delete(e.pendingNexusStarts, seq)
	if res.Failed != nil {
		cb(nil, e.failureConverter.FailureToError(res.Failed))
		return
	}
	cb(res.Started, nil)
}

func (e *workflowEnvironment) resolveNexusOperation(seq uint32, res bridge.NexusOperationResolution) {
	cb, ok := e.pendingNexusOps[seq]
	if !ok {
		return
	}
	delete(e.pendingNexusOps, seq)
	switch {
	case res.Completed != nil:
		cb(res.Completed, nil)
	case res.Cancelled != nil:
		cb(nil, e.failureConverter.FailureToError(res.Cancelled))
	case res.Failed != nil:
		cb(nil, e.failureConverter.FailureToError(res.Failed))
	}
}

// --- signals ---

func (e *workflowEnvironment) signalChannel(ctx Context, name string) coroutine.Channel {
	if ch, ok := e.signalChannels[name]; ok {
		return ch
	}
	ch := coroutine.NewNamedBufferedChannel(ctx, "signal:"+name, unboundedChannelSize)
	e.signalChannels[name] = ch
	return ch
}

func (e *workflowEnvironment) handleSignal(job bridge.SignalWorkflowJob) {
	_ = e.inbound.HandleSignal(e.rootCtx, &HandleSignalInput{SignalName: job.SignalName, Input: job.Input})
}

// --- queries ---

func (e *workflowEnvironment) setQueryHandler(name string, handler interface{}) error {
	rv := reflect.ValueOf(handler)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("internal: query handler for %q must be a function, got %T", name, handler)
	}
	e.queryHandlers[name] = rv
	return nil
}

func (e *workflowEnvironment) respondQueryFailure(queryID string, err error) {
	e.commandsBuffer = append(e.commandsBuffer, bridge.RespondToQueryCommand{QueryID: queryID, Failure: e.failureConverter.ErrorToFailure(err)})
}

// handleQuery runs a query handler synchronously. A query handler
// must not emit commands. If it does, those commands are discarded and the
// query is reported as failed rather than silently accepted.
func (e *workflowEnvironment) handleQuery(job bridge.QueryWorkflowJob) {
	if job.Name == QueryTypeStackTrace {
		p, err := e.dataConverterField.ToPayloads(e.dispatcher.StackTrace())
		if err != nil {
			e.respondQueryFailure(job.QueryID, err)
			return
		}
		e.commandsBuffer = append(e.commandsBuffer, bridge.RespondToQueryCommand{QueryID: job.QueryID, Result: p[0]})
		return
	}

	baseline := len(e.commandsBuffer)
	result, err := e.invokeSynchronous(func() (interface{}, error) {
		return e.inbound.HandleQuery(e.rootCtx, &HandleQueryInput{QueryID: job.QueryID, QueryType: job.Name, Args: job.Input})
	})
	if len(e.commandsBuffer) != baseline {
		e.commandsBuffer = e.commandsBuffer[:baseline]
		e.respondQueryFailure(job.QueryID, errors.New("query handler must not emit commands"))
		return
	}
	if err != nil {
		e.respondQueryFailure(job.QueryID, err)
		return
	}
	var p *bridge.Payload
	if result != nil {
		payloads, perr := e.dataConverterField.ToPayloads(result)
		if perr != nil {
			e.respondQueryFailure(job.QueryID, perr)
			return
		}
		if len(payloads) > 0 {
			p = payloads[0]
		}
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.RespondToQueryCommand{QueryID: job.QueryID, Result: p})
}

// --- updates ---

func (e *workflowEnvironment) setUpdateHandler(name string, handler interface{}, validator interface{}) error {
	rv := reflect.ValueOf(handler)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("internal: update handler for %q must be a function, got %T", name, handler)
	}
	entry := updateHandlerEntry{fn: rv}
	if validator != nil {
		vv := reflect.ValueOf(validator)
		if vv.Kind() != reflect.Func {
			return fmt.Errorf("internal: update validator for %q must be a function, got %T", name, validator)
		}
		entry.validator = vv
	}
	e.updateHandlers[name] = entry
	return nil
}

// handleUpdate implements the two-phase update protocol: an
// optional synchronous validator may reject before any command is emitted;
// otherwise the update is accepted immediately and its handler runs as an
// ordinary coroutine, completing asynchronously.
func (e *workflowEnvironment) handleUpdate(ctx Context, job bridge.DoUpdateJob) {
	entry, ok := e.updateHandlers[job.Name]
	if !ok {
		e.commandsBuffer = append(e.commandsBuffer, bridge.UpdateResponseCommand{
			ID: job.ID,
			Rejected: &bridge.Failure{
				Message: fmt.Sprintf("unknown update type: %s", job.Name),
				Info:    bridge.ApplicationFailureInfo{Type: "NotFound", NonRetryable: true},
			},
		})
		return
	}
	if entry.validator.IsValid() {
		baseline := len(e.commandsBuffer)
		_, verr := e.invokeSynchronous(func() (interface{}, error) {
			return e.invokeHandler(ctx, entry.validator, job.Input)
		})
		if len(e.commandsBuffer) != baseline {
			e.commandsBuffer = e.commandsBuffer[:baseline]
			verr = errors.New("update validator must not emit commands")
		}
		if verr != nil {
			e.commandsBuffer = append(e.commandsBuffer, bridge.UpdateResponseCommand{ID: job.ID, Rejected: e.failureConverter.ErrorToFailure(verr)})
			return
		}
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.UpdateResponseCommand{ID: job.ID, Accepted: true})

	Go(ctx, func(ctx Context) {
		result, err := e.inbound.ExecuteUpdate(ctx, &ExecuteUpdateInput{UpdateID: job.ID, UpdateName: job.Name, Args: job.Input})
		if err != nil {
			e.commandsBuffer = append(e.commandsBuffer, bridge.UpdateResponseCommand{ID: job.ID, Failed: e.failureConverter.ErrorToFailure(err)})
			return
		}
		var p *bridge.Payload
		if result != nil {
			payloads, perr := e.dataConverterField.ToPayloads(result)
			if perr != nil {
				e.commandsBuffer = append(e.commandsBuffer, bridge.UpdateResponseCommand{ID: job.ID, Failed: e.failureConverter.ErrorToFailure(perr)})
				return
			}
			if len(payloads) > 0 {
				p = payloads[0]
			}
		}
		e.commandsBuffer = append(e.commandsBuffer, bridge.UpdateResponseCommand{ID: job.ID, Completed: p})
	})
}

// --- patching ---

func (e *workflowEnvironment) hasPatch(changeID string) bool {
	if !e.isReplaying {
		if !e.patchesMarked[changeID] {
			e.patchesMarked[changeID] = true
			e.commandsBuffer = append(e.commandsBuffer, bridge.SetPatchMarkerCommand{PatchID: changeID})
		}
		return true
	}
	return e.patchesUsed[changeID]
}

func (e *workflowEnvironment) deprecatePatch(changeID string) {
	if !e.patchesMarked[changeID] {
		e.patchesMarked[changeID] = true
		e.commandsBuffer = append(e.commandsBuffer, bridge.SetPatchMarkerCommand{PatchID: changeID, Deprecated: true})
	}
}

func (e *workflowEnvironment) getVersion(changeID string, minSupported, maxSupported Version) Version {
	if !e.hasPatch(changeID) {
		return DefaultVersion
	}
	return maxSupported
}

// --- side effects ---
//
// The activation/command model has no marker entry for side effects,
// unlike patching's NotifyHasPatchJob/SetPatchMarkerCommand pair.
// Side-effect results are therefore recorded only in this cached
// instance's memory for the run's lifetime; recovering them after a cache
// eviction would need a job kind the protocol doesn't define.
func (e *workflowEnvironment) sideEffect(ctx Context, f func(ctx Context) (interface{}, error)) converter.Values {
	idx := e.sideEffectIndex
	e.sideEffectIndex++
	if !e.isReplaying {
		result, err := f(ctx)
		if err != nil {
			panic(temporal.NewApplicationError(err.Error(), "SideEffectError", true, err))
		}
		var p *bridge.Payload
		if result != nil {
			payloads, perr := e.dataConverterField.ToPayloads(result)
			if perr != nil {
				panic(perr)
			}
			if len(payloads) > 0 {
				p = payloads[0]
			}
		}
		e.sideEffectValues = append(e.sideEffectValues, p)
		return converter.NewEncodedValues(nonNilPayloads(p), e.dataConverterField)
	}
	if idx >= len(e.sideEffectValues) {
		panic(fmt.Sprintf("internal: non-deterministic workflow: side effect %d has no recorded value on replay", idx))
	}
	return converter.NewEncodedValues(nonNilPayloads(e.sideEffectValues[idx]), e.dataConverterField)
}

// mutableSideEffect is the keyed variant: the value is recomputed on every
// non-replaying call but only re-recorded when equals reports a change, so
// replays observe the stable sequence of recorded values per id.
func (e *workflowEnvironment) mutableSideEffect(ctx Context, id string, f func(ctx Context) (interface{}, error), equals func(a, b interface{}) bool) converter.Values {
	if e.isReplaying {
		p, ok := e.mutableSideEffects[id]
		if !ok {
			panic(fmt.Sprintf("internal: non-deterministic workflow: mutable side effect %q has no recorded value on replay", id))
		}
		return converter.NewEncodedValues(nonNilPayloads(p), e.dataConverterField)
	}

	result, err := f(ctx)
	if err != nil {
		panic(temporal.NewApplicationError(err.Error(), "SideEffectError", true, err))
	}
	if prior, ok := e.mutableSideEffectValues[id]; ok && equals(prior, result) {
		return converter.NewEncodedValues(nonNilPayloads(e.mutableSideEffects[id]), e.dataConverterField)
	}
	payloads, perr := e.dataConverterField.ToPayloads(result)
	if perr != nil {
		panic(perr)
	}
	var p *bridge.Payload
	if len(payloads) > 0 {
		p = payloads[0]
	}
	e.mutableSideEffects[id] = p
	e.mutableSideEffectValues[id] = result
	return converter.NewEncodedValues(nonNilPayloads(p), e.dataConverterField)
}

func nonNilPayloads(p *bridge.Payload) []*bridge.Payload {
	if p == nil {
		return nil
	}
	return []*bridge.Payload{p}
}

// --- search attributes / memo ---

func (e *workflowEnvironment) upsertSearchAttributes(attrs map[string]interface{}) error {
	out := make(map[string]*bridge.Payload, len(attrs))
	for k, v := range attrs {
		payloads, err := e.dataConverterField.ToPayloads(v)
		if err != nil {
			return err
		}
		if len(payloads) > 0 {
			out[k] = payloads[0]
		}
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.UpsertSearchAttributesCommand{SearchAttrs: out})
	return nil
}

func (e *workflowEnvironment) upsertMemo(memo map[string]interface{}) error {
	out := make(map[string]*bridge.Payload, len(memo))
	for k, v := range memo {
		payloads, err := e.dataConverterField.ToPayloads(v)
		if err != nil {
			return err
		}
		if len(payloads) > 0 {
			out[k] = payloads[0]
		}
	}
	e.commandsBuffer = append(e.commandsBuffer, bridge.ModifyWorkflowPropertiesCommand{MemoUpserts: out})
	return nil
}

// --- activation processing ---

// applyActivation runs every job in canonical order, drains the executor
// to quiescence, and returns the resulting Completion, plus whether the
// run should be evicted from cache afterward (a RemoveFromCacheJob was
// present).
func (e *workflowEnvironment) applyActivation(act *bridge.Activation) (*bridge.Completion, bool) {
	e.replayNow = act.Timestamp
	e.isReplaying = act.IsReplaying
	e.commandsBuffer = nil

	var patches, seeds, signals, updates, others, queries []bridge.Job
	evict := false
	for _, j := range act.Jobs {
		switch jb := j.(type) {
		case bridge.NotifyHasPatchJob:
			patches = append(patches, jb)
		case bridge.UpdateRandomSeedJob:
			seeds = append(seeds, jb)
		case bridge.SignalWorkflowJob:
			signals = append(signals, jb)
		case bridge.DoUpdateJob:
			updates = append(updates, jb)
		case bridge.QueryWorkflowJob:
			queries = append(queries, jb)
		case bridge.RemoveFromCacheJob:
			evict = true
		case bridge.InitializeWorkflowJob:
			// consumed by newWorkflowEnvironment before the first apply.
		default:
			others = append(others, jb)
		}
	}

	for _, group := range [][]bridge.Job{patches, seeds, signals, updates, others} {
		for _, j := range group {
			e.applyJob(j)
		}
	}

	// A panicking coroutine (workflow code itself, or an update/signal
	// handler coroutine) surfaces here as a *coroutine.WorkflowPanicError;
	// that is a workflow failure, reported via a fail_workflow command on a
	// Successful completion, not an activation-processing failure.
	drain := func() {
		if err := e.drainToQuiescence(); err != nil {
			if !e.isComplete {
				e.isComplete = true
				e.failure = err
			}
		}
	}
	drain()

	// Queries run last, against the state every other job in the
	// activation has already produced.
	for _, j := range queries {
		e.applyJob(j)
	}
	if len(queries) > 0 {
		drain()
	}

	if e.activationFailure != nil {
		failure := e.failureConverter.ErrorToFailure(e.activationFailure)
		e.activationFailure = nil
		e.commandsBuffer = nil
		return &bridge.Completion{RunID: e.runID, Failed: &bridge.FailedCompletion{Failure: failure}}, evict
	}

	e.appendTerminalCommandIfNeeded()

	commands := e.commandsBuffer
	e.commandsBuffer = nil
	return &bridge.Completion{RunID: e.runID, Successful: &bridge.SuccessfulCompletion{Commands: commands}}, evict
}

// checkKnownSeq flags a resolution for a sequence number this run never
// minted: the server's history and this instance's command stream have
// diverged. A resolution for a minted-but-absent entry is fine (a
// try-cancelled handle may still get its server-side resolution later).
func (e *workflowEnvironment) checkKnownSeq(seq uint32) bool {
	if seq == 0 || seq > e.seqCounter {
		e.activationFailure = &temporal.NonDeterminismError{
			Message: fmt.Sprintf("resolution for unknown sequence %d (last minted %d)", seq, e.seqCounter),
		}
		return false
	}
	return true
}

func (e *workflowEnvironment) applyJob(job bridge.Job) {
	switch j := job.(type) {
	case bridge.FireTimerJob:
		if !e.checkKnownSeq(j.Seq) {
			return
		}
		e.fireTimer(j.Seq)
	case bridge.ResolveActivityJob:
		if !e.checkKnownSeq(j.Seq) {
			return
		}
		e.resolveActivity(j.Seq, j.Result)
	case bridge.ResolveChildWorkflowStartJob:
		if !e.checkKnownSeq(j.Seq) {
			return
		}
		e.resolveChildWorkflowStart(j.Seq, j.Result)
	case bridge.ResolveChildWorkflowJob:
		if !e.checkKnownSeq(j.Seq) {
			return
		}
		e.resolveChildWorkflow(j.Seq, j.Result)
	case bridge.ResolveSignalExternalJob:
		if !e.checkKnownSeq(j.Seq) {
			return
		}
		e.resolveSignalSent(j.Seq, j.Failure)
	case bridge.ResolveRequestCancelExternalJob:
		if !e.checkKnownSeq(j.Seq) {
			return
		}
		e.resolveCancelSent(j.Seq, j.Failure)
	case bridge.SignalWorkflowJob:
		e.handleSignal(j)
	case bridge.QueryWorkflowJob:
		e.handleQuery(j)
	case bridge.CancelWorkflowJob:
		e.cancelRequested = true
		e.rootCancel()
	case bridge.DoUpdateJob:
		e.handleUpdate(e.rootCtx, j)
	case bridge.ResolveNexusOperationStartJob:
		e.resolveNexusOperationStart(j.Seq, j.Result)
	case bridge.ResolveNexusOperationJob:
		e.resolveNexusOperation(j.Seq, j.Result)
	case bridge.NotifyHasPatchJob:
		e.patchesUsed[j.PatchID] = true
	case bridge.UpdateRandomSeedJob:
		e.randomSeed = j.Value
		e.rng = rand.New(rand.NewSource(int64(j.Value)))
	default:
		if e.logger != nil {
			e.logger.Warn("internal: ignoring unrecognized activation job", zap.String("type", fmt.Sprintf("%T", job)))
		}
	}
}

// appendTerminalCommandIfNeeded appends the terminal command (complete,
// fail, continue-as-new, or cancel) as the last command of the activation
// that completed the run.
func (e *workflowEnvironment) appendTerminalCommandIfNeeded() {
	if !e.isComplete || e.terminalEmitted {
		return
	}
	e.terminalEmitted = true

	switch {
	case e.continueAsNew != nil:
		e.metricsScope.Counter(metrics.WorkflowContinueAsNewCounter).Inc(1)
		input, err := e.dataConverterField.ToPayloads(e.continueAsNew.Args...)
		if err != nil {
			e.commandsBuffer = append(e.commandsBuffer, bridge.FailWorkflowCommand{Failure: e.failureConverter.ErrorToFailure(err)})
			return
		}
		workflowType := e.continueAsNew.WorkflowType
		if workflowType == "" {
			workflowType = e.workflowType
		}
		e.commandsBuffer = append(e.commandsBuffer, bridge.ContinueAsNewCommand{WorkflowType: workflowType, Input: input})
	case e.failure != nil:
		if wpe, ok := e.failure.(*coroutine.WorkflowPanicError); ok {
			e.commandsBuffer = append(e.commandsBuffer, bridge.FailWorkflowCommand{Failure: &bridge.Failure{
				Message:    wpe.Error(),
				StackTrace: wpe.StackTrace(),
				Info:       bridge.ApplicationFailureInfo{Type: "PanicError", NonRetryable: true},
			}})
			return
		}
		if e.cancelRequested && temporal.IsCanceledError(e.failure) {
			e.metricsScope.Counter(metrics.WorkflowCanceledCounter).Inc(1)
			e.commandsBuffer = append(e.commandsBuffer, bridge.CancelWorkflowCommand{})
			return
		}
		e.metricsScope.Counter(metrics.WorkflowFailedCounter).Inc(1)
		e.commandsBuffer = append(e.commandsBuffer, bridge.FailWorkflowCommand{Failure: e.failureConverter.ErrorToFailure(e.failure)})
	default:
		e.metricsScope.Counter(metrics.WorkflowCompletedCounter).Inc(1)
		e.commandsBuffer = append(e.commandsBuffer, bridge.CompleteWorkflowCommand{Result: e.result})
	}
}

// evict releases the instance's suspended continuations: closing the root cancel context causes every
// cancellation-aware blocking primitive to unwind with a Cancelled error,
// and Dispatcher.Close permanently unblocks everything else so language
// level goroutines stop leaking.
func (e *workflowEnvironment) evict() {
	e.rootCancel()
	e.dispatcher.Close()
}
