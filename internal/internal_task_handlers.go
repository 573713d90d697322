package internal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/common/metrics"
	"go.flowcore.dev/sdk/temporal"
)

// WorkflowTaskHandler ties the bridge Activation/Completion exchange to the
// per-run workflowEnvironment state machine, keeping one cached instance
// per run ID until a RemoveFromCacheJob evicts it (the sticky execution
// cache).
type WorkflowTaskHandler struct {
	mu               sync.Mutex
	cache            map[string]*workflowEnvironment
	dataConverter    converter.DataConverter
	failureConverter temporal.FailureConverter
	logger           *zap.Logger
	interceptors     []WorkerInterceptor
	metricsScope     tally.Scope
}

// NewWorkflowTaskHandler constructs an empty-cache handler.
func NewWorkflowTaskHandler(dc converter.DataConverter, fc temporal.FailureConverter, logger *zap.Logger, interceptors []WorkerInterceptor) *WorkflowTaskHandler {
	return &WorkflowTaskHandler{
		cache:            map[string]*workflowEnvironment{},
		dataConverter:    dc,
		failureConverter: fc,
		logger:           logger,
		interceptors:     interceptors,
		metricsScope:     tally.NoopScope,
	}
}

func taskHandlerFailure(runID, msg string) *bridge.Completion {
	return &bridge.Completion{RunID: runID, Failed: &bridge.FailedCompletion{
		Failure: &bridge.Failure{Message: msg, Info: bridge.ApplicationFailureInfo{Type: "NotFound", NonRetryable: true}},
	}}
}

// ProcessActivation is the single entry point the poll loop calls per
// Activation: find or create the run's cached environment, apply it, and
// evict the cache entry if the activation asked to.
func (h *WorkflowTaskHandler) ProcessActivation(act *bridge.Activation) *bridge.Completion {
	h.mu.Lock()
	env, ok := h.cache[act.RunID]
	h.mu.Unlock()

	// A solo remove_from_cache tears the run down without running any
	// workflow code; the completion is empty and always successful.
	if soloRemoveFromCache(act) {
		if ok {
			env.evict()
			h.mu.Lock()
			delete(h.cache, act.RunID)
			h.mu.Unlock()
		}
		return &bridge.Completion{RunID: act.RunID, Successful: &bridge.SuccessfulCompletion{}}
	}

	if !ok {
		var init *bridge.InitializeWorkflowJob
		for _, j := range act.Jobs {
			if ij, isInit := j.(bridge.InitializeWorkflowJob); isInit {
				init = &ij
				break
			}
		}
		if init == nil {
			return taskHandlerFailure(act.RunID, "workflow run not found in cache and activation carries no initialize_workflow job")
		}
		var err error
		env, err = newWorkflowEnvironment(*init, act.RunID, h.dataConverter, h.failureConverter, h.logger, h.interceptors)
		if err != nil {
			return taskHandlerFailure(act.RunID, err.Error())
		}
		// Workflow-side metrics skip replayed activations: the original
		// execution already reported them.
		env.metricsScope = metrics.WrapScope(&env.isReplaying, h.metricsScope, clock.New())
		h.mu.Lock()
		h.cache[act.RunID] = env
		h.mu.Unlock()
	}

	completion, evict := env.applyActivation(act)
	if evict {
		env.evict()
		h.mu.Lock()
		delete(h.cache, act.RunID)
		h.mu.Unlock()
	}
	return completion
}

func soloRemoveFromCache(act *bridge.Activation) bool {
	if len(act.Jobs) != 1 {
		return false
	}
	_, ok := act.Jobs[0].(bridge.RemoveFromCacheJob)
	return ok
}

// EvictAll releases every cached run, used when the worker shuts down.
func (h *WorkflowTaskHandler) EvictAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, env := range h.cache {
		env.evict()
		delete(h.cache, id)
	}
}

// CachedRunCount reports how many workflow runs are currently resident,
// for worker metrics/diagnostics.
func (h *WorkflowTaskHandler) CachedRunCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cache)
}

// ErrActivityResultPending is returned from an activity to indicate the
// result will be supplied later through the client's async-completion
// surface; no completion is reported for the task.
var ErrActivityResultPending = errors.New("not error: do not autocomplete, the result is pending")

// ActivityTaskHandler decodes and dispatches one ActivityTask at a time
// against the registered activity function. Heartbeats are coalesced: at
// most one reaches the server per heartbeatInterval, calls inside the
// window are dropped rather than queued. The clock is swappable so tests
// can drive the window.
type ActivityTaskHandler struct {
	dataConverter     converter.DataConverter
	failureConverter  temporal.FailureConverter
	logger            *zap.Logger
	interceptors      []WorkerInterceptor
	heartbeatInterval time.Duration
	clock             clock.Clock
}

// NewActivityTaskHandler constructs an ActivityTaskHandler.
func NewActivityTaskHandler(dc converter.DataConverter, fc temporal.FailureConverter, logger *zap.Logger, interceptors []WorkerInterceptor, heartbeatInterval time.Duration) *ActivityTaskHandler {
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}
	if dc == nil {
		dc = converter.DefaultDataConverter
	}
	if fc == nil {
		fc = temporal.NewDefaultFailureConverter(dc, false)
	}
	return &ActivityTaskHandler{
		dataConverter:     dc,
		failureConverter:  fc,
		logger:            logger,
		interceptors:      interceptors,
		heartbeatInterval: heartbeatInterval,
		clock:             clock.New(),
	}
}

// activityInboundImpl is the terminal ActivityInboundInterceptor: it
// decodes the arguments and calls the registered activity function.
type activityInboundImpl struct {
	handler *ActivityTaskHandler
	fn      reflect.Value
}

func (i *activityInboundImpl) ExecuteActivity(ctx context.Context, in *ExecuteActivityInput) (interface{}, error) {
	return invokeActivityFn(ctx, i.fn, in.Args, i.handler.dataConverter)
}

// Execute runs one activity task to completion (or cancellation/failure),
// heartbeating through bw as the activity code requests.
func (h *ActivityTaskHandler) Execute(ctx context.Context, bw bridge.BridgeWorker, task *bridge.ActivityTask) *bridge.ActivityTaskCompletion {
	def, ok := lookupActivity(task.ActivityType)
	if !ok {
		return &bridge.ActivityTaskCompletion{TaskToken: task.TaskToken, Failed: &bridge.Failure{
			Message: fmt.Sprintf("activity type %q is not registered with this worker", task.ActivityType),
			Info:    bridge.ApplicationFailureInfo{Type: "NotFound", NonRetryable: true},
		}}
	}

	actCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	info := ActivityInfo{
		TaskToken:              task.TaskToken,
		WorkflowExecution:      task.WorkflowExecution,
		WorkflowType:           task.WorkflowType,
		ActivityType:           task.ActivityType,
		ActivityID:             task.ActivityID,
		Attempt:                task.Attempt,
		ScheduleToCloseTimeout: time.Duration(task.ScheduleToCloseTimeout),
		StartToCloseTimeout:    time.Duration(task.StartToCloseTimeout),
		HeartbeatTimeout:       time.Duration(task.HeartbeatTimeout),
		HeartbeatDetails:       task.HeartbeatDetails,
		RetryPolicy:            task.RetryPolicy,
	}

	var heartbeatMu sync.Mutex
	var lastHeartbeat time.Time
	env := &activityEnvironment{info: info, dataConverter: h.dataConverter}
	env.heartbeatFn = func(details ...interface{}) error {
		now := h.clock.Now()
		heartbeatMu.Lock()
		if !lastHeartbeat.IsZero() && now.Sub(lastHeartbeat) < h.heartbeatInterval {
			heartbeatMu.Unlock()
			return nil
		}
		lastHeartbeat = now
		heartbeatMu.Unlock()

		payloads, err := h.dataConverter.ToPayloads(details...)
		if err != nil {
			return err
		}
		resp, err := bw.RecordActivityHeartbeat(actCtx, task.TaskToken, payloads)
		if err != nil {
			return err
		}
		if resp.CancelRequested {
			cancel()
			return temporal.NewCancelledError()
		}
		return nil
	}

	execCtx := WithActivityEnvironment(actCtx, env)
	inbound := ActivityInboundInterceptor(&activityInboundImpl{handler: h, fn: def.fn})
	for i := len(h.interceptors) - 1; i >= 0; i-- {
		inbound = h.interceptors[i].InterceptActivity(execCtx, inbound)
	}
	result, err := inbound.ExecuteActivity(execCtx, &ExecuteActivityInput{ActivityType: task.ActivityType, Args: task.Input})
	if err != nil {
		if errors.Is(err, ErrActivityResultPending) {
			return nil
		}
		if temporal.IsCanceledError(err) || errors.Is(actCtx.Err(), context.Canceled) {
			return &bridge.ActivityTaskCompletion{TaskToken: task.TaskToken, Cancelled: h.failureConverter.ErrorToFailure(err)}
		}
		return &bridge.ActivityTaskCompletion{TaskToken: task.TaskToken, Failed: h.failureConverter.ErrorToFailure(err)}
	}

	var p *bridge.Payload
	if result != nil {
		payloads, perr := h.dataConverter.ToPayloads(result)
		if perr != nil {
			return &bridge.ActivityTaskCompletion{TaskToken: task.TaskToken, Failed: h.failureConverter.ErrorToFailure(perr)}
		}
		if len(payloads) > 0 {
			p = payloads[0]
		}
	}
	return &bridge.ActivityTaskCompletion{TaskToken: task.TaskToken, Completed: p}
}

var stdContextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// invokeActivityFn calls fn (a func(context.Context, ...) (R, error) or
// func(context.Context, ...) error), decoding input positionally and
// recovering a panic into a PanicError, matching workflow code's panic
// handling.
func invokeActivityFn(ctx context.Context, fn reflect.Value, input []*bridge.Payload, dc converter.DataConverter) (result interface{}, err error) {
	t := fn.Type()
	numIn := t.NumIn()
	args := make([]reflect.Value, numIn)
	start := 0
	if numIn > 0 && t.In(0) == stdContextType {
		args[0] = reflect.ValueOf(ctx)
		start = 1
	}
	for i := start; i < numIn; i++ {
		argPtr := reflect.New(t.In(i))
		if idx := i - start; idx < len(input) {
			if derr := dc.FromPayloads([]*bridge.Payload{input[idx]}, argPtr.Interface()); derr != nil {
				return nil, derr
			}
		}
		args[i] = argPtr.Elem()
	}

	defer func() {
		if r := recover(); r != nil {
			err = temporal.NewPanicError(r, string(debug.Stack()))
		}
	}()
	out := fn.Call(args)
	return splitHandlerResults(out)
}

// executeLocal runs one locally scheduled activity synchronously and maps
// its outcome onto an ActivityResolution. Local activities have no task
// token, so there is no heartbeat and no async completion.
func (h *ActivityTaskHandler) executeLocal(cmd bridge.ScheduleLocalActivityCommand) bridge.ActivityResolution {
	def, ok := lookupActivity(cmd.Type)
	if !ok {
		return bridge.ActivityResolution{Failed: &bridge.Failure{
			Message: fmt.Sprintf("activity type %q is not registered with this worker", cmd.Type),
			Info:    bridge.ApplicationFailureInfo{Type: "NotFound", NonRetryable: true},
		}}
	}

	ctx := context.Background()
	if cmd.Options.StartToCloseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Options.StartToCloseTimeout)
		defer cancel()
	}
	env := &activityEnvironment{
		info:          ActivityInfo{ActivityType: cmd.Type, ActivityID: cmd.Options.ActivityID},
		dataConverter: h.dataConverter,
	}

	result, err := invokeActivityFn(WithActivityEnvironment(ctx, env), def.fn, cmd.Input, h.dataConverter)
	if err != nil {
		if temporal.IsCanceledError(err) {
			return bridge.ActivityResolution{Cancelled: h.failureConverter.ErrorToFailure(err)}
		}
		return bridge.ActivityResolution{Failed: h.failureConverter.ErrorToFailure(err)}
	}

	var p *bridge.Payload
	if result != nil {
		payloads, perr := h.dataConverter.ToPayloads(result)
		if perr != nil {
			return bridge.ActivityResolution{Failed: h.failureConverter.ErrorToFailure(perr)}
		}
		if len(payloads) > 0 {
			p = payloads[0]
		}
	}
	if p == nil {
		p = &bridge.Payload{Metadata: map[string][]byte{converter.MetadataEncoding: []byte(converter.MetadataEncodingNull)}}
	}
	return bridge.ActivityResolution{Completed: p}
}
