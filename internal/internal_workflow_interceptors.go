package internal

import (
	"fmt"
	"time"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
)

// workflowInboundImpl is the terminal WorkflowInboundInterceptor: it
// actually invokes the registered workflow, signal, query, and update
// handlers. User interceptors wrap around it.
type workflowInboundImpl struct {
	env *workflowEnvironment
}

func (i *workflowInboundImpl) Init(outbound WorkflowOutboundInterceptor) error {
	i.env.outbound = outbound
	return nil
}

func (i *workflowInboundImpl) ExecuteWorkflow(ctx Context, in *ExecuteWorkflowInput) (interface{}, error) {
	return i.env.invokeHandler(ctx, i.env.def.fn, in.Args)
}

func (i *workflowInboundImpl) HandleSignal(ctx Context, in *HandleSignalInput) error {
	ch := i.env.signalChannel(i.env.rootCtx, in.SignalName)
	ch.SendAsync(in.Input)
	return nil
}

func (i *workflowInboundImpl) HandleQuery(ctx Context, in *HandleQueryInput) (interface{}, error) {
	fn, ok := i.env.queryHandlers[in.QueryType]
	if !ok {
		return nil, fmt.Errorf("unknown query type: %s", in.QueryType)
	}
	return i.env.invokeHandler(ctx, fn, in.Args)
}

func (i *workflowInboundImpl) ExecuteUpdate(ctx Context, in *ExecuteUpdateInput) (interface{}, error) {
	entry, ok := i.env.updateHandlers[in.UpdateName]
	if !ok {
		return nil, fmt.Errorf("unknown update type: %s", in.UpdateName)
	}
	return i.env.invokeHandler(ctx, entry.fn, in.Args)
}

// workflowOutboundImpl is the terminal WorkflowOutboundInterceptor: it
// registers pending work with the state machine and appends the matching
// commands.
type workflowOutboundImpl struct {
	env *workflowEnvironment
}

func getWorkflowOutbound(ctx Context) WorkflowOutboundInterceptor {
	return getWorkflowEnvironment(ctx).outbound
}

func (o *workflowOutboundImpl) ExecuteActivity(ctx Context, activityType string, args ...interface{}) Future {
	env := o.env
	future, settable := NewFuture(ctx)

	input, err := env.dataConverter().ToPayloads(args...)
	if err != nil {
		settable.SetError(err)
		return future
	}

	opts := getActivityOptions(ctx)
	seq := env.scheduleActivity(activityType, input, opts, func(result *bridge.Payload, err error) {
		if err != nil {
			settable.SetError(err)
			return
		}
		settable.SetValue(result)
	})

	if ctx.Done() != nil {
		Go(ctx, func(ctx Context) {
			var discard interface{}
			ctx.Done().Receive(ctx, &discard)
			if !future.IsReady() {
				env.requestCancelActivity(seq)
			}
		})
	}
	return future
}

func (o *workflowOutboundImpl) ExecuteLocalActivity(ctx Context, activityType string, args ...interface{}) Future {
	env := o.env
	future, settable := NewFuture(ctx)

	input, err := env.dataConverter().ToPayloads(args...)
	if err != nil {
		settable.SetError(err)
		return future
	}

	opts := getActivityOptions(ctx)
	seq := env.scheduleLocalActivity(activityType, input, opts, func(result *bridge.Payload, err error) {
		if err != nil {
			settable.SetError(err)
			return
		}
		settable.SetValue(result)
	})

	if ctx.Done() != nil {
		Go(ctx, func(ctx Context) {
			var discard interface{}
			ctx.Done().Receive(ctx, &discard)
			if !future.IsReady() {
				env.requestCancelActivity(seq)
			}
		})
	}
	return future
}

func (o *workflowOutboundImpl) ExecuteChildWorkflow(ctx Context, workflowType string, args ...interface{}) ChildWorkflowFuture {
	env := o.env
	resultFuture, resultSettable := NewFuture(ctx)
	startFuture, startSettable := NewFuture(ctx)

	input, err := env.dataConverter().ToPayloads(args...)
	if err != nil {
		startSettable.SetError(err)
		resultSettable.SetError(err)
		return &childWorkflowFutureImpl{Future: resultFuture, startFuture: startFuture}
	}

	opts := getChildWorkflowOptions(ctx)
	seq := env.startChildWorkflow(workflowType, input, opts,
		func(exec bridge.WorkflowExecution, err error) {
			if err != nil {
				startSettable.SetError(err)
				return
			}
			startSettable.SetValue(exec)
		},
		func(result *bridge.Payload, err error) {
			if err != nil {
				resultSettable.SetError(err)
				return
			}
			resultSettable.SetValue(result)
		})

	if ctx.Done() != nil {
		Go(ctx, func(ctx Context) {
			var discard interface{}
			ctx.Done().Receive(ctx, &discard)
			if !resultFuture.IsReady() {
				env.cancelChildWorkflow(seq)
			}
		})
	}

	return &childWorkflowFutureImpl{Future: resultFuture, startFuture: startFuture}
}

func (o *workflowOutboundImpl) ExecuteNexusOperation(ctx Context, in ExecuteNexusOperationInput) NexusOperationFuture {
	env := o.env
	resultFuture, resultSettable := NewFuture(ctx)
	startFuture, startSettable := NewFuture(ctx)
	f := &nexusOperationFutureImpl{Future: resultFuture, executionFuture: startFuture}

	var payload *bridge.Payload
	if in.Input != nil {
		payloads, err := env.dataConverter().ToPayloads(in.Input)
		if err != nil {
			startSettable.SetError(err)
			resultSettable.SetError(err)
			return f
		}
		if len(payloads) > 0 {
			payload = payloads[0]
		}
	}

	seq := env.scheduleNexusOperation(nexusCommandOptions(in), payload,
		func(token *string, err error) {
			if err != nil {
				startSettable.SetError(err)
				return
			}
			exec := NexusOperationExecution{}
			if token != nil {
				exec.OperationToken = *token
			}
			startSettable.SetValue(exec)
		},
		func(result *bridge.Payload, err error) {
			if err != nil {
				resultSettable.SetError(err)
				return
			}
			resultSettable.SetValue(result)
		})

	if ctx.Done() != nil {
		Go(ctx, func(ctx Context) {
			var discard interface{}
			ctx.Done().Receive(ctx, &discard)
			if !resultFuture.IsReady() {
				env.requestCancelNexusOperation(seq)
			}
		})
	}
	return f
}

func (o *workflowOutboundImpl) NewTimer(ctx Context, d time.Duration) Future {
	env := o.env
	future, settable := NewFuture(ctx)
	if d <= 0 {
		settable.SetValue(nil)
		return future
	}
	seq := env.startTimer(d, func(result interface{}, err error) {
		settable.Set(result, err)
	})
	if ctx.Done() != nil {
		Go(ctx, func(ctx Context) {
			cs := ctx.Done()
			var discard interface{}
			cs.Receive(ctx, &discard)
			if !future.IsReady() {
				env.cancelTimer(seq)
			}
		})
	}
	return future
}

func (o *workflowOutboundImpl) SignalExternalWorkflow(ctx Context, workflowID, runID, signalName string, arg interface{}) Future {
	env := o.env
	future, settable := NewFuture(ctx)
	input, err := env.dataConverter().ToPayloads(arg)
	if err != nil {
		settable.SetError(err)
		return future
	}
	env.signalExternalWorkflow(bridge.WorkflowExecution{WorkflowID: workflowID, RunID: runID}, signalName, input,
		func(err error) { settable.Set(nil, err) })
	return future
}

func (o *workflowOutboundImpl) RequestCancelExternalWorkflow(ctx Context, workflowID, runID string) Future {
	env := o.env
	future, settable := NewFuture(ctx)
	env.requestCancelExternalWorkflow(bridge.WorkflowExecution{WorkflowID: workflowID, RunID: runID},
		func(err error) { settable.Set(nil, err) })
	return future
}

func (o *workflowOutboundImpl) UpsertSearchAttributes(ctx Context, attributes map[string]interface{}) error {
	return o.env.upsertSearchAttributes(attributes)
}

func (o *workflowOutboundImpl) UpsertMemo(ctx Context, memo map[string]interface{}) error {
	return o.env.upsertMemo(memo)
}

func (o *workflowOutboundImpl) SideEffect(ctx Context, f func(ctx Context) (interface{}, error)) converter.Values {
	return o.env.sideEffect(ctx, f)
}

func (o *workflowOutboundImpl) Now(ctx Context) time.Time {
	return o.env.replayNow
}
