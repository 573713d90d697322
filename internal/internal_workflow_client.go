package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/pborman/uuid"
	"go.uber.org/zap"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/common/backoff"
	"go.flowcore.dev/sdk/internal/common/metrics"
	"go.flowcore.dev/sdk/internal/paginate"
	"go.flowcore.dev/sdk/temporal"
)

const (
	serviceOperationInitialInterval    = 20 * time.Millisecond
	serviceOperationMaxInterval        = 6 * time.Second
	serviceOperationExpirationInterval = 60 * time.Second

	defaultGetHistoryPageSize = 1000
	defaultListPageSize       = 1000
)

type workflowClient struct {
	service          bridge.WorkflowService
	namespace        string
	identity         string
	dataConverter    converter.DataConverter
	failureConverter temporal.FailureConverter
	logger           *zap.Logger
	metricsScope     *metrics.TaggedScope
	interceptor      ClientOutboundInterceptor
}

func defaultIdentity() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	return fmt.Sprintf("%d@%s@", os.Getpid(), hostname)
}

func serviceOperationRetryPolicy() backoff.RetryPolicy {
	policy := backoff.NewExponentialRetryPolicy(serviceOperationInitialInterval)
	policy.SetMaximumInterval(serviceOperationMaxInterval)
	policy.SetExpirationInterval(serviceOperationExpirationInterval)
	return policy
}

// isServiceTransientError excludes the errors retrying cannot fix:
// anything the caller got wrong, terminal server verdicts, and context
// expiry.
func isServiceTransientError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var alreadyStarted *temporal.WorkflowExecutionAlreadyStartedError
	var invalid *temporal.InvalidOperationError
	if errors.As(err, &alreadyStarted) || errors.As(err, &invalid) {
		return false
	}
	var serverErr *temporal.ServerError
	if errors.As(err, &serverErr) && serverErr.NonRetryable() {
		return false
	}
	return true
}

func (wc *workflowClient) invokeService(ctx context.Context, op func(ctx context.Context) error) error {
	return backoff.Retry(ctx, func() error { return op(ctx) }, serviceOperationRetryPolicy(), isServiceTransientError)
}

// --- outbound interceptor terminal ---

// clientOutboundImpl is the terminal ClientOutboundInterceptor: it performs
// the actual service calls. User interceptors wrap around it.
type clientOutboundImpl struct {
	client *workflowClient
}

func (c *clientOutboundImpl) ExecuteWorkflow(ctx context.Context, in *ClientExecuteWorkflowInput) (WorkflowRun, error) {
	wc := c.client
	opts := in.Options
	if opts.TaskQueue == "" {
		return nil, &temporal.InvalidOperationError{Message: "missing TaskQueue in StartWorkflowOptions"}
	}
	if opts.CronSchedule != "" {
		if err := validateCronSchedule(opts.CronSchedule); err != nil {
			return nil, &temporal.InvalidOperationError{Message: fmt.Sprintf("invalid CronSchedule: %v", err)}
		}
	}
	workflowID := opts.ID
	if workflowID == "" {
		workflowID = uuid.New()
	}

	input, err := wc.dataConverter.ToPayloads(in.Args...)
	if err != nil {
		return nil, err
	}
	memo, err := wc.encodeMap(opts.Memo)
	if err != nil {
		return nil, err
	}
	searchAttrs, err := wc.encodeMap(opts.SearchAttributes)
	if err != nil {
		return nil, err
	}

	req := &bridge.StartWorkflowExecutionRequest{
		Namespace:         wc.namespace,
		WorkflowID:        workflowID,
		WorkflowType:      in.WorkflowType,
		TaskQueue:         opts.TaskQueue,
		Input:             input,
		ExecutionTimeout:  opts.WorkflowExecutionTimeout,
		RunTimeout:        opts.WorkflowRunTimeout,
		TaskTimeout:       opts.WorkflowTaskTimeout,
		Identity:          wc.identity,
		RequestID:         uuid.New(),
		IDReusePolicy:     opts.WorkflowIDReusePolicy,
		IDConflictPolicy:  opts.WorkflowIDConflictPolicy,
		RetryPolicy:       opts.RetryPolicy,
		CronSchedule:      opts.CronSchedule,
		Memo:              memo,
		SearchAttributes:  searchAttrs,
		StartDelay:        opts.StartDelay,
		RequestEagerStart: opts.EnableEagerStart,
	}

	var resp *bridge.StartWorkflowExecutionResponse
	err = wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.StartWorkflowExecution(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	wc.metricsScope.GetTaggedScope("workflow_type", in.WorkflowType).Counter(metrics.WorkflowStartCounter).Inc(1)

	return &workflowRunImpl{
		client:       wc,
		workflowType: in.WorkflowType,
		workflowID:   workflowID,
		firstRunID:   resp.RunID,
		currentRunID: resp.RunID,
	}, nil
}

func (c *clientOutboundImpl) SignalWorkflow(ctx context.Context, in *ClientSignalWorkflowInput) error {
	wc := c.client
	input, err := wc.dataConverter.ToPayloads(in.Arg)
	if err != nil {
		return err
	}
	req := &bridge.SignalWorkflowExecutionRequest{
		Namespace:  wc.namespace,
		Execution:  bridge.WorkflowExecution{WorkflowID: in.WorkflowID, RunID: in.RunID},
		SignalName: in.SignalName,
		Input:      input,
		Identity:   wc.identity,
		RequestID:  uuid.New(),
	}
	return wc.invokeService(ctx, func(ctx context.Context) error {
		return wc.service.SignalWorkflowExecution(ctx, req)
	})
}

func (c *clientOutboundImpl) SignalWithStartWorkflow(ctx context.Context, in *ClientSignalWithStartWorkflowInput) (WorkflowRun, error) {
	wc := c.client
	opts := in.Options
	if opts.TaskQueue == "" {
		return nil, &temporal.InvalidOperationError{Message: "missing TaskQueue in StartWorkflowOptions"}
	}
	workflowID := opts.ID
	if workflowID == "" {
		workflowID = uuid.New()
	}

	signalInput, err := wc.dataConverter.ToPayloads(in.SignalArg)
	if err != nil {
		return nil, err
	}
	input, err := wc.dataConverter.ToPayloads(in.Args...)
	if err != nil {
		return nil, err
	}
	memo, err := wc.encodeMap(opts.Memo)
	if err != nil {
		return nil, err
	}
	searchAttrs, err := wc.encodeMap(opts.SearchAttributes)
	if err != nil {
		return nil, err
	}

	req := &bridge.SignalWithStartWorkflowExecutionRequest{
		Start: &bridge.StartWorkflowExecutionRequest{
			Namespace:        wc.namespace,
			WorkflowID:       workflowID,
			WorkflowType:     in.WorkflowType,
			TaskQueue:        opts.TaskQueue,
			Input:            input,
			ExecutionTimeout: opts.WorkflowExecutionTimeout,
			RunTimeout:       opts.WorkflowRunTimeout,
			TaskTimeout:      opts.WorkflowTaskTimeout,
			Identity:         wc.identity,
			RequestID:        uuid.New(),
			IDReusePolicy:    opts.WorkflowIDReusePolicy,
			RetryPolicy:      opts.RetryPolicy,
			CronSchedule:     opts.CronSchedule,
			Memo:             memo,
			SearchAttributes: searchAttrs,
		},
		SignalName:  in.SignalName,
		SignalInput: signalInput,
	}

	var resp *bridge.StartWorkflowExecutionResponse
	err = wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.SignalWithStartWorkflowExecution(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &workflowRunImpl{
		client:       wc,
		workflowType: in.WorkflowType,
		workflowID:   workflowID,
		firstRunID:   resp.RunID,
		currentRunID: resp.RunID,
	}, nil
}

func (c *clientOutboundImpl) CancelWorkflow(ctx context.Context, in *ClientCancelWorkflowInput) error {
	wc := c.client
	req := &bridge.RequestCancelWorkflowExecutionRequest{
		Namespace: wc.namespace,
		Execution: bridge.WorkflowExecution{WorkflowID: in.WorkflowID, RunID: in.RunID},
		Identity:  wc.identity,
		RequestID: uuid.New(),
		Reason:    in.Reason,
	}
	return wc.invokeService(ctx, func(ctx context.Context) error {
		return wc.service.RequestCancelWorkflowExecution(ctx, req)
	})
}

func (c *clientOutboundImpl) TerminateWorkflow(ctx context.Context, in *ClientTerminateWorkflowInput) error {
	wc := c.client
	details, err := wc.dataConverter.ToPayloads(in.Details...)
	if err != nil {
		return err
	}
	req := &bridge.TerminateWorkflowExecutionRequest{
		Namespace: wc.namespace,
		Execution: bridge.WorkflowExecution{WorkflowID: in.WorkflowID, RunID: in.RunID},
		Reason:    in.Reason,
		Details:   details,
		Identity:  wc.identity,
	}
	return wc.invokeService(ctx, func(ctx context.Context) error {
		return wc.service.TerminateWorkflowExecution(ctx, req)
	})
}

func (c *clientOutboundImpl) QueryWorkflow(ctx context.Context, in *ClientQueryWorkflowInput) (converter.Values, error) {
	wc := c.client
	args, err := wc.dataConverter.ToPayloads(in.Args...)
	if err != nil {
		return nil, err
	}
	req := &bridge.QueryWorkflowRequest{
		Namespace: wc.namespace,
		Execution: bridge.WorkflowExecution{WorkflowID: in.WorkflowID, RunID: in.RunID},
		QueryType: in.QueryType,
		Args:      args,
	}
	var resp *bridge.QueryWorkflowResponse
	err = wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.QueryWorkflow(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.QueryRejected {
		return nil, &temporal.InvalidOperationError{Message: fmt.Sprintf("query rejected: workflow status %s", resp.RejectedStatus)}
	}
	return converter.NewEncodedValues(resp.Result, wc.dataConverter), nil
}

func (c *clientOutboundImpl) UpdateWorkflow(ctx context.Context, in *ClientUpdateWorkflowInput) (UpdateHandle, error) {
	wc := c.client
	if in.UpdateName == "" {
		return nil, &temporal.InvalidOperationError{Message: "missing UpdateName in UpdateWorkflowOptions"}
	}
	updateID := in.UpdateID
	if updateID == "" {
		updateID = uuid.New()
	}
	waitStage := in.WaitForStage
	if waitStage == bridge.UpdateWorkflowExecutionLifecycleStageUnspecified {
		waitStage = bridge.UpdateWorkflowExecutionLifecycleStageAccepted
	}
	args, err := wc.dataConverter.ToPayloads(in.Args...)
	if err != nil {
		return nil, err
	}
	req := &bridge.UpdateWorkflowExecutionRequest{
		Namespace:  wc.namespace,
		Execution:  bridge.WorkflowExecution{WorkflowID: in.WorkflowID, RunID: in.RunID},
		UpdateID:   updateID,
		UpdateName: in.UpdateName,
		Args:       args,
		Identity:   wc.identity,
		WaitStage:  waitStage,
	}
	var resp *bridge.UpdateWorkflowExecutionResponse
	err = wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.UpdateWorkflowExecution(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	handle := &updateHandleImpl{
		client:     wc,
		workflowID: in.WorkflowID,
		runID:      in.RunID,
		updateID:   resp.UpdateID,
	}
	if resp.Stage == bridge.UpdateWorkflowExecutionLifecycleStageCompleted {
		handle.outcome = resp
	}
	return handle, nil
}

// --- Client interface ---

func (wc *workflowClient) encodeMap(in map[string]interface{}) (map[string]*bridge.Payload, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]*bridge.Payload, len(in))
	for k, v := range in {
		payloads, err := wc.dataConverter.ToPayloads(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		if len(payloads) > 0 {
			out[k] = payloads[0]
		}
	}
	return out, nil
}

func (wc *workflowClient) ExecuteWorkflow(ctx context.Context, options StartWorkflowOptions, workflow interface{}, args ...interface{}) (WorkflowRun, error) {
	workflowType, err := workflowTypeFromInterface(workflow)
	if err != nil {
		return nil, err
	}
	return wc.interceptor.ExecuteWorkflow(ctx, &ClientExecuteWorkflowInput{
		Options:      &options,
		WorkflowType: workflowType,
		Args:         args,
	})
}

func (wc *workflowClient) GetWorkflow(ctx context.Context, workflowID string, runID string) WorkflowRun {
	return &workflowRunImpl{
		client:       wc,
		workflowID:   workflowID,
		firstRunID:   runID,
		currentRunID: runID,
	}
}

func (wc *workflowClient) SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error {
	return wc.interceptor.SignalWorkflow(ctx, &ClientSignalWorkflowInput{
		WorkflowID: workflowID, RunID: runID, SignalName: signalName, Arg: arg,
	})
}

func (wc *workflowClient) SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{},
	options StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (WorkflowRun, error) {
	workflowType, err := workflowTypeFromInterface(workflow)
	if err != nil {
		return nil, err
	}
	options.ID = workflowID
	return wc.interceptor.SignalWithStartWorkflow(ctx, &ClientSignalWithStartWorkflowInput{
		SignalName:   signalName,
		SignalArg:    signalArg,
		Options:      &options,
		WorkflowType: workflowType,
		Args:         workflowArgs,
	})
}

func (wc *workflowClient) CancelWorkflow(ctx context.Context, workflowID string, runID string) error {
	return wc.interceptor.CancelWorkflow(ctx, &ClientCancelWorkflowInput{WorkflowID: workflowID, RunID: runID})
}

func (wc *workflowClient) TerminateWorkflow(ctx context.Context, workflowID string, runID string, reason string, details ...interface{}) error {
	return wc.interceptor.TerminateWorkflow(ctx, &ClientTerminateWorkflowInput{
		WorkflowID: workflowID, RunID: runID, Reason: reason, Details: details,
	})
}

func (wc *workflowClient) QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.Values, error) {
	return wc.interceptor.QueryWorkflow(ctx, &ClientQueryWorkflowInput{
		WorkflowID: workflowID, RunID: runID, QueryType: queryType, Args: args,
	})
}

func (wc *workflowClient) DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*bridge.DescribeWorkflowExecutionResponse, error) {
	var resp *bridge.DescribeWorkflowExecutionResponse
	err := wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.DescribeWorkflowExecution(ctx, &bridge.DescribeWorkflowExecutionRequest{
			Namespace: wc.namespace,
			Execution: bridge.WorkflowExecution{WorkflowID: workflowID, RunID: runID},
		})
		return err
	})
	return resp, err
}

func (wc *workflowClient) UpdateWorkflow(ctx context.Context, options UpdateWorkflowOptions) (UpdateHandle, error) {
	return wc.interceptor.UpdateWorkflow(ctx, &ClientUpdateWorkflowInput{
		WorkflowID:   options.WorkflowID,
		RunID:        options.RunID,
		UpdateID:     options.UpdateID,
		UpdateName:   options.UpdateName,
		Args:         options.Args,
		WaitForStage: options.WaitForStage,
	})
}

func (wc *workflowClient) GetWorkflowUpdateHandle(ref UpdateRef) UpdateHandle {
	return &updateHandleImpl{
		client:     wc,
		workflowID: ref.WorkflowExecution.WorkflowID,
		runID:      ref.WorkflowExecution.RunID,
		updateID:   ref.UpdateID,
	}
}

func (wc *workflowClient) GetWorkflowHistory(ctx context.Context, workflowID string, runID string, isLongPoll bool, filterType bridge.HistoryEventFilterType) HistoryEventIterator {
	execution := bridge.WorkflowExecution{WorkflowID: workflowID, RunID: runID}
	return paginate.NewIterator(ctx, func(ctx context.Context, token []byte) ([]*bridge.HistoryEvent, []byte, error) {
		req := &bridge.GetWorkflowExecutionHistoryRequest{
			Namespace:     wc.namespace,
			Execution:     execution,
			PageSize:      defaultGetHistoryPageSize,
			NextPageToken: token,
			WaitNewEvent:  isLongPoll,
			FilterType:    filterType,
		}
		var resp *bridge.GetWorkflowExecutionHistoryResponse
		err := wc.invokeService(ctx, func(ctx context.Context) error {
			var err error
			resp, err = wc.service.GetWorkflowExecutionHistory(ctx, req)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		// A long poll may time out server-side with no events and a new
		// token; keep the iterator open by passing the token through.
		return resp.Events, resp.NextPageToken, nil
	})
}

func (wc *workflowClient) ListWorkflow(ctx context.Context, query string) WorkflowExecutionIterator {
	return paginate.NewIterator(ctx, func(ctx context.Context, token []byte) ([]*bridge.WorkflowExecutionInfo, []byte, error) {
		var resp *bridge.ListWorkflowExecutionsResponse
		err := wc.invokeService(ctx, func(ctx context.Context) error {
			var err error
			resp, err = wc.service.ListWorkflowExecutions(ctx, &bridge.ListWorkflowExecutionsRequest{
				Namespace:     wc.namespace,
				PageSize:      defaultListPageSize,
				NextPageToken: token,
				Query:         query,
			})
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		return resp.Executions, resp.NextPageToken, nil
	})
}

func (wc *workflowClient) CountWorkflow(ctx context.Context, query string) (int64, error) {
	var resp *bridge.CountWorkflowExecutionsResponse
	err := wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.CountWorkflowExecutions(ctx, &bridge.CountWorkflowExecutionsRequest{
			Namespace: wc.namespace,
			Query:     query,
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (wc *workflowClient) GetSearchAttributes(ctx context.Context) (*bridge.GetSearchAttributesResponse, error) {
	var resp *bridge.GetSearchAttributesResponse
	err := wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.GetSearchAttributes(ctx)
		return err
	})
	return resp, err
}

func (wc *workflowClient) CompleteActivity(ctx context.Context, taskToken []byte, result interface{}, reportErr error) error {
	if len(taskToken) == 0 {
		return &temporal.InvalidOperationError{Message: "invalid task token"}
	}
	if reportErr == nil {
		payloads, err := wc.dataConverter.ToPayloads(result)
		if err != nil {
			return err
		}
		return wc.invokeService(ctx, func(ctx context.Context) error {
			return wc.service.RespondActivityTaskCompleted(ctx, &bridge.RespondActivityTaskCompletedRequest{
				Namespace: wc.namespace, TaskToken: taskToken, Result: payloads, Identity: wc.identity,
			})
		})
	}
	var cancelled *temporal.CancelledError
	if errors.As(reportErr, &cancelled) {
		details := cancelledErrorDetails(cancelled, wc.dataConverter)
		return wc.invokeService(ctx, func(ctx context.Context) error {
			return wc.service.RespondActivityTaskCanceled(ctx, &bridge.RespondActivityTaskCanceledRequest{
				Namespace: wc.namespace, TaskToken: taskToken, Details: details, Identity: wc.identity,
			})
		})
	}
	return wc.invokeService(ctx, func(ctx context.Context) error {
		return wc.service.RespondActivityTaskFailed(ctx, &bridge.RespondActivityTaskFailedRequest{
			Namespace: wc.namespace, TaskToken: taskToken, Failure: wc.failureConverter.ErrorToFailure(reportErr), Identity: wc.identity,
		})
	})
}

func (wc *workflowClient) CompleteActivityByID(ctx context.Context, namespace, workflowID, runID, activityID string, result interface{}, reportErr error) error {
	if namespace == "" {
		namespace = wc.namespace
	}
	if workflowID == "" || activityID == "" {
		return &temporal.InvalidOperationError{Message: "workflowID and activityID are required"}
	}
	if reportErr == nil {
		payloads, err := wc.dataConverter.ToPayloads(result)
		if err != nil {
			return err
		}
		return wc.invokeService(ctx, func(ctx context.Context) error {
			return wc.service.RespondActivityTaskCompletedByID(ctx, &bridge.RespondActivityTaskCompletedByIDRequest{
				Namespace: namespace, WorkflowID: workflowID, RunID: runID, ActivityID: activityID,
				Result: payloads, Identity: wc.identity,
			})
		})
	}
	var cancelled *temporal.CancelledError
	if errors.As(reportErr, &cancelled) {
		details := cancelledErrorDetails(cancelled, wc.dataConverter)
		return wc.invokeService(ctx, func(ctx context.Context) error {
			return wc.service.RespondActivityTaskCanceledByID(ctx, &bridge.RespondActivityTaskCanceledByIDRequest{
				Namespace: namespace, WorkflowID: workflowID, RunID: runID, ActivityID: activityID,
				Details: details, Identity: wc.identity,
			})
		})
	}
	return wc.invokeService(ctx, func(ctx context.Context) error {
		return wc.service.RespondActivityTaskFailedByID(ctx, &bridge.RespondActivityTaskFailedByIDRequest{
			Namespace: namespace, WorkflowID: workflowID, RunID: runID, ActivityID: activityID,
			Failure: wc.failureConverter.ErrorToFailure(reportErr), Identity: wc.identity,
		})
	})
}

func (wc *workflowClient) RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details ...interface{}) error {
	payloads, err := wc.dataConverter.ToPayloads(details...)
	if err != nil {
		return err
	}
	var resp *bridge.RecordActivityTaskHeartbeatResponse
	err = wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.RecordActivityTaskHeartbeat(ctx, &bridge.RecordActivityTaskHeartbeatRequest{
			Namespace: wc.namespace, TaskToken: taskToken, Details: payloads, Identity: wc.identity,
		})
		return err
	})
	if err != nil {
		return err
	}
	if resp.CancelRequested {
		return temporal.NewCancelledError()
	}
	return nil
}

func (wc *workflowClient) RecordActivityHeartbeatByID(ctx context.Context, namespace, workflowID, runID, activityID string, details ...interface{}) error {
	if namespace == "" {
		namespace = wc.namespace
	}
	payloads, err := wc.dataConverter.ToPayloads(details...)
	if err != nil {
		return err
	}
	var resp *bridge.RecordActivityTaskHeartbeatResponse
	err = wc.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = wc.service.RecordActivityTaskHeartbeatByID(ctx, &bridge.RecordActivityTaskHeartbeatByIDRequest{
			Namespace: namespace, WorkflowID: workflowID, RunID: runID, ActivityID: activityID,
			Details: payloads, Identity: wc.identity,
		})
		return err
	})
	if err != nil {
		return err
	}
	if resp.CancelRequested {
		return temporal.NewCancelledError()
	}
	return nil
}

func (wc *workflowClient) Close() error { return wc.service.Close() }

func cancelledErrorDetails(err *temporal.CancelledError, dc converter.DataConverter) []*bridge.Payload {
	if !err.HasDetails() {
		return nil
	}
	var raw interface{}
	if gerr := err.Details(&raw); gerr != nil {
		return nil
	}
	payloads, perr := dc.ToPayloads(raw)
	if perr != nil {
		return nil
	}
	return payloads
}

// workflowTypeFromInterface accepts a registered workflow function or a
// type name string.
func workflowTypeFromInterface(workflow interface{}) (string, error) {
	switch w := workflow.(type) {
	case string:
		return w, nil
	default:
		if reflect.ValueOf(workflow).Kind() != reflect.Func {
			return "", &temporal.InvalidOperationError{Message: fmt.Sprintf("cannot resolve workflow type from %T", workflow)}
		}
		return runtimeFuncName(w), nil
	}
}

// --- WorkflowRun ---

type workflowRunImpl struct {
	client       *workflowClient
	workflowType string
	workflowID   string
	firstRunID   string
	currentRunID string
}

func (r *workflowRunImpl) GetID() string    { return r.workflowID }
func (r *workflowRunImpl) GetRunID() string { return r.firstRunID }

func (r *workflowRunImpl) Get(ctx context.Context, valuePtr interface{}) error {
	return r.GetWithOptions(ctx, valuePtr, WorkflowRunGetOptions{})
}

// GetWithOptions implements the long-poll history tail read: fetch the
// close event, follow new_execution_run_id chains unless disabled, and map
// each close kind onto the matching terminal error.
func (r *workflowRunImpl) GetWithOptions(ctx context.Context, valuePtr interface{}, options WorkflowRunGetOptions) error {
	follow := !options.DisableFollowingRuns
	runID := r.currentRunID

	for {
		iter := r.client.GetWorkflowHistory(ctx, r.workflowID, runID, true, bridge.HistoryEventFilterTypeCloseEvent)
		if !iter.HasNext() {
			return &temporal.UnknownWorkflowEventError{EventType: "no close event"}
		}
		event, err := iter.Next()
		if err != nil {
			return err
		}

		switch event.EventType {
		case bridge.EventTypeWorkflowExecutionCompleted:
			attrs := event.WorkflowExecutionCompletedAttributes
			if follow && attrs.NewExecutionRunID != "" {
				runID = attrs.NewExecutionRunID
				continue
			}
			if valuePtr == nil || len(attrs.Result) == 0 {
				return nil
			}
			return r.client.dataConverter.FromPayloads(attrs.Result, valuePtr)

		case bridge.EventTypeWorkflowExecutionFailed:
			attrs := event.WorkflowExecutionFailedAttributes
			if follow && attrs.NewExecutionRunID != "" {
				runID = attrs.NewExecutionRunID
				continue
			}
			cause := r.client.failureConverter.FailureToError(attrs.Failure)
			return temporal.NewWorkflowExecutionError(r.workflowID, runID, r.workflowType, cause)

		case bridge.EventTypeWorkflowExecutionContinuedAsNew:
			attrs := event.WorkflowExecutionContinuedAsNewAttributes
			if follow {
				runID = attrs.NewExecutionRunID
				continue
			}
			return &temporal.WorkflowContinuedAsNewError{NewRunID: attrs.NewExecutionRunID}

		case bridge.EventTypeWorkflowExecutionTimedOut:
			attrs := event.WorkflowExecutionTimedOutAttributes
			if follow && attrs.NewExecutionRunID != "" {
				runID = attrs.NewExecutionRunID
				continue
			}
			cause := temporal.NewTimeoutError(bridge.TimeoutTypeStartToClose, nil)
			return temporal.NewWorkflowExecutionError(r.workflowID, runID, r.workflowType, cause)

		case bridge.EventTypeWorkflowExecutionCanceled:
			attrs := event.WorkflowExecutionCanceledAttributes
			details := converter.NewEncodedValues(attrs.Details, r.client.dataConverter)
			cause := temporal.NewCancelledError(details)
			return temporal.NewWorkflowExecutionError(r.workflowID, runID, r.workflowType, cause)

		case bridge.EventTypeWorkflowExecutionTerminated:
			attrs := event.WorkflowExecutionTerminatedAttributes
			details := converter.NewEncodedValues(attrs.Details, r.client.dataConverter)
			cause := temporal.NewTerminatedErrorWithReason(attrs.Reason, details)
			return temporal.NewWorkflowExecutionError(r.workflowID, runID, r.workflowType, cause)

		default:
			return &temporal.UnknownWorkflowEventError{EventType: fmt.Sprintf("%v", event.EventType)}
		}
	}
}

// --- UpdateHandle ---

type updateHandleImpl struct {
	client     *workflowClient
	workflowID string
	runID      string
	updateID   string
	// outcome caches a completed response observed at start time.
	outcome *bridge.UpdateWorkflowExecutionResponse
}

func (h *updateHandleImpl) WorkflowID() string { return h.workflowID }
func (h *updateHandleImpl) RunID() string      { return h.runID }
func (h *updateHandleImpl) UpdateID() string   { return h.updateID }

func (h *updateHandleImpl) Get(ctx context.Context, valuePtr interface{}) error {
	outcome := h.outcome
	if outcome == nil || outcome.Stage != bridge.UpdateWorkflowExecutionLifecycleStageCompleted {
		req := &bridge.PollWorkflowExecutionUpdateRequest{
			Namespace: h.client.namespace,
			Execution: bridge.WorkflowExecution{WorkflowID: h.workflowID, RunID: h.runID},
			UpdateID:  h.updateID,
			Identity:  h.client.identity,
			WaitStage: bridge.UpdateWorkflowExecutionLifecycleStageCompleted,
		}
		for {
			var resp *bridge.UpdateWorkflowExecutionResponse
			err := h.client.invokeService(ctx, func(ctx context.Context) error {
				var err error
				resp, err = h.client.service.PollWorkflowExecutionUpdate(ctx, req)
				return err
			})
			if err != nil {
				return err
			}
			if resp.Stage == bridge.UpdateWorkflowExecutionLifecycleStageCompleted {
				outcome = resp
				break
			}
			// Server long poll expired before completion; try again.
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		h.outcome = outcome
	}

	if outcome.Failure != nil {
		return h.client.failureConverter.FailureToError(outcome.Failure)
	}
	if valuePtr == nil || len(outcome.Result) == 0 {
		return nil
	}
	return h.client.dataConverter.FromPayloads(outcome.Result, valuePtr)
}
