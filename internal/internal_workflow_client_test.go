package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/temporal"
)

// fakeWorkflowService is a func-field fake of the service binding; only the
// methods a test installs are callable.
type fakeWorkflowService struct {
	bridge.WorkflowService

	startFn     func(ctx context.Context, req *bridge.StartWorkflowExecutionRequest) (*bridge.StartWorkflowExecutionResponse, error)
	signalFn    func(ctx context.Context, req *bridge.SignalWorkflowExecutionRequest) error
	queryFn     func(ctx context.Context, req *bridge.QueryWorkflowRequest) (*bridge.QueryWorkflowResponse, error)
	historyFn   func(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error)
	terminateFn func(ctx context.Context, req *bridge.TerminateWorkflowExecutionRequest) error
	updateFn    func(ctx context.Context, req *bridge.UpdateWorkflowExecutionRequest) (*bridge.UpdateWorkflowExecutionResponse, error)
	pollUpdate  func(ctx context.Context, req *bridge.PollWorkflowExecutionUpdateRequest) (*bridge.UpdateWorkflowExecutionResponse, error)
	countFn     func(ctx context.Context, req *bridge.CountWorkflowExecutionsRequest) (*bridge.CountWorkflowExecutionsResponse, error)
	listFn      func(ctx context.Context, req *bridge.ListWorkflowExecutionsRequest) (*bridge.ListWorkflowExecutionsResponse, error)
}

func (f *fakeWorkflowService) StartWorkflowExecution(ctx context.Context, req *bridge.StartWorkflowExecutionRequest) (*bridge.StartWorkflowExecutionResponse, error) {
	return f.startFn(ctx, req)
}

func (f *fakeWorkflowService) SignalWorkflowExecution(ctx context.Context, req *bridge.SignalWorkflowExecutionRequest) error {
	return f.signalFn(ctx, req)
}

func (f *fakeWorkflowService) QueryWorkflow(ctx context.Context, req *bridge.QueryWorkflowRequest) (*bridge.QueryWorkflowResponse, error) {
	return f.queryFn(ctx, req)
}

func (f *fakeWorkflowService) GetWorkflowExecutionHistory(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error) {
	return f.historyFn(ctx, req)
}

func (f *fakeWorkflowService) TerminateWorkflowExecution(ctx context.Context, req *bridge.TerminateWorkflowExecutionRequest) error {
	return f.terminateFn(ctx, req)
}

func (f *fakeWorkflowService) UpdateWorkflowExecution(ctx context.Context, req *bridge.UpdateWorkflowExecutionRequest) (*bridge.UpdateWorkflowExecutionResponse, error) {
	return f.updateFn(ctx, req)
}

func (f *fakeWorkflowService) PollWorkflowExecutionUpdate(ctx context.Context, req *bridge.PollWorkflowExecutionUpdateRequest) (*bridge.UpdateWorkflowExecutionResponse, error) {
	return f.pollUpdate(ctx, req)
}

func (f *fakeWorkflowService) CountWorkflowExecutions(ctx context.Context, req *bridge.CountWorkflowExecutionsRequest) (*bridge.CountWorkflowExecutionsResponse, error) {
	return f.countFn(ctx, req)
}

func (f *fakeWorkflowService) ListWorkflowExecutions(ctx context.Context, req *bridge.ListWorkflowExecutionsRequest) (*bridge.ListWorkflowExecutionsResponse, error) {
	return f.listFn(ctx, req)
}

func (f *fakeWorkflowService) Close() error { return nil }

func clientForTest(service bridge.WorkflowService) Client {
	return NewServiceClient(service, ClientOptions{Namespace: "unit", Identity: "unit-test"})
}

func closeEvent(eventType bridge.EventType) *bridge.HistoryEvent {
	return &bridge.HistoryEvent{EventID: 10, EventTime: time.Unix(1700000000, 0), EventType: eventType}
}

func historyResponse(events ...*bridge.HistoryEvent) *bridge.GetWorkflowExecutionHistoryResponse {
	return &bridge.GetWorkflowExecutionHistoryResponse{Events: events}
}

func TestExecuteWorkflowRequiresTaskQueue(t *testing.T) {
	c := clientForTest(&fakeWorkflowService{})
	_, err := c.ExecuteWorkflow(context.Background(), StartWorkflowOptions{}, "SomeWorkflow")
	var invalid *temporal.InvalidOperationError
	require.ErrorAs(t, err, &invalid)
}

func TestExecuteWorkflowStartsAndDefaultsID(t *testing.T) {
	var captured *bridge.StartWorkflowExecutionRequest
	svc := &fakeWorkflowService{
		startFn: func(ctx context.Context, req *bridge.StartWorkflowExecutionRequest) (*bridge.StartWorkflowExecutionResponse, error) {
			captured = req
			return &bridge.StartWorkflowExecutionResponse{RunID: "run-1"}, nil
		},
	}
	c := clientForTest(svc)

	run, err := c.ExecuteWorkflow(context.Background(), StartWorkflowOptions{TaskQueue: "tq"}, "OrderWorkflow", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.GetRunID())
	assert.NotEmpty(t, run.GetID())

	require.NotNil(t, captured)
	assert.Equal(t, "unit", captured.Namespace)
	assert.Equal(t, "OrderWorkflow", captured.WorkflowType)
	assert.Equal(t, "tq", captured.TaskQueue)
	assert.NotEmpty(t, captured.RequestID)
	assert.NotEmpty(t, captured.WorkflowID)
	require.Len(t, captured.Input, 1)
	var arg string
	decodePayload(t, captured.Input[0], &arg)
	assert.Equal(t, "order-1", arg)
}

func TestWorkflowRunGetFollowsContinueAsNewChain(t *testing.T) {
	calls := 0
	svc := &fakeWorkflowService{
		historyFn: func(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error) {
			calls++
			require.True(t, req.WaitNewEvent)
			require.Equal(t, bridge.HistoryEventFilterTypeCloseEvent, req.FilterType)
			if req.Execution.RunID == "R1" {
				ev := closeEvent(bridge.EventTypeWorkflowExecutionContinuedAsNew)
				ev.WorkflowExecutionContinuedAsNewAttributes = &bridge.WorkflowExecutionContinuedAsNewAttributes{NewExecutionRunID: "R2"}
				return historyResponse(ev), nil
			}
			ev := closeEvent(bridge.EventTypeWorkflowExecutionCompleted)
			ev.WorkflowExecutionCompletedAttributes = &bridge.WorkflowExecutionCompletedAttributes{
				Result: []*bridge.Payload{payload(t, "done")},
			}
			return historyResponse(ev), nil
		},
	}
	c := clientForTest(svc)

	var result string
	require.NoError(t, c.GetWorkflow(context.Background(), "wid", "R1").Get(context.Background(), &result))
	assert.Equal(t, "done", result)
	assert.Equal(t, 2, calls)
}

func TestWorkflowRunGetWithoutFollowingSurfacesContinuedAsNew(t *testing.T) {
	svc := &fakeWorkflowService{
		historyFn: func(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error) {
			ev := closeEvent(bridge.EventTypeWorkflowExecutionContinuedAsNew)
			ev.WorkflowExecutionContinuedAsNewAttributes = &bridge.WorkflowExecutionContinuedAsNewAttributes{NewExecutionRunID: "R2"}
			return historyResponse(ev), nil
		},
	}
	c := clientForTest(svc)

	err := c.GetWorkflow(context.Background(), "wid", "R1").
		GetWithOptions(context.Background(), nil, WorkflowRunGetOptions{DisableFollowingRuns: true})
	var can *temporal.WorkflowContinuedAsNewError
	require.ErrorAs(t, err, &can)
	assert.Equal(t, "R2", can.NewRunID)
}

func TestWorkflowRunGetTerminated(t *testing.T) {
	svc := &fakeWorkflowService{
		historyFn: func(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error) {
			ev := closeEvent(bridge.EventTypeWorkflowExecutionTerminated)
			ev.WorkflowExecutionTerminatedAttributes = &bridge.WorkflowExecutionTerminatedAttributes{Reason: "admin"}
			return historyResponse(ev), nil
		},
	}
	c := clientForTest(svc)

	err := c.GetWorkflow(context.Background(), "wid", "R1").Get(context.Background(), nil)
	var wfErr *temporal.WorkflowExecutionError
	require.ErrorAs(t, err, &wfErr)
	var terminated *temporal.TerminatedError
	require.ErrorAs(t, err, &terminated)
	assert.Equal(t, "admin", terminated.Reason())
}

func TestWorkflowRunGetFailedWrapsCause(t *testing.T) {
	svc := &fakeWorkflowService{
		historyFn: func(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error) {
			ev := closeEvent(bridge.EventTypeWorkflowExecutionFailed)
			ev.WorkflowExecutionFailedAttributes = &bridge.WorkflowExecutionFailedAttributes{
				Failure: &bridge.Failure{
					Message: "boom",
					Info:    bridge.ApplicationFailureInfo{Type: "BookingFailed", NonRetryable: true},
				},
			}
			return historyResponse(ev), nil
		},
	}
	c := clientForTest(svc)

	err := c.GetWorkflow(context.Background(), "wid", "R1").Get(context.Background(), nil)
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BookingFailed", appErr.Type())
}

func TestWorkflowRunGetTimedOut(t *testing.T) {
	svc := &fakeWorkflowService{
		historyFn: func(ctx context.Context, req *bridge.GetWorkflowExecutionHistoryRequest) (*bridge.GetWorkflowExecutionHistoryResponse, error) {
			ev := closeEvent(bridge.EventTypeWorkflowExecutionTimedOut)
			ev.WorkflowExecutionTimedOutAttributes = &bridge.WorkflowExecutionTimedOutAttributes{}
			return historyResponse(ev), nil
		},
	}
	c := clientForTest(svc)

	err := c.GetWorkflow(context.Background(), "wid", "R1").Get(context.Background(), nil)
	var timeout *temporal.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, bridge.TimeoutTypeStartToClose, timeout.TimeoutType())
}

func TestQueryWorkflowRejected(t *testing.T) {
	svc := &fakeWorkflowService{
		queryFn: func(ctx context.Context, req *bridge.QueryWorkflowRequest) (*bridge.QueryWorkflowResponse, error) {
			return &bridge.QueryWorkflowResponse{QueryRejected: true, RejectedStatus: "COMPLETED"}, nil
		},
	}
	c := clientForTest(svc)

	_, err := c.QueryWorkflow(context.Background(), "wid", "", "get_state")
	var invalid *temporal.InvalidOperationError
	require.ErrorAs(t, err, &invalid)
}

func TestQueryWorkflowDecodesResult(t *testing.T) {
	svc := &fakeWorkflowService{
		queryFn: func(ctx context.Context, req *bridge.QueryWorkflowRequest) (*bridge.QueryWorkflowResponse, error) {
			assert.Equal(t, "get_count", req.QueryType)
			return &bridge.QueryWorkflowResponse{Result: []*bridge.Payload{payload(t, 3)}}, nil
		},
	}
	c := clientForTest(svc)

	values, err := c.QueryWorkflow(context.Background(), "wid", "", "get_count")
	require.NoError(t, err)
	var count int
	require.NoError(t, values.Get(&count))
	assert.Equal(t, 3, count)
}

func TestUpdateWorkflowHandleGet(t *testing.T) {
	svc := &fakeWorkflowService{
		updateFn: func(ctx context.Context, req *bridge.UpdateWorkflowExecutionRequest) (*bridge.UpdateWorkflowExecutionResponse, error) {
			assert.NotEmpty(t, req.UpdateID)
			return &bridge.UpdateWorkflowExecutionResponse{
				UpdateID: req.UpdateID,
				Stage:    bridge.UpdateWorkflowExecutionLifecycleStageAccepted,
			}, nil
		},
		pollUpdate: func(ctx context.Context, req *bridge.PollWorkflowExecutionUpdateRequest) (*bridge.UpdateWorkflowExecutionResponse, error) {
			return &bridge.UpdateWorkflowExecutionResponse{
				UpdateID: req.UpdateID,
				Stage:    bridge.UpdateWorkflowExecutionLifecycleStageCompleted,
				Result:   []*bridge.Payload{payload(t, 42)},
			}, nil
		},
	}
	c := clientForTest(svc)

	handle, err := c.UpdateWorkflow(context.Background(), UpdateWorkflowOptions{
		WorkflowID: "wid",
		UpdateName: "double",
		Args:       []interface{}{21},
	})
	require.NoError(t, err)

	var result int
	require.NoError(t, handle.Get(context.Background(), &result))
	assert.Equal(t, 42, result)
}

func TestCountWorkflow(t *testing.T) {
	svc := &fakeWorkflowService{
		countFn: func(ctx context.Context, req *bridge.CountWorkflowExecutionsRequest) (*bridge.CountWorkflowExecutionsResponse, error) {
			assert.Equal(t, "WorkflowType='OrderWorkflow'", req.Query)
			return &bridge.CountWorkflowExecutionsResponse{Count: 12}, nil
		},
	}
	c := clientForTest(svc)

	count, err := c.CountWorkflow(context.Background(), "WorkflowType='OrderWorkflow'")
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

func TestListWorkflowPaginates(t *testing.T) {
	svc := &fakeWorkflowService{
		listFn: func(ctx context.Context, req *bridge.ListWorkflowExecutionsRequest) (*bridge.ListWorkflowExecutionsResponse, error) {
			if len(req.NextPageToken) == 0 {
				return &bridge.ListWorkflowExecutionsResponse{
					Executions:    []*bridge.WorkflowExecutionInfo{{Execution: bridge.WorkflowExecution{WorkflowID: "a"}}},
					NextPageToken: []byte("p2"),
				}, nil
			}
			return &bridge.ListWorkflowExecutionsResponse{
				Executions: []*bridge.WorkflowExecutionInfo{{Execution: bridge.WorkflowExecution{WorkflowID: "b"}}},
			}, nil
		},
	}
	c := clientForTest(svc)

	it := c.ListWorkflow(context.Background(), "")
	var ids []string
	for it.HasNext() {
		info, err := it.Next()
		require.NoError(t, err)
		ids = append(ids, info.Execution.WorkflowID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestTerminateWorkflowEncodesDetails(t *testing.T) {
	var captured *bridge.TerminateWorkflowExecutionRequest
	svc := &fakeWorkflowService{
		terminateFn: func(ctx context.Context, req *bridge.TerminateWorkflowExecutionRequest) error {
			captured = req
			return nil
		},
	}
	c := clientForTest(svc)

	require.NoError(t, c.TerminateWorkflow(context.Background(), "wid", "rid", "admin", "extra"))
	require.NotNil(t, captured)
	assert.Equal(t, "admin", captured.Reason)
	require.Len(t, captured.Details, 1)
}

func TestSignalWorkflowPassesThroughInterceptor(t *testing.T) {
	signalled := false
	svc := &fakeWorkflowService{
		signalFn: func(ctx context.Context, req *bridge.SignalWorkflowExecutionRequest) error {
			signalled = true
			assert.Equal(t, "increment", req.SignalName)
			return nil
		},
	}

	intercepted := 0
	c := NewServiceClient(svc, ClientOptions{
		Namespace: "unit",
		Interceptors: []ClientInterceptor{&countingClientInterceptor{hits: &intercepted}},
	})

	require.NoError(t, c.SignalWorkflow(context.Background(), "wid", "", "increment", 1))
	assert.True(t, signalled)
	assert.Equal(t, 1, intercepted)
}

type countingClientInterceptor struct {
	ClientInterceptorBase
	hits *int
}

func (i *countingClientInterceptor) InterceptClient(next ClientOutboundInterceptor) ClientOutboundInterceptor {
	return &countingClientOutbound{ClientOutboundInterceptorBase{Next: next}, i.hits}
}

type countingClientOutbound struct {
	ClientOutboundInterceptorBase
	hits *int
}

func (o *countingClientOutbound) SignalWorkflow(ctx context.Context, in *ClientSignalWorkflowInput) error {
	*o.hits++
	return o.Next.SignalWorkflow(ctx, in)
}
