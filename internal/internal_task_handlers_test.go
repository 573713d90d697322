package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.flowcore.dev/sdk/internal/bridge"
)

func newTestWorkflowTaskHandler() *WorkflowTaskHandler {
	return NewWorkflowTaskHandler(nil, nil, zap.NewNop(), nil)
}

func initActivation(runID, workflowType string, jobs ...bridge.Job) *bridge.Activation {
	all := append([]bridge.Job{bridge.InitializeWorkflowJob{
		WorkflowType: workflowType,
		WorkflowID:   "wid-" + runID,
		RandomSeed:   1,
	}}, jobs...)
	return &bridge.Activation{RunID: runID, Timestamp: time.Unix(1700000000, 0), Jobs: all}
}

func TestSoloRemoveFromCacheEmitsEmptySuccess(t *testing.T) {
	h := newTestWorkflowTaskHandler()
	completion := h.ProcessActivation(&bridge.Activation{
		RunID: "gone",
		Jobs:  []bridge.Job{bridge.RemoveFromCacheJob{Reason: "cache full"}},
	})
	require.NotNil(t, completion.Successful)
	assert.Empty(t, completion.Successful.Commands)
	assert.Equal(t, 0, h.CachedRunCount())
}

func TestRemoveFromCacheAfterJobsEvicts(t *testing.T) {
	RegisterWorkflowWithOptions(func(ctx Context) error {
		return Sleep(ctx, time.Hour)
	}, RegisterWorkflowOptions{Name: "EvictableSleeper"})

	h := newTestWorkflowTaskHandler()
	completion := h.ProcessActivation(initActivation("run-evict", "EvictableSleeper"))
	require.NotNil(t, completion.Successful)
	assert.Equal(t, 1, h.CachedRunCount())

	completion = h.ProcessActivation(&bridge.Activation{
		RunID:     "run-evict",
		Timestamp: time.Unix(1700000100, 0),
		Jobs: []bridge.Job{
			bridge.FireTimerJob{Seq: 1},
			bridge.RemoveFromCacheJob{Reason: "rotating"},
		},
	})
	require.NotNil(t, completion.Successful, "jobs alongside remove_from_cache must still run")
	require.Len(t, completion.Successful.Commands, 1)
	_, ok := completion.Successful.Commands[0].(bridge.CompleteWorkflowCommand)
	assert.True(t, ok)
	assert.Equal(t, 0, h.CachedRunCount(), "run must be evicted after the completion")
}

func TestUnknownWorkflowTypeFailsCompletion(t *testing.T) {
	h := newTestWorkflowTaskHandler()
	completion := h.ProcessActivation(initActivation("run-unknown", "NoSuchWorkflowType"))
	require.NotNil(t, completion.Failed)
	assert.Contains(t, completion.Failed.Failure.Message, "NoSuchWorkflowType")
}

func TestActivationWithoutInitOrCacheFails(t *testing.T) {
	h := newTestWorkflowTaskHandler()
	completion := h.ProcessActivation(&bridge.Activation{
		RunID: "never-seen",
		Jobs:  []bridge.Job{bridge.FireTimerJob{Seq: 1}},
	})
	require.NotNil(t, completion.Failed)
}

func TestActivityHeartbeatCoalescing(t *testing.T) {
	RegisterActivityWithOptions(func(ctx context.Context) error {
		for i := 0; i < 5; i++ {
			if err := RecordActivityHeartbeat(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}, RegisterActivityOptions{Name: "HeartbeatingBurst"})

	h := NewActivityTaskHandler(nil, nil, zap.NewNop(), nil, time.Second)
	h.clock = clock.NewMock()

	bw := bridge.NewDirectBridge()
	completion := h.Execute(context.Background(), bw, &bridge.ActivityTask{
		TaskToken:    []byte("tok"),
		ActivityType: "HeartbeatingBurst",
	})
	require.NotNil(t, completion)
	assert.Nil(t, completion.Failed)
	// Five rapid heartbeats inside one coalescing window collapse to the
	// first one.
	assert.Equal(t, 1, bw.HeartbeatCount("tok"))
}

func TestActivityHeartbeatCancelRequested(t *testing.T) {
	RegisterActivityWithOptions(func(ctx context.Context) error {
		if err := RecordActivityHeartbeat(ctx, "progress"); err != nil {
			return err
		}
		return errors.New("should not get here")
	}, RegisterActivityOptions{Name: "HeartbeatingCancelled"})

	h := NewActivityTaskHandler(nil, nil, zap.NewNop(), nil, time.Second)
	bw := &cancelRequestingBridge{BridgeWorker: bridge.NewDirectBridge()}

	completion := h.Execute(context.Background(), bw, &bridge.ActivityTask{
		TaskToken:    []byte("tok"),
		ActivityType: "HeartbeatingCancelled",
	})
	require.NotNil(t, completion)
	require.NotNil(t, completion.Cancelled, "cancel-requested heartbeat must surface as cancellation")
}

type cancelRequestingBridge struct {
	bridge.BridgeWorker
}

func (b *cancelRequestingBridge) RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details []*bridge.Payload) (*bridge.HeartbeatResponse, error) {
	return &bridge.HeartbeatResponse{CancelRequested: true}, nil
}

func TestActivityCompleteAsyncSuppressesCompletion(t *testing.T) {
	RegisterActivityWithOptions(func(ctx context.Context) (string, error) {
		return "", ErrActivityResultPending
	}, RegisterActivityOptions{Name: "AsyncCompleting"})

	h := NewActivityTaskHandler(nil, nil, zap.NewNop(), nil, time.Second)
	completion := h.Execute(context.Background(), bridge.NewDirectBridge(), &bridge.ActivityTask{
		TaskToken:    []byte("tok"),
		ActivityType: "AsyncCompleting",
	})
	assert.Nil(t, completion, "async-completing activity must emit no completion")
}

func TestActivityPanicBecomesFailure(t *testing.T) {
	RegisterActivityWithOptions(func(ctx context.Context) error {
		panic("activity exploded")
	}, RegisterActivityOptions{Name: "PanickingActivity"})

	h := NewActivityTaskHandler(nil, nil, zap.NewNop(), nil, time.Second)
	completion := h.Execute(context.Background(), bridge.NewDirectBridge(), &bridge.ActivityTask{
		TaskToken:    []byte("tok"),
		ActivityType: "PanickingActivity",
	})
	require.NotNil(t, completion)
	require.NotNil(t, completion.Failed)
	assert.Contains(t, completion.Failed.Message, "activity exploded")
}

func TestExecuteLocalActivity(t *testing.T) {
	RegisterActivityWithOptions(func(ctx context.Context, x int) (int, error) {
		return x * x, nil
	}, RegisterActivityOptions{Name: "Square"})

	h := NewActivityTaskHandler(nil, nil, zap.NewNop(), nil, time.Second)
	res := h.executeLocal(bridge.ScheduleLocalActivityCommand{
		Seq:   1,
		Type:  "Square",
		Input: []*bridge.Payload{payload(t, 7)},
	})
	require.NotNil(t, res.Completed)
	var out int
	decodePayload(t, res.Completed, &out)
	assert.Equal(t, 49, out)

	res = h.executeLocal(bridge.ScheduleLocalActivityCommand{Seq: 2, Type: "NoSuchActivity"})
	require.NotNil(t, res.Failed)
}

func TestActivityNotRegisteredFailsNonRetryable(t *testing.T) {
	h := NewActivityTaskHandler(nil, nil, zap.NewNop(), nil, time.Second)
	completion := h.Execute(context.Background(), bridge.NewDirectBridge(), &bridge.ActivityTask{
		TaskToken:    []byte("tok"),
		ActivityType: "NeverRegistered",
	})
	require.NotNil(t, completion.Failed)
	info, ok := completion.Failed.Info.(bridge.ApplicationFailureInfo)
	require.True(t, ok)
	assert.True(t, info.NonRetryable)
}
