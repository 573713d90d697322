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

type fakeScheduleService struct {
	bridge.WorkflowService

	createFn   func(ctx context.Context, req *bridge.CreateScheduleRequest) (*bridge.CreateScheduleResponse, error)
	patchFn    func(ctx context.Context, req *bridge.PatchScheduleRequest) error
	describeFn func(ctx context.Context, req *bridge.DescribeScheduleRequest) (*bridge.DescribeScheduleResponse, error)
	deleteFn   func(ctx context.Context, req *bridge.DeleteScheduleRequest) error
	listFn     func(ctx context.Context, req *bridge.ListSchedulesRequest) (*bridge.ListSchedulesResponse, error)
}

func (f *fakeScheduleService) CreateSchedule(ctx context.Context, req *bridge.CreateScheduleRequest) (*bridge.CreateScheduleResponse, error) {
	return f.createFn(ctx, req)
}

func (f *fakeScheduleService) PatchSchedule(ctx context.Context, req *bridge.PatchScheduleRequest) error {
	return f.patchFn(ctx, req)
}

func (f *fakeScheduleService) DescribeSchedule(ctx context.Context, req *bridge.DescribeScheduleRequest) (*bridge.DescribeScheduleResponse, error) {
	return f.describeFn(ctx, req)
}

func (f *fakeScheduleService) DeleteSchedule(ctx context.Context, req *bridge.DeleteScheduleRequest) error {
	return f.deleteFn(ctx, req)
}

func (f *fakeScheduleService) ListSchedules(ctx context.Context, req *bridge.ListSchedulesRequest) (*bridge.ListSchedulesResponse, error) {
	return f.listFn(ctx, req)
}

func validScheduleOptions() ScheduleOptions {
	return ScheduleOptions{
		ID: "nightly-report",
		Spec: bridge.ScheduleSpec{
			CronExpressions: []string{"0 3 * * *"},
		},
		Action: &bridge.ScheduleAction{
			StartWorkflow: &bridge.StartWorkflowExecutionRequest{
				WorkflowType: "ReportWorkflow",
				TaskQueue:    "reports",
			},
		},
		Overlap:       bridge.ScheduleOverlapPolicySkip,
		CatchupWindow: time.Hour,
	}
}

func TestScheduleCreateValidatesCron(t *testing.T) {
	c := clientForTest(&fakeScheduleService{}).ScheduleClient()

	opts := validScheduleOptions()
	opts.Spec.CronExpressions = []string{"not a cron"}
	_, err := c.Create(context.Background(), opts)
	var invalid *temporal.InvalidOperationError
	require.ErrorAs(t, err, &invalid)
}

func TestScheduleCreateValidatesIntervals(t *testing.T) {
	c := clientForTest(&fakeScheduleService{}).ScheduleClient()

	opts := validScheduleOptions()
	opts.Spec.CronExpressions = nil
	opts.Spec.Intervals = []bridge.ScheduleIntervalSpec{{Every: time.Hour, Offset: 2 * time.Hour}}
	_, err := c.Create(context.Background(), opts)
	var invalid *temporal.InvalidOperationError
	require.ErrorAs(t, err, &invalid)
}

func TestScheduleCreateSendsRequest(t *testing.T) {
	var captured *bridge.CreateScheduleRequest
	svc := &fakeScheduleService{
		createFn: func(ctx context.Context, req *bridge.CreateScheduleRequest) (*bridge.CreateScheduleResponse, error) {
			captured = req
			return &bridge.CreateScheduleResponse{}, nil
		},
	}
	c := clientForTest(svc).ScheduleClient()

	handle, err := c.Create(context.Background(), validScheduleOptions())
	require.NoError(t, err)
	assert.Equal(t, "nightly-report", handle.GetID())

	require.NotNil(t, captured)
	assert.Equal(t, "unit", captured.Namespace)
	require.NotNil(t, captured.Schedule.Policies)
	assert.Equal(t, bridge.ScheduleOverlapPolicySkip, captured.Schedule.Policies.Overlap)
	assert.Equal(t, time.Hour, captured.Schedule.Policies.CatchupWindow)
	assert.NotEmpty(t, captured.RequestID)
}

func TestSchedulePauseUnpauseTriggerBackfill(t *testing.T) {
	var patches []*bridge.PatchScheduleRequest
	svc := &fakeScheduleService{
		patchFn: func(ctx context.Context, req *bridge.PatchScheduleRequest) error {
			patches = append(patches, req)
			return nil
		},
	}
	h := clientForTest(svc).ScheduleClient().GetHandle("nightly-report")

	require.NoError(t, h.Pause(context.Background(), "maintenance"))
	require.NoError(t, h.Unpause(context.Background(), ""))
	require.NoError(t, h.Trigger(context.Background(), bridge.ScheduleOverlapPolicyAllowAll))
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.Backfill(context.Background(), start, start.Add(24*time.Hour), bridge.ScheduleOverlapPolicyBufferAll))

	require.Len(t, patches, 4)
	assert.Equal(t, "maintenance", patches[0].Pause)
	assert.NotEmpty(t, patches[1].Unpause)
	require.NotNil(t, patches[2].TriggerImmediately)
	assert.Equal(t, bridge.ScheduleOverlapPolicyAllowAll, *patches[2].TriggerImmediately)
	assert.Equal(t, start, patches[3].BackfillStart)
}

func TestScheduleBackfillRejectsInvertedRange(t *testing.T) {
	h := clientForTest(&fakeScheduleService{}).ScheduleClient().GetHandle("s")
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	err := h.Backfill(context.Background(), now, now.Add(-time.Hour), bridge.ScheduleOverlapPolicySkip)
	var invalid *temporal.InvalidOperationError
	require.ErrorAs(t, err, &invalid)
}

func TestNextScheduleActionTimes(t *testing.T) {
	spec := &bridge.ScheduleSpec{CronExpressions: []string{"0 * * * *"}}
	from := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	times, err := NextScheduleActionTimes(spec, from, 3)
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), times[1])
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), times[2])
}

func TestNextScheduleActionTimesMergesExpressions(t *testing.T) {
	spec := &bridge.ScheduleSpec{CronExpressions: []string{"0 6 * * *", "30 6 * * *"}}
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	times, err := NextScheduleActionTimes(spec, from, 3)
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC), times[1])
	assert.Equal(t, time.Date(2024, 5, 2, 6, 0, 0, 0, time.UTC), times[2])
}

func TestNextScheduleActionTimesRespectsEndAt(t *testing.T) {
	spec := &bridge.ScheduleSpec{
		CronExpressions: []string{"0 * * * *"},
		EndAt:           time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	from := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	times, err := NextScheduleActionTimes(spec, from, 10)
	require.NoError(t, err)
	assert.Len(t, times, 2)
}
