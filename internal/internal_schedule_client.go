package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/pborman/uuid"
	"github.com/robfig/cron"

	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/paginate"
	"go.flowcore.dev/sdk/temporal"
)

// validateCronSchedule rejects a cron expression the server would refuse,
// before the start request is sent.
func validateCronSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

// NextScheduleActionTimes computes the next n fire times of a schedule
// spec's cron expressions after from, merged and sorted. Interval and
// calendar components are evaluated server-side; this mirrors only the
// cron component for client-side preview and validation.
func NextScheduleActionTimes(spec *bridge.ScheduleSpec, from time.Time, n int) ([]time.Time, error) {
	if spec == nil || n <= 0 {
		return nil, nil
	}
	schedules := make([]cron.Schedule, 0, len(spec.CronExpressions))
	for _, expr := range spec.CronExpressions {
		s, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
		}
		schedules = append(schedules, s)
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	cursors := make([]time.Time, len(schedules))
	for i, s := range schedules {
		cursors[i] = s.Next(from)
	}
	var out []time.Time
	for len(out) < n {
		earliest := -1
		for i, t := range cursors {
			if t.IsZero() {
				continue
			}
			if earliest < 0 || t.Before(cursors[earliest]) {
				earliest = i
			}
		}
		if earliest < 0 {
			break
		}
		next := cursors[earliest]
		if !spec.EndAt.IsZero() && next.After(spec.EndAt) {
			break
		}
		if len(out) == 0 || !next.Equal(out[len(out)-1]) {
			out = append(out, next)
		}
		cursors[earliest] = schedules[earliest].Next(next)
	}
	return out, nil
}

func validateScheduleSpec(spec *bridge.ScheduleSpec) error {
	if spec == nil {
		return &temporal.InvalidOperationError{Message: "schedule spec is required"}
	}
	for _, expr := range spec.CronExpressions {
		if _, err := cron.ParseStandard(expr); err != nil {
			return &temporal.InvalidOperationError{Message: fmt.Sprintf("invalid cron expression %q: %v", expr, err)}
		}
	}
	for _, iv := range spec.Intervals {
		if iv.Every <= 0 {
			return &temporal.InvalidOperationError{Message: "interval spec requires a positive Every"}
		}
		if iv.Offset < 0 || iv.Offset >= iv.Every {
			return &temporal.InvalidOperationError{Message: "interval spec Offset must be in [0, Every)"}
		}
	}
	if spec.TimeZoneName != "" {
		if _, err := time.LoadLocation(spec.TimeZoneName); err != nil {
			return &temporal.InvalidOperationError{Message: fmt.Sprintf("invalid time zone %q", spec.TimeZoneName)}
		}
	}
	return nil
}

type scheduleClient struct {
	client *workflowClient
}

func (wc *workflowClient) ScheduleClient() ScheduleClient {
	return &scheduleClient{client: wc}
}

func (sc *scheduleClient) Create(ctx context.Context, options ScheduleOptions) (ScheduleHandle, error) {
	wc := sc.client
	if options.ID == "" {
		return nil, &temporal.InvalidOperationError{Message: "schedule ID is required"}
	}
	if options.Action == nil || options.Action.StartWorkflow == nil {
		return nil, &temporal.InvalidOperationError{Message: "schedule action is required"}
	}
	if err := validateScheduleSpec(&options.Spec); err != nil {
		return nil, err
	}

	memo, err := wc.encodeMap(options.Memo)
	if err != nil {
		return nil, err
	}
	searchAttrs, err := wc.encodeMap(options.SearchAttributes)
	if err != nil {
		return nil, err
	}

	spec := options.Spec
	req := &bridge.CreateScheduleRequest{
		Namespace:  wc.namespace,
		ScheduleID: options.ID,
		Schedule: &bridge.Schedule{
			Spec:   &spec,
			Action: options.Action,
			Policies: &bridge.SchedulePolicies{
				Overlap:        options.Overlap,
				CatchupWindow:  options.CatchupWindow,
				PauseOnFailure: options.PauseOnFailure,
			},
			State: &bridge.ScheduleState{
				Note:   options.Note,
				Paused: options.Paused,
			},
		},
		Identity:         wc.identity,
		RequestID:        uuid.New(),
		Memo:             memo,
		SearchAttributes: searchAttrs,
	}
	if options.TriggerImmediately {
		overlap := options.Overlap
		req.InitialPatch = &bridge.PatchScheduleRequest{TriggerImmediately: &overlap}
	}

	err = wc.invokeService(ctx, func(ctx context.Context) error {
		_, err := wc.service.CreateSchedule(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &scheduleHandle{client: wc, scheduleID: options.ID}, nil
}

func (sc *scheduleClient) GetHandle(scheduleID string) ScheduleHandle {
	return &scheduleHandle{client: sc.client, scheduleID: scheduleID}
}

func (sc *scheduleClient) List(ctx context.Context) ScheduleListIterator {
	wc := sc.client
	return paginate.NewIterator(ctx, func(ctx context.Context, token []byte) ([]*bridge.ScheduleListEntry, []byte, error) {
		var resp *bridge.ListSchedulesResponse
		err := wc.invokeService(ctx, func(ctx context.Context) error {
			var err error
			resp, err = wc.service.ListSchedules(ctx, &bridge.ListSchedulesRequest{
				Namespace:     wc.namespace,
				PageSize:      defaultListPageSize,
				NextPageToken: token,
			})
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		return resp.Schedules, resp.NextPageToken, nil
	})
}

type scheduleHandle struct {
	client     *workflowClient
	scheduleID string
}

func (h *scheduleHandle) GetID() string { return h.scheduleID }

func (h *scheduleHandle) Describe(ctx context.Context) (*bridge.DescribeScheduleResponse, error) {
	var resp *bridge.DescribeScheduleResponse
	err := h.client.invokeService(ctx, func(ctx context.Context) error {
		var err error
		resp, err = h.client.service.DescribeSchedule(ctx, &bridge.DescribeScheduleRequest{
			Namespace: h.client.namespace, ScheduleID: h.scheduleID,
		})
		return err
	})
	return resp, err
}

func (h *scheduleHandle) Update(ctx context.Context, options ScheduleUpdateOptions) error {
	if options.Schedule == nil {
		return &temporal.InvalidOperationError{Message: "replacement schedule is required"}
	}
	if err := validateScheduleSpec(options.Schedule.Spec); err != nil {
		return err
	}
	return h.client.invokeService(ctx, func(ctx context.Context) error {
		return h.client.service.UpdateSchedule(ctx, &bridge.UpdateScheduleRequest{
			Namespace:     h.client.namespace,
			ScheduleID:    h.scheduleID,
			Schedule:      options.Schedule,
			ConflictToken: options.ConflictToken,
			Identity:      h.client.identity,
			RequestID:     uuid.New(),
		})
	})
}

func (h *scheduleHandle) Trigger(ctx context.Context, overlap bridge.ScheduleOverlapPolicy) error {
	return h.client.invokeService(ctx, func(ctx context.Context) error {
		return h.client.service.PatchSchedule(ctx, &bridge.PatchScheduleRequest{
			Namespace:          h.client.namespace,
			ScheduleID:         h.scheduleID,
			TriggerImmediately: &overlap,
		})
	})
}

func (h *scheduleHandle) Backfill(ctx context.Context, start, end time.Time, overlap bridge.ScheduleOverlapPolicy) error {
	if !end.After(start) {
		return &temporal.InvalidOperationError{Message: "backfill end must be after start"}
	}
	return h.client.invokeService(ctx, func(ctx context.Context) error {
		return h.client.service.PatchSchedule(ctx, &bridge.PatchScheduleRequest{
			Namespace:       h.client.namespace,
			ScheduleID:      h.scheduleID,
			BackfillStart:   start,
			BackfillEnd:     end,
			BackfillOverlap: overlap,
		})
	})
}

func (h *scheduleHandle) Pause(ctx context.Context, note string) error {
	if note == "" {
		note = "paused via client"
	}
	return h.client.invokeService(ctx, func(ctx context.Context) error {
		return h.client.service.PatchSchedule(ctx, &bridge.PatchScheduleRequest{
			Namespace: h.client.namespace, ScheduleID: h.scheduleID, Pause: note,
		})
	})
}

func (h *scheduleHandle) Unpause(ctx context.Context, note string) error {
	if note == "" {
		note = "unpaused via client"
	}
	return h.client.invokeService(ctx, func(ctx context.Context) error {
		return h.client.service.PatchSchedule(ctx, &bridge.PatchScheduleRequest{
			Namespace: h.client.namespace, ScheduleID: h.scheduleID, Unpause: note,
		})
	})
}

func (h *scheduleHandle) Delete(ctx context.Context) error {
	return h.client.invokeService(ctx, func(ctx context.Context) error {
		return h.client.service.DeleteSchedule(ctx, &bridge.DeleteScheduleRequest{
			Namespace: h.client.namespace, ScheduleID: h.scheduleID, Identity: h.client.identity,
		})
	})
}
