package internal

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/temporal"
)

func payload(t *testing.T, v interface{}) *bridge.Payload {
	t.Helper()
	payloads, err := converter.DefaultDataConverter.ToPayloads(v)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	return payloads[0]
}

func decodePayload(t *testing.T, p *bridge.Payload, ptr interface{}) {
	t.Helper()
	require.NoError(t, converter.DefaultDataConverter.FromPayloads([]*bridge.Payload{p}, ptr))
}

func testEnv(t *testing.T, workflowType string, fn interface{}) *workflowEnvironment {
	t.Helper()
	RegisterWorkflowWithOptions(fn, RegisterWorkflowOptions{Name: workflowType})
	env, err := newWorkflowEnvironment(bridge.InitializeWorkflowJob{
		WorkflowType: workflowType,
		WorkflowID:   "wid-" + workflowType,
		RandomSeed:   42,
	}, "run-"+workflowType, nil, nil, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(env.evict)
	return env
}

func activation(jobs ...bridge.Job) *bridge.Activation {
	return &bridge.Activation{
		Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Jobs:      jobs,
	}
}

func apply(t *testing.T, env *workflowEnvironment, jobs ...bridge.Job) []bridge.Command {
	t.Helper()
	completion, _ := env.applyActivation(activation(jobs...))
	require.NotNil(t, completion.Successful, "expected successful completion")
	return completion.Successful.Commands
}

func commandTypes(commands []bridge.Command) []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = reflect.TypeOf(c).Name()
	}
	return out
}

func TestActivityResolveCompletesWorkflow(t *testing.T) {
	env := testEnv(t, "Retrying", func(ctx Context) (string, error) {
		var result string
		err := ExecuteActivity(ctx, "Flaky").Get(ctx, &result)
		if err != nil {
			return "", err
		}
		return result, nil
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	schedule, ok := commands[0].(bridge.ScheduleActivityCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, uint32(1), schedule.Seq)
	assert.Equal(t, "Flaky", schedule.Type)

	commands = apply(t, env, bridge.ResolveActivityJob{
		Seq:    1,
		Result: bridge.ActivityResolution{Completed: payload(t, "ok")},
	})
	require.Len(t, commands, 1)
	complete, ok := commands[0].(bridge.CompleteWorkflowCommand)
	require.True(t, ok, "got %T", commands[0])
	var result string
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, "ok", result)
}

func TestNonRetryableActivityFailureFailsWorkflow(t *testing.T) {
	env := testEnv(t, "RetryingNonRetryable", func(ctx Context) (string, error) {
		var result string
		err := ExecuteActivity(ctx, "Flaky").Get(ctx, &result)
		if err != nil {
			return "", err
		}
		return result, nil
	})

	apply(t, env)

	failure := &bridge.Failure{
		Message: "activity failed",
		Info: bridge.ActivityFailureInfo{
			ActivityType: "Flaky",
			ActivityID:   "1",
			RetryState:   bridge.RetryStateNonRetryableFailure,
		},
		Cause: &bridge.Failure{
			Message: "bad input",
			Info:    bridge.ApplicationFailureInfo{Type: "InvalidInput", NonRetryable: true},
		},
	}
	commands := apply(t, env, bridge.ResolveActivityJob{
		Seq:    1,
		Result: bridge.ActivityResolution{Failed: failure},
	})
	require.Len(t, commands, 1)
	fail, ok := commands[0].(bridge.FailWorkflowCommand)
	require.True(t, ok, "got %T", commands[0])

	info, ok := fail.Failure.Info.(bridge.ActivityFailureInfo)
	require.True(t, ok, "got %T", fail.Failure.Info)
	assert.Equal(t, bridge.RetryStateNonRetryableFailure, info.RetryState)
	cause, ok := fail.Failure.Cause.Info.(bridge.ApplicationFailureInfo)
	require.True(t, ok)
	assert.Equal(t, "InvalidInput", cause.Type)
	assert.True(t, cause.NonRetryable)
}

func TestSagaCompensationCommandOrder(t *testing.T) {
	env := testEnv(t, "BookTrip", func(ctx Context) error {
		if err := ExecuteActivity(ctx, "reserve_flight").Get(ctx, nil); err != nil {
			return err
		}
		if err := ExecuteActivity(ctx, "reserve_hotel").Get(ctx, nil); err != nil {
			return err
		}
		if err := ExecuteActivity(ctx, "charge").Get(ctx, nil); err != nil {
			_ = ExecuteActivity(ctx, "cancel_hotel").Get(ctx, nil)
			_ = ExecuteActivity(ctx, "cancel_flight").Get(ctx, nil)
			return temporal.NewApplicationError("booking failed", "BookingFailed", true, err)
		}
		return nil
	})

	resolveOK := func(seq uint32) bridge.Job {
		return bridge.ResolveActivityJob{Seq: seq, Result: bridge.ActivityResolution{Completed: payload(t, "done")}}
	}

	var trace []string
	record := func(commands []bridge.Command) {
		for _, c := range commands {
			switch cmd := c.(type) {
			case bridge.ScheduleActivityCommand:
				trace = append(trace, "schedule:"+cmd.Type)
			case bridge.FailWorkflowCommand:
				trace = append(trace, "fail_workflow")
			default:
				trace = append(trace, reflect.TypeOf(c).Name())
			}
		}
	}

	record(apply(t, env))
	record(apply(t, env, resolveOK(1)))
	record(apply(t, env, resolveOK(2)))
	record(apply(t, env, bridge.ResolveActivityJob{Seq: 3, Result: bridge.ActivityResolution{Failed: &bridge.Failure{
		Message: "card declined",
		Info:    bridge.ApplicationFailureInfo{Type: "PaymentDeclined", NonRetryable: true},
	}}}))
	record(apply(t, env, resolveOK(4)))
	record(apply(t, env, resolveOK(5)))

	assert.Equal(t, []string{
		"schedule:reserve_flight",
		"schedule:reserve_hotel",
		"schedule:charge",
		"schedule:cancel_hotel",
		"schedule:cancel_flight",
		"fail_workflow",
	}, trace)
}

func TestSignalConditionQuery(t *testing.T) {
	env := testEnv(t, "Counting", func(ctx Context) (int, error) {
		count := 0
		if err := SetQueryHandler(ctx, "get_count", func() (int, error) { return count, nil }); err != nil {
			return 0, err
		}
		Go(ctx, func(ctx Context) {
			ch := GetSignalChannel(ctx, "increment")
			for {
				var discard interface{}
				if more := ch.Receive(ctx, &discard); !more {
					return
				}
				count++
			}
		})
		if err := Await(ctx, func() bool { return count >= 3 }); err != nil {
			return 0, err
		}
		return count, nil
	})

	commands := apply(t, env)
	assert.Empty(t, commands)

	signal := func() bridge.Job {
		return bridge.SignalWorkflowJob{SignalName: "increment", Input: []*bridge.Payload{payload(t, 1)}}
	}
	commands = apply(t, env, signal(), signal())
	assert.Empty(t, commands)

	commands = apply(t, env, signal(), bridge.QueryWorkflowJob{QueryID: "q1", Name: "get_count"})
	require.Len(t, commands, 2)

	query, ok := commands[0].(bridge.RespondToQueryCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "q1", query.QueryID)
	var count int
	decodePayload(t, query.Result, &count)
	assert.Equal(t, 3, count)

	complete, ok := commands[1].(bridge.CompleteWorkflowCommand)
	require.True(t, ok, "got %T", commands[1])
	var result int
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, 3, result)
}

func TestSignalsBufferedBeforeHandlerFIFO(t *testing.T) {
	env := testEnv(t, "LateHandler", func(ctx Context) ([]string, error) {
		// Wait one timer before registering the signal channel, so the
		// first activation's signals must be buffered.
		if err := Sleep(ctx, time.Minute); err != nil {
			return nil, err
		}
		ch := GetSignalChannel(ctx, "names")
		var got []string
		for len(got) < 3 {
			var name string
			ch.Receive(ctx, &name)
			got = append(got, name)
		}
		return got, nil
	})

	apply(t, env)
	signal := func(name string) bridge.Job {
		return bridge.SignalWorkflowJob{SignalName: "names", Input: []*bridge.Payload{payload(t, name)}}
	}
	apply(t, env, signal("a"), signal("b"), signal("c"))

	commands := apply(t, env, bridge.FireTimerJob{Seq: 1})
	require.Len(t, commands, 1)
	complete, ok := commands[0].(bridge.CompleteWorkflowCommand)
	require.True(t, ok, "got %T", commands[0])
	var got []string
	decodePayload(t, complete.Result, &got)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueryHandlerMustNotEmitCommands(t *testing.T) {
	env := testEnv(t, "NaughtyQuery", func(ctx Context) error {
		if err := SetQueryHandler(ctx, "naughty", func() (string, error) {
			env := getWorkflowEnvironment(ctx)
			env.startTimer(time.Second, func(interface{}, error) {})
			return "oops", nil
		}); err != nil {
			return err
		}
		return Await(ctx, func() bool { return false })
	})

	apply(t, env)
	commands := apply(t, env, bridge.QueryWorkflowJob{QueryID: "q1", Name: "naughty"})
	require.Len(t, commands, 1)
	query, ok := commands[0].(bridge.RespondToQueryCommand)
	require.True(t, ok, "got %T", commands[0])
	require.NotNil(t, query.Failure, "query emitting commands must be reported failed")
	assert.Contains(t, query.Failure.Message, "must not emit commands")
}

func TestUpdateValidatorRejects(t *testing.T) {
	env := testEnv(t, "UpdatableRejecting", func(ctx Context) error {
		if err := SetUpdateHandlerWithOptions(ctx, "set_value",
			func(ctx Context, v int) (int, error) { return v, nil },
			UpdateHandlerOptions{Validator: func(ctx Context, v int) error {
				if v < 0 {
					return errors.New("value must be non-negative")
				}
				return nil
			}},
		); err != nil {
			return err
		}
		return Await(ctx, func() bool { return false })
	})

	apply(t, env)
	commands := apply(t, env, bridge.DoUpdateJob{ID: "u1", Name: "set_value", Input: []*bridge.Payload{payload(t, -5)}})
	require.Len(t, commands, 1)
	resp, ok := commands[0].(bridge.UpdateResponseCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "u1", resp.ID)
	assert.False(t, resp.Accepted)
	require.NotNil(t, resp.Rejected)
	assert.Contains(t, resp.Rejected.Message, "non-negative")
}

func TestUpdateAcceptedThenCompleted(t *testing.T) {
	env := testEnv(t, "UpdatableAccepting", func(ctx Context) error {
		if err := SetUpdateHandler(ctx, "double", func(ctx Context, v int) (int, error) {
			return v * 2, nil
		}); err != nil {
			return err
		}
		return Await(ctx, func() bool { return false })
	})

	apply(t, env)
	commands := apply(t, env, bridge.DoUpdateJob{ID: "u1", Name: "double", Input: []*bridge.Payload{payload(t, 21)}})
	require.Len(t, commands, 2)

	accepted, ok := commands[0].(bridge.UpdateResponseCommand)
	require.True(t, ok)
	assert.True(t, accepted.Accepted)

	completed, ok := commands[1].(bridge.UpdateResponseCommand)
	require.True(t, ok)
	require.NotNil(t, completed.Completed)
	var result int
	decodePayload(t, completed.Completed, &result)
	assert.Equal(t, 42, result)
}

func TestPatchingMarkersAndReplay(t *testing.T) {
	newFn := func(ctx Context) (string, error) {
		if GetVersion(ctx, "my-change", DefaultVersion, 1) == 1 {
			return "new", nil
		}
		return "old", nil
	}

	// Live execution records the marker and takes the new path.
	live := testEnv(t, "PatchedLive", newFn)
	commands := apply(t, live)
	require.Len(t, commands, 2)
	marker, ok := commands[0].(bridge.SetPatchMarkerCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "my-change", marker.PatchID)
	assert.False(t, marker.Deprecated)
	complete := commands[1].(bridge.CompleteWorkflowCommand)
	var result string
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, "new", result)

	// Replay with the patch recorded takes the new path, no new marker.
	replayed := testEnv(t, "PatchedReplayed", newFn)
	completion, _ := replayed.applyActivation(&bridge.Activation{
		Timestamp:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		IsReplaying: true,
		Jobs:        []bridge.Job{bridge.NotifyHasPatchJob{PatchID: "my-change"}},
	})
	require.NotNil(t, completion.Successful)
	require.Len(t, completion.Successful.Commands, 1)
	complete = completion.Successful.Commands[0].(bridge.CompleteWorkflowCommand)
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, "new", result)

	// Replay without the patch recorded takes the old path.
	old := testEnv(t, "PatchedOldReplay", newFn)
	completion, _ = old.applyActivation(&bridge.Activation{
		Timestamp:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		IsReplaying: true,
		Jobs:        []bridge.Job{},
	})
	require.NotNil(t, completion.Successful)
	require.Len(t, completion.Successful.Commands, 1)
	complete = completion.Successful.Commands[0].(bridge.CompleteWorkflowCommand)
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, "old", result)
}

func TestCancelWorkflowDuringTimerWait(t *testing.T) {
	env := testEnv(t, "LongSleeper", func(ctx Context) error {
		return Sleep(ctx, time.Hour)
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	_, ok := commands[0].(bridge.StartTimerCommand)
	require.True(t, ok, "got %T", commands[0])

	commands = apply(t, env, bridge.CancelWorkflowJob{Reason: "admin"})
	types := commandTypes(commands)
	assert.Equal(t, []string{"CancelTimerCommand", "CancelWorkflowCommand"}, types)
}

func TestContinueAsNewEmitsCommand(t *testing.T) {
	env := testEnv(t, "Chaining", func(ctx Context) error {
		return NewContinueAsNewError(ctx, "", "next-input")
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	can, ok := commands[0].(bridge.ContinueAsNewCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "Chaining", can.WorkflowType)
	require.Len(t, can.Input, 1)
	var input string
	decodePayload(t, can.Input[0], &input)
	assert.Equal(t, "next-input", input)
}

func TestSequenceNumbersStrictlyIncreaseAcrossActivations(t *testing.T) {
	env := testEnv(t, "ManyTimers", func(ctx Context) error {
		for i := 0; i < 3; i++ {
			if err := Sleep(ctx, time.Minute); err != nil {
				return err
			}
		}
		return nil
	})

	var seqs []uint32
	commands := apply(t, env)
	for _, c := range commands {
		seqs = append(seqs, c.(bridge.StartTimerCommand).Seq)
	}
	for fire := uint32(1); fire <= 2; fire++ {
		commands = apply(t, env, bridge.FireTimerJob{Seq: fire})
		for _, c := range commands {
			if timer, ok := c.(bridge.StartTimerCommand); ok {
				seqs = append(seqs, timer.Seq)
			}
		}
	}
	require.Len(t, seqs, 3)
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1])
	}
}

func TestDeterministicReplayProducesIdenticalCompletions(t *testing.T) {
	fn := func(ctx Context) (string, error) {
		var result string
		if err := ExecuteActivity(ctx, "step").Get(ctx, &result); err != nil {
			return "", err
		}
		if err := Sleep(ctx, time.Minute); err != nil {
			return "", err
		}
		return result, nil
	}
	RegisterWorkflowWithOptions(fn, RegisterWorkflowOptions{Name: "Replayable"})

	run := func() []*bridge.Completion {
		env, err := newWorkflowEnvironment(bridge.InitializeWorkflowJob{
			WorkflowType: "Replayable", WorkflowID: "wid-replay", RandomSeed: 7,
		}, "run-replay", nil, nil, zap.NewNop(), nil)
		require.NoError(t, err)
		defer env.evict()

		var completions []*bridge.Completion
		c, _ := env.applyActivation(activation())
		completions = append(completions, c)
		c, _ = env.applyActivation(activation(bridge.ResolveActivityJob{
			Seq: 1, Result: bridge.ActivityResolution{Completed: payload(t, "computed")},
		}))
		completions = append(completions, c)
		c, _ = env.applyActivation(activation(bridge.FireTimerJob{Seq: 2}))
		completions = append(completions, c)
		return completions
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Successful.Commands, second[i].Successful.Commands, "activation %d diverged", i)
	}
}

func TestSideEffectRecordsOnceAndReplays(t *testing.T) {
	calls := 0
	env := testEnv(t, "SideEffecting", func(ctx Context) (int, error) {
		var v int
		if err := SideEffect(ctx, func(ctx Context) (interface{}, error) {
			calls++
			return 10 * calls, nil
		}).Get(&v); err != nil {
			return 0, err
		}
		if err := Sleep(ctx, time.Minute); err != nil {
			return 0, err
		}
		return v, nil
	})

	apply(t, env)
	assert.Equal(t, 1, calls)

	commands := apply(t, env, bridge.FireTimerJob{Seq: 1})
	require.Len(t, commands, 1)
	complete := commands[0].(bridge.CompleteWorkflowCommand)
	var result int
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, 10, result)
}

func TestRandomSeedIsDeterministicAndUpdatable(t *testing.T) {
	env := testEnv(t, "Seeded", func(ctx Context) error {
		return Await(ctx, func() bool { return false })
	})
	apply(t, env)

	first := env.rng.Int63()
	env.applyJob(bridge.UpdateRandomSeedJob{Value: 42})
	second := env.rng.Int63()
	env.applyJob(bridge.UpdateRandomSeedJob{Value: 42})
	third := env.rng.Int63()
	assert.Equal(t, second, third, "same seed must reproduce the same sequence")
	_ = first
}

func TestUpsertSearchAttributesAndMemo(t *testing.T) {
	env := testEnv(t, "Upserting", func(ctx Context) error {
		if err := UpsertSearchAttributes(ctx, map[string]interface{}{"CustomIntField": 7}); err != nil {
			return err
		}
		return UpsertMemo(ctx, map[string]interface{}{"note": "hello"})
	})

	commands := apply(t, env)
	types := commandTypes(commands)
	assert.Equal(t, []string{"UpsertSearchAttributesCommand", "ModifyWorkflowPropertiesCommand", "CompleteWorkflowCommand"}, types)
}

func TestWorkflowPanicBecomesFailWorkflow(t *testing.T) {
	env := testEnv(t, "Panicking", func(ctx Context) error {
		panic("boom")
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	fail, ok := commands[0].(bridge.FailWorkflowCommand)
	require.True(t, ok, "got %T", commands[0])
	info, ok := fail.Failure.Info.(bridge.ApplicationFailureInfo)
	require.True(t, ok)
	assert.Equal(t, "PanicError", info.Type)
	assert.True(t, info.NonRetryable)
}

func TestMutableSideEffectRecomputesButRecordsOnChange(t *testing.T) {
	counter := 0
	env := testEnv(t, "MutablySideEffecting", func(ctx Context) (int, error) {
		read := func() int {
			var v int
			values := MutableSideEffect(ctx, "counter", func(ctx Context) (interface{}, error) {
				return counter, nil
			}, func(a, b interface{}) bool { return a == b })
			if err := values.Get(&v); err != nil {
				panic(err)
			}
			return v
		}
		first := read()
		counter = 5
		second := read()
		if err := Sleep(ctx, time.Minute); err != nil {
			return 0, err
		}
		return first + second, nil
	})

	apply(t, env)
	commands := apply(t, env, bridge.FireTimerJob{Seq: 1})
	require.Len(t, commands, 1)
	complete := commands[0].(bridge.CompleteWorkflowCommand)
	var result int
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, 5, result)
}

func TestResolutionForUnknownSeqFailsActivation(t *testing.T) {
	env := testEnv(t, "DivergedReplay", func(ctx Context) error {
		return Sleep(ctx, time.Minute)
	})

	apply(t, env)

	completion, _ := env.applyActivation(activation(bridge.ResolveActivityJob{
		Seq:    99,
		Result: bridge.ActivityResolution{Completed: payload(t, "phantom")},
	}))
	require.NotNil(t, completion.Failed, "unknown sequence must fail the workflow task")
	assert.Contains(t, completion.Failed.Failure.Message, "unknown sequence")
}

func TestChildWorkflowStartAndResult(t *testing.T) {
	env := testEnv(t, "ParentOfChild", func(ctx Context) (string, error) {
		future := ExecuteChildWorkflow(ctx, "ChildWork", "input")

		var exec bridge.WorkflowExecution
		if err := future.GetChildWorkflowExecution().Get(ctx, &exec); err != nil {
			return "", err
		}
		if exec.RunID == "" {
			return "", errors.New("missing child run id")
		}

		var result string
		if err := future.Get(ctx, &result); err != nil {
			return "", err
		}
		return result, nil
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	start, ok := commands[0].(bridge.StartChildWorkflowCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "ChildWork", start.Type)

	commands = apply(t, env, bridge.ResolveChildWorkflowStartJob{
		Seq:    start.Seq,
		Result: bridge.ChildWorkflowStartResolution{Succeeded: &bridge.WorkflowExecution{WorkflowID: "child-wid", RunID: "child-run"}},
	})
	assert.Empty(t, commands)

	commands = apply(t, env, bridge.ResolveChildWorkflowJob{
		Seq:    start.Seq,
		Result: bridge.ChildWorkflowResolution{Completed: payload(t, "child-done")},
	})
	require.Len(t, commands, 1)
	complete := commands[0].(bridge.CompleteWorkflowCommand)
	var result string
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, "child-done", result)
}

func TestNexusOperationScheduleAndResolve(t *testing.T) {
	env := testEnv(t, "NexusCalling", func(ctx Context) (string, error) {
		nc := NewNexusClient("payments-endpoint", "billing")
		future := nc.ExecuteOperation(ctx, "charge", map[string]int{"cents": 100}, NexusOperationOptions{
			ScheduleToCloseTimeout: time.Minute,
		})

		var exec NexusOperationExecution
		if err := future.GetNexusOperationExecution().Get(ctx, &exec); err != nil {
			return "", err
		}
		var result string
		if err := future.Get(ctx, &result); err != nil {
			return "", err
		}
		return exec.OperationToken + ":" + result, nil
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	schedule, ok := commands[0].(bridge.ScheduleNexusOperationCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "payments-endpoint", schedule.Options.Endpoint)
	assert.Equal(t, "billing", schedule.Options.Service)
	assert.Equal(t, "charge", schedule.Options.Operation)

	token := "op-token-1"
	commands = apply(t, env, bridge.ResolveNexusOperationStartJob{
		Seq:    schedule.Seq,
		Result: bridge.NexusOperationStartResolution{Started: &token},
	})
	assert.Empty(t, commands)

	commands = apply(t, env, bridge.ResolveNexusOperationJob{
		Seq:    schedule.Seq,
		Result: bridge.NexusOperationResolution{Completed: payload(t, "charged")},
	})
	require.Len(t, commands, 1)
	complete := commands[0].(bridge.CompleteWorkflowCommand)
	var result string
	decodePayload(t, complete.Result, &result)
	assert.Equal(t, "op-token-1:charged", result)
}

func TestSignalExternalWorkflowResolution(t *testing.T) {
	env := testEnv(t, "ExternallySignalling", func(ctx Context) error {
		return SignalExternalWorkflow(ctx, "other-wid", "other-run", "poke", "hello").Get(ctx, nil)
	})

	commands := apply(t, env)
	require.Len(t, commands, 1)
	signal, ok := commands[0].(bridge.SignalExternalWorkflowCommand)
	require.True(t, ok, "got %T", commands[0])
	assert.Equal(t, "poke", signal.Name)
	assert.Equal(t, "other-wid", signal.Target.WorkflowID)

	commands = apply(t, env, bridge.ResolveSignalExternalJob{Seq: signal.Seq})
	require.Len(t, commands, 1)
	_, ok = commands[0].(bridge.CompleteWorkflowCommand)
	assert.True(t, ok)
}
