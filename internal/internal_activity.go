package internal

import (
	"context"
	"fmt"
	"time"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
)

// ActivityInfo exposes read-only facts about the running activity
// invocation to activity code, via GetActivityInfo.
type ActivityInfo struct {
	TaskToken              []byte
	WorkflowExecution      bridge.WorkflowExecution
	WorkflowType           string
	ActivityType           string
	ActivityID             string
	Attempt                int32
	ScheduleToCloseTimeout time.Duration
	StartToCloseTimeout    time.Duration
	HeartbeatTimeout       time.Duration
	HeartbeatDetails       []*bridge.Payload
	RetryPolicy            *bridge.RetryPolicy
}

// HasHeartbeatDetails reports whether a prior attempt recorded a heartbeat
// this attempt can resume from.
func (i ActivityInfo) HasHeartbeatDetails() bool { return len(i.HeartbeatDetails) > 0 }

type activityEnvironment struct {
	info          ActivityInfo
	dataConverter converter.DataConverter
	heartbeatFn   func(details ...interface{}) error
}

type activityEnvKeyType struct{}

var activityEnvKey = activityEnvKeyType{}

// WithActivityEnvironment attaches env to ctx, making GetActivityInfo and
// RecordActivityHeartbeat resolvable from activity code.
func WithActivityEnvironment(ctx context.Context, env *activityEnvironment) context.Context {
	return context.WithValue(ctx, activityEnvKey, env)
}

func getActivityEnvironment(ctx context.Context) *activityEnvironment {
	env, _ := ctx.Value(activityEnvKey).(*activityEnvironment)
	if env == nil {
		panic("internal: activity primitive called from a Context with no activity environment")
	}
	return env
}

// GetActivityInfo returns the running activity's ActivityInfo.
func GetActivityInfo(ctx context.Context) ActivityInfo {
	return getActivityEnvironment(ctx).info
}

// RecordActivityHeartbeat reports liveness and optional progress details to
// the server; ctx is cancelled if the server responds
// that cancellation has been requested.
func RecordActivityHeartbeat(ctx context.Context, details ...interface{}) error {
	env := getActivityEnvironment(ctx)
	if env.heartbeatFn == nil {
		return nil
	}
	return env.heartbeatFn(details...)
}

// GetHeartbeatDetails decodes the heartbeat details recorded by a prior
// attempt into valuePtr, for an activity resuming partial progress.
func GetHeartbeatDetails(ctx context.Context, valuePtr ...interface{}) error {
	env := getActivityEnvironment(ctx)
	if !env.info.HasHeartbeatDetails() {
		return fmt.Errorf("internal: no heartbeat details recorded for this activity")
	}
	for i, vp := range valuePtr {
		if i >= len(env.info.HeartbeatDetails) {
			break
		}
		if err := env.dataConverter.FromPayloads([]*bridge.Payload{env.info.HeartbeatDetails[i]}, vp); err != nil {
			return err
		}
	}
	return nil
}
