// Package activity holds the primitives activity code is written against:
// execution info, heartbeating, and the async-completion sentinel.
package activity

import (
	"context"

	"go.flowcore.dev/sdk/internal"
)

type (
	// Info holds read-only facts about the running activity invocation.
	Info = internal.ActivityInfo
)

// ErrResultPending is returned from an activity to indicate that its
// result will be reported later through the client's async-completion
// surface. The worker emits no completion for the task; the task token
// from GetInfo is the handle the eventual completer needs.
var ErrResultPending = internal.ErrActivityResultPending

// GetInfo returns the running activity's Info.
func GetInfo(ctx context.Context) Info { return internal.GetActivityInfo(ctx) }

// RecordHeartbeat reports liveness and optional progress details.
// Heartbeats are coalesced to the worker's configured interval; the
// context is cancelled if the server has requested cancellation.
func RecordHeartbeat(ctx context.Context, details ...interface{}) {
	_ = internal.RecordActivityHeartbeat(ctx, details...)
}

// HasHeartbeatDetails reports whether a prior attempt recorded progress
// this attempt can resume from.
func HasHeartbeatDetails(ctx context.Context) bool {
	return internal.GetActivityInfo(ctx).HasHeartbeatDetails()
}

// GetHeartbeatDetails decodes the heartbeat details recorded by a prior
// attempt into valuePtrs.
func GetHeartbeatDetails(ctx context.Context, valuePtrs ...interface{}) error {
	return internal.GetHeartbeatDetails(ctx, valuePtrs...)
}
