package bridge

import "context"

// ActivityTask is one server-issued unit of activity work.
type ActivityTask struct {
	TaskToken         []byte
	WorkflowExecution WorkflowExecution
	WorkflowType      string
	ActivityType      string
	ActivityID        string
	Input             []*Payload
	Headers           Header
	HeartbeatDetails  []*Payload

	// Timeouts are carried in nanoseconds.
	ScheduleToCloseTimeout, StartToCloseTimeout, HeartbeatTimeout int64

	Attempt     int32
	RetryPolicy *RetryPolicy
}

// ActivityTaskCompletion reports the outcome of one activity task.
type ActivityTaskCompletion struct {
	TaskToken []byte
	Completed *Payload
	Failed    *Failure
	Cancelled *Failure
}

// HeartbeatResponse is returned from a heartbeat record call; CancelRequested
// flips the activity's cancellation token.
type HeartbeatResponse struct {
	CancelRequested bool
}

// BridgeWorker abstracts the native/server-facing half of the worker
// runtime. It is the only point where the core touches
// anything resembling I/O; every method is safe to fake in-memory for
// tests (see bridge.NewDirectBridge).
type BridgeWorker interface {
	PollWorkflowActivation(ctx context.Context) (*Activation, error)
	CompleteWorkflowActivation(ctx context.Context, completion *Completion) error

	PollActivityTask(ctx context.Context) (*ActivityTask, error)
	CompleteActivityTask(ctx context.Context, completion *ActivityTaskCompletion) error
	RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details []*Payload) (*HeartbeatResponse, error)

	InitiateShutdown()
	FinalizeShutdown(ctx context.Context) error
}

// ErrBridgeShutdown is returned by poll methods once shutdown has been
// initiated and drained.
var ErrBridgeShutdown = bridgeShutdownError{}

type bridgeShutdownError struct{}

func (bridgeShutdownError) Error() string { return "bridge: worker is shutting down" }
