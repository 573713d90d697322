package bridge

// Failure is the recursive structured-error record exchanged over the
// bridge.
type Failure struct {
	Message            string
	Source             string
	StackTrace         string
	EncodedAttributes  *Payload
	Info               FailureInfo
	Cause              *Failure
}

// FailureInfo is the tagged union of failure kinds.
type FailureInfo interface{ isFailureInfo() }

type ApplicationFailureInfo struct {
	Type            string
	NonRetryable    bool
	Details         []*Payload
	NextRetryDelay  *int64 // nanoseconds, nil if unset
}

func (ApplicationFailureInfo) isFailureInfo() {}

type CancelledFailureInfo struct{ Details []*Payload }

func (CancelledFailureInfo) isFailureInfo() {}

type TerminatedFailureInfo struct{}

func (TerminatedFailureInfo) isFailureInfo() {}

type TimeoutType int

const (
	TimeoutTypeUnspecified TimeoutType = iota
	TimeoutTypeStartToClose
	TimeoutTypeScheduleToStart
	TimeoutTypeScheduleToClose
	TimeoutTypeHeartbeat
)

type TimeoutFailureInfo struct {
	TimeoutType          TimeoutType
	LastHeartbeatDetails []*Payload
}

func (TimeoutFailureInfo) isFailureInfo() {}

type ServerFailureInfo struct{ NonRetryable bool }

func (ServerFailureInfo) isFailureInfo() {}

// RetryState explains why the server stopped retrying an activity or child
// workflow (ActivityError/ChildWorkflowExecution retry_state).
type RetryState int

const (
	RetryStateUnspecified RetryState = iota
	RetryStateInProgress
	RetryStateExhausted
	RetryStateNonRetryableFailure
	RetryStateTimeout
	RetryStateCancelRequested
	RetryStateInternalServerError
)

type ActivityFailureInfo struct {
	ScheduledEventID int64
	StartedEventID   int64
	Identity         string
	ActivityType     string
	ActivityID       string
	RetryState       RetryState
}

func (ActivityFailureInfo) isFailureInfo() {}

type ChildWorkflowExecutionFailureInfo struct {
	Namespace    string
	WorkflowID   string
	RunID        string
	WorkflowName string
	RetryState   RetryState
}

func (ChildWorkflowExecutionFailureInfo) isFailureInfo() {}

// NexusHandlerErrorType classifies a nexus handler failure.
type NexusHandlerErrorType int

const (
	NexusHandlerErrorUnspecified NexusHandlerErrorType = iota
	NexusHandlerErrorBadRequest
	NexusHandlerErrorUnauthenticated
	NexusHandlerErrorUnauthorized
	NexusHandlerErrorNotFound
	NexusHandlerErrorResourceExhausted
	NexusHandlerErrorInternal
	NexusHandlerErrorNotImplemented
	NexusHandlerErrorUnavailable
	NexusHandlerErrorUpstreamTimeout
)

type NexusOperationFailureInfo struct {
	Endpoint      string
	Service       string
	Operation     string
	OperationToken string
}

func (NexusOperationFailureInfo) isFailureInfo() {}

type NexusHandlerFailureInfo struct {
	Type         NexusHandlerErrorType
	RetryBehavior int
}

func (NexusHandlerFailureInfo) isFailureInfo() {}
