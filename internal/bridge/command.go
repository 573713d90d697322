package bridge

import "time"

// Command is the sum type of directives a completion hands back to the
// server.
type Command interface{ isCommand() }

type ActivityOptions struct {
	TaskQueue              string
	ScheduleToCloseTimeout time.Duration
	ScheduleToStartTimeout time.Duration
	StartToCloseTimeout    time.Duration
	HeartbeatTimeout       time.Duration
	RetryPolicy            *RetryPolicy
	CancellationType       CancellationType
	ActivityID             string
	DisableEagerExecution  bool
	VersioningIntent       VersioningIntent
	Priority               int32
	Summary                string
}

// CancellationType controls how pending activity/child-workflow cancellation
// is observed by the awaiting workflow code.
type CancellationType int

const (
	CancellationTypeTryCancel CancellationType = iota
	CancellationTypeWaitCancellationCompleted
	CancellationTypeAbandon
)

type VersioningIntent int

const (
	VersioningIntentUnspecified VersioningIntent = iota
	VersioningIntentDefault
	VersioningIntentCompatible
)

type StartTimerCommand struct {
	Seq      uint32
	Duration time.Duration
}

func (StartTimerCommand) isCommand() {}

type CancelTimerCommand struct{ Seq uint32 }

func (CancelTimerCommand) isCommand() {}

type ScheduleActivityCommand struct {
	Seq     uint32
	Type    string
	Input   []*Payload
	Options ActivityOptions
	Headers Header
}

func (ScheduleActivityCommand) isCommand() {}

type ScheduleLocalActivityCommand struct {
	Seq     uint32
	Type    string
	Input   []*Payload
	Options ActivityOptions
	Headers Header
}

func (ScheduleLocalActivityCommand) isCommand() {}

type RequestCancelActivityCommand struct{ Seq uint32 }

func (RequestCancelActivityCommand) isCommand() {}

type ChildWorkflowOptions struct {
	Namespace                string
	WorkflowID               string
	TaskQueue                string
	ExecutionTimeout         time.Duration
	RunTimeout               time.Duration
	TaskTimeout              time.Duration
	RetryPolicy              *RetryPolicy
	CronSchedule             string
	Memo                     map[string]*Payload
	SearchAttrs              map[string]*Payload
	ParentClosePolicy        ParentClosePolicy
	CancellationType         CancellationType
	WorkflowIDReusePolicy    WorkflowIDReusePolicy
}

type ParentClosePolicy int

const (
	ParentClosePolicyTerminate ParentClosePolicy = iota
	ParentClosePolicyAbandon
	ParentClosePolicyRequestCancel
)

type WorkflowIDReusePolicy int

const (
	WorkflowIDReusePolicyAllowDuplicateFailedOnly WorkflowIDReusePolicy = iota
	WorkflowIDReusePolicyAllowDuplicate
	WorkflowIDReusePolicyRejectDuplicate
	WorkflowIDReusePolicyTerminateIfRunning
)

type StartChildWorkflowCommand struct {
	Seq     uint32
	Type    string
	Input   []*Payload
	Options ChildWorkflowOptions
	Headers Header
}

func (StartChildWorkflowCommand) isCommand() {}

type CancelChildWorkflowCommand struct{ Seq uint32 }

func (CancelChildWorkflowCommand) isCommand() {}

type SignalExternalWorkflowCommand struct {
	Seq     uint32
	Target  WorkflowExecution
	Name    string
	Input   []*Payload
	Headers Header
}

func (SignalExternalWorkflowCommand) isCommand() {}

type RequestCancelExternalWorkflowCommand struct {
	Seq    uint32
	Target WorkflowExecution
}

func (RequestCancelExternalWorkflowCommand) isCommand() {}

type RespondToQueryCommand struct {
	QueryID string
	Result  *Payload
	Failure *Failure
}

func (RespondToQueryCommand) isCommand() {}

type UpdateResponseCommand struct {
	ID        string
	Accepted  bool
	Rejected  *Failure
	Completed *Payload
	Failed    *Failure
}

func (UpdateResponseCommand) isCommand() {}

type CompleteWorkflowCommand struct{ Result *Payload }

func (CompleteWorkflowCommand) isCommand() {}

type FailWorkflowCommand struct{ Failure *Failure }

func (FailWorkflowCommand) isCommand() {}

type ContinueAsNewCommand struct {
	WorkflowType string
	Input        []*Payload
	Options      ChildWorkflowOptions
	Headers      Header
}

func (ContinueAsNewCommand) isCommand() {}

type CancelWorkflowCommand struct{}

func (CancelWorkflowCommand) isCommand() {}

type UpsertSearchAttributesCommand struct{ SearchAttrs map[string]*Payload }

func (UpsertSearchAttributesCommand) isCommand() {}

type ModifyWorkflowPropertiesCommand struct{ MemoUpserts map[string]*Payload }

func (ModifyWorkflowPropertiesCommand) isCommand() {}

type SetPatchMarkerCommand struct {
	PatchID    string
	Deprecated bool
}

func (SetPatchMarkerCommand) isCommand() {}

type NexusOperationOptions struct {
	Endpoint  string
	Service   string
	Operation string
	ScheduleToCloseTimeout time.Duration
}

type ScheduleNexusOperationCommand struct {
	Seq     uint32
	Options NexusOperationOptions
	Input   *Payload
	Headers Header
}

func (ScheduleNexusOperationCommand) isCommand() {}

type RequestCancelNexusOperationCommand struct{ Seq uint32 }

func (RequestCancelNexusOperationCommand) isCommand() {}

// Completion is emitted by the worker after draining an activation; it is
// always exactly one of Successful or Failed.
type Completion struct {
	RunID      string
	Successful *SuccessfulCompletion
	Failed     *FailedCompletion
}

type SuccessfulCompletion struct {
	Commands []Command
}

type FailedCompletion struct {
	Failure *Failure
}
