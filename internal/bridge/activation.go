// Package bridge defines the contract between the worker runtime core and
// the server-facing side of the client: the activation/command exchange and
// the BridgeWorker interface that delivers it. No gRPC message types live
// here — the wire protocol is an external collaborator.
package bridge

import "time"

// Payload is a typed byte payload, the unit of data exchanged between
// workflow/activity code and the server.
type Payload struct {
	Data     []byte
	Metadata map[string][]byte
}

// WorkflowExecution identifies a single run of a workflow. RunID empty means
// "latest run".
type WorkflowExecution struct {
	WorkflowID string
	RunID      string
}

// RetryPolicy controls server-side retry of activities and workflow tasks.
type RetryPolicy struct {
	InitialInterval        time.Duration
	BackoffCoefficient     float64
	MaximumInterval        time.Duration
	MaximumAttempts        int32
	NonRetryableErrorTypes []string
}

// Header carries opaque propagated metadata (tracing, auth, app headers)
// alongside activation jobs and commands.
type Header struct {
	Fields map[string]*Payload
}

// Job is the sum type of work items delivered in a single Activation.
// Each concrete member is one kind of server-issued work item.
type Job interface{ isJob() }

type InitializeWorkflowJob struct {
	WorkflowType        string
	WorkflowID          string
	Arguments           []*Payload
	Memo                map[string]*Payload
	SearchAttrs         map[string]*Payload
	Headers             Header
	RandomSeed          uint64
	FirstExecutionRunID string
	Attempt             int32
	RetryPolicy         *RetryPolicy
	CronSchedule        string
}

func (InitializeWorkflowJob) isJob() {}

type FireTimerJob struct{ Seq uint32 }

func (FireTimerJob) isJob() {}

// ActivityResolution is the outcome delivered for a ResolveActivityJob.
type ActivityResolution struct {
	Completed *Payload
	Failed    *Failure
	Cancelled *Failure
}

type ResolveActivityJob struct {
	Seq    uint32
	Result ActivityResolution
}

func (ResolveActivityJob) isJob() {}

type ChildWorkflowStartResolution struct {
	Succeeded *WorkflowExecution
	Failed    *Failure // e.g. already-started
}

type ResolveChildWorkflowStartJob struct {
	Seq    uint32
	Result ChildWorkflowStartResolution
}

func (ResolveChildWorkflowStartJob) isJob() {}

type ChildWorkflowResolution struct {
	Completed *Payload
	Failed    *Failure
	Cancelled *Failure
}

type ResolveChildWorkflowJob struct {
	Seq    uint32
	Result ChildWorkflowResolution
}

func (ResolveChildWorkflowJob) isJob() {}

type ResolveSignalExternalJob struct {
	Seq     uint32
	Failure *Failure
}

func (ResolveSignalExternalJob) isJob() {}

type ResolveRequestCancelExternalJob struct {
	Seq     uint32
	Failure *Failure
}

func (ResolveRequestCancelExternalJob) isJob() {}

type SignalWorkflowJob struct {
	SignalName string
	Input      []*Payload
	Headers    Header
}

func (SignalWorkflowJob) isJob() {}

type QueryWorkflowJob struct {
	QueryID string
	Name    string
	Input   []*Payload
	Headers Header
}

func (QueryWorkflowJob) isJob() {}

type CancelWorkflowJob struct{ Reason string }

func (CancelWorkflowJob) isJob() {}

type DoUpdateJob struct {
	ProtocolInstanceID string
	ID                 string
	Name               string
	Input              []*Payload
	Headers            Header
}

func (DoUpdateJob) isJob() {}

type NexusOperationStartResolution struct {
	Started *string // operation token, if async
	Failed  *Failure
}

type ResolveNexusOperationStartJob struct {
	Seq    uint32
	Result NexusOperationStartResolution
}

func (ResolveNexusOperationStartJob) isJob() {}

type NexusOperationResolution struct {
	Completed *Payload
	Failed    *Failure
	Cancelled *Failure
}

type ResolveNexusOperationJob struct {
	Seq    uint32
	Result NexusOperationResolution
}

func (ResolveNexusOperationJob) isJob() {}

type NotifyHasPatchJob struct{ PatchID string }

func (NotifyHasPatchJob) isJob() {}

type UpdateRandomSeedJob struct{ Value uint64 }

func (UpdateRandomSeedJob) isJob() {}

type RemoveFromCacheJob struct{ Reason string }

func (RemoveFromCacheJob) isJob() {}

// Activation is one server-delivered batch of jobs for a single run.
type Activation struct {
	RunID       string
	Timestamp   time.Time
	IsReplaying bool
	Jobs        []Job
}
