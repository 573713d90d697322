package bridge

import (
	"context"
	"time"
)

// WorkflowService is the typed client for the server's unary and
// server-streaming RPC surface. Request and response shapes are thin: they
// carry exactly the fields the client surface consumes, and a concrete
// implementation maps them onto whatever wire representation the deployment
// uses.
type WorkflowService interface {
	StartWorkflowExecution(ctx context.Context, req *StartWorkflowExecutionRequest) (*StartWorkflowExecutionResponse, error)
	SignalWorkflowExecution(ctx context.Context, req *SignalWorkflowExecutionRequest) error
	SignalWithStartWorkflowExecution(ctx context.Context, req *SignalWithStartWorkflowExecutionRequest) (*StartWorkflowExecutionResponse, error)
	QueryWorkflow(ctx context.Context, req *QueryWorkflowRequest) (*QueryWorkflowResponse, error)
	UpdateWorkflowExecution(ctx context.Context, req *UpdateWorkflowExecutionRequest) (*UpdateWorkflowExecutionResponse, error)
	PollWorkflowExecutionUpdate(ctx context.Context, req *PollWorkflowExecutionUpdateRequest) (*UpdateWorkflowExecutionResponse, error)
	RequestCancelWorkflowExecution(ctx context.Context, req *RequestCancelWorkflowExecutionRequest) error
	TerminateWorkflowExecution(ctx context.Context, req *TerminateWorkflowExecutionRequest) error
	DescribeWorkflowExecution(ctx context.Context, req *DescribeWorkflowExecutionRequest) (*DescribeWorkflowExecutionResponse, error)
	GetWorkflowExecutionHistory(ctx context.Context, req *GetWorkflowExecutionHistoryRequest) (*GetWorkflowExecutionHistoryResponse, error)
	ListWorkflowExecutions(ctx context.Context, req *ListWorkflowExecutionsRequest) (*ListWorkflowExecutionsResponse, error)
	CountWorkflowExecutions(ctx context.Context, req *CountWorkflowExecutionsRequest) (*CountWorkflowExecutionsResponse, error)
	GetSearchAttributes(ctx context.Context) (*GetSearchAttributesResponse, error)

	RecordActivityTaskHeartbeat(ctx context.Context, req *RecordActivityTaskHeartbeatRequest) (*RecordActivityTaskHeartbeatResponse, error)
	RecordActivityTaskHeartbeatByID(ctx context.Context, req *RecordActivityTaskHeartbeatByIDRequest) (*RecordActivityTaskHeartbeatResponse, error)
	RespondActivityTaskCompleted(ctx context.Context, req *RespondActivityTaskCompletedRequest) error
	RespondActivityTaskCompletedByID(ctx context.Context, req *RespondActivityTaskCompletedByIDRequest) error
	RespondActivityTaskFailed(ctx context.Context, req *RespondActivityTaskFailedRequest) error
	RespondActivityTaskFailedByID(ctx context.Context, req *RespondActivityTaskFailedByIDRequest) error
	RespondActivityTaskCanceled(ctx context.Context, req *RespondActivityTaskCanceledRequest) error
	RespondActivityTaskCanceledByID(ctx context.Context, req *RespondActivityTaskCanceledByIDRequest) error

	RegisterNamespace(ctx context.Context, req *RegisterNamespaceRequest) error
	DescribeNamespace(ctx context.Context, name string) (*DescribeNamespaceResponse, error)
	UpdateNamespace(ctx context.Context, req *UpdateNamespaceRequest) error
	ListNamespaces(ctx context.Context, req *ListNamespacesRequest) (*ListNamespacesResponse, error)

	CreateSchedule(ctx context.Context, req *CreateScheduleRequest) (*CreateScheduleResponse, error)
	DescribeSchedule(ctx context.Context, req *DescribeScheduleRequest) (*DescribeScheduleResponse, error)
	UpdateSchedule(ctx context.Context, req *UpdateScheduleRequest) error
	PatchSchedule(ctx context.Context, req *PatchScheduleRequest) error
	DeleteSchedule(ctx context.Context, req *DeleteScheduleRequest) error
	ListSchedules(ctx context.Context, req *ListSchedulesRequest) (*ListSchedulesResponse, error)

	Close() error
}

// WorkflowIDConflictPolicy resolves a start that collides with an already
// running execution of the same workflow ID.
type WorkflowIDConflictPolicy int

const (
	WorkflowIDConflictPolicyUnspecified WorkflowIDConflictPolicy = iota
	WorkflowIDConflictPolicyFail
	WorkflowIDConflictPolicyUseExisting
	WorkflowIDConflictPolicyTerminateExisting
)

type StartWorkflowExecutionRequest struct {
	Namespace         string
	WorkflowID        string
	WorkflowType      string
	TaskQueue         string
	Input             []*Payload
	ExecutionTimeout  time.Duration
	RunTimeout        time.Duration
	TaskTimeout       time.Duration
	Identity          string
	RequestID         string
	IDReusePolicy     WorkflowIDReusePolicy
	IDConflictPolicy  WorkflowIDConflictPolicy
	RetryPolicy       *RetryPolicy
	CronSchedule      string
	Memo              map[string]*Payload
	SearchAttributes  map[string]*Payload
	Headers           Header
	StartDelay        time.Duration
	RequestEagerStart bool
}

type StartWorkflowExecutionResponse struct {
	RunID string
}

type SignalWorkflowExecutionRequest struct {
	Namespace  string
	Execution  WorkflowExecution
	SignalName string
	Input      []*Payload
	Identity   string
	RequestID  string
	Headers    Header
}

type SignalWithStartWorkflowExecutionRequest struct {
	Start       *StartWorkflowExecutionRequest
	SignalName  string
	SignalInput []*Payload
}

// QueryRejectCondition optionally rejects queries against closed runs.
type QueryRejectCondition int

const (
	QueryRejectConditionNone QueryRejectCondition = iota
	QueryRejectConditionNotOpen
	QueryRejectConditionNotCompletedCleanly
)

type QueryWorkflowRequest struct {
	Namespace       string
	Execution       WorkflowExecution
	QueryType       string
	Args            []*Payload
	Headers         Header
	RejectCondition QueryRejectCondition
}

type QueryWorkflowResponse struct {
	Result        []*Payload
	QueryRejected bool
	// RejectedStatus is the run's close status when QueryRejected is set.
	RejectedStatus string
}

// UpdateWorkflowExecutionLifecycleStage is how far the server must progress
// the update before the RPC returns.
type UpdateWorkflowExecutionLifecycleStage int

const (
	UpdateWorkflowExecutionLifecycleStageUnspecified UpdateWorkflowExecutionLifecycleStage = iota
	UpdateWorkflowExecutionLifecycleStageAdmitted
	UpdateWorkflowExecutionLifecycleStageAccepted
	UpdateWorkflowExecutionLifecycleStageCompleted
)

type UpdateWorkflowExecutionRequest struct {
	Namespace  string
	Execution  WorkflowExecution
	UpdateID   string
	UpdateName string
	Args       []*Payload
	Headers    Header
	Identity   string
	WaitStage  UpdateWorkflowExecutionLifecycleStage
}

type UpdateWorkflowExecutionResponse struct {
	UpdateID string
	Stage    UpdateWorkflowExecutionLifecycleStage
	// Exactly one of Result/Failure is set once Stage is Completed.
	Result  []*Payload
	Failure *Failure
}

type PollWorkflowExecutionUpdateRequest struct {
	Namespace string
	Execution WorkflowExecution
	UpdateID  string
	Identity  string
	WaitStage UpdateWorkflowExecutionLifecycleStage
}

type RequestCancelWorkflowExecutionRequest struct {
	Namespace           string
	Execution           WorkflowExecution
	Identity            string
	RequestID           string
	FirstExecutionRunID string
	Reason              string
}

type TerminateWorkflowExecutionRequest struct {
	Namespace           string
	Execution           WorkflowExecution
	Reason              string
	Details             []*Payload
	Identity            string
	FirstExecutionRunID string
}

type DescribeWorkflowExecutionRequest struct {
	Namespace string
	Execution WorkflowExecution
}

// WorkflowExecutionInfo summarizes one run for describe/list responses.
type WorkflowExecutionInfo struct {
	Execution        WorkflowExecution
	WorkflowType     string
	StartTime        time.Time
	CloseTime        time.Time
	Status           string
	HistoryLength    int64
	TaskQueue        string
	Memo             map[string]*Payload
	SearchAttributes map[string]*Payload
	ParentExecution  *WorkflowExecution
}

// PendingActivityInfo describes one activity the server still tracks for a
// run.
type PendingActivityInfo struct {
	ActivityID         string
	ActivityType       string
	State              string
	HeartbeatDetails   []*Payload
	LastHeartbeatTime  time.Time
	Attempt            int32
	MaximumAttempts    int32
	ScheduledTime      time.Time
	ExpirationTime     time.Time
	LastFailure        *Failure
	LastWorkerIdentity string
}

type DescribeWorkflowExecutionResponse struct {
	ExecutionInfo     *WorkflowExecutionInfo
	PendingActivities []*PendingActivityInfo
	PendingChildren   []*WorkflowExecution
}

type GetWorkflowExecutionHistoryRequest struct {
	Namespace     string
	Execution     WorkflowExecution
	PageSize      int32
	NextPageToken []byte
	WaitNewEvent  bool
	FilterType    HistoryEventFilterType
	SkipArchival  bool
}

type GetWorkflowExecutionHistoryResponse struct {
	Events        []*HistoryEvent
	NextPageToken []byte
}

type ListWorkflowExecutionsRequest struct {
	Namespace     string
	PageSize      int32
	NextPageToken []byte
	Query         string
}

type ListWorkflowExecutionsResponse struct {
	Executions    []*WorkflowExecutionInfo
	NextPageToken []byte
}

type CountWorkflowExecutionsRequest struct {
	Namespace string
	Query     string
}

type CountWorkflowExecutionsResponse struct {
	Count int64
}

type GetSearchAttributesResponse struct {
	// Keys maps each indexed attribute name to its value type name.
	Keys map[string]string
}

type RecordActivityTaskHeartbeatRequest struct {
	Namespace string
	TaskToken []byte
	Details   []*Payload
	Identity  string
}

type RecordActivityTaskHeartbeatByIDRequest struct {
	Namespace  string
	WorkflowID string
	RunID      string
	ActivityID string
	Details    []*Payload
	Identity   string
}

type RecordActivityTaskHeartbeatResponse struct {
	CancelRequested bool
}

type RespondActivityTaskCompletedRequest struct {
	Namespace string
	TaskToken []byte
	Result    []*Payload
	Identity  string
}

type RespondActivityTaskCompletedByIDRequest struct {
	Namespace  string
	WorkflowID string
	RunID      string
	ActivityID string
	Result     []*Payload
	Identity   string
}

type RespondActivityTaskFailedRequest struct {
	Namespace string
	TaskToken []byte
	Failure   *Failure
	Identity  string
}

type RespondActivityTaskFailedByIDRequest struct {
	Namespace  string
	WorkflowID string
	RunID      string
	ActivityID string
	Failure    *Failure
	Identity   string
}

type RespondActivityTaskCanceledRequest struct {
	Namespace string
	TaskToken []byte
	Details   []*Payload
	Identity  string
}

type RespondActivityTaskCanceledByIDRequest struct {
	Namespace  string
	WorkflowID string
	RunID      string
	ActivityID string
	Details    []*Payload
	Identity   string
}

type RegisterNamespaceRequest struct {
	Name                             string
	Description                      string
	OwnerEmail                       string
	WorkflowExecutionRetentionPeriod time.Duration
	Data                             map[string]string
}

type NamespaceInfo struct {
	Name        string
	State       string
	Description string
	OwnerEmail  string
	Data        map[string]string
}

type DescribeNamespaceResponse struct {
	NamespaceInfo                    *NamespaceInfo
	WorkflowExecutionRetentionPeriod time.Duration
}

type UpdateNamespaceRequest struct {
	Name                             string
	Description                      *string
	OwnerEmail                       *string
	WorkflowExecutionRetentionPeriod *time.Duration
	Data                             map[string]string
}

type ListNamespacesRequest struct {
	PageSize      int32
	NextPageToken []byte
}

type ListNamespacesResponse struct {
	Namespaces    []*DescribeNamespaceResponse
	NextPageToken []byte
}

// ScheduleCalendarSpec matches absolute points in time, one range list per
// calendar field. An empty range list means "any value" for minute-level
// fields and the zero value for the rest.
type ScheduleCalendarSpec struct {
	Second     []ScheduleRange
	Minute     []ScheduleRange
	Hour       []ScheduleRange
	DayOfMonth []ScheduleRange
	Month      []ScheduleRange
	DayOfWeek  []ScheduleRange
	Year       []ScheduleRange
	Comment    string
}

// ScheduleRange matches [Start, End] stepping by Step. End defaults to
// Start and Step defaults to 1.
type ScheduleRange struct {
	Start int
	End   int
	Step  int
}

// ScheduleIntervalSpec matches times that are Every apart, shifted by
// Offset from the epoch.
type ScheduleIntervalSpec struct {
	Every  time.Duration
	Offset time.Duration
}

type ScheduleSpec struct {
	Calendars       []ScheduleCalendarSpec
	Intervals       []ScheduleIntervalSpec
	CronExpressions []string
	Skip            []ScheduleCalendarSpec
	StartAt         time.Time
	EndAt           time.Time
	Jitter          time.Duration
	TimeZoneName    string
}

// ScheduleOverlapPolicy controls what happens when an action would start
// while a previous one is still running.
type ScheduleOverlapPolicy int

const (
	ScheduleOverlapPolicySkip ScheduleOverlapPolicy = iota
	ScheduleOverlapPolicyBufferOne
	ScheduleOverlapPolicyBufferAll
	ScheduleOverlapPolicyCancelOther
	ScheduleOverlapPolicyTerminateOther
	ScheduleOverlapPolicyAllowAll
)

type SchedulePolicies struct {
	Overlap        ScheduleOverlapPolicy
	CatchupWindow  time.Duration
	PauseOnFailure bool
}

type ScheduleState struct {
	Note             string
	Paused           bool
	LimitedActions   bool
	RemainingActions int64
}

// ScheduleAction is what the schedule runs; starting a workflow is the only
// action kind.
type ScheduleAction struct {
	StartWorkflow *StartWorkflowExecutionRequest
}

type Schedule struct {
	Spec     *ScheduleSpec
	Action   *ScheduleAction
	Policies *SchedulePolicies
	State    *ScheduleState
}

type CreateScheduleRequest struct {
	Namespace        string
	ScheduleID       string
	Schedule         *Schedule
	InitialPatch     *PatchScheduleRequest
	Identity         string
	RequestID        string
	Memo             map[string]*Payload
	SearchAttributes map[string]*Payload
}

type CreateScheduleResponse struct {
	ConflictToken []byte
}

type DescribeScheduleRequest struct {
	Namespace  string
	ScheduleID string
}

type ScheduleActionResult struct {
	ScheduleTime time.Time
	ActualTime   time.Time
	StartedRun   *WorkflowExecution
}

type DescribeScheduleResponse struct {
	Schedule         *Schedule
	Memo             map[string]*Payload
	SearchAttributes map[string]*Payload
	RunningWorkflows []*WorkflowExecution
	RecentActions    []*ScheduleActionResult
	NextActionTimes  []time.Time
	ConflictToken    []byte
}

type UpdateScheduleRequest struct {
	Namespace     string
	ScheduleID    string
	Schedule      *Schedule
	ConflictToken []byte
	Identity      string
	RequestID     string
}

// PatchScheduleRequest carries the imperative schedule operations: trigger
// an action immediately, backfill a time range, pause, or unpause.
type PatchScheduleRequest struct {
	Namespace  string
	ScheduleID string

	TriggerImmediately *ScheduleOverlapPolicy
	BackfillStart      time.Time
	BackfillEnd        time.Time
	BackfillOverlap    ScheduleOverlapPolicy
	Pause              string
	Unpause            string
}

type DeleteScheduleRequest struct {
	Namespace  string
	ScheduleID string
	Identity   string
}

type ListSchedulesRequest struct {
	Namespace     string
	PageSize      int32
	NextPageToken []byte
	Query         string
}

type ScheduleListEntry struct {
	ScheduleID       string
	Spec             *ScheduleSpec
	WorkflowType     string
	Paused           bool
	Notes            string
	RecentActions    []*ScheduleActionResult
	NextActionTimes  []time.Time
	Memo             map[string]*Payload
	SearchAttributes map[string]*Payload
}

type ListSchedulesResponse struct {
	Schedules     []*ScheduleListEntry
	NextPageToken []byte
}
