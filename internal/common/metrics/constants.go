package metrics

// MetricsPrefix is prepended to all metrics emitted by the runtime.
const MetricsPrefix = "flowcore-"

const (
	WorkflowStartCounter         = MetricsPrefix + "workflow-start"
	WorkflowCompletedCounter     = MetricsPrefix + "workflow-completed"
	WorkflowCanceledCounter      = MetricsPrefix + "workflow-canceled"
	WorkflowFailedCounter        = MetricsPrefix + "workflow-failed"
	WorkflowContinueAsNewCounter = MetricsPrefix + "workflow-continue-as-new"

	WorkflowTaskCounter          = MetricsPrefix + "workflow-task"
	WorkflowTaskFailedCounter    = MetricsPrefix + "workflow-task-failed"
	WorkflowTaskExecutionLatency = MetricsPrefix + "workflow-task-execution-latency"
	StickyCacheSize              = MetricsPrefix + "sticky-cache-size"

	ActivityPollCounter            = MetricsPrefix + "activity-poll"
	ActivityExecutionFailedCounter = MetricsPrefix + "activity-execution-failed"
	ActivityExecutionLatency       = MetricsPrefix + "activity-execution-latency"
	ActivityTaskCanceledCounter    = MetricsPrefix + "activity-task-canceled"

	LocalActivityExecutionCounter = MetricsPrefix + "local-activity-total"
	LocalActivityExecutionLatency = MetricsPrefix + "local-activity-execution-latency"

	RequestCounter        = MetricsPrefix + "request"
	RequestFailureCounter = MetricsPrefix + "request-failure"
	RequestLatency        = MetricsPrefix + "request-latency"
)
