package internal

import "go.flowcore.dev/sdk/internal/bridge"

// WorkflowInfo exposes read-only facts about the running workflow
// execution to workflow code, via GetWorkflowInfo.
type WorkflowInfo struct {
	WorkflowExecution    bridge.WorkflowExecution
	FirstExecutionRunID  string
	WorkflowType         string
	TaskQueueName        string
	Namespace            string
	Attempt              int32
	CronSchedule         string
	RetryPolicy          *bridge.RetryPolicy
	Memo                 map[string]*bridge.Payload
	SearchAttributes     map[string]*bridge.Payload
	lastCompletionResult []*bridge.Payload
	lastCompletionError  error
}

type workflowInfoKeyType struct{}

var workflowInfoKey = workflowInfoKeyType{}

// GetWorkflowInfo returns the running workflow's WorkflowInfo.
func GetWorkflowInfo(ctx Context) *WorkflowInfo {
	info, _ := ctx.Value(workflowInfoKey).(*WorkflowInfo)
	return info
}

func withWorkflowInfo(ctx Context, info *WorkflowInfo) Context {
	return WithValue(ctx, workflowInfoKey, info)
}

// HasLastCompletionResult reports whether a prior cron/retry run of this
// workflow ID completed with a result carried forward to this run.
func (i *WorkflowInfo) HasLastCompletionResult() bool { return len(i.lastCompletionResult) > 0 }
