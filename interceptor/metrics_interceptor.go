package interceptor

import (
	"context"

	"github.com/uber-go/tally"

	"go.flowcore.dev/sdk/internal/common/metrics"
	"go.flowcore.dev/sdk/workflow"
)

// MetricsInterceptor records execution counters and latency timers for
// activity and workflow dispatch on a tally scope. Workflow-side metrics
// skip replayed runs.
type MetricsInterceptor struct {
	InterceptorBase
	scope *metrics.TaggedScope
}

// NewMetricsInterceptor wraps scope into an Interceptor. A nil scope
// records nothing.
func NewMetricsInterceptor(scope tally.Scope) *MetricsInterceptor {
	return &MetricsInterceptor{scope: metrics.NewTaggedScope(scope)}
}

func (m *MetricsInterceptor) InterceptActivity(ctx context.Context, next ActivityInboundInterceptor) ActivityInboundInterceptor {
	return &metricsActivityInbound{ActivityInboundInterceptorBase{Next: next}, m.scope}
}

func (m *MetricsInterceptor) InterceptWorkflow(ctx workflow.Context, next WorkflowInboundInterceptor) WorkflowInboundInterceptor {
	return &metricsWorkflowInbound{WorkflowInboundInterceptorBase{Next: next}, m.scope}
}

type metricsActivityInbound struct {
	ActivityInboundInterceptorBase
	scope *metrics.TaggedScope
}

func (a *metricsActivityInbound) ExecuteActivity(ctx context.Context, in *ExecuteActivityInput) (interface{}, error) {
	scope := a.scope.GetTaggedScope("activity_type", in.ActivityType)
	sw := scope.Timer(metrics.ActivityExecutionLatency).Start()
	result, err := a.Next.ExecuteActivity(ctx, in)
	sw.Stop()
	if err != nil {
		scope.Counter(metrics.ActivityExecutionFailedCounter).Inc(1)
	}
	return result, err
}

type metricsWorkflowInbound struct {
	WorkflowInboundInterceptorBase
	scope *metrics.TaggedScope
}

func (w *metricsWorkflowInbound) ExecuteWorkflow(ctx workflow.Context, in *ExecuteWorkflowInput) (interface{}, error) {
	info := workflow.GetInfo(ctx)
	scope := w.scope.GetTaggedScope("workflow_type", info.WorkflowType)
	if !workflow.IsReplaying(ctx) {
		scope.Counter(metrics.WorkflowStartCounter).Inc(1)
	}
	result, err := w.Next.ExecuteWorkflow(ctx, in)
	if !workflow.IsReplaying(ctx) {
		if err != nil {
			scope.Counter(metrics.WorkflowFailedCounter).Inc(1)
		} else {
			scope.Counter(metrics.WorkflowCompletedCounter).Inc(1)
		}
	}
	return result, err
}
