package interceptor

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegermetrics "github.com/uber/jaeger-lib/metrics"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal"
	"go.flowcore.dev/sdk/workflow"
)

// TracingInterceptor emits an opentracing span around client operations and
// activity executions, and around workflow runs when not replaying (replay
// re-runs code the original execution already traced).
type TracingInterceptor struct {
	InterceptorBase
	tracer opentracing.Tracer
}

// NewTracingInterceptor wraps tracer into an Interceptor. A nil tracer
// falls back to the opentracing global.
func NewTracingInterceptor(tracer opentracing.Tracer) *TracingInterceptor {
	if tracer == nil {
		tracer = opentracing.GlobalTracer()
	}
	return &TracingInterceptor{tracer: tracer}
}

// NewJaegerTracingInterceptor builds a TracingInterceptor over a jaeger
// tracer with a const sampler, suitable for local testing. The returned
// closer flushes the tracer on shutdown.
func NewJaegerTracingInterceptor(serviceName string) (*TracingInterceptor, func() error, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler:     &jaegercfg.SamplerConfig{Type: "const", Param: 1},
	}
	tracer, closer, err := cfg.NewTracer(jaegercfg.Metrics(jaegermetrics.NullFactory))
	if err != nil {
		return nil, nil, err
	}
	return NewTracingInterceptor(tracer), closer.Close, nil
}

func (t *TracingInterceptor) InterceptClient(next ClientOutboundInterceptor) ClientOutboundInterceptor {
	return &tracingClientOutbound{ClientOutboundInterceptorBase{Next: next}, t.tracer}
}

func (t *TracingInterceptor) InterceptActivity(ctx context.Context, next ActivityInboundInterceptor) ActivityInboundInterceptor {
	return &tracingActivityInbound{ActivityInboundInterceptorBase{Next: next}, t.tracer}
}

func (t *TracingInterceptor) InterceptWorkflow(ctx workflow.Context, next WorkflowInboundInterceptor) WorkflowInboundInterceptor {
	return &tracingWorkflowInbound{WorkflowInboundInterceptorBase{Next: next}, t.tracer}
}

type tracingClientOutbound struct {
	ClientOutboundInterceptorBase
	tracer opentracing.Tracer
}

func (c *tracingClientOutbound) span(ctx context.Context, name string) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, c.tracer, name)
	ext.SpanKindRPCClient.Set(span)
	return span, ctx
}

func (c *tracingClientOutbound) ExecuteWorkflow(ctx context.Context, in *ClientExecuteWorkflowInput) (internal.WorkflowRun, error) {
	span, ctx := c.span(ctx, "StartWorkflow:"+in.WorkflowType)
	defer span.Finish()
	run, err := c.Next.ExecuteWorkflow(ctx, in)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	return run, err
}

func (c *tracingClientOutbound) SignalWorkflow(ctx context.Context, in *ClientSignalWorkflowInput) error {
	span, ctx := c.span(ctx, "SignalWorkflow:"+in.SignalName)
	defer span.Finish()
	err := c.Next.SignalWorkflow(ctx, in)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	return err
}

func (c *tracingClientOutbound) QueryWorkflow(ctx context.Context, in *ClientQueryWorkflowInput) (converter.Values, error) {
	span, ctx := c.span(ctx, "QueryWorkflow:"+in.QueryType)
	defer span.Finish()
	res, err := c.Next.QueryWorkflow(ctx, in)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	return res, err
}

type tracingActivityInbound struct {
	ActivityInboundInterceptorBase
	tracer opentracing.Tracer
}

func (a *tracingActivityInbound) ExecuteActivity(ctx context.Context, in *ExecuteActivityInput) (interface{}, error) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, a.tracer, "RunActivity:"+in.ActivityType)
	ext.SpanKindConsumer.Set(span)
	defer span.Finish()
	result, err := a.Next.ExecuteActivity(ctx, in)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	return result, err
}

type tracingWorkflowInbound struct {
	WorkflowInboundInterceptorBase
	tracer opentracing.Tracer
}

func (w *tracingWorkflowInbound) ExecuteWorkflow(ctx workflow.Context, in *ExecuteWorkflowInput) (interface{}, error) {
	if workflow.IsReplaying(ctx) {
		return w.Next.ExecuteWorkflow(ctx, in)
	}
	info := workflow.GetInfo(ctx)
	span := w.tracer.StartSpan("RunWorkflow:" + info.WorkflowType)
	defer span.Finish()
	result, err := w.Next.ExecuteWorkflow(ctx, in)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	return result, err
}
