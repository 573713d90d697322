package internal

import (
	"context"
	"time"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
)

// Interceptor is the common middleware entry point: one value can hook the
// client, the workflow worker, and the activity worker. Most interceptors
// embed InterceptorBase and override the single role they care about.
type Interceptor interface {
	ClientInterceptor
	WorkerInterceptor
}

// ClientInterceptor wraps the client's outbound operations.
type ClientInterceptor interface {
	// InterceptClient is called once per client; the returned interceptor
	// receives every outbound operation, innermost chain link last.
	InterceptClient(next ClientOutboundInterceptor) ClientOutboundInterceptor
}

// WorkerInterceptor wraps workflow and activity inbound dispatch.
type WorkerInterceptor interface {
	// InterceptActivity is called once per activity task before execution.
	InterceptActivity(ctx context.Context, next ActivityInboundInterceptor) ActivityInboundInterceptor
	// InterceptWorkflow is called once per workflow run at initialize time.
	InterceptWorkflow(ctx Context, next WorkflowInboundInterceptor) WorkflowInboundInterceptor
}

// ClientExecuteWorkflowInput is the input to
// ClientOutboundInterceptor.ExecuteWorkflow.
type ClientExecuteWorkflowInput struct {
	Options      *StartWorkflowOptions
	WorkflowType string
	Args         []interface{}
}

// ClientSignalWorkflowInput is the input to
// ClientOutboundInterceptor.SignalWorkflow.
type ClientSignalWorkflowInput struct {
	WorkflowID string
	RunID      string
	SignalName string
	Arg        interface{}
}

// ClientSignalWithStartWorkflowInput is the input to
// ClientOutboundInterceptor.SignalWithStartWorkflow.
type ClientSignalWithStartWorkflowInput struct {
	SignalName   string
	SignalArg    interface{}
	Options      *StartWorkflowOptions
	WorkflowType string
	Args         []interface{}
}

// ClientCancelWorkflowInput is the input to
// ClientOutboundInterceptor.CancelWorkflow.
type ClientCancelWorkflowInput struct {
	WorkflowID string
	RunID      string
	Reason     string
}

// ClientTerminateWorkflowInput is the input to
// ClientOutboundInterceptor.TerminateWorkflow.
type ClientTerminateWorkflowInput struct {
	WorkflowID string
	RunID      string
	Reason     string
	Details    []interface{}
}

// ClientQueryWorkflowInput is the input to
// ClientOutboundInterceptor.QueryWorkflow.
type ClientQueryWorkflowInput struct {
	WorkflowID string
	RunID      string
	QueryType  string
	Args       []interface{}
}

// ClientUpdateWorkflowInput is the input to
// ClientOutboundInterceptor.UpdateWorkflow.
type ClientUpdateWorkflowInput struct {
	WorkflowID   string
	RunID        string
	UpdateID     string
	UpdateName   string
	Args         []interface{}
	WaitForStage bridge.UpdateWorkflowExecutionLifecycleStage
}

// ClientOutboundInterceptor intercepts client-to-server operations. The
// terminal implementation performs the RPC; earlier links may mutate input,
// inject headers, or short-circuit.
type ClientOutboundInterceptor interface {
	ExecuteWorkflow(ctx context.Context, in *ClientExecuteWorkflowInput) (WorkflowRun, error)
	SignalWorkflow(ctx context.Context, in *ClientSignalWorkflowInput) error
	SignalWithStartWorkflow(ctx context.Context, in *ClientSignalWithStartWorkflowInput) (WorkflowRun, error)
	CancelWorkflow(ctx context.Context, in *ClientCancelWorkflowInput) error
	TerminateWorkflow(ctx context.Context, in *ClientTerminateWorkflowInput) error
	QueryWorkflow(ctx context.Context, in *ClientQueryWorkflowInput) (converter.Values, error)
	UpdateWorkflow(ctx context.Context, in *ClientUpdateWorkflowInput) (UpdateHandle, error)
}

// ExecuteWorkflowInput is the input to
// WorkflowInboundInterceptor.ExecuteWorkflow: the run's decoded arguments
// as raw payloads.
type ExecuteWorkflowInput struct {
	Args []*bridge.Payload
}

// HandleSignalInput is the input to
// WorkflowInboundInterceptor.HandleSignal.
type HandleSignalInput struct {
	SignalName string
	Input      []*bridge.Payload
}

// HandleQueryInput is the input to WorkflowInboundInterceptor.HandleQuery.
type HandleQueryInput struct {
	QueryID   string
	QueryType string
	Args      []*bridge.Payload
}

// ExecuteUpdateInput is the input to
// WorkflowInboundInterceptor.ExecuteUpdate.
type ExecuteUpdateInput struct {
	UpdateID   string
	UpdateName string
	Args       []*bridge.Payload
}

// WorkflowInboundInterceptor intercepts server-to-workflow dispatch: the
// run function itself plus signal/query/update handler invocation.
type WorkflowInboundInterceptor interface {
	// Init is called once per run with the terminal outbound chain; an
	// interceptor that also wraps outbound calls wraps it here.
	Init(outbound WorkflowOutboundInterceptor) error
	ExecuteWorkflow(ctx Context, in *ExecuteWorkflowInput) (interface{}, error)
	HandleSignal(ctx Context, in *HandleSignalInput) error
	HandleQuery(ctx Context, in *HandleQueryInput) (interface{}, error)
	ExecuteUpdate(ctx Context, in *ExecuteUpdateInput) (interface{}, error)
}

// WorkflowOutboundInterceptor intercepts workflow-to-server primitives
// invoked from workflow code.
type WorkflowOutboundInterceptor interface {
	ExecuteActivity(ctx Context, activityType string, args ...interface{}) Future
	ExecuteLocalActivity(ctx Context, activityType string, args ...interface{}) Future
	ExecuteChildWorkflow(ctx Context, workflowType string, args ...interface{}) ChildWorkflowFuture
	ExecuteNexusOperation(ctx Context, in ExecuteNexusOperationInput) NexusOperationFuture
	NewTimer(ctx Context, d time.Duration) Future
	SignalExternalWorkflow(ctx Context, workflowID, runID, signalName string, arg interface{}) Future
	RequestCancelExternalWorkflow(ctx Context, workflowID, runID string) Future
	UpsertSearchAttributes(ctx Context, attributes map[string]interface{}) error
	UpsertMemo(ctx Context, memo map[string]interface{}) error
	SideEffect(ctx Context, f func(ctx Context) (interface{}, error)) converter.Values
	Now(ctx Context) time.Time
}

// ExecuteNexusOperationInput is the input to
// WorkflowOutboundInterceptor.ExecuteNexusOperation, with the operation
// name already resolved from whatever reference form the caller used.
type ExecuteNexusOperationInput struct {
	Endpoint  string
	Service   string
	Operation string
	Input     interface{}
	Options   NexusOperationOptions
}

// ExecuteActivityInput is the input to
// ActivityInboundInterceptor.ExecuteActivity.
type ExecuteActivityInput struct {
	ActivityType string
	Args         []*bridge.Payload
}

// ActivityInboundInterceptor intercepts activity task dispatch.
type ActivityInboundInterceptor interface {
	ExecuteActivity(ctx context.Context, in *ExecuteActivityInput) (interface{}, error)
}

// ClientOutboundInterceptorBase forwards every operation to next unchanged.
// Embed it and override the operations of interest.
type ClientOutboundInterceptorBase struct {
	Next ClientOutboundInterceptor
}

func (b *ClientOutboundInterceptorBase) ExecuteWorkflow(ctx context.Context, in *ClientExecuteWorkflowInput) (WorkflowRun, error) {
	return b.Next.ExecuteWorkflow(ctx, in)
}

func (b *ClientOutboundInterceptorBase) SignalWorkflow(ctx context.Context, in *ClientSignalWorkflowInput) error {
	return b.Next.SignalWorkflow(ctx, in)
}

func (b *ClientOutboundInterceptorBase) SignalWithStartWorkflow(ctx context.Context, in *ClientSignalWithStartWorkflowInput) (WorkflowRun, error) {
	return b.Next.SignalWithStartWorkflow(ctx, in)
}

func (b *ClientOutboundInterceptorBase) CancelWorkflow(ctx context.Context, in *ClientCancelWorkflowInput) error {
	return b.Next.CancelWorkflow(ctx, in)
}

func (b *ClientOutboundInterceptorBase) TerminateWorkflow(ctx context.Context, in *ClientTerminateWorkflowInput) error {
	return b.Next.TerminateWorkflow(ctx, in)
}

func (b *ClientOutboundInterceptorBase) QueryWorkflow(ctx context.Context, in *ClientQueryWorkflowInput) (converter.Values, error) {
	return b.Next.QueryWorkflow(ctx, in)
}

func (b *ClientOutboundInterceptorBase) UpdateWorkflow(ctx context.Context, in *ClientUpdateWorkflowInput) (UpdateHandle, error) {
	return b.Next.UpdateWorkflow(ctx, in)
}

// ClientInterceptorBase implements InterceptClient as pass-through.
type ClientInterceptorBase struct{}

func (ClientInterceptorBase) InterceptClient(next ClientOutboundInterceptor) ClientOutboundInterceptor {
	return next
}

// WorkerInterceptorBase implements both worker hooks as pass-through.
type WorkerInterceptorBase struct{}

func (WorkerInterceptorBase) InterceptActivity(ctx context.Context, next ActivityInboundInterceptor) ActivityInboundInterceptor {
	return next
}

func (WorkerInterceptorBase) InterceptWorkflow(ctx Context, next WorkflowInboundInterceptor) WorkflowInboundInterceptor {
	return next
}

// InterceptorBase is a no-op Interceptor to embed.
type InterceptorBase struct {
	ClientInterceptorBase
	WorkerInterceptorBase
}

// WorkflowInboundInterceptorBase forwards to next unchanged.
type WorkflowInboundInterceptorBase struct {
	Next WorkflowInboundInterceptor
}

func (b *WorkflowInboundInterceptorBase) Init(outbound WorkflowOutboundInterceptor) error {
	return b.Next.Init(outbound)
}

func (b *WorkflowInboundInterceptorBase) ExecuteWorkflow(ctx Context, in *ExecuteWorkflowInput) (interface{}, error) {
	return b.Next.ExecuteWorkflow(ctx, in)
}

func (b *WorkflowInboundInterceptorBase) HandleSignal(ctx Context, in *HandleSignalInput) error {
	return b.Next.HandleSignal(ctx, in)
}

func (b *WorkflowInboundInterceptorBase) HandleQuery(ctx Context, in *HandleQueryInput) (interface{}, error) {
	return b.Next.HandleQuery(ctx, in)
}

func (b *WorkflowInboundInterceptorBase) ExecuteUpdate(ctx Context, in *ExecuteUpdateInput) (interface{}, error) {
	return b.Next.ExecuteUpdate(ctx, in)
}

// WorkflowOutboundInterceptorBase forwards to next unchanged.
type WorkflowOutboundInterceptorBase struct {
	Next WorkflowOutboundInterceptor
}

func (b *WorkflowOutboundInterceptorBase) ExecuteActivity(ctx Context, activityType string, args ...interface{}) Future {
	return b.Next.ExecuteActivity(ctx, activityType, args...)
}

func (b *WorkflowOutboundInterceptorBase) ExecuteLocalActivity(ctx Context, activityType string, args ...interface{}) Future {
	return b.Next.ExecuteLocalActivity(ctx, activityType, args...)
}

func (b *WorkflowOutboundInterceptorBase) ExecuteChildWorkflow(ctx Context, workflowType string, args ...interface{}) ChildWorkflowFuture {
	return b.Next.ExecuteChildWorkflow(ctx, workflowType, args...)
}

func (b *WorkflowOutboundInterceptorBase) ExecuteNexusOperation(ctx Context, in ExecuteNexusOperationInput) NexusOperationFuture {
	return b.Next.ExecuteNexusOperation(ctx, in)
}

func (b *WorkflowOutboundInterceptorBase) NewTimer(ctx Context, d time.Duration) Future {
	return b.Next.NewTimer(ctx, d)
}

func (b *WorkflowOutboundInterceptorBase) SignalExternalWorkflow(ctx Context, workflowID, runID, signalName string, arg interface{}) Future {
	return b.Next.SignalExternalWorkflow(ctx, workflowID, runID, signalName, arg)
}

func (b *WorkflowOutboundInterceptorBase) RequestCancelExternalWorkflow(ctx Context, workflowID, runID string) Future {
	return b.Next.RequestCancelExternalWorkflow(ctx, workflowID, runID)
}

func (b *WorkflowOutboundInterceptorBase) UpsertSearchAttributes(ctx Context, attributes map[string]interface{}) error {
	return b.Next.UpsertSearchAttributes(ctx, attributes)
}

func (b *WorkflowOutboundInterceptorBase) UpsertMemo(ctx Context, memo map[string]interface{}) error {
	return b.Next.UpsertMemo(ctx, memo)
}

func (b *WorkflowOutboundInterceptorBase) SideEffect(ctx Context, f func(ctx Context) (interface{}, error)) converter.Values {
	return b.Next.SideEffect(ctx, f)
}

func (b *WorkflowOutboundInterceptorBase) Now(ctx Context) time.Time {
	return b.Next.Now(ctx)
}

// ActivityInboundInterceptorBase forwards to next unchanged.
type ActivityInboundInterceptorBase struct {
	Next ActivityInboundInterceptor
}

func (b *ActivityInboundInterceptorBase) ExecuteActivity(ctx context.Context, in *ExecuteActivityInput) (interface{}, error) {
	return b.Next.ExecuteActivity(ctx, in)
}
