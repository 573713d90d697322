// Package interceptor defines the middleware hooks for client and worker
// flows. Four roles exist: client outbound operations, workflow inbound
// dispatch, workflow outbound primitives, and activity inbound dispatch.
// Every role ships a Base forwarder so an interceptor only overrides the
// methods it cares about.
package interceptor

import (
	"go.flowcore.dev/sdk/internal"
)

type (
	// Interceptor hooks the client, workflow worker, and activity worker
	// with one value.
	Interceptor = internal.Interceptor

	// InterceptorBase is a no-op Interceptor to embed.
	InterceptorBase = internal.InterceptorBase

	// ClientInterceptor hooks client outbound operations.
	ClientInterceptor = internal.ClientInterceptor

	// ClientInterceptorBase is a no-op ClientInterceptor to embed.
	ClientInterceptorBase = internal.ClientInterceptorBase

	// WorkerInterceptor hooks workflow and activity inbound dispatch.
	WorkerInterceptor = internal.WorkerInterceptor

	// WorkerInterceptorBase is a no-op WorkerInterceptor to embed.
	WorkerInterceptorBase = internal.WorkerInterceptorBase

	// ClientOutboundInterceptor intercepts client-to-server operations.
	ClientOutboundInterceptor = internal.ClientOutboundInterceptor

	// ClientOutboundInterceptorBase forwards every client operation to the
	// next link unchanged.
	ClientOutboundInterceptorBase = internal.ClientOutboundInterceptorBase

	// WorkflowInboundInterceptor intercepts workflow run/signal/query/
	// update dispatch.
	WorkflowInboundInterceptor = internal.WorkflowInboundInterceptor

	// WorkflowInboundInterceptorBase forwards inbound workflow dispatch to
	// the next link unchanged.
	WorkflowInboundInterceptorBase = internal.WorkflowInboundInterceptorBase

	// WorkflowOutboundInterceptor intercepts primitives invoked from
	// workflow code.
	WorkflowOutboundInterceptor = internal.WorkflowOutboundInterceptor

	// WorkflowOutboundInterceptorBase forwards outbound workflow
	// primitives to the next link unchanged.
	WorkflowOutboundInterceptorBase = internal.WorkflowOutboundInterceptorBase

	// ActivityInboundInterceptor intercepts activity task dispatch.
	ActivityInboundInterceptor = internal.ActivityInboundInterceptor

	// ActivityInboundInterceptorBase forwards activity dispatch to the
	// next link unchanged.
	ActivityInboundInterceptorBase = internal.ActivityInboundInterceptorBase

	// ClientExecuteWorkflowInput is the ExecuteWorkflow operation input.
	ClientExecuteWorkflowInput = internal.ClientExecuteWorkflowInput

	// ClientSignalWorkflowInput is the SignalWorkflow operation input.
	ClientSignalWorkflowInput = internal.ClientSignalWorkflowInput

	// ClientSignalWithStartWorkflowInput is the SignalWithStartWorkflow
	// operation input.
	ClientSignalWithStartWorkflowInput = internal.ClientSignalWithStartWorkflowInput

	// ClientCancelWorkflowInput is the CancelWorkflow operation input.
	ClientCancelWorkflowInput = internal.ClientCancelWorkflowInput

	// ClientTerminateWorkflowInput is the TerminateWorkflow operation
	// input.
	ClientTerminateWorkflowInput = internal.ClientTerminateWorkflowInput

	// ClientQueryWorkflowInput is the QueryWorkflow operation input.
	ClientQueryWorkflowInput = internal.ClientQueryWorkflowInput

	// ClientUpdateWorkflowInput is the UpdateWorkflow operation input.
	ClientUpdateWorkflowInput = internal.ClientUpdateWorkflowInput

	// ExecuteWorkflowInput is the workflow run dispatch input.
	ExecuteWorkflowInput = internal.ExecuteWorkflowInput

	// HandleSignalInput is the signal dispatch input.
	HandleSignalInput = internal.HandleSignalInput

	// HandleQueryInput is the query dispatch input.
	HandleQueryInput = internal.HandleQueryInput

	// ExecuteUpdateInput is the update dispatch input.
	ExecuteUpdateInput = internal.ExecuteUpdateInput

	// ExecuteActivityInput is the activity dispatch input.
	ExecuteActivityInput = internal.ExecuteActivityInput

	// ExecuteNexusOperationInput is the nexus operation outbound input.
	ExecuteNexusOperationInput = internal.ExecuteNexusOperationInput
)
