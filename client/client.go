// Package client is the surface applications use to start and observe
// workflow executions, complete activities asynchronously, and administer
// namespaces and schedules.
package client

import (
	"google.golang.org/grpc"

	"go.flowcore.dev/sdk/interceptor"
	"go.flowcore.dev/sdk/internal"
	"go.flowcore.dev/sdk/internal/bridge"
)

type (
	// Client is the client for starting and observing workflow
	// executions and for completing activities asynchronously.
	Client = internal.Client

	// Options are optional parameters for Client creation.
	Options = internal.ClientOptions

	// StartWorkflowOptions configures one workflow start.
	StartWorkflowOptions = internal.StartWorkflowOptions

	// WorkflowRun represents one started workflow execution.
	WorkflowRun = internal.WorkflowRun

	// WorkflowRunGetOptions controls WorkflowRun.GetWithOptions.
	WorkflowRunGetOptions = internal.WorkflowRunGetOptions

	// HistoryEventIterator iterates history events across page fetches.
	HistoryEventIterator = internal.HistoryEventIterator

	// WorkflowExecutionIterator iterates visibility list results.
	WorkflowExecutionIterator = internal.WorkflowExecutionIterator

	// UpdateHandle can await the outcome of a started update.
	UpdateHandle = internal.UpdateHandle

	// UpdateRef identifies a workflow execution update.
	UpdateRef = internal.UpdateRef

	// UpdateWorkflowOptions configures Client.UpdateWorkflow.
	UpdateWorkflowOptions = internal.UpdateWorkflowOptions

	// NamespaceClient manages namespaces, the server's logical
	// partitions.
	NamespaceClient = internal.NamespaceClient

	// ScheduleClient is the schedule admin surface.
	ScheduleClient = internal.ScheduleClient

	// ScheduleHandle operates on one schedule.
	ScheduleHandle = internal.ScheduleHandle

	// ScheduleOptions configures ScheduleClient.Create.
	ScheduleOptions = internal.ScheduleOptions

	// ScheduleUpdateOptions carries the replacement schedule for
	// ScheduleHandle.Update.
	ScheduleUpdateOptions = internal.ScheduleUpdateOptions

	// Service is the typed server binding a Client runs over.
	Service = bridge.WorkflowService
)

// QueryTypeStackTrace is the built-in query type returning a dump of the
// run's suspended coroutine stacks.
const QueryTypeStackTrace = internal.QueryTypeStackTrace

// DialConnection establishes the gRPC connection a concrete Service
// binding runs over, carrying the required metrics and header
// interceptors.
func DialConnection(options Options) (*grpc.ClientConn, error) {
	return internal.DialConnection(options)
}

// NewClient creates a Client over service. When options.Tracer is set, a
// tracing interceptor is prepended to the outbound chain.
func NewClient(service Service, options Options) Client {
	if options.Tracer != nil {
		tracing := interceptor.NewTracingInterceptor(options.Tracer)
		options.Interceptors = append([]internal.ClientInterceptor{tracing}, options.Interceptors...)
	}
	return internal.NewServiceClient(service, options)
}

// NewNamespaceClient creates a NamespaceClient over service.
func NewNamespaceClient(service Service, options Options) NamespaceClient {
	return internal.NewNamespaceClient(service, options)
}
