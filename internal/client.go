package internal

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/common/metrics"
	"go.flowcore.dev/sdk/internal/common/rpc"
	"go.flowcore.dev/sdk/internal/paginate"
	"go.flowcore.dev/sdk/temporal"
)

const (
	// QueryTypeStackTrace is the built-in query type returning a dump of
	// the run's suspended coroutine stacks, for debugging stuck workflows.
	QueryTypeStackTrace string = "__stack_trace"
)

type (
	// Client is the client for starting and observing workflow executions
	// and for completing activities asynchronously.
	Client interface {
		// ExecuteWorkflow starts a workflow execution and returns a
		// WorkflowRun whose Get blocks for the result. The workflow
		// argument is a registered function or a workflow type name.
		ExecuteWorkflow(ctx context.Context, options StartWorkflowOptions, workflow interface{}, args ...interface{}) (WorkflowRun, error)

		// GetWorkflow retrieves a handle to an existing workflow
		// execution. An empty runID targets the latest run.
		GetWorkflow(ctx context.Context, workflowID string, runID string) WorkflowRun

		// SignalWorkflow sends a signal to a running workflow execution.
		SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error

		// SignalWithStartWorkflow sends a signal to the workflow,
		// starting it first if it is not running. The signal is
		// delivered within the same transaction as the start.
		SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{},
			options StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (WorkflowRun, error)

		// CancelWorkflow requests cooperative cancellation of a workflow
		// execution. The workflow observes the request and may run
		// cleanup before completing.
		CancelWorkflow(ctx context.Context, workflowID string, runID string) error

		// TerminateWorkflow force-closes a workflow execution without
		// giving workflow code a chance to react.
		TerminateWorkflow(ctx context.Context, workflowID string, runID string, reason string, details ...interface{}) error

		// GetWorkflowHistory returns an iterator over history events.
		// With isLongPoll the iteration tracks new events until the run
		// closes; filterType may restrict it to the close event.
		GetWorkflowHistory(ctx context.Context, workflowID string, runID string, isLongPoll bool, filterType bridge.HistoryEventFilterType) HistoryEventIterator

		// QueryWorkflow runs a synchronous read against a workflow
		// execution's registered query handler and returns its decoded
		// result.
		QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.Values, error)

		// DescribeWorkflowExecution returns execution metadata and
		// pending-work state for one run.
		DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*bridge.DescribeWorkflowExecutionResponse, error)

		// UpdateWorkflow starts an update and waits for it to reach
		// options.WaitForStage, returning a handle to await the rest.
		UpdateWorkflow(ctx context.Context, options UpdateWorkflowOptions) (UpdateHandle, error)

		// GetWorkflowUpdateHandle rebuilds a handle for a previously
		// started update without any RPC.
		GetWorkflowUpdateHandle(ref UpdateRef) UpdateHandle

		// ListWorkflow returns an iterator over executions matching the
		// visibility query string.
		ListWorkflow(ctx context.Context, query string) WorkflowExecutionIterator

		// CountWorkflow returns the number of executions matching the
		// visibility query string.
		CountWorkflow(ctx context.Context, query string) (int64, error)

		// GetSearchAttributes returns the valid search attribute keys
		// and their value types.
		GetSearchAttributes(ctx context.Context) (*bridge.GetSearchAttributesResponse, error)

		// CompleteActivity reports an asynchronously completing activity
		// as done. A nil err completes it; a *CancelledError reports
		// cancellation; anything else fails it.
		CompleteActivity(ctx context.Context, taskToken []byte, result interface{}, err error) error

		// CompleteActivityByID is CompleteActivity addressed by
		// workflow ID, run ID, and activity ID instead of a task token.
		CompleteActivityByID(ctx context.Context, namespace, workflowID, runID, activityID string, result interface{}, err error) error

		// RecordActivityHeartbeat records heartbeat details for an
		// activity completing asynchronously. It returns a
		// *CancelledError if the server has requested cancellation; the
		// caller acknowledges by completing with that error.
		RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details ...interface{}) error

		// RecordActivityHeartbeatByID is RecordActivityHeartbeat
		// addressed by IDs.
		RecordActivityHeartbeatByID(ctx context.Context, namespace, workflowID, runID, activityID string, details ...interface{}) error

		// ScheduleClient returns the schedule admin surface.
		ScheduleClient() ScheduleClient

		// Close frees the underlying service connection.
		Close() error
	}

	// NamespaceClient manages namespaces, the server's logical partitions.
	NamespaceClient interface {
		Register(ctx context.Context, request *bridge.RegisterNamespaceRequest) error
		Describe(ctx context.Context, name string) (*bridge.DescribeNamespaceResponse, error)
		Update(ctx context.Context, request *bridge.UpdateNamespaceRequest) error
		List(ctx context.Context, pageSize int32) ([]*bridge.DescribeNamespaceResponse, error)
		Close() error
	}

	// WorkflowRun represents one started workflow execution.
	WorkflowRun interface {
		// GetID returns the workflow ID.
		GetID() string
		// GetRunID returns the run ID of the first started run; a run
		// that continues as new keeps reporting the first run ID.
		GetRunID() string
		// Get blocks until the run closes and decodes its result into
		// valuePtr, following continue-as-new and retry chains.
		Get(ctx context.Context, valuePtr interface{}) error
		// GetWithOptions is Get with run-following control.
		GetWithOptions(ctx context.Context, valuePtr interface{}, options WorkflowRunGetOptions) error
	}

	// WorkflowRunGetOptions controls WorkflowRun.GetWithOptions.
	WorkflowRunGetOptions struct {
		// DisableFollowingRuns stops result fetching at the first run:
		// a continue-as-new surfaces as *WorkflowContinuedAsNewError
		// instead of being chased to the chain's final result.
		DisableFollowingRuns bool
	}

	// HistoryEventIterator iterates history events across page fetches.
	HistoryEventIterator interface {
		HasNext() bool
		Next() (*bridge.HistoryEvent, error)
	}

	// WorkflowExecutionIterator iterates visibility list results across
	// page fetches.
	WorkflowExecutionIterator interface {
		HasNext() bool
		Next() (*bridge.WorkflowExecutionInfo, error)
	}

	// UpdateRef identifies a workflow execution update.
	UpdateRef struct {
		WorkflowExecution bridge.WorkflowExecution
		UpdateID          string
	}

	// UpdateHandle can await the outcome of a started update.
	UpdateHandle interface {
		// WorkflowID of the targeted execution.
		WorkflowID() string
		// RunID of the targeted execution, if pinned.
		RunID() string
		// UpdateID of the update.
		UpdateID() string
		// Get blocks until the update completes, decoding its result
		// into valuePtr or returning its failure.
		Get(ctx context.Context, valuePtr interface{}) error
	}

	// UpdateWorkflowOptions configures Client.UpdateWorkflow.
	UpdateWorkflowOptions struct {
		WorkflowID string
		RunID      string
		// UpdateID deduplicates the update; generated when empty.
		UpdateID   string
		UpdateName string
		Args       []interface{}
		// WaitForStage is how far the server must progress the update
		// before UpdateWorkflow returns; defaults to accepted.
		WaitForStage bridge.UpdateWorkflowExecutionLifecycleStage
	}

	// StartWorkflowOptions configures one workflow start.
	StartWorkflowOptions struct {
		// ID is the business identifier of the workflow execution,
		// defaulted to a uuid.
		ID string

		// TaskQueue the workflow's tasks are scheduled on. Required.
		TaskQueue string

		// WorkflowExecutionTimeout bounds the whole execution including
		// retries and continue-as-new. Unlimited when zero.
		WorkflowExecutionTimeout time.Duration

		// WorkflowRunTimeout bounds a single run. Unlimited when zero.
		WorkflowRunTimeout time.Duration

		// WorkflowTaskTimeout bounds processing of a single workflow
		// task from the time the worker pulled it. Defaults to 10s.
		WorkflowTaskTimeout time.Duration

		// WorkflowIDReusePolicy gates reuse of the ID after a previous
		// execution closed. Defaults to AllowDuplicateFailedOnly.
		WorkflowIDReusePolicy bridge.WorkflowIDReusePolicy

		// WorkflowIDConflictPolicy resolves collision with a still
		// running execution of the same ID.
		WorkflowIDConflictPolicy bridge.WorkflowIDConflictPolicy

		// RetryPolicy makes the server restart the whole execution on
		// failure.
		RetryPolicy *bridge.RetryPolicy

		// CronSchedule turns the workflow into a cron workflow; the
		// next run is scheduled after the current one closes. UTC.
		CronSchedule string

		// Memo is non-indexed info shown when listing workflows.
		Memo map[string]interface{}

		// SearchAttributes is indexed info usable in visibility
		// queries; keys must be registered on the server.
		SearchAttributes map[string]interface{}

		// StartDelay delays the first workflow task. Incompatible with
		// CronSchedule.
		StartDelay time.Duration

		// EnableEagerStart requests handing the first workflow task
		// directly to a colocated worker, skipping one poll round trip.
		EnableEagerStart bool
	}

	// ClientOptions are optional parameters for Client creation.
	ClientOptions struct {
		// HostPort to dial when Service is not supplied.
		// default: localhost:7233
		HostPort string

		// Namespace is the server partition every call targets.
		// default: "default"
		Namespace string

		// Identity tracks this process in server-side introspection.
		// default: hostname and pid based
		Identity string

		// APIKey is sent as a bearer token on every call when set.
		APIKey string

		// Logger for client-side log output.
		// default: a no-op zap logger
		Logger *zap.Logger

		// MetricsScope receives client request metrics.
		// default: no metrics
		MetricsScope tally.Scope

		// DataConverter customizes argument and result serialization.
		DataConverter converter.DataConverter

		// FailureConverter customizes error-to-failure mapping.
		FailureConverter temporal.FailureConverter

		// Tracer enables the default tracing interceptor.
		// default: no tracer
		Tracer opentracing.Tracer

		// Interceptors wrap every outbound operation, innermost last.
		Interceptors []ClientInterceptor

		// GRPCDialer overrides connection establishment for the
		// concrete service client.
		GRPCDialer rpc.GRPCDialer

		// Service plugs in the concrete server binding directly,
		// bypassing the dialer. Used by tests and custom transports.
		Service bridge.WorkflowService
	}

	// ScheduleClient is the schedule admin surface: thin calls over the
	// service's schedule RPCs plus client-side spec validation.
	ScheduleClient interface {
		Create(ctx context.Context, options ScheduleOptions) (ScheduleHandle, error)
		GetHandle(scheduleID string) ScheduleHandle
		List(ctx context.Context) ScheduleListIterator
	}

	// ScheduleListIterator iterates schedule list entries across pages.
	ScheduleListIterator interface {
		HasNext() bool
		Next() (*bridge.ScheduleListEntry, error)
	}

	// ScheduleHandle operates on one schedule.
	ScheduleHandle interface {
		GetID() string
		Describe(ctx context.Context) (*bridge.DescribeScheduleResponse, error)
		Update(ctx context.Context, options ScheduleUpdateOptions) error
		Trigger(ctx context.Context, overlap bridge.ScheduleOverlapPolicy) error
		Backfill(ctx context.Context, start, end time.Time, overlap bridge.ScheduleOverlapPolicy) error
		Pause(ctx context.Context, note string) error
		Unpause(ctx context.Context, note string) error
		Delete(ctx context.Context) error
	}

	// ScheduleOptions configures ScheduleClient.Create.
	ScheduleOptions struct {
		ID                 string
		Spec               bridge.ScheduleSpec
		Action             *bridge.ScheduleAction
		Overlap            bridge.ScheduleOverlapPolicy
		CatchupWindow      time.Duration
		PauseOnFailure     bool
		Note               string
		Paused             bool
		TriggerImmediately bool
		Memo               map[string]interface{}
		SearchAttributes   map[string]interface{}
	}

	// ScheduleUpdateOptions carries the replacement schedule for
	// ScheduleHandle.Update.
	ScheduleUpdateOptions struct {
		Schedule      *bridge.Schedule
		ConflictToken []byte
	}
)

// DialConnection establishes the gRPC connection a concrete service
// binding runs over, carrying the required metrics and header
// interceptors. The binding itself is deployment-specific; this is the one
// transport wiring point the client owns.
func DialConnection(options ClientOptions) (*grpc.ClientConn, error) {
	hostPort := options.HostPort
	if hostPort == "" {
		hostPort = rpc.LocalHostPort
	}
	dialer := options.GRPCDialer
	if dialer == nil {
		dialer = rpc.DefaultGRPCDialer
	}
	return dialer(rpc.GRPCDialerParams{
		HostPort: hostPort,
		RequiredInterceptors: rpc.RequiredInterceptors(options.MetricsScope, rpc.HeaderValues{
			ClientName:    SDKName,
			ClientVersion: SDKVersion,
			Identity:      options.Identity,
			AuthToken:     options.APIKey,
		}),
		DefaultServiceConfig: rpc.DefaultServiceConfig,
	})
}

// NewServiceClient creates a Client over an already constructed service
// binding.
func NewServiceClient(service bridge.WorkflowService, options ClientOptions) Client {
	if options.Namespace == "" {
		options.Namespace = "default"
	}
	if options.Identity == "" {
		options.Identity = defaultIdentity()
	}
	if options.DataConverter == nil {
		options.DataConverter = converter.DefaultDataConverter
	}
	if options.FailureConverter == nil {
		options.FailureConverter = temporal.NewDefaultFailureConverter(options.DataConverter, false)
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	c := &workflowClient{
		service:          service,
		namespace:        options.Namespace,
		identity:         options.Identity,
		dataConverter:    options.DataConverter,
		failureConverter: options.FailureConverter,
		logger:           options.Logger,
		metricsScope:     metrics.NewTaggedScope(options.MetricsScope),
	}

	// options.Tracer is consumed by the public client constructor, which
	// prepends the tracing interceptor from the interceptor package; the
	// chain below only sees the resulting Interceptors slice.
	interceptors := options.Interceptors
	var outbound ClientOutboundInterceptor = &clientOutboundImpl{client: c}
	for i := len(interceptors) - 1; i >= 0; i-- {
		outbound = interceptors[i].InterceptClient(outbound)
	}
	c.interceptor = outbound
	return c
}

// NewNamespaceClient creates a NamespaceClient over an already constructed
// service binding.
func NewNamespaceClient(service bridge.WorkflowService, options ClientOptions) NamespaceClient {
	if options.Identity == "" {
		options.Identity = defaultIdentity()
	}
	return &namespaceClient{service: service, identity: options.Identity}
}

type namespaceClient struct {
	service  bridge.WorkflowService
	identity string
}

func (nc *namespaceClient) Register(ctx context.Context, request *bridge.RegisterNamespaceRequest) error {
	return nc.service.RegisterNamespace(ctx, request)
}

func (nc *namespaceClient) Describe(ctx context.Context, name string) (*bridge.DescribeNamespaceResponse, error) {
	return nc.service.DescribeNamespace(ctx, name)
}

func (nc *namespaceClient) Update(ctx context.Context, request *bridge.UpdateNamespaceRequest) error {
	return nc.service.UpdateNamespace(ctx, request)
}

func (nc *namespaceClient) List(ctx context.Context, pageSize int32) ([]*bridge.DescribeNamespaceResponse, error) {
	it := paginate.NewIterator(ctx, func(ctx context.Context, token []byte) ([]*bridge.DescribeNamespaceResponse, []byte, error) {
		resp, err := nc.service.ListNamespaces(ctx, &bridge.ListNamespacesRequest{PageSize: pageSize, NextPageToken: token})
		if err != nil {
			return nil, nil, err
		}
		return resp.Namespaces, resp.NextPageToken, nil
	})
	var out []*bridge.DescribeNamespaceResponse
	for it.HasNext() {
		ns, err := it.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, nil
}

func (nc *namespaceClient) Close() error { return nc.service.Close() }
