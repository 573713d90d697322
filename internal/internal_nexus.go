package internal

import (
	"fmt"
	"time"

	"go.flowcore.dev/sdk/internal/bridge"
)

// NexusOperationOptions are options for starting a nexus operation from a
// workflow.
type NexusOperationOptions struct {
	ScheduleToCloseTimeout time.Duration
}

// NexusOperationExecution is the started state of a nexus operation,
// available once the server acknowledges the schedule command.
type NexusOperationExecution struct {
	// OperationToken identifies an asynchronous operation on the handler;
	// empty for operations that completed synchronously.
	OperationToken string
}

// NexusOperationFuture represents the eventual result of a nexus operation.
type NexusOperationFuture interface {
	Future
	// GetNexusOperationExecution returns a Future that resolves with a
	// NexusOperationExecution once the operation has been started,
	// before its result is known.
	GetNexusOperationExecution() Future
}

type nexusOperationFutureImpl struct {
	Future
	executionFuture Future
}

func (f *nexusOperationFutureImpl) GetNexusOperationExecution() Future { return f.executionFuture }

// NexusClient invokes operations on a single nexus endpoint/service pair
// from workflow code.
type NexusClient interface {
	// ExecuteOperation schedules the operation and returns a future for
	// its result. The operation argument can be a string or a
	// nexus.OperationReference.
	ExecuteOperation(ctx Context, operation interface{}, input interface{}, opts NexusOperationOptions) NexusOperationFuture

	Endpoint() string
	Service() string
}

type nexusClient struct {
	endpoint string
	service  string
}

// NewNexusClient creates a client for the given endpoint and service.
func NewNexusClient(endpoint, service string) NexusClient {
	if endpoint == "" || service == "" {
		panic("internal: nexus endpoint and service are both required")
	}
	return &nexusClient{endpoint: endpoint, service: service}
}

func (c *nexusClient) Endpoint() string { return c.endpoint }
func (c *nexusClient) Service() string  { return c.service }

func (c *nexusClient) ExecuteOperation(ctx Context, operation interface{}, input interface{}, opts NexusOperationOptions) NexusOperationFuture {
	var name string
	switch op := operation.(type) {
	case string:
		name = op
	case interface{ Name() string }:
		// Covers nexus OperationReference values and registered operation
		// implementations alike.
		name = op.Name()
	default:
		panic(fmt.Sprintf("internal: unsupported nexus operation reference type %T", operation))
	}
	return getWorkflowOutbound(ctx).ExecuteNexusOperation(ctx, ExecuteNexusOperationInput{
		Endpoint:  c.endpoint,
		Service:   c.service,
		Operation: name,
		Input:     input,
		Options:   opts,
	})
}

func nexusCommandOptions(in ExecuteNexusOperationInput) bridge.NexusOperationOptions {
	return bridge.NexusOperationOptions{
		Endpoint:               in.Endpoint,
		Service:                in.Service,
		Operation:              in.Operation,
		ScheduleToCloseTimeout: in.Options.ScheduleToCloseTimeout,
	}
}

