// Package worker manages the lifecycle of a client-side worker: the poll
// loops, the sticky workflow cache, and the registries of workflow and
// activity implementations it hosts.
package worker

import (
	"go.flowcore.dev/sdk/internal"
	"go.flowcore.dev/sdk/internal/bridge"
)

type (
	// Worker hosts workflow and activity implementations and polls the
	// server for work on one task queue.
	Worker interface {
		// RegisterWorkflow registers a workflow function under its
		// unqualified function name.
		RegisterWorkflow(w interface{})
		// RegisterWorkflowWithOptions registers a workflow function
		// under an explicit type name.
		RegisterWorkflowWithOptions(w interface{}, options RegisterWorkflowOptions)
		// RegisterActivity registers an activity function, or every
		// exported method of a struct pointer, as activities.
		RegisterActivity(a interface{})
		// RegisterActivityWithOptions registers an activity function
		// under an explicit type name.
		RegisterActivityWithOptions(a interface{}, options RegisterActivityOptions)
		// Start starts the worker in a non-blocking fashion.
		Start() error
		// Run is a blocking Start that cleans up on interruptCh; it
		// returns an error only if the worker fails to start.
		Run(interruptCh <-chan interface{}) error
		// Stop cleans up any resources opened by the worker.
		Stop()
	}

	// Options configures a worker instance.
	Options = internal.WorkerExecutionParameters

	// RegisterWorkflowOptions configures workflow registration.
	RegisterWorkflowOptions = internal.RegisterWorkflowOptions

	// RegisterActivityOptions configures activity registration.
	RegisterActivityOptions = internal.RegisterActivityOptions

	// BridgeWorker is the server-facing half the worker polls against.
	BridgeWorker = bridge.BridgeWorker
)

// InterruptCh returns a channel that closes on SIGINT/SIGTERM, for use
// with Worker.Run.
func InterruptCh() <-chan interface{} { return internal.InterruptCh() }

type aggregatedWorker struct {
	*internal.AggregatedWorker
}

func (w *aggregatedWorker) RegisterWorkflow(wf interface{}) { internal.RegisterWorkflow(wf) }

func (w *aggregatedWorker) RegisterWorkflowWithOptions(wf interface{}, options RegisterWorkflowOptions) {
	internal.RegisterWorkflowWithOptions(wf, options)
}

func (w *aggregatedWorker) RegisterActivity(a interface{}) { internal.RegisterActivity(a) }

func (w *aggregatedWorker) RegisterActivityWithOptions(a interface{}, options RegisterActivityOptions) {
	internal.RegisterActivityWithOptions(a, options)
}

// New creates a worker polling bridgeWorker for the task queue named in
// options.
func New(bridgeWorker BridgeWorker, options Options) Worker {
	return &aggregatedWorker{internal.NewAggregatedWorker(bridgeWorker, options)}
}
