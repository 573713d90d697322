package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// directBridge is an in-memory BridgeWorker used by the test workflow
// environment (no live server): a channel pair per stream, one for
// workflow activations and one for activity tasks.
type directBridge struct {
	workflowActivations chan *Activation
	workflowCompletions chan *Completion

	activityTasks       chan *ActivityTask
	activityCompletions chan *ActivityTaskCompletion

	heartbeats      map[string][]*Payload
	heartbeatCounts map[string]int
	mu              sync.Mutex

	shutdownC chan struct{}
	shutdownOnce sync.Once
}

// NewDirectBridge returns a BridgeWorker whose poll/complete calls are
// driven entirely by the caller feeding PushWorkflowActivation /
// PushActivityTask and draining Completions()/ActivityCompletions(). It
// never performs network I/O.
func NewDirectBridge() *directBridge {
	return &directBridge{
		workflowActivations: make(chan *Activation, 1000),
		workflowCompletions: make(chan *Completion, 1000),
		activityTasks:       make(chan *ActivityTask, 1000),
		activityCompletions: make(chan *ActivityTaskCompletion, 1000),
		heartbeats:          make(map[string][]*Payload),
		heartbeatCounts:     make(map[string]int),
		shutdownC:           make(chan struct{}),
	}
}

// NewTaskToken mints an opaque, externally visible activity task token.
func NewTaskToken() []byte { return []byte(uuid.NewString()) }

func (d *directBridge) PushWorkflowActivation(a *Activation) { d.workflowActivations <- a }

// PushActivityTask enqueues t, minting a task token when the caller left
// it empty.
func (d *directBridge) PushActivityTask(t *ActivityTask) {
	if len(t.TaskToken) == 0 {
		t.TaskToken = NewTaskToken()
	}
	d.activityTasks <- t
}
func (d *directBridge) Completions() <-chan *Completion             { return d.workflowCompletions }
func (d *directBridge) ActivityCompletions() <-chan *ActivityTaskCompletion { return d.activityCompletions }

func (d *directBridge) PollWorkflowActivation(ctx context.Context) (*Activation, error) {
	select {
	case a := <-d.workflowActivations:
		return a, nil
	case <-d.shutdownC:
		return nil, ErrBridgeShutdown
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *directBridge) CompleteWorkflowActivation(ctx context.Context, c *Completion) error {
	select {
	case d.workflowCompletions <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *directBridge) PollActivityTask(ctx context.Context) (*ActivityTask, error) {
	select {
	case t := <-d.activityTasks:
		return t, nil
	case <-d.shutdownC:
		return nil, ErrBridgeShutdown
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *directBridge) CompleteActivityTask(ctx context.Context, c *ActivityTaskCompletion) error {
	select {
	case d.activityCompletions <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *directBridge) RecordActivityHeartbeat(ctx context.Context, taskToken []byte, details []*Payload) (*HeartbeatResponse, error) {
	d.mu.Lock()
	d.heartbeats[string(taskToken)] = details
	d.heartbeatCounts[string(taskToken)]++
	d.mu.Unlock()
	return &HeartbeatResponse{}, nil
}

// HeartbeatCount reports how many heartbeats reached the bridge for a task
// token, for coalescing assertions.
func (d *directBridge) HeartbeatCount(taskToken string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.heartbeatCounts[taskToken]
}

// LastHeartbeat returns the latest recorded details for a task token.
func (d *directBridge) LastHeartbeat(taskToken string) []*Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.heartbeats[taskToken]
}

func (d *directBridge) InitiateShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownC) })
}

func (d *directBridge) FinalizeShutdown(ctx context.Context) error { return nil }
