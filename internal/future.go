package internal

import (
	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/coroutine"
)

// Future represents the result of an asynchronous computation (an activity
// invocation, a timer, a child workflow, a signal/update handle, ...). Get
// blocks the calling coroutine until the value is available, converting the
// pending operation's terminal failure into a returned error. This is the
// only kind of suspension point workflow code may observe.
type Future interface {
	// Get blocks until the future is ready, then copies the result into
	// valuePtr (which may be nil to only observe the error). Get does not
	// watch ctx for cancellation itself; a cancelled operation settles its
	// future with the operation's cancellation error.
	Get(ctx Context, valuePtr interface{}) error
	// IsReady reports whether Get would return immediately.
	IsReady() bool
}

// Settable is the resolving half of a Future, returned alongside it by
// NewFuture. Exactly one of Set/SetValue/SetError/Chain may be called, once.
type Settable interface {
	Set(value interface{}, err error)
	SetValue(value interface{})
	SetError(err error)
	Chain(future Future)
}

type futureResult struct {
	value interface{}
	err   error
}

type futureImpl struct {
	channel coroutine.Channel
	result  *futureResult
	ctx     Context
	dc      converter.DataConverter
}

// NewFuture creates a Future/Settable pair. ctx supplies the coroutine
// dispatcher backing the future's internal channel, and (when a workflow
// environment is reachable from it) the DataConverter used to decode a raw
// *bridge.Payload result in Get — so a worker's configured converter, not
// the package default, governs activity/child-workflow results.
func NewFuture(ctx Context) (Future, Settable) {
	f := &futureImpl{channel: coroutine.NewBufferedChannel(ctx, 1), ctx: ctx, dc: converter.DefaultDataConverter}
	if env, _ := ctx.Value(envKey).(*workflowEnvironment); env != nil {
		f.dc = env.dataConverter()
	}
	return f, f
}

func (f *futureImpl) IsReady() bool {
	if f.result != nil {
		return true
	}
	var r futureResult
	if ok, _ := f.channel.ReceiveAsyncWithMoreFlag(&r); ok {
		f.result = &r
		return true
	}
	return false
}

func (f *futureImpl) Get(ctx Context, valuePtr interface{}) error {
	if f.result == nil {
		var r futureResult
		f.channel.Receive(ctx, &r)
		f.result = &r
	}
	if f.result.err != nil {
		return f.result.err
	}
	if valuePtr == nil || f.result.value == nil {
		return nil
	}
	return assignFutureValue(valuePtr, f.result.value, f.dc)
}

func (f *futureImpl) Set(value interface{}, err error) {
	f.channel.SendAsync(futureResult{value: value, err: err})
}

func (f *futureImpl) SetValue(value interface{}) { f.Set(value, nil) }
func (f *futureImpl) SetError(err error)         { f.Set(nil, err) }

// Chain makes f settle with whatever future settles with, once it does.
// Used to forward a child-workflow-start future into the eventual
// child-workflow-result future, and similar two-step resolutions.
func (f *futureImpl) Chain(future Future) {
	Go(f.ctx, func(ctx Context) {
		var v interface{}
		err := future.Get(ctx, &v)
		f.Set(v, err)
	})
}
