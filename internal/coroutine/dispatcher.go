package coroutine

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Dispatcher runs a tree of coroutines cooperatively, one at a time, until
// all of them are blocked. A workflow task is processed by creating one
// Dispatcher per run and calling ExecuteUntilAllBlocked once per activation.
type Dispatcher interface {
	// ExecuteUntilAllBlocked resumes every runnable coroutine in turn until
	// none of them can make further progress. Returns the error recovered
	// from a coroutine panic, if any.
	ExecuteUntilAllBlocked() error
	// IsDone reports whether the root coroutine has returned.
	IsDone() bool
	// Close releases every still-running coroutine, unwinding it out of
	// its pending Send/Receive/Select. Used when a workflow run is evicted.
	Close()
	// StackTrace renders one pseudo-stack-frame per still-blocked
	// coroutine, for diagnostics.
	StackTrace() string
}

type coroutineState struct {
	dispatcher   *dispatcherImpl
	name         string
	id           int64
	aboutToBlock chan struct{} // coroutine -> dispatcher: "I'm about to block or I'm done"
	unblock      chan struct{} // dispatcher -> coroutine: "your turn"
	done         bool
	blockedOn    string
	panicValue   interface{}
	closing      bool
}

func (s *coroutineState) yield(reason string) {
	s.blockedOn = reason
	s.aboutToBlock <- struct{}{}
	<-s.unblock
	if s.closing {
		panic(errCoroutineClosing)
	}
}

// errCoroutineClosing is used internally to unwind a coroutine's stack when
// its Dispatcher is Close()d; it is never surfaced as a workflow error.
var errCoroutineClosing = fmt.Errorf("coroutine dispatcher closed")

type dispatcherImpl struct {
	mu         sync.Mutex
	coroutines []*coroutineState
	sequence   int64
	progress   int64
	executing  bool
	closed     bool
}

// NewDispatcher creates a Dispatcher whose root coroutine runs fn with a
// Context derived from root.
func NewDispatcher(root Context, fn func(ctx Context)) (Dispatcher, Context) {
	d := &dispatcherImpl{}
	ctx := d.newCoroutine(root, "root", fn)
	return d, ctx
}

func (d *dispatcherImpl) newCoroutine(parent Context, name string, fn func(ctx Context)) Context {
	d.mu.Lock()
	d.sequence++
	id := d.sequence
	if name == "" {
		name = fmt.Sprintf("%v", id)
	}
	cs := &coroutineState{
		dispatcher:   d,
		name:         name,
		id:           id,
		aboutToBlock: make(chan struct{}),
		unblock:      make(chan struct{}),
	}
	ctx := &markerContext{Context: parent, state: cs}
	d.coroutines = append(d.coroutines, cs)
	atomic.AddInt64(&d.progress, 1)
	d.mu.Unlock()

	go func() {
		<-cs.unblock
		defer func() {
			if r := recover(); r != nil {
				if r != errCoroutineClosing {
					cs.panicValue = r
				}
			}
			d.mu.Lock()
			cs.done = true
			d.mu.Unlock()
			close(cs.aboutToBlock)
		}()
		fn(ctx)
	}()

	return ctx
}

// Go starts a child coroutine under ctx's dispatcher.
func Go(ctx Context, fn func(ctx Context)) {
	GoNamed(ctx, "", fn)
}

// GoNamed starts a named child coroutine, whose name shows up in
// Dispatcher.StackTrace.
func GoNamed(ctx Context, name string, fn func(ctx Context)) {
	cs := getState(ctx)
	if cs == nil {
		panic("coroutine.Go called outside of a running coroutine")
	}
	cs.dispatcher.newCoroutine(ctx, name, fn)
}

func (d *dispatcherImpl) ExecuteUntilAllBlocked() (err error) {
	d.mu.Lock()
	if d.executing {
		d.mu.Unlock()
		panic("ExecuteUntilAllBlocked called recursively")
	}
	d.executing = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.executing = false
		d.mu.Unlock()
	}()

	for {
		before := atomic.LoadInt64(&d.progress)

		d.mu.Lock()
		coroutines := make([]*coroutineState, len(d.coroutines))
		copy(coroutines, d.coroutines)
		d.mu.Unlock()

		for _, cs := range coroutines {
			if cs.done {
				continue
			}
			cs.unblock <- struct{}{}
			<-cs.aboutToBlock
			if cs.panicValue != nil {
				return &WorkflowPanicError{Value: cs.panicValue, stack: cs.name}
			}
		}

		after := atomic.LoadInt64(&d.progress)
		if after == before {
			return nil
		}
	}
}

func (d *dispatcherImpl) IsDone() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cs := range d.coroutines {
		if !cs.done {
			return false
		}
	}
	return true
}

func (d *dispatcherImpl) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	coroutines := make([]*coroutineState, len(d.coroutines))
	copy(coroutines, d.coroutines)
	d.mu.Unlock()

	for _, cs := range coroutines {
		if cs.done {
			continue
		}
		cs.closing = true
		cs.unblock <- struct{}{}
	}
}

func (d *dispatcherImpl) StackTrace() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := ""
	for _, cs := range d.coroutines {
		if cs.done {
			continue
		}
		out += fmt.Sprintf("coroutine %v [blocked on %v]\n", cs.name, cs.blockedOn)
	}
	return out
}

// WorkflowPanicError wraps a value recovered from a panicking coroutine.
type WorkflowPanicError struct {
	Value interface{}
	stack string
}

func (e *WorkflowPanicError) Error() string { return fmt.Sprintf("%v", e.Value) }

// StackTrace identifies which coroutine panicked.
func (e *WorkflowPanicError) StackTrace() string { return e.stack }
