package coroutine

// Selector waits on the first ready case among several channel
// receives/sends, futures, or a default, mirroring Go's select statement
// but over Channel/Future instead of raw chans (condition
// waits build on this for multi-source waits).
type Selector interface {
	AddReceive(c Channel, fn func(c Channel, more bool)) Selector
	AddSend(c Channel, v interface{}, fn func()) Selector
	AddFuture(f Future, fn func(f Future)) Selector
	AddDefault(fn func()) Selector
	// Select blocks until one ready case fires (or the default, if present
	// and nothing else was ready), then runs its callback.
	Select(ctx Context)
}

type selectCase struct {
	tryReceive func() (fired bool)
	trySend    func() (fired bool)
}

type selectorImpl struct {
	name       string
	cases      []selectCase
	defaultFn  func()
}

// NewSelector creates a Selector.
func NewSelector(ctx Context) Selector { return NewNamedSelector(ctx, "") }

// NewNamedSelector creates a Selector with a diagnostic name.
func NewNamedSelector(ctx Context, name string) Selector {
	return &selectorImpl{name: name}
}

func (s *selectorImpl) AddReceive(c Channel, fn func(c Channel, more bool)) Selector {
	s.cases = append(s.cases, selectCase{tryReceive: func() bool {
		impl := c.(*channelImpl)
		if impl.buffer.Len() == 0 && impl.blockedSends.Len() == 0 && !impl.closed {
			return false
		}
		var discard interface{}
		_, more := impl.ReceiveAsyncWithMoreFlag(&discard)
		fn(c, more)
		return true
	}})
	return s
}

func (s *selectorImpl) AddSend(c Channel, v interface{}, fn func()) Selector {
	s.cases = append(s.cases, selectCase{trySend: func() bool {
		if c.SendAsync(v) {
			fn()
			return true
		}
		return false
	}})
	return s
}

func (s *selectorImpl) AddFuture(f Future, fn func(f Future)) Selector {
	s.cases = append(s.cases, selectCase{tryReceive: func() bool {
		if !f.IsReady() {
			return false
		}
		fn(f)
		return true
	}})
	return s
}

func (s *selectorImpl) AddDefault(fn func()) Selector {
	s.defaultFn = fn
	return s
}

func (s *selectorImpl) Select(ctx Context) {
	if s.tryOnce() {
		return
	}
	if s.defaultFn != nil {
		s.defaultFn()
		return
	}
	cs := getState(ctx)
	if cs == nil {
		panic("Select called outside of a running coroutine")
	}
	for !s.tryOnce() {
		cs.yield("on " + s.name + ".Select")
	}
}

func (s *selectorImpl) tryOnce() bool {
	for _, c := range s.cases {
		if c.tryReceive != nil && c.tryReceive() {
			return true
		}
		if c.trySend != nil && c.trySend() {
			return true
		}
	}
	return false
}
