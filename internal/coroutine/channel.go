package coroutine

import "container/list"

// Channel is a deterministic, in-process channel used by workflow code to
// communicate between coroutines; condition and signal waits are built on
// top of it.
type Channel interface {
	// Receive blocks until a value is available or the channel is closed.
	// more is false once the channel is closed and drained.
	Receive(ctx Context, valuePtr interface{}) (more bool)
	// ReceiveAsync returns immediately; ok is false if nothing was buffered.
	ReceiveAsync(valuePtr interface{}) (ok bool)
	// ReceiveAsyncWithMoreFlag also reports whether the channel is closed.
	ReceiveAsyncWithMoreFlag(valuePtr interface{}) (ok bool, more bool)
	// Send blocks until the value is delivered to a receiver (unbuffered)
	// or buffered (buffered channel with room). Panics if the channel is
	// closed.
	Send(ctx Context, v interface{})
	// SendAsync buffers v without blocking if there is room, returning
	// whether it did.
	SendAsync(v interface{}) (ok bool)
	// Close marks the channel closed; further sends panic, pending and
	// future receives observe more=false once buffered values drain.
	Close()
	// Len reports the number of buffered, undelivered values.
	Len() int
}

type receiveCallback struct {
	fn func(v interface{}, more bool) // invoked with the delivered value
}

type channelImpl struct {
	name            string
	size            int
	buffer          *list.List
	blockedSends    *list.List // *sendWaiter
	blockedReceives *list.List // *receiveCallback
	closed          bool
	d               *dispatcherImpl
}

type sendWaiter struct {
	value    interface{}
	accepted bool
}

// NewChannel creates an unbuffered Channel.
func NewChannel(ctx Context) Channel { return NewNamedChannel(ctx, "") }

// NewNamedChannel creates an unbuffered Channel with a name used in
// blocked-coroutine diagnostics.
func NewNamedChannel(ctx Context, name string) Channel {
	return NewNamedBufferedChannel(ctx, name, 0)
}

// NewBufferedChannel creates a Channel that can hold size values without a
// waiting receiver.
func NewBufferedChannel(ctx Context, size int) Channel {
	return NewNamedBufferedChannel(ctx, "", size)
}

// NewNamedBufferedChannel creates a named, buffered Channel.
func NewNamedBufferedChannel(ctx Context, name string, size int) Channel {
	cs := getState(ctx)
	var d *dispatcherImpl
	if cs != nil {
		d = cs.dispatcher
	}
	return &channelImpl{
		name:            name,
		size:            size,
		buffer:          list.New(),
		blockedSends:    list.New(),
		blockedReceives: list.New(),
		d:               d,
	}
}

func (c *channelImpl) progress() {
	if c.d != nil {
		c.d.bumpProgress()
	}
}

func (c *channelImpl) Receive(ctx Context, valuePtr interface{}) (more bool) {
	for {
		if ok, more := c.ReceiveAsyncWithMoreFlag(valuePtr); ok || !more {
			return more
		}
		cs := getState(ctx)
		if cs == nil {
			panic("Receive called outside of a running coroutine")
		}
		done := false
		var result bool
		c.blockedReceives.PushBack(&receiveCallback{fn: func(v interface{}, more bool) {
			if more {
				assignValue(valuePtr, v)
			}
			result = more
			done = true
		}})
		for !done {
			cs.yield("on " + c.name + ".Receive")
		}
		return result
	}
}

func (c *channelImpl) ReceiveAsync(valuePtr interface{}) (ok bool) {
	ok, _ = c.ReceiveAsyncWithMoreFlag(valuePtr)
	return ok
}

func (c *channelImpl) ReceiveAsyncWithMoreFlag(valuePtr interface{}) (ok bool, more bool) {
	if c.buffer.Len() > 0 {
		front := c.buffer.Front()
		c.buffer.Remove(front)
		assignValue(valuePtr, front.Value)
		c.pumpSends()
		return true, true
	}
	if c.blockedSends.Len() > 0 {
		front := c.blockedSends.Front()
		c.blockedSends.Remove(front)
		w := front.Value.(*sendWaiter)
		w.accepted = true
		assignValue(valuePtr, w.value)
		c.progress()
		return true, true
	}
	if c.closed {
		return false, false
	}
	return false, true
}

// pumpSends moves a previously blocked send into the now-available buffer
// slot, if any.
func (c *channelImpl) pumpSends() {
	if c.blockedSends.Len() == 0 {
		return
	}
	if c.buffer.Len() >= c.size {
		return
	}
	front := c.blockedSends.Front()
	c.blockedSends.Remove(front)
	w := front.Value.(*sendWaiter)
	w.accepted = true
	c.buffer.PushBack(w.value)
	c.progress()
}

func (c *channelImpl) Send(ctx Context, v interface{}) {
	if c.closed {
		panic("Send on closed channel " + c.name)
	}
	cs := getState(ctx)
	if cs == nil {
		panic("Send called outside of a running coroutine")
	}

	// Deliver directly to a waiting receiver, if any (unbuffered rendezvous).
	if c.blockedReceives.Len() > 0 {
		front := c.blockedReceives.Front()
		c.blockedReceives.Remove(front)
		front.Value.(*receiveCallback).fn(v, true)
		c.progress()
		return
	}

	if c.buffer.Len() < c.size {
		c.buffer.PushBack(v)
		c.progress()
		return
	}

	w := &sendWaiter{value: v}
	c.blockedSends.PushBack(w)
	elem := c.blockedSends.Back()
	c.progress()
	for !w.accepted {
		if c.closed {
			c.blockedSends.Remove(elem)
			panic("Send on closed channel " + c.name)
		}
		cs.yield("on " + c.name + ".Send")
	}
}

func (c *channelImpl) SendAsync(v interface{}) (ok bool) {
	if c.closed {
		panic("SendAsync on closed channel " + c.name)
	}
	if c.blockedReceives.Len() > 0 {
		front := c.blockedReceives.Front()
		c.blockedReceives.Remove(front)
		front.Value.(*receiveCallback).fn(v, true)
		c.progress()
		return true
	}
	if c.buffer.Len() < c.size {
		c.buffer.PushBack(v)
		c.progress()
		return true
	}
	return false
}

func (c *channelImpl) Close() {
	c.closed = true
	for c.blockedReceives.Len() > 0 {
		front := c.blockedReceives.Front()
		c.blockedReceives.Remove(front)
		front.Value.(*receiveCallback).fn(nil, false)
	}
	c.progress()
}

func (c *channelImpl) Len() int { return c.buffer.Len() }

func assignValue(valuePtr interface{}, v interface{}) {
	if valuePtr == nil {
		return
	}
	if err := assignReflect(valuePtr, v); err != nil {
		panic(err)
	}
}
