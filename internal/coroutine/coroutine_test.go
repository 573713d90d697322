package coroutine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requireDispatcher(t *testing.T, fn func(ctx Context)) Dispatcher {
	t.Helper()
	d, _ := NewDispatcher(Background(), fn)
	t.Cleanup(d.Close)
	return d
}

func TestDispatcherRunsRootToCompletion(t *testing.T) {
	var history []string
	d := requireDispatcher(t, func(ctx Context) {
		history = append(history, "root")
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	assert.True(t, d.IsDone())
	assert.Equal(t, []string{"root"}, history)
}

func TestDispatcherInterleavesCoroutinesDeterministically(t *testing.T) {
	run := func() []string {
		var history []string
		d, _ := NewDispatcher(Background(), func(ctx Context) {
			c1 := NewChannel(ctx)
			c2 := NewChannel(ctx)
			Go(ctx, func(ctx Context) {
				var v string
				c1.Receive(ctx, &v)
				history = append(history, "received "+v)
				c2.Send(ctx, "from-child")
			})
			history = append(history, "root sending")
			c1.Send(ctx, "to-child")
			var v string
			c2.Receive(ctx, &v)
			history = append(history, "received "+v)
		})
		defer d.Close()
		require.NoError(t, d.ExecuteUntilAllBlocked())
		require.True(t, d.IsDone())
		return history
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "schedule must be replay-stable")
	assert.Equal(t, []string{"root sending", "received to-child", "received from-child"}, first)
}

func TestBufferedChannelSendAsync(t *testing.T) {
	d := requireDispatcher(t, func(ctx Context) {
		ch := NewBufferedChannel(ctx, 2)
		assert.True(t, ch.SendAsync("a"))
		assert.True(t, ch.SendAsync("b"))
		assert.False(t, ch.SendAsync("c"), "full buffer must reject async send")
		assert.Equal(t, 2, ch.Len())

		var v string
		require.True(t, ch.ReceiveAsync(&v))
		assert.Equal(t, "a", v)
		require.True(t, ch.ReceiveAsync(&v))
		assert.Equal(t, "b", v)
		require.False(t, ch.ReceiveAsync(&v))
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
}

func TestChannelCloseDrainsThenReportsNoMore(t *testing.T) {
	var got []string
	var more []bool
	d := requireDispatcher(t, func(ctx Context) {
		ch := NewBufferedChannel(ctx, 2)
		ch.SendAsync("x")
		ch.Close()
		for i := 0; i < 2; i++ {
			var v string
			m := ch.Receive(ctx, &v)
			got = append(got, v)
			more = append(more, m)
		}
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
	assert.Equal(t, []string{"x", ""}, got)
	assert.Equal(t, []bool{true, false}, more)
}

func TestSelectorFiresFirstReadyCase(t *testing.T) {
	var fired string
	d := requireDispatcher(t, func(ctx Context) {
		c1 := NewBufferedChannel(ctx, 1)
		c2 := NewBufferedChannel(ctx, 1)
		c2.SendAsync("ready")

		s := NewSelector(ctx)
		s.AddReceive(c1, func(c Channel, more bool) { fired = "c1" })
		s.AddReceive(c2, func(c Channel, more bool) { fired = "c2" })
		s.Select(ctx)
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
	assert.Equal(t, "c2", fired)
}

func TestSelectorDefault(t *testing.T) {
	var fired string
	d := requireDispatcher(t, func(ctx Context) {
		c1 := NewBufferedChannel(ctx, 1)
		s := NewSelector(ctx)
		s.AddReceive(c1, func(c Channel, more bool) { fired = "c1" })
		s.AddDefault(func() { fired = "default" })
		s.Select(ctx)
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
	assert.Equal(t, "default", fired)
}

func TestSelectorBlocksUntilReady(t *testing.T) {
	var fired string
	d := requireDispatcher(t, func(ctx Context) {
		ch := NewChannel(ctx)
		Go(ctx, func(ctx Context) {
			ch.Send(ctx, "late")
		})
		s := NewSelector(ctx)
		s.AddReceive(ch, func(c Channel, more bool) {
			var v string
			fired = "got"
			_ = v
		})
		s.Select(ctx)
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
	assert.Equal(t, "got", fired)
}

func TestDispatcherPanicSurfacesAsError(t *testing.T) {
	d := requireDispatcher(t, func(ctx Context) {
		panic("workflow code exploded")
	})
	err := d.ExecuteUntilAllBlocked()
	require.Error(t, err)
	var wpe *WorkflowPanicError
	require.ErrorAs(t, err, &wpe)
	assert.Equal(t, "workflow code exploded", wpe.Error())
}

func TestDispatcherCloseUnblocksBlockedCoroutines(t *testing.T) {
	d, _ := NewDispatcher(Background(), func(ctx Context) {
		ch := NewChannel(ctx)
		var v string
		ch.Receive(ctx, &v) // blocks forever
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.False(t, d.IsDone())
	assert.Contains(t, d.StackTrace(), "Receive")
	d.Close()
}

func TestContextCancellation(t *testing.T) {
	var observed error
	d := requireDispatcher(t, func(ctx Context) {
		child, cancel := WithCancel(ctx)
		Go(ctx, func(ctx Context) {
			var discard interface{}
			child.Done().Receive(ctx, &discard)
			observed = child.Err()
		})
		cancel()
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
	assert.Equal(t, ErrCanceled, observed)
}

func TestContextValuePropagation(t *testing.T) {
	type key struct{}
	var got interface{}
	d := requireDispatcher(t, func(ctx Context) {
		ctx = WithValue(ctx, key{}, "inherited")
		Go(ctx, func(ctx Context) {
			got = ctx.Value(key{})
		})
	})
	require.NoError(t, d.ExecuteUntilAllBlocked())
	require.True(t, d.IsDone())
	assert.Equal(t, "inherited", got)
}
