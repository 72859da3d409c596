package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
	jsonenc "github.com/beka-birhanu/vinom-lab/game/json_encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

var errClosed = errors.New("closed")

type fakeConn struct {
	in         chan []byte
	written    chan []byte
	closed     chan struct{}
	closeOnce  sync.Once
	closeCount atomic.Int32
	closeGate  chan struct{} // When set, Close blocks until it is closed.
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan []byte, 16),
		written: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.in:
		return m, nil
	case <-c.closed:
		return nil, errClosed
	}
}

func (c *fakeConn) WriteMessage(b []byte) error {
	select {
	case <-c.closed:
		return errClosed
	default:
	}
	c.written <- b
	return nil
}

func (c *fakeConn) Close() error {
	c.closeCount.Add(1)
	if c.closeGate != nil {
		<-c.closeGate
	}
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type fakeTransport struct {
	mu    sync.Mutex
	dials []string
	conns chan *fakeConn
	err   error
	block bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{conns: make(chan *fakeConn, 16)}
}

func (t *fakeTransport) Dial(ctx context.Context, addr string) (Conn, error) {
	t.mu.Lock()
	t.dials = append(t.dials, addr)
	err, block := t.err, t.block
	t.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	c := newFakeConn()
	t.conns <- c
	return c, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dials)
}

func newTestBridge(t *testing.T, tr *fakeTransport, options ...Option) *Bridge {
	t.Helper()
	b, err := New(Config{Transport: tr, Encoder: &jsonenc.JSON{}}, options...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func connect(t *testing.T, b *Bridge, tr *fakeTransport, addr string) *fakeConn {
	t.Helper()
	b.Connect(addr)
	require.Eventually(t, b.Connected, waitFor, tick)
	select {
	case c := <-tr.conns:
		return c
	case <-time.After(waitFor):
		t.Fatal("no connection dialed")
		return nil
	}
}

func TestNew(t *testing.T) {
	_, err := New(Config{Encoder: &jsonenc.JSON{}})
	assert.ErrorIs(t, err, ErrNilTransport)

	_, err = New(Config{Transport: newFakeTransport()})
	assert.ErrorIs(t, err, ErrNilEncoder)
}

func TestConnectionLifecycle(t *testing.T) {
	t.Run("connect moves through connecting to connected", func(t *testing.T) {
		var mu sync.Mutex
		var transitions []string
		tr := newFakeTransport()
		b := newTestBridge(t, tr, WithStateChangeHandler(func(from, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, from.String()+"->"+to.String())
		}))

		assert.Equal(t, Disconnected, b.State())
		connect(t, b, tr, "ws://agent")
		b.Close()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"disconnected->connecting", "connecting->connected", "connected->disconnected"}, transitions)
	})

	t.Run("same address while open is a no-op", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		connect(t, b, tr, "ws://agent")
		b.Connect("ws://agent")
		b.SetAddress("ws://agent")

		assert.Equal(t, 1, tr.dialCount())
		assert.True(t, b.Connected())
	})

	t.Run("address change closes the old connection first", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		old := connect(t, b, tr, "ws://one")
		fresh := connect(t, b, tr, "ws://two")

		assert.Equal(t, int32(1), old.closeCount.Load())
		assert.Equal(t, int32(0), fresh.closeCount.Load())
		assert.Equal(t, "ws://two", b.Addr())
		assert.Equal(t, 2, tr.dialCount())
	})

	t.Run("dial failure leaves the bridge disconnected", func(t *testing.T) {
		tr := newFakeTransport()
		tr.err = errors.New("refused")
		b := newTestBridge(t, tr)

		b.Connect("ws://agent")
		require.Eventually(t, func() bool { return b.State() == Disconnected }, waitFor, tick)

		tr.mu.Lock()
		tr.err = nil
		tr.mu.Unlock()
		connect(t, b, tr, "ws://agent")
		assert.Equal(t, 2, tr.dialCount())
	})

	t.Run("dial timeout expires to disconnected and can be retried", func(t *testing.T) {
		tr := newFakeTransport()
		tr.block = true
		b := newTestBridge(t, tr, WithDialTimeout(20*time.Millisecond))

		b.Connect("ws://slow")
		assert.Equal(t, Connecting, b.State())
		require.Eventually(t, func() bool { return b.State() == Disconnected }, waitFor, tick)

		b.Connect("ws://slow")
		require.Eventually(t, func() bool { return tr.dialCount() == 2 }, waitFor, tick)
	})

	t.Run("close during a pending dial wins", func(t *testing.T) {
		tr := newFakeTransport()
		tr.block = true
		b := newTestBridge(t, tr, WithDialTimeout(0))

		b.Connect("ws://slow")
		b.Close()
		assert.Equal(t, Disconnected, b.State())

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, Disconnected, b.State())
	})

	t.Run("remote close moves to disconnected", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		c := connect(t, b, tr, "ws://agent")
		_ = c.Close()

		require.Eventually(t, func() bool { return b.State() == Disconnected }, waitFor, tick)
		assert.Equal(t, "ws://agent", b.Addr())
	})

	t.Run("close is synchronous and idempotent", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		c := connect(t, b, tr, "ws://agent")
		b.Close()
		assert.Equal(t, Disconnected, b.State())
		assert.Empty(t, b.Addr())

		b.Close()
		assert.Equal(t, int32(1), c.closeCount.Load())
	})

	t.Run("empty address closes", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		c := connect(t, b, tr, "ws://agent")
		b.Connect("")
		assert.Equal(t, Disconnected, b.State())
		assert.Equal(t, int32(1), c.closeCount.Load())
	})

	t.Run("redial after a remote close", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		c := connect(t, b, tr, "ws://agent")
		assert.False(t, b.Redial())

		_ = c.Close()
		require.Eventually(t, func() bool { return b.State() == Disconnected }, waitFor, tick)

		assert.True(t, b.Redial())
		require.Eventually(t, b.Connected, waitFor, tick)
		assert.Equal(t, 2, tr.dialCount())
	})

	t.Run("no redial after close", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)

		connect(t, b, tr, "ws://agent")
		b.Close()
		assert.False(t, b.Redial())
		assert.Equal(t, 1, tr.dialCount())
	})
}

func TestSlowTransportClose(t *testing.T) {
	obs := game.Observation{Position: -3, TrialType: "A"}

	// frameLoopCalls runs what one controller step asks of the bridge and fails if it stalls.
	frameLoopCalls := func(t *testing.T, b *Bridge) {
		t.Helper()
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = b.Connected()
			_ = b.TakeAction()
			_ = b.SendObservation(obs)
		}()
		select {
		case <-done:
		case <-time.After(waitFor):
			t.Fatal("frame loop blocked behind a transport close")
		}
	}

	t.Run("close does not hold the state lock", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		gate := make(chan struct{})
		c.closeGate = gate
		closed := make(chan struct{})
		go func() {
			b.Close()
			close(closed)
		}()
		require.Eventually(t, func() bool { return c.closeCount.Load() == 1 }, waitFor, tick)

		frameLoopCalls(t, b)
		assert.Equal(t, Disconnected, b.State())
		assert.False(t, b.SendObservation(obs))

		select {
		case <-closed:
			t.Fatal("Close returned before the transport was released")
		default:
		}

		close(gate)
		select {
		case <-closed:
		case <-time.After(waitFor):
			t.Fatal("Close did not return")
		}
	})

	t.Run("address change does not hold the state lock", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		gate := make(chan struct{})
		c.closeGate = gate
		switched := make(chan struct{})
		go func() {
			b.Connect("ws://other")
			close(switched)
		}()
		require.Eventually(t, func() bool { return c.closeCount.Load() == 1 }, waitFor, tick)

		frameLoopCalls(t, b)
		assert.Equal(t, "ws://other", b.Addr())
		require.Eventually(t, b.Connected, waitFor, tick)

		close(gate)
		select {
		case <-switched:
		case <-time.After(waitFor):
			t.Fatal("Connect did not return")
		}
	})
}

func TestActionSlotLifetime(t *testing.T) {
	t.Run("remote drop empties the slot", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"move":1,"turn":0.5}`)
		c.in <- []byte(`{"type":"RESET"}`)
		require.Eventually(t, func() bool { return b.LastAction().Reset }, waitFor, tick)

		_ = c.Close()
		require.Eventually(t, func() bool { return b.State() == Disconnected }, waitFor, tick)
		assert.Equal(t, game.Action{}, b.LastAction())

		require.True(t, b.Redial())
		require.Eventually(t, b.Connected, waitFor, tick)
		assert.Equal(t, game.Action{}, b.TakeAction())
	})

	t.Run("close empties the slot", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"move":-1,"lick":true}`)
		require.Eventually(t, func() bool { return b.LastAction().Lick }, waitFor, tick)

		b.Close()
		assert.Equal(t, game.Action{}, b.LastAction())
	})
}

func TestInboundMessages(t *testing.T) {
	t.Run("action replaces the whole slot", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"move":1,"turn":0.5,"lick":true}`)
		c.in <- []byte(`{"move":-1}`)

		require.Eventually(t, func() bool { return b.LastAction().Move == -1 }, waitFor, tick)
		assert.Equal(t, game.Action{Move: -1}, b.LastAction())
	})

	t.Run("reset merges onto the last action", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"move":1,"turn":0.5,"lick":false}`)
		c.in <- []byte(`{"type":"RESET"}`)

		require.Eventually(t, func() bool { return b.LastAction().Reset }, waitFor, tick)
		assert.Equal(t, game.Action{Move: 1, Turn: 0.5, Reset: true}, b.LastAction())
	})

	t.Run("a non-reset message clears a pending reset", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"type":"RESET"}`)
		c.in <- []byte(`{"move":0.25}`)

		require.Eventually(t, func() bool { return b.LastAction().Move == 0.25 }, waitFor, tick)
		assert.False(t, b.LastAction().Reset)
	})

	t.Run("take action consumes the reset exactly once", func(t *testing.T) {
		var dropped atomic.Int32
		tr := newFakeTransport()
		b := newTestBridge(t, tr, WithDropHandler(func(error) { dropped.Add(1) }))
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"move":1}`)
		c.in <- []byte(`{"type":"RESET"}`)
		c.in <- []byte(`{"type":"RESET"}`)
		c.in <- []byte(`not json`)
		require.Eventually(t, func() bool { return dropped.Load() == 1 }, waitFor, tick)

		first := b.TakeAction()
		second := b.TakeAction()
		assert.True(t, first.Reset)
		assert.False(t, second.Reset)
		assert.Equal(t, 1.0, second.Move)
	})

	t.Run("malformed payload leaves the last action unchanged", func(t *testing.T) {
		var dropped atomic.Int32
		tr := newFakeTransport()
		b := newTestBridge(t, tr, WithDropHandler(func(error) { dropped.Add(1) }))
		c := connect(t, b, tr, "ws://agent")

		c.in <- []byte(`{"move":0.5,"turn":-0.5,"lick":true}`)
		require.Eventually(t, func() bool { return b.LastAction().Lick }, waitFor, tick)
		before := b.LastAction()

		c.in <- []byte(`{"move":`)
		c.in <- []byte(`null`)
		require.Eventually(t, func() bool { return dropped.Load() == 2 }, waitFor, tick)

		assert.Equal(t, before, b.LastAction())
		assert.True(t, b.Connected())
	})
}

func TestSendObservation(t *testing.T) {
	obs := game.Observation{Position: -10, X: 1, TrialType: "B", Reward: -0.01}

	t.Run("not connected is a silent no-op", func(t *testing.T) {
		b := newTestBridge(t, newFakeTransport())
		assert.False(t, b.SendObservation(obs))
	})

	t.Run("connected writes the observation", func(t *testing.T) {
		tr := newFakeTransport()
		b := newTestBridge(t, tr)
		c := connect(t, b, tr, "ws://agent")

		assert.True(t, b.SendObservation(obs))
		select {
		case data := <-c.written:
			assert.JSONEq(t, `{"position":-10,"x":1,"trialType":"B","reward":-0.01,"done":false}`, string(data))
		case <-time.After(waitFor):
			t.Fatal("observation not written")
		}
	})

	t.Run("mailbox keeps only the latest value", func(t *testing.T) {
		c := &connection{outbox: make(chan []byte, 1), done: make(chan struct{})}
		c.offer([]byte("1"))
		c.offer([]byte("2"))
		c.offer([]byte("3"))

		assert.Len(t, c.outbox, 1)
		assert.Equal(t, []byte("3"), <-c.outbox)
	})
}
