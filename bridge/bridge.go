/*
Package bridge owns the single connection to the external decision-maker.

Inbound messages are decoded into a single-slot latest-action store. Outbound observations go through a
depth-1 latest-value mailbox drained by a per-connection writer goroutine. Connection lifecycle is an explicit
state machine over disconnected, connecting and connected. Dialing is asynchronous, so neither Connect nor
SendObservation ever blocks the caller on the network.
*/
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
	logger "github.com/beka-birhanu/vinom-lab/infrastruture/log"
	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
)

var (
	ErrNotConnected = errors.New("bridge is not connected")
	ErrNilTransport = errors.New("nil transport")
	ErrNilEncoder   = errors.New("nil encoder")
)

const (
	defaultDialTimeout = 5 * time.Second
)

// State is the connection state of the bridge.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is one open duplex message channel.
// ReadMessage blocks until a message arrives or the connection fails. Close must tolerate repeated calls.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage([]byte) error
	Close() error
}

// Transport opens connections to an address.
type Transport interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// StateChangeHandler is called on every state transition, with the bridge lock held.
// It must not call back into the Bridge.
type StateChangeHandler func(from, to State)

// DropHandler is called for every inbound message that could not be decoded.
type DropHandler func(error)

type Option func(*Bridge)

// Config holds the required collaborators of a Bridge.
type Config struct {
	Transport Transport    // Opens the connection.
	Encoder   game.Encoder // Wire codec for directives and observations.
}

// Bridge is the environment side of the agent protocol.
type Bridge struct {
	transport     Transport
	encoder       game.Encoder
	logger        general_i.Logger
	dialTimeout   time.Duration
	onStateChange StateChangeHandler
	onDrop        DropHandler

	mu         sync.Mutex
	state      State
	addr       string
	gen        uint64 // Bumped whenever a pending dial must be abandoned.
	conn       *connection
	cancelDial context.CancelFunc

	actionMu sync.Mutex
	action   game.Action
}

// connection bundles a transport handle with its outbound mailbox.
type connection struct {
	conn      Conn
	outbox    chan []byte
	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	loops     sync.WaitGroup
}

// New creates a disconnected bridge.
func New(c Config, options ...Option) (*Bridge, error) {
	if c.Transport == nil {
		return nil, ErrNilTransport
	}
	if c.Encoder == nil {
		return nil, ErrNilEncoder
	}

	b := &Bridge{
		transport:   c.Transport,
		encoder:     c.Encoder,
		dialTimeout: defaultDialTimeout,
	}

	for _, opt := range options {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logger.Discard()
	}
	return b, nil
}

// Connect points the bridge at addr.
//
// An empty addr closes the bridge. The same addr while connecting or connected is a no-op.
// A different addr closes the current connection before the new dial starts.
func (b *Bridge) Connect(addr string) {
	if addr == "" {
		b.Close()
		return
	}

	b.mu.Lock()
	if addr == b.addr && b.state != Disconnected {
		b.mu.Unlock()
		return
	}

	old := b.closeLocked()
	b.addr = addr
	b.startDialLocked()
	b.mu.Unlock()

	if old != nil {
		old.close()
	}
}

// Redial dials the current address again if the bridge dropped or failed to connect.
// It reports false when the bridge is not disconnected or has no address, as after Close.
func (b *Bridge) Redial() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Disconnected || b.addr == "" {
		return false
	}
	b.gen++
	b.startDialLocked()
	return true
}

func (b *Bridge) startDialLocked() {
	gen := b.gen
	addr := b.addr

	ctx, cancel := b.dialContext()
	b.cancelDial = cancel
	b.setStateLocked(Connecting)

	go b.dial(ctx, cancel, gen, addr)
}

// SetAddress is an alias of Connect for hosts that treat the address as configuration.
func (b *Bridge) SetAddress(addr string) {
	b.Connect(addr)
}

func (b *Bridge) dialContext() (context.Context, context.CancelFunc) {
	if b.dialTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), b.dialTimeout)
}

func (b *Bridge) dial(ctx context.Context, cancel context.CancelFunc, gen uint64, addr string) {
	defer cancel()
	conn, err := b.transport.Dial(ctx, addr)

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	defer b.mu.Unlock()
	b.cancelDial = nil

	if err != nil {
		b.logger.Warning(fmt.Sprintf("dial %s: %v", addr, err))
		b.setStateLocked(Disconnected)
		return
	}

	c := &connection{
		conn:   conn,
		outbox: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	b.conn = c
	b.setStateLocked(Connected)
	b.logger.Info(fmt.Sprintf("connected to %s", addr))

	c.loops.Add(2)
	go b.readLoop(c)
	go b.writeLoop(c)
}

func (b *Bridge) readLoop(c *connection) {
	defer c.loops.Done()
	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed() {
				b.logger.Warning(fmt.Sprintf("read: %v", err))
			}
			b.dropConnection(c)
			return
		}
		b.handleMessage(c, data)
	}
}

func (b *Bridge) writeLoop(c *connection) {
	defer c.loops.Done()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.outbox:
			if err := c.conn.WriteMessage(data); err != nil {
				if !c.closed() {
					b.logger.Warning(fmt.Sprintf("write: %v", err))
				}
				b.dropConnection(c)
				return
			}
		}
	}
}

// handleMessage applies one inbound message from c to the action slot.
// A reset directive only raises the reset flag; any other message replaces the whole action.
// Messages that race with the end of c are discarded.
func (b *Bridge) handleMessage(c *connection, data []byte) {
	d, err := b.encoder.UnmarshalDirective(data)
	if err != nil {
		b.logger.Warning(fmt.Sprintf("dropping inbound message: %v", err))
		if b.onDrop != nil {
			b.onDrop(err)
		}
		return
	}

	b.actionMu.Lock()
	defer b.actionMu.Unlock()

	if c.closed() {
		return
	}
	if d.Reset {
		b.action.Reset = true
		return
	}
	b.action = d.Action
	b.action.Reset = false
}

// dropConnection moves to disconnected if c is still the live connection.
func (b *Bridge) dropConnection(c *connection) {
	b.mu.Lock()
	if b.conn != c {
		b.mu.Unlock()
		return
	}
	b.conn = nil
	c.stop()
	b.setStateLocked(Disconnected)
	b.mu.Unlock()

	b.clearAction()
	c.close()
}

// closeLocked abandons any pending dial and detaches the live connection.
// The caller releases the returned connection after unlocking, since a transport close may block.
func (b *Bridge) closeLocked() *connection {
	b.gen++
	if b.cancelDial != nil {
		b.cancelDial()
		b.cancelDial = nil
	}

	c := b.conn
	b.conn = nil
	b.setStateLocked(Disconnected)
	if c != nil {
		c.stop()
		b.clearAction()
	}
	return c
}

// clearAction empties the action slot so nothing from a dead connection reaches the next one.
func (b *Bridge) clearAction() {
	b.actionMu.Lock()
	defer b.actionMu.Unlock()
	b.action = game.Action{}
}

// Close moves the bridge to disconnected, then releases the connection and waits for its loops.
// It is idempotent and clears the address, so a later Connect with any address dials again.
func (b *Bridge) Close() {
	b.mu.Lock()
	c := b.closeLocked()
	b.addr = ""
	b.mu.Unlock()

	if c != nil {
		c.close()
		c.loops.Wait()
	}
}

func (b *Bridge) setStateLocked(s State) {
	if b.state == s {
		return
	}
	from := b.state
	b.state = s
	if b.onStateChange != nil {
		b.onStateChange(from, s)
	}
}

// State returns the current connection state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Addr returns the address of the current or pending connection.
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// Connected reports whether the bridge is in the connected state.
func (b *Bridge) Connected() bool {
	return b.State() == Connected
}

// LastAction returns the latest action without consuming its reset flag.
func (b *Bridge) LastAction() game.Action {
	b.actionMu.Lock()
	defer b.actionMu.Unlock()
	return b.action
}

// TakeAction returns the latest action and clears its reset flag in the same step,
// so one reset directive is observed exactly once. The slot is emptied whenever the connection ends.
func (b *Bridge) TakeAction() game.Action {
	b.actionMu.Lock()
	defer b.actionMu.Unlock()

	a := b.action
	b.action.Reset = false
	return a
}

// SendObservation offers obs to the writer. It reports false, without queueing, when not connected.
// A newer observation replaces one the writer has not picked up yet.
func (b *Bridge) SendObservation(obs game.Observation) bool {
	b.mu.Lock()
	c := b.conn
	connected := b.state == Connected
	b.mu.Unlock()

	if !connected || c == nil {
		return false
	}

	data, err := b.encoder.MarshalObservation(obs)
	if err != nil {
		b.logger.Error(fmt.Sprintf("marshal observation: %v", err))
		return false
	}

	c.offer(data)
	return true
}

// offer stores data in the mailbox, evicting any stale entry.
func (c *connection) offer(data []byte) {
	for {
		select {
		case <-c.done:
			return
		case c.outbox <- data:
			return
		default:
		}

		select {
		case <-c.outbox:
		default:
		}
	}
}

// stop ends the loops of c without touching the transport.
func (c *connection) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// close stops c and releases the transport exactly once. It may block on the transport.
func (c *connection) close() {
	c.stop()
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

func (c *connection) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
