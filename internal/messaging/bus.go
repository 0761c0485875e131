package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNoReceiver       = errors.New("could not establish connection: receiving end does not exist")
	ErrAlreadyListening = errors.New("endpoint already has a listener")
	ErrBusClosed        = errors.New("message bus is closed")
)

type EndpointKind string

const (
	KindBackground EndpointKind = "background"
	KindTab        EndpointKind = "tab"
	KindPopup      EndpointKind = "popup"
)

// Address identifies an execution context on the bus.
type Address struct {
	Kind  EndpointKind
	TabID int
}

func Background() Address     { return Address{Kind: KindBackground} }
func Popup() Address          { return Address{Kind: KindPopup} }
func Tab(id int) Address      { return Address{Kind: KindTab, TabID: id} }
func (a Address) IsTab() bool { return a.Kind == KindTab }

func (a Address) String() string {
	if a.IsTab() {
		return fmt.Sprintf("tab:%d", a.TabID)
	}
	return string(a.Kind)
}

// Sender is the origin of a message as seen by its receiver.
type Sender struct {
	Address Address
}

// TabID returns the sending tab, if the message came from one.
func (s Sender) TabID() (int, bool) {
	return s.Address.TabID, s.Address.IsTab()
}

// Handler receives raw messages for one endpoint. A nil return means the
// handler sends no response.
type Handler interface {
	Handle(ctx context.Context, raw json.RawMessage, from Sender) json.RawMessage
}

type HandlerFunc func(ctx context.Context, raw json.RawMessage, from Sender) json.RawMessage

func (f HandlerFunc) Handle(ctx context.Context, raw json.RawMessage, from Sender) json.RawMessage {
	return f(ctx, raw, from)
}

// DispatchMode controls how an endpoint runs its handler.
type DispatchMode int

const (
	// Sequential handles one message at a time, in receipt order.
	Sequential DispatchMode = iota
	// Interleaved starts handlers in receipt order and lets them overlap.
	Interleaved
)

type envelope struct {
	id   string
	raw  json.RawMessage
	from Sender
}

type endpoint struct {
	addr    Address
	handler Handler
	mode    DispatchMode
	inbox   chan envelope
	done    chan struct{}
}

// Bus is the only channel between contexts. Delivery is FIFO per receiver,
// replies are matched to requests by correlation id, and handlers run on the
// bus's own context so a sender giving up never cancels remote work.
type Bus struct {
	mu        sync.RWMutex
	endpoints map[Address]*endpoint

	pmu     sync.Mutex
	pending map[string]chan json.RawMessage

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *slog.Logger
	inboxSize int
}

type BusOption func(*Bus)

// WithInboxSize sets how many undelivered messages an endpoint buffers
// before senders block.
func WithInboxSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.inboxSize = n
		}
	}
}

func NewBus(logger *slog.Logger, opts ...BusOption) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		endpoints: make(map[Address]*endpoint),
		pending:   make(map[string]chan json.RawMessage),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
		inboxSize: 64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Listen attaches a handler to an address. Each address takes one listener.
func (b *Bus) Listen(addr Address, h Handler, mode DispatchMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		return ErrBusClosed
	}
	if _, exists := b.endpoints[addr]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyListening, addr)
	}

	ep := &endpoint{
		addr:    addr,
		handler: h,
		mode:    mode,
		inbox:   make(chan envelope, b.inboxSize),
		done:    make(chan struct{}),
	}
	b.endpoints[addr] = ep

	b.wg.Add(1)
	go b.serve(ep)
	return nil
}

// Unlisten detaches the address, as when a tab closes.
func (b *Bus) Unlisten(addr Address) {
	b.mu.Lock()
	ep, ok := b.endpoints[addr]
	if ok {
		delete(b.endpoints, addr)
	}
	b.mu.Unlock()

	if ok {
		close(ep.done)
	}
}

func (b *Bus) Listening(addr Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.endpoints[addr]
	return ok
}

// Tabs returns the ids of tabs with a listener, ascending.
func (b *Bus) Tabs() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ids []int
	for addr := range b.endpoints {
		if addr.IsTab() {
			ids = append(ids, addr.TabID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Send delivers msg and waits for the reply. A (nil, nil) return means the
// receiver answered with no response.
func (b *Bus) Send(ctx context.Context, from, to Address, msg Message) (json.RawMessage, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Action(), err)
	}
	return b.SendRaw(ctx, from, to, raw)
}

// SendRaw is Send for bytes that were never decoded, such as messages
// forwarded from another process. The receiver validates them.
func (b *Bus) SendRaw(ctx context.Context, from, to Address, raw json.RawMessage) (json.RawMessage, error) {
	ep := b.lookup(to)
	if ep == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, to)
	}

	id := uuid.NewString()
	reply := make(chan json.RawMessage, 1)
	b.pmu.Lock()
	b.pending[id] = reply
	b.pmu.Unlock()
	defer func() {
		b.pmu.Lock()
		delete(b.pending, id)
		b.pmu.Unlock()
	}()

	if err := b.enqueue(ctx, ep, envelope{id: id, raw: raw, from: Sender{Address: from}}); err != nil {
		return nil, err
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ep.done:
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, to)
	case <-b.ctx.Done():
		return nil, ErrBusClosed
	}
}

// Post delivers msg without waiting for a reply.
func (b *Bus) Post(ctx context.Context, from, to Address, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Action(), err)
	}
	ep := b.lookup(to)
	if ep == nil {
		return fmt.Errorf("%w: %s", ErrNoReceiver, to)
	}
	return b.enqueue(ctx, ep, envelope{raw: raw, from: Sender{Address: from}})
}

// Broadcast posts msg to every tab and returns how many accepted it.
func (b *Bus) Broadcast(ctx context.Context, from Address, msg Message) int {
	delivered := 0
	for _, id := range b.Tabs() {
		if err := b.Post(ctx, from, Tab(id), msg); err != nil {
			b.logger.WarnContext(ctx, "broadcast delivery failed", "to", Tab(id).String(), "action", msg.Action(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Close stops every endpoint and waits for running handlers.
func (b *Bus) Close() {
	b.cancel()

	b.mu.Lock()
	eps := b.endpoints
	b.endpoints = make(map[Address]*endpoint)
	b.mu.Unlock()

	for _, ep := range eps {
		close(ep.done)
	}
	b.wg.Wait()
}

func (b *Bus) lookup(addr Address) *endpoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.endpoints[addr]
}

func (b *Bus) enqueue(ctx context.Context, ep *endpoint, env envelope) error {
	select {
	case ep.inbox <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-ep.done:
		return fmt.Errorf("%w: %s", ErrNoReceiver, ep.addr)
	case <-b.ctx.Done():
		return ErrBusClosed
	}
}

func (b *Bus) serve(ep *endpoint) {
	defer b.wg.Done()
	for {
		select {
		case env := <-ep.inbox:
			if ep.mode == Interleaved {
				b.wg.Add(1)
				go func() {
					defer b.wg.Done()
					b.dispatch(ep, env)
				}()
				continue
			}
			b.dispatch(ep, env)
		case <-ep.done:
			return
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *Bus) dispatch(ep *endpoint, env envelope) {
	var resp json.RawMessage
	func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("message handler panicked", "endpoint", ep.addr.String(), "panic", r)
				resp = nil
			}
		}()
		resp = ep.handler.Handle(b.ctx, env.raw, env.from)
	}()

	if env.id == "" {
		return
	}

	b.pmu.Lock()
	reply, waiting := b.pending[env.id]
	b.pmu.Unlock()
	if !waiting {
		b.logger.Debug("dropping reply for abandoned request", "endpoint", ep.addr.String(), "correlation_id", env.id)
		return
	}
	reply <- resp
}
