package redstone

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrUnknownChunk is returned when a neighbour update is sent to a chunk
// without a worker. This happens for updates that reach into chunks that are
// not loaded.
var ErrUnknownChunk = errors.New("redstone: unknown chunk endpoint")

// SendState describes what the Router did with a neighbour update.
type SendState uint8

const (
	// SendDelivered means the update was put in the inbox of the chunk.
	SendDelivered SendState = iota
	// SendCoalesced means the inbox was full and the update was merged with
	// other overflowing updates of the same position and source.
	SendCoalesced
	// SendDropped means no worker runs the chunk of the update.
	SendDropped
)

// SendResult is returned by Router.Send.
type SendResult struct {
	State SendState
	Err   error
}

// RouterConfig holds the optional dependencies of a Router.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

// Router hands the neighbour updates of a world to the worker of the chunk
// each update lands in. Every chunk has a bounded inbox. Updates that do not
// fit are kept per EventKey until the worker collects them at its next step,
// and the chunk is marked hot so the Scheduler can see it is falling behind.
type Router struct {
	log     *slog.Logger
	metrics *Metrics
	chunks  sync.Map // ChunkID -> *chunkInbox
}

type chunkInbox struct {
	events chan Event
	hot    atomic.Bool

	mu       sync.Mutex
	overflow map[EventKey]Event
}

// keep stores ev as an overflowing update, replacing an earlier one with the
// same key.
func (in *chunkInbox) keep(ev Event) {
	in.mu.Lock()
	in.overflow[ev.Key()] = ev
	in.mu.Unlock()
	in.hot.Store(true)
}

// take removes and returns all overflowing updates.
func (in *chunkInbox) take() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.overflow) == 0 {
		return nil
	}
	events := make([]Event, 0, len(in.overflow))
	for _, ev := range in.overflow {
		events = append(events, ev)
	}
	clear(in.overflow)
	return events
}

func (in *chunkInbox) waiting() bool {
	if len(in.events) > 0 {
		return true
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.overflow) > 0
}

// NewRouter returns a Router without any chunks.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{log: cfg.Logger, metrics: cfg.Metrics}
}

// Register makes events the inbox of the chunk id, replacing an earlier
// registration. The function returned removes the inbox again unless it was
// replaced in the meantime, so a worker that is stopped late cannot remove
// the inbox of the worker that succeeded it.
func (r *Router) Register(id ChunkID, events chan Event) func() {
	in := &chunkInbox{events: events, overflow: make(map[EventKey]Event)}
	r.chunks.Store(id, in)
	return func() {
		r.chunks.CompareAndDelete(id, in)
	}
}

func (r *Router) inbox(id ChunkID) (*chunkInbox, bool) {
	v, ok := r.chunks.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*chunkInbox), true
}

// Send routes a neighbour update to the chunk id. It never blocks.
func (r *Router) Send(id ChunkID, ev Event) SendResult {
	in, ok := r.inbox(id)
	if !ok {
		if r.metrics != nil {
			r.metrics.IncDropped()
		}
		return SendResult{State: SendDropped, Err: ErrUnknownChunk}
	}
	select {
	case in.events <- ev:
		return SendResult{State: SendDelivered}
	default:
	}
	in.keep(ev)
	if r.metrics != nil {
		r.metrics.IncBackpressure(id)
	}
	return SendResult{State: SendCoalesced}
}

// DrainCoalesced returns the overflowing updates of the chunk id sorted by
// position and source, and forgets them.
func (r *Router) DrainCoalesced(id ChunkID) []Event {
	in, ok := r.inbox(id)
	if !ok {
		return nil
	}
	events := in.take()
	sortEventsDeterministic(events)
	return events
}

// Pending reports if updates for the chunk id are waiting in its inbox or
// its overflow.
func (r *Router) Pending(id ChunkID) bool {
	in, ok := r.inbox(id)
	return ok && in.waiting()
}

// SnapshotHot returns the chunks whose inbox overflowed since the previous
// call and clears their hot mark.
func (r *Router) SnapshotHot() []ChunkID {
	var hot []ChunkID
	r.chunks.Range(func(key, value any) bool {
		if value.(*chunkInbox).hot.Swap(false) {
			hot = append(hot, key.(ChunkID))
		}
		return true
	})
	return hot
}

// ClearHot clears the hot mark of the chunk id.
func (r *Router) ClearHot(id ChunkID) {
	if in, ok := r.inbox(id); ok {
		in.hot.Store(false)
	}
}
