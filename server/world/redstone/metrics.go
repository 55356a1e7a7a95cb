package redstone

import (
	"sync"
)

// Metrics tracks per-chunk counters for observability.
type Metrics struct {
	mu sync.Mutex

	ops           map[ChunkID]uint64
	backpressure  map[ChunkID]uint64
	queue         map[ChunkID]int
	registrations map[ChunkID]uint64
	rounds        uint64
	dropped       uint64
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ops:           make(map[ChunkID]uint64),
		backpressure:  make(map[ChunkID]uint64),
		queue:         make(map[ChunkID]int),
		registrations: make(map[ChunkID]uint64),
	}
}

// AddOps increments the operations counter for a chunk.
func (m *Metrics) AddOps(id ChunkID, value uint64) {
	if m == nil || value == 0 {
		return
	}
	m.mu.Lock()
	m.ops[id] += value
	m.mu.Unlock()
}

// IncBackpressure increments the backpressure counter for a chunk.
func (m *Metrics) IncBackpressure(id ChunkID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.backpressure[id]++
	m.mu.Unlock()
}

// IncDropped counts an event that was sent to a chunk without a worker.
func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

// SetQueueSize stores the current queue size gauge for a chunk.
func (m *Metrics) SetQueueSize(id ChunkID, size int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.queue[id] = size
	m.mu.Unlock()
}

// IncRegistrations increments the worker registration counter for a chunk.
func (m *Metrics) IncRegistrations(id ChunkID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.registrations[id]++
	m.mu.Unlock()
}

// AddRounds increments the number of rounds run by the scheduler.
func (m *Metrics) AddRounds(n int) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	m.rounds += uint64(n)
	m.mu.Unlock()
}

// Ops returns the number of events run for a chunk.
func (m *Metrics) Ops(id ChunkID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ops[id]
}

// Backpressure returns the number of events coalesced for a chunk because its
// inbox was full.
func (m *Metrics) Backpressure(id ChunkID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backpressure[id]
}

// QueueSize returns the number of events left queued for a chunk after its
// last step.
func (m *Metrics) QueueSize(id ChunkID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue[id]
}

// Registrations returns how often a worker was registered for a chunk.
func (m *Metrics) Registrations(id ChunkID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations[id]
}

// Rounds returns the total number of rounds run.
func (m *Metrics) Rounds() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rounds
}

// Dropped returns the number of events sent to chunks without a worker.
func (m *Metrics) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
