package redstone

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

func TestSchedulerRoutesCrossChunkEvents(t *testing.T) {
	ctx := context.Background()
	router := NewRouter(RouterConfig{})
	factory := &recordingFactory{
		router:      router,
		handled:     make(map[ChunkID][]Event),
		forwardFrom: ChunkID{X: 1, Z: 0},
		forwardTo:   ChunkID{X: 0, Z: 0},
	}
	sched := NewScheduler(SchedulerConfig{
		Router:           router,
		InboxSize:        4,
		BudgetPerTick:    8,
		ProcessorFactory: factory,
	})
	t.Cleanup(sched.Close)

	chunkA := ChunkID{X: 0, Z: 0}
	chunkB := ChunkID{X: 1, Z: 0}

	sched.RegisterChunk(chunkA)
	sched.RegisterChunk(chunkB)

	sched.QueueLocal(chunkB, Event{Pos: cube.Pos{17, 64, 1}, Tick: 1})

	// Chunk A is stepped before chunk B, so the event B forwards to A runs in
	// a second round of the same tick.
	rounds, err := sched.Step(ctx, &world.World{}, 1)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if rounds != 2 {
		t.Fatalf("expected the forwarded event to need a second round, got %d rounds", rounds)
	}
	if got := len(factory.Events(chunkB)); got != 1 {
		t.Fatalf("expected chunk B to process 1 event, got %d", got)
	}
	eventsA := factory.Events(chunkA)
	if len(eventsA) != 1 {
		t.Fatalf("expected chunk A to process the forwarded event, got %d", len(eventsA))
	}
	if eventsA[0].Source != (cube.Pos{17, 64, 1}) {
		t.Fatalf("expected forwarded event to carry its source, got %v", eventsA[0].Source)
	}
}

func TestRouterSendUnknownChunk(t *testing.T) {
	metrics := NewMetrics()
	router := NewRouter(RouterConfig{Metrics: metrics})
	res := router.Send(ChunkID{X: 42, Z: 42}, Event{})
	if res.State != SendDropped {
		t.Fatalf("expected dropped state for unknown chunk, got %v", res.State)
	}
	if !errors.Is(res.Err, ErrUnknownChunk) {
		t.Fatalf("expected ErrUnknownChunk, got %v", res.Err)
	}
	if metrics.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", metrics.Dropped())
	}
}

func TestRouterCoalescesOverflow(t *testing.T) {
	metrics := NewMetrics()
	router := NewRouter(RouterConfig{Metrics: metrics})
	id := ChunkID{X: 0, Z: 0}
	inbox := make(chan Event, 1)
	stop := router.Register(id, inbox)
	t.Cleanup(stop)

	a := Event{Pos: cube.Pos{3, 64, 0}, Source: cube.Pos{2, 64, 0}}
	b := Event{Pos: cube.Pos{1, 64, 0}, Source: cube.Pos{0, 64, 0}}
	if res := router.Send(id, a); res.State != SendDelivered {
		t.Fatalf("expected first event to be delivered, got %v", res.State)
	}
	for _, ev := range []Event{a, b, a} {
		if res := router.Send(id, ev); res.State != SendCoalesced {
			t.Fatalf("expected overflowing event to be coalesced, got %v", res.State)
		}
	}
	if !router.Pending(id) {
		t.Fatalf("expected chunk to have pending events")
	}
	drained := router.DrainCoalesced(id)
	if len(drained) != 2 {
		t.Fatalf("expected 2 coalesced events, got %d", len(drained))
	}
	if drained[0] != b || drained[1] != a {
		t.Fatalf("expected coalesced events in morton order, got %v", drained)
	}
	if got := metrics.Backpressure(id); got != 3 {
		t.Fatalf("expected backpressure 3, got %d", got)
	}
	if hot := router.SnapshotHot(); len(hot) != 1 || hot[0] != id {
		t.Fatalf("expected chunk to be hot, got %v", hot)
	}
	if hot := router.SnapshotHot(); len(hot) != 0 {
		t.Fatalf("expected hot mark to be cleared by the snapshot, got %v", hot)
	}
	if router.DrainCoalesced(id) != nil {
		t.Fatalf("expected overflow to be empty after draining")
	}
	<-inbox
	if router.Pending(id) {
		t.Fatalf("expected no pending events once inbox and overflow are empty")
	}
}

func TestRouterReplacedEndpointSurvivesOldStop(t *testing.T) {
	router := NewRouter(RouterConfig{})
	id := ChunkID{X: 5, Z: -5}
	stopOld := router.Register(id, make(chan Event, 1))
	newInbox := make(chan Event, 1)
	stopNew := router.Register(id, newInbox)
	t.Cleanup(stopNew)

	stopOld()
	if res := router.Send(id, Event{}); res.State != SendDelivered {
		t.Fatalf("expected replacing endpoint to stay registered, got %v", res.State)
	}
	if len(newInbox) != 1 {
		t.Fatalf("expected event in the new inbox")
	}
}

func TestWorkerDeduplicatesEvents(t *testing.T) {
	router := NewRouter(RouterConfig{})
	proc := &collectingProcessor{}
	worker := NewChunkWorker(WorkerConfig{
		Router:    router,
		Chunk:     ChunkID{X: 0, Z: 0},
		InboxSize: 8,
		Processor: proc,
	})
	t.Cleanup(worker.Stop)

	dup := Event{Pos: cube.Pos{0, 64, 0}, Source: cube.Pos{1, 64, 0}, Tick: 10}
	router.Send(ChunkID{}, dup)
	router.Send(ChunkID{}, dup)

	res := worker.Step(context.Background(), StepRequest{
		Tick:   10,
		Budget: 4,
		World:  &world.World{},
	})
	if res.Ops != 1 {
		t.Fatalf("expected exactly one operation, got %d", res.Ops)
	}
	if events := proc.Events(); len(events) != 1 {
		t.Fatalf("expected processor to receive one event, got %d", len(events))
	}
}

func TestWorkerKeepsFutureAndOverflow(t *testing.T) {
	router := NewRouter(RouterConfig{})
	worker := NewChunkWorker(WorkerConfig{Router: router, Chunk: ChunkID{}, InboxSize: 8})
	t.Cleanup(worker.Stop)

	for i := 0; i < 3; i++ {
		worker.EnqueueLocal(Event{Pos: cube.Pos{i, 64, 0}, Tick: 1})
	}
	worker.EnqueueLocal(Event{Pos: cube.Pos{0, 65, 0}, Tick: 5})

	res := worker.Step(context.Background(), StepRequest{Tick: 1, Budget: 2})
	if res.Ops != 2 || res.QueueLen != 2 || !res.Hot {
		t.Fatalf("expected 2 ops and 2 queued events, got %+v", res)
	}
	res = worker.Step(context.Background(), StepRequest{Tick: 2, Budget: 2})
	if res.Ops != 1 || res.QueueLen != 1 {
		t.Fatalf("expected overflow to run and the future event to stay, got %+v", res)
	}
	res = worker.Step(context.Background(), StepRequest{Tick: 5, Budget: 2})
	if res.Ops != 1 || res.QueueLen != 0 || res.Hot {
		t.Fatalf("expected future event to run at its tick, got %+v", res)
	}
}

func TestSchedulerRoundsUntilQuiet(t *testing.T) {
	router := NewRouter(RouterConfig{})
	metrics := NewMetrics()
	proc := &chainProcessor{router: router, length: 5}
	sched := NewScheduler(SchedulerConfig{
		Router:           router,
		ProcessorFactory: ProcessorFactoryFunc(func(ChunkID) Processor { return proc }),
		MaxRounds:        4,
		Metrics:          metrics,
	})
	t.Cleanup(sched.Close)

	id := ChunkID{}
	sched.RegisterChunk(id)
	sched.QueueLocal(id, Event{Pos: cube.Pos{0, 64, 0}})

	rounds, err := sched.Step(context.Background(), &world.World{}, 1)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if rounds != 4 || proc.count() != 4 {
		t.Fatalf("expected round cap of 4 to stop the chain, got %d rounds and %d events", rounds, proc.count())
	}
	rounds, _ = sched.Step(context.Background(), &world.World{}, 2)
	if rounds != 2 || proc.count() != 6 {
		t.Fatalf("expected the rest of the chain in the next tick, got %d rounds and %d events", rounds, proc.count())
	}
	if metrics.Rounds() != 6 || metrics.Ops(id) != 6 {
		t.Fatalf("unexpected metrics: %d rounds, %d ops", metrics.Rounds(), metrics.Ops(id))
	}
}

func TestSchedulerUnregisterDuringStep(t *testing.T) {
	router := NewRouter(RouterConfig{})
	proc := &unregisteringProcessor{}
	sched := NewScheduler(SchedulerConfig{
		Router:           router,
		ProcessorFactory: ProcessorFactoryFunc(func(ChunkID) Processor { return proc }),
	})
	proc.sched = sched
	t.Cleanup(sched.Close)

	id := ChunkID{X: 2, Z: 2}
	sched.RegisterChunk(id)
	sched.QueueLocal(id, Event{Pos: cube.Pos{32, 64, 32}})
	if _, err := sched.Step(context.Background(), &world.World{}, 1); err != nil {
		t.Fatalf("step: %v", err)
	}
	if sched.Chunks() != 0 {
		t.Fatalf("expected chunk to be unregistered, got %d chunks", sched.Chunks())
	}
	if res := router.Send(id, Event{}); !errors.Is(res.Err, ErrUnknownChunk) {
		t.Fatalf("expected events to an unregistered chunk to be dropped, got %v", res.State)
	}
}

func TestSchedulerWatchdogPenalisesChunk(t *testing.T) {
	router := NewRouter(RouterConfig{})
	sched := NewScheduler(SchedulerConfig{
		Router:        router,
		InboxSize:     8,
		BudgetPerTick: 4,
		MaxRounds:     1,
	})
	t.Cleanup(sched.Close)

	id := ChunkID{X: 3, Z: 7}
	sched.RegisterChunk(id)

	for i := 0; i < 16; i++ {
		sched.QueueLocal(id, Event{Pos: cube.Pos{i, 64, 0}, Tick: 1})
	}

	penalised := false
	for tick := int64(1); tick <= 6; tick++ {
		if _, err := sched.Step(context.Background(), nil, tick); err != nil {
			t.Fatalf("step: %v", err)
		}
		if sched.penalty[id] > 0 {
			penalised = true
			break
		}
	}
	if !penalised {
		t.Fatalf("expected watchdog to penalise chunk, got penalty 0")
	}
}

func TestSchedulerMortonOrder(t *testing.T) {
	router := NewRouter(RouterConfig{})
	sched := NewScheduler(SchedulerConfig{Router: router})
	t.Cleanup(sched.Close)

	ids := []ChunkID{{X: 1, Z: 1}, {X: -1, Z: 0}, {X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}}
	for _, id := range ids {
		sched.RegisterChunk(id)
	}
	order, _ := sched.snapshot()
	want := []ChunkID{{X: -1, Z: 0}, {X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}, {X: 1, Z: 1}}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

type recordingFactory struct {
	mu sync.Mutex

	router  *Router
	handled map[ChunkID][]Event

	forwardFrom ChunkID
	forwardTo   ChunkID
	forwarded   bool
}

func (f *recordingFactory) New(id ChunkID) Processor {
	return &recordingProcessor{factory: f}
}

func (f *recordingFactory) record(id ChunkID, ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled[id] = append(f.handled[id], ev)
}

func (f *recordingFactory) Events(id ChunkID) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.handled[id]))
	copy(out, f.handled[id])
	return out
}

type recordingProcessor struct {
	factory *recordingFactory
}

func (p *recordingProcessor) HandleEvent(_ *world.World, chunk ChunkID, ev Event) {
	p.factory.record(chunk, ev)
	if chunk != p.factory.forwardFrom {
		return
	}
	p.factory.mu.Lock()
	shouldForward := !p.factory.forwarded
	p.factory.forwarded = true
	p.factory.mu.Unlock()
	if shouldForward {
		p.factory.router.Send(p.factory.forwardTo, Event{Pos: cube.Pos{1, 64, 1}, Source: ev.Pos, Tick: ev.Tick})
	}
}

type collectingProcessor struct {
	mu     sync.Mutex
	events []Event
}

func (p *collectingProcessor) HandleEvent(_ *world.World, _ ChunkID, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *collectingProcessor) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// chainProcessor sends an event to the next position along the x axis until
// the chain reaches its length.
type chainProcessor struct {
	router *Router
	length int

	mu      sync.Mutex
	handled int
}

func (p *chainProcessor) HandleEvent(_ *world.World, chunk ChunkID, ev Event) {
	p.mu.Lock()
	p.handled++
	p.mu.Unlock()
	if ev.Pos[0] < p.length {
		p.router.Send(chunk, Event{Pos: ev.Pos.Side(cube.FaceEast), Source: ev.Pos})
	}
}

func (p *chainProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handled
}

type unregisteringProcessor struct {
	sched *Scheduler
}

func (p *unregisteringProcessor) HandleEvent(_ *world.World, chunk ChunkID, _ Event) {
	p.sched.UnregisterChunk(chunk)
}
