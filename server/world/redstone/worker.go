package redstone

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dm-vev/voxelcore/server/world"
)

type WorkerConfig struct {
	Logger    *slog.Logger
	Router    *Router
	Chunk     ChunkID
	InboxSize int
	Processor Processor
}

// ChunkWorker owns the queue of neighbour updates of a single chunk and runs
// them on its own goroutine when stepped.
type ChunkWorker struct {
	id        ChunkID
	log       *slog.Logger
	router    *Router
	processor Processor

	currentTick int64

	inbox chan Event

	localQueue []Event

	cmdCh      chan workerCommand
	stopOnce   sync.Once
	detachOnce sync.Once
	stopFn     func()
}

func NewChunkWorker(cfg WorkerConfig) *ChunkWorker {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 4096
	}
	if cfg.Processor == nil {
		cfg.Processor = NopProcessor{}
	}
	w := &ChunkWorker{
		id:        cfg.Chunk,
		log:       cfg.Logger,
		router:    cfg.Router,
		processor: cfg.Processor,
		inbox:     make(chan Event, cfg.InboxSize),
		cmdCh:     make(chan workerCommand, 8),
	}
	w.stopFn = cfg.Router.Register(cfg.Chunk, w.inbox)
	go w.loop()
	return w
}

func (w *ChunkWorker) loop() {
	for cmd := range w.cmdCh {
		if !cmd.execute(w) {
			break
		}
	}
	w.detach()
}

// detach removes the inbox of the worker from the router, so that no new
// events reach it.
func (w *ChunkWorker) detach() {
	w.detachOnce.Do(w.stopFn)
}

// StepRequest instructs the worker to run its queued events.
type StepRequest struct {
	Tick   int64
	Budget int
	World  *world.World
}

// StepResult summarises the work performed in a Step.
type StepResult struct {
	Ops      int
	Hot      bool
	Coalesce int
	QueueLen int
	Err      error
}

func (w *ChunkWorker) Step(ctx context.Context, req StepRequest) StepResult {
	resp := make(chan StepResult, 1)
	select {
	case w.cmdCh <- stepCommand{req: req, resp: resp}:
	case <-ctx.Done():
		return StepResult{Err: ctx.Err()}
	}
	select {
	case res := <-resp:
		return res
	case <-ctx.Done():
		return StepResult{Err: ctx.Err()}
	}
}

// EnqueueLocal queues an event directly, bypassing the inbox. An event with
// the same key and tick already queued is replaced.
func (w *ChunkWorker) EnqueueLocal(ev Event) {
	done := make(chan struct{})
	w.cmdCh <- enqueueCommand{event: ev, done: done}
	<-done
}

func (w *ChunkWorker) Stop() {
	w.stopOnce.Do(func() {
		done := make(chan struct{})
		w.cmdCh <- stopCommand{done: done}
		<-done
		close(w.cmdCh)
	})
}

func (w *ChunkWorker) runStep(req StepRequest) StepResult {
	w.currentTick = req.Tick

	drained := w.router.DrainCoalesced(w.id)
	w.localQueue = append(w.localQueue, drained...)

drain:
	for {
		select {
		case ev := <-w.inbox:
			w.localQueue = append(w.localQueue, ev)
		default:
			break drain
		}
	}

	ops := 0
	seen := make(map[EventKey]struct{}, len(w.localQueue))
	future := make([]Event, 0)
	overflow := make([]Event, 0)
	queue := w.localQueue
	w.localQueue = nil
	for _, ev := range queue {
		if ev.Tick > w.currentTick {
			future = append(future, ev)
			continue
		}
		if req.Budget <= 0 {
			overflow = append(overflow, ev)
			continue
		}
		// A neighbour update re-reads the world when it is handled, so a second
		// update for the same position and source in one step has nothing left
		// to change.
		if _, ok := seen[ev.Key()]; ok {
			continue
		}
		seen[ev.Key()] = struct{}{}
		if req.World != nil {
			w.processor.HandleEvent(req.World, w.id, ev)
		}
		req.Budget--
		ops++
	}
	w.localQueue = append(overflow, future...)

	queueLen := len(w.localQueue) + len(w.inbox)
	hot := queueLen > 0
	if !hot {
		w.router.ClearHot(w.id)
	}
	return StepResult{
		Ops:      ops,
		Hot:      hot,
		Coalesce: len(drained),
		QueueLen: queueLen,
	}
}

type workerCommand interface {
	execute(*ChunkWorker) bool
}

type stepCommand struct {
	req  StepRequest
	resp chan StepResult
}

func (cmd stepCommand) execute(w *ChunkWorker) bool {
	res := w.runStep(cmd.req)
	cmd.resp <- res
	return true
}

type enqueueCommand struct {
	event Event
	done  chan struct{}
}

func (cmd enqueueCommand) execute(w *ChunkWorker) bool {
	for i := len(w.localQueue) - 1; i >= 0; i-- {
		if w.localQueue[i].Key() == cmd.event.Key() && w.localQueue[i].Tick == cmd.event.Tick {
			w.localQueue[i] = cmd.event
			close(cmd.done)
			return true
		}
	}
	w.localQueue = append(w.localQueue, cmd.event)
	close(cmd.done)
	return true
}

type stopCommand struct {
	done chan struct{}
}

func (cmd stopCommand) execute(w *ChunkWorker) bool {
	close(cmd.done)
	return false
}
