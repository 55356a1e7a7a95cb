package redstone

import "github.com/dm-vev/voxelcore/server/world"

// Processor runs the events of a chunk.
type Processor interface {
	HandleEvent(w *world.World, chunk ChunkID, ev Event)
}

// ProcessorFactory instantiates processors per chunk.
type ProcessorFactory interface {
	New(chunk ChunkID) Processor
}

// ProcessorFactoryFunc adapts a function into a ProcessorFactory.
type ProcessorFactoryFunc func(chunk ChunkID) Processor

func (f ProcessorFactoryFunc) New(chunk ChunkID) Processor {
	return f(chunk)
}

// NeighbourProcessor runs every event as a neighbour update of the World. It
// is the default Processor.
type NeighbourProcessor struct{}

func (NeighbourProcessor) HandleEvent(w *world.World, _ ChunkID, ev Event) {
	w.NeighbourChanged(ev.Pos, ev.Source)
}

// NopProcessor drops all events.
type NopProcessor struct{}

func (NopProcessor) HandleEvent(*world.World, ChunkID, Event) {}
