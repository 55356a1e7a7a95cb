package redstone

import (
	"fmt"
	"sync/atomic"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// Propagation selects how a change in the power of redstone wire spreads to
// the rest of the wire and to the blocks around it.
type Propagation int32

const (
	// PropagationTwoRing sets the new power of a wire and sends a neighbour
	// update to every block within two steps of it. Every wire that receives
	// an update then recomputes its own power the same way.
	PropagationTwoRing Propagation = iota
	// PropagationTurbo settles the power of the whole connected wire network
	// before sending any neighbour update, and then updates every non-wire
	// block around the changed wires only once.
	PropagationTurbo
)

// String ...
func (p Propagation) String() string {
	if p == PropagationTurbo {
		return "turbo"
	}
	return "two-ring"
}

// ParsePropagation parses a Propagation from its String form.
func ParsePropagation(s string) (Propagation, error) {
	switch s {
	case "", "two-ring":
		return PropagationTwoRing, nil
	case "turbo":
		return PropagationTurbo, nil
	}
	return 0, fmt.Errorf("unknown redstone propagation %q", s)
}

var propagation atomic.Int32

// SetPropagation changes the Propagation used by all redstone wire.
func SetPropagation(p Propagation) {
	propagation.Store(int32(p))
}

// CurrentPropagation returns the Propagation used by redstone wire.
func CurrentPropagation() Propagation {
	return Propagation(propagation.Load())
}

// maxNetworkUpdates limits the number of wires a single settleNetwork call
// recomputes.
const maxNetworkUpdates = 1 << 16

// settleNetwork recomputes the power of the wire at start and of every wire
// reachable from it whose power changes as a result, breadth first. Once the
// network is settled, the blocks around the changed wires are updated.
func settleNetwork(w *world.World, start cube.Pos) {
	queue := []cube.Pos{start}
	queued := map[cube.Pos]struct{}{start: {}}
	var changed []cube.Pos
	seen := make(map[cube.Pos]struct{})

	for n := 0; len(queue) > 0 && n < maxNetworkUpdates; n++ {
		pos := queue[0]
		queue = queue[1:]
		delete(queued, pos)

		b, st := w.BlockAndState(pos)
		if b != Wire {
			continue
		}
		s := WireStateOf(st)
		p := CalculatePower(w, pos)
		if p == s.Power {
			continue
		}
		s.Power = p
		w.SetBlockState(pos, s.StateID(), world.NotifyListeners)
		if _, ok := seen[pos]; !ok {
			seen[pos] = struct{}{}
			changed = append(changed, pos)
		}
		wireLinks(pos, func(link cube.Pos) {
			if _, ok := queued[link]; ok || w.Block(link) != Wire {
				return
			}
			queued[link] = struct{}{}
			queue = append(queue, link)
		})
	}

	notified := make(map[cube.Pos]struct{})
	notify := func(pos, source cube.Pos) {
		if _, ok := notified[pos]; ok || w.Block(pos) == Wire {
			return
		}
		notified[pos] = struct{}{}
		w.UpdateNeighbour(pos, source)
	}
	for _, pos := range changed {
		for _, face := range cube.Faces() {
			n := pos.Side(face)
			notify(n, pos)
			for _, nface := range cube.Faces() {
				notify(n.Side(nface), n)
			}
		}
	}
}

// wireLinks calls f for every position whose wire power may depend on the wire
// at pos: its six neighbours and the positions diagonally above and below it.
func wireLinks(pos cube.Pos, f func(cube.Pos)) {
	for _, face := range cube.Faces() {
		f(pos.Side(face))
	}
	for _, d := range cube.Directions() {
		n := pos.Side(d.Face())
		f(n.Side(cube.FaceUp))
		f(n.Side(cube.FaceDown))
	}
}
