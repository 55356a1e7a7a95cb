package world

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/brentp/intintmap"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/segmentio/fasthash/fnv1a"
)

var (
	ErrUnknownBlock    = errors.New("world: unknown block")
	ErrUnknownProperty = errors.New("world: unknown block property")
)

// StateID identifies a single block state: a block combined with one value for every one of its properties.
// StateID 0 is always air.
type StateID uint32

// Property is a block property with a fixed list of values.
type Property struct {
	Name   string
	Values []string
	// min is the value of the first entry of an integer property.
	min int
}

// BoolProperty returns a Property with the values false and true.
func BoolProperty(name string) Property {
	return Property{Name: name, Values: []string{"false", "true"}}
}

// IntProperty returns a Property holding the integers from min to max inclusive.
func IntProperty(name string, min, max int) Property {
	values := make([]string, 0, max-min+1)
	for i := min; i <= max; i++ {
		values = append(values, strconv.Itoa(i))
	}
	return Property{Name: name, Values: values, min: min}
}

// EnumProperty returns a Property with the values passed.
func EnumProperty(name string, values ...string) Property {
	return Property{Name: name, Values: values}
}

// index returns the index of the value passed, or -1 if the property does not have it.
func (p Property) index(value string) int {
	return slices.Index(p.Values, value)
}

// Block is a block type. Every combination of values of its properties is a separate block state, and all
// states of a Block have contiguous StateIDs.
type Block struct {
	// Name is the namespaced name of the block, such as minecraft:stone.
	Name string
	// Props are the properties of the block. The first property is the most significant one in the StateID.
	Props []Property
	// Defaults overrides the default value of properties. Properties not present default to their first
	// value.
	Defaults map[string]string
	// Solid specifies if the block is a full, opaque cube that conducts redstone power.
	Solid bool
	// Replaceable specifies if placing a block at the position of this block replaces it, like air and
	// water.
	Replaceable bool
	// Behaviour holds the functions called when the block is placed, updated or queried.
	Behaviour Behaviour

	base    StateID
	count   int
	strides []int
	props   map[string]int
	def     StateID
}

// Default returns the default state of the block.
func (b *Block) Default() StateID {
	return b.def
}

// Has checks if the state passed is a state of the block.
func (b *Block) Has(st StateID) bool {
	return st >= b.base && int(st-b.base) < b.count
}

// States returns the number of states of the block.
func (b *Block) States() int {
	return b.count
}

// Base returns the first StateID of the block.
func (b *Block) Base() StateID {
	return b.base
}

// index returns the value index of the property at prop in state st.
func (b *Block) index(st StateID, prop int) int {
	return (int(st-b.base) / b.strides[prop]) % len(b.Props[prop].Values)
}

func (b *Block) prop(name string) int {
	i, ok := b.props[name]
	if !ok {
		panic(fmt.Errorf("%w: %s has no property %s", ErrUnknownProperty, b.Name, name))
	}
	return i
}

// Value returns the value of the property name in state st. Value panics if the block does not have the
// property.
func (b *Block) Value(st StateID, name string) string {
	i := b.prop(name)
	return b.Props[i].Values[b.index(st, i)]
}

// Int returns the value of the integer property name in state st.
func (b *Block) Int(st StateID, name string) int {
	i := b.prop(name)
	return b.Props[i].min + b.index(st, i)
}

// Bool returns the value of the boolean property name in state st.
func (b *Block) Bool(st StateID, name string) bool {
	i := b.prop(name)
	return b.Props[i].Values[b.index(st, i)] == "true"
}

// With returns the state st with the property name set to value. With panics if the block does not have the
// property or the value.
func (b *Block) With(st StateID, name, value string) StateID {
	i := b.prop(name)
	v := b.Props[i].index(value)
	if v < 0 {
		panic(fmt.Errorf("%w: %s has no value %q for %s", ErrUnknownProperty, b.Name, value, name))
	}
	return st - StateID((b.index(st, i)-v)*b.strides[i])
}

// WithInt returns the state st with the integer property name set to v.
func (b *Block) WithInt(st StateID, name string, v int) StateID {
	i := b.prop(name)
	idx := v - b.Props[i].min
	if idx < 0 || idx >= len(b.Props[i].Values) {
		panic(fmt.Errorf("%w: %s has no value %d for %s", ErrUnknownProperty, b.Name, v, name))
	}
	return st - StateID((b.index(st, i)-idx)*b.strides[i])
}

// WithBool returns the state st with the boolean property name set to v.
func (b *Block) WithBool(st StateID, name string, v bool) StateID {
	return b.With(st, name, strconv.FormatBool(v))
}

// Properties returns the property values of the state passed.
func (b *Block) Properties(st StateID) map[string]string {
	m := make(map[string]string, len(b.Props))
	for i, p := range b.Props {
		m[p.Name] = p.Values[b.index(st, i)]
	}
	return m
}

// Encode returns the state in the form name[prop=value,...], with properties sorted by name.
func (b *Block) Encode(st StateID) string {
	if len(b.Props) == 0 {
		return b.Name
	}
	pairs := make([]string, len(b.Props))
	for i, p := range b.Props {
		pairs[i] = p.Name + "=" + p.Values[b.index(st, i)]
	}
	slices.Sort(pairs)
	return b.Name + "[" + strings.Join(pairs, ",") + "]"
}

// StateWith returns the state of the block with the property values passed. Properties not present keep
// their default value.
func (b *Block) StateWith(props map[string]string) (StateID, error) {
	st := b.def
	for name, value := range props {
		i, ok := b.props[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s has no property %s", ErrUnknownProperty, b.Name, name)
		}
		if b.Props[i].index(value) < 0 {
			return 0, fmt.Errorf("%w: %s has no value %q for %s", ErrUnknownProperty, b.Name, value, name)
		}
		st = b.With(st, name, value)
	}
	return st, nil
}

// Registry holds all blocks known to a World and maps StateIDs back to them. Blocks are registered once
// during startup, after which Finalise freezes the registry. A finalised Registry is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	finalised bool

	blocks []*Block
	byName map[string]*Block
	// owners holds the index in blocks of the owner of every StateID.
	owners []uint16
	keys   *intintmap.Map
}

// Air is the block every Registry starts out with. Its only state is StateID 0.
var Air = &Block{Name: "minecraft:air", Replaceable: true, count: 1, props: map[string]int{}}

// NewRegistry returns a Registry holding only Air.
func NewRegistry() *Registry {
	return &Registry{
		blocks: []*Block{Air},
		byName: map[string]*Block{Air.Name: Air},
		owners: []uint16{0},
	}
}

// Register adds the blocks passed to the Registry and assigns their StateIDs. Register panics if a block with
// the same name was already registered, if a property is declared twice, or if the Registry was finalised.
// A Block may only be registered with a single Registry.
func (r *Registry) Register(blocks ...*Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalised {
		panic("world: register block after registry was finalised")
	}
	for _, b := range blocks {
		if _, ok := r.byName[b.Name]; ok {
			panic(fmt.Sprintf("world: block %s registered twice", b.Name))
		}
		b.props = make(map[string]int, len(b.Props))
		b.strides = make([]int, len(b.Props))
		b.count = 1
		for i := len(b.Props) - 1; i >= 0; i-- {
			p := b.Props[i]
			if _, ok := b.props[p.Name]; ok {
				panic(fmt.Sprintf("world: block %s declares property %s twice", b.Name, p.Name))
			}
			if len(p.Values) == 0 {
				panic(fmt.Sprintf("world: property %s of block %s has no values", p.Name, b.Name))
			}
			b.props[p.Name] = i
			b.strides[i] = b.count
			b.count *= len(p.Values)
		}
		b.base = StateID(len(r.owners))
		b.def = b.base
		for name, value := range b.Defaults {
			b.def = b.With(b.def, name, value)
		}

		idx := uint16(len(r.blocks))
		r.blocks = append(r.blocks, b)
		r.byName[b.Name] = b
		for i := 0; i < b.count; i++ {
			r.owners = append(r.owners, idx)
		}
	}
}

// Finalise freezes the Registry and builds the lookup table used by State. Calling Finalise more than once
// has no effect.
func (r *Registry) Finalise() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalised {
		return r
	}
	r.keys = intintmap.New(len(r.owners), 0.6)
	for id := range r.owners {
		st := StateID(id)
		b := r.blocks[r.owners[id]]
		r.keys.Put(stateKey(b.Encode(st)), int64(st))
	}
	r.finalised = true
	return r
}

// Finalised reports if Finalise was called.
func (r *Registry) Finalised() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalised
}

// Block looks up a block by its name.
func (r *Registry) Block(name string) (*Block, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Blocks returns all registered blocks in the order they were registered.
func (r *Registry) Blocks() []*Block {
	return r.blocks
}

// Len returns the total number of block states in the Registry.
func (r *Registry) Len() int {
	return len(r.owners)
}

// BlockOf returns the block that the state passed belongs to. Unknown states resolve to Air.
func (r *Registry) BlockOf(st StateID) *Block {
	if int(st) >= len(r.owners) {
		return Air
	}
	return r.blocks[r.owners[st]]
}

// Solid reports if the state passed is a solid, redstone conducting cube.
func (r *Registry) Solid(st StateID) bool {
	return r.BlockOf(st).Solid
}

// SideSolid reports if the face passed of the state is solid enough to support blocks like redstone wire.
func (r *Registry) SideSolid(st StateID, face cube.Face) bool {
	b := r.BlockOf(st)
	if b.Behaviour.SideSolid != nil {
		return b.Behaviour.SideSolid(b, st, face)
	}
	return b.Solid
}

// State resolves a state from the block name and property values passed. Properties not passed take their
// default value. State only works on a finalised Registry.
func (r *Registry) State(name string, props map[string]string) (StateID, error) {
	b, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
	}
	if len(props) == len(b.Props) && r.keys != nil {
		// Fully specified states are looked up by hash, which avoids walking every property.
		key := encodeProps(name, props)
		if id, ok := r.keys.Get(stateKey(key)); ok && b.Has(StateID(id)) && b.Encode(StateID(id)) == key {
			return StateID(id), nil
		}
	}
	return b.StateWith(props)
}

// Encode returns the encoded form of the state passed.
func (r *Registry) Encode(st StateID) string {
	return r.BlockOf(st).Encode(st)
}

func encodeProps(name string, props map[string]string) string {
	if len(props) == 0 {
		return name
	}
	pairs := make([]string, 0, len(props))
	for k, v := range props {
		pairs = append(pairs, k+"="+v)
	}
	slices.Sort(pairs)
	return name + "[" + strings.Join(pairs, ",") + "]"
}

func stateKey(encoded string) int64 {
	return int64(fnv1a.HashString64(encoded))
}
