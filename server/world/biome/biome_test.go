package biome

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world/gen/rand"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	if len(reg.All()) != 35 {
		t.Fatalf("expected 35 biomes, got %d", len(reg.All()))
	}
	plains, ok := reg.ByName("minecraft:plains")
	if !ok {
		t.Fatalf("plains not registered")
	}
	if plains.ID != 1 || plains.TreeCount != 0 || plains.GrassCount != 12 {
		t.Fatalf("unexpected plains entry: %+v", plains)
	}
	if b, ok := reg.ByID(10); !ok || b.String() != "Snowy Plains" {
		t.Fatalf("expected Snowy Plains for id 10, got %v", b)
	}
	if ocean, _ := reg.ByName("minecraft:ocean"); ocean.MinElevation != 46 || ocean.MaxElevation != 58 {
		t.Fatalf("unexpected ocean elevation %d..%d", ocean.MinElevation, ocean.MaxElevation)
	}
	for _, b := range reg.All() {
		if len(b.GroundCover) == 0 {
			t.Errorf("%s has no ground cover", b.Name)
		}
	}
}

func TestParseRegistryRejectsDuplicates(t *testing.T) {
	data := []byte(`
[[biome]]
id = 0
name = "minecraft:a"

[[biome]]
id = 0
name = "minecraft:b"
`)
	if _, err := ParseRegistry(data); !errors.Is(err, ErrDuplicateBiome) {
		t.Fatalf("expected ErrDuplicateBiome, got %v", err)
	}
}

func TestQuantize(t *testing.T) {
	for _, tc := range []struct {
		v    float64
		want int64
	}{
		{0, 0},
		{1, 10000},
		{-1, -10000},
		{0.55, 5500},
		{-0.455, -4550},
		{-1.2, -12000},
		{0.1, 1000},
	} {
		if got := Quantize(tc.v); got != tc.want {
			t.Errorf("Quantize(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestTreeResultIndependentOfCursor(t *testing.T) {
	tree := DefaultTree()
	leaves := collectLeaves(tree.Root(), nil)
	if len(leaves) != tree.Len() {
		t.Fatalf("leaf count mismatch: %d vs %d", len(leaves), tree.Len())
	}

	for i, p := range testPoints(300) {
		want := tree.Lookup(p, nil)
		if brute := firstNearest(leaves, p); brute != want {
			t.Fatalf("point %d %v: search found %v, exhaustive scan found %v", i, p, want.Biome, brute.Biome)
		}
		for _, hint := range leaves {
			c := &Cursor{tree: tree, leaf: hint}
			if got := tree.Lookup(p, c); got != want {
				t.Fatalf("point %d %v with hint %v: got %v, want %v", i, p, hint.Biome, got.Biome, want.Biome)
			}
			if c.Last() != want {
				t.Fatalf("cursor not updated to the result")
			}
		}
	}
}

func TestTreeCursorFromOtherTree(t *testing.T) {
	reg := Default()
	plains, _ := reg.ByName("minecraft:plains")
	desert, _ := reg.ByName("minecraft:desert")
	small := MustBuild([]Entry{
		{Params: uniform(Span(-1, 0)), Biome: plains},
		{Params: uniform(Span(0.5, 1)), Biome: desert},
	})

	c := &Cursor{}
	p := Point{9000, 9000, 9000, 9000, 9000, 9000, 9000}
	if b := small.Get(p, c); b != desert {
		t.Fatalf("expected desert, got %v", b)
	}
	// A cursor filled by another tree must not leak a foreign leaf into the result.
	if b := DefaultTree().Get(p, c); b == nil || c.Last() == nil || countLeaves(c.Last()) != 1 {
		t.Fatalf("unexpected result %v", b)
	}
	if b := small.Get(Point{}, c); b != plains {
		t.Fatalf("expected plains, got %v", b)
	}
}

func TestTreeTieKeepsFirstLeaf(t *testing.T) {
	reg := Default()
	plains, _ := reg.ByName("minecraft:plains")
	desert, _ := reg.ByName("minecraft:desert")
	tree := MustBuild([]Entry{
		{Params: uniform(Span(-1, -0.5)), Biome: plains},
		{Params: uniform(Span(0.5, 1)), Biome: desert},
	})
	first := tree.Root().Children[0]

	// The origin is equally far from both leaves.
	for _, hint := range tree.Root().Children {
		if got := tree.Lookup(Point{}, &Cursor{tree: tree, leaf: hint}); got != first {
			t.Fatalf("expected the first leaf for a tie, got %v", got.Biome)
		}
	}
}

func TestBuildStructure(t *testing.T) {
	entries, err := DefaultClimate().Resolve(Default())
	if err != nil {
		t.Fatalf("resolve climate: %v", err)
	}
	tree, err := Build(entries)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tree.Len() != len(entries) {
		t.Fatalf("expected %d leaves, got %d", len(entries), tree.Len())
	}
	var check func(n *Node)
	check = func(n *Node) {
		if n.Leaf() {
			return
		}
		if len(n.Children) == 0 || len(n.Children) > childrenPerNode {
			t.Fatalf("branch with %d children", len(n.Children))
		}
		for _, child := range n.Children {
			for i, r := range child.Params {
				if r.Min < n.Params[i].Min || r.Max > n.Params[i].Max {
					t.Fatalf("child range %v on axis %d outside parent range %v", r, i, n.Params[i])
				}
			}
			check(child)
		}
	}
	check(tree.Root())

	again := MustBuild(entries)
	a, b := collectLeaves(tree.Root(), nil), collectLeaves(again.Root(), nil)
	for i := range a {
		if a[i].Biome != b[i].Biome || a[i].Params != b[i].Params {
			t.Fatalf("build is not deterministic at leaf %d", i)
		}
	}
}

func TestBuildSmallSortsByCentre(t *testing.T) {
	reg := Default()
	far, _ := reg.ByName("minecraft:desert")
	near, _ := reg.ByName("minecraft:plains")
	tree := MustBuild([]Entry{
		{Params: uniform(Span(0.5, 1)), Biome: far},
		{Params: uniform(Span(-0.1, 0.1)), Biome: near},
	})
	if tree.Root().Children[0].Biome != near {
		t.Fatalf("expected the entry closest to the origin first")
	}
	if tree.Root().Params[0] != Span(-0.1, 1) {
		t.Fatalf("unexpected root range %v", tree.Root().Params[0])
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	if _, err := Build([]Entry{{}}); !errors.Is(err, ErrUnknownBiome) {
		t.Fatalf("expected ErrUnknownBiome, got %v", err)
	}
}

func TestNewTreeWithoutLeavesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	NewTree(&Node{})
}

func TestClimateResolveErrors(t *testing.T) {
	if _, err := (ClimateFile{}).Resolve(Default()); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}

	f := ClimateFile{Entries: []ClimateRecord{{
		Biome:       "minecraft:nowhere",
		Temperature: []float64{-1, 1}, Humidity: []float64{-1, 1}, Continentalness: []float64{-1, 1},
		Erosion: []float64{-1, 1}, Depth: []float64{0, 0}, Weirdness: []float64{-1, 1},
	}}}
	if _, err := f.Resolve(Default()); !errors.Is(err, ErrUnknownBiome) {
		t.Fatalf("expected ErrUnknownBiome, got %v", err)
	}
	f.Entries[0].Biome = "minecraft:plains"
	f.Entries[0].Erosion = []float64{1, -1}
	if _, err := f.Resolve(Default()); !errors.Is(err, ErrInvalidClimate) {
		t.Fatalf("expected ErrInvalidClimate, got %v", err)
	}
	f.Entries[0].Erosion = []float64{-1, 1}
	entries, err := f.Resolve(Default())
	if err != nil || len(entries) != len(f.Entries) {
		t.Fatalf("expected %d resolved entries, got %d (%v)", len(f.Entries), len(entries), err)
	}
	if entries[0].Biome.Name != "minecraft:plains" {
		t.Fatalf("expected plains, got %v", entries[0].Biome)
	}
}

func TestParseClimateJSONValidates(t *testing.T) {
	valid := []byte(`{"entry": [{"biome": "minecraft:plains", "temperature": [-1, 1], "humidity": [-1, 1],
		"continentalness": [-1, 1], "erosion": [-1, 1], "depth": [0, 0], "weirdness": [-1, 1]}]}`)
	f, err := ParseClimateJSON(valid)
	if err != nil {
		t.Fatalf("parse valid table: %v", err)
	}
	if len(f.Entries) != 1 || f.Entries[0].Biome != "minecraft:plains" {
		t.Fatalf("unexpected entries %+v", f.Entries)
	}

	for name, data := range map[string]string{
		"missing axis": `{"entry": [{"biome": "minecraft:plains", "temperature": [-1, 1]}]}`,
		"short range": `{"entry": [{"biome": "minecraft:plains", "temperature": [-1], "humidity": [-1, 1],
			"continentalness": [-1, 1], "erosion": [-1, 1], "depth": [0, 0], "weirdness": [-1, 1]}]}`,
		"bad name": `{"entry": [{"biome": "Plains", "temperature": [-1, 1], "humidity": [-1, 1],
			"continentalness": [-1, 1], "erosion": [-1, 1], "depth": [0, 0], "weirdness": [-1, 1]}]}`,
		"empty": `{"entry": []}`,
	} {
		if _, err := ParseClimateJSON([]byte(data)); !errors.Is(err, ErrInvalidClimate) {
			t.Errorf("%s: expected ErrInvalidClimate, got %v", name, err)
		}
	}
}

func TestCompressedClimate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCompressedClimate(&buf, DefaultClimate()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := ReadCompressedClimate(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	entries, err := f.Resolve(Default())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want, _ := DefaultClimate().Resolve(Default())
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, entries[i], want[i])
		}
	}
}

func TestReadClimateFile(t *testing.T) {
	dir := t.TempDir()
	zst := filepath.Join(dir, "climate.zst")
	f, err := os.Create(zst)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteCompressedClimate(f, DefaultClimate()); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()

	tree, err := TreeFromFile(zst)
	if err != nil {
		t.Fatalf("tree from file: %v", err)
	}
	p := Point{}
	if got, want := tree.Get(p, nil), DefaultTree().Get(p, nil); got != want {
		t.Fatalf("expected %v, got %v", want.Name, got.Name)
	}

	if _, err := ReadClimateFile(filepath.Join(dir, "climate.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	txt := filepath.Join(dir, "climate.yaml")
	if err := os.WriteFile(txt, []byte("entry: []"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadClimateFile(txt); !errors.Is(err, ErrInvalidClimate) {
		t.Fatalf("expected ErrInvalidClimate, got %v", err)
	}
}

func TestZoomerStaysNearQuart(t *testing.T) {
	z := NewZoomer(12345)
	for x := -40; x < 40; x += 3 {
		for y := -10; y < 10; y += 5 {
			for zz := -40; zz < 40; zz += 7 {
				qx, qy, qz := z.Quart(x, y, zz)
				bx, by, bz := (x-2)>>2, (y-2)>>2, (zz-2)>>2
				if qx-bx < 0 || qx-bx > 1 || qy-by < 0 || qy-by > 1 || qz-bz < 0 || qz-bz > 1 {
					t.Fatalf("quart %d,%d,%d of %d,%d,%d too far from %d,%d,%d", qx, qy, qz, x, y, zz, bx, by, bz)
				}
				if ax, ay, az := z.Quart(x, y, zz); ax != qx || ay != qy || az != qz {
					t.Fatalf("zoom not deterministic")
				}
			}
		}
	}
}

func TestFloorMod(t *testing.T) {
	if floorMod(-1, 1024) != 1023 || floorMod(1025, 1024) != 1 || floorMod(0, 1024) != 0 {
		t.Fatalf("unexpected floorMod results")
	}
}

func TestSourceDeterministic(t *testing.T) {
	a, err := NewSource(42, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	b, err := NewSource(42, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	var cursor Cursor
	for x := -512; x < 512; x += 61 {
		for z := -512; z < 512; z += 53 {
			pos := cube.Pos{x, 64, z}
			want := a.Biome(pos, nil)
			if got := b.Biome(pos, &cursor); got != want {
				t.Fatalf("biome at %v differs: %v vs %v", pos, got, want)
			}
		}
	}
	// Quart 16 is block 64, one block above sea level.
	if p := a.Climate().Sample(0, 16, 0); p[AxisDepth] != -78 || p[AxisOffset] != 0 {
		t.Fatalf("unexpected surface point %v", p)
	}
}

func TestDepth(t *testing.T) {
	if depth(63) != 0 || depth(-1000) != 1.5 || depth(1000) != -1.5 {
		t.Fatalf("unexpected depth values")
	}
}

// testPoints returns n pseudo-random points. Half of them lie exactly on range boundaries of the default
// climate table, where ties between leaves are common.
func testPoints(n int) []Point {
	src := rand.NewXoroshiro(7)
	edges := collectLeaves(DefaultTree().Root(), nil)
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		var p Point
		for axis := 0; axis < AxisOffset; axis++ {
			if i%2 == 0 {
				p[axis] = int64(rand.NextIntRange(src, -13000, 13000))
				continue
			}
			leaf := edges[src.NextBoundedInt32(int32(len(edges)))]
			if src.NextBool() {
				p[axis] = leaf.Params[axis].Min
			} else {
				p[axis] = leaf.Params[axis].Max
			}
		}
		points = append(points, p)
	}
	return points
}

// collectLeaves appends the leaves below n to dst in depth first order.
func collectLeaves(n *Node, dst []*Node) []*Node {
	if n.Leaf() {
		return append(dst, n)
	}
	for _, child := range n.Children {
		dst = collectLeaves(child, dst)
	}
	return dst
}

// firstNearest returns the first leaf of the slice with the smallest distance to p.
func firstNearest(leaves []*Node, p Point) *Node {
	var best *Node
	for _, l := range leaves {
		if best == nil || l.distance(p) < best.distance(p) {
			best = l
		}
	}
	return best
}

func uniform(r ParameterRange) [axisCount]ParameterRange {
	var params [axisCount]ParameterRange
	for i := range params {
		params[i] = r
	}
	return params
}
