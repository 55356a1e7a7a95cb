package cube

import "testing"

func TestFaceOrder(t *testing.T) {
	want := []Face{FaceDown, FaceUp, FaceNorth, FaceSouth, FaceWest, FaceEast}
	for i, f := range Faces() {
		if f != want[i] {
			t.Fatalf("face %d: expected %v, got %v", i, want[i], f)
		}
	}
}

func TestSideAndFaceRoundTrip(t *testing.T) {
	p := Pos{3, 64, -7}
	for _, f := range Faces() {
		n := p.Side(f)
		if got := p.Face(n); got != f {
			t.Fatalf("face of %v relative to %v: expected %v, got %v", n, p, f, got)
		}
		if back := n.Side(f.Opposite()); back != p {
			t.Fatalf("opposite side of %v: expected %v, got %v", n, p, back)
		}
	}
}

func TestDirectionFace(t *testing.T) {
	for _, d := range Directions() {
		if d.Face().Direction() != d {
			t.Fatalf("direction %v did not survive face conversion", d)
		}
		if d.RotateRight().RotateLeft() != d {
			t.Fatalf("rotating %v right then left changed it", d)
		}
	}
}

func TestNeighboursRespectRange(t *testing.T) {
	r := Range{0, 10}
	var n int
	Pos{0, 10, 0}.Neighbours(func(Pos) { n++ }, r)
	if n != 5 {
		t.Fatalf("expected 5 neighbours at the top of the range, got %d", n)
	}
}
