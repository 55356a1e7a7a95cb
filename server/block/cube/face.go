package cube

// Face represents the face of a block or entity. The values are ordered the
// way direction iteration happens everywhere in the world: down, up, north,
// south, west, east.
type Face int

const (
	// FaceDown represents the bottom face of a block.
	FaceDown Face = iota
	// FaceUp represents the top face of a block.
	FaceUp
	// FaceNorth represents the north face of a block.
	FaceNorth
	// FaceSouth represents the south face of a block.
	FaceSouth
	// FaceWest represents the west face of the block.
	FaceWest
	// FaceEast represents the east face of the block.
	FaceEast
)

// Direction converts the Face to a Direction and returns it, assuming the Face
// is horizontal and not FaceUp or FaceDown.
func (f Face) Direction() Direction {
	switch f {
	case FaceSouth:
		return South
	case FaceWest:
		return West
	case FaceEast:
		return East
	}
	return North
}

// Opposite returns the opposite face. FaceDown will return FaceUp, FaceNorth
// will return FaceSouth and FaceWest will return FaceEast, and vice versa.
func (f Face) Opposite() Face {
	switch f {
	default:
		return FaceUp
	case FaceUp:
		return FaceDown
	case FaceNorth:
		return FaceSouth
	case FaceSouth:
		return FaceNorth
	case FaceWest:
		return FaceEast
	case FaceEast:
		return FaceWest
	}
}

// Axis returns the axis the face is facing. FaceEast and West correspond to
// the x-axis, North and South to the z-axis and Up and Down to the y-axis.
func (f Face) Axis() Axis {
	switch f {
	default:
		return Y
	case FaceEast, FaceWest:
		return X
	case FaceNorth, FaceSouth:
		return Z
	}
}

// Horizontal reports if the face is one of the four horizontal faces.
func (f Face) Horizontal() bool {
	return f > FaceUp && f <= FaceEast
}

// String returns the Face as a string.
func (f Face) String() string {
	switch f {
	case FaceUp:
		return "up"
	case FaceDown:
		return "down"
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceWest:
		return "west"
	case FaceEast:
		return "east"
	}
	panic("invalid face")
}

// Faces returns a list of all faces, starting with down, then up, then north
// to west.
func Faces() []Face {
	return faces[:]
}

// HorizontalFaces returns a list of all horizontal faces, from north to west.
func HorizontalFaces() []Face {
	return hFaces[:]
}

// UpdateOrder returns the faces in the order neighbour updates are sent out:
// west, east, down, up, north, south.
func UpdateOrder() []Face {
	return updateOrder[:]
}

// ShapeUpdateOrder returns the faces in the order shape updates are sent out:
// west, east, north, south, down, up.
func ShapeUpdateOrder() []Face {
	return shapeOrder[:]
}

var (
	faces       = [...]Face{FaceDown, FaceUp, FaceNorth, FaceSouth, FaceWest, FaceEast}
	hFaces      = [...]Face{FaceNorth, FaceSouth, FaceWest, FaceEast}
	updateOrder = [...]Face{FaceWest, FaceEast, FaceDown, FaceUp, FaceNorth, FaceSouth}
	shapeOrder  = [...]Face{FaceWest, FaceEast, FaceNorth, FaceSouth, FaceDown, FaceUp}
)

// FaceByName returns the Face whose String form is name.
func FaceByName(name string) (Face, bool) {
	for _, f := range faces {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}
