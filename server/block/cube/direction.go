package cube

// Direction represents a direction towards one of the horizontal axes of the
// world.
type Direction int

const (
	// North represents the north direction, towards the negative Z.
	North Direction = iota
	// South represents the south direction, towards the positive Z.
	South
	// West represents the west direction, towards the negative X.
	West
	// East represents the east direction, towards the positive X.
	East
)

// Face converts the direction to a Face and returns it.
func (d Direction) Face() Face {
	return FaceNorth + Face(d)
}

// Opposite returns Direction opposite to the current one.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	}
	panic("invalid direction")
}

// RotateRight rotates the direction 90 degrees to the right horizontally and
// returns the new direction.
func (d Direction) RotateRight() Direction {
	switch d {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	case West:
		return North
	}
	panic("invalid direction")
}

// RotateLeft rotates the direction 90 degrees to the left horizontally and
// returns the new direction.
func (d Direction) RotateLeft() Direction {
	return d.RotateRight().Opposite()
}

// String returns the Direction as a string.
func (d Direction) String() string {
	return d.Face().String()
}

// Directions returns a list of all directions, going from North to East.
func Directions() []Direction {
	return directions[:]
}

var directions = [...]Direction{North, South, West, East}

// DirectionByName returns the Direction whose String form is name.
func DirectionByName(name string) (Direction, bool) {
	for _, d := range directions {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}
