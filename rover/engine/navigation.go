package engine

// Right returns the orientation one quarter turn clockwise
func (o Orientation) Right() Orientation {
	return compass[(int(o)+1)%len(compass)]
}

// Left returns the orientation one quarter turn counter-clockwise
func (o Orientation) Left() Orientation {
	return compass[(int(o)+len(compass)-1)%len(compass)]
}

// Delta returns the unit step for moving forward in this orientation
func (o Orientation) Delta() (dx, dy int) {
	switch o {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	}
	return 0, 0
}

// Rotate turns the rover according to a rotation command. Move is ignored.
func (r *Rover) Rotate(cmd Command) {
	switch cmd {
	case RotateLeft:
		r.Orientation = r.Orientation.Left()
	case RotateRight:
		r.Orientation = r.Orientation.Right()
	case Move:
	}
}

// NextPosition calculates the cell the rover would enter by moving forward
func (r *Rover) NextPosition() Position {
	dx, dy := r.Orientation.Delta()
	return Position{X: r.Position.X + dx, Y: r.Position.Y + dy}
}
