package car

// Direction is the command given to one side.
type Direction int

const (
	Halt Direction = iota
	Ahead
	Astern
)

func (d Direction) String() string {
	switch d {
	case Ahead:
		return "ahead"
	case Astern:
		return "astern"
	default:
		return "halt"
	}
}

func (d Direction) opposite() Direction {
	switch d {
	case Ahead:
		return Astern
	case Astern:
		return Ahead
	default:
		return Halt
	}
}

// Pattern is the pair of side commands issued for one motion.
type Pattern struct {
	Left  Direction
	Right Direction
}

// mirror swaps ahead and astern on both sides. Reversing with the forward
// pivot pattern would invert the perceived curve, so turns that start from
// backward travel use the mirrored pattern.
func (p Pattern) mirror() Pattern {
	return Pattern{Left: p.Left.opposite(), Right: p.Right.opposite()}
}

var (
	patternStop     = Pattern{Left: Halt, Right: Halt}
	patternForward  = Pattern{Left: Ahead, Right: Ahead}
	patternBackward = Pattern{Left: Astern, Right: Astern}

	patternPivotLeft  = Pattern{Left: Astern, Right: Ahead}
	patternPivotRight = Pattern{Left: Ahead, Right: Astern}
)

// PatternFor returns the side commands for status, given the status that
// was stashed before it. prior only matters for turns.
func PatternFor(status, prior Status) Pattern {
	var p Pattern
	switch status {
	case Forward:
		return patternForward
	case Backward:
		return patternBackward
	case TurnLeft:
		p = patternPivotLeft
	case TurnRight:
		p = patternPivotRight
	default:
		return patternStop
	}

	if prior == Backward {
		return p.mirror()
	}
	return p
}

func apply(a Actuator, d Direction, speed float64) error {
	switch d {
	case Ahead:
		return a.Forward(speed)
	case Astern:
		return a.Backward(speed)
	default:
		return a.Stop()
	}
}
