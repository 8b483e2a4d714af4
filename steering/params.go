package steering

import (
	"math"

	"github.com/alDuncanson/manifold/errs"
)

// Direction is the sense of travel round the circle.
type Direction int

const (
	Counterclockwise Direction = 1
	Clockwise        Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Counterclockwise:
		return "counterclockwise"
	case Clockwise:
		return "clockwise"
	default:
		return "invalid"
	}
}

func (d Direction) validate() error {
	if d != Counterclockwise && d != Clockwise {
		return errs.InvalidParameter("direction", int(d), "must be +1 or -1")
	}
	return nil
}

// Params controls a single steering step.
type Params struct {
	// StepSize is the angular advance in radians. Negative values are allowed and
	// behave like the opposite direction.
	StepSize  float64
	Direction Direction
	// Strength scales the steering vector before it is added, in [0, 1].
	Strength float64
}

// DefaultParams advances 0.1 rad counterclockwise at 30% strength.
func DefaultParams() Params {
	return Params{StepSize: 0.1, Direction: Counterclockwise, Strength: 0.3}
}

// Validate reports the first out-of-range field as an InvalidParameterError.
func (p Params) Validate() error {
	if math.IsNaN(p.StepSize) || math.IsInf(p.StepSize, 0) {
		return errs.InvalidParameter("step size", p.StepSize, "must be finite")
	}
	if err := p.Direction.validate(); err != nil {
		return err
	}
	if math.IsNaN(p.Strength) || p.Strength < 0 || p.Strength > 1 {
		return errs.InvalidParameter("strength", p.Strength, "must be in [0, 1]")
	}
	return nil
}

func validateSteps(n int) error {
	if n < 0 {
		return errs.InvalidParameter("steps", n, "must be non-negative")
	}
	return nil
}
