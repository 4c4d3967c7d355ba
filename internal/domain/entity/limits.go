package entity

import "math"

// Default bounds for the background counting path.
const (
	DefaultMaxInputChars = 50000
	DefaultMaxOutputRows = 500
)

// Limits bounds a single counting request.
// A zero value in either field means "no limit"; see Resolve.
type Limits struct {
	MaxInputChars int
	MaxOutputRows int
}

// Unbounded is used where a limit of 0 means "everything".
const Unbounded = 0

// DefaultLimits returns the limits applied by the background counting path.
func DefaultLimits() Limits {
	return Limits{
		MaxInputChars: DefaultMaxInputChars,
		MaxOutputRows: DefaultMaxOutputRows,
	}
}

// Validate checks that both limits are non-negative.
func (l Limits) Validate() error {
	if l.MaxInputChars < 0 {
		return &ValidationError{Field: "max_input_chars", Message: "must be non-negative"}
	}
	if l.MaxOutputRows < 0 {
		return &ValidationError{Field: "max_output_rows", Message: "must be non-negative"}
	}
	return nil
}

// Resolve converts the "0 means everything" convention into concrete bounds
// suitable for frequency.Count.
func (l Limits) Resolve() (maxInput, maxRows int) {
	maxInput, maxRows = l.MaxInputChars, l.MaxOutputRows
	if maxInput == Unbounded {
		maxInput = math.MaxInt
	}
	if maxRows == Unbounded {
		maxRows = math.MaxInt
	}
	return maxInput, maxRows
}
