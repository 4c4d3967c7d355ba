// Package entity defines the core domain entities and validation logic for the application.
// It contains the character observation produced by a counting pass and the limits
// that bound a single counting request.
package entity

import "fmt"

// Observation is one distinct character seen in a counted text.
type Observation struct {
	Character rune
	Code      int
	Count     int
}

// NewObservation builds an observation for ch with the given count.
func NewObservation(ch rune, count int) Observation {
	return Observation{Character: ch, Code: int(ch), Count: count}
}

// DisplayCharacter returns the character as it is shown in the frequency table.
// Newline and carriage return are rendered as their escape sequences and a
// space is spelled out so that it stays visible in a table cell.
func (o Observation) DisplayCharacter() string {
	switch o.Character {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case ' ':
		return "Space"
	default:
		return string(o.Character)
	}
}

// String formats the observation in the assignment output format:
// Character(code)<TAB>Frequency.
func (o Observation) String() string {
	return fmt.Sprintf("%s(%d)\t%d", string(o.Character), o.Code, o.Count)
}
