// Package frequency implements the character-frequency counter used by the
// lesson page, the background computation host and the assignment CLI.
package frequency

import (
	"cmp"
	"slices"

	"charcounter/internal/domain/entity"
	"charcounter/internal/utils/text"
)

// Tally is the untruncated intermediate result of a counting pass.
type Tally struct {
	// Counts maps each distinct character to its number of occurrences.
	Counts map[rune]int
	// Processed is the number of characters actually consumed.
	Processed int
}

// NewTally counts every character of the first maxInputChars characters of text.
// A negative maxInputChars is treated as 0.
func NewTally(s string, maxInputChars int) Tally {
	t := Tally{Counts: make(map[rune]int)}
	for _, ch := range text.Truncate(s, maxInputChars) {
		t.Counts[ch]++
		t.Processed++
	}
	return t
}

// Observations converts the tally into observations ordered by ascending code.
func (t Tally) Observations() []entity.Observation {
	out := make([]entity.Observation, 0, len(t.Counts))
	for ch, n := range t.Counts {
		out = append(out, entity.NewObservation(ch, n))
	}
	slices.SortFunc(out, func(a, b entity.Observation) int { return cmp.Compare(a.Code, b.Code) })
	return out
}

// Count returns the distinct characters of the first maxInputChars characters
// of text, ordered by code and cut to the first maxOutputRows entries.
// Negative limits are treated as 0. The result is never nil.
func Count(text string, maxInputChars, maxOutputRows int) []entity.Observation {
	obs := NewTally(text, maxInputChars).Observations()
	if maxOutputRows < 0 {
		maxOutputRows = 0
	}
	if len(obs) > maxOutputRows {
		obs = obs[:maxOutputRows]
	}
	return obs
}

// CountWithLimits is Count with limits expressed as entity.Limits,
// where 0 means "no limit".
func CountWithLimits(text string, limits entity.Limits) []entity.Observation {
	maxInput, maxRows := limits.Resolve()
	return Count(text, maxInput, maxRows)
}

// Total sums the counts of obs.
func Total(obs []entity.Observation) int {
	total := 0
	for _, o := range obs {
		total += o.Count
	}
	return total
}
