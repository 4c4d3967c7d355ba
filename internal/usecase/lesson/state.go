// Package lesson coordinates the lesson page: it obtains text from the
// sample file server or an upload, hands it to the computation host and
// keeps the latest delivered result as the page state.
package lesson

import (
	"slices"
	"sync"
	"time"

	"charcounter/internal/domain/entity"
	"charcounter/internal/observability/metrics"
	"charcounter/internal/usecase/compute"
	"charcounter/internal/utils/text"
)

// Snapshot is a copy of the page state at one point in time.
type Snapshot struct {
	Generation uint64
	Source     string // "sample" or the uploaded file name
	Text       string
	Rows       []entity.Observation
	Path       compute.Path
	UpdatedAt  time.Time
}

// TextLength returns the number of characters in the displayed text.
func (s Snapshot) TextLength() int {
	return text.CountRunes(s.Text)
}

// Empty reports whether no result has been delivered yet.
func (s Snapshot) Empty() bool {
	return s.Generation == 0
}

// State holds the latest delivered computation.
// It is replaced wholesale and only by Apply.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewState returns an empty state.
func NewState() *State {
	return &State{now: time.Now}
}

// Apply replaces the state with res. A result older than the current state
// is ignored and Apply returns false.
func (s *State) Apply(res compute.Result, source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Generation <= s.snap.Generation {
		return false
	}
	s.snap = Snapshot{
		Generation: res.Generation,
		Source:     source,
		Text:       res.Text,
		Rows:       slices.Clone(res.Observations),
		Path:       res.Path,
		UpdatedAt:  s.now(),
	}
	metrics.RecordStateUpdate(res.Generation, len(res.Observations), s.snap.TextLength())
	return true
}

// Snapshot returns a copy that callers may keep and modify.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Rows = slices.Clone(s.snap.Rows)
	if snap.Rows == nil {
		snap.Rows = []entity.Observation{}
	}
	return snap
}

// Ready reports whether at least one result has been delivered.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Generation > 0
}
