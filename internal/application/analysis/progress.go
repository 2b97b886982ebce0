package analysis

import (
	"sync"

	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
)

// Snapshot is the last published stage of an in-flight run
type Snapshot struct {
	Stage   domain.Stage `json:"stage"`
	Percent int          `json:"progress_percentage"`
}

// Tracker keeps live progress in memory so status polls don't hit the
// database between stage writes. Entries are dropped once a run ends.
type Tracker struct {
	mu   sync.RWMutex
	runs map[domain.SessionID]Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{runs: make(map[domain.SessionID]Snapshot)}
}

func (t *Tracker) Publish(id domain.SessionID, stage domain.Stage, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[id] = Snapshot{Stage: stage, Percent: percent}
}

func (t *Tracker) Get(id domain.SessionID) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.runs[id]
	return s, ok
}

func (t *Tracker) Clear(id domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, id)
}
