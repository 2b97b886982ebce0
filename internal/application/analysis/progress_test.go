package analysis

import (
	"sync"
	"testing"

	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	id := domain.SessionID("s1")

	if _, ok := tr.Get(id); ok {
		t.Fatal("empty tracker should have no snapshot")
	}

	tr.Publish(id, domain.StagePreprocessing, 10)
	tr.Publish(id, domain.StageErrorAnalysis, 75)
	snap, ok := tr.Get(id)
	if !ok || snap.Stage != domain.StageErrorAnalysis || snap.Percent != 75 {
		t.Fatalf("unexpected snapshot: %+v ok=%v", snap, ok)
	}

	tr.Clear(id)
	if _, ok := tr.Get(id); ok {
		t.Fatal("snapshot should be gone after Clear")
	}
}

func TestTrackerConcurrentPublish(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := domain.SessionID(rune('a' + n%10))
			tr.Publish(id, domain.StageOCRProcessing, n)
			tr.Get(id)
		}(i)
	}
	wg.Wait()
}
