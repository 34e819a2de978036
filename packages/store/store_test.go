package store

import (
	"testing"

	"github.com/CrazyJK/image-download/packages/domain"
)

func TestDrainQueued(t *testing.T) {
	s := &Storage{resultQueue: make(chan domain.BatchResult, 8)}
	s.resultQueue <- domain.BatchResult{BatchID: "a"}
	s.resultQueue <- domain.BatchResult{BatchID: "b"}
	s.resultQueue <- domain.BatchResult{BatchID: "c"}

	drained := s.drainQueued()

	if len(drained) != 3 {
		t.Fatalf("drained %d results, expected 3", len(drained))
	}
	for i, id := range []string{"a", "b", "c"} {
		if drained[i].BatchID != id {
			t.Errorf("drained[%d].BatchID = %q, expected %q", i, drained[i].BatchID, id)
		}
	}
	if len(s.resultQueue) != 0 {
		t.Errorf("queue still holds %d results after drain", len(s.resultQueue))
	}
}

func TestDrainQueued_EmptyQueueDoesNotBlock(t *testing.T) {
	s := &Storage{resultQueue: make(chan domain.BatchResult, 8)}
	if drained := s.drainQueued(); len(drained) != 0 {
		t.Errorf("drained %d results from an empty queue", len(drained))
	}
}

func TestDrainQueued_ClosedQueue(t *testing.T) {
	s := &Storage{resultQueue: make(chan domain.BatchResult, 8)}
	s.resultQueue <- domain.BatchResult{BatchID: "a"}
	close(s.resultQueue)

	if drained := s.drainQueued(); len(drained) != 1 {
		t.Errorf("drained %d results, expected 1 from the closed queue", len(drained))
	}
}

func TestRecordBatch_DropsWhenFull(t *testing.T) {
	s := &Storage{resultQueue: make(chan domain.BatchResult, 1)}
	s.RecordBatch(domain.BatchResult{BatchID: "kept"})
	s.RecordBatch(domain.BatchResult{BatchID: "dropped"})

	if len(s.resultQueue) != 1 {
		t.Fatalf("queue holds %d results, expected 1", len(s.resultQueue))
	}
	if result := <-s.resultQueue; result.BatchID != "kept" {
		t.Errorf("queued BatchID = %q, expected %q", result.BatchID, "kept")
	}
}
