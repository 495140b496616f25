package playlist

import "testing"

func TestMediaSequenceTrackerBasicFlow(t *testing.T) {
	tr := NewMediaSequenceTracker()
	tr.RecordAdd(0, false)
	tr.RecordAdd(1, false)
	tr.RecordAdd(2, true)

	if tr.TotalAdded() != 3 {
		t.Errorf("TotalAdded = %d, want 3", tr.TotalAdded())
	}
	if !tr.HasDiscontinuityBefore(2) {
		t.Error("HasDiscontinuityBefore(2) = false, want true")
	}

	tr.RecordEviction(0, false)
	if tr.MediaSequence() != 1 {
		t.Errorf("MediaSequence = %d, want 1", tr.MediaSequence())
	}
	if tr.DiscontinuitySequence() != 0 {
		t.Errorf("DiscontinuitySequence = %d, want 0", tr.DiscontinuitySequence())
	}

	tr.RecordEviction(1, false)
	tr.RecordEviction(2, true)
	if tr.DiscontinuitySequence() != 1 {
		t.Errorf("DiscontinuitySequence = %d, want 1 after evicting discontinuity-carrying segment", tr.DiscontinuitySequence())
	}
	if tr.HasDiscontinuityBefore(2) {
		t.Error("HasDiscontinuityBefore(2) = true after eviction, want false")
	}
	if tr.TotalEvicted() != tr.MediaSequence() {
		t.Errorf("TotalEvicted (%d) != MediaSequence (%d)", tr.TotalEvicted(), tr.MediaSequence())
	}
}

func TestMediaSequenceTrackerSetters(t *testing.T) {
	tr := NewMediaSequenceTracker()
	tr.SetMediaSequence(100)
	tr.SetDiscontinuitySequence(5)
	if tr.MediaSequence() != 100 {
		t.Errorf("MediaSequence = %d, want 100", tr.MediaSequence())
	}
	if tr.DiscontinuitySequence() != 5 {
		t.Errorf("DiscontinuitySequence = %d, want 5", tr.DiscontinuitySequence())
	}
}
