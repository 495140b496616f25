package playlist

import (
	"testing"

	"github.com/ausocean/hlsorigin/hlserr"
	"github.com/ausocean/hlsorigin/livemodel"
)

func TestNewSlidingWindowPlaylistRejectsNonPositiveWindow(t *testing.T) {
	if _, err := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: 0}, testLogger()); err == nil {
		t.Fatal("expected error for zero window size")
	}
	if _, err := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: -1}, testLogger()); err == nil {
		t.Fatal("expected error for negative window size")
	}
}

func TestSlidingWindowAddSegmentEvicts(t *testing.T) {
	p, err := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: 2, TargetDuration: 6, Version: 7}, testLogger())
	if err != nil {
		t.Fatalf("NewSlidingWindowPlaylist: %v", err)
	}

	for i := int64(0); i < 3; i++ {
		if err := p.AddSegment(&livemodel.LiveSegment{Index: i, Duration: 6, Filename: "seg.ts"}); err != nil {
			t.Fatalf("AddSegment(%d): %v", i, err)
		}
	}

	if got := p.SegmentCount(); got != 2 {
		t.Errorf("SegmentCount = %d, want 2", got)
	}
	if got := p.MediaSequence(); got != 1 {
		t.Errorf("MediaSequence = %d, want 1", got)
	}
}

func TestSlidingWindowEndStreamIdempotentAndRejects(t *testing.T) {
	p, _ := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: 2, TargetDuration: 6, Version: 7}, testLogger())
	p.EndStream()
	p.EndStream() // idempotent, must not panic or double-emit

	err := p.AddSegment(&livemodel.LiveSegment{Index: 0, Duration: 6, Filename: "seg.ts"})
	if err == nil {
		t.Fatal("expected error adding segment after EndStream")
	}
	herr, ok := err.(*hlserr.Error)
	if !ok {
		t.Fatalf("error not *hlserr.Error: %T", err)
	}
	if herr.Kind != hlserr.StreamEnded {
		t.Errorf("Kind = %v, want StreamEnded", herr.Kind)
	}
}

func TestSlidingWindowEventOrdering(t *testing.T) {
	p, _ := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: 1, TargetDuration: 6, Version: 7}, testLogger())
	events := p.Events()

	p.AddSegment(&livemodel.LiveSegment{Index: 0, Duration: 6, Filename: "seg0.ts"})
	if e := <-events; e.Kind != SegmentAdded {
		t.Fatalf("event 1 = %v, want SegmentAdded", e.Kind)
	}
	if e := <-events; e.Kind != PlaylistUpdated {
		t.Fatalf("event 2 = %v, want PlaylistUpdated", e.Kind)
	}

	p.AddSegment(&livemodel.LiveSegment{Index: 1, Duration: 6, Filename: "seg1.ts"})
	if e := <-events; e.Kind != SegmentAdded {
		t.Fatalf("event 3 = %v, want SegmentAdded", e.Kind)
	}
	if e := <-events; e.Kind != SegmentRemoved {
		t.Fatalf("event 4 = %v, want SegmentRemoved", e.Kind)
	}
	if e := <-events; e.Kind != PlaylistUpdated {
		t.Fatalf("event 5 = %v, want PlaylistUpdated", e.Kind)
	}

	p.EndStream()
	if e := <-events; e.Kind != StreamEnded {
		t.Fatalf("event 6 = %v, want StreamEnded", e.Kind)
	}
	if _, ok := <-events; ok {
		t.Fatal("channel should be closed after StreamEnded")
	}
}

func TestSlidingWindowAddPartialSegment(t *testing.T) {
	p, _ := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: 2, TargetDuration: 6, Version: 7}, testLogger())
	p.AddSegment(&livemodel.LiveSegment{Index: 0, Duration: 6, Filename: "seg0.ts"})

	if err := p.AddPartialSegment(0); err != nil {
		t.Errorf("AddPartialSegment(0): %v", err)
	}
	if err := p.AddPartialSegment(99); err == nil {
		t.Error("expected error for unknown parent segment")
	}
}

func TestSlidingWindowRenderReflectsState(t *testing.T) {
	p, _ := NewSlidingWindowPlaylist(SlidingWindowConfig{WindowSize: 2, TargetDuration: 6, Version: 7}, testLogger())
	p.AddSegment(&livemodel.LiveSegment{Index: 0, Duration: 6, Filename: "seg0.ts"})

	out := p.Render()
	if !contains(out, "seg0.ts") {
		t.Errorf("Render output missing segment filename: %s", out)
	}

	p.EndStream()
	out = p.Render()
	if !contains(out, "#EXT-X-ENDLIST") {
		t.Error("Render output missing ENDLIST after EndStream")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
