package metadata

import (
	"testing"
	"time"
)

func TestPDTEverySegmentAlwaysFires(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewProgramDateTimeSync(start, start, PDTEverySegment)

	for i := int64(0); i < 3; i++ {
		date, fires := s.TagForSegment(i, 6.0, false)
		if !fires {
			t.Errorf("segment %d: fires = false, want true", i)
		}
		wantDate := start.Add(time.Duration(float64(i) * 6.0 * float64(time.Second)))
		if !date.Equal(wantDate) {
			t.Errorf("segment %d: date = %v, want %v", i, date, wantDate)
		}
	}
	if s.SegmentCount() != 3 {
		t.Errorf("SegmentCount = %d, want 3", s.SegmentCount())
	}
}

func TestPDTEveryNSegments(t *testing.T) {
	start := time.Now()
	s := NewProgramDateTimeSync(start, start, PDTEveryNSegments)
	s.N = 3

	expected := map[int64]bool{0: true, 1: false, 2: false, 3: true, 4: false, 5: false, 6: true}
	for idx, want := range expected {
		_, fires := s.TagForSegment(idx, 2.0, false)
		if fires != want {
			t.Errorf("index %d: fires = %v, want %v", idx, fires, want)
		}
	}
}

func TestPDTEveryNSegmentsZeroNBehavesAsEverySegment(t *testing.T) {
	start := time.Now()
	s := NewProgramDateTimeSync(start, start, PDTEveryNSegments)
	// N left at zero value.
	for i := int64(0); i < 4; i++ {
		_, fires := s.TagForSegment(i, 1.0, false)
		if !fires {
			t.Errorf("index %d: fires = false, want true when N<=0", i)
		}
	}
}

func TestPDTOnDiscontinuity(t *testing.T) {
	start := time.Now()
	s := NewProgramDateTimeSync(start, start, PDTOnDiscontinuity)

	_, fires := s.TagForSegment(0, 1.0, false)
	if !fires {
		t.Error("index 0 should always fire")
	}
	_, fires = s.TagForSegment(1, 1.0, false)
	if fires {
		t.Error("index 1 without discontinuity should not fire")
	}
	_, fires = s.TagForSegment(2, 1.0, true)
	if !fires {
		t.Error("index 2 following discontinuity should fire")
	}
}

func TestDrift(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewProgramDateTimeSync(start, start, PDTEverySegment)
	s.AdvanceAndGetDate(5.0)

	now := start.Add(10 * time.Second)
	drift := s.Drift(now)
	if drift != 5.0 {
		t.Errorf("Drift = %v, want 5.0 (10s wall - 5s media)", drift)
	}
}
