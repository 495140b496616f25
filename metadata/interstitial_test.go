package metadata

import (
	"testing"
	"time"
)

func TestScheduleAdAndActiveInterstitials(t *testing.T) {
	m := NewInterstitialManager()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	resume := 30.0
	it := m.ScheduleAd("https://ads.example/1.m3u8", start, &resume)

	all := m.Interstitials()
	if len(all) != 1 {
		t.Fatalf("Interstitials() returned %d, want 1", len(all))
	}
	if all[0].ID != it.ID {
		t.Errorf("ID = %q, want %q", all[0].ID, it.ID)
	}
	if all[0].AssetURI != "https://ads.example/1.m3u8" {
		t.Errorf("AssetURI = %q", all[0].AssetURI)
	}
	if all[0].ResumeOffset == nil || *all[0].ResumeOffset != 30.0 {
		t.Errorf("ResumeOffset = %v, want 30.0", all[0].ResumeOffset)
	}

	active := m.ActiveInterstitials(start.Add(time.Second))
	if len(active) != 1 {
		t.Fatalf("ActiveInterstitials = %d, want 1", len(active))
	}
}

func TestScheduleBumperSetsRestrictFlags(t *testing.T) {
	m := NewInterstitialManager()
	it := m.ScheduleBumper("https://ads.example/bumper.m3u8", time.Now())

	all := m.Interstitials()
	if len(all[findByID(all, it.ID)].Restrict) != 2 {
		t.Fatalf("Restrict = %v, want 2 flags", all[findByID(all, it.ID)].Restrict)
	}
}

func findByID(its []*HLSInterstitial, id string) int {
	for i, it := range its {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func TestCompleteMovesToCompletedList(t *testing.T) {
	m := NewInterstitialManager()
	it := m.ScheduleAd("https://ads.example/1.m3u8", time.Now(), nil)

	if err := m.Complete(it.ID, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	completed := m.CompletedInterstitials()
	if len(completed) != 1 {
		t.Fatalf("CompletedInterstitials = %d, want 1", len(completed))
	}
	if completed[0].CompletedAt == nil {
		t.Error("CompletedAt is nil")
	}
}

func TestScheduleFromSCTE35UsesBreakDuration(t *testing.T) {
	m := NewInterstitialManager()
	marker := &SCTE35Marker{
		CommandType:   SpliceInsert,
		EventID:       1,
		BreakDuration: BreakDuration{Present: true, Duration: 90000 * 30},
	}
	it, err := m.ScheduleFromSCTE35(marker, time.Now(), "https://ads.example/scte.m3u8")
	if err != nil {
		t.Fatalf("ScheduleFromSCTE35: %v", err)
	}

	r, ok := m.DateRanges().Get(it.ID)
	if !ok {
		t.Fatal("backing date range not found")
	}
	if !r.HasPlannedDuration || r.PlannedDuration != 30.0 {
		t.Errorf("PlannedDuration = %v, want 30.0", r.PlannedDuration)
	}
	if r.SCTE35Out == "" {
		t.Error("SCTE35Out not set on backing date range")
	}
}

func TestScheduleFromSCTE35RejectsNonInsert(t *testing.T) {
	m := NewInterstitialManager()
	marker := &SCTE35Marker{CommandType: TimeSignal}
	if _, err := m.ScheduleFromSCTE35(marker, time.Now(), "uri"); err == nil {
		t.Fatal("expected error for non splice_insert command")
	}
}

func TestUpcomingOrderedByStartDate(t *testing.T) {
	m := NewInterstitialManager()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.ScheduleAd("a", base.Add(3*time.Hour), nil)
	m.ScheduleAd("b", base.Add(1*time.Hour), nil)
	m.ScheduleAd("c", base.Add(2*time.Hour), nil)

	upcoming := m.Upcoming(base)
	if len(upcoming) != 3 {
		t.Fatalf("Upcoming = %d, want 3", len(upcoming))
	}
	if upcoming[0].AssetURI != "b" || upcoming[1].AssetURI != "c" || upcoming[2].AssetURI != "a" {
		t.Errorf("order wrong: %v", []string{upcoming[0].AssetURI, upcoming[1].AssetURI, upcoming[2].AssetURI})
	}
}
