package metadata

import (
	"strings"
	"testing"
	"time"
)

func TestDateRangeOpenCloseRender(t *testing.T) {
	m := NewDateRangeManager()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Open("ad-1", start, "com.example.ad", nil, map[string]string{"X-CUSTOM": "v"})

	lines := m.RenderDateRanges()
	if len(lines) != 1 {
		t.Fatalf("RenderDateRanges returned %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], `ID="ad-1"`) {
		t.Errorf("line missing ID attribute: %s", lines[0])
	}
	if !strings.Contains(lines[0], `CLASS="com.example.ad"`) {
		t.Errorf("line missing CLASS attribute: %s", lines[0])
	}
	if !strings.Contains(lines[0], `X-CUSTOM="v"`) {
		t.Errorf("line missing custom attribute: %s", lines[0])
	}

	dur := 30.0
	if err := m.Close("ad-1", nil, &dur); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, ok := m.Get("ad-1")
	if !ok {
		t.Fatal("Get ok = false")
	}
	if r.State != DateRangeClosed {
		t.Errorf("State = %v, want DateRangeClosed", r.State)
	}
	if r.Duration != 30.0 {
		t.Errorf("Duration = %v, want 30", r.Duration)
	}
}

func TestDateRangeUpdateUnknownID(t *testing.T) {
	m := NewDateRangeManager()
	if err := m.Update("missing", nil); err == nil {
		t.Fatal("expected error updating unknown id")
	}
}

func TestEvictBeforeThenPurgeExpired(t *testing.T) {
	m := NewDateRangeManager()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Open("old", start, "", nil, nil)
	end := start.Add(time.Hour)
	if err := m.Close("old", &end, nil); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m.EvictBefore(start.Add(2 * time.Hour))
	r, _ := m.Get("old")
	if r.State != DateRangeExpired {
		t.Errorf("State after EvictBefore = %v, want DateRangeExpired", r.State)
	}

	m.PurgeExpired()
	if _, ok := m.Get("old"); ok {
		t.Error("range still present after PurgeExpired")
	}
}

func TestEvictBeforeLeavesRecentRangesAlone(t *testing.T) {
	m := NewDateRangeManager()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.Open("recent", start, "", nil, nil)
	end := start.Add(time.Hour)
	m.Close("recent", &end, nil)

	m.EvictBefore(start.Add(30 * time.Minute))
	r, _ := m.Get("recent")
	if r.State != DateRangeClosed {
		t.Errorf("State = %v, want still DateRangeClosed", r.State)
	}
}

func TestRenderDateRangesExcludesExpired(t *testing.T) {
	m := NewDateRangeManager()
	start := time.Now()
	m.Open("a", start, "", nil, nil)
	m.Open("b", start, "", nil, nil)
	m.Expire("a")

	lines := m.RenderDateRanges()
	if len(lines) != 1 {
		t.Fatalf("RenderDateRanges returned %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], `ID="b"`) {
		t.Errorf("expected only range b, got %s", lines[0])
	}
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	m := NewDateRangeManager()
	start := time.Now()
	m.Open("first", start, "", nil, nil)
	m.Open("second", start, "", nil, nil)
	m.Open("third", start, "", nil, nil)

	all := m.All()
	if len(all) != 3 {
		t.Fatalf("All returned %d ranges, want 3", len(all))
	}
	if all[0].ID != "first" || all[1].ID != "second" || all[2].ID != "third" {
		t.Errorf("insertion order not preserved: %v", []string{all[0].ID, all[1].ID, all[2].ID})
	}
}

func TestRestorePreservesState(t *testing.T) {
	m := NewDateRangeManager()
	r := &ManagedDateRange{ID: "restored", StartDate: time.Now(), State: DateRangeClosed}
	m.Restore(r)

	got, ok := m.Get("restored")
	if !ok {
		t.Fatal("Get ok = false after Restore")
	}
	if got.State != DateRangeClosed {
		t.Errorf("State = %v, want DateRangeClosed", got.State)
	}
}

func TestFormatAndParseISO8601RoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 123000000, time.UTC)
	s := FormatISO8601(ts)
	parsed, err := ParseISO8601(s)
	if err != nil {
		t.Fatalf("ParseISO8601: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("round trip = %v, want %v", parsed, ts)
	}
	if got, err := ParseISO8601(""); err != nil || !got.IsZero() {
		t.Errorf("ParseISO8601(\"\") = %v, %v; want zero time, nil", got, err)
	}
}
