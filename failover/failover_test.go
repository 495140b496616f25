package failover

import (
	"testing"
	"time"
)

func TestActiveURIDefaultsToPrimary(t *testing.T) {
	f := NewFailoverManager()
	if got := f.ActiveURI("https://origin/primary.m3u8"); got != "https://origin/primary.m3u8" {
		t.Errorf("ActiveURI = %q, want primary unchanged", got)
	}
}

func TestReportFailureEscalatesAndClamps(t *testing.T) {
	f := NewFailoverManager()
	f.Register("primary", []string{"backup1", "backup2"})

	f.ReportFailure("primary", time.Unix(0, 0))
	if got := f.ActiveURI("primary"); got != "backup1" {
		t.Errorf("ActiveURI after 1 failure = %q, want backup1", got)
	}

	f.ReportFailure("primary", time.Unix(1, 0))
	if got := f.ActiveURI("primary"); got != "backup2" {
		t.Errorf("ActiveURI after 2 failures = %q, want backup2", got)
	}

	// A third failure should clamp at the last backup, not go out of range.
	f.ReportFailure("primary", time.Unix(2, 0))
	if got := f.ActiveURI("primary"); got != "backup2" {
		t.Errorf("ActiveURI after 3 failures = %q, want backup2 (clamped)", got)
	}

	status, ok := f.Status("primary")
	if !ok {
		t.Fatal("Status ok = false, want true")
	}
	if status.FailureCount != 3 {
		t.Errorf("FailureCount = %d, want 3", status.FailureCount)
	}
}

func TestReportRecoveryResetsIndexButNotFailureCount(t *testing.T) {
	f := NewFailoverManager()
	f.Register("primary", []string{"backup1"})
	f.ReportFailure("primary", time.Now())
	f.ReportRecovery("primary")

	if got := f.ActiveURI("primary"); got != "primary" {
		t.Errorf("ActiveURI after recovery = %q, want primary", got)
	}
	status, ok := f.Status("primary")
	if !ok {
		t.Fatal("Status ok = false")
	}
	if status.FailureCount != 1 {
		t.Errorf("FailureCount after recovery = %d, want 1 (preserved)", status.FailureCount)
	}
	if status.CurrentBackupIdx != -1 {
		t.Errorf("CurrentBackupIdx after recovery = %d, want -1", status.CurrentBackupIdx)
	}
}

func TestReportFailureWithNoBackupsTracksCountOnly(t *testing.T) {
	f := NewFailoverManager()
	f.ReportFailure("unregistered", time.Now())

	if got := f.ActiveURI("unregistered"); got != "unregistered" {
		t.Errorf("ActiveURI = %q, want unchanged primary with no backups", got)
	}
	status, ok := f.Status("unregistered")
	if !ok {
		t.Fatal("Status ok = false, want true (failure was recorded)")
	}
	if status.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", status.FailureCount)
	}
}

func TestResetClearsAllState(t *testing.T) {
	f := NewFailoverManager()
	f.Register("primary", []string{"backup1"})
	f.ReportFailure("primary", time.Now())
	f.Reset()

	if _, ok := f.Status("primary"); ok {
		t.Error("Status ok = true after Reset, want false")
	}
}

func TestStatusUnknownPrimary(t *testing.T) {
	f := NewFailoverManager()
	if _, ok := f.Status("nope"); ok {
		t.Error("Status ok = true for never-seen primary, want false")
	}
}
