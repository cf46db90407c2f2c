package store

import (
	"encoding/json"
	"testing"
)

func TestReportFetchCycle(t *testing.T) {
	s := New(nil)

	s.ReportFetchStart(DomainTrends, "")
	if report := s.Snapshot().Reports[DomainTrends]; !report.Loading || report.Error != "" {
		t.Fatalf("expected loading report, got %+v", report)
	}

	items := []ReportItem{{ID: "t1", Title: "Trend", Domain: DomainTrends}}
	s.ReportFetchSuccess(DomainTrends, items)
	report := s.Snapshot().Reports[DomainTrends]
	if report.Loading || len(report.Items) != 1 || report.Items[0].ID != "t1" {
		t.Fatalf("unexpected report after success: %+v", report)
	}

	s.ReportFetchFailure(DomainKeywords, "boom")
	if failed := s.Snapshot().Reports[DomainKeywords]; failed.Error != "boom" || failed.Loading {
		t.Fatalf("unexpected report after failure: %+v", failed)
	}
	if unaffected := s.Snapshot().Reports[DomainTrends]; len(unaffected.Items) != 1 {
		t.Fatal("failure in one domain must not touch another")
	}
}

func TestReportStartClearsPriorResults(t *testing.T) {
	s := New(nil)
	s.ReportFetchSuccess(DomainContent, []ReportItem{{ID: "c1"}})

	s.ReportFetchStart(DomainContent, "new query")
	report := s.Snapshot().Reports[DomainContent]
	if len(report.Items) != 0 || report.LastQuery != "new query" {
		t.Fatalf("start must reset the slice, got %+v", report)
	}
}

func TestMediaJobProgressNeverDecreases(t *testing.T) {
	s := New(nil)

	s.MediaJobProgress(MediaJob{ID: "vid-1", Kind: MediaVideo, Status: MediaProcessing, Progress: 50})
	s.MediaJobProgress(MediaJob{ID: "vid-1", Kind: MediaVideo, Status: MediaProcessing, Progress: 30})

	job := s.Snapshot().Media.Jobs["vid-1"]
	if job.Progress != 50 {
		t.Fatalf("progress rewound to %d", job.Progress)
	}
}

func TestMediaJobTerminalIsImmutable(t *testing.T) {
	s := New(nil)

	s.MediaJobProgress(MediaJob{ID: "img-1", Kind: MediaImage, Status: MediaProcessing, Progress: 50})
	s.MediaJobCompleted("img-1", MediaAsset{ID: "asset-1", Kind: MediaImage, URL: "/v1/media/assets/asset-1"})

	s.MediaJobProgress(MediaJob{ID: "img-1", Kind: MediaImage, Status: MediaProcessing, Progress: 60})
	s.MediaJobFailed("img-1", "late failure")

	job := s.Snapshot().Media.Jobs["img-1"]
	if job.Status != MediaCompleted || job.Progress != 100 || job.Error != "" {
		t.Fatalf("terminal job mutated: %+v", job)
	}
	if job.Asset == nil || job.Asset.ID != "asset-1" {
		t.Fatalf("asset lost: %+v", job)
	}
}

func TestMediaJobFailedSetsTerminalState(t *testing.T) {
	s := New(nil)

	s.MediaJobProgress(MediaJob{ID: "vid-2", Kind: MediaVideo, Status: MediaQueued, Progress: 5})
	s.MediaJobFailed("vid-2", "video generation timed out")

	job := s.Snapshot().Media.Jobs["vid-2"]
	if job.Status != MediaFailed || job.Progress != 100 || job.Error == "" {
		t.Fatalf("unexpected failed job: %+v", job)
	}

	s.MediaJobCompleted("vid-2", MediaAsset{ID: "x"})
	if s.Snapshot().Media.Jobs["vid-2"].Status != MediaFailed {
		t.Fatal("failed job must stay failed")
	}
}

func TestToggleCardSelectionIsIdempotentPair(t *testing.T) {
	s := New(nil)
	item := ReportItem{ID: "card-1", Title: "Card", Domain: DomainTrends}
	other := ReportItem{ID: "card-2", Title: "Other", Domain: DomainCopy}

	s.ToggleCardSelection(other)
	s.ToggleCardSelection(item)
	if got := len(s.Snapshot().Comparison.Selected); got != 2 {
		t.Fatalf("expected 2 selected, got %d", got)
	}

	s.ToggleCardSelection(item)
	selected := s.Snapshot().Comparison.Selected
	if len(selected) != 1 || selected[0].ID != "card-2" {
		t.Fatalf("double toggle must restore membership, got %+v", selected)
	}
}

func TestClearSelectionDropsReport(t *testing.T) {
	s := New(nil)
	s.ToggleCardSelection(ReportItem{ID: "a"})
	s.ComparisonSuccess(ComparativeReport{Title: "T", Summary: "S"})

	s.ClearSelection()
	comparison := s.Snapshot().Comparison
	if len(comparison.Selected) != 0 || comparison.Report != nil {
		t.Fatalf("clear must drop selection and report, got %+v", comparison)
	}
}

func TestAvailabilityRoundTrip(t *testing.T) {
	s := New(nil)
	if !s.Available() {
		t.Fatal("store must start available")
	}

	s.SetAPIOutage("quota exceeded")
	if s.Available() {
		t.Fatal("outage must flip availability off")
	}
	if msg := s.Snapshot().APIStatus.OutageMessage; msg != "quota exceeded" {
		t.Fatalf("unexpected outage message %q", msg)
	}

	s.ResetAPIStatus()
	if !s.Available() {
		t.Fatal("reset must restore availability")
	}
	if msg := s.Snapshot().APIStatus.OutageMessage; msg != "" {
		t.Fatalf("reset must clear outage message, got %q", msg)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := New(nil)
	s.InitiateSession("ceramics", "sell online", "hobbyists", "warm")

	session := s.Snapshot().Session
	if !session.Initiated || session.Niche != "ceramics" {
		t.Fatalf("unexpected session: %+v", session)
	}

	s.ReportFetchSuccess(DomainTrends, []ReportItem{{ID: "t1"}})
	s.LoginSuccess("admin@example.com")
	s.SetAPIOutage("quota exceeded")
	s.ClearSession()
	snapshot := s.Snapshot()
	if snapshot.Session.Initiated {
		t.Fatal("clear must reset the session")
	}
	if len(snapshot.Reports[DomainTrends].Items) != 0 {
		t.Fatal("clear must drop generated results")
	}
	if !snapshot.Auth.LoggedIn {
		t.Fatal("auth must survive the reset")
	}
	if snapshot.APIStatus.Available {
		t.Fatal("availability must survive the reset")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New(nil)
	s.ReportFetchSuccess(DomainTrends, []ReportItem{{
		ID:      "t1",
		Sources: []Source{{Title: "src", URI: "https://example.com"}},
		Payload: json.RawMessage(`{"k":"v"}`),
	}})

	snapshot := s.Snapshot()
	snapshot.Reports[DomainTrends].Items[0].Sources[0].Title = "mutated"
	snapshot.Media.Jobs["ghost"] = MediaJob{ID: "ghost"}

	fresh := s.Snapshot()
	if fresh.Reports[DomainTrends].Items[0].Sources[0].Title != "src" {
		t.Fatal("snapshot mutation leaked into the store")
	}
	if _, ok := fresh.Media.Jobs["ghost"]; ok {
		t.Fatal("snapshot map mutation leaked into the store")
	}
}

func TestListenerReceivesTransitionEvents(t *testing.T) {
	var events []Event
	s := New(func(event Event) { events = append(events, event) })

	s.SetAPIOutage("down")
	s.ResetAPIStatus()

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Name != "api_outage_set" || events[0].Fields["message"] != "down" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Name != "api_status_reset" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}
