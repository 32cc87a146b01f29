package usecase

import (
	"testing"

	"debrief/internal/domain"
)

func TestPipelineTrackerInitialState(t *testing.T) {
	t.Parallel()

	snapshot := NewPipelineTracker().Snapshot()
	if len(snapshot.Stages) != domain.StageCount {
		t.Fatalf("expected %d stages, got %d", domain.StageCount, len(snapshot.Stages))
	}
	for stage, status := range snapshot.Stages {
		if status != domain.StagePending {
			t.Fatalf("stage %d should start pending, got %s", stage, status)
		}
	}
	if snapshot.CurrentStage != 0 || snapshot.HighlightMode {
		t.Fatalf("unexpected initial snapshot: %+v", snapshot)
	}
	if len(snapshot.Documents) != 0 || len(snapshot.Insights) != 0 || snapshot.ReportHTML != "" {
		t.Fatalf("expected empty payloads")
	}
}

func TestPipelineTrackerFoldsUpdates(t *testing.T) {
	t.Parallel()

	tracker := NewPipelineTracker()
	tracker.ApplyStageUpdate(domain.StageTranscription, domain.StageCompleted)
	tracker.ApplyStageUpdate(domain.StageDocumentExtraction, domain.StageProcessing)
	tracker.SetCurrentStage(domain.StageDocumentExtraction)
	tracker.SetDocuments([]domain.Document{{ID: "d1", Title: "T", Type: "report"}})
	tracker.SetInsights([]domain.KeyInsight{{ID: "i1", Insight: "x", Score: 0.5}})
	tracker.SetReportHTML("<h1>r</h1>")
	tracker.SetHighlightMode(true)

	snapshot := tracker.Snapshot()
	if snapshot.Stages[domain.StageTranscription] != domain.StageCompleted {
		t.Fatalf("stage 1 not completed: %+v", snapshot.Stages)
	}
	if snapshot.Stages[domain.StageDocumentExtraction] != domain.StageProcessing {
		t.Fatalf("stage 2 not processing: %+v", snapshot.Stages)
	}
	if snapshot.CurrentStage != domain.StageDocumentExtraction {
		t.Fatalf("unexpected current stage: %d", snapshot.CurrentStage)
	}
	if len(snapshot.Documents) != 1 || snapshot.Documents[0].Title != "T" {
		t.Fatalf("unexpected documents: %+v", snapshot.Documents)
	}
	if len(snapshot.Insights) != 1 || snapshot.Insights[0].Insight != "x" {
		t.Fatalf("unexpected insights: %+v", snapshot.Insights)
	}
	if snapshot.ReportHTML != "<h1>r</h1>" || !snapshot.HighlightMode {
		t.Fatalf("unexpected report state: %+v", snapshot)
	}
}

func TestPipelineTrackerReset(t *testing.T) {
	t.Parallel()

	tracker := NewPipelineTracker()
	tracker.ApplyStageUpdate(domain.StageDisplay, domain.StageCompleted)
	tracker.SetReportHTML("<p>old</p>")
	tracker.SetHighlightMode(true)
	tracker.Reset()

	snapshot := tracker.Snapshot()
	if snapshot.Stages[domain.StageDisplay] != domain.StagePending {
		t.Fatalf("expected pending after reset")
	}
	if snapshot.ReportHTML != "" || snapshot.HighlightMode {
		t.Fatalf("expected cleared report state: %+v", snapshot)
	}
}

func TestPipelineTrackerSnapshotIsolation(t *testing.T) {
	t.Parallel()

	tracker := NewPipelineTracker()
	tracker.SetDocuments([]domain.Document{{ID: "d1"}})

	snapshot := tracker.Snapshot()
	snapshot.Stages[domain.StageTranscription] = domain.StageCompleted
	snapshot.Documents[0].ID = "mutated"

	fresh := tracker.Snapshot()
	if fresh.Stages[domain.StageTranscription] != domain.StagePending {
		t.Fatalf("snapshot mutation leaked into the tracker")
	}
	if fresh.Documents[0].ID != "d1" {
		t.Fatalf("document mutation leaked into the tracker")
	}
}
