package usecase

import (
	"sync"

	"debrief/internal/domain"
)

// PipelineTracker folds stage-transition and payload callbacks into a
// snapshot the UI can poll. The session manager itself keeps no stage
// table; this is the client-side view of pipeline progress.
type PipelineTracker struct {
	mu            sync.Mutex
	stages        map[domain.Stage]domain.StageStatus
	currentStage  domain.Stage
	documents     []domain.Document
	insights      []domain.KeyInsight
	reportHTML    string
	highlightMode bool
}

func NewPipelineTracker() *PipelineTracker {
	t := &PipelineTracker{}
	t.reset()
	return t
}

func (t *PipelineTracker) reset() {
	t.stages = make(map[domain.Stage]domain.StageStatus, domain.StageCount)
	for stage := domain.Stage(1); stage <= domain.StageCount; stage++ {
		t.stages[stage] = domain.StagePending
	}
	t.currentStage = 0
	t.documents = nil
	t.insights = nil
	t.reportHTML = ""
	t.highlightMode = false
}

// Reset returns every stage to pending and clears received payloads.
func (t *PipelineTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

func (t *PipelineTracker) ApplyStageUpdate(stage domain.Stage, status domain.StageStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages[stage] = status
}

func (t *PipelineTracker) SetCurrentStage(stage domain.Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentStage = stage
}

func (t *PipelineTracker) SetDocuments(documents []domain.Document) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.documents = append([]domain.Document(nil), documents...)
}

func (t *PipelineTracker) SetInsights(insights []domain.KeyInsight) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insights = append([]domain.KeyInsight(nil), insights...)
}

func (t *PipelineTracker) SetReportHTML(markup string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reportHTML = markup
}

func (t *PipelineTracker) SetHighlightMode(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.highlightMode = enabled
}

// Snapshot returns a copy of the current pipeline view.
func (t *PipelineTracker) Snapshot() domain.PipelineSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	stages := make(map[domain.Stage]domain.StageStatus, len(t.stages))
	for stage, status := range t.stages {
		stages[stage] = status
	}
	return domain.PipelineSnapshot{
		Stages:        stages,
		CurrentStage:  t.currentStage,
		Documents:     append([]domain.Document(nil), t.documents...),
		Insights:      append([]domain.KeyInsight(nil), t.insights...),
		ReportHTML:    t.reportHTML,
		HighlightMode: t.highlightMode,
	}
}
