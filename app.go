package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"debrief/internal/bootstrap"
	"debrief/internal/config"
	"debrief/internal/domain"
	"debrief/internal/ports"
	"debrief/internal/session"
	"debrief/internal/usecase"
)

const (
	eventOpen         = "debrief:open"
	eventClose        = "debrief:close"
	eventError        = "debrief:error"
	eventStage        = "debrief:stage"
	eventDocuments    = "debrief:documents"
	eventInsights     = "debrief:insights"
	eventReport       = "debrief:report"
	eventCurrentStage = "debrief:current-stage"
	eventHighlight    = "debrief:highlight"
	eventStatus       = "debrief:status"
)

// App is the Wails application root. It doubles as the session callback
// set: every session event is forwarded to the frontend as a runtime event
// and folded into the pipeline tracker.
type App struct {
	ctx context.Context

	session   *session.Manager
	recorder  *usecase.Recorder
	pipeline  *usecase.PipelineTracker
	redactor  ports.Redactor
	clipboard ports.Clipboard
	cfg       config.Config
	bootErr   error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.clipboard = &wailsClipboard{}

	services, err := bootstrap.Build()
	if err != nil {
		a.bootErr = err
		a.OnError(domain.ErrorDetail{Code: domain.ErrorCodeStartup, Message: err.Error()})
		return
	}

	a.cfg = services.Config
	a.session = services.Session
	a.recorder = services.Recorder
	a.pipeline = services.Pipeline
	a.redactor = services.Redactor
}

// Connect opens the connection to the analysis server and resets the
// pipeline view for a fresh session.
func (a *App) Connect() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.pipeline.Reset()
	a.session.Connect(a.ctx, a)
	return nil
}

// DisconnectSession tears the connection down silently.
func (a *App) DisconnectSession() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.session.Disconnect()
	return nil
}

// StartRecording begins capturing meeting audio.
func (a *App) StartRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.recorder.Start(a.ctx); err != nil {
		a.OnError(domain.ErrorDetail{Code: domain.ErrorCodeAudio, Message: err.Error()})
		return err
	}
	return nil
}

// StopAndSend stops the capture and uploads the meeting for analysis.
func (a *App) StopAndSend(title string) (domain.MeetingMetadata, error) {
	if err := a.requireReady(); err != nil {
		return domain.MeetingMetadata{}, err
	}
	meta, err := a.recorder.StopAndSend(title)
	if err != nil {
		code := domain.ErrorCodeAudio
		if errors.Is(err, usecase.ErrNotConnected) || errors.Is(err, usecase.ErrSendRejected) {
			code = domain.ErrorCodeSend
		}
		a.OnError(domain.ErrorDetail{Code: code, Message: err.Error()})
		return domain.MeetingMetadata{}, err
	}
	return meta, nil
}

// CancelRecording discards an in-progress capture.
func (a *App) CancelRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.recorder.Cancel(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveRecording) {
			return nil
		}
		return err
	}
	return nil
}

// GetPipeline returns the current pipeline view for UI polling.
func (a *App) GetPipeline() domain.PipelineSnapshot {
	if a.pipeline == nil {
		return domain.PipelineSnapshot{}
	}
	return a.pipeline.Snapshot()
}

// GetConnectionStatus returns the controller's connection status.
func (a *App) GetConnectionStatus() domain.ConnectionStatus {
	if a.session == nil {
		return domain.StatusDisconnected
	}
	return a.session.Status()
}

// IsConnected reports whether the transport connection is open.
func (a *App) IsConnected() bool {
	return a.session != nil && a.session.IsConnected()
}

// CopyReport writes the rendered report markup to the system clipboard.
func (a *App) CopyReport() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	report := a.pipeline.Snapshot().ReportHTML
	if report == "" {
		return errors.New("no report available")
	}
	if err := a.clipboard.SetText(a.ctx, report); err != nil {
		a.OnError(domain.ErrorDetail{Code: domain.ErrorCodeClipboard, Message: err.Error()})
		return err
	}
	return nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	return map[string]string{
		"serverUrl":        a.cfg.Server.URL,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"redactFile":       a.cfg.Redact.Path,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.session == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// OnOpen implements ports.SessionEvents.
func (a *App) OnOpen() {
	a.emit(eventOpen, nil)
}

func (a *App) OnClose(reason string) {
	a.emit(eventClose, map[string]string{"reason": reason})
}

func (a *App) OnError(detail domain.ErrorDetail) {
	a.emit(eventError, map[string]string{
		"code":    string(detail.Code),
		"message": errorMessage(detail.Code, detail.Message),
		"detail":  detail.Message,
	})
}

func (a *App) OnStageUpdate(stage domain.Stage, status domain.StageStatus) {
	if a.pipeline != nil {
		a.pipeline.ApplyStageUpdate(stage, status)
	}
	a.emit(eventStage, map[string]any{"stage": int(stage), "status": string(status)})
}

func (a *App) OnDocumentsReceived(documents []domain.Document) {
	if a.pipeline != nil {
		a.pipeline.SetDocuments(documents)
	}
	a.emit(eventDocuments, documents)
}

func (a *App) OnInsightsReceived(insights []domain.KeyInsight) {
	scrubbed := make([]domain.KeyInsight, len(insights))
	for i, insight := range insights {
		insight.Insight = a.redact(insight.Insight)
		scrubbed[i] = insight
	}
	if a.pipeline != nil {
		a.pipeline.SetInsights(scrubbed)
	}
	a.emit(eventInsights, scrubbed)
}

func (a *App) OnHTMLReceived(markup string) {
	markup = a.redact(markup)
	if a.pipeline != nil {
		a.pipeline.SetReportHTML(markup)
	}
	a.emit(eventReport, map[string]string{"html": markup})
}

func (a *App) OnSetCurrentStage(stage domain.Stage) {
	if a.pipeline != nil {
		a.pipeline.SetCurrentStage(stage)
	}
	a.emit(eventCurrentStage, map[string]int{"stage": int(stage)})
}

func (a *App) OnSetHighlightMode(enabled bool) {
	if a.pipeline != nil {
		a.pipeline.SetHighlightMode(enabled)
	}
	a.emit(eventHighlight, map[string]bool{"enabled": enabled})
}

func (a *App) OnStatusChange(status domain.ConnectionStatus) {
	a.emit(eventStatus, map[string]string{"status": string(status)})
}

func (a *App) redact(text string) string {
	if a.redactor == nil {
		return text
	}
	return a.redactor.Apply(text)
}

func (a *App) emit(event string, payload any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, payload)
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeTransport:
		return "Connection issue"
	case domain.ErrorCodeServer:
		return "Server reported an error"
	case domain.ErrorCodeSend:
		return "Meeting upload failed"
	case domain.ErrorCodeProcessing:
		return "Server message could not be processed"
	case domain.ErrorCodeAudio:
		return "Audio recording issue"
	case domain.ErrorCodeRedact:
		return "Redaction rules failed"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
