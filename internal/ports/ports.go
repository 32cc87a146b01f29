package ports

import (
	"context"

	"debrief/internal/domain"
)

// SessionEvents is the callback set a caller supplies for one connection
// session. It is held exclusively by the session manager, replaced wholesale
// on each connect, and cleared when the connection goes away.
type SessionEvents interface {
	OnOpen()
	OnClose(reason string)
	OnError(detail domain.ErrorDetail)
	OnStageUpdate(stage domain.Stage, status domain.StageStatus)
	OnDocumentsReceived(documents []domain.Document)
	OnInsightsReceived(insights []domain.KeyInsight)
	OnHTMLReceived(markup string)
	OnSetCurrentStage(stage domain.Stage)
	OnSetHighlightMode(enabled bool)
	OnStatusChange(status domain.ConnectionStatus)
}

// ConnHandler receives lifecycle and message events for one connection.
// The transport invokes these serially, in arrival order.
type ConnHandler interface {
	HandleMessage(text string)
	HandleError(err error)
	HandleClose(reason string)
}

// Conn is a live transport connection. Start begins event delivery and may
// be called at most once.
type Conn interface {
	WriteText(data []byte) error
	WriteBinary(data []byte) error
	Start(handler ConnHandler)
	IsOpen() bool
	Close() error
}

// Dialer opens transport connections to the analysis server.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioRecording is an in-progress microphone capture. Stop ends the capture
// and returns the recorded blob; Discard ends it and drops the data.
type AudioRecording interface {
	Stop() ([]byte, error)
	Discard()
}

// AudioCapture begins microphone recordings.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioRecording, error)
}

// MeetingSession is the slice of the session manager the recorder needs.
type MeetingSession interface {
	IsConnected() bool
	SendMeetingData(metadata any, audio []byte) bool
}

// Redactor scrubs rendered text before it reaches the UI.
type Redactor interface {
	Apply(text string) string
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}
