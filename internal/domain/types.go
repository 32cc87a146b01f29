package domain

// ConnectionStatus is the controller's own view of transport health,
// distinct from the websocket's native ready state.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// Stage is one ordered step of the server-side analysis pipeline.
type Stage int

const (
	StageTranscription      Stage = 1
	StageDocumentExtraction Stage = 2
	StageInsightExtraction  Stage = 3
	StageReportGeneration   Stage = 4
	StageDisplay            Stage = 5
)

// StageCount is the number of pipeline stages.
const StageCount = 5

// StageStatus tracks a stage through the pipeline.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
)

// ErrorCode identifies where a backend error originated.
type ErrorCode string

const (
	ErrorCodeStartup    ErrorCode = "startup"
	ErrorCodeTransport  ErrorCode = "transport"
	ErrorCodeServer     ErrorCode = "server"
	ErrorCodeSend       ErrorCode = "send"
	ErrorCodeProcessing ErrorCode = "processing"
	ErrorCodeAudio      ErrorCode = "audio"
	ErrorCodeRedact     ErrorCode = "redact"
	ErrorCodeClipboard  ErrorCode = "clipboard"
)

// ErrorDetail is a structured backend error surfaced to the UI.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Document is one reference document extracted by the stage-2 analysis.
// Score is absent when the server did not rate the document.
type Document struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Score *float64 `json:"score,omitempty"`
}

// KeyInsight is one insight extracted by the stage-3 analysis. The server
// sends insights as a keyed mapping; keys are discarded and the values are
// projected into this list, so cross-run ordering is not guaranteed.
type KeyInsight struct {
	ID      string  `json:"id"`
	Insight string  `json:"insight"`
	Score   float64 `json:"score"`
}

// MeetingMetadata is the metadata frame sent ahead of the audio blob.
type MeetingMetadata struct {
	MeetingID  string `json:"meeting_id"`
	Title      string `json:"title,omitempty"`
	RecordedAt string `json:"recorded_at,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// PipelineSnapshot is a point-in-time view of pipeline progress for the UI.
type PipelineSnapshot struct {
	Stages        map[Stage]StageStatus `json:"stages"`
	CurrentStage  Stage                 `json:"currentStage"`
	Documents     []Document            `json:"documents"`
	Insights      []KeyInsight          `json:"insights"`
	ReportHTML    string                `json:"reportHtml"`
	HighlightMode bool                  `json:"highlightMode"`
}
