package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"debrief/internal/domain"
	"debrief/internal/ports"
)

// Manager owns the single live connection to the analysis server. It keeps
// the connection-status model consistent with transport lifecycle events,
// holds the caller's callback set for the duration of one session, and
// translates inbound protocol text into typed stage and payload callbacks.
type Manager struct {
	dialer    ports.Dialer
	serverURL string
	log       *zap.Logger

	mu        sync.Mutex
	conn      ports.Conn
	callbacks ports.SessionEvents
	status    domain.ConnectionStatus
}

func NewManager(dialer ports.Dialer, serverURL string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dialer:    dialer,
		serverURL: serverURL,
		log:       log,
		status:    domain.StatusDisconnected,
	}
}

var (
	sharedMu sync.Mutex
	shared   *Manager
)

// Shared returns the process-wide manager, creating it on first use. The
// arguments only matter on the creating call; later calls return the same
// instance regardless.
func Shared(dialer ports.Dialer, serverURL string, log *zap.Logger) *Manager {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewManager(dialer, serverURL, log)
	}
	return shared
}

// Connect establishes the connection and installs the callback set. If a
// connection is already open, the callback set is replaced, "connected" is
// re-affirmed without a duplicate status notification, and OnOpen fires
// again so the caller can redo its setup work.
func (m *Manager) Connect(ctx context.Context, callbacks ports.SessionEvents) {
	m.mu.Lock()
	if m.conn != nil && m.conn.IsOpen() {
		m.callbacks = callbacks
		changed := m.status != domain.StatusConnected
		m.status = domain.StatusConnected
		m.mu.Unlock()

		if changed {
			callbacks.OnStatusChange(domain.StatusConnected)
		}
		callbacks.OnOpen()
		return
	}
	m.callbacks = callbacks
	m.mu.Unlock()

	m.setStatus(domain.StatusConnecting)

	conn, err := m.dialer.Dial(ctx, m.serverURL)
	if err != nil {
		m.fail(domain.ErrorCodeTransport, fmt.Sprintf("connection failed: %v", err))
		return
	}

	m.mu.Lock()
	if m.callbacks == nil {
		// Disconnected while the dial was in flight.
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.mu.Unlock()

	m.setStatus(domain.StatusConnected)
	if cb := m.events(); cb != nil {
		cb.OnOpen()
	}
	conn.Start(&connHandler{manager: m, conn: conn})
}

// Disconnect tears the connection down without reporting close or error
// events and forces status to "disconnected". Safe to call when already
// disconnected.
func (m *Manager) Disconnect() {
	m.dropConnection()

	m.mu.Lock()
	m.status = domain.StatusDisconnected
	m.mu.Unlock()
}

// SendMeetingData serializes the metadata as one text frame, then sends the
// audio blob as one binary frame, and reports whether both were delivered.
// After a successful send, stage 1 is optimistically marked as processing;
// that is a UI-responsiveness signal, not a server acknowledgment.
func (m *Manager) SendMeetingData(metadata any, audio []byte) bool {
	m.mu.Lock()
	conn := m.conn
	status := m.status
	m.mu.Unlock()

	if conn == nil || !conn.IsOpen() || status != domain.StatusConnected {
		return false
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		m.fail(domain.ErrorCodeSend, fmt.Sprintf("failed to encode meeting metadata: %v", err))
		return false
	}
	if err := conn.WriteText(encoded); err != nil {
		m.fail(domain.ErrorCodeSend, fmt.Sprintf("failed to send meeting metadata: %v", err))
		return false
	}
	if err := conn.WriteBinary(audio); err != nil {
		m.fail(domain.ErrorCodeSend, fmt.Sprintf("failed to send meeting audio: %v", err))
		return false
	}

	if cb := m.events(); cb != nil {
		cb.OnStageUpdate(domain.StageTranscription, domain.StageProcessing)
		cb.OnSetCurrentStage(domain.StageTranscription)
	}
	return true
}

// IsConnected reports whether a connection exists and its transport is open.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && m.conn.IsOpen()
}

// Status returns the current connection status.
func (m *Manager) Status() domain.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// setStatus updates the status and notifies only on an actual change.
func (m *Manager) setStatus(status domain.ConnectionStatus) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	callbacks := m.callbacks
	m.mu.Unlock()

	if changed && callbacks != nil {
		callbacks.OnStatusChange(status)
	}
}

func (m *Manager) events() ports.SessionEvents {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callbacks
}

// fail absorbs a failure at the manager boundary: status goes to "error"
// and OnError fires. Nothing propagates past this point.
func (m *Manager) fail(code domain.ErrorCode, message string) {
	callbacks := m.events()
	m.setStatus(domain.StatusError)
	if callbacks != nil {
		callbacks.OnError(domain.ErrorDetail{Code: code, Message: message})
	}
}

// dropConnection closes the transport and clears the connection reference
// and callback set without emitting close events or touching status.
func (m *Manager) dropConnection() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.callbacks = nil
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// connHandler routes transport events for one specific connection into the
// manager. Carrying the conn lets the manager drop events that race a
// manual disconnect or belong to a superseded connection.
type connHandler struct {
	manager *Manager
	conn    ports.Conn
}

func (h *connHandler) HandleMessage(text string) { h.manager.handleMessage(h.conn, text) }
func (h *connHandler) HandleError(err error)     { h.manager.handleTransportError(h.conn, err) }
func (h *connHandler) HandleClose(reason string) { h.manager.handleClose(h.conn, reason) }

func (m *Manager) isCurrent(conn ports.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn == conn
}

func (m *Manager) handleTransportError(conn ports.Conn, err error) {
	if !m.isCurrent(conn) {
		return
	}
	m.fail(domain.ErrorCodeTransport, err.Error())
}

func (m *Manager) handleClose(conn ports.Conn, reason string) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	callbacks := m.callbacks
	m.callbacks = nil
	changed := false
	if m.status != domain.StatusError {
		changed = m.status != domain.StatusDisconnected
		m.status = domain.StatusDisconnected
	}
	status := m.status
	m.mu.Unlock()

	_ = conn.Close()

	if callbacks == nil {
		return
	}
	if changed {
		callbacks.OnStatusChange(status)
	}
	callbacks.OnClose(reason)
}

func (m *Manager) handleMessage(conn ports.Conn, text string) {
	if !m.isCurrent(conn) {
		// Late delivery racing a disconnect; drop it.
		return
	}

	// Interpreter failures must not kill the read loop.
	defer func() {
		if r := recover(); r != nil {
			m.fail(domain.ErrorCodeProcessing, fmt.Sprintf("message processing failed: %v", r))
		}
	}()

	message, err := classify(text, time.Now())
	if err != nil {
		m.fail(domain.ErrorCodeProcessing, err.Error())
		return
	}
	m.dispatch(message, text)
}

func (m *Manager) dispatch(message inbound, raw string) {
	callbacks := m.events()
	if callbacks == nil {
		return
	}

	switch message.kind {
	case inboundFatalError:
		m.setStatus(domain.StatusError)
		callbacks.OnError(domain.ErrorDetail{Code: domain.ErrorCodeServer, Message: message.detail})
		m.dropConnection()

	case inboundServerError:
		// Server errors are not assumed fatal; the connection stays open.
		m.setStatus(domain.StatusError)
		callbacks.OnError(domain.ErrorDetail{Code: domain.ErrorCodeServer, Message: message.detail})

	case inboundStage1Done:
		callbacks.OnStageUpdate(domain.StageTranscription, domain.StageCompleted)
		callbacks.OnStageUpdate(domain.StageDocumentExtraction, domain.StageProcessing)
		callbacks.OnSetCurrentStage(domain.StageDocumentExtraction)

	case inboundStage2Done:
		callbacks.OnStageUpdate(domain.StageDocumentExtraction, domain.StageCompleted)
		callbacks.OnStageUpdate(domain.StageInsightExtraction, domain.StageProcessing)
		callbacks.OnSetCurrentStage(domain.StageInsightExtraction)
		callbacks.OnDocumentsReceived(message.documents)

	case inboundStage3Done:
		callbacks.OnStageUpdate(domain.StageInsightExtraction, domain.StageCompleted)
		callbacks.OnStageUpdate(domain.StageReportGeneration, domain.StageProcessing)
		callbacks.OnSetCurrentStage(domain.StageReportGeneration)
		callbacks.OnInsightsReceived(message.insights)

	case inboundStage4Done:
		callbacks.OnStageUpdate(domain.StageReportGeneration, domain.StageCompleted)
		callbacks.OnStageUpdate(domain.StageDisplay, domain.StageProcessing)
		callbacks.OnSetCurrentStage(domain.StageDisplay)
		callbacks.OnHTMLReceived(message.markup)
		callbacks.OnSetHighlightMode(true)
		// Display is instantaneous once content is delivered.
		callbacks.OnStageUpdate(domain.StageDisplay, domain.StageCompleted)

	default:
		m.log.Debug("unrecognized server message", zap.String("text", truncate(raw, 120)))
	}
}

// truncate shortens log text without splitting a multibyte rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
