package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"debrief/internal/domain"
	"debrief/internal/ports"
)

var (
	ErrNoActiveRecording = errors.New("no active recording")
	ErrNotConnected      = errors.New("not connected to the analysis server")
	ErrSendRejected      = errors.New("meeting upload was rejected by the connection")
)

// Config controls meeting recording behavior.
type Config struct {
	Audio ports.AudioConfig
}

// Recorder captures one meeting at a time and hands the finished take to
// the session manager for upload.
type Recorder struct {
	capture ports.AudioCapture
	session ports.MeetingSession
	cfg     Config

	mu      sync.Mutex
	current ports.AudioRecording
}

func NewRecorder(capture ports.AudioCapture, session ports.MeetingSession, cfg Config) *Recorder {
	return &Recorder{capture: capture, session: session, cfg: cfg}
}

// Start begins a new capture. An in-progress recording is discarded first.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	previous := r.current
	r.current = nil
	r.mu.Unlock()

	if previous != nil {
		previous.Discard()
	}

	rec, err := r.capture.Start(ctx, r.cfg.Audio)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current = rec
	r.mu.Unlock()
	return nil
}

// StopAndSend stops the capture and uploads the take with its metadata over
// the live connection.
func (r *Recorder) StopAndSend(title string) (domain.MeetingMetadata, error) {
	r.mu.Lock()
	rec := r.current
	r.current = nil
	r.mu.Unlock()

	if rec == nil {
		return domain.MeetingMetadata{}, ErrNoActiveRecording
	}

	blob, err := rec.Stop()
	if err != nil {
		return domain.MeetingMetadata{}, err
	}
	if !r.session.IsConnected() {
		return domain.MeetingMetadata{}, ErrNotConnected
	}

	meta := domain.MeetingMetadata{
		MeetingID:  uuid.New().String(),
		Title:      title,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
		SampleRate: r.cfg.Audio.SampleRate,
		Channels:   r.cfg.Audio.Channels,
	}
	if !r.session.SendMeetingData(meta, blob) {
		return domain.MeetingMetadata{}, ErrSendRejected
	}
	return meta, nil
}

// Cancel discards an in-progress recording.
func (r *Recorder) Cancel() error {
	r.mu.Lock()
	rec := r.current
	r.current = nil
	r.mu.Unlock()

	if rec == nil {
		return ErrNoActiveRecording
	}
	rec.Discard()
	return nil
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}
