package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"debrief/internal/domain"
	"debrief/internal/ports"
)

func TestRecorderStopAndSendSuccess(t *testing.T) {
	t.Parallel()

	rec := &fakeRecording{blob: []byte("wav-bytes")}
	session := &fakeSession{connected: true, accept: true}
	recorder := NewRecorder(
		&fakeCapture{recs: []ports.AudioRecording{rec}},
		session,
		Config{Audio: ports.AudioConfig{SampleRate: 16000, Channels: 1}},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !recorder.Recording() {
		t.Fatalf("expected an active recording")
	}

	meta, err := recorder.StopAndSend("weekly sync")
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if meta.MeetingID == "" {
		t.Fatalf("expected a generated meeting id")
	}
	if meta.Title != "weekly sync" || meta.SampleRate != 16000 || meta.Channels != 1 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.RecordedAt == "" {
		t.Fatalf("expected a recording timestamp")
	}

	sentMeta, sentBlob := session.sent()
	if sentMeta.(domain.MeetingMetadata).MeetingID != meta.MeetingID {
		t.Fatalf("session did not receive the metadata")
	}
	if string(sentBlob) != "wav-bytes" {
		t.Fatalf("session did not receive the blob: %q", sentBlob)
	}
	if recorder.Recording() {
		t.Fatalf("expected recording to be cleared")
	}
}

func TestRecorderStopWithoutActiveRecording(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder(&fakeCapture{}, &fakeSession{}, Config{})
	if _, err := recorder.StopAndSend(""); !errors.Is(err, ErrNoActiveRecording) {
		t.Fatalf("expected ErrNoActiveRecording, got %v", err)
	}
}

func TestRecorderStopWhileDisconnected(t *testing.T) {
	t.Parallel()

	rec := &fakeRecording{blob: []byte("x")}
	recorder := NewRecorder(
		&fakeCapture{recs: []ports.AudioRecording{rec}},
		&fakeSession{connected: false},
		Config{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := recorder.StopAndSend(""); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if rec.stops() != 1 {
		t.Fatalf("expected the capture to be stopped anyway")
	}
}

func TestRecorderStopSendRejected(t *testing.T) {
	t.Parallel()

	rec := &fakeRecording{blob: []byte("x")}
	recorder := NewRecorder(
		&fakeCapture{recs: []ports.AudioRecording{rec}},
		&fakeSession{connected: true, accept: false},
		Config{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := recorder.StopAndSend(""); !errors.Is(err, ErrSendRejected) {
		t.Fatalf("expected ErrSendRejected, got %v", err)
	}
}

func TestRecorderStopPropagatesCaptureError(t *testing.T) {
	t.Parallel()

	rec := &fakeRecording{stopErr: errors.New("device lost")}
	recorder := NewRecorder(
		&fakeCapture{recs: []ports.AudioRecording{rec}},
		&fakeSession{connected: true, accept: true},
		Config{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := recorder.StopAndSend(""); err == nil || err.Error() != "device lost" {
		t.Fatalf("expected capture error, got %v", err)
	}
}

func TestRecorderRestartDiscardsPrevious(t *testing.T) {
	t.Parallel()

	first := &fakeRecording{blob: []byte("a")}
	second := &fakeRecording{blob: []byte("b")}
	recorder := NewRecorder(
		&fakeCapture{recs: []ports.AudioRecording{first, second}},
		&fakeSession{connected: true, accept: true},
		Config{},
	)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if first.discards() != 1 {
		t.Fatalf("expected the first recording to be discarded")
	}
}

func TestRecorderCancel(t *testing.T) {
	t.Parallel()

	rec := &fakeRecording{blob: []byte("x")}
	recorder := NewRecorder(
		&fakeCapture{recs: []ports.AudioRecording{rec}},
		&fakeSession{},
		Config{},
	)

	if err := recorder.Cancel(); !errors.Is(err, ErrNoActiveRecording) {
		t.Fatalf("expected ErrNoActiveRecording, got %v", err)
	}

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := recorder.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if rec.discards() != 1 {
		t.Fatalf("expected the recording to be discarded")
	}
	if recorder.Recording() {
		t.Fatalf("expected no active recording")
	}
}

type fakeCapture struct {
	recs  []ports.AudioRecording
	err   error
	calls int
}

func (f *fakeCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioRecording, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.recs) {
		return nil, errors.New("no recording configured")
	}
	rec := f.recs[f.calls]
	f.calls++
	return rec, nil
}

type fakeRecording struct {
	mu           sync.Mutex
	blob         []byte
	stopErr      error
	stopCalls    int
	discardCalls int
}

func (f *fakeRecording) Stop() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return f.blob, nil
}

func (f *fakeRecording) Discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discardCalls++
}

func (f *fakeRecording) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

func (f *fakeRecording) discards() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discardCalls
}

type fakeSession struct {
	mu        sync.Mutex
	connected bool
	accept    bool
	gotMeta   any
	gotBlob   []byte
}

func (f *fakeSession) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSession) SendMeetingData(metadata any, audio []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotMeta = metadata
	f.gotBlob = append([]byte(nil), audio...)
	return f.accept
}

func (f *fakeSession) sent() (any, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotMeta, f.gotBlob
}
