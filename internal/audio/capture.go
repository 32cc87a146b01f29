package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"debrief/internal/ports"
)

// FFmpegCapture records microphone PCM (s16le) through an ffmpeg child
// process, buffering the whole take in memory until the recording stops.
type FFmpegCapture struct {
	command string
}

func NewFFmpegCapture(command string) *FFmpegCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFmpegCapture{command: command}
}

func (c *FFmpegCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioRecording, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		detail := bytes.TrimSpace(stderr.Bytes())
		if err != nil {
			return nil, fmt.Errorf("recorder exited before capture started: %w: %s", err, detail)
		}
		return nil, errors.New("recorder exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	rec := &recording{
		process:    cmd.Process,
		waitErr:    waitErr,
		stderr:     &stderr,
		copyDone:   make(chan struct{}),
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
	}
	go func() {
		defer close(rec.copyDone)
		_, _ = io.Copy(&rec.pcm, stdout)
	}()
	return rec, nil
}

type recording struct {
	process  *os.Process
	waitErr  <-chan error
	stderr   *bytes.Buffer
	copyDone chan struct{}
	pcm      bytes.Buffer

	sampleRate int
	channels   int

	stopOnce sync.Once
	blob     []byte
	stopErr  error
}

// Stop ends the capture and returns the recorded take as a WAV blob.
func (r *recording) Stop() ([]byte, error) {
	r.stopOnce.Do(r.teardown)
	if r.stopErr != nil {
		return nil, r.stopErr
	}
	return r.blob, nil
}

// Discard ends the capture and drops the recorded data.
func (r *recording) Discard() {
	r.stopOnce.Do(r.teardown)
	r.blob = nil
}

func (r *recording) teardown() {
	if r.process != nil {
		_ = r.process.Signal(os.Interrupt)
	}

	select {
	case err, ok := <-r.waitErr:
		if ok {
			r.stopErr = normalizeExit(err)
		}
	case <-time.After(1200 * time.Millisecond):
		if r.process != nil {
			_ = r.process.Kill()
		}
		if err, ok := <-r.waitErr; ok {
			r.stopErr = normalizeExit(err)
		}
	}
	<-r.copyDone

	if r.stopErr != nil {
		if detail := bytes.TrimSpace(r.stderr.Bytes()); len(detail) > 0 {
			r.stopErr = fmt.Errorf("%w: %s", r.stopErr, detail)
		}
		return
	}
	if r.pcm.Len() == 0 {
		r.stopErr = errors.New("no audio captured")
		return
	}
	r.blob = wavBlob(r.pcm.Bytes(), r.sampleRate, r.channels)
}

// ffmpeg reports a non-zero exit when interrupted mid-stream; that is the
// expected way a capture ends.
func normalizeExit(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
