package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"debrief/internal/ports"
)

func TestFFmpegCaptureStopProducesWAV(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'hello'\nsleep 2\n")
	capture := NewFFmpegCapture(script)

	rec, err := capture.Start(context.Background(), ports.AudioConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	blob, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if len(blob) != wavHeaderSize+5 {
		t.Fatalf("unexpected blob size: %d", len(blob))
	}
	if !bytes.Equal(blob[0:4], []byte("RIFF")) || !bytes.Equal(blob[8:12], []byte("WAVE")) {
		t.Fatalf("missing RIFF/WAVE header")
	}
	if got := binary.LittleEndian.Uint32(blob[40:44]); got != 5 {
		t.Fatalf("unexpected data chunk length: %d", got)
	}
	if string(blob[wavHeaderSize:]) != "hello" {
		t.Fatalf("unexpected payload: %q", blob[wavHeaderSize:])
	}
}

func TestFFmpegCaptureStopIsIdempotent(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'data'\nsleep 2\n")
	capture := NewFFmpegCapture(script)

	rec, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	first, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	second, err := rec.Stop()
	if err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected the same blob on repeated stops")
	}
}

func TestFFmpegCaptureEarlyExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	capture := NewFFmpegCapture(script)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := capture.Start(ctx, ports.AudioConfig{})
	if err == nil {
		t.Fatalf("expected early exit error")
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFFmpegCaptureNoAudioCaptured(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "silent.sh", "#!/usr/bin/env bash\nsleep 2\n")
	capture := NewFFmpegCapture(script)

	rec, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := rec.Stop(); err == nil || !strings.Contains(err.Error(), "no audio captured") {
		t.Fatalf("expected no-audio error, got %v", err)
	}
}

func TestFFmpegCaptureDiscardDropsData(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'data'\nsleep 2\n")
	capture := NewFFmpegCapture(script)

	rec, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	rec.Discard()

	blob, err := rec.Stop()
	if err != nil {
		t.Fatalf("stop after discard failed: %v", err)
	}
	if len(blob) != 0 {
		t.Fatalf("expected discarded data, got %d bytes", len(blob))
	}
}

func TestNormalizeExitIgnoresExitError(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-lc", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeExit(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	if got := normalizeExit(nil); got != nil {
		t.Fatalf("expected nil passthrough, got %v", got)
	}
}

func TestWAVBlobHeader(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}
	blob := wavBlob(pcm, 16000, 1)

	if len(blob) != wavHeaderSize+len(pcm) {
		t.Fatalf("unexpected blob size: %d", len(blob))
	}
	if got := binary.LittleEndian.Uint32(blob[24:28]); got != 16000 {
		t.Fatalf("unexpected sample rate: %d", got)
	}
	if got := binary.LittleEndian.Uint16(blob[22:24]); got != 1 {
		t.Fatalf("unexpected channel count: %d", got)
	}
	if got := binary.LittleEndian.Uint32(blob[28:32]); got != 32000 {
		t.Fatalf("unexpected byte rate: %d", got)
	}
	if !bytes.Equal(blob[wavHeaderSize:], pcm) {
		t.Fatalf("payload mismatch")
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
