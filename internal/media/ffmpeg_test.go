package media

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

func requireFFmpeg(t *testing.T) *FFmpeg {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	ffmpeg, err := NewFFmpeg("", logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFFmpeg failed with ffmpeg on PATH: %v", err)
	}
	return ffmpeg
}

func TestNewFFmpeg_FallsBackToPath(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	// A bogus configured path still resolves via the fallback candidates.
	if _, err := NewFFmpeg("/nonexistent/ffmpeg", logger.NewNopLogger()); err != nil {
		t.Fatalf("Expected fallback resolution, got: %v", err)
	}
}

func TestFFmpeg_Version(t *testing.T) {
	ffmpeg := requireFFmpeg(t)

	version, err := ffmpeg.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if !strings.HasPrefix(version, "ffmpeg version") {
		t.Fatalf("Unexpected version line: %q", version)
	}
	if strings.Contains(version, "\n") {
		t.Fatalf("Version must be a single line: %q", version)
	}
}

func TestFFmpeg_BuildCommand(t *testing.T) {
	ffmpeg := requireFFmpeg(t)

	cmd := ffmpeg.BuildCommand(context.Background(), []string{"-version"})
	if len(cmd.Args) != 2 || cmd.Args[1] != "-version" {
		t.Fatalf("Unexpected command args: %v", cmd.Args)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Built command failed to run: %v", err)
	}
}

func TestJPEGStillEncoder_EmptyFrame(t *testing.T) {
	ffmpeg := requireFFmpeg(t)

	encoder := NewJPEGStillEncoder(ffmpeg)
	if _, err := encoder.EncodeStill(context.Background(), nil); err == nil {
		t.Fatal("Expected an error for an empty frame")
	}
}

func TestJPEGStillEncoder_GarbageInput(t *testing.T) {
	ffmpeg := requireFFmpeg(t)

	encoder := NewJPEGStillEncoder(ffmpeg)
	if _, err := encoder.EncodeStill(context.Background(), []byte("not h264")); err == nil {
		t.Fatal("Expected an error for undecodable input")
	}
}
