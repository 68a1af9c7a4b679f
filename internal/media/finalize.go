package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
)

// Finalizer turns the raw bytes accumulated by a recorder into a finished
// artifact blob of the fixed container/codec pairing.
type Finalizer interface {
	Finalize(ctx context.Context, kind device.TrackKind, raw []byte) ([]byte, error)
}

// WebMFinalizer produces WebM blobs: VP8 for video tracks (transcoded from
// the camera's H264 access units), Opus passthrough for audio tracks (the
// microphone source already emits WebM/Opus).
type WebMFinalizer struct {
	ffmpeg *FFmpeg
}

// NewWebMFinalizer creates a finalizer over the given ffmpeg wrapper.
func NewWebMFinalizer(ffmpeg *FFmpeg) *WebMFinalizer {
	return &WebMFinalizer{ffmpeg: ffmpeg}
}

// Finalize converts raw track bytes into a WebM blob.
func (w *WebMFinalizer) Finalize(ctx context.Context, kind device.TrackKind, raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no data to finalize")
	}

	var args []string
	switch kind {
	case device.TrackVideo:
		args = []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "h264", "-i", "-",
			"-c:v", "libvpx",
			"-f", "webm", "-",
		}
	case device.TrackAudio:
		args = []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "webm", "-i", "-",
			"-c:a", "copy",
			"-f", "webm", "-",
		}
	default:
		return nil, fmt.Errorf("unsupported track kind: %s", kind)
	}

	var stdout, stderr bytes.Buffer
	cmd := w.ffmpeg.BuildCommand(ctx, args)
	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg finalize failed: %w (%s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}
