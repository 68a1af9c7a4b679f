package media

import (
	"bytes"
	"context"
	"fmt"
)

// JPEGStillEncoder extracts a single JPEG frame from raw H264 access units by
// piping them through ffmpeg.
type JPEGStillEncoder struct {
	ffmpeg *FFmpeg
}

// NewJPEGStillEncoder creates an encoder over the given ffmpeg wrapper.
func NewJPEGStillEncoder(ffmpeg *FFmpeg) *JPEGStillEncoder {
	return &JPEGStillEncoder{ffmpeg: ffmpeg}
}

// EncodeStill decodes the given Annex-B access units and returns the first
// frame as a JPEG.
func (e *JPEGStillEncoder) EncodeStill(ctx context.Context, frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("no frame data to encode")
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "h264", "-i", "-",
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "mjpeg",
		"-",
	}

	var stdout, stderr bytes.Buffer
	cmd := e.ffmpeg.BuildCommand(ctx, args)
	cmd.Stdin = bytes.NewReader(frame)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg still encode failed: %w (%s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame")
	}
	return stdout.Bytes(), nil
}
