// Package media wraps the system ffmpeg binary for the small amount of
// container/codec work the agent needs: finalizing recorded tracks into WebM
// blobs and pulling microphone input.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// FFmpeg locates and runs the ffmpeg binary.
type FFmpeg struct {
	path   string
	logger *logger.Logger
}

// NewFFmpeg resolves the ffmpeg binary. An empty path searches PATH and the
// common install locations.
func NewFFmpeg(path string, log *logger.Logger) (*FFmpeg, error) {
	f := &FFmpeg{path: path, logger: log}

	resolved, err := f.detect()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	f.path = resolved

	log.Debug("ffmpeg resolved", "path", resolved)
	return f, nil
}

func (f *FFmpeg) detect() (string, error) {
	candidates := []string{f.path, "ffmpeg", "/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		cmd := exec.Command(candidate, "-version")
		if err := cmd.Run(); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no working ffmpeg in PATH or common locations")
}

// BuildCommand creates an exec.Cmd for the given ffmpeg arguments.
func (f *FFmpeg) BuildCommand(ctx context.Context, args []string) *exec.Cmd {
	return exec.CommandContext(ctx, f.path, args...)
}

// Version returns the first line of `ffmpeg -version`.
func (f *FFmpeg) Version() (string, error) {
	out, err := exec.Command(f.path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get ffmpeg version: %w", err)
	}
	lines := strings.SplitN(string(out), "\n", 2)
	return strings.TrimSpace(lines[0]), nil
}
