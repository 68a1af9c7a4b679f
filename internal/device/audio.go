package device

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// CommandBuilder builds a runnable command for the resolved capture binary.
type CommandBuilder interface {
	BuildCommand(ctx context.Context, args []string) *exec.Cmd
}

// FFmpegMicrophoneConfig selects the capture input.
type FFmpegMicrophoneConfig struct {
	// Format is the ffmpeg input device format, e.g. "alsa" or "pulse".
	Format string
	// Input is the device name passed to -i, e.g. "default" or "hw:0".
	Input string
}

// FFmpegMicrophone acquires microphone audio by running ffmpeg against the
// system capture device, emitting a WebM/Opus byte stream on the audio track.
type FFmpegMicrophone struct {
	config  FFmpegMicrophoneConfig
	builder CommandBuilder
	logger  *logger.Logger
}

// NewFFmpegMicrophone creates a microphone source over the given command
// builder.
func NewFFmpegMicrophone(cfg FFmpegMicrophoneConfig, builder CommandBuilder, log *logger.Logger) *FFmpegMicrophone {
	if cfg.Format == "" {
		cfg.Format = "alsa"
	}
	if cfg.Input == "" {
		cfg.Input = "default"
	}
	return &FFmpegMicrophone{config: cfg, builder: builder, logger: log}
}

// OpenAudio starts the capture process. The returned handle's Stop kills the
// process; the track closes once the process output drains.
func (m *FFmpegMicrophone) OpenAudio(ctx context.Context) (*MediaHandle, error) {
	captureCtx, cancel := context.WithCancel(context.Background())

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", m.config.Format,
		"-i", m.config.Input,
		"-c:a", "libopus",
		"-f", "webm", "-",
	}
	cmd := m.builder.BuildCommand(captureCtx, args)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open capture pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start audio capture: %w", err)
	}

	track := NewTrack(TrackAudio, 256)

	go func() {
		defer cmd.Wait()
		buf := make([]byte, 4096)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				track.Push(chunk)
			}
			if err != nil {
				if err != io.EOF && captureCtx.Err() == nil {
					m.logger.Debug("Audio capture read ended", "error", err)
				}
				track.Close()
				return
			}
		}
	}()

	m.logger.Debug("Microphone opened", "format", m.config.Format, "input", m.config.Input)

	return NewMediaHandle(cancel, track), nil
}
