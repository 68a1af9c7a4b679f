package device

import (
	"context"
	"fmt"
	"time"

	"github.com/bluenviron/gortsplib/v4"
	"github.com/bluenviron/gortsplib/v4/pkg/base"
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/bluenviron/gortsplib/v4/pkg/format"
	"github.com/bluenviron/gortsplib/v4/pkg/format/rtph264"
	"github.com/pion/rtp"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// RTSPCameraConfig contains the per-orientation stream URLs.
type RTSPCameraConfig struct {
	FrontURL    string
	BackURL     string
	ReadTimeout time.Duration
}

// RTSPCamera acquires camera video over RTSP. Each orientation maps to its
// own stream URL; a missing URL behaves as an absent device.
type RTSPCamera struct {
	config RTSPCameraConfig
	logger *logger.Logger
}

// NewRTSPCamera creates a camera source over the configured streams.
func NewRTSPCamera(cfg RTSPCameraConfig, log *logger.Logger) *RTSPCamera {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	return &RTSPCamera{config: cfg, logger: log}
}

// OpenVideo connects to the stream for the requested orientation and returns
// a handle whose video track emits H264 access units.
func (c *RTSPCamera) OpenVideo(ctx context.Context, orientation Orientation) (*MediaHandle, error) {
	streamURL := c.config.FrontURL
	if orientation == OrientationBack {
		streamURL = c.config.BackURL
	}
	if streamURL == "" {
		return nil, fmt.Errorf("no camera stream configured for orientation %s", orientation)
	}

	u, err := base.ParseURL(streamURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stream URL: %w", err)
	}

	client := &gortsplib.Client{
		ReadTimeout:  c.config.ReadTimeout,
		WriteTimeout: c.config.ReadTimeout,
	}

	desc, _, err := client.Describe(u)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to describe stream: %w", err)
	}

	h264Media, h264Format := findH264(desc)
	if h264Format == nil {
		client.Close()
		return nil, fmt.Errorf("no H264 track in stream")
	}

	if err := client.SetupAll(desc.BaseURL, desc.Medias); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to setup stream: %w", err)
	}

	decoder := &rtph264.Decoder{}
	if err := decoder.Init(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to init H264 decoder: %w", err)
	}

	track := NewTrack(TrackVideo, 256)
	client.OnPacketRTP(h264Media, h264Format, func(pkt *rtp.Packet) {
		nalus, err := decoder.Decode(pkt)
		if err != nil {
			return
		}
		track.Push(nalusToAccessUnit(nalus))
	})

	if _, err := client.Play(nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to play stream: %w", err)
	}

	c.logger.Debug("Camera stream opened", "orientation", orientation, "url", streamURL)

	return NewMediaHandle(func() { client.Close() }, track), nil
}

func findH264(desc *description.Session) (*description.Media, *format.H264) {
	for _, media := range desc.Medias {
		for _, forma := range media.Formats {
			if h264, ok := forma.(*format.H264); ok {
				return media, h264
			}
		}
	}
	return nil, nil
}

// nalusToAccessUnit joins NALUs into one Annex-B access unit.
func nalusToAccessUnit(nalus [][]byte) []byte {
	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}
	au := make([]byte, 0, size)
	for _, nalu := range nalus {
		au = append(au, 0x00, 0x00, 0x00, 0x01)
		au = append(au, nalu...)
	}
	return au
}
