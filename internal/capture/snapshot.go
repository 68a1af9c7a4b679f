package capture

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// StillEncoder turns one raw video frame chunk into a JPEG image.
type StillEncoder interface {
	EncodeStill(ctx context.Context, frame []byte) ([]byte, error)
}

// extractStill waits out the warm-up interval (exposure/focus settling),
// takes the next frame from the track, runs it through the still encoder and
// re-encodes the result as a JPEG at the fixed quality. Every failure returns
// nil; the selfie is simply omitted.
func extractStill(ctx context.Context, track *device.Track, encoder StillEncoder, warmup time.Duration, quality int, log *logger.Logger) []byte {
	if track == nil {
		return nil
	}

	warmupTimer := time.NewTimer(warmup)
	defer warmupTimer.Stop()

	select {
	case <-warmupTimer.C:
	case <-ctx.Done():
		return nil
	}

	frameWait := time.NewTimer(warmup + time.Second)
	defer frameWait.Stop()

	var frame []byte
	select {
	case chunk, ok := <-track.Chunks():
		if !ok {
			return nil
		}
		frame = chunk.Data
	case <-frameWait.C:
		log.Debug("No frame arrived for still capture")
		return nil
	case <-ctx.Done():
		return nil
	}

	encoded, err := encoder.EncodeStill(ctx, frame)
	if err != nil {
		log.Debug("Failed to encode still frame", "error", err)
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		log.Debug("Still frame not decodable", "error", err)
		return nil
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		log.Debug("Still frame has zero dimensions")
		return nil
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		log.Debug("Failed to re-encode still frame", "error", err)
		return nil
	}
	return out.Bytes()
}
