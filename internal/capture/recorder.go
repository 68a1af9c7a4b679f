package capture

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/media"
)

// recording is the outcome of one bounded track recording.
type recording struct {
	kind device.TrackKind
	data []byte
}

// recordTracks runs one bounded recorder per non-nil track and joins them.
// Each recorder's window starts at its own attach time, so a track that was
// acquired late still gets the full window. The join itself is bounded by
// window + grace so a stalled recorder cannot hold the session.
func recordTracks(ctx context.Context, window, grace time.Duration, finalizer media.Finalizer, log *logger.Logger, tracks ...*device.Track) map[device.TrackKind][]byte {
	started := 0
	results := make(chan recording, len(tracks))

	for _, track := range tracks {
		if track == nil {
			continue
		}
		started++
		go func(track *device.Track) {
			results <- recording{
				kind: track.Kind,
				data: recordOne(ctx, track, window),
			}
		}(track)
	}

	// Awaiting zero recorders completes immediately.
	out := make(map[device.TrackKind][]byte, started)
	if started == 0 {
		return out
	}

	backstop := time.NewTimer(window + grace)
	defer backstop.Stop()

	for collected := 0; collected < started; {
		select {
		case rec := <-results:
			collected++
			if len(rec.data) == 0 {
				log.Debug("Recorder produced no data", "kind", rec.kind)
				continue
			}
			blob, err := finalizer.Finalize(ctx, rec.kind, rec.data)
			if err != nil {
				log.Warn("Failed to finalize recording", "kind", rec.kind, "error", err)
				continue
			}
			out[rec.kind] = blob
		case <-backstop.C:
			log.Warn("Recorder join timed out", "started", started, "collected", collected)
			return out
		case <-ctx.Done():
			return out
		}
	}
	return out
}

// recordOne accumulates chunks from a single track for one fixed window
// measured from now.
func recordOne(ctx context.Context, track *device.Track, window time.Duration) []byte {
	var buf bytes.Buffer
	deadline := time.NewTimer(window)
	defer deadline.Stop()

	for {
		select {
		case chunk, ok := <-track.Chunks():
			if !ok {
				return buf.Bytes()
			}
			buf.Write(chunk.Data)
		case <-deadline.C:
			return buf.Bytes()
		case <-ctx.Done():
			return buf.Bytes()
		}
	}
}

// artifactName builds the upload filename for an artifact kind.
func artifactName(prefix, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%d.%s", prefix, at.UnixMilli(), ext)
}
