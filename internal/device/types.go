// Package device abstracts the acquirable sensor resources: a location fix
// source, a camera and a microphone. Each acquisition yields a stoppable
// handle owned by exactly one capture session.
package device

import (
	"context"
	"sync"
	"time"
)

// Location is a resolved position fix.
type Location struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
}

// ZeroLocation is the sentinel used when no fix could be resolved in time.
func ZeroLocation() Location {
	return Location{}
}

// Orientation selects which camera a capture session records from.
type Orientation string

const (
	OrientationFront Orientation = "front"
	OrientationBack  Orientation = "back"
)

// OrientationFromDirective maps a collector camera directive to an
// orientation: "back" selects the rear camera, anything else the front.
func OrientationFromDirective(directive string) Orientation {
	if directive == "back" {
		return OrientationBack
	}
	return OrientationFront
}

// TrackKind distinguishes the media tracks of a handle.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Chunk is one unit of media data emitted by a track.
type Chunk struct {
	Data []byte
	Time time.Time
}

// Track is a stream of media chunks produced by an acquired device.
type Track struct {
	Kind TrackKind

	ch        chan Chunk
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// NewTrack creates a track with the given chunk buffer depth.
func NewTrack(kind TrackKind, buffer int) *Track {
	if buffer <= 0 {
		buffer = 64
	}
	return &Track{
		Kind: kind,
		ch:   make(chan Chunk, buffer),
	}
}

// Push offers a chunk to the track. Chunks are dropped when the consumer
// lags or the track is closed; a slow recorder must never stall the device.
func (t *Track) Push(data []byte) bool {
	return t.pushChunk(Chunk{Data: data, Time: time.Now()})
}

func (t *Track) pushChunk(chunk Chunk) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	select {
	case t.ch <- chunk:
		return true
	default:
		return false
	}
}

// Tee fans the track out into n derived tracks of the same kind. Each chunk
// is offered to every tap; the taps close when the source closes. The caller
// must stop reading the source directly once it is teed.
func (t *Track) Tee(n int) []*Track {
	taps := make([]*Track, n)
	for i := range taps {
		taps[i] = NewTrack(t.Kind, cap(t.ch))
	}
	go func() {
		for chunk := range t.ch {
			for _, tap := range taps {
				tap.pushChunk(chunk)
			}
		}
		for _, tap := range taps {
			tap.Close()
		}
	}()
	return taps
}

// Chunks returns the chunk channel. It is closed when the track is closed.
func (t *Track) Chunks() <-chan Chunk {
	return t.ch
}

// Close closes the track. Safe to call more than once.
func (t *Track) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.ch)
	})
}

// MediaHandle is a live, stoppable acquisition of a media capability.
type MediaHandle struct {
	tracks   []*Track
	stopFn   func()
	stopOnce sync.Once
}

// NewMediaHandle creates a handle over the given tracks. stopFn releases the
// underlying device and may be nil.
func NewMediaHandle(stopFn func(), tracks ...*Track) *MediaHandle {
	return &MediaHandle{tracks: tracks, stopFn: stopFn}
}

// FirstTrack returns the first track of the given kind, or nil.
func (h *MediaHandle) FirstTrack(kind TrackKind) *Track {
	if h == nil {
		return nil
	}
	for _, track := range h.tracks {
		if track.Kind == kind {
			return track
		}
	}
	return nil
}

// Tracks returns all tracks of the handle.
func (h *MediaHandle) Tracks() []*Track {
	if h == nil {
		return nil
	}
	return h.tracks
}

// Stop releases the underlying device and closes all tracks. It is safe to
// call from any session exit path; only the first call has effect.
func (h *MediaHandle) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		if h.stopFn != nil {
			h.stopFn()
		}
		for _, track := range h.tracks {
			track.Close()
		}
	})
}

// LocationProvider resolves the current position fix.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (Location, error)
}

// VideoSource opens the camera facing the requested orientation.
type VideoSource interface {
	OpenVideo(ctx context.Context, orientation Orientation) (*MediaHandle, error)
}

// AudioSource opens the microphone.
type AudioSource interface {
	OpenAudio(ctx context.Context) (*MediaHandle, error)
}
