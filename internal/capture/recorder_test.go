package capture

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// failFinalizer rejects every recording.
type failFinalizer struct{}

func (failFinalizer) Finalize(ctx context.Context, kind device.TrackKind, raw []byte) ([]byte, error) {
	return nil, errors.New("encoder exploded")
}

func pushingTrack(kind device.TrackKind, chunk []byte, interval time.Duration) (*device.Track, func()) {
	track := device.NewTrack(kind, 256)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				track.Push(chunk)
			}
		}
	}()
	return track, func() { close(done) }
}

func TestRecordTracks_ZeroRecordersCompletesImmediately(t *testing.T) {
	start := time.Now()
	out := recordTracks(context.Background(), time.Second, time.Second, passFinalizer{}, logger.NewNopLogger())
	if len(out) != 0 {
		t.Fatalf("Expected no recordings, got %d", len(out))
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Zero recorders must not wait out the window, took %v", elapsed)
	}
}

func TestRecordTracks_BoundedWindow(t *testing.T) {
	video, stopVideo := pushingTrack(device.TrackVideo, []byte("vv"), 5*time.Millisecond)
	defer stopVideo()
	audio, stopAudio := pushingTrack(device.TrackAudio, []byte("aa"), 5*time.Millisecond)
	defer stopAudio()

	window := 80 * time.Millisecond
	start := time.Now()
	out := recordTracks(context.Background(), window, 50*time.Millisecond, passFinalizer{}, logger.NewNopLogger(), video, audio)
	elapsed := time.Since(start)

	if elapsed < window {
		t.Fatalf("Recording returned before the window elapsed: %v", elapsed)
	}
	if elapsed > window+100*time.Millisecond {
		t.Fatalf("Recording overshot the window: %v", elapsed)
	}
	if len(out[device.TrackVideo]) == 0 || len(out[device.TrackAudio]) == 0 {
		t.Fatal("Both tracks should have accumulated data")
	}
	if !strings.HasPrefix(string(out[device.TrackVideo]), "vv") {
		t.Fatal("Video recording should contain pushed chunks")
	}
}

func TestRecordTracks_ClosedTrackEndsEarly(t *testing.T) {
	track := device.NewTrack(device.TrackAudio, 8)
	track.Push([]byte("tail"))
	track.Close()

	start := time.Now()
	out := recordTracks(context.Background(), time.Second, time.Second, passFinalizer{}, logger.NewNopLogger(), track)
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("Closed track must end recording early, took %v", elapsed)
	}
	if string(out[device.TrackAudio]) != "tail" {
		t.Fatalf("Buffered chunks must be drained before close, got %q", out[device.TrackAudio])
	}
}

func TestRecordTracks_SilentTrackOmitted(t *testing.T) {
	silent := device.NewTrack(device.TrackAudio, 8)
	defer silent.Close()
	video, stopVideo := pushingTrack(device.TrackVideo, []byte("frame"), 5*time.Millisecond)
	defer stopVideo()

	out := recordTracks(context.Background(), 50*time.Millisecond, 50*time.Millisecond, passFinalizer{}, logger.NewNopLogger(), video, silent)

	if _, ok := out[device.TrackAudio]; ok {
		t.Fatal("A track that produced no data must be omitted")
	}
	if len(out[device.TrackVideo]) == 0 {
		t.Fatal("The producing track must still be recorded")
	}
}

func TestRecordTracks_FinalizeErrorOmitsArtifact(t *testing.T) {
	track, stop := pushingTrack(device.TrackVideo, []byte("frame"), 5*time.Millisecond)
	defer stop()

	out := recordTracks(context.Background(), 50*time.Millisecond, 50*time.Millisecond, failFinalizer{}, logger.NewNopLogger(), track)
	if len(out) != 0 {
		t.Fatalf("Failed finalization must omit the artifact, got %d entries", len(out))
	}
}

func TestRecordTracks_NilTracksSkipped(t *testing.T) {
	track, stop := pushingTrack(device.TrackAudio, []byte("aa"), 5*time.Millisecond)
	defer stop()

	out := recordTracks(context.Background(), 50*time.Millisecond, 50*time.Millisecond, passFinalizer{}, logger.NewNopLogger(), nil, track, nil)
	if len(out) != 1 {
		t.Fatalf("Expected one recording, got %d", len(out))
	}
}

func TestArtifactName(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	if got := artifactName("selfie", "jpg", at); got != "selfie-1700000000000.jpg" {
		t.Fatalf("Unexpected artifact name: %s", got)
	}
	if got := artifactName("video", "webm", at); got != "video-1700000000000.webm" {
		t.Fatalf("Unexpected artifact name: %s", got)
	}
}
