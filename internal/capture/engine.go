// Package capture implements the capture orchestration engine: the session
// exclusion guard, concurrent resource acquisition with per-resource
// degradation, the fixed-window recording coordinator, and the single-attempt
// payload upload.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/media"
)

// ErrSessionActive is returned when a capture request finds the guard held.
// Callers drop the request; they do not queue or retry.
var ErrSessionActive = errors.New("capture session already active")

// EngineConfig contains the session timing parameters.
type EngineConfig struct {
	RecordWindow    time.Duration
	RecordGrace     time.Duration
	SelfieWarmup    time.Duration
	JPEGQuality     int
	LocationTimeout time.Duration
}

func (c *EngineConfig) setDefaults() {
	if c.RecordWindow == 0 {
		c.RecordWindow = 5 * time.Second
	}
	if c.RecordGrace == 0 {
		c.RecordGrace = 2 * time.Second
	}
	if c.SelfieWarmup == 0 {
		c.SelfieWarmup = time.Second
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 85
	}
	if c.LocationTimeout == 0 {
		c.LocationTimeout = 10 * time.Second
	}
}

// Engine coordinates capture sessions. All faults inside a session degrade
// the affected artifact; the only two things that always run are stopping
// acquired handles and releasing the guard.
type Engine struct {
	guard     Guard
	location  device.LocationProvider
	camera    device.VideoSource
	mic       device.AudioSource
	finalizer media.Finalizer
	stills    StillEncoder
	uploader  Uploader
	identity  SubjectResolver
	config    EngineConfig
	logger    *logger.Logger
}

// NewEngine creates a capture engine.
func NewEngine(
	loc device.LocationProvider,
	camera device.VideoSource,
	mic device.AudioSource,
	finalizer media.Finalizer,
	stills StillEncoder,
	uploader Uploader,
	identity SubjectResolver,
	cfg EngineConfig,
	log *logger.Logger,
) *Engine {
	cfg.setDefaults()
	return &Engine{
		location:  loc,
		camera:    camera,
		mic:       mic,
		finalizer: finalizer,
		stills:    stills,
		uploader:  uploader,
		identity:  identity,
		config:    cfg,
		logger:    log,
	}
}

// SessionActive reports whether a session currently holds the guard.
func (e *Engine) SessionActive() bool {
	return e.guard.Active()
}

// Report summarizes a completed session.
type Report struct {
	SessionID   string
	Subject     string
	TriggeredBy TriggerSource
	Location    device.Location
	HasSelfie   bool
	HasVideo    bool
	HasAudio    bool
	Uploaded    bool
}

// resources holds whatever the acquisition phase granted.
type resources struct {
	location device.Location
	video    *device.MediaHandle
	audio    *device.MediaHandle
}

// TryCapture runs one capture session end to end. It returns ErrSessionActive
// without side effects when a session is already running; any other fault is
// absorbed into the report.
func (e *Engine) TryCapture(ctx context.Context, trig Trigger) (*Report, error) {
	if !e.guard.TryBegin() {
		return nil, ErrSessionActive
	}
	defer e.guard.End()

	sessionID := uuid.NewString()
	log := e.logger.Named("session")
	log.Info("Capture session started",
		"session_id", sessionID,
		"triggered_by", trig.Source,
		"orientation", trig.Orientation,
	)

	res := e.acquire(ctx, trig.Orientation)
	// Resource handles are released on every exit path.
	defer res.video.Stop()
	defer res.audio.Stop()

	var (
		selfie     []byte
		selfieOnce sync.WaitGroup
	)
	videoTrack := res.video.FirstTrack(device.TrackVideo)
	audioTrack := res.audio.FirstTrack(device.TrackAudio)

	// The recorder and the still extractor each get their own tap so neither
	// consumes frames destined for the other.
	var recorderTap *device.Track
	if videoTrack != nil {
		taps := videoTrack.Tee(2)
		recorderTap = taps[0]
		selfieTap := taps[1]

		selfieOnce.Add(1)
		go func() {
			defer selfieOnce.Done()
			selfie = extractStill(ctx, selfieTap, e.stills, e.config.SelfieWarmup, e.config.JPEGQuality, log)
		}()
	}

	recordings := recordTracks(ctx, e.config.RecordWindow, e.config.RecordGrace, e.finalizer, log, recorderTap, audioTrack)
	selfieOnce.Wait()

	subject := trig.ForcedSubject
	if subject == "" {
		resolved, err := e.identity.Subject(ctx)
		if err != nil {
			log.Warn("Failed to resolve subject identity", "error", err)
		}
		subject = resolved
	}

	now := time.Now()
	payload := Payload{
		Location:    res.location,
		TriggeredBy: trig.Source,
		Username:    subject,
	}
	if len(selfie) > 0 {
		payload.Selfie = &Artifact{
			Filename:    artifactName("selfie", "jpg", now),
			ContentType: "image/jpeg",
			Data:        selfie,
		}
	}
	if blob := recordings[device.TrackVideo]; len(blob) > 0 {
		payload.Video = &Artifact{
			Filename:    artifactName("video", "webm", now),
			ContentType: "video/webm",
			Data:        blob,
		}
	}
	if blob := recordings[device.TrackAudio]; len(blob) > 0 {
		payload.Audio = &Artifact{
			Filename:    artifactName("audio", "webm", now),
			ContentType: "audio/webm",
			Data:        blob,
		}
	}

	report := &Report{
		SessionID:   sessionID,
		Subject:     subject,
		TriggeredBy: trig.Source,
		Location:    res.location,
		HasSelfie:   payload.Selfie != nil,
		HasVideo:    payload.Video != nil,
		HasAudio:    payload.Audio != nil,
	}

	// Single upload attempt; failure still ends the session cleanly.
	if err := e.uploader.UploadCapture(ctx, payload); err != nil {
		log.Error("Capture upload failed", "session_id", sessionID, "error", err)
	} else {
		report.Uploaded = true
	}

	log.Info("Capture session finished",
		"session_id", sessionID,
		"selfie", report.HasSelfie,
		"video", report.HasVideo,
		"audio", report.HasAudio,
		"uploaded", report.Uploaded,
	)
	return report, nil
}

// acquire requests location, camera and microphone concurrently. Each
// failure degrades its own resource only: the location falls back to the
// zero sentinel, media handles to nil.
func (e *Engine) acquire(ctx context.Context, orientation device.Orientation) resources {
	var (
		res resources
		wg  sync.WaitGroup
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		res.location = e.resolveLocation(ctx)
	}()

	go func() {
		defer wg.Done()
		handle, err := e.camera.OpenVideo(ctx, orientation)
		if err != nil {
			e.logger.Warn("Camera unavailable", "error", err)
			return
		}
		res.video = handle
	}()

	go func() {
		defer wg.Done()
		handle, err := e.mic.OpenAudio(ctx)
		if err != nil {
			e.logger.Warn("Microphone unavailable", "error", err)
			return
		}
		res.audio = handle
	}()

	wg.Wait()
	return res
}

// resolveLocation races a high-accuracy fix against the fixed timeout. A
// provider that ignores cancellation still cannot hold up acquisition.
func (e *Engine) resolveLocation(ctx context.Context) device.Location {
	locCtx, cancel := context.WithTimeout(ctx, e.config.LocationTimeout)
	defer cancel()

	type fix struct {
		loc device.Location
		err error
	}
	ch := make(chan fix, 1)
	go func() {
		loc, err := e.location.CurrentLocation(locCtx)
		ch <- fix{loc: loc, err: err}
	}()

	select {
	case f := <-ch:
		if f.err != nil {
			e.logger.Warn("Location unresolved, using zero sentinel", "error", f.err)
			return device.ZeroLocation()
		}
		return f.loc
	case <-locCtx.Done():
		e.logger.Warn("Location fix timed out, using zero sentinel")
		return device.ZeroLocation()
	}
}
