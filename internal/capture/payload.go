package capture

import (
	"context"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
)

// TriggerSource identifies what started a capture session.
type TriggerSource string

const (
	TriggerUser  TriggerSource = "user"
	TriggerAdmin TriggerSource = "admin"
)

// Trigger describes a capture request.
type Trigger struct {
	Source      TriggerSource
	Orientation device.Orientation
	// ForcedSubject attributes the session to a specific subject instead of
	// the ambient identity. Used by the remote trigger poller.
	ForcedSubject string
}

// Artifact is a finished binary result of a session.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Payload is the upload bundle built once per session. Artifact pointers are
// nil when the corresponding resource produced nothing.
type Payload struct {
	Selfie      *Artifact
	Video       *Artifact
	Audio       *Artifact
	Location    device.Location
	TriggeredBy TriggerSource
	Username    string
}

// Uploader delivers one payload to the remote collector. Exactly one attempt
// is made per session.
type Uploader interface {
	UploadCapture(ctx context.Context, payload Payload) error
}

// SubjectResolver resolves the ambient subject identity.
type SubjectResolver interface {
	Subject(ctx context.Context) (string, error)
}
