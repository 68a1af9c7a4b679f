// Package collector is the HTTP client for the remote collector: capture
// uploads, trigger polling, liveness tracking and the notification feed.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/capture"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

// Client talks to the remote collector.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// ClientConfig contains collector client configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a collector client.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

// TrackVisit posts a liveness ping for the subject.
func (c *Client) TrackVisit(ctx context.Context, subjectID string) error {
	body, err := json.Marshal(map[string]string{"subjectId": subjectID})
	if err != nil {
		return fmt.Errorf("failed to encode heartbeat: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/track-visit", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build heartbeat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("heartbeat rejected with status %d", resp.StatusCode)
	}
	return nil
}

// CaptureFlag is the poll response for a subject.
type CaptureFlag struct {
	Trigger bool   `json:"trigger"`
	Camera  string `json:"camera,omitempty"`
}

// PollCaptureFlag asks whether a capture has been requested for the subject.
func (c *Client) PollCaptureFlag(ctx context.Context, subjectID string) (CaptureFlag, error) {
	endpoint := fmt.Sprintf("%s/manual-capture-flag?username=%s",
		c.baseURL, url.QueryEscape(subjectID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CaptureFlag{}, fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CaptureFlag{}, fmt.Errorf("poll request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return CaptureFlag{}, fmt.Errorf("poll returned status %d", resp.StatusCode)
	}

	var flag CaptureFlag
	if err := json.NewDecoder(resp.Body).Decode(&flag); err != nil {
		return CaptureFlag{}, fmt.Errorf("failed to decode poll response: %w", err)
	}
	return flag, nil
}

// UploadCapture delivers one capture payload as a multipart form. Artifacts
// that were never produced are omitted from the form entirely.
func (c *Client) UploadCapture(ctx context.Context, payload capture.Payload) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	parts := []struct {
		field    string
		artifact *capture.Artifact
	}{
		{"selfie", payload.Selfie},
		{"video", payload.Video},
		{"audio", payload.Audio},
	}
	for _, p := range parts {
		field, artifact := p.field, p.artifact
		if artifact == nil {
			continue
		}
		part, err := writer.CreatePart(fileHeader(field, artifact.Filename, artifact.ContentType))
		if err != nil {
			return fmt.Errorf("failed to add %s part: %w", field, err)
		}
		if _, err := part.Write(artifact.Data); err != nil {
			return fmt.Errorf("failed to write %s part: %w", field, err)
		}
	}

	location, err := json.Marshal(payload.Location)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	if err := writer.WriteField("location", string(location)); err != nil {
		return fmt.Errorf("failed to add location field: %w", err)
	}
	if err := writer.WriteField("triggeredBy", string(payload.TriggeredBy)); err != nil {
		return fmt.Errorf("failed to add triggeredBy field: %w", err)
	}
	if err := writer.WriteField("username", payload.Username); err != nil {
		return fmt.Errorf("failed to add username field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/capture-data", &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload rejected with status %d", resp.StatusCode)
	}
	return nil
}

// Message is a notification feed entry as delivered by the collector.
type Message struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type messagesResponse struct {
	Status   string    `json:"status"`
	Messages []Message `json:"messages"`
}

// FetchMessages retrieves the notification feed for the pseudo-identity,
// authenticating with the bearer token when one is present.
func (c *Client) FetchMessages(ctx context.Context, anonID, token string) ([]Message, error) {
	endpoint := fmt.Sprintf("%s/messages?anonId=%s", c.baseURL, url.QueryEscape(anonID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build messages request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messages request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("messages returned status %d", resp.StatusCode)
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if decoded.Status != "success" {
		return nil, fmt.Errorf("messages fetch status %q", decoded.Status)
	}
	return decoded.Messages, nil
}

// DeleteMessage acknowledges a delivered message.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/messages/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete rejected with status %d", resp.StatusCode)
	}
	return nil
}

func fileHeader(field, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	return h
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
