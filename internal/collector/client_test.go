package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/capture"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/device"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL}, logger.NewNopLogger()), srv
}

func TestTrackVisit(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]string

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	if err := client.TrackVisit(context.Background(), "anonymous-123"); err != nil {
		t.Fatalf("TrackVisit failed: %v", err)
	}
	if gotPath != "/track-visit" {
		t.Fatalf("Unexpected path: %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Unexpected content type: %s", gotContentType)
	}
	if gotBody["subjectId"] != "anonymous-123" {
		t.Fatalf("Unexpected body: %+v", gotBody)
	}
}

func TestTrackVisit_ServerError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if err := client.TrackVisit(context.Background(), "x"); err == nil {
		t.Fatal("Expected error on 500 response")
	}
}

func TestPollCaptureFlag(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manual-capture-flag" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("username"); got != "alice" {
			t.Errorf("Unexpected username query: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"trigger": true,
			"camera":  "back",
		})
	})

	flag, err := client.PollCaptureFlag(context.Background(), "alice")
	if err != nil {
		t.Fatalf("PollCaptureFlag failed: %v", err)
	}
	if !flag.Trigger || flag.Camera != "back" {
		t.Fatalf("Unexpected flag: %+v", flag)
	}
}

func TestPollCaptureFlag_NoTrigger(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"trigger": false})
	})

	flag, err := client.PollCaptureFlag(context.Background(), "alice")
	if err != nil {
		t.Fatalf("PollCaptureFlag failed: %v", err)
	}
	if flag.Trigger || flag.Camera != "" {
		t.Fatalf("Unexpected flag: %+v", flag)
	}
}

func TestUploadCapture_FullPayload(t *testing.T) {
	type part struct {
		filename, contentType, data string
	}
	files := map[string]part{}
	fields := map[string]string{}

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/capture-data" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("Expected a multipart body: %v", err)
			return
		}
		for {
			p, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("Failed to read part: %v", err)
				return
			}
			data, _ := io.ReadAll(p)
			if p.FileName() != "" {
				files[p.FormName()] = part{
					filename:    p.FileName(),
					contentType: p.Header.Get("Content-Type"),
					data:        string(data),
				}
			} else {
				fields[p.FormName()] = string(data)
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	payload := capture.Payload{
		Selfie: &capture.Artifact{
			Filename:    "selfie-1700000000000.jpg",
			ContentType: "image/jpeg",
			Data:        []byte("jpegdata"),
		},
		Video: &capture.Artifact{
			Filename:    "video-1700000000000.webm",
			ContentType: "video/webm",
			Data:        []byte("videodata"),
		},
		Audio: &capture.Artifact{
			Filename:    "audio-1700000000000.webm",
			ContentType: "audio/webm",
			Data:        []byte("audiodata"),
		},
		Location:    device.Location{Lat: 51.5, Lon: -0.12, Accuracy: 8},
		TriggeredBy: capture.TriggerAdmin,
		Username:    "anonymous-1700000000000",
	}

	if err := client.UploadCapture(context.Background(), payload); err != nil {
		t.Fatalf("UploadCapture failed: %v", err)
	}

	selfie, ok := files["selfie"]
	if !ok {
		t.Fatal("Missing selfie part")
	}
	if selfie.filename != "selfie-1700000000000.jpg" || selfie.contentType != "image/jpeg" || selfie.data != "jpegdata" {
		t.Fatalf("Unexpected selfie part: %+v", selfie)
	}
	if files["video"].filename != "video-1700000000000.webm" {
		t.Fatalf("Unexpected video part: %+v", files["video"])
	}
	if files["audio"].filename != "audio-1700000000000.webm" {
		t.Fatalf("Unexpected audio part: %+v", files["audio"])
	}

	if fields["triggeredBy"] != "admin" {
		t.Fatalf("Unexpected triggeredBy: %s", fields["triggeredBy"])
	}
	if fields["username"] != "anonymous-1700000000000" {
		t.Fatalf("Unexpected username: %s", fields["username"])
	}

	var loc device.Location
	if err := json.Unmarshal([]byte(fields["location"]), &loc); err != nil {
		t.Fatalf("Location field is not JSON: %v", err)
	}
	if loc != payload.Location {
		t.Fatalf("Unexpected location: %+v", loc)
	}
}

func TestUploadCapture_OmitsMissingArtifacts(t *testing.T) {
	var fileFields []string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("Expected a multipart body: %v", err)
			return
		}
		for {
			p, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return
			}
			if p.FileName() != "" {
				fileFields = append(fileFields, p.FormName())
			}
			_, _ = io.Copy(io.Discard, p)
		}
		w.WriteHeader(http.StatusOK)
	})

	payload := capture.Payload{
		Audio: &capture.Artifact{
			Filename:    "audio-1.webm",
			ContentType: "audio/webm",
			Data:        []byte("a"),
		},
		TriggeredBy: capture.TriggerUser,
		Username:    "anonymous-1",
	}
	if err := client.UploadCapture(context.Background(), payload); err != nil {
		t.Fatalf("UploadCapture failed: %v", err)
	}

	if len(fileFields) != 1 || fileFields[0] != "audio" {
		t.Fatalf("Only the audio part should be present, got %v", fileFields)
	}
}

func TestUploadCapture_Rejected(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	err := client.UploadCapture(context.Background(), capture.Payload{
		TriggeredBy: capture.TriggerUser,
		Username:    "x",
	})
	if err == nil {
		t.Fatal("Expected error on rejected upload")
	}
}

func TestFetchMessages(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("anonId"); got != "anonymous-9" {
			t.Errorf("Unexpected anonId: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Unexpected authorization header: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"messages": []map[string]string{
				{"_id": "m1", "title": "Hello", "body": "First"},
				{"_id": "m2", "title": "Again", "body": "Second"},
			},
		})
	})

	msgs, err := client.FetchMessages(context.Background(), "anonymous-9", "tok-1")
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].Title != "Hello" || msgs[0].Body != "First" {
		t.Fatalf("Unexpected first message: %+v", msgs[0])
	}
}

func TestFetchMessages_NoToken(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("No authorization header expected, got %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "success"})
	})

	if _, err := client.FetchMessages(context.Background(), "anonymous-9", ""); err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
}

func TestFetchMessages_FailureStatus(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "error"})
	})
	if _, err := client.FetchMessages(context.Background(), "a", ""); err == nil {
		t.Fatal("Expected error on non-success status")
	}
}

func TestDeleteMessage(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := client.DeleteMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/messages/m1" {
		t.Fatalf("Unexpected request: %s %s", gotMethod, gotPath)
	}
}
