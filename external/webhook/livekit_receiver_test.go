package webhook

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/room"
	"github.com/livekit/protocol/auth"
	lkproto "github.com/livekit/protocol/livekit"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	testAPIKey    = "APIkey123"
	testAPISecret = "secret-secret-secret-secret-secret"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []room.LifecycleEvent
}

func (r *eventRecorder) record(ev room.LifecycleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func signedRequest(t *testing.T, event *lkproto.WebhookEvent, secret string) *http.Request {
	t.Helper()
	body, err := protojson.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	sum := sha256.Sum256(body)
	token, err := auth.NewAccessToken(testAPIKey, secret).
		SetValidFor(5 * time.Minute).
		SetSha256(base64.StdEncoding.EncodeToString(sum[:])).
		ToJWT()
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/livekit/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/webhook+json")
	req.Header.Set("Authorization", token)
	return req
}

func TestReceiver_ForwardsRoomLifecycle(t *testing.T) {
	rec := &eventRecorder{}
	recv := NewReceiver(testAPIKey, testAPISecret, rec.record)

	for _, name := range []string{"room_started", "room_finished", "participant_joined"} {
		w := httptest.NewRecorder()
		recv.ServeHTTP(w, signedRequest(t, &lkproto.WebhookEvent{
			Event: name,
			Room:  &lkproto.Room{Name: "room-1"},
		}, testAPISecret))
		if w.Code != http.StatusOK {
			t.Fatalf("unexpected status for %s: %d", name, w.Code)
		}
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 lifecycle events, got %+v", rec.events)
	}
	if rec.events[0] != (room.LifecycleEvent{Kind: room.RoomStarted, RoomName: "room-1"}) {
		t.Fatalf("unexpected first event: %+v", rec.events[0])
	}
	if rec.events[1].Kind != room.RoomFinished {
		t.Fatalf("unexpected second event: %+v", rec.events[1])
	}
}

func TestReceiver_RejectsUnsigned(t *testing.T) {
	rec := &eventRecorder{}
	recv := NewReceiver(testAPIKey, testAPISecret, rec.record)

	req := httptest.NewRequest(http.MethodPost, "/livekit/webhook", bytes.NewReader([]byte(`{"event":"room_finished"}`)))
	w := httptest.NewRecorder()
	recv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	recv.ServeHTTP(w, signedRequest(t, &lkproto.WebhookEvent{Event: "room_finished", Room: &lkproto.Room{Name: "room-1"}}, "wrong-secret-wrong-secret-wrong-secret"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %d", w.Code)
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events, got %+v", rec.events)
	}
}

func TestReceiver_Health(t *testing.T) {
	recv := NewReceiver(testAPIKey, testAPISecret, func(room.LifecycleEvent) {})
	w := httptest.NewRecorder()
	recv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}
