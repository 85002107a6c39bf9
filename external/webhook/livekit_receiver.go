package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Houssemalou/lingua-hub/internal/room"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/webhook"
)

// Receiver accepts signed LiveKit webhook calls and forwards room lifecycle
// events.
type Receiver struct {
	keys    auth.KeyProvider
	onEvent func(room.LifecycleEvent)
	mux     *http.ServeMux
}

func NewReceiver(apiKey, apiSecret string, onEvent func(room.LifecycleEvent)) *Receiver {
	r := &Receiver{
		keys:    auth.NewSimpleKeyProvider(apiKey, apiSecret),
		onEvent: onEvent,
		mux:     http.NewServeMux(),
	}
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("POST /livekit/webhook", r.handleWebhook)
	return r
}

func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Receiver) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (r *Receiver) handleWebhook(w http.ResponseWriter, req *http.Request) {
	event, err := webhook.ReceiveWebhookEvent(req, r.keys)
	if err != nil {
		slog.Warn("rejected livekit webhook", "error", err)
		http.Error(w, `{"error":"invalid webhook"}`, http.StatusUnauthorized)
		return
	}
	kind := room.LifecycleEventKind(event.GetEvent())
	switch kind {
	case room.RoomStarted, room.RoomFinished:
		r.onEvent(room.LifecycleEvent{Kind: kind, RoomName: event.GetRoom().GetName()})
	default:
		slog.Debug("ignoring livekit webhook event", "event", event.GetEvent(), "room_id", event.GetRoom().GetName())
	}
	w.WriteHeader(http.StatusOK)
}
