package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/room"
)

type HandlerOptions struct {
	Chunk        audio.ChunkerOptions
	SilenceRMS   float64
	FlushTimeout time.Duration
}

// Handler turns room events for a single room into monitor and backend
// calls. It implements room.EventHandler.
type Handler struct {
	roomID     string
	backend    backend.Client
	newDecoder audio.DecoderFactory
	opts       HandlerOptions

	mu           sync.Mutex
	participants map[string]room.Participant
	tracks       map[string]struct{}
	monitor      *Monitor
	ending       bool
	pumps        sync.WaitGroup
}

var _ room.EventHandler = (*Handler)(nil)

func NewHandler(roomID string, bc backend.Client, newDecoder audio.DecoderFactory, opts HandlerOptions) *Handler {
	return &Handler{
		roomID:       roomID,
		backend:      bc,
		newDecoder:   newDecoder,
		opts:         opts,
		participants: make(map[string]room.Participant),
		tracks:       make(map[string]struct{}),
	}
}

// SetupMonitor attaches the session monitor. Only the first call has an effect.
func (h *Handler) SetupMonitor(m *Monitor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.monitor != nil {
		return
	}
	h.monitor = m
	slog.Info("session monitor configured", "room_id", h.roomID)
}

func (h *Handler) OnParticipantConnected(p room.Participant) {
	slog.Info("participant connected", "room_id", h.roomID, "participant", p.Identity)
	h.mu.Lock()
	h.participants[p.Identity] = p
	h.mu.Unlock()

	// Tracks published before the handler was attached.
	for _, t := range p.Tracks {
		h.OnTrackSubscribed(t, p)
	}
}

func (h *Handler) OnParticipantDisconnected(p room.Participant) {
	slog.Info("participant disconnected", "room_id", h.roomID, "participant", p.Identity)
	h.mu.Lock()
	delete(h.participants, p.Identity)
	h.mu.Unlock()
}

func (h *Handler) OnTrackSubscribed(track room.Track, p room.Participant) {
	slog.Info("track subscribed", "room_id", h.roomID, "participant", p.Identity, "kind", track.Kind, "source", track.Source, "track_sid", track.SID)
	h.mu.Lock()
	if track.SID != "" {
		if _, seen := h.tracks[track.SID]; seen {
			h.mu.Unlock()
			return
		}
		h.tracks[track.SID] = struct{}{}
	}
	monitor := h.monitor
	if h.ending {
		monitor = nil
	}
	if track.Kind == room.TrackKindAudio && monitor != nil && track.Audio != nil {
		h.pumps.Add(1)
	}
	h.mu.Unlock()

	switch track.Kind {
	case room.TrackKindAudio:
		if monitor == nil || track.Audio == nil {
			slog.Warn("audio track not transcribed", "room_id", h.roomID, "participant", p.Identity, "has_monitor", monitor != nil, "has_stream", track.Audio != nil)
			return
		}
		go h.pumpAudio(track, p.Identity, monitor)
	case room.TrackKindVideo:
		if track.Source == room.TrackSourceScreenShare {
			slog.Info("screen share started", "room_id", h.roomID, "participant", p.Identity)
			h.notifyScreenShare(p.Identity, true)
		}
	}
}

func (h *Handler) OnTrackUnsubscribed(track room.Track, p room.Participant) {
	h.mu.Lock()
	delete(h.tracks, track.SID)
	h.mu.Unlock()

	if track.Source == room.TrackSourceScreenShare {
		slog.Info("screen share stopped", "room_id", h.roomID, "participant", p.Identity)
		h.notifyScreenShare(p.Identity, false)
	}
}

func (h *Handler) notifyScreenShare(identity string, isSharing bool) {
	// The backend client bounds the call with its own timeout.
	h.backend.NotifyScreenShare(context.Background(), h.roomID, identity, isSharing)
}

type dataMessage struct {
	Type string `json:"type"`
}

// OnDataReceived only logs the message type; chat content travels peer to
// peer and is not stored.
func (h *Handler) OnDataReceived(data []byte, senderIdentity string) {
	var msg dataMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Error("failed to decode data message", "error", err, "room_id", h.roomID, "participant", senderIdentity)
		return
	}
	slog.Info("data message received", "room_id", h.roomID, "participant", senderIdentity, "type", msg.Type)
}

// Participants returns the identities currently in the room.
func (h *Handler) Participants() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.participants))
	for id := range h.participants {
		ids = append(ids, id)
	}
	return ids
}

// EndSession flushes pending audio and returns the monitor's summary, or nil
// when no monitor was configured.
func (h *Handler) EndSession(ctx context.Context) *backend.SessionSummary {
	h.mu.Lock()
	monitor := h.monitor
	h.ending = true
	h.mu.Unlock()
	if monitor == nil {
		return nil
	}

	flushCtx, cancel := context.WithTimeout(ctx, h.opts.FlushTimeout)
	if err := h.waitPumps(flushCtx); err != nil {
		slog.Warn("audio pumps still running at session end", "error", err, "room_id", h.roomID)
	}
	if err := monitor.Drain(flushCtx); err != nil {
		slog.Warn("pending transcriptions abandoned at session end", "error", err, "room_id", h.roomID)
	}
	cancel()
	monitor.Close()

	summary := monitor.GenerateSummary(ctx)
	slog.Info("session summary generated", "room_id", h.roomID, "generated_by", summary.GeneratedBy)
	return &summary
}

func (h *Handler) waitPumps(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
