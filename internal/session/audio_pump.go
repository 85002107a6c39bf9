package session

import (
	"errors"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/room"
)

// pumpAudio decodes one subscribed audio track until it ends and feeds the
// resulting chunks to the monitor.
func (h *Handler) pumpAudio(track room.Track, identity string, monitor *Monitor) {
	defer h.pumps.Done()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("audio pump panicked", "room_id", h.roomID, "participant", identity, "track_sid", track.SID, "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	dec, err := h.newDecoder()
	if err != nil {
		slog.Error("failed to create audio decoder", "error", err, "room_id", h.roomID, "participant", identity)
		return
	}
	chunker := audio.NewChunker(identity, h.opts.Chunk)
	var packets, decodeErrors int64
	slog.Info("audio pump started", "room_id", h.roomID, "participant", identity, "track_sid", track.SID)
	for {
		pkt, err := track.Audio.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("audio track read ended", "error", err, "room_id", h.roomID, "participant", identity)
			}
			break
		}
		packets++
		pcm, err := dec.Decode(pkt)
		if err != nil {
			decodeErrors++
			if decodeErrors == 1 || decodeErrors%500 == 0 {
				slog.Warn("failed to decode opus packet", "error", err, "room_id", h.roomID, "participant", identity, "decode_errors", decodeErrors)
			}
			continue
		}
		if chunk, ok := chunker.Write(pcm); ok {
			h.ingest(monitor, chunk, identity)
		}
	}
	if chunk, ok := chunker.Flush(); ok {
		h.ingest(monitor, chunk, identity)
	}
	slog.Info("audio pump stopped", "room_id", h.roomID, "participant", identity, "track_sid", track.SID, "packets", packets, "decode_errors", decodeErrors)
}

func (h *Handler) ingest(monitor *Monitor, chunk audio.Chunk, identity string) {
	if h.opts.SilenceRMS > 0 {
		if rms := chunk.RMS(); rms < h.opts.SilenceRMS {
			slog.Debug("skipping silent chunk", "room_id", h.roomID, "participant", identity, "rms", rms)
			return
		}
	}
	monitor.IngestAudio(chunk, identity)
}
