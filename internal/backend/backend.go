package backend

import (
	"context"
	"encoding/json"
)

// RoomInfo is the room record returned by the backend, or {"error": msg}.
type RoomInfo map[string]any

// Participant is one participant record returned by the backend.
type Participant map[string]any

type SaveResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ParticipantHighlight struct {
	Interactions   int             `json:"interactions,omitempty"`
	Participation  string          `json:"participation,omitempty"`
	Strengths      json.RawMessage `json:"strengths,omitempty"`
	AreasToImprove json.RawMessage `json:"areas_to_improve,omitempty"`
}

type SessionSummary struct {
	Summary           string                          `json:"summary"`
	KeyTopics         []json.RawMessage               `json:"key_topics"`
	VocabularyCovered []json.RawMessage               `json:"vocabulary_covered"`
	GrammarPoints     []json.RawMessage               `json:"grammar_points"`
	StudentHighlights map[string]ParticipantHighlight `json:"student_highlights"`
	Recommendations   []json.RawMessage               `json:"recommendations"`
	AudioTranscript   string                          `json:"audio_transcript"`
	DurationMinutes   int                             `json:"duration_minutes"`
	GeneratedBy       string                          `json:"generated_by"`
}

type ScreenShareNotification struct {
	Identity  string `json:"identity"`
	IsSharing bool   `json:"is_sharing"`
}

// Client never returns Go errors: every failure is logged and folded into
// the returned value.
type Client interface {
	FetchRoomInfo(ctx context.Context, roomID string) RoomInfo
	FetchParticipants(ctx context.Context, roomID string) []Participant
	SaveSummary(ctx context.Context, sessionID string, summary SessionSummary) SaveResult
	NotifyScreenShare(ctx context.Context, roomID, identity string, isSharing bool)
}

func ErrorRoomInfo(msg string) RoomInfo {
	return RoomInfo{"error": msg}
}

func ErrorParticipants(msg string) []Participant {
	return []Participant{{"error": msg}}
}
