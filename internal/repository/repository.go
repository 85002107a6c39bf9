package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	RoomID    string
	StartedAt time.Time
}

type CompleteSessionInput struct {
	SessionID  string
	EndedAt    time.Time
	StopReason string
}

type InsertTranscriptInput struct {
	SessionID     string
	Participant   string
	Content       string
	Seq           int
	CapturedAt    time.Time
	TranscribedAt time.Time
}

type SaveSummaryInput struct {
	SessionID   string
	GeneratedBy string
	SummaryJSON []byte
	Persisted   bool
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	UpdateSessionCompleted(ctx context.Context, input CompleteSessionInput) error
	GetRunningSessionByRoom(ctx context.Context, roomID string) (*Session, error)
}

type TranscriptRepository interface {
	InsertTranscript(ctx context.Context, input InsertTranscriptInput) error
	ListTranscriptsBySessionID(ctx context.Context, sessionID string) ([]TranscriptRecord, error)
}

type SummaryRepository interface {
	SaveSummary(ctx context.Context, input SaveSummaryInput) error
}

// Repository is the session journal. Callers log its errors and carry on.
type Repository interface {
	SessionRepository
	TranscriptRepository
	SummaryRepository
}
