package repository

import (
	"context"

	"github.com/Houssemalou/lingua-hub/internal/repository"
	"github.com/google/uuid"
)

// NoopRepository keeps sessions in name only; used when DATABASE_URL is unset.
type NoopRepository struct{}

func NewNoopRepository() repository.Repository {
	return NoopRepository{}
}

func (NoopRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	return &repository.Session{
		ID:        uuid.NewString(),
		RoomID:    input.RoomID,
		StartedAt: input.StartedAt,
		Status:    repository.SessionStatusRunning,
	}, nil
}

func (NoopRepository) UpdateSessionCompleted(context.Context, repository.CompleteSessionInput) error {
	return nil
}

func (NoopRepository) GetRunningSessionByRoom(context.Context, string) (*repository.Session, error) {
	return nil, nil
}

func (NoopRepository) InsertTranscript(context.Context, repository.InsertTranscriptInput) error {
	return nil
}

func (NoopRepository) ListTranscriptsBySessionID(context.Context, string) ([]repository.TranscriptRecord, error) {
	return nil, nil
}

func (NoopRepository) SaveSummary(context.Context, repository.SaveSummaryInput) error {
	return nil
}
