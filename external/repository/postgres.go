package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

const sessionColumns = `id, room_id, started_at, ended_at, status, stop_reason`

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	var endedAt *time.Time
	if err := row.Scan(&s.ID, &s.RoomID, &s.StartedAt, &endedAt, &s.Status, &s.StopReason); err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO agent_sessions (id, room_id, started_at, status)
		 VALUES ($1, $2, $3, 'running')
		 RETURNING `+sessionColumns,
		uuid.NewString(), input.RoomID, input.StartedAt)
	return scanSession(row)
}

func (r *PostgresRepository) UpdateSessionCompleted(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE agent_sessions SET status = 'completed', ended_at = $2, stop_reason = $3 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.StopReason)
	return err
}

func (r *PostgresRepository) GetRunningSessionByRoom(ctx context.Context, roomID string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM agent_sessions WHERE room_id = $1 AND status = 'running'
		 ORDER BY started_at DESC LIMIT 1`,
		roomID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) InsertTranscript(ctx context.Context, input repository.InsertTranscriptInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transcript_records (id, session_id, participant, content, seq, captured_at, transcribed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), input.SessionID, input.Participant, input.Content, input.Seq, input.CapturedAt, input.TranscribedAt)
	return err
}

func (r *PostgresRepository) ListTranscriptsBySessionID(ctx context.Context, sessionID string) ([]repository.TranscriptRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, participant, content, seq, captured_at, transcribed_at
		 FROM transcript_records WHERE session_id = $1 ORDER BY captured_at ASC, seq ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.TranscriptRecord
	for rows.Next() {
		var rec repository.TranscriptRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Participant, &rec.Content, &rec.Seq, &rec.CapturedAt, &rec.TranscribedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) SaveSummary(ctx context.Context, input repository.SaveSummaryInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_summaries (session_id, generated_by, summary, persisted)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id) DO UPDATE
		 SET generated_by = EXCLUDED.generated_by, summary = EXCLUDED.summary, persisted = EXCLUDED.persisted`,
		input.SessionID, input.GeneratedBy, string(input.SummaryJSON), input.Persisted)
	return err
}
