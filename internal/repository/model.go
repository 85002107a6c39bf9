package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is one agent run inside a LiveKit room.
type Session struct {
	ID         string
	RoomID     string
	StartedAt  time.Time
	EndedAt    *time.Time
	Status     SessionStatus
	StopReason string
}

type TranscriptRecord struct {
	ID            string
	SessionID     string
	Participant   string
	Content       string
	Seq           int
	CapturedAt    time.Time
	TranscribedAt time.Time
}
