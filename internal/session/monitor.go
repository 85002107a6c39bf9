package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/repository"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
	"golang.org/x/sync/semaphore"
)

const journalWriteTimeout = 5 * time.Second

type TranscriptionRecord struct {
	Participant   string
	Text          string
	CapturedAt    time.Time
	TranscribedAt time.Time
}

type ParticipantActivity struct {
	Interactions int
	Segments     []string
}

type ChunkInfo struct {
	ID          string
	Participant string
	CapturedAt  time.Time
	Duration    time.Duration
}

type MonitorOptions struct {
	RoomID    string
	SessionID string
	// JournalSessionID is the journal row the records are attached to.
	JournalSessionID string

	QueueSize            int
	MaxRecords           int
	TranscriptionTimeout time.Duration
	ModelTimeout         time.Duration
	MaxToolCalls         int
}

// Monitor accumulates one room session's activity and transcript and turns
// them into a summary at the end.
type Monitor struct {
	opts        MonitorOptions
	transcriber transcriber.Transcriber
	model       assistant.Model
	backend     backend.Client
	journal     repository.Repository
	queue       *transcriptionQueue
	now         func() time.Time
	startedAt   time.Time

	mu        sync.Mutex
	chunks    []ChunkInfo
	records   []TranscriptionRecord
	activity  map[string]*ParticipantActivity
	capWarned bool
	closed    bool
}

func NewMonitor(opts MonitorOptions, stt transcriber.Transcriber, model assistant.Model, bc backend.Client, journal repository.Repository, sem *semaphore.Weighted) *Monitor {
	m := &Monitor{
		opts:        opts,
		transcriber: stt,
		model:       model,
		backend:     bc,
		journal:     journal,
		now:         time.Now,
		activity:    make(map[string]*ParticipantActivity),
	}
	m.startedAt = m.now()
	m.queue = newTranscriptionQueue(opts.QueueSize, sem, m.transcribe)
	return m
}

// IngestAudio counts the chunk against the participant and queues it for
// transcription without waiting for the result.
func (m *Monitor) IngestAudio(chunk audio.Chunk, identity string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		slog.Debug("monitor closed; ignoring audio chunk", "room_id", m.opts.RoomID, "participant", identity)
		return
	}
	a := m.activityLocked(identity)
	a.Interactions++
	m.chunks = append(m.chunks, ChunkInfo{
		ID:          chunk.ID,
		Participant: identity,
		CapturedAt:  chunk.CapturedAt,
		Duration:    chunk.Duration(),
	})
	m.mu.Unlock()

	chunk.Participant = identity
	if err := m.queue.enqueue(chunk); err != nil {
		slog.Warn("dropping audio chunk", "error", err, "room_id", m.opts.RoomID, "participant", identity, "chunk_id", chunk.ID)
	}
}

func (m *Monitor) activityLocked(identity string) *ParticipantActivity {
	a, ok := m.activity[identity]
	if !ok {
		a = &ParticipantActivity{}
		m.activity[identity] = a
	}
	return a
}

func (m *Monitor) transcribe(ctx context.Context, chunk audio.Chunk) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.TranscriptionTimeout)
	defer cancel()

	text, err := m.transcriber.Transcribe(ctx, chunk)
	if err != nil {
		slog.Warn("transcription failed; chunk dropped", "error", err, "room_id", m.opts.RoomID, "participant", chunk.Participant, "chunk_id", chunk.ID)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	m.appendRecord(text, chunk.Participant, chunk.CapturedAt)
}

// AppendTranscription records text spoken by identity.
func (m *Monitor) AppendTranscription(text, identity string) {
	m.appendRecord(text, identity, m.now())
}

func (m *Monitor) appendRecord(text, identity string, capturedAt time.Time) {
	m.mu.Lock()
	if len(m.records) >= m.opts.MaxRecords {
		warn := !m.capWarned
		m.capWarned = true
		m.mu.Unlock()
		if warn {
			slog.Warn("transcript record limit reached; further records are discarded", "room_id", m.opts.RoomID, "max_records", m.opts.MaxRecords)
		}
		return
	}
	rec := TranscriptionRecord{
		Participant:   identity,
		Text:          text,
		CapturedAt:    capturedAt,
		TranscribedAt: m.now(),
	}
	m.records = append(m.records, rec)
	seq := len(m.records)
	if a, ok := m.activity[identity]; ok {
		a.Segments = append(a.Segments, text)
	}
	m.mu.Unlock()

	slog.Info("transcription recorded", "room_id", m.opts.RoomID, "participant", identity, "text", truncate(text, 80))
	m.journalTranscript(rec, seq)
}

func (m *Monitor) journalTranscript(rec TranscriptionRecord, seq int) {
	if m.journal == nil || m.opts.JournalSessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	if err := m.journal.InsertTranscript(ctx, repository.InsertTranscriptInput{
		SessionID:     m.opts.JournalSessionID,
		Participant:   rec.Participant,
		Content:       rec.Text,
		Seq:           seq,
		CapturedAt:    rec.CapturedAt,
		TranscribedAt: rec.TranscribedAt,
	}); err != nil {
		slog.Error("failed to journal transcript record", "error", err, "session_id", m.opts.JournalSessionID)
	}
}

// Drain waits until every queued chunk has been transcribed.
func (m *Monitor) Drain(ctx context.Context) error {
	return m.queue.waitIdle(ctx)
}

// Close stops accepting audio and cancels outstanding transcriptions.
func (m *Monitor) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.queue.stop()
}

// GenerateSummary asks the model for a summary, falls back to local counters
// when that fails, and persists the result through the backend either way.
func (m *Monitor) GenerateSummary(ctx context.Context) backend.SessionSummary {
	slog.Info("generating session summary", "room_id", m.opts.RoomID, "session_id", m.opts.SessionID)
	elapsed := m.now().Sub(m.startedAt)
	records, activity := m.snapshot()
	transcript := renderTranscript(records)

	summary, err := m.summarizeWithModel(ctx, transcript, elapsed, len(activity))
	if err != nil {
		slog.Warn("model summary failed; using fallback", "error", err, "room_id", m.opts.RoomID, "session_id", m.opts.SessionID)
		summary = fallbackSummary(transcript, elapsed, activity)
	}

	result := m.backend.SaveSummary(ctx, m.opts.SessionID, summary)
	if result.Success {
		slog.Info("session summary saved", "session_id", m.opts.SessionID, "generated_by", summary.GeneratedBy)
	} else {
		slog.Error("failed to save session summary", "session_id", m.opts.SessionID, "error", result.Error)
	}
	m.journalSummary(summary, result.Success)
	return summary
}

func (m *Monitor) summarizeWithModel(ctx context.Context, transcript string, elapsed time.Duration, participants int) (backend.SessionSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.ModelTimeout)
	defer cancel()

	prompt := buildSummaryPrompt(summaryPromptInput{
		SessionID:    m.opts.SessionID,
		RoomID:       m.opts.RoomID,
		Elapsed:      elapsed,
		Participants: participants,
		Transcript:   transcript,
		ModelName:    m.model.Name(),
	})
	text, err := runToolLoop(ctx, m.model, prompt, m.summaryTools(), m.opts.MaxToolCalls)
	if err != nil {
		return backend.SessionSummary{}, err
	}
	summary, err := parseSummary(text)
	if err != nil {
		return backend.SessionSummary{}, err
	}
	normalizeSummary(&summary, transcript, durationFloor(elapsed), m.model.Name())
	return summary, nil
}

func (m *Monitor) journalSummary(summary backend.SessionSummary, persisted bool) {
	if m.journal == nil || m.opts.JournalSessionID == "" {
		return
	}
	body, err := json.Marshal(summary)
	if err != nil {
		slog.Error("failed to encode summary for journal", "error", err, "session_id", m.opts.JournalSessionID)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	if err := m.journal.SaveSummary(ctx, repository.SaveSummaryInput{
		SessionID:   m.opts.JournalSessionID,
		GeneratedBy: summary.GeneratedBy,
		SummaryJSON: body,
		Persisted:   persisted,
	}); err != nil {
		slog.Error("failed to journal summary", "error", err, "session_id", m.opts.JournalSessionID)
	}
}

func (m *Monitor) snapshot() ([]TranscriptionRecord, map[string]ParticipantActivity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]TranscriptionRecord, len(m.records))
	copy(records, m.records)
	activity := make(map[string]ParticipantActivity, len(m.activity))
	for id, a := range m.activity {
		activity[id] = ParticipantActivity{
			Interactions: a.Interactions,
			Segments:     append([]string(nil), a.Segments...),
		}
	}
	return records, activity
}

// Transcriptions returns the records in the order they were appended.
func (m *Monitor) Transcriptions() []TranscriptionRecord {
	records, _ := m.snapshot()
	return records
}

func (m *Monitor) Activity(identity string) (ParticipantActivity, bool) {
	_, activity := m.snapshot()
	a, ok := activity[identity]
	return a, ok
}

func (m *Monitor) Chunks() []ChunkInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChunkInfo(nil), m.chunks...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
