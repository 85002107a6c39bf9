package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/repository"
	"github.com/Houssemalou/lingua-hub/internal/room"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
	"golang.org/x/sync/semaphore"
)

const (
	roomJoinTimeout = 20 * time.Second
	journalTimeout  = 5 * time.Second
)

const (
	StopReasonRoomFinished = "room_finished"
	StopReasonDisconnected = "disconnected"
	StopReasonMaxDuration  = "max_duration"
	StopReasonShutdown     = "shutdown"
	StopReasonInterrupted  = "interrupted"
	stopReasonOrphaned     = "orphaned"
	stopReasonJoinFailed   = "join_failed"
)

var ErrSessionNotFound = errors.New("no active session for room")

// Manager owns one running session per room.
type Manager struct {
	cfg         *config.Config
	repo        repository.Repository
	rooms       room.Client
	backend     backend.Client
	transcriber transcriber.Transcriber
	model       assistant.Model
	newDecoder  audio.DecoderFactory
	semaphore   *semaphore.Weighted

	mu       sync.Mutex
	sessions map[string]*runningSession
	starting map[string]struct{}
}

type runningSession struct {
	roomID      string
	repoSession *repository.Session
	handler     *Handler
	conn        room.Connection
	timer       *time.Timer
	result      chan *backend.SessionSummary
}

func NewManager(cfg *config.Config, repo repository.Repository, rooms room.Client, bc backend.Client, stt transcriber.Transcriber, model assistant.Model, newDecoder audio.DecoderFactory) *Manager {
	return &Manager{
		cfg:         cfg,
		repo:        repo,
		rooms:       rooms,
		backend:     bc,
		transcriber: stt,
		model:       model,
		newDecoder:  newDecoder,
		semaphore:   semaphore.NewWeighted(int64(cfg.MaxConcurrentTranscriptions)),
		sessions:    make(map[string]*runningSession),
		starting:    make(map[string]struct{}),
	}
}

// StartSession joins roomID and starts monitoring it. Starting a room that is
// already monitored is a no-op.
func (m *Manager) StartSession(ctx context.Context, roomID string) error {
	slog.Info("start session requested", "room_id", roomID)
	m.mu.Lock()
	if _, exists := m.sessions[roomID]; exists {
		m.mu.Unlock()
		slog.Info("session already active", "room_id", roomID)
		return nil
	}
	if _, pending := m.starting[roomID]; pending {
		m.mu.Unlock()
		slog.Info("session already starting", "room_id", roomID)
		return nil
	}
	m.starting[roomID] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.starting, roomID)
		m.mu.Unlock()
	}()

	m.closeOrphanSession(roomID)
	repoSession := m.openJournal(roomID)

	handler := NewHandler(roomID, m.backend, m.newDecoder, HandlerOptions{
		Chunk: audio.ChunkerOptions{
			ChunkDuration:    m.cfg.AudioChunkDuration,
			MinChunkDuration: m.cfg.AudioMinChunkDuration,
		},
		SilenceRMS:   m.cfg.AudioSilenceRMS,
		FlushTimeout: m.cfg.SummaryFlushTimeout,
	})
	opts := MonitorOptions{
		RoomID:               roomID,
		SessionID:            roomID,
		QueueSize:            m.cfg.ParticipantQueueSize,
		MaxRecords:           m.cfg.MaxTranscriptRecords,
		TranscriptionTimeout: m.cfg.TranscriptionTimeout,
		ModelTimeout:         m.cfg.ModelTimeout,
		MaxToolCalls:         m.cfg.MaxToolCalls,
	}
	if repoSession != nil {
		opts.JournalSessionID = repoSession.ID
	}
	monitor := NewMonitor(opts, m.transcriber, m.model, m.backend, m.repo, m.semaphore)
	handler.SetupMonitor(monitor)

	joinCtx, cancel := context.WithTimeout(ctx, roomJoinTimeout)
	defer cancel()
	conn, err := m.rooms.JoinRoom(joinCtx, room.JoinOptions{
		RoomName: roomID,
		Identity: m.cfg.LiveKitAgentIdentity,
		Subscribe: room.SubscribePolicy{
			Audio:       true,
			ScreenShare: m.cfg.LiveKitSubscribeScreenShare,
		},
	}, handler)
	if err != nil {
		monitor.Close()
		m.completeJournal(repoSession, stopReasonJoinFailed)
		slog.Error("failed to join room", "error", err, "room_id", roomID)
		return fmt.Errorf("join room %s: %w", roomID, err)
	}

	rs := &runningSession{
		roomID:      roomID,
		repoSession: repoSession,
		handler:     handler,
		conn:        conn,
		result:      make(chan *backend.SessionSummary, 1),
	}
	m.mu.Lock()
	m.sessions[roomID] = rs
	rs.timer = time.AfterFunc(m.cfg.MaxSessionDuration(), func() {
		slog.Info("max session duration reached", "room_id", roomID, "max_minutes", m.cfg.MaxSessionDurationMin)
		m.endInBackground(rs, StopReasonMaxDuration)
	})
	m.mu.Unlock()
	go m.watchConnection(rs)

	slog.Info("session activated", "room_id", roomID, "journal_session_id", opts.JournalSessionID)
	return nil
}

func (m *Manager) closeOrphanSession(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	sess, err := m.repo.GetRunningSessionByRoom(ctx, roomID)
	if err != nil {
		slog.Error("failed to query running session", "error", err, "room_id", roomID)
		return
	}
	if sess == nil {
		return
	}
	slog.Warn("found orphan running session in journal; closing it", "session_id", sess.ID, "room_id", roomID)
	if err := m.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
		SessionID:  sess.ID,
		EndedAt:    time.Now(),
		StopReason: stopReasonOrphaned,
	}); err != nil {
		slog.Error("failed to complete orphan session", "error", err, "session_id", sess.ID, "room_id", roomID)
	}
	m.recoverOrphanSummary(ctx, sess)
}

// recoverOrphanSummary journals a fallback summary rebuilt from the orphan's
// journaled transcript. The backend is not called: the new session reports
// under the same room.
func (m *Manager) recoverOrphanSummary(ctx context.Context, sess *repository.Session) {
	stored, err := m.repo.ListTranscriptsBySessionID(ctx, sess.ID)
	if err != nil {
		slog.Error("failed to list orphan transcripts", "error", err, "session_id", sess.ID)
		return
	}
	if len(stored) == 0 {
		return
	}
	records := make([]TranscriptionRecord, 0, len(stored))
	activity := make(map[string]ParticipantActivity)
	last := sess.StartedAt
	for _, rec := range stored {
		records = append(records, TranscriptionRecord{
			Participant:   rec.Participant,
			Text:          rec.Content,
			CapturedAt:    rec.CapturedAt,
			TranscribedAt: rec.TranscribedAt,
		})
		a := activity[rec.Participant]
		a.Interactions++
		a.Segments = append(a.Segments, rec.Content)
		activity[rec.Participant] = a
		if rec.TranscribedAt.After(last) {
			last = rec.TranscribedAt
		}
	}
	summary := fallbackSummary(renderTranscript(records), last.Sub(sess.StartedAt), activity)
	body, err := json.Marshal(summary)
	if err != nil {
		slog.Error("failed to encode orphan summary", "error", err, "session_id", sess.ID)
		return
	}
	if err := m.repo.SaveSummary(ctx, repository.SaveSummaryInput{
		SessionID:   sess.ID,
		GeneratedBy: summary.GeneratedBy,
		SummaryJSON: body,
	}); err != nil {
		slog.Error("failed to journal orphan summary", "error", err, "session_id", sess.ID)
		return
	}
	slog.Info("recovered orphan session summary", "session_id", sess.ID, "records", len(records))
}

func (m *Manager) openJournal(roomID string) *repository.Session {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	created, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		RoomID:    roomID,
		StartedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to create journal session", "error", err, "room_id", roomID)
		return nil
	}
	return created
}

func (m *Manager) completeJournal(s *repository.Session, reason string) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := m.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
		SessionID:  s.ID,
		EndedAt:    time.Now(),
		StopReason: reason,
	}); err != nil {
		slog.Error("failed to complete journal session", "error", err, "session_id", s.ID)
	}
}

func (m *Manager) watchConnection(rs *runningSession) {
	<-rs.conn.Done()
	m.endInBackground(rs, StopReasonDisconnected)
}

// endInBackground ends rs unless it was already ended or replaced.
func (m *Manager) endInBackground(rs *runningSession, reason string) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("session end worker panicked", "room_id", rs.roomID, "reason", reason, "panic", rec, "stack", string(debug.Stack()))
			}
		}()
		if !m.take(rs.roomID, rs) {
			return
		}
		m.finish(context.Background(), rs, reason)
	}()
}

// take removes the room's session when it is rs, or any session when rs is nil.
func (m *Manager) take(roomID string, rs *runningSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[roomID]
	if !ok || (rs != nil && cur != rs) {
		return false
	}
	delete(m.sessions, roomID)
	return true
}

// EndSession stops monitoring roomID and returns the persisted summary.
func (m *Manager) EndSession(ctx context.Context, roomID, reason string) (*backend.SessionSummary, error) {
	m.mu.Lock()
	rs, ok := m.sessions[roomID]
	m.mu.Unlock()
	if !ok || !m.take(roomID, rs) {
		return nil, ErrSessionNotFound
	}
	return m.finish(ctx, rs, reason), nil
}

func (m *Manager) finish(ctx context.Context, rs *runningSession, reason string) *backend.SessionSummary {
	slog.Info("stopping session", "room_id", rs.roomID, "reason", reason)
	if rs.timer != nil {
		rs.timer.Stop()
	}
	rs.conn.Disconnect()

	summary := rs.handler.EndSession(ctx)
	m.completeJournal(rs.repoSession, reason)
	rs.result <- summary
	close(rs.result)
	slog.Info("session ended", "room_id", rs.roomID, "reason", reason)
	return summary
}

// Ended yields the summary once the room's current session ends by any
// trigger. It returns nil when the room has no session.
func (m *Manager) Ended(roomID string) <-chan *backend.SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, ok := m.sessions[roomID]
	if !ok {
		return nil
	}
	return rs.result
}

// StopAllSessions ends every session concurrently and reports how many ended.
func (m *Manager) StopAllSessions(ctx context.Context, reason string) int {
	rooms := m.ActiveRooms()
	var (
		wg      sync.WaitGroup
		stopped int
		mu      sync.Mutex
	)
	for _, roomID := range rooms {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.EndSession(ctx, roomID, reason); err != nil {
				slog.Warn("failed to stop session", "error", err, "room_id", roomID)
				return
			}
			mu.Lock()
			stopped++
			mu.Unlock()
		}()
	}
	wg.Wait()
	slog.Info("stopped all sessions", "count", stopped, "reason", reason)
	return stopped
}

func (m *Manager) ActiveRooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		rooms = append(rooms, id)
	}
	return rooms
}

// HandleLifecycleEvent reacts to room lifecycle notifications without
// blocking the caller.
func (m *Manager) HandleLifecycleEvent(ev room.LifecycleEvent) {
	slog.Info("room lifecycle event received", "kind", ev.Kind, "room_id", ev.RoomName)
	if ev.RoomName == "" {
		return
	}
	switch ev.Kind {
	case room.RoomStarted:
		go func() {
			if err := m.StartSession(context.Background(), ev.RoomName); err != nil {
				slog.Error("failed to start session from lifecycle event", "error", err, "room_id", ev.RoomName)
			}
		}()
	case room.RoomFinished:
		m.mu.Lock()
		rs, ok := m.sessions[ev.RoomName]
		m.mu.Unlock()
		if ok {
			m.endInBackground(rs, StopReasonRoomFinished)
		}
	}
}
