package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/repository"
	"github.com/Houssemalou/lingua-hub/internal/room"
	"golang.org/x/sync/semaphore"
)

type savedSummary struct {
	sessionID string
	summary   backend.SessionSummary
}

type mockBackend struct {
	mu               sync.Mutex
	saveResult       backend.SaveResult
	roomInfoCalls    []string
	participantCalls []string
	saved            []savedSummary
	notifications    []backend.ScreenShareNotification
}

func newMockBackend() *mockBackend {
	return &mockBackend{saveResult: backend.SaveResult{Success: true}}
}

func (m *mockBackend) FetchRoomInfo(_ context.Context, roomID string) backend.RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomInfoCalls = append(m.roomInfoCalls, roomID)
	return backend.RoomInfo{"objective": "past tense", "language": "fr"}
}

func (m *mockBackend) FetchParticipants(_ context.Context, roomID string) []backend.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participantCalls = append(m.participantCalls, roomID)
	return []backend.Participant{{"identity": "alice", "role": "student"}}
}

func (m *mockBackend) SaveSummary(_ context.Context, sessionID string, summary backend.SessionSummary) backend.SaveResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, savedSummary{sessionID: sessionID, summary: summary})
	return m.saveResult
}

func (m *mockBackend) NotifyScreenShare(_ context.Context, _, identity string, isSharing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, backend.ScreenShareNotification{Identity: identity, IsSharing: isSharing})
}

func (m *mockBackend) savedSummaries() []savedSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]savedSummary(nil), m.saved...)
}

func (m *mockBackend) screenShares() []backend.ScreenShareNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]backend.ScreenShareNotification(nil), m.notifications...)
}

// stubModel replays scripted responses, then repeats the last fallback.
type stubModel struct {
	mu        sync.Mutex
	responses []*assistant.Response
	repeat    *assistant.Response
	err       error
	requests  []assistant.Request
}

func (s *stubModel) Name() string { return "stub-model" }

func (s *stubModel) Generate(_ context.Context, req assistant.Request) (*assistant.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		if s.repeat != nil {
			return s.repeat, nil
		}
		return &assistant.Response{}, nil
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func (s *stubModel) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func textModel(text string) *stubModel {
	return &stubModel{repeat: &assistant.Response{Text: text}}
}

type stubTranscriber struct {
	fn func(chunk audio.Chunk) (string, error)
}

func (s *stubTranscriber) Transcribe(ctx context.Context, chunk audio.Chunk) (string, error) {
	if s.fn == nil {
		return "", nil
	}
	return s.fn(chunk)
}

func (s *stubTranscriber) Close() error { return nil }

func fixedTranscriber(text string) *stubTranscriber {
	return &stubTranscriber{fn: func(audio.Chunk) (string, error) { return text, nil }}
}

type mockRepository struct {
	mu          sync.Mutex
	createCount int
	running     *repository.Session
	stored      map[string][]repository.TranscriptRecord
	completed   []repository.CompleteSessionInput
	transcripts []repository.InsertTranscriptInput
	summaries   []repository.SaveSummaryInput
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCount++
	return &repository.Session{
		ID:        fmt.Sprintf("session-%d", m.createCount),
		RoomID:    input.RoomID,
		StartedAt: input.StartedAt,
		Status:    repository.SessionStatusRunning,
	}, nil
}

func (m *mockRepository) UpdateSessionCompleted(_ context.Context, input repository.CompleteSessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, input)
	return nil
}

func (m *mockRepository) GetRunningSessionByRoom(_ context.Context, _ string) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.running
	m.running = nil
	return s, nil
}

func (m *mockRepository) InsertTranscript(_ context.Context, input repository.InsertTranscriptInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts = append(m.transcripts, input)
	return nil
}

func (m *mockRepository) ListTranscriptsBySessionID(_ context.Context, sessionID string) ([]repository.TranscriptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[sessionID], nil
}

func (m *mockRepository) savedSummaries() []repository.SaveSummaryInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.SaveSummaryInput(nil), m.summaries...)
}

func (m *mockRepository) SaveSummary(_ context.Context, input repository.SaveSummaryInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, input)
	return nil
}

func (m *mockRepository) completedInputs() []repository.CompleteSessionInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.CompleteSessionInput(nil), m.completed...)
}

// fakeAudioStream yields queued packets and ends once closed.
type fakeAudioStream struct {
	packets chan []byte
}

func newFakeAudioStream(n int) *fakeAudioStream {
	s := &fakeAudioStream{packets: make(chan []byte, n)}
	for i := 0; i < n; i++ {
		s.packets <- []byte{0x01}
	}
	return s
}

func (s *fakeAudioStream) ReadPacket() ([]byte, error) {
	p, ok := <-s.packets
	if !ok {
		return nil, io.EOF
	}
	return p, nil
}

func (s *fakeAudioStream) end() { close(s.packets) }

type constantDecoder struct {
	value int16
}

func (d constantDecoder) Decode(_ []byte) ([]int16, error) {
	pcm := make([]int16, audio.FrameSamples)
	for i := range pcm {
		pcm[i] = d.value
	}
	return pcm, nil
}

func constantDecoderFactory(value int16) audio.DecoderFactory {
	return func() (audio.Decoder, error) { return constantDecoder{value: value}, nil }
}

type fakeConnection struct {
	roomName     string
	done         chan struct{}
	once         sync.Once
	mu           sync.Mutex
	disconnected bool
}

func newFakeConnection(roomName string) *fakeConnection {
	return &fakeConnection{roomName: roomName, done: make(chan struct{})}
}

func (c *fakeConnection) RoomName() string      { return c.roomName }
func (c *fakeConnection) Done() <-chan struct{} { return c.done }

func (c *fakeConnection) Disconnect() {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
	c.drop()
}

// drop simulates the server closing the connection.
func (c *fakeConnection) drop() {
	c.once.Do(func() { close(c.done) })
}

func (c *fakeConnection) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

type fakeRoomClient struct {
	mu       sync.Mutex
	joinErr  error
	joins    []room.JoinOptions
	conns    map[string]*fakeConnection
	handlers map[string]room.EventHandler
}

func newFakeRoomClient() *fakeRoomClient {
	return &fakeRoomClient{
		conns:    make(map[string]*fakeConnection),
		handlers: make(map[string]room.EventHandler),
	}
}

func (c *fakeRoomClient) JoinRoom(_ context.Context, opts room.JoinOptions, handler room.EventHandler) (room.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joins = append(c.joins, opts)
	if c.joinErr != nil {
		return nil, c.joinErr
	}
	conn := newFakeConnection(opts.RoomName)
	c.conns[opts.RoomName] = conn
	c.handlers[opts.RoomName] = handler
	return conn, nil
}

func (c *fakeRoomClient) joinCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.joins)
}

func (c *fakeRoomClient) conn(roomName string) *fakeConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns[roomName]
}

func newTestConfig() *config.Config {
	return &config.Config{
		Env:                         "test",
		LiveKitAgentIdentity:        "session-agent",
		LiveKitSubscribeScreenShare: true,
		BackendTimeout:              time.Second,
		ModelTimeout:                2 * time.Second,
		TranscriptionTimeout:        time.Second,
		MaxToolCalls:                4,
		AudioChunkDuration:          20 * time.Millisecond,
		AudioMinChunkDuration:       20 * time.Millisecond,
		ParticipantQueueSize:        16,
		MaxConcurrentTranscriptions: 2,
		MaxTranscriptRecords:        100,
		SummaryFlushTimeout:         2 * time.Second,
		MaxSessionDurationMin:       60,
	}
}

func newTestMonitor(stt *stubTranscriber, model *stubModel, bc *mockBackend, repo repository.Repository) *Monitor {
	return NewMonitor(MonitorOptions{
		RoomID:               "room-1",
		SessionID:            "room-1",
		JournalSessionID:     "journal-1",
		QueueSize:            16,
		MaxRecords:           100,
		TranscriptionTimeout: time.Second,
		ModelTimeout:         2 * time.Second,
		MaxToolCalls:         4,
	}, stt, model, bc, repo, semaphore.NewWeighted(2))
}

func testChunk(participant string, capturedAt time.Time) audio.Chunk {
	return audio.Chunk{
		ID:          fmt.Sprintf("%s-%d", participant, capturedAt.UnixNano()),
		Participant: participant,
		CapturedAt:  capturedAt,
		SampleRate:  audio.SampleRate,
		Channels:    audio.Channels,
		PCM:         make([]int16, audio.FrameSamples),
	}
}

func drain(t *testing.T, m *Monitor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Drain(ctx); err != nil {
		t.Fatalf("monitor did not drain: %v", err)
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(message)
}

func semaphoreOf(n int64) *semaphore.Weighted {
	return semaphore.NewWeighted(n)
}
