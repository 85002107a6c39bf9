package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/audio"
	"golang.org/x/sync/semaphore"
)

const laneIdlePollInterval = 20 * time.Millisecond

// transcriptionQueue keeps one FIFO lane per participant. Chunks within a lane
// are transcribed in order; the shared semaphore caps parallelism across every
// lane of every session.
type transcriptionQueue struct {
	lanes     map[string]chan audio.Chunk
	size      int
	semaphore *semaphore.Weighted
	process   func(ctx context.Context, chunk audio.Chunk)
	pending   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func newTranscriptionQueue(size int, sem *semaphore.Weighted, process func(context.Context, audio.Chunk)) *transcriptionQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &transcriptionQueue{
		lanes:     make(map[string]chan audio.Chunk),
		size:      size,
		semaphore: sem,
		process:   process,
		ctx:       ctx,
		cancel:    cancel,
	}
}

var errQueueClosed = errors.New("transcription queue closed")

// enqueue never blocks. A full lane rejects the chunk.
func (q *transcriptionQueue) enqueue(chunk audio.Chunk) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errQueueClosed
	}

	lane, exists := q.lanes[chunk.Participant]
	if !exists {
		lane = make(chan audio.Chunk, q.size)
		q.lanes[chunk.Participant] = lane
		q.wg.Add(1)
		go q.processLane(chunk.Participant, lane)
	}

	q.pending.Add(1)
	select {
	case lane <- chunk:
		return nil
	default:
		q.pending.Add(-1)
		return fmt.Errorf("transcription lane full for participant %s", chunk.Participant)
	}
}

func (q *transcriptionQueue) processLane(participant string, lane chan audio.Chunk) {
	defer q.wg.Done()
	for {
		select {
		case chunk, ok := <-lane:
			if !ok {
				return
			}
			q.runOne(participant, chunk)
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *transcriptionQueue) runOne(participant string, chunk audio.Chunk) {
	defer q.pending.Add(-1)
	if err := q.semaphore.Acquire(q.ctx, 1); err != nil {
		return
	}
	defer q.semaphore.Release(1)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("transcription worker panicked", "participant", participant, "chunk_id", chunk.ID, "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	q.process(q.ctx, chunk)
}

// waitIdle returns once nothing is queued or running, or ctx is done.
func (q *transcriptionQueue) waitIdle(ctx context.Context) error {
	for {
		if q.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(laneIdlePollInterval):
		}
	}
}

// stop cancels in-flight work, closes every lane and waits for the workers.
func (q *transcriptionQueue) stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cancel()
	for _, lane := range q.lanes {
		close(lane)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
