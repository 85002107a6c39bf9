package audio

import (
	"time"

	"github.com/google/uuid"
)

type ChunkerOptions struct {
	ChunkDuration    time.Duration
	MinChunkDuration time.Duration
}

// Chunker accumulates decoded frames for one participant and cuts them into
// fixed-length chunks.
type Chunker struct {
	participant string
	maxSamples  int
	minSamples  int
	now         func() time.Time

	buf     []int16
	started time.Time
}

func NewChunker(participant string, opts ChunkerOptions) *Chunker {
	return &Chunker{
		participant: participant,
		maxSamples:  samplesFor(opts.ChunkDuration),
		minSamples:  samplesFor(opts.MinChunkDuration),
		now:         time.Now,
	}
}

func samplesFor(d time.Duration) int {
	return int(d * SampleRate / time.Second * Channels)
}

// Write appends a PCM frame and returns a chunk when the configured duration
// has been reached.
func (c *Chunker) Write(frame []int16) (Chunk, bool) {
	if len(frame) == 0 {
		return Chunk{}, false
	}
	if len(c.buf) == 0 {
		c.started = c.now()
	}
	c.buf = append(c.buf, frame...)
	if len(c.buf) < c.maxSamples {
		return Chunk{}, false
	}
	return c.cut(), true
}

// Flush returns the buffered remainder if it is long enough to be useful.
func (c *Chunker) Flush() (Chunk, bool) {
	if len(c.buf) == 0 || len(c.buf) < c.minSamples {
		c.buf = nil
		return Chunk{}, false
	}
	return c.cut(), true
}

func (c *Chunker) cut() Chunk {
	chunk := Chunk{
		ID:          uuid.NewString(),
		Participant: c.participant,
		CapturedAt:  c.started,
		SampleRate:  SampleRate,
		Channels:    Channels,
		PCM:         c.buf,
	}
	c.buf = make([]int16, 0, c.maxSamples)
	return chunk
}
