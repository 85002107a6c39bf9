package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestChunkDuration(t *testing.T) {
	c := Chunk{SampleRate: SampleRate, Channels: Channels, PCM: make([]int16, SampleRate*Channels*2)}
	if got := c.Duration(); got != 2*time.Second {
		t.Fatalf("unexpected duration: %s", got)
	}
	if got := (Chunk{}).Duration(); got != 0 {
		t.Fatalf("expected zero duration for empty chunk, got %s", got)
	}
}

func TestChunkWAVHeader(t *testing.T) {
	c := Chunk{SampleRate: SampleRate, Channels: Channels, PCM: []int16{1, -1, 300, -300}}
	wav := c.WAV()
	if len(wav) != 44+8 {
		t.Fatalf("unexpected wav length: %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("unexpected wav markers: %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != SampleRate {
		t.Fatalf("unexpected sample rate: %d", got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:]); got != Channels {
		t.Fatalf("unexpected channels: %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != 8 {
		t.Fatalf("unexpected data length: %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(wav[44+2:])); got != -1 {
		t.Fatalf("unexpected second sample: %d", got)
	}
}

func TestChunkRMS(t *testing.T) {
	if got := (Chunk{PCM: []int16{3, -3, 3, -3}}).RMS(); got != 3 {
		t.Fatalf("unexpected rms: %v", got)
	}
	if got := (Chunk{}).RMS(); got != 0 {
		t.Fatalf("expected zero rms, got %v", got)
	}
}

func TestChunker_CutsAtChunkDuration(t *testing.T) {
	c := NewChunker("alice", ChunkerOptions{ChunkDuration: 100 * time.Millisecond, MinChunkDuration: 20 * time.Millisecond})
	frame := make([]int16, FrameSamples)

	var chunks []Chunk
	for i := 0; i < 12; i++ {
		if chunk, ok := c.Write(frame); ok {
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) != 2 {
		t.Fatalf("expected two chunks from 240ms of audio, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if chunk.Participant != "alice" || chunk.ID == "" {
			t.Fatalf("unexpected chunk identity: %+v", chunk.Participant)
		}
		if chunk.Duration() != 100*time.Millisecond {
			t.Fatalf("unexpected chunk duration: %s", chunk.Duration())
		}
		if chunk.CapturedAt.IsZero() {
			t.Fatal("expected capture time")
		}
	}
	if chunks[0].ID == chunks[1].ID {
		t.Fatal("expected unique chunk ids")
	}

	rest, ok := c.Flush()
	if !ok {
		t.Fatal("expected remainder of 40ms to be flushed")
	}
	if rest.Duration() != 40*time.Millisecond {
		t.Fatalf("unexpected remainder duration: %s", rest.Duration())
	}
}

func TestChunker_FlushDropsShortRemainder(t *testing.T) {
	c := NewChunker("alice", ChunkerOptions{ChunkDuration: time.Second, MinChunkDuration: 500 * time.Millisecond})
	c.Write(make([]int16, FrameSamples))
	if _, ok := c.Flush(); ok {
		t.Fatal("expected short remainder to be dropped")
	}
	if _, ok := c.Flush(); ok {
		t.Fatal("expected empty chunker to flush nothing")
	}
}

func TestChunker_CaptureTimeIsFirstFrame(t *testing.T) {
	c := NewChunker("alice", ChunkerOptions{ChunkDuration: 40 * time.Millisecond, MinChunkDuration: 20 * time.Millisecond})
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	c.Write(make([]int16, FrameSamples))
	chunk, ok := c.Write(make([]int16, FrameSamples))
	if !ok {
		t.Fatal("expected chunk after 40ms")
	}
	if !chunk.CapturedAt.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected capture time: %s", chunk.CapturedAt)
	}
}
