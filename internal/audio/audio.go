package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	SampleRate = 48000
	Channels   = 2
	// FrameSamples is the interleaved sample count of one 20ms Opus frame.
	FrameSamples = SampleRate * 20 * Channels / 1000

	WAVMIMEType = "audio/wav"
)

// Decoder turns one Opus packet into interleaved 16-bit PCM.
type Decoder interface {
	Decode(packet []byte) ([]int16, error)
}

type DecoderFactory func() (Decoder, error)

type Chunk struct {
	ID          string
	Participant string
	CapturedAt  time.Time
	SampleRate  int
	Channels    int
	PCM         []int16
}

func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.PCM) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// PCMBytes returns the samples as little-endian LINEAR16.
func (c Chunk) PCMBytes() []byte {
	b := make([]byte, len(c.PCM)*2)
	for i, s := range c.PCM {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// WAV wraps the samples in a canonical 44-byte RIFF header.
func (c Chunk) WAV() []byte {
	data := c.PCMBytes()
	const bitsPerSample = 16
	blockAlign := c.Channels * bitsPerSample / 8
	byteRate := c.SampleRate * blockAlign

	b := make([]byte, 44, 44+len(data))
	copy(b[0:], "RIFF")
	binary.LittleEndian.PutUint32(b[4:], uint32(36+len(data)))
	copy(b[8:], "WAVE")
	copy(b[12:], "fmt ")
	binary.LittleEndian.PutUint32(b[16:], 16)
	binary.LittleEndian.PutUint16(b[20:], 1)
	binary.LittleEndian.PutUint16(b[22:], uint16(c.Channels))
	binary.LittleEndian.PutUint32(b[24:], uint32(c.SampleRate))
	binary.LittleEndian.PutUint32(b[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(b[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(b[34:], bitsPerSample)
	copy(b[36:], "data")
	binary.LittleEndian.PutUint32(b[40:], uint32(len(data)))
	return append(b, data...)
}

func (c Chunk) RMS() float64 {
	if len(c.PCM) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.PCM {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(c.PCM)))
}
