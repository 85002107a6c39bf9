//go:build opus

package audio

import (
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/hraban/opus"
)

// maxFrameSamples fits the longest Opus frame (120ms) at 48kHz stereo.
const maxFrameSamples = audio.SampleRate * 120 / 1000 * audio.Channels

type OpusDecoder struct {
	dec *opus.Decoder
	pcm []int16
}

func NewOpusDecoder() (audio.Decoder, error) {
	dec, err := opus.NewDecoder(audio.SampleRate, audio.Channels)
	if err != nil {
		return nil, err
	}
	return &OpusDecoder{dec: dec, pcm: make([]int16, maxFrameSamples)}, nil
}

func (d *OpusDecoder) Decode(packet []byte) ([]int16, error) {
	if len(packet) == 0 {
		return nil, nil
	}
	n, err := d.dec.Decode(packet, d.pcm)
	if err != nil {
		return nil, err
	}
	frame := make([]int16, n*audio.Channels)
	copy(frame, d.pcm[:n*audio.Channels])
	return frame, nil
}
