//go:build !opus

package audio

import "github.com/Houssemalou/lingua-hub/internal/audio"

type noopDecoder struct{}

// NewOpusDecoder returns a decoder that yields no samples; build with the
// opus tag to link libopus.
func NewOpusDecoder() (audio.Decoder, error) {
	return &noopDecoder{}, nil
}

func (d *noopDecoder) Decode(_ []byte) ([]int16, error) {
	return nil, nil
}
