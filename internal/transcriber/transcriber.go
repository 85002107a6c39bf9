package transcriber

import (
	"context"

	"github.com/Houssemalou/lingua-hub/internal/audio"
)

// Transcriber converts one audio chunk to text. An empty result means no
// speech was recognised.
type Transcriber interface {
	Transcribe(ctx context.Context, chunk audio.Chunk) (string, error)
	Close() error
}
