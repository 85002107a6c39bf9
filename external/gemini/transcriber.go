package gemini

import (
	"context"
	"strings"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
)

const transcribePrompt = "Transcribe this audio to text. Reply with the transcript only, in the language spoken. " +
	"Reply with an empty message if there is no intelligible speech."

// ModelTranscriber sends each chunk as inline WAV to a generative model.
type ModelTranscriber struct {
	model assistant.Model
}

func NewModelTranscriber(model assistant.Model) transcriber.Transcriber {
	return &ModelTranscriber{model: model}
}

func (t *ModelTranscriber) Transcribe(ctx context.Context, chunk audio.Chunk) (string, error) {
	resp, err := t.model.Generate(ctx, assistant.Request{
		Messages: []assistant.Message{{
			Role:  assistant.RoleUser,
			Text:  transcribePrompt,
			Audio: &assistant.Blob{MIMEType: audio.WAVMIMEType, Data: chunk.WAV()},
		}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// Close is a no-op; the model client is shared with the summariser.
func (t *ModelTranscriber) Close() error {
	return nil
}
