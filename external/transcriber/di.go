package transcriber

import (
	"github.com/Houssemalou/lingua-hub/external/gemini"
	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.Transcriber == config.TranscriberCloudSpeech {
			return NewCloudSpeechTranscriber(CloudSpeechConfig{
				ProjectID:        c.GoogleCloudProjectID,
				CredentialsJSON:  c.GoogleCloudCredentialsJSON,
				Language:         c.DefaultTranscribeLanguage,
				Location:         c.GoogleCloudSpeechLocation,
				Model:            c.GoogleCloudSpeechModel,
				RetryUnavailable: c.GoogleCloudSpeechRetry,
			}), nil
		}
		return gemini.NewModelTranscriber(do.MustInvoke[assistant.Model](i)), nil
	})
}
