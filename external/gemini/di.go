package gemini

import (
	"context"
	"time"

	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/samber/do/v2"
)

const clientInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (assistant.Model, error) {
		c := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), clientInitTimeout)
		defer cancel()
		return NewModel(ctx, ClientConfig{
			APIKey:          c.GeminiAPIKey,
			Model:           c.GeminiModel,
			UseVertex:       c.GeminiUseVertex,
			ProjectID:       c.GoogleCloudProjectID,
			Location:        c.GoogleCloudLocation,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
		})
	})
}
