package livekit

import (
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/room"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (room.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(ClientConfig{
			URL:       c.LiveKitURL,
			APIKey:    c.LiveKitAPIKey,
			APISecret: c.LiveKitAPISecret,
		}), nil
	})
}
