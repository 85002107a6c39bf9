package session

import (
	"github.com/Houssemalou/lingua-hub/internal/assistant"
	"github.com/Houssemalou/lingua-hub/internal/audio"
	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/repository"
	"github.com/Houssemalou/lingua-hub/internal/room"
	"github.com/Houssemalou/lingua-hub/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		rooms := do.MustInvoke[room.Client](i)
		bc := do.MustInvoke[backend.Client](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		model := do.MustInvoke[assistant.Model](i)
		newDecoder := do.MustInvoke[audio.DecoderFactory](i)
		return NewManager(cfg, repo, rooms, bc, stt, model, newDecoder), nil
	})
}
