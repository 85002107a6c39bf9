package backend

import (
	"github.com/Houssemalou/lingua-hub/internal/backend"
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (backend.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPClient(c.BackendURL, c.BackendTimeout), nil
	})
}
