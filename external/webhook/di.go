package webhook

import (
	"github.com/Houssemalou/lingua-hub/internal/config"
	"github.com/Houssemalou/lingua-hub/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Receiver, error) {
		c := do.MustInvoke[*config.Config](i)
		m := do.MustInvoke[*session.Manager](i)
		return NewReceiver(c.LiveKitAPIKey, c.LiveKitAPISecret, m.HandleLifecycleEvent), nil
	})
}
