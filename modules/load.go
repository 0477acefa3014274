package modules

import (
	"github.com/iota-uz/docflow/modules/approval"
	"github.com/iota-uz/docflow/modules/core"
	"github.com/iota-uz/docflow/pkg/application"
)

var BuiltInModules = []application.Module{
	core.NewModule(),
	approval.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
