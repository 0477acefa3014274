package core

import (
	"github.com/iota-uz/docflow/modules/core/infrastructure/persistence"
	"github.com/iota-uz/docflow/modules/core/presentation/controllers"
	"github.com/iota-uz/docflow/modules/core/services"
	"github.com/iota-uz/docflow/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "core"
}

func (m *Module) Register(app application.Application) error {
	userRepo := persistence.NewUserRepository()
	userService := services.NewUserService(userRepo, app.EventPublisher())
	app.RegisterServices(
		userService,
		services.NewAuthService(userService),
	)
	app.RegisterControllers(
		controllers.NewAuthController(app),
		controllers.NewUserController(app),
		controllers.NewHealthController(app),
	)
	return nil
}
