package approval

import (
	"github.com/iota-uz/docflow/modules/approval/handlers"
	"github.com/iota-uz/docflow/modules/approval/infrastructure/persistence"
	"github.com/iota-uz/docflow/modules/approval/presentation/controllers"
	"github.com/iota-uz/docflow/modules/approval/services"
	corepersistence "github.com/iota-uz/docflow/modules/core/infrastructure/persistence"
	"github.com/iota-uz/docflow/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "approval"
}

func (m *Module) Register(app application.Application) error {
	requestRepo := persistence.NewRequestRepository()
	commentRepo := persistence.NewCommentRepository()
	directory := services.NewUserDirectory(corepersistence.NewUserRepository())

	app.RegisterServices(
		services.NewRequestService(requestRepo, commentRepo, directory),
		services.NewWorkflowService(requestRepo, directory, app.EventPublisher()),
	)
	app.RegisterControllers(
		controllers.NewRequestController(app),
		controllers.NewWorkflowController(app),
	)
	handlers.RegisterNotificationHandler(app.EventPublisher(), app.Logger())
	return nil
}
