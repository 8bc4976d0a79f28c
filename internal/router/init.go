package router

import (
	userapp "github.com/kunalverma25/users-api/internal/application"
	"github.com/kunalverma25/users-api/internal/container"
	repouser "github.com/kunalverma25/users-api/internal/domain/repository"
	pginfra "github.com/kunalverma25/users-api/internal/infrastructure/postgres"
	handlers "github.com/kunalverma25/users-api/internal/interface/http"
	"github.com/kunalverma25/users-api/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *userapp.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := userapp.NewService(
		repo,
		container.GetLogger(),
		container.GetGCS(),
		container.GetConfig().GCSBucket,
		container.GetRabbitPub(),
		container.GetES(),
		container.GetConfig().ESUsersIndex,
	)

	handler := handlers.NewUserHandler(service, container.GetLogger())

	return UserModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	userDeps := buildUserDeps()
	r.Add(modules.New(userDeps.Handler))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
