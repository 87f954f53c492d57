//go:build wireinject
// +build wireinject

package main

import (
	"github.com/civicreport/civicreport-api/internal/config"
	"github.com/civicreport/civicreport-api/internal/handler"
	"github.com/civicreport/civicreport-api/internal/repository"
	"github.com/civicreport/civicreport-api/internal/router"
	"github.com/civicreport/civicreport-api/internal/service"
	"github.com/civicreport/civicreport-api/pkg/email"
	"github.com/civicreport/civicreport-api/pkg/utils"
	"github.com/google/wire"
)

func InitializeApplication(cfg *config.Config) (*Application, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideLogger,
		ProvideDatabase,
		ProvideStorage,
		ProvideDenylist,
		ProvideEmailService,
		ProvideTokenManager,
		ProvideQRService,
		ProvideMetrics,
		wire.Bind(new(service.Notifier), new(*email.EmailService)),

		// Repositories
		repository.NewUserRepository,
		repository.NewIssueRepository,
		repository.NewCommentRepository,
		repository.NewLikeRepository,

		// Validator
		utils.NewValidator,

		// Services
		service.NewDispatcher,
		ProvideAuthService,
		service.NewUserService,
		service.NewIssueService,
		service.NewCommentService,
		service.NewLikeService,

		// Handlers
		ProvideCookieJar,
		handler.NewAuthHandler,
		handler.NewUserHandler,
		handler.NewIssueHandler,
		handler.NewCommentHandler,
		handler.NewLikeHandler,
		handler.NewHealthHandler,
		wire.Struct(new(router.Handlers), "*"),

		// App
		ProvideAuthenticator,
		router.New,
		NewApplication,
	)
	return nil, nil, nil
}
