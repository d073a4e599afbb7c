package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/admin/internal/controller"
	"github.com/Alturino/storefront/admin/internal/service"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/session"
)

func AttachAdmin(
	c context.Context,
	router *mux.Router,
	cache *redis.Client,
	store session.Store,
	client *backend.Client,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_ADMIN_SERVICE).
		Str(constants.KEY_TAG, "cmd AttachAdmin").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing admin service").Logger()
	logger.Info().Msg("initializing admin service")
	adminService := service.NewAdminService(client, store, cache)
	logger.Info().Msg("initialized admin service")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing admin controller").Logger()
	logger.Info().Msg("initializing admin controller")
	controller.AttachAdminController(router, adminService)
	logger.Info().Msg("initialized admin controller")
}
