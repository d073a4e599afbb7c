package cmd

import (
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/catalog/internal/controller"
	"github.com/Alturino/storefront/catalog/internal/service"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/session"
)

func AttachCatalog(
	c context.Context,
	router *mux.Router,
	cache *redis.Client,
	store session.Store,
	client *backend.Client,
	ttl time.Duration,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CATALOG_SERVICE).
		Str(constants.KEY_TAG, "cmd AttachCatalog").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing catalog service").Logger()
	logger.Info().Msg("initializing catalog service")
	catalogService := service.NewCatalogService(client, cache, store, ttl)
	logger.Info().Msg("initialized catalog service")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing catalog controller").Logger()
	logger.Info().Msg("initializing catalog controller")
	controller.AttachCatalogController(router, catalogService)
	logger.Info().Msg("initialized catalog controller")
}
