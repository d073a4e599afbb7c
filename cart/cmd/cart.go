package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/controller"
	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/internal/syncer"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/session"
)

// Cart is the wired cart domain. Queue and Service are handed to the domains that log users in
// and out or finish checkout.
type Cart struct {
	Service *service.CartService
	Queue   *syncer.RedisQueue
	Worker  *syncer.Worker
}

// NewCart builds the pending-op queue, the sync worker and the cart service without attaching routes.
func NewCart(
	c context.Context,
	cache *redis.Client,
	store session.Store,
	client *backend.Client,
	registerer prometheus.Registerer,
	cfg config.Sync,
) Cart {
	c, span := otel.Tracer.Start(c, "NewCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CART_SERVICE).
		Str(constants.KEY_TAG, "cmd NewCart").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing cart sync queue").Logger()
	logger.Info().Msg("initializing cart sync queue")
	queue := syncer.NewRedisQueue(cache)
	logger.Info().Msg("initialized cart sync queue")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing cart sync worker").Logger()
	logger.Info().Msg("initializing cart sync worker")
	worker := syncer.NewWorker(queue, store, client, syncer.NewMetrics(registerer), cfg)
	logger.Info().Msg("initialized cart sync worker")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	cartService := service.NewCartService(store, queue, client)
	logger.Info().Msg("initialized cart service")

	return Cart{Service: cartService, Queue: queue, Worker: worker}
}

func (cart Cart) Attach(c context.Context, router *mux.Router) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CART_SERVICE).
		Str(constants.KEY_PROCESS, "initializing cart controller").
		Logger()
	logger.Info().Msg("initializing cart controller")
	controller.AttachCartController(router, cart.Service)
	logger.Info().Msg("initialized cart controller")
}
