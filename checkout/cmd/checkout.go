package cmd

import (
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/checkout/internal/controller"
	"github.com/Alturino/storefront/checkout/internal/service"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/session"
)

func AttachCheckout(
	c context.Context,
	router *mux.Router,
	store session.Store,
	client *backend.Client,
	cart service.CartClearer,
	cfg config.Payment,
	loc *time.Location,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CHECKOUT_SERVICE).
		Str(constants.KEY_TAG, "cmd AttachCheckout").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing checkout service").Logger()
	logger.Info().Msg("initializing checkout service")
	checkoutService := service.NewCheckoutService(client, store, cart, cfg, loc)
	logger.Info().Msg("initialized checkout service")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing checkout controller").Logger()
	logger.Info().Msg("initializing checkout controller")
	controller.AttachCheckoutController(router, checkoutService)
	logger.Info().Msg("initialized checkout controller")
}
