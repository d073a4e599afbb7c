package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/booking/internal/controller"
	"github.com/Alturino/storefront/booking/internal/service"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/session"
)

func AttachBooking(c context.Context, router *mux.Router, store session.Store, client *backend.Client) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_BOOKING_SERVICE).
		Str(constants.KEY_TAG, "cmd AttachBooking").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing booking service").Logger()
	logger.Info().Msg("initializing booking service")
	bookingService := service.NewBookingService(client, store)
	logger.Info().Msg("initialized booking service")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing booking controller").Logger()
	logger.Info().Msg("initializing booking controller")
	controller.AttachBookingController(router, bookingService)
	logger.Info().Msg("initialized booking controller")
}
