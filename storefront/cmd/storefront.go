package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	adminCmd "github.com/Alturino/storefront/admin/cmd"
	bookingCmd "github.com/Alturino/storefront/booking/cmd"
	cartCmd "github.com/Alturino/storefront/cart/cmd"
	catalogCmd "github.com/Alturino/storefront/catalog/cmd"
	checkoutCmd "github.com/Alturino/storefront/checkout/cmd"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	userCmd "github.com/Alturino/storefront/user/cmd"
)

// app holds the shared clients every domain is built from.
type app struct {
	cache    *redis.Client
	store    session.Store
	client   *backend.Client
	registry *prometheus.Registry
	cart     cartCmd.Cart
}

func newApp(c context.Context, cfg *config.Config) (app, error) {
	logger := zerolog.Ctx(c).With().Str(constants.KEY_TAG, "cmd newApp").Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	cache, err := infra.NewCacheClient(logger.WithContext(c), cfg.Cache)
	if err != nil {
		return app{}, fmt.Errorf("failed initializing cache with error=%w", err)
	}
	logger.Info().Msg("initialized cache")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := session.NewRedisStore(cache, cfg.Application.SessionTTL)
	client := backend.NewClient(cfg.Backend)
	cart := cartCmd.NewCart(logger.WithContext(c), cache, store, client, registry, cfg.Sync)

	return app{cache: cache, store: store, client: client, registry: registry, cart: cart}, nil
}

func (a app) close(c context.Context) {
	logger := zerolog.Ctx(c).With().Str(constants.KEY_PROCESS, "shutting down cache").Logger()
	logger.Info().Msg("shutting down cache")
	if err := a.cache.Close(); err != nil {
		err = fmt.Errorf("failed shutting down cache with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown cache")
}

func location(c context.Context, name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		zerolog.Ctx(c).Warn().Err(err).Str("timezone", name).Msg("failed loading timezone, using UTC")
		return time.UTC
	}
	return loc
}

func (a app) router(c context.Context, cfg *config.Config) *mux.Router {
	logger := zerolog.Ctx(c).With().Str(constants.KEY_PROCESS, "initializing router").Logger()
	logger.Info().Msg("initializing router")

	root := mux.NewRouter()
	root.Use(otelmux.Middleware(constants.APP_STOREFRONT), middleware.Logging, middleware.RecoverPanic)
	root.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	root.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)

	router := root.PathPrefix("/").Subrouter()
	router.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware, middleware.Sessions(a.store, cfg.Application))
	c = logger.WithContext(c)

	a.cart.Attach(c, router)
	catalogCmd.AttachCatalog(c, router, a.cache, a.store, a.client, cfg.Cache.CatalogTTL)
	userCmd.AttachUser(c, router, a.store, a.client, a.cart.Queue, cfg.Application)
	checkoutCmd.AttachCheckout(
		c,
		router,
		a.store,
		a.client,
		a.cart.Service,
		cfg.Payment,
		location(c, cfg.Application.TimeZone),
	)
	bookingCmd.AttachBooking(c, router, a.store, a.client)
	adminCmd.AttachAdmin(c, router, a.cache, a.store, a.client)

	logger.Info().Msg("initialized router")
	return root
}

func (a app) healthz(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "healthz")
	defer span.End()

	if err := a.cache.Ping(c).Err(); err != nil {
		err = fmt.Errorf("failed pinging cache with error=%w", err)
		otel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusServiceUnavailable, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "ok", nil)
}

// RunStorefront serves the storefront and runs the cart sync worker until c is cancelled.
func RunStorefront(c context.Context, cfg *config.Config) {
	c, span := otel.Tracer.Start(c, "RunStorefront")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_STOREFRONT).
		Str(constants.KEY_TAG, "cmd RunStorefront").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_STOREFRONT, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		// c is already cancelled here, so shutdown gets its own deadline.
		sc, cancel := context.WithTimeout(context.WithoutCancel(c), 10*time.Second)
		defer cancel()
		if err := otel.ShutdownOtel(sc, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	a, err := newApp(c, cfg)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer a.close(c)

	handler := a.router(c, cfg)

	logger = logger.With().Str(constants.KEY_PROCESS, "starting cart sync worker").Logger()
	wg := sync.WaitGroup{}
	wg.Add(1)
	go a.cart.Worker.Start(c, &wg)

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      handler,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(constants.KEY_PROCESS, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown server")
	}()

	<-c.Done()
	logger = logger.With().Str(constants.KEY_PROCESS, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	sc, cancel := context.WithTimeout(context.WithoutCancel(c), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(sc); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("shutdown http server")

	logger = logger.With().Str(constants.KEY_PROCESS, "stopping cart sync worker").Logger()
	wg.Wait()
	logger.Info().Msg("stopped cart sync worker")
}

// Reconcile runs a single pass of the cart sync worker and exits.
func Reconcile(c context.Context, cfg *config.Config) error {
	c, span := otel.Tracer.Start(c, "Reconcile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CART_SYNC_WORKER).
		Str(constants.KEY_TAG, "cmd Reconcile").
		Logger()

	a, err := newApp(logger.WithContext(c), cfg)
	if err != nil {
		otel.RecordError(err, span)
		return err
	}
	defer a.close(c)

	logger = logger.With().Str(constants.KEY_PROCESS, "reconciling carts").Logger()
	logger.Info().Msg("reconciling carts")
	if err := a.cart.Worker.RunOnce(logger.WithContext(c)); err != nil {
		err = fmt.Errorf("failed reconciling carts with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("reconciled carts")
	return nil
}
