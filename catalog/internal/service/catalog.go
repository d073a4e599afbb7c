package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/catalog/internal/otel"
	"github.com/Alturino/storefront/catalog/pkg/response"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type Backend interface {
	Products(c context.Context, q backend.ProductQuery) ([]backend.Product, error)
	Product(c context.Context, id string) (backend.Product, error)
	Categories(c context.Context) ([]backend.Category, error)
	Services(c context.Context) ([]backend.Service, error)
	Service(c context.Context, id string) (backend.Service, error)
	Locations(c context.Context) ([]backend.Location, error)
	ActiveBanners(c context.Context) ([]backend.Banner, error)
}

type CatalogService struct {
	backend Backend
	cache   *redis.Client
	store   session.Store
	ttl     time.Duration
}

// NewCatalogService wires the catalog. A nil cache disables caching of public lists.
func NewCatalogService(
	backend Backend,
	cache *redis.Client,
	store session.Store,
	ttl time.Duration,
) *CatalogService {
	return &CatalogService{backend: backend, cache: cache, store: store, ttl: ttl}
}

func (svc *CatalogService) Categories(c context.Context) ([]response.Category, error) {
	c, span := otel.Tracer.Start(c, "CatalogService Categories")
	defer span.End()

	categories, err := cache.GetOrFetch(c, svc.cache, constants.CACHE_KEY_CATEGORIES, svc.ttl, svc.backend.Categories)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	return response.FromCategories(categories), nil
}

func (svc *CatalogService) Services(c context.Context) ([]response.Service, error) {
	c, span := otel.Tracer.Start(c, "CatalogService Services")
	defer span.End()

	services, err := cache.GetOrFetch(c, svc.cache, constants.CACHE_KEY_SERVICES, svc.ttl, svc.backend.Services)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	return response.FromServices(services), nil
}

func (svc *CatalogService) Locations(c context.Context) ([]backend.Location, error) {
	c, span := otel.Tracer.Start(c, "CatalogService Locations")
	defer span.End()

	locations, err := cache.GetOrFetch(c, svc.cache, constants.CACHE_KEY_LOCATIONS, svc.ttl, svc.backend.Locations)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	return locations, nil
}

func (svc *CatalogService) Banners(c context.Context) ([]backend.Banner, error) {
	c, span := otel.Tracer.Start(c, "CatalogService Banners")
	defer span.End()

	banners, err := cache.GetOrFetch(
		c,
		svc.cache,
		constants.CACHE_KEY_ACTIVE_BANNERS,
		svc.ttl,
		svc.backend.ActiveBanners,
	)
	if err != nil {
		inOtel.RecordError(err, span)
		return nil, err
	}
	return banners, nil
}

// Home loads the landing page lists concurrently. Any failing list fails the page; the remaining
// calls are cancelled through the group context.
func (svc *CatalogService) Home(c context.Context) (response.Home, error) {
	c, span := otel.Tracer.Start(c, "CatalogService Home")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CatalogService Home").
		Str(constants.KEY_PROCESS, "loading home page").
		Logger()

	home := response.Home{}
	logger.Debug().Msg("loading home page")
	g, gc := errgroup.WithContext(c)
	g.Go(func() (err error) {
		home.Categories, err = svc.Categories(gc)
		return err
	})
	g.Go(func() (err error) {
		home.Services, err = svc.Services(gc)
		return err
	})
	g.Go(func() (err error) {
		home.Products, err = svc.backend.Products(gc, backend.ProductQuery{})
		return err
	})
	g.Go(func() (err error) {
		home.Banners, err = svc.Banners(gc)
		return err
	})
	if err := g.Wait(); err != nil {
		err = fmt.Errorf("failed loading home page with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Home{}, err
	}
	logger.Info().
		Int("categories", len(home.Categories)).
		Int("services", len(home.Services)).
		Int(constants.KEY_PRODUCTS, len(home.Products)).
		Int("banners", len(home.Banners)).
		Msg("loaded home page")

	return home, nil
}

// Search lists products and records the query and results on the session.
func (svc *CatalogService) Search(
	c context.Context,
	sessionID string,
	q backend.ProductQuery,
) (response.Search, error) {
	c, span := otel.Tracer.Start(
		c,
		"CatalogService Search",
		trace.WithAttributes(attribute.String(constants.KEY_SEARCH_QUERY, q.Search)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CatalogService Search").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_SEARCH_QUERY, q.Search).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding products").Logger()
	logger.Debug().Msg("finding products")
	products, err := svc.backend.Products(c, q)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Search{}, err
	}
	logger.Debug().Int(constants.KEY_PRODUCTS, len(products)).Msg("found products")

	logger = logger.With().Str(constants.KEY_PROCESS, "recording search").Logger()
	_, err = svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.SetSearchQuery{Query: q.Search}, state.SetProducts{Products: products})
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed recording search on session")
	}

	return response.Search{Query: q.Search, Products: products, Count: len(products)}, nil
}

func (svc *CatalogService) Product(c context.Context, id string) (backend.Product, error) {
	c, span := otel.Tracer.Start(
		c,
		"CatalogService Product",
		trace.WithAttributes(attribute.String(constants.KEY_PRODUCT_ID, id)),
	)
	defer span.End()

	product, err := svc.backend.Product(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding product=%s with error=%w", id, err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(constants.KEY_PRODUCT_ID, id).Msg(err.Error())
		return backend.Product{}, err
	}
	return product, nil
}

func (svc *CatalogService) Service(c context.Context, id string) (response.Service, error) {
	c, span := otel.Tracer.Start(
		c,
		"CatalogService Service",
		trace.WithAttributes(attribute.String(constants.KEY_SERVICE_ID, id)),
	)
	defer span.End()

	service, err := svc.backend.Service(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding service=%s with error=%w", id, err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(constants.KEY_SERVICE_ID, id).Msg(err.Error())
		return response.Service{}, err
	}
	return response.FromService(service), nil
}
