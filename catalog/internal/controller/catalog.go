package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/catalog/internal/otel"
	"github.com/Alturino/storefront/catalog/internal/service"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type CatalogController struct {
	service *service.CatalogService
}

func AttachCatalogController(router *mux.Router, service *service.CatalogService) {
	controller := CatalogController{service: service}

	router.HandleFunc("/home", controller.Home).Methods(http.MethodGet)
	router.HandleFunc("/products", controller.Products).Methods(http.MethodGet)
	router.HandleFunc("/products/{productId}", controller.Product).Methods(http.MethodGet)
	router.HandleFunc("/services", controller.Services).Methods(http.MethodGet)
	router.HandleFunc("/services/{serviceId}", controller.Service).Methods(http.MethodGet)
	router.HandleFunc("/categories", controller.Categories).Methods(http.MethodGet)
	router.HandleFunc("/locations", controller.Locations).Methods(http.MethodGet)
}

func (ctrl CatalogController) Home(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Home")
	defer span.End()

	home, err := ctrl.service.Home(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "home loaded", map[string]interface{}{"home": home})
}

func (ctrl CatalogController) Products(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Products")
	defer span.End()

	query := backend.ProductQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Location: r.URL.Query().Get("location"),
	}
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CatalogController Products").
		Str(constants.KEY_SEARCH_QUERY, query.Search).
		Str(constants.KEY_PROCESS, "searching products").
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	logger.Debug().Msg("searching products")
	result, err := ctrl.service.Search(logger.WithContext(c), sess.ID, query)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	logger.Info().Int(constants.KEY_PRODUCTS, result.Count).Msg("searched products")

	inHttp.WriteSuccess(c, w, http.StatusOK, "products found", map[string]interface{}{"search": result})
}

func (ctrl CatalogController) Product(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Product")
	defer span.End()

	product, err := ctrl.service.Product(c, mux.Vars(r)["productId"])
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "product found", map[string]interface{}{"product": product})
}

func (ctrl CatalogController) Services(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Services")
	defer span.End()

	services, err := ctrl.service.Services(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "services found", map[string]interface{}{"services": services})
}

func (ctrl CatalogController) Service(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Service")
	defer span.End()

	service, err := ctrl.service.Service(c, mux.Vars(r)["serviceId"])
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "service found", map[string]interface{}{"service": service})
}

func (ctrl CatalogController) Categories(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Categories")
	defer span.End()

	categories, err := ctrl.service.Categories(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "categories found", map[string]interface{}{"categories": categories})
}

func (ctrl CatalogController) Locations(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Locations")
	defer span.End()

	locations, err := ctrl.service.Locations(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "locations found", map[string]interface{}{"locations": locations})
}
