package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(router *mux.Router, service *service.CartService) {
	controller := CartController{service: service}

	cart := router.PathPrefix("/cart").Subrouter()
	cart.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	cart.HandleFunc("", controller.ClearCart).Methods(http.MethodDelete)
	cart.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	cart.HandleFunc("/items/{itemId}", controller.UpdateQuantity).Methods(http.MethodPatch)
	cart.HandleFunc("/items/{itemId}", controller.RemoveItem).Methods(http.MethodDelete)
	cart.HandleFunc("/sync/retry", controller.RetrySync).Methods(http.MethodPost)

	wishlist := router.PathPrefix("/wishlist").Subrouter()
	wishlist.HandleFunc("", controller.GetWishlist).Methods(http.MethodGet)
	wishlist.HandleFunc("", controller.AddToWishlist).Methods(http.MethodPost)
	wishlist.HandleFunc("/{itemId}", controller.RemoveFromWishlist).Methods(http.MethodDelete)
	wishlist.HandleFunc("/{itemId}/move", controller.MoveToCart).Methods(http.MethodPost)
}

func fail(w http.ResponseWriter, r *http.Request, span trace.Span, status int, err error) {
	inOtel.RecordError(err, span)
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(err.Error())
	inHttp.WriteFailure(r.Context(), w, status, err)
}

func cartData(s state.State) map[string]interface{} {
	return map[string]interface{}{"cart": response.FromState(s)}
}

func wishlistData(s state.State) map[string]interface{} {
	return map[string]interface{}{"wishlist": response.WishlistFromState(s)}
}

func (ctrl CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "cart found", cartData(sess.State))
}

func (ctrl CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartController AddItem").
		Str(constants.KEY_PROCESS, "decoding request body").
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	logger.Debug().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		fail(w, r, span, http.StatusBadRequest, err)
		return
	}
	logger.Debug().Msg("decoded request body")

	logger = logger.With().
		Str(constants.KEY_PROCESS, "adding item").
		Str(constants.KEY_CART_ITEM_ID, reqBody.ID).
		Logger()
	c = logger.WithContext(c)
	st, err := ctrl.service.AddItem(c, sess.ID, reqBody)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, fmt.Errorf("failed adding item with error=%w", err))
		return
	}
	logger.Info().Msg("added item")

	inHttp.WriteSuccess(c, w, http.StatusOK, "added to cart", cartData(st))
}

func (ctrl CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	pathValues := mux.Vars(r)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartController UpdateQuantity").
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	reqBody := request.UpdateQuantity{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		fail(w, r, span, http.StatusBadRequest, err)
		return
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "updating quantity").Logger()
	c = logger.WithContext(c)
	st, err := ctrl.service.UpdateQuantity(c, sess.ID, pathValues["itemId"], *reqBody.Quantity)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	logger.Info().Msg("updated quantity")

	inHttp.WriteSuccess(c, w, http.StatusOK, "cart updated", cartData(st))
}

func (ctrl CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	st, err := ctrl.service.RemoveItem(c, sess.ID, mux.Vars(r)["itemId"])
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "removed from cart", cartData(st))
}

func (ctrl CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	st, err := ctrl.service.Clear(c, sess.ID)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "cart cleared", cartData(st))
}

func (ctrl CartController) RetrySync(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RetrySync")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartController RetrySync").
		Str(constants.KEY_PROCESS, "retrying cart sync").
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	logger.Info().Msg("retrying cart sync")
	st, err := ctrl.service.RetrySync(logger.WithContext(c), sess.ID)
	if err != nil {
		fail(w, r, span, http.StatusBadGateway, err)
		return
	}
	logger.Info().Msg("retried cart sync")

	inHttp.WriteSuccess(c, w, http.StatusOK, "cart reloaded from server", cartData(st))
}

func (ctrl CartController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetWishlist")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "wishlist found", wishlistData(sess.State))
}

func (ctrl CartController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddToWishlist")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	reqBody := request.AddWishlistItem{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		fail(w, r, span, http.StatusBadRequest, err)
		return
	}

	st, err := ctrl.service.AddToWishlist(c, sess.ID, reqBody)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "added to wishlist", wishlistData(st))
}

func (ctrl CartController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveFromWishlist")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	st, err := ctrl.service.RemoveFromWishlist(c, sess.ID, mux.Vars(r)["itemId"])
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "removed from wishlist", wishlistData(st))
}

func (ctrl CartController) MoveToCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController MoveToCart")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}

	st, err := ctrl.service.MoveToCart(c, sess.ID, mux.Vars(r)["itemId"])
	if err != nil {
		fail(w, r, span, http.StatusInternalServerError, err)
		return
	}
	data := cartData(st)
	data["wishlist"] = response.WishlistFromState(st)
	inHttp.WriteSuccess(c, w, http.StatusOK, "moved to cart", data)
}
