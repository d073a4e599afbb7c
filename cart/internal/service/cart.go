package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/internal/syncer"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

// Backend is what the cart needs from the marketplace API: item lookups and the server cart.
type Backend interface {
	Product(c context.Context, id string) (backend.Product, error)
	Service(c context.Context, id string) (backend.Service, error)
	Cart(c context.Context, token string) (backend.Cart, error)
}

type CartService struct {
	store   session.Store
	queue   syncer.Queue
	backend Backend
	now     func() time.Time
}

func NewCartService(store session.Store, queue syncer.Queue, backend Backend) *CartService {
	return &CartService{store: store, queue: queue, backend: backend, now: time.Now}
}

func (svc *CartService) Get(c context.Context, sessionID string) (state.State, error) {
	c, span := otel.Tracer.Start(c, "CartService Get")
	defer span.End()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return state.State{}, err
	}
	return sess.State, nil
}

func (svc *CartService) lineItem(c context.Context, itemType state.ItemType, id string) (state.LineItem, error) {
	switch itemType {
	case state.ItemService:
		svcItem, err := svc.backend.Service(c, id)
		if err != nil {
			return state.LineItem{}, err
		}
		return state.LineItem{
			ID:        svcItem.ID,
			Name:      svcItem.Name,
			Image:     svcItem.Image,
			Type:      state.ItemService,
			ServiceID: svcItem.ID,
			Price:     svcItem.Price,
		}, nil
	default:
		product, err := svc.backend.Product(c, id)
		if err != nil {
			return state.LineItem{}, err
		}
		return state.LineItem{
			ID:        product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Type:      state.ItemProduct,
			ProductID: product.ID,
			Price:     product.Price,
		}, nil
	}
}

// enqueue records op for the sync worker. When the op cannot be queued the item is marked failed
// straight away so the divergence is visible.
func (svc *CartService) enqueue(c context.Context, op syncer.PendingOp) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_PROCESS, "enqueueing sync op").
		Object(constants.KEY_OP, op).
		Logger()

	if err := svc.queue.Enqueue(c, op); err != nil {
		logger.Warn().Err(err).Msg("failed enqueueing sync op, marking item failed")
		if op.ItemID == "" {
			return
		}
		_, err = svc.store.Update(c, op.SessionID, func(s *session.Session) error {
			s.Dispatch(state.MarkCartSync{ID: op.ItemID, Status: state.SyncFailed})
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("failed marking item failed")
		}
		return
	}
	logger.Debug().Msg("enqueued sync op")
}

func (svc *CartService) AddItem(
	c context.Context,
	sessionID string,
	param request.AddItem,
) (state.State, error) {
	c, span := otel.Tracer.Start(
		c,
		"CartService AddItem",
		trace.WithAttributes(attribute.String(constants.KEY_CART_ITEM_ID, param.ID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService AddItem").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_CART_ITEM_ID, param.ID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding item").Logger()
	logger.Debug().Msg("finding item")
	item, err := svc.lineItem(c, state.ItemType(param.Type), param.ID)
	if err != nil {
		err = fmt.Errorf("failed finding %s=%s with error=%w", param.Type, param.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Debug().Msg("found item")

	logger = logger.With().Str(constants.KEY_PROCESS, "adding item to cart").Logger()
	logger.Debug().Msg("adding item to cart")
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		if s.Authenticated() {
			item.SyncStatus = state.SyncPending
		}
		s.Dispatch(state.AddToCart{Item: item})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed adding item to cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().
		Int(constants.KEY_CART_COUNT, sess.State.CartCount).
		Str(constants.KEY_CART_TOTAL, sess.State.CartTotal.StringFixed(2)).
		Msg("added item to cart")

	if sess.Authenticated() {
		svc.enqueue(logger.WithContext(c), syncer.AddOp(sessionID, item, svc.now()))
	}

	return sess.State, nil
}

func (svc *CartService) UpdateQuantity(
	c context.Context,
	sessionID string,
	itemID string,
	quantity int,
) (state.State, error) {
	c, span := otel.Tracer.Start(
		c,
		"CartService UpdateQuantity",
		trace.WithAttributes(attribute.String(constants.KEY_CART_ITEM_ID, itemID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService UpdateQuantity").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Int(constants.KEY_CART_ITEM_QUANTITY, quantity).
		Str(constants.KEY_PROCESS, "updating quantity").
		Logger()

	logger.Debug().Msg("updating quantity")
	var target state.LineItem
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		item, ok := s.State.Item(itemID)
		if !ok {
			return inErrors.ErrNotFound
		}
		target = item
		s.Dispatch(state.UpdateCartQuantity{ID: itemID, Quantity: quantity})
		if s.Authenticated() {
			s.Dispatch(state.MarkCartSync{ID: itemID, Status: state.SyncPending})
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed updating quantity with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().Int(constants.KEY_CART_COUNT, sess.State.CartCount).Msg("updated quantity")

	if sess.Authenticated() {
		op := syncer.UpdateOp(sessionID, target, max(quantity, 0), svc.now())
		if quantity <= 0 {
			op = syncer.RemoveOp(sessionID, target, svc.now())
		}
		svc.enqueue(logger.WithContext(c), op)
	}

	return sess.State, nil
}

func (svc *CartService) RemoveItem(c context.Context, sessionID string, itemID string) (state.State, error) {
	c, span := otel.Tracer.Start(
		c,
		"CartService RemoveItem",
		trace.WithAttributes(attribute.String(constants.KEY_CART_ITEM_ID, itemID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService RemoveItem").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Str(constants.KEY_PROCESS, "removing item").
		Logger()

	logger.Debug().Msg("removing item")
	var target state.LineItem
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		item, ok := s.State.Item(itemID)
		if !ok {
			return inErrors.ErrNotFound
		}
		target = item
		s.Dispatch(state.RemoveFromCart{ID: itemID})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed removing item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().Int(constants.KEY_CART_COUNT, sess.State.CartCount).Msg("removed item")

	if sess.Authenticated() {
		svc.enqueue(logger.WithContext(c), syncer.RemoveOp(sessionID, target, svc.now()))
	}

	return sess.State, nil
}

func (svc *CartService) Clear(c context.Context, sessionID string) (state.State, error) {
	c, span := otel.Tracer.Start(c, "CartService Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService Clear").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "clearing cart").
		Logger()

	logger.Debug().Msg("clearing cart")
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.ClearCart{})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().Msg("cleared cart")

	if sess.Authenticated() {
		svc.enqueue(logger.WithContext(c), syncer.ClearOp(sessionID, svc.now()))
	}

	return sess.State, nil
}

// RetrySync abandons queued ops and takes the server cart as the truth, clearing failure marks.
func (svc *CartService) RetrySync(c context.Context, sessionID string) (state.State, error) {
	c, span := otel.Tracer.Start(c, "CartService RetrySync")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService RetrySync").
		Str(constants.KEY_SESSION_ID, sessionID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "loading session").Logger()
	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	if !sess.Authenticated() {
		err = fmt.Errorf("failed retrying sync with error=%w", inErrors.ErrEmptyAuth)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return state.State{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "fetching server cart").Logger()
	logger.Debug().Msg("fetching server cart")
	cart, err := svc.backend.Cart(c, sess.Token)
	if err != nil {
		session.DowngradeIfUnauthorized(c, svc.store, sessionID, err)
		err = fmt.Errorf("failed fetching server cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Debug().Int("items", len(cart.Items)).Msg("fetched server cart")

	logger = logger.With().Str(constants.KEY_PROCESS, "discarding pending ops").Logger()
	if err := svc.queue.Discard(c, sessionID); err != nil {
		err = fmt.Errorf("failed discarding pending ops with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "replacing cart").Logger()
	sess, err = svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.SetCart{Items: state.FromBackendCart(cart)})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed replacing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().Int(constants.KEY_CART_COUNT, sess.State.CartCount).Msg("replaced cart with server cart")

	return sess.State, nil
}

func (svc *CartService) AddToWishlist(
	c context.Context,
	sessionID string,
	param request.AddWishlistItem,
) (state.State, error) {
	c, span := otel.Tracer.Start(c, "CartService AddToWishlist")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService AddToWishlist").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_CART_ITEM_ID, param.ID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding item").Logger()
	item, err := svc.lineItem(c, state.ItemType(param.Type), param.ID)
	if err != nil {
		err = fmt.Errorf("failed finding %s=%s with error=%w", param.Type, param.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "adding to wishlist").Logger()
	logger.Debug().Msg("adding to wishlist")
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.AddToWishlist{Entry: state.WishlistEntry{
			ID:    item.ID,
			Name:  item.Name,
			Image: item.Image,
			Type:  item.Type,
			Price: item.Price,
		}})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed adding to wishlist with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().Int(constants.KEY_WISHLIST_COUNT, len(sess.State.Wishlist)).Msg("added to wishlist")

	return sess.State, nil
}

func (svc *CartService) RemoveFromWishlist(c context.Context, sessionID string, id string) (state.State, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveFromWishlist")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CartService RemoveFromWishlist").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_CART_ITEM_ID, id).
		Str(constants.KEY_PROCESS, "removing from wishlist").
		Logger()

	logger.Debug().Msg("removing from wishlist")
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		if !s.State.InWishlist(id) {
			return inErrors.ErrNotFound
		}
		s.Dispatch(state.RemoveFromWishlist{ID: id})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed removing from wishlist with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return state.State{}, err
	}
	logger.Info().Int(constants.KEY_WISHLIST_COUNT, len(sess.State.Wishlist)).Msg("removed from wishlist")

	return sess.State, nil
}

// MoveToCart adds a wishlisted entry to the cart and drops it from the wishlist.
func (svc *CartService) MoveToCart(c context.Context, sessionID string, id string) (state.State, error) {
	c, span := otel.Tracer.Start(c, "CartService MoveToCart")
	defer span.End()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return state.State{}, err
	}
	var entry *state.WishlistEntry
	for i := range sess.State.Wishlist {
		if sess.State.Wishlist[i].ID == id {
			entry = &sess.State.Wishlist[i]
			break
		}
	}
	if entry == nil {
		err = fmt.Errorf("failed moving %s to cart with error=%w", id, inErrors.ErrNotFound)
		inOtel.RecordError(err, span)
		return state.State{}, err
	}

	if _, err := svc.AddItem(c, sessionID, request.AddItem{Type: string(entry.Type), ID: entry.ID}); err != nil {
		return state.State{}, err
	}
	return svc.RemoveFromWishlist(c, sessionID, id)
}
