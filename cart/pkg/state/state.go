// Package state holds the per-session application state (cart, wishlist, user, search) and the
// pure reducer that is the only way to change it.
package state

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/backend"
)

type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemService ItemType = "service"
)

type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncPending SyncStatus = "pending"
	SyncFailed  SyncStatus = "failed"
)

// LineItem is keyed by the product or service id it refers to. ServerID is the backend's own
// cart-item id, known once the item has been seen in the server cart.
type LineItem struct {
	ID         string          `json:"id"`
	ServerID   string          `json:"serverId,omitempty"`
	Name       string          `json:"name"`
	Image      string          `json:"image,omitempty"`
	Type       ItemType        `json:"type"`
	ProductID  string          `json:"productId,omitempty"`
	ServiceID  string          `json:"serviceId,omitempty"`
	SyncStatus SyncStatus      `json:"syncStatus,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type WishlistEntry struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Image string          `json:"image,omitempty"`
	Type  ItemType        `json:"type"`
	Price decimal.Decimal `json:"price"`
}

type State struct {
	User        *backend.User     `json:"user,omitempty"`
	SearchQuery string            `json:"searchQuery,omitempty"`
	Cart        []LineItem        `json:"cart"`
	Wishlist    []WishlistEntry   `json:"wishlist"`
	Products    []backend.Product `json:"products,omitempty"`
	CartTotal   decimal.Decimal   `json:"cartTotal"`
	CartCount   int               `json:"cartCount"`
}

func New() State {
	return State{Cart: []LineItem{}, Wishlist: []WishlistEntry{}, CartTotal: decimal.Zero}
}

func (s State) MarshalZerologObject(e *zerolog.Event) {
	e.Int("cartItems", len(s.Cart)).
		Int("cartCount", s.CartCount).
		Str("cartTotal", s.CartTotal.StringFixed(2)).
		Int("wishlistCount", len(s.Wishlist)).
		Bool("authenticated", s.User != nil)
}

func (s State) Item(id string) (LineItem, bool) {
	for _, item := range s.Cart {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}

func (s State) InWishlist(id string) bool {
	for _, entry := range s.Wishlist {
		if entry.ID == id {
			return true
		}
	}
	return false
}

func (s State) HasSyncFailures() bool {
	for _, item := range s.Cart {
		if item.SyncStatus == SyncFailed {
			return true
		}
	}
	return false
}

// totals folds the line items; CartTotal and CartCount are never set any other way.
func totals(items []LineItem) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.Subtotal())
		count += item.Quantity
	}
	return total, count
}

func withCart(s State, items []LineItem) State {
	s.Cart = items
	s.CartTotal, s.CartCount = totals(items)
	return s
}

// FromBackendCart maps the server cart into line items marked synced, keyed like local adds.
func FromBackendCart(cart backend.Cart) []LineItem {
	items := make([]LineItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		item := LineItem{
			ServerID:   it.ID,
			Name:       it.Name,
			Image:      it.Image,
			Type:       ItemType(it.Type),
			ProductID:  it.ProductID,
			ServiceID:  it.ServiceID,
			Price:      it.Price,
			Quantity:   it.Quantity,
			SyncStatus: SyncSynced,
		}
		item.ID = item.ForeignID()
		if item.ID == "" {
			item.ID = it.ID
		}
		items = append(items, item)
	}
	return items
}

// ForeignID is the product or service id the line item refers to.
func (l LineItem) ForeignID() string {
	if l.Type == ItemService {
		return l.ServiceID
	}
	return l.ProductID
}
