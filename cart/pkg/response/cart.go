package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/state"
)

type CartItem struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Image      string           `json:"image,omitempty"`
	Type       state.ItemType   `json:"type"`
	SyncStatus state.SyncStatus `json:"syncStatus,omitempty"`
	Price      decimal.Decimal  `json:"price"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Quantity   int              `json:"quantity"`
	SyncFailed bool             `json:"syncFailed"`
}

type Cart struct {
	Items           []CartItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Count           int             `json:"count"`
	HasSyncFailures bool            `json:"hasSyncFailures"`
}

type Wishlist struct {
	Items []state.WishlistEntry `json:"items"`
	Count int                   `json:"count"`
}

func FromState(s state.State) Cart {
	items := make([]CartItem, 0, len(s.Cart))
	for _, it := range s.Cart {
		items = append(items, CartItem{
			ID:         it.ID,
			Name:       it.Name,
			Image:      it.Image,
			Type:       it.Type,
			SyncStatus: it.SyncStatus,
			Price:      it.Price,
			Subtotal:   it.Subtotal(),
			Quantity:   it.Quantity,
			SyncFailed: it.SyncStatus == state.SyncFailed,
		})
	}
	return Cart{
		Items:           items,
		Total:           s.CartTotal,
		Count:           s.CartCount,
		HasSyncFailures: s.HasSyncFailures(),
	}
}

func WishlistFromState(s state.State) Wishlist {
	items := s.Wishlist
	if items == nil {
		items = []state.WishlistEntry{}
	}
	return Wishlist{Items: items, Count: len(items)}
}
