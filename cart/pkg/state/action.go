package state

import (
	"github.com/Alturino/storefront/internal/backend"
)

// Action is the closed set of state transitions accepted by Reduce.
type Action interface {
	action()
}

type AddToCart struct{ Item LineItem }

type RemoveFromCart struct{ ID string }

type UpdateCartQuantity struct {
	ID       string
	Quantity int
}

type ClearCart struct{}

type SetCart struct{ Items []LineItem }

type MarkCartSync struct {
	ID     string
	Status SyncStatus
}

type AddToWishlist struct{ Entry WishlistEntry }

type RemoveFromWishlist struct{ ID string }

type SetWishlist struct{ Entries []WishlistEntry }

type ClearWishlist struct{}

type SetUser struct{ User backend.User }

type ClearUser struct{}

type SetSearchQuery struct{ Query string }

type SetProducts struct{ Products []backend.Product }

func (AddToCart) action()          {}
func (RemoveFromCart) action()     {}
func (UpdateCartQuantity) action() {}
func (ClearCart) action()          {}
func (SetCart) action()            {}
func (MarkCartSync) action()       {}
func (AddToWishlist) action()      {}
func (RemoveFromWishlist) action() {}
func (SetWishlist) action()        {}
func (ClearWishlist) action()      {}
func (SetUser) action()            {}
func (ClearUser) action()          {}
func (SetSearchQuery) action()     {}
func (SetProducts) action()        {}
