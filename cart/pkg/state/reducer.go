package state

import (
	"slices"
)

// Reduce returns the state after applying a. It never mutates s; unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddToCart:
		return addToCart(s, a.Item)
	case RemoveFromCart:
		items := make([]LineItem, 0, len(s.Cart))
		for _, item := range s.Cart {
			if item.ID != a.ID {
				items = append(items, item)
			}
		}
		return withCart(s, items)
	case UpdateCartQuantity:
		return updateQuantity(s, a.ID, a.Quantity)
	case ClearCart:
		return withCart(s, []LineItem{})
	case SetCart:
		return withCart(s, normalize(a.Items))
	case MarkCartSync:
		items := slices.Clone(s.Cart)
		for i := range items {
			if items[i].ID == a.ID {
				items[i].SyncStatus = a.Status
			}
		}
		return withCart(s, items)
	case AddToWishlist:
		if s.InWishlist(a.Entry.ID) {
			return s
		}
		s.Wishlist = append(slices.Clone(s.Wishlist), a.Entry)
		return s
	case RemoveFromWishlist:
		entries := make([]WishlistEntry, 0, len(s.Wishlist))
		for _, entry := range s.Wishlist {
			if entry.ID != a.ID {
				entries = append(entries, entry)
			}
		}
		s.Wishlist = entries
		return s
	case SetWishlist:
		seen := map[string]bool{}
		entries := make([]WishlistEntry, 0, len(a.Entries))
		for _, entry := range a.Entries {
			if seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			entries = append(entries, entry)
		}
		s.Wishlist = entries
		return s
	case ClearWishlist:
		s.Wishlist = []WishlistEntry{}
		return s
	case SetUser:
		user := a.User
		s.User = &user
		return s
	case ClearUser:
		s.User = nil
		return s
	case SetSearchQuery:
		s.SearchQuery = a.Query
		return s
	case SetProducts:
		s.Products = slices.Clone(a.Products)
		return s
	}
	return s
}

func addToCart(s State, item LineItem) State {
	items := slices.Clone(s.Cart)
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity++
			if items[i].ServerID == "" {
				items[i].ServerID = item.ServerID
			}
			if item.SyncStatus != "" {
				items[i].SyncStatus = item.SyncStatus
			}
			return withCart(s, items)
		}
	}
	item.Quantity = 1
	return withCart(s, append(items, item))
}

func updateQuantity(s State, id string, quantity int) State {
	quantity = max(quantity, 0)
	items := make([]LineItem, 0, len(s.Cart))
	for _, item := range s.Cart {
		if item.ID == id {
			item.Quantity = quantity
		}
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}
	return withCart(s, items)
}

// normalize merges duplicate ids by summing quantities and drops non-positive quantities,
// keeping first-seen order.
func normalize(in []LineItem) []LineItem {
	index := map[string]int{}
	items := make([]LineItem, 0, len(in))
	for _, item := range in {
		if i, ok := index[item.ID]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	return slices.DeleteFunc(items, func(item LineItem) bool { return item.Quantity <= 0 })
}
