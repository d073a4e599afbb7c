package request

type AddItem struct {
	Type string `json:"type" validate:"required,oneof=product service"`
	ID   string `json:"id"   validate:"required"`
}

type UpdateQuantity struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type AddWishlistItem struct {
	Type string `json:"type" validate:"required,oneof=product service"`
	ID   string `json:"id"   validate:"required"`
}
