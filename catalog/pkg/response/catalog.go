package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/backend"
)

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug,omitempty"`
	Image string `json:"image,omitempty"`
	Icon  Icon   `json:"icon"`
}

type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Icon        Icon            `json:"icon"`
}

type Home struct {
	Categories []Category        `json:"categories"`
	Services   []Service         `json:"services"`
	Products   []backend.Product `json:"products"`
	Banners    []backend.Banner  `json:"banners"`
}

type Search struct {
	Query    string            `json:"query"`
	Products []backend.Product `json:"products"`
	Count    int               `json:"count"`
}

func FromCategories(in []backend.Category) []Category {
	out := make([]Category, 0, len(in))
	for _, cat := range in {
		out = append(out, Category{
			ID:    cat.ID,
			Name:  cat.Name,
			Slug:  cat.Slug,
			Image: cat.Image,
			Icon:  ParseIcon(cat.Icon),
		})
	}
	return out
}

func FromService(s backend.Service) Service {
	return Service{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Image:       s.Image,
		Price:       s.Price,
		Icon:        ParseIcon(s.Icon),
	}
}

func FromServices(in []backend.Service) []Service {
	out := make([]Service, 0, len(in))
	for _, s := range in {
		out = append(out, FromService(s))
	}
	return out
}
