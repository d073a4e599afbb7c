package backend

import (
	"context"
	"net/http"
	"net/url"
)

type ProductQuery struct {
	Search   string
	Category string
	Location string
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	return v
}

func (cl *Client) Products(c context.Context, q ProductQuery) ([]Product, error) {
	products := []Product{}
	_, err := cl.do(
		c,
		call{method: http.MethodGet, path: "/products", query: q.values()},
		&products,
	)
	return products, err
}

func (cl *Client) Product(c context.Context, id string) (Product, error) {
	product := Product{}
	_, err := cl.do(
		c,
		call{method: http.MethodGet, path: "/products/" + url.PathEscape(id)},
		&product,
	)
	return product, err
}

func (cl *Client) Categories(c context.Context) ([]Category, error) {
	categories := []Category{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/categories"}, &categories)
	return categories, err
}

func (cl *Client) Services(c context.Context) ([]Service, error) {
	services := []Service{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/services"}, &services)
	return services, err
}

func (cl *Client) Service(c context.Context, id string) (Service, error) {
	service := Service{}
	_, err := cl.do(
		c,
		call{method: http.MethodGet, path: "/services/" + url.PathEscape(id)},
		&service,
	)
	return service, err
}

func (cl *Client) Locations(c context.Context) ([]Location, error) {
	locations := []Location{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/locations"}, &locations)
	return locations, err
}
