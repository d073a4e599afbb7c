package backend

import (
	"context"
	"net/http"
	"net/url"
)

func (cl *Client) Orders(c context.Context, token string) ([]Order, error) {
	orders := []Order{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/orders", token: token}, &orders)
	return orders, err
}

func (cl *Client) Order(c context.Context, token string, id string) (Order, error) {
	order := Order{}
	_, err := cl.do(
		c,
		call{method: http.MethodGet, path: "/orders/" + url.PathEscape(id), token: token},
		&order,
	)
	return order, err
}
