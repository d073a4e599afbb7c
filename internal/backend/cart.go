package backend

import (
	"context"
	"net/http"
	"net/url"
)

type AddCartItem struct {
	Type      string `json:"type"`
	ProductID string `json:"productId,omitempty"`
	ServiceID string `json:"serviceId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	Quantity int `json:"quantity"`
}

func (cl *Client) Cart(c context.Context, token string) (Cart, error) {
	cart := Cart{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/cart", token: token}, &cart)
	return cart, err
}

func (cl *Client) AddCartItem(
	c context.Context,
	token string,
	idempotencyKey string,
	param AddCartItem,
) error {
	_, err := cl.do(
		c,
		call{
			method:         http.MethodPost,
			path:           "/cart",
			token:          token,
			body:           param,
			idempotencyKey: idempotencyKey,
		},
		nil,
	)
	return err
}

func (cl *Client) UpdateCartItem(
	c context.Context,
	token string,
	idempotencyKey string,
	itemID string,
	param UpdateCartItem,
) error {
	_, err := cl.do(
		c,
		call{
			method:         http.MethodPut,
			path:           "/cart/items/" + url.PathEscape(itemID),
			token:          token,
			body:           param,
			idempotencyKey: idempotencyKey,
		},
		nil,
	)
	return err
}

func (cl *Client) RemoveCartItem(
	c context.Context,
	token string,
	idempotencyKey string,
	itemID string,
) error {
	_, err := cl.do(
		c,
		call{
			method:         http.MethodDelete,
			path:           "/cart/items/" + url.PathEscape(itemID),
			token:          token,
			idempotencyKey: idempotencyKey,
		},
		nil,
	)
	return err
}

func (cl *Client) ClearCart(c context.Context, token string, idempotencyKey string) error {
	_, err := cl.do(
		c,
		call{
			method:         http.MethodDelete,
			path:           "/cart",
			token:          token,
			idempotencyKey: idempotencyKey,
		},
		nil,
	)
	return err
}
