package backend

import (
	"context"
	"net/http"
	"net/url"
)

type BannerInput struct {
	Title    string `json:"title"              validate:"required"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image"              validate:"required,url"`
	Link     string `json:"link,omitempty"     validate:"omitempty,uri"`
	Order    int    `json:"order"              validate:"gte=0"`
	IsActive bool   `json:"isActive"`
}

func (cl *Client) ActiveBanners(c context.Context) ([]Banner, error) {
	banners := []Banner{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/banners/active"}, &banners)
	return banners, err
}

func (cl *Client) Banners(c context.Context, token string) ([]Banner, error) {
	banners := []Banner{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/banners", token: token}, &banners)
	return banners, err
}

func (cl *Client) CreateBanner(c context.Context, token string, param BannerInput) (Banner, error) {
	banner := Banner{}
	_, err := cl.do(
		c,
		call{method: http.MethodPost, path: "/banners", token: token, body: param},
		&banner,
	)
	return banner, err
}

func (cl *Client) UpdateBanner(
	c context.Context,
	token string,
	id string,
	param BannerInput,
) (Banner, error) {
	banner := Banner{}
	_, err := cl.do(
		c,
		call{method: http.MethodPut, path: "/banners/" + url.PathEscape(id), token: token, body: param},
		&banner,
	)
	return banner, err
}

func (cl *Client) DeleteBanner(c context.Context, token string, id string) error {
	_, err := cl.do(
		c,
		call{method: http.MethodDelete, path: "/banners/" + url.PathEscape(id), token: token},
		nil,
	)
	return err
}
