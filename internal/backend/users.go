package backend

import (
	"context"
	"net/http"
	"net/url"
)

type UserInput struct {
	Name     string `json:"name"               validate:"required"`
	Email    string `json:"email"              validate:"required,email"`
	Phone    string `json:"phone,omitempty"    validate:"omitempty,e164|numeric"`
	Role     string `json:"role"               validate:"required,oneof=customer admin"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
}

func (cl *Client) Users(c context.Context, token string) ([]User, error) {
	users := []User{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/users", token: token}, &users)
	return users, err
}

func (cl *Client) User(c context.Context, token string, id string) (User, error) {
	user := User{}
	_, err := cl.do(
		c,
		call{method: http.MethodGet, path: "/users/" + url.PathEscape(id), token: token},
		&user,
	)
	return user, err
}

func (cl *Client) CreateUser(c context.Context, token string, param UserInput) (User, error) {
	user := User{}
	_, err := cl.do(
		c,
		call{method: http.MethodPost, path: "/users", token: token, body: param},
		&user,
	)
	return user, err
}

func (cl *Client) UpdateUser(c context.Context, token string, id string, param UserInput) (User, error) {
	user := User{}
	_, err := cl.do(
		c,
		call{method: http.MethodPut, path: "/users/" + url.PathEscape(id), token: token, body: param},
		&user,
	)
	return user, err
}

func (cl *Client) DeleteUser(c context.Context, token string, id string) error {
	_, err := cl.do(
		c,
		call{method: http.MethodDelete, path: "/users/" + url.PathEscape(id), token: token},
		nil,
	)
	return err
}
