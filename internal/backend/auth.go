package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (cr Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", cr.Email).Str("password", "***")
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type ProfileDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResult is what login/register return: a token and, when the backend includes it, the user.
type AuthResult struct {
	Token string
	User  *User
}

func (cl *Client) authenticate(c context.Context, path string, body interface{}) (AuthResult, error) {
	var raw json.RawMessage
	env, err := cl.do(c, call{method: http.MethodPost, path: path, body: body}, &raw)
	if err != nil {
		return AuthResult{}, err
	}
	result := AuthResult{Token: env.Token}
	if len(raw) > 0 {
		user := User{}
		if err := json.Unmarshal(raw, &user); err == nil && user.ID != "" {
			result.User = &user
		}
	}
	return result, nil
}

func (cl *Client) Register(c context.Context, param Registration) (AuthResult, error) {
	return cl.authenticate(c, "/auth/register", param)
}

func (cl *Client) Login(c context.Context, param Credentials) (AuthResult, error) {
	return cl.authenticate(c, "/auth/login", param)
}

func (cl *Client) AdminLogin(c context.Context, param Credentials) (AuthResult, error) {
	return cl.authenticate(c, "/auth/admin/login", param)
}

func (cl *Client) Logout(c context.Context, token string) error {
	_, err := cl.do(c, call{method: http.MethodGet, path: "/auth/logout", token: token}, nil)
	return err
}

func (cl *Client) Me(c context.Context, token string) (User, error) {
	user := User{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/auth/me", token: token}, &user)
	return user, err
}

func (cl *Client) UpdateDetails(c context.Context, token string, param ProfileDetails) (User, error) {
	user := User{}
	_, err := cl.do(
		c,
		call{method: http.MethodPut, path: "/auth/updatedetails", token: token, body: param},
		&user,
	)
	return user, err
}

// UpdatePassword returns the fresh token the backend issues after a password change.
func (cl *Client) UpdatePassword(c context.Context, token string, param PasswordChange) (string, error) {
	env, err := cl.do(
		c,
		call{method: http.MethodPut, path: "/auth/updatepassword", token: token, body: param},
		nil,
	)
	if err != nil {
		return "", err
	}
	return env.Token, nil
}
