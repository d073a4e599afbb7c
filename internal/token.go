package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/otel"
)

// TokenClaims are the fields the storefront reads from a backend-issued token.
// The signature is checked by the backend on every call; here the token is only inspected.
type TokenClaims struct {
	jwt.RegisteredClaims
	ID   string `json:"id,omitempty"`
	Role string `json:"role,omitempty"`
}

func (t TokenClaims) UserID() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Subject
}

func InspectToken(c context.Context, token string) (TokenClaims, error) {
	c, span := otel.Tracer.Start(c, "InspectToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "InspectToken").
		Str(constants.KEY_PROCESS, "parsing claims").
		Logger()

	if token == "" {
		err := fmt.Errorf("failed inspecting token with error=%w", errors.ErrEmptyAuth)
		otel.RecordError(err, span)
		logger.Debug().Err(err).Msg(err.Error())
		return TokenClaims{}, err
	}

	logger.Trace().Msg("parsing claims")
	claims := TokenClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", errors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return TokenClaims{}, err
	}
	logger = logger.With().
		Str(constants.KEY_USER_ID, claims.UserID()).
		Str(constants.KEY_ROLE, claims.Role).
		Logger()
	logger.Trace().Msg("parsed claims")

	return claims, nil
}

// TokenExpired reports whether the token is unreadable or past its expiry at now.
// Tokens without an exp claim never expire locally; the backend still rejects them with 401.
func TokenExpired(c context.Context, token string, now time.Time) bool {
	claims, err := InspectToken(c, token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
