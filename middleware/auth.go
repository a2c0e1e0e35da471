package middleware

import (
	"context"

	"github.com/dgrijalva/jwt-go/request"
	"github.com/labstack/echo/v4"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/token"
)

const (
	identityKey = "identity"
	tokenKey    = "token"
)

// Parser verifies session tokens.
type Parser interface {
	ParseToken(ctx context.Context, tokenString string) (*token.Claims, error)
}

// AuthFilter echo认证中间件. A missing token is rejected with Unauthorized
// and an unusable one with Forbidden, both before the handler runs.
func AuthFilter(p Parser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// accepts both "Bearer <token>" and the bare token
			tokenString, err := request.AuthorizationHeaderExtractor.ExtractToken(c.Request())
			if err != nil || tokenString == "" {
				return errors.New(errors.Unauthorized, "Unauthorized")
			}
			claims, err := p.ParseToken(c.Request().Context(), tokenString)
			if err != nil {
				return err
			}
			c.Set(identityKey, claims)
			c.Set(tokenKey, tokenString)
			return next(c)
		}
	}
}

// Identity returns the claims attached by AuthFilter.
func Identity(c echo.Context) *token.Claims {
	claims, _ := c.Get(identityKey).(*token.Claims)
	return claims
}

// UserID returns the authenticated user id, empty outside AuthFilter.
func UserID(c echo.Context) string {
	if claims := Identity(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// Token returns the raw token accepted by AuthFilter.
func Token(c echo.Context) string {
	s, _ := c.Get(tokenKey).(string)
	return s
}
