package restfulapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	mw "github.com/labstack/echo/v4/middleware"
)

// NewEcho creates an echo instance with the service's error handling, JSON
// codec, validator and CORS policy. outer middlewares wrap Recover, so they
// also observe requests whose handler panicked.
func NewEcho(outer ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler
	e.JSONSerializer = JSONSerializer{}
	e.Validator = NewValidator()
	e.Use(outer...)
	e.Use(mw.CORSWithConfig(mw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(mw.Recover())
	return e
}

// Bind decodes the request body into i and validates it.
func Bind(c echo.Context, i interface{}) error {
	if err := c.Bind(i); err != nil {
		return err
	}
	return c.Validate(i)
}
