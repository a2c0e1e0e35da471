package restfulapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/logger"
)

// HTTPError 自定义返回错误
type HTTPError struct {
	Code    int    `json:"-"`
	Key     string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPError 创建自定义返回错误
func NewHTTPError(code int, key string, msg string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Key:     key,
		Message: msg,
	}
}

// Error makes it compatible with `error` interface.
func (e *HTTPError) Error() string {
	return e.Key + ": " + e.Message
}

// StatusOf maps an error kind to its response status.
func StatusOf(kind errors.Kind) int {
	switch kind {
	case errors.Unauthorized:
		return http.StatusUnauthorized
	case errors.Forbidden:
		return http.StatusForbidden
	case errors.NotFound:
		return http.StatusNotFound
	case errors.Conflict:
		return http.StatusConflict
	case errors.ValidationFailed:
		return http.StatusBadRequest
	case errors.UpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts any error into the response it should produce.
func FromError(err error) *HTTPError {
	switch e := err.(type) {
	case *HTTPError:
		return e
	case *echo.HTTPError:
		msg, ok := e.Message.(string)
		if !ok {
			msg = http.StatusText(e.Code)
		}
		key := string(errors.Internal)
		switch e.Code {
		case http.StatusNotFound:
			key = string(errors.NotFound)
		case http.StatusMethodNotAllowed, http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
			key = string(errors.ValidationFailed)
		}
		return NewHTTPError(e.Code, key, msg)
	}
	kind := errors.KindOf(err)
	return NewHTTPError(StatusOf(kind), string(kind), errors.MessageOf(err))
}

// HTTPErrorHandler customize echo's HTTP error handler.
func HTTPErrorHandler(err error, c echo.Context) {
	he := FromError(err)
	if he.Code >= http.StatusInternalServerError {
		logger.Errorf(map[string]interface{}{
			"method": c.Request().Method,
			"path":   c.Path(),
		}, "request error: %s", err.Error())
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, he)
	}
	if err != nil {
		logger.Errorf(nil, "write error response: %s", err.Error())
	}
}
