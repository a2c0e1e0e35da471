package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kamari/service/errors"
	"github.com/kamari/service/util/json"
)

// maxProxyBody caps forwarded bodies; larger ones are answered with 413.
const maxProxyBody = "1M"

// Proxy 转发到外部游戏服务接口
func (h *Handler) Proxy(c echo.Context) error {
	method := strings.ToLower(c.Param("method"))
	resource := c.Param("resource")

	body, err := io.ReadAll(c.Request().Body)
	if he, ok := err.(*echo.HTTPError); ok {
		return he
	}
	if err != nil {
		return errors.Wrap(errors.ValidationFailed, err, "unreadable request body")
	}
	if len(body) > 0 && !json.Valid(body) {
		return errors.New(errors.ValidationFailed, "request body must be JSON")
	}

	payload, err := h.proxy.Do(c.Request().Context(), method, resource, body)
	if err != nil {
		return err
	}
	if method == "delete" {
		return c.JSON(http.StatusOK, map[string]interface{}{"data": "delete"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": decodePayload(payload)})
}

func decodePayload(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	return string(b)
}
