package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	mw "github.com/labstack/echo/v4/middleware"

	"github.com/kamari/service/api/objectiveed"
	"github.com/kamari/service/logic"
	"github.com/kamari/service/metrics"
	"github.com/kamari/service/middleware"
	restfulapi "github.com/kamari/service/restful-api"
)

// Authenticator verifies and revokes session tokens.
type Authenticator interface {
	middleware.Parser
	DestroyToken(ctx context.Context, tokenString string) error
	Revocable() bool
}

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler HTTP 接口
type Handler struct {
	account *logic.Account
	query   *logic.Query
	auth    Authenticator
	proxy   objectiveed.Client
	ready   Pinger
}

// New 创建 HTTP 接口
func New(account *logic.Account, query *logic.Query, auth Authenticator, proxy objectiveed.Client, ready Pinger) *Handler {
	return &Handler{
		account: account,
		query:   query,
		auth:    auth,
		proxy:   proxy,
		ready:   ready,
	}
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/check", h.Check)
	e.GET("/readyz", h.Ready)
	e.GET("/metrics", metrics.Handler())

	e.POST("/signup", h.Signup)
	e.POST("/login", h.Login)

	limit := mw.BodyLimit(maxProxyBody)
	e.GET("/objectiveed/:method/:resource", h.Proxy, limit)
	e.POST("/objectiveed/:method/:resource", h.Proxy, limit)

	auth := middleware.AuthFilter(h.auth)
	e.POST("/logout", h.Logout, auth)
	e.GET("/alerts", h.Alerts, auth)
	e.GET("/tasks", h.Tasks, auth)
	e.GET("/projects", h.Projects, auth)
}

// Home 服务状态
func (h *Handler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "working"})
}

// Check 存活检查
func (h *Handler) Check(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Ready 就绪检查
func (h *Handler) Ready(c echo.Context) error {
	if err := h.ready.Ping(c.Request().Context()); err != nil {
		return restfulapi.NewHTTPError(http.StatusServiceUnavailable, "unavailable", "store is not reachable")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
}
