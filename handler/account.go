package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kamari/service/logic"
	"github.com/kamari/service/middleware"
	restfulapi "github.com/kamari/service/restful-api"
)

// Signup 注册并开通租户
func (h *Handler) Signup(c echo.Context) error {
	var in logic.RegisterInput
	if err := restfulapi.Bind(c, &in); err != nil {
		return err
	}
	reg, err := h.account.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "User Registered",
		"user":         reg.User,
		"organization": reg.Organization,
		"token":        reg.Token,
	})
}

// Login 登录
func (h *Handler) Login(c echo.Context) error {
	var in logic.LoginInput
	if err := restfulapi.Bind(c, &in); err != nil {
		return err
	}
	sess, err := h.account.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":  sess.User,
		"token": sess.Token,
	})
}

// Logout 注销当前令牌
func (h *Handler) Logout(c echo.Context) error {
	if err := h.auth.DestroyToken(c.Request().Context(), middleware.Token(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Logged out",
		"revoked": h.auth.Revocable(),
	})
}
