package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kamari/service/middleware"
)

// Alerts 当前用户的提醒
func (h *Handler) Alerts(c echo.Context) error {
	alerts, err := h.query.Alerts(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// Tasks 分配给当前用户的任务
func (h *Handler) Tasks(c echo.Context) error {
	tasks, err := h.query.Tasks(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": http.StatusOK,
		"tasks":  tasks,
	})
}

// Projects 当前用户可见的项目
func (h *Handler) Projects(c echo.Context) error {
	projects, err := h.query.Projects(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(projects),
		"projects": projects,
	})
}
