package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/squadcards/cardforge-backend/internal/service"
	"github.com/squadcards/cardforge-backend/internal/util"
)

type HistoryHandler struct {
	history *service.HistoryService
}

func RegisterHistory(e *echo.Echo, auth *service.AuthService, history *service.HistoryService) {
	handler := &HistoryHandler{history: history}

	group := e.Group("/api/v1/history", RequireAuth(auth))
	group.GET("", handler.list)
	group.DELETE("", handler.clear)
}

func (h *HistoryHandler) list(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	entries, err := h.history.List(c.Request().Context(), user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not list history"))
	}
	return c.JSON(http.StatusOK, util.Data("history", entries))
}

func (h *HistoryHandler) clear(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok || user == nil {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	if err := h.history.Clear(c.Request().Context(), user.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not clear history"))
	}
	return c.NoContent(http.StatusNoContent)
}
