package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sitechat/sitechat/internal/bot"
	"github.com/sitechat/sitechat/internal/store"
)

// Connector binds a bot token to a stored dataset.
type Connector interface {
	Connect(ctx context.Context, token, datasetID string) error
}

type TelegramHandler struct {
	Bots    Connector
	Enabled bool
}

func (h *TelegramHandler) Register(g *echo.Group) {
	g.POST("/connect", h.connect)
}

func (h *TelegramHandler) connect(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		RecordID string `json:"recordId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !h.Enabled {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Telegram surface is disabled",
		})
	}
	if req.Token == "" || req.RecordID == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Missing token or recordId",
		})
	}

	err := h.Bots.Connect(c.Request().Context(), req.Token, req.RecordID)
	if err != nil {
		botConnects.WithLabelValues("failed").Inc()

		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "No data found with the specified ID",
			})
		}
		var launchErr *bot.LaunchError
		if errors.As(err, &launchErr) {
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   launchErr.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	botConnects.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Bot connected successfully",
	})
}
