package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sitechat/sitechat/internal/chat"
	"github.com/sitechat/sitechat/internal/store"
)

// Asker answers a question over a scraped dataset.
type Asker interface {
	Ask(ctx context.Context, dataset map[string]any, query string) (string, error)
}

// Datasets is the slice of the record store the chat surface reads.
type Datasets interface {
	GetRecord(ctx context.Context, id string) (store.Record, error)
	LatestRecord(ctx context.Context) (store.Record, error)
}

type ChatHandler struct {
	Dispatcher Asker
	Records    Datasets
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.GET("/latest-data", h.latestData)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req struct {
		Query       string         `json:"query"`
		WebsiteData map[string]any `json:"websiteData"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" || req.WebsiteData == nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "Missing query or website data"})
	}

	answer, err := h.Dispatcher.Ask(c.Request().Context(), req.WebsiteData, req.Query)
	if err != nil {
		chatRequests.WithLabelValues("failed").Inc()
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":    err.Error(),
			"response": chat.FallbackText,
		})
	}

	chatRequests.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, map[string]any{"response": answer})
}

// latestData serves the data object of a stored record. With ?id= it reads
// that record, falling back to the most recent one when the id is unknown.
func (h *ChatHandler) latestData(c echo.Context) error {
	ctx := c.Request().Context()

	if id := c.QueryParam("id"); id != "" {
		rec, err := h.Records.GetRecord(ctx, id)
		if err == nil {
			return c.JSONBlob(http.StatusOK, rec.Data)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	rec, err := h.Records.LatestRecord(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "No data found in the database"})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, rec.Data)
}
