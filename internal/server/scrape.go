package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sitechat/sitechat/internal/scrape"
)

// Scraper fans a category request out over source URLs.
type Scraper interface {
	Scrape(ctx context.Context, category scrape.Category, sources []string) ([]scrape.SourceOutcome, error)
}

type ScrapeHandler struct {
	Scraper Scraper
}

func (h *ScrapeHandler) Register(g *echo.Group) {
	g.POST("/scrape", h.scrape)
}

func (h *ScrapeHandler) scrape(c echo.Context) error {
	var req struct {
		Type string   `json:"type"`
		URLs []string `json:"urls"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.URLs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "No URLs provided"})
	}

	category := scrape.Category(req.Type)
	outcomes, err := h.Scraper.Scrape(c.Request().Context(), category, req.URLs)
	if err != nil {
		scrapeRequests.WithLabelValues(string(category), "failed").Inc()

		var allFailed *scrape.AllFailedError
		switch {
		case errors.As(err, &allFailed):
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   "Failed to scrape any data",
				"details": strings.Join(allFailed.Messages, "; "),
			})
		case errors.Is(err, scrape.ErrNoSources):
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "No URLs provided"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   "Failed to scrape data",
				"details": err.Error(),
			})
		}
	}

	scrapeRequests.WithLabelValues(string(category), "ok").Inc()
	return c.JSON(http.StatusOK, scrape.Aggregate(category, outcomes).Value)
}
