package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sitechat/sitechat/internal/store"
)

type RecordsHandler struct {
	Store *store.Store
}

func (h *RecordsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *RecordsHandler) list(c echo.Context) error {
	recs, err := h.Store.ListRecords(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if recs == nil {
		recs = []store.Record{}
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *RecordsHandler) get(c echo.Context) error {
	rec, err := h.Store.GetRecord(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "No data found with the specified ID"})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecordsHandler) create(c echo.Context) error {
	data, err := readJSONBody(c)
	if err != nil {
		return err
	}
	rec, err := h.Store.CreateRecord(c.Request().Context(), data)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *RecordsHandler) update(c echo.Context) error {
	data, err := readJSONBody(c)
	if err != nil {
		return err
	}
	rec, err := h.Store.UpdateRecord(c.Request().Context(), c.Param("id"), data)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "No data found with the specified ID"})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *RecordsHandler) delete(c echo.Context) error {
	err := h.Store.DeleteRecord(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "No data found with the specified ID"})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// readJSONBody accepts any JSON document as the record payload.
func readJSONBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(body) == 0 || !json.Valid(body) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "request body must be valid JSON")
	}
	return body, nil
}
