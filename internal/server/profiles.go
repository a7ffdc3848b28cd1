package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/store"
)

type ProfilesHandler struct {
	Store *store.Store
}

func (h *ProfilesHandler) Register(g *echo.Group) {
	g.GET("/:id", h.get)
	g.PUT("/:id", h.put)
}

func (h *ProfilesHandler) get(c echo.Context) error {
	id := c.Param("id")
	p, found, err := h.Store.GetProfile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "unknown user: "+id)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfilesHandler) put(c echo.Context) error {
	var p agenda.UserProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = c.Param("id")
	if err := h.Store.UpsertProfile(c.Request().Context(), p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"id": p.ID})
}
