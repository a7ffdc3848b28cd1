package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/store"
	"github.com/mohammad-safakhou/confpilot/internal/telemetry"
)

type AgendaHandler struct {
	Store  *store.Store
	Cache  *store.CatalogCache
	Engine *agenda.Engine
}

func (h *AgendaHandler) Register(g *echo.Group) {
	g.POST("", h.build)
}

type buildRequest struct {
	UserID  string               `json:"user_id"`
	Options agenda.AgendaOptions `json:"options"`
}

func (h *AgendaHandler) build(c echo.Context) error {
	var req buildRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id required")
	}
	ctx := c.Request().Context()

	profile, found, err := h.Store.GetProfile(ctx, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "unknown user: "+req.UserID)
	}

	catalog, err := h.catalog(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	started := time.Now()
	ag, err := h.Engine.BuildAgenda(ctx, profile, catalog, req.Options)
	telemetry.BuildDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		telemetry.AgendaBuildFailures.Inc()
		var ie *agenda.InputError
		if errors.As(err, &ie) {
			return echo.NewHTTPError(http.StatusBadRequest, ie.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	telemetry.AgendasBuilt.Inc()
	for _, conflict := range ag.Conflicts {
		telemetry.ConflictsDetected.WithLabelValues(string(conflict.Type)).Inc()
	}
	for _, w := range ag.Warnings {
		if strings.Contains(w, "advisor unavailable") {
			telemetry.AdvisorFallbacks.Inc()
		}
		if strings.Contains(w, "semantic search unavailable") {
			telemetry.OracleFallbacks.Inc()
		}
	}
	return c.JSON(http.StatusOK, ag)
}

func (h *AgendaHandler) catalog(ctx context.Context) ([]agenda.Session, error) {
	if h.Cache != nil {
		return h.Cache.Sessions(ctx, h.Store)
	}
	return h.Store.ListSessions(ctx)
}
