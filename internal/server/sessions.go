package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/store"
	"github.com/mohammad-safakhou/confpilot/tools/relevance"
)

type SessionsHandler struct {
	Store *store.Store
	Cache *store.CatalogCache
	Index *relevance.Index
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/search", h.search)
	g.GET("/:id", h.get)
}

func (h *SessionsHandler) list(c echo.Context) error {
	ctx := c.Request().Context()
	if h.Cache != nil {
		sessions, err := h.Cache.Sessions(ctx, h.Store)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, sessions)
	}
	sessions, err := h.Store.ListSessions(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *SessionsHandler) get(c echo.Context) error {
	id := c.Param("id")
	sess, found, err := h.Store.GetSession(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "unknown session: "+id)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hits, err := h.Index.Search(c.Request().Context(), q, nil, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		sess, ok := h.Index.Session(hit.SessionID)
		if !ok {
			continue
		}
		results = append(results, searchResult{Session: sess, Score: hit.Score})
	}
	return c.JSON(http.StatusOK, results)
}

type searchResult struct {
	Session agenda.Session `json:"session"`
	Score   float64        `json:"score"`
}
