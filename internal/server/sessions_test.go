package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/store"
	"github.com/mohammad-safakhou/confpilot/tools/relevance"
)

func newSessionsHandler(t *testing.T) (*SessionsHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &SessionsHandler{Store: &store.Store{DB: db}}, mock
}

func TestListSessionsHandler(t *testing.T) {
	e := echo.New()
	handler, mock := newSessionsHandler(t)

	start := time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions
ORDER BY start_time, id`)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "description", "start_time", "end_time", "location", "track", "level", "tags"}).
			AddRow("s1", "AI Keynote", nil, start, start.Add(time.Hour), "Hall A", nil, nil, "{}"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM session_speakers`)).WillReturnRows(
		sqlmock.NewRows([]string{"session_id", "id", "name", "title", "company"}))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	if err := handler.list(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var sessions []agenda.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSessionHandlerNotFound(t *testing.T) {
	e := echo.New()
	handler, mock := newSessionsHandler(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions
WHERE id=$1`)).WithArgs("missing").WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "description", "start_time", "end_time", "location", "track", "level", "tags"}))

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("missing")

	err := handler.get(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	e := echo.New()
	handler, _ := newSessionsHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/search", nil)
	rec := httptest.NewRecorder()

	err := handler.search(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestSearchReturnsSessionDetails(t *testing.T) {
	e := echo.New()
	handler, _ := newSessionsHandler(t)

	idx, err := relevance.New(nil)
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	start := time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)
	catalog := []agenda.Session{
		{ID: "s1", Title: "Machine Learning for Claims Triage", Track: "AI & Data", StartTime: start, EndTime: start.Add(time.Hour)},
		{ID: "s2", Title: "Customer Experience Roundtable", Track: "CX", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	if err := idx.IndexCatalog(context.Background(), catalog); err != nil {
		t.Fatalf("indexing: %v", err)
	}
	handler.Index = idx

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/search?q=machine+learning+claims", nil)
	rec := httptest.NewRecorder()
	if err := handler.search(e.NewContext(req, rec)); err != nil {
		t.Fatalf("search: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var results []searchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}
	if results[0].Session.ID != "s1" || results[0].Session.Title == "" {
		t.Fatalf("expected enriched top hit, got %+v", results[0])
	}
}
