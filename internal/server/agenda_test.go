package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/store"
)

func newAgendaHandler(t *testing.T) (*AgendaHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &AgendaHandler{
		Store:  &store.Store{DB: db},
		Engine: agenda.NewEngine(nil, nil, nil),
	}, mock
}

func postAgenda(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/agenda", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBuildAgendaMissingUserID(t *testing.T) {
	e := echo.New()
	handler, _ := newAgendaHandler(t)
	ctx, _ := postAgenda(e, `{}`)

	err := handler.build(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestBuildAgendaUnknownUser(t *testing.T) {
	e := echo.New()
	handler, mock := newAgendaHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles`)).WithArgs("ghost").WillReturnRows(
		sqlmock.NewRows([]string{"user_id", "role", "organization_type", "company", "interests", "goals", "favorite_session_ids", "favorite_speaker_ids"}))

	ctx, _ := postAgenda(e, `{"user_id":"ghost"}`)
	err := handler.build(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBuildAgendaSuccess(t *testing.T) {
	e := echo.New()
	handler, mock := newAgendaHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles`)).WithArgs("u1").WillReturnRows(
		sqlmock.NewRows([]string{"user_id", "role", "organization_type", "company", "interests", "goals", "favorite_session_ids", "favorite_speaker_ids"}).
			AddRow("u1", "engineer", "carrier", "Acme", "{ai}", "{learning}", "{s1}", "{}"))

	start := time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions
ORDER BY start_time, id`)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "title", "description", "start_time", "end_time", "location", "track", "level", "tags"}).
			AddRow("s1", "AI Keynote", "opening", start, start.Add(time.Hour), "Hall A", "Keynote", "all", "{ai}").
			AddRow("s2", "Claims Automation", "workflows", start.Add(2*time.Hour), start.Add(3*time.Hour), "Hall B", "Claims", "intermediate", "{}"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM session_speakers`)).WillReturnRows(
		sqlmock.NewRows([]string{"session_id", "id", "name", "title", "company"}))

	ctx, rec := postAgenda(e, `{"user_id":"u1"}`)
	if err := handler.build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var ag agenda.Agenda
	if err := json.Unmarshal(rec.Body.Bytes(), &ag); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ag.UserID != "u1" || len(ag.Days) != 1 {
		t.Fatalf("unexpected agenda: user=%s days=%d", ag.UserID, len(ag.Days))
	}
	placed := false
	for _, item := range ag.Days[0].Items {
		if item.SessionID() == "s1" {
			placed = true
		}
	}
	if !placed {
		t.Fatalf("favorite session not placed: %+v", ag.Days[0].Items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
