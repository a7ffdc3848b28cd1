package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
)

type fakeLLM struct {
	output string
	err    error
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.output, f.err
}

func (f *fakeLLM) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func fixtureConflict() (agenda.ConflictInfo, agenda.DaySchedule, agenda.UserProfile) {
	start := time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)
	s := agenda.Session{ID: "s1", Title: "AI Keynote", StartTime: start, EndTime: start.Add(time.Hour)}
	day := agenda.DaySchedule{
		Date: start,
		Items: []agenda.ScheduleItem{{
			ID: "i1", Kind: agenda.ItemSession, Source: agenda.SourceFavorite,
			Title: s.Title, StartTime: s.StartTime, EndTime: s.EndTime, Session: &s,
		}},
	}
	conflict := agenda.ConflictInfo{
		Type:        agenda.ConflictTimeOverlap,
		SessionIDs:  []string{"s1", "s2"},
		Description: "overlap",
	}
	return conflict, day, agenda.UserProfile{ID: "u1", Role: "Engineer"}
}

func TestSuggestResolutionParsesFencedJSON(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{output: "Here is my take:\n```json\n{\"type\":\"remove\",\"action\":\"drop the filler\",\"reasoning\":\"content repeats the keynote\",\"confidence\":85}\n```"}
	conflict, day, profile := fixtureConflict()

	res, err := New(llm).SuggestResolution(context.Background(), conflict, day, nil, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Type != agenda.ResolveRemove || res.Confidence != 85 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestSuggestResolutionRejectsUnknownType(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{output: `{"type":"merge","reasoning":"combine them","confidence":90}`}
	conflict, day, profile := fixtureConflict()

	if _, err := New(llm).SuggestResolution(context.Background(), conflict, day, nil, profile); err == nil {
		t.Fatalf("unknown resolution type must be rejected")
	}
}

func TestSuggestResolutionRejectsOutOfRangeConfidence(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{output: `{"type":"accept","reasoning":"fine","confidence":140}`}
	conflict, day, profile := fixtureConflict()

	if _, err := New(llm).SuggestResolution(context.Background(), conflict, day, nil, profile); err == nil {
		t.Fatalf("confidence above 100 must be rejected")
	}
}

func TestSuggestResolutionRejectsProse(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{output: "I think you should just skip the second session."}
	conflict, day, profile := fixtureConflict()

	if _, err := New(llm).SuggestResolution(context.Background(), conflict, day, nil, profile); err == nil {
		t.Fatalf("non-JSON output must be rejected")
	}
}

func TestSuggestResolutionPropagatesProviderError(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{err: errors.New("rate limited")}
	conflict, day, profile := fixtureConflict()

	if _, err := New(llm).SuggestResolution(context.Background(), conflict, day, nil, profile); err == nil {
		t.Fatalf("provider error must propagate")
	}
}

func TestAgendaInsightsParsed(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{output: `{"reasoning":"well balanced","insights":["day two is light"],"suggestions":["visit the expo floor"],"confidence_score":88}`}
	_, day, profile := fixtureConflict()
	ag := agenda.Agenda{ID: "a1", UserID: "u1", Days: []agenda.DaySchedule{day}}

	ins, err := New(llm).AgendaInsights(context.Background(), ag, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ins.Suggestions) != 1 || ins.ConfidenceScore != 88 {
		t.Fatalf("unexpected insights: %+v", ins)
	}
}

func TestAgendaInsightsRejectsEmptyContent(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{output: `{"reasoning":"fine","insights":[],"suggestions":[],"confidence_score":50}`}
	_, day, profile := fixtureConflict()
	ag := agenda.Agenda{ID: "a1", UserID: "u1", Days: []agenda.DaySchedule{day}}

	if _, err := New(llm).AgendaInsights(context.Background(), ag, profile); err == nil {
		t.Fatalf("contentless insights must be rejected")
	}
}
