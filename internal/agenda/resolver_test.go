package agenda

import (
	"context"
	"errors"
	"testing"
)

type stubAdvisor struct {
	resolution Resolution
	resErr     error
	insights   Insights
	insightErr error
}

func (s *stubAdvisor) SuggestResolution(ctx context.Context, conflict ConflictInfo, day DaySchedule, candidates []Session, profile UserProfile) (Resolution, error) {
	return s.resolution, s.resErr
}

func (s *stubAdvisor) AgendaInsights(ctx context.Context, agenda Agenda, profile UserProfile) (Insights, error) {
	return s.insights, s.insightErr
}

func TestResolveBothFavoritesAccepted(t *testing.T) {
	t.Parallel()
	r := NewResolver(NewScorer(DefaultScoringPolicy()), nil, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "AI Keynote", "Hall A", at(10, 0), at(11, 0), SourceFavorite),
		sessionOn("b", "Claims Panel", "Hall B", at(10, 30), at(11, 30), SourceFavorite),
	})
	conflict := DetectConflicts(day)[0]

	res, updated, _ := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if res.Type != ResolveAccept {
		t.Fatalf("two favorites must be accepted, got %s", res.Type)
	}
	if res.Confidence != 95 {
		t.Fatalf("expected confidence 95, got %.0f", res.Confidence)
	}
	if len(updated.Items) != len(day.Items) {
		t.Fatalf("accept must leave the schedule untouched")
	}
}

func TestResolveRemovesLowerPriority(t *testing.T) {
	t.Parallel()
	r := NewResolver(NewScorer(DefaultScoringPolicy()), nil, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "AI Keynote", "Hall A", at(10, 0), at(11, 0), SourceFavorite),
		sessionOn("b", "Filler Session", "Hall B", at(10, 30), at(11, 30), SourceSuggested),
	})
	conflict := DetectConflicts(day)[0]

	res, updated, _ := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if res.Type != ResolveRemove {
		t.Fatalf("expected remove with no alternatives available, got %s", res.Type)
	}
	for _, it := range updated.Items {
		if it.SessionID() == "b" {
			t.Fatalf("suggested session should have been removed")
		}
	}
	if len(updated.Items) != 1 || updated.Items[0].SessionID() != "a" {
		t.Fatalf("favorite must survive, got %+v", updated.Items)
	}
}

func TestResolveSwapsForAlternative(t *testing.T) {
	t.Parallel()
	r := NewResolver(NewScorer(DefaultScoringPolicy()), nil, DefaultScoringPolicy())
	// Back-to-back across buildings: 5 minute gap, 17 minutes needed.
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "Opening Keynote", "Hall A", at(9, 0), at(10, 0), SourceFavorite),
		sessionOn("b", "Claims Automation Deep Dive", "Expo Floor", at(10, 5), at(11, 0), SourceSuggested),
	})
	conflict := DetectConflicts(day)[0]
	if conflict.Type != ConflictVenueDistance {
		t.Fatalf("fixture should produce a venue conflict, got %s", conflict.Type)
	}
	alternative := Session{
		ID: "c", Title: "Claims Automation Workshop", Track: "Claims",
		Location: "Hall B", StartTime: at(10, 5), EndTime: at(11, 0),
	}
	victim := day.Items[1].Session
	victim.Track = "Claims"

	res, updated, _ := r.Resolve(context.Background(), conflict, day, []Session{alternative}, UserProfile{ID: "u1"})
	if res.Type != ResolveSwap {
		t.Fatalf("expected a swap, got %s (%s)", res.Type, res.Reasoning)
	}
	if len(res.Alternatives) == 0 || res.Alternatives[0] != "c" {
		t.Fatalf("swap should name the replacement, got %v", res.Alternatives)
	}
	found := false
	for _, it := range updated.Items {
		if it.SessionID() == "b" {
			t.Fatalf("victim should be gone after the swap")
		}
		if it.SessionID() == "c" {
			found = true
			if it.Source != SourceSuggested {
				t.Fatalf("replacement should be marked as suggested")
			}
		}
	}
	if !found {
		t.Fatalf("replacement session missing from the updated day")
	}
}

func TestResolveMealConflictAccepted(t *testing.T) {
	t.Parallel()
	r := NewResolver(NewScorer(DefaultScoringPolicy()), nil, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "Lunchtime Marathon", "Hall A", at(11, 30), at(13, 30), SourceSuggested),
	})
	conflict := DetectConflicts(day)[0]

	res, updated, _ := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if res.Type != ResolveAccept {
		t.Fatalf("meal conflicts resolve to accept, got %s", res.Type)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("meal conflict must not drop the session")
	}
}

func TestResolveAdvisorAboveCutoffWins(t *testing.T) {
	t.Parallel()
	advisor := &stubAdvisor{resolution: Resolution{
		Type:       ResolveAccept,
		Action:     "keep both, skip the tail of the first",
		Reasoning:  "the second session repeats its opening ten minutes",
		Confidence: 90,
	}}
	r := NewResolver(NewScorer(DefaultScoringPolicy()), advisor, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "AI Keynote", "Hall A", at(10, 0), at(11, 0), SourceFavorite),
		sessionOn("b", "Filler Session", "Hall B", at(10, 30), at(11, 30), SourceSuggested),
	})
	conflict := DetectConflicts(day)[0]

	res, updated, _ := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if res.Type != ResolveAccept || res.Confidence != 90 {
		t.Fatalf("high-confidence advice should be applied, got %+v", res)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("advisor accept should keep both items")
	}
}

func TestResolveAdvisorBelowCutoffSurfaced(t *testing.T) {
	t.Parallel()
	advisor := &stubAdvisor{resolution: Resolution{
		Type:       ResolveAccept,
		Confidence: 40,
	}}
	r := NewResolver(NewScorer(DefaultScoringPolicy()), advisor, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "AI Keynote", "Hall A", at(10, 0), at(11, 0), SourceFavorite),
		sessionOn("b", "Filler Session", "Hall B", at(10, 30), at(11, 30), SourceSuggested),
	})
	conflict := DetectConflicts(day)[0]

	res, _, _ := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if res.Type != ResolveRemove {
		t.Fatalf("low-confidence advice must not override the rules, got %s", res.Type)
	}
	if res.Reasoning == "" || !containsAny(res.Reasoning, []string{"below cutoff"}) {
		t.Fatalf("low-confidence advice should be surfaced in reasoning, got %q", res.Reasoning)
	}
}

func TestResolveAdvisorErrorFallsBack(t *testing.T) {
	t.Parallel()
	advisor := &stubAdvisor{resErr: errors.New("model timeout")}
	r := NewResolver(NewScorer(DefaultScoringPolicy()), advisor, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "AI Keynote", "Hall A", at(10, 0), at(11, 0), SourceFavorite),
		sessionOn("b", "Filler Session", "Hall B", at(10, 30), at(11, 30), SourceSuggested),
	})
	conflict := DetectConflicts(day)[0]

	res, _, err := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if res.Type != ResolveRemove {
		t.Fatalf("advisor failure should fall back to the rule-based path, got %s", res.Type)
	}
	if err == nil {
		t.Fatalf("advisor failure must be reported to the caller")
	}
}

func TestResolveAdvisorCannotRemoveFavorite(t *testing.T) {
	t.Parallel()
	advisor := &stubAdvisor{resolution: Resolution{
		Type:       ResolveRemove,
		Action:     "drop one of the two",
		Reasoning:  "the attendee can watch the recording later",
		Confidence: 95,
	}}
	r := NewResolver(NewScorer(DefaultScoringPolicy()), advisor, DefaultScoringPolicy())
	day := finalizeDay(at(0, 0), []ScheduleItem{
		sessionOn("a", "AI Keynote", "Hall A", at(10, 0), at(11, 0), SourceFavorite),
		sessionOn("b", "Claims Panel", "Hall B", at(10, 30), at(11, 30), SourceFavorite),
	})
	conflict := DetectConflicts(day)[0]

	res, updated, err := r.Resolve(context.Background(), conflict, day, nil, UserProfile{ID: "u1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Type != ResolveAccept {
		t.Fatalf("confident advice to drop a favorite must be rejected, got %s", res.Type)
	}
	if !containsAny(res.Reasoning, []string{"rejected"}) {
		t.Fatalf("rejection should be surfaced in reasoning, got %q", res.Reasoning)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("both favorites must stay on the schedule, got %d items", len(updated.Items))
	}
}

func TestTitleSimilarity(t *testing.T) {
	t.Parallel()
	if sim := titleSimilarity("Claims Automation Deep Dive", "Claims Automation Workshop"); sim != 0.4 {
		t.Fatalf("expected Jaccard 0.4, got %.2f", sim)
	}
	if sim := titleSimilarity("Same Title", "Same Title"); sim != 1 {
		t.Fatalf("identical titles should be 1, got %.2f", sim)
	}
	if sim := titleSimilarity("", "Anything"); sim != 0 {
		t.Fatalf("empty title should be 0, got %.2f", sim)
	}
}
