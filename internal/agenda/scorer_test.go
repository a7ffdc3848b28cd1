package agenda

import (
	"testing"
	"time"
)

func TestScoreFavoriteDominates(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	s := Session{ID: "s1", Title: "AI in Claims", Track: "Claims"}
	profile := UserProfile{
		ID:                 "u1",
		Interests:          []string{"AI"},
		FavoriteSessionIDs: []string{"s1"},
	}

	res := sc.Score(s, profile, -1)
	// 50 favorite + 15 title interest + 10 popular track.
	if res.Score != 75 {
		t.Fatalf("expected score 75, got %.1f (%v)", res.Score, res.Reasons)
	}
	if len(res.Reasons) == 0 || res.Reasons[0] != "favorited by you" {
		t.Fatalf("favorite marker must lead the reasons, got %v", res.Reasons)
	}
}

func TestScoreWithoutFavorite(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	s := Session{ID: "s1", Title: "AI in Claims", Track: "Claims"}
	profile := UserProfile{ID: "u1", Interests: []string{"AI"}}

	res := sc.Score(s, profile, -1)
	if res.Score != 25 {
		t.Fatalf("expected score 25, got %.1f (%v)", res.Score, res.Reasons)
	}
}

func TestScoreInterestCap(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	s := Session{ID: "s1", Title: "alpha beta gamma delta"}
	profile := UserProfile{
		ID:        "u1",
		Interests: []string{"alpha", "beta", "gamma", "delta"},
	}

	res := sc.Score(s, profile, -1)
	// Four title matches would be 60 raw; the interest component caps at 40.
	if res.Score != 40 {
		t.Fatalf("interest points should cap at 40, got %.1f", res.Score)
	}
}

func TestScoreRoleKeywordCap(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	s := Session{ID: "s1", Title: "Technical API deep dive with code walkthroughs"}
	profile := UserProfile{ID: "u1", Role: "Engineer"}

	res := sc.Score(s, profile, -1)
	// Multiple role keyword hits cap at 2x10.
	if res.Score != 20 {
		t.Fatalf("role points should cap at 20, got %.1f (%v)", res.Score, res.Reasons)
	}
}

func TestScoreSemanticHintThreshold(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	s := Session{ID: "s1", Title: "Quantum Pricing Models"}
	profile := UserProfile{ID: "u1"}

	below := sc.Score(s, profile, 0.69)
	above := sc.Score(s, profile, 0.71)
	if above.Score-below.Score != DefaultScoringPolicy().SemanticHintBonus {
		t.Fatalf("hint above threshold should add the bonus: below=%.1f above=%.1f", below.Score, above.Score)
	}
	if negative := sc.Score(s, profile, -1); negative.Score != below.Score {
		t.Fatalf("absent hint must score like a sub-threshold one")
	}
}

func TestScoreNetworking(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	s := Session{
		ID:        "s1",
		Title:     "Welcome Reception",
		StartTime: time.Date(2026, 10, 5, 18, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 10, 5, 20, 0, 0, 0, time.UTC),
	}
	res := sc.Score(s, UserProfile{ID: "u1"}, -1)
	if res.Score != 15 {
		t.Fatalf("dedicated networking events score 15 on an empty profile, got %.1f", res.Score)
	}
	if !sc.IsNetworking(s) {
		t.Fatalf("reception should classify as networking")
	}
}

func TestCognitiveLoad(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())

	social := Session{ID: "s1", Title: "Welcome Reception"}
	if load := sc.CognitiveLoad(social); load != 10 {
		t.Fatalf("social event should hit the floor load, got %.1f", load)
	}

	heavy := Session{ID: "s2", Title: "Hands-on Workshop: API Architecture", Level: "Advanced"}
	if load := sc.CognitiveLoad(heavy); load != 95 {
		t.Fatalf("advanced technical workshop load should be 95, got %.1f", load)
	}
}

func TestNetworkingValueEveningBoost(t *testing.T) {
	t.Parallel()
	sc := NewScorer(DefaultScoringPolicy())
	evening := Session{
		ID:        "s1",
		Title:     "Rooftop Happy Hour",
		StartTime: time.Date(2026, 10, 5, 18, 0, 0, 0, time.UTC),
	}
	if v := sc.NetworkingValue(evening); v != 100 {
		t.Fatalf("evening social should max networking value, got %.1f", v)
	}
	daytime := Session{
		ID:        "s2",
		Title:     "Claims Deep Dive",
		StartTime: time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC),
	}
	if v := sc.NetworkingValue(daytime); v != 20 {
		t.Fatalf("plain daytime session should stay at the base value, got %.1f", v)
	}
}

func TestOptimalLoad(t *testing.T) {
	t.Parallel()
	if got := OptimalLoad(EnergyMorningPerson, 9); got != 80 {
		t.Fatalf("morning person at 09:00 should want 80, got %.1f", got)
	}
	if got := OptimalLoad(EnergyNightOwl, 19); got != 80 {
		t.Fatalf("night owl at 19:00 should want 80, got %.1f", got)
	}
	if got := OptimalLoad(EnergySteady, 14); got != 55 {
		t.Fatalf("steady profile should always want 55, got %.1f", got)
	}
}
