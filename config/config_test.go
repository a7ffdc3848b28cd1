package config

import "testing"

func TestScoringPolicyDefaults(t *testing.T) {
	t.Parallel()
	p := ScoringConfig{}.Policy()
	if p.FavoriteBonus != 50 || p.AdvisorConfidenceMin != 80 || p.SemanticHintThreshold != 0.7 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.MinSessionScore != 20 || p.MinNetworkingScore != 15 || p.SemanticHintBonus != 5 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestScoringPolicyOverrides(t *testing.T) {
	t.Parallel()
	p := ScoringConfig{
		FavoriteBonus:         60,
		MinSessionScore:       30,
		AdvisorConfidenceMin:  90,
		SemanticHintThreshold: 0.5,
	}.Policy()
	if p.FavoriteBonus != 60 || p.MinSessionScore != 30 || p.AdvisorConfidenceMin != 90 || p.SemanticHintThreshold != 0.5 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if p.MinNetworkingScore != 15 || p.SemanticHintBonus != 5 {
		t.Fatalf("untouched fields should keep defaults: %+v", p)
	}
}

func TestScoringValidate(t *testing.T) {
	t.Parallel()
	if err := (ScoringConfig{SemanticHintThreshold: 1.5}).Validate(); err == nil {
		t.Fatalf("expected threshold range error")
	}
	if err := (ScoringConfig{AdvisorConfidenceMin: 120}).Validate(); err == nil {
		t.Fatalf("expected confidence range error")
	}
	if err := (ScoringConfig{MinSessionScore: -1}).Validate(); err == nil {
		t.Fatalf("expected negative minimum error")
	}
	if err := (ScoringConfig{SemanticHintThreshold: 0.7, AdvisorConfidenceMin: 80}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	t.Parallel()
	p := PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "confpilot"}
	want := "postgres://u:p@db:5432/confpilot?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	p.URL = "postgres://explicit"
	if got := p.DSN(); got != "postgres://explicit" {
		t.Fatalf("url should win: %q", got)
	}
}
