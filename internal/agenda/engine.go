package agenda

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxRepairRounds bounds the detect/resolve loop per day.
const maxRepairRounds = 3

// advisorFallbackWarning marks a run where the advisor failed and the
// rule-based path carried the agenda instead.
const advisorFallbackWarning = "advisor unavailable; agenda built with heuristic scoring only"

// Engine runs one scheduling request end to end: per-day builds, conflict
// repair, assembly, and the final quality pass. The oracle and advisor are
// optional collaborators; either failing degrades the run, never aborts it.
type Engine struct {
	scorer   *Scorer
	oracle   Oracle
	advisor  Advisor
	reviewer *Reviewer
	logger   *log.Logger
}

// NewEngine wires an engine from its strategy parts. oracle and advisor may
// be nil.
func NewEngine(scorer *Scorer, oracle Oracle, advisor Advisor) *Engine {
	if scorer == nil {
		scorer = NewScorer(DefaultScoringPolicy())
	}
	return &Engine{
		scorer:   scorer,
		oracle:   oracle,
		advisor:  advisor,
		reviewer: NewReviewer(),
		logger:   log.New(log.Writer(), "[ENGINE] ", log.LstdFlags),
	}
}

// BuildAgenda produces the full multi-day agenda for one attendee. Only an
// InputError aborts the run; everything else degrades with warnings.
func (e *Engine) BuildAgenda(ctx context.Context, profile UserProfile, catalog []Session, opts AgendaOptions) (Agenda, error) {
	if strings.TrimSpace(profile.ID) == "" {
		return Agenda{}, NewInputError("user profile is missing an id")
	}
	if len(catalog) == 0 {
		return Agenda{}, NewInputError("session catalog is empty")
	}
	opts = opts.Normalize()
	start := time.Now()

	agenda := Agenda{
		ID:        uuid.New().String(),
		UserID:    profile.ID,
		CreatedAt: time.Now().UTC(),
	}

	hints, warning := e.semanticHints(ctx, profile, catalog)
	if warning != "" {
		agenda.Warnings = append(agenda.Warnings, warning)
	}

	days := groupByDay(catalog)
	builder := NewDayBuilder(e.scorer, opts)
	resolver := NewResolver(e.scorer, e.advisor, opts.Scoring)

	// Days are independent; build them concurrently.
	type dayResult struct {
		idx       int
		schedule  DaySchedule
		conflicts []ConflictInfo
		warnings  []string
		resolved  int
	}
	results := make([]dayResult, len(days))
	var wg sync.WaitGroup
	for i, day := range days {
		wg.Add(1)
		go func(i int, date time.Time, sessions []Session) {
			defer wg.Done()
			schedule := builder.Build(date, sessions, profile, hints)
			schedule, conflicts, resolved, warns := e.repair(ctx, resolver, schedule, sessions, profile)
			results[i] = dayResult{idx: i, schedule: schedule, conflicts: conflicts, warnings: warns, resolved: resolved}
		}(i, day.date, day.sessions)
	}
	wg.Wait()

	for _, res := range results {
		agenda.Days = append(agenda.Days, res.schedule)
		agenda.Conflicts = append(agenda.Conflicts, res.conflicts...)
		for _, w := range res.warnings {
			agenda.Warnings = appendUnique(agenda.Warnings, w)
		}
		agenda.Metrics.ConflictsResolved += res.resolved
	}

	e.fillMetrics(&agenda, profile)
	agenda.UsingAdvisor = e.advisor != nil && !hasAdvisorWarning(agenda.Warnings)

	if e.advisor != nil {
		e.attachInsights(ctx, &agenda, profile)
	}

	reviewed, report := e.reviewer.Review(agenda)
	agenda = reviewed
	agenda.Metrics.Confidence = report.Confidence
	agenda.Warnings = append(agenda.Warnings, report.Notes...)
	for _, is := range report.Issues {
		if is.Severity != SeverityMinor {
			agenda.Warnings = append(agenda.Warnings, fmt.Sprintf("review: %s", is.Description))
		}
		if is.SuggestedFix != "" {
			agenda.Suggestions = append(agenda.Suggestions, is.SuggestedFix)
		}
	}

	e.logger.Printf("built agenda %s for user %s: %d days, %d conflicts, confidence %.0f in %v",
		agenda.ID, profile.ID, len(agenda.Days), len(agenda.Conflicts), agenda.Metrics.Confidence, time.Since(start))
	return agenda, nil
}

// repair runs the detect/resolve loop for one day until no resolvable
// conflicts remain or the round budget is spent. Accepted conflicts stay on
// the agenda for display.
func (e *Engine) repair(ctx context.Context, resolver *Resolver, day DaySchedule, sessions []Session, profile UserProfile) (DaySchedule, []ConflictInfo, int, []string) {
	var kept []ConflictInfo
	var warnings []string
	resolved := 0

	for round := 0; round < maxRepairRounds; round++ {
		conflicts := DetectConflicts(day)
		if len(conflicts) == 0 {
			break
		}
		progressed := false
		for i := range conflicts {
			c := conflicts[i]
			if alreadyKept(kept, c) {
				continue
			}
			res, updated, advErr := resolver.Resolve(ctx, c, day, sessions, profile)
			if advErr != nil {
				warnings = appendUnique(warnings, advisorFallbackWarning)
			}
			res.Applied = res.Type != ResolveAccept
			c.Resolution = &res
			c.Alternatives = res.Alternatives
			if res.Type == ResolveAccept {
				kept = append(kept, c)
				continue
			}
			day = updated
			resolved++
			progressed = true
			break // re-detect against the rewritten day
		}
		if !progressed {
			break
		}
	}
	return day, kept, resolved, warnings
}

// semanticHints queries the relevance oracle once per run and converts hits
// into per-session similarity hints. Oracle failure is a degraded mode, not
// an error.
func (e *Engine) semanticHints(ctx context.Context, profile UserProfile, catalog []Session) (map[string]float64, string) {
	if e.oracle == nil {
		return nil, ""
	}
	query := strings.Join(append(append([]string{}, profile.Interests...), profile.Goals...), " ")
	if strings.TrimSpace(query) == "" {
		return nil, ""
	}
	hits, err := e.oracle.Search(ctx, query, nil, len(catalog))
	if err != nil {
		e.logger.Printf("relevance oracle unavailable, falling back to keyword scoring: %v", err)
		return nil, "semantic search unavailable; using keyword matching only"
	}
	hints := make(map[string]float64, len(hits))
	for _, h := range hits {
		hints[h.SessionID] = h.Score
	}
	return hints, ""
}

// attachInsights asks the advisor for free-form commentary on the finished
// agenda. Any failure appends a warning and nothing else.
func (e *Engine) attachInsights(ctx context.Context, agenda *Agenda, profile UserProfile) {
	ins, err := e.advisor.AgendaInsights(ctx, *agenda, profile)
	if err != nil {
		e.logger.Printf("advisor insights failed: %v", err)
		agenda.Warnings = append(agenda.Warnings, advisorFallbackWarning)
		agenda.UsingAdvisor = false
		return
	}
	agenda.Suggestions = append(agenda.Suggestions, ins.Suggestions...)
	agenda.Suggestions = append(agenda.Suggestions, ins.Insights...)
}

func (e *Engine) fillMetrics(agenda *Agenda, profile UserProfile) {
	placedFavorites := map[string]bool{}
	for _, day := range agenda.Days {
		for _, it := range day.Items {
			if it.Kind != ItemSession {
				continue
			}
			if it.Source == SourceFavorite {
				placedFavorites[it.SessionID()] = true
			}
			if it.Source == SourceSuggested {
				agenda.Metrics.SuggestionsAdded++
			}
		}
	}
	agenda.Metrics.TotalFavorites = len(profile.FavoriteSessionIDs)
	agenda.Metrics.FavoritesIncluded = len(placedFavorites)
	agenda.Metrics.ProfileCompleteness = profile.Completeness()
}

type catalogDay struct {
	date     time.Time
	sessions []Session
}

// groupByDay buckets the catalog into calendar days ordered by date.
func groupByDay(catalog []Session) []catalogDay {
	buckets := map[string][]Session{}
	for _, s := range catalog {
		key := s.StartTime.Format("2006-01-02")
		buckets[key] = append(buckets[key], s)
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]catalogDay, 0, len(keys))
	for _, k := range keys {
		sessions := buckets[k]
		date := time.Date(sessions[0].StartTime.Year(), sessions[0].StartTime.Month(), sessions[0].StartTime.Day(), 0, 0, 0, 0, sessions[0].StartTime.Location())
		days = append(days, catalogDay{date: date, sessions: sessions})
	}
	return days
}

func alreadyKept(kept []ConflictInfo, c ConflictInfo) bool {
	for _, k := range kept {
		if k.Type == c.Type && equalIDs(k.SessionIDs, c.SessionIDs) {
			return true
		}
	}
	return false
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// appendUnique appends w unless it is already present.
func appendUnique(warnings []string, w string) []string {
	for _, existing := range warnings {
		if existing == w {
			return warnings
		}
	}
	return append(warnings, w)
}

func hasAdvisorWarning(warnings []string) bool {
	for _, w := range warnings {
		if strings.Contains(w, "advisor unavailable") {
			return true
		}
	}
	return false
}
