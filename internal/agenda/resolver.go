package agenda

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Resolver picks and applies a resolution strategy for one detected conflict.
// A rule-based path always produces a valid resolution; the advisor, when
// present, is consulted first but its answer is only auto-applied above the
// confidence cutoff.
type Resolver struct {
	scorer  *Scorer
	advisor Advisor
	policy  ScoringPolicy
	logger  *log.Logger
}

// NewResolver builds a resolver. advisor may be nil.
func NewResolver(scorer *Scorer, advisor Advisor, policy ScoringPolicy) *Resolver {
	zero := ScoringPolicy{}
	if policy == zero {
		policy = DefaultScoringPolicy()
	}
	return &Resolver{
		scorer:  scorer,
		advisor: advisor,
		policy:  policy,
		logger:  log.New(log.Writer(), "[RESOLVER] ", log.LstdFlags),
	}
}

// Resolve decides how to handle the conflict and returns the resolution along
// with a new DaySchedule reflecting it. The input day is never mutated. A
// non-nil error reports an advisor failure; the rule-based resolution still
// stands in that case.
func (r *Resolver) Resolve(ctx context.Context, conflict ConflictInfo, day DaySchedule, available []Session, profile UserProfile) (Resolution, DaySchedule, error) {
	res := r.ruleBased(conflict, day, available, profile)

	var advisorErr error
	if r.advisor != nil {
		advised, err := r.advisor.SuggestResolution(ctx, conflict, day, available, profile)
		switch {
		case err != nil:
			advisorErr = err
			r.logger.Printf("advisor unavailable, using rule-based resolution: %v", err)
		case validResolution(advised) && advised.Confidence >= r.policy.AdvisorConfidenceMin:
			if r.wouldDropFavorite(advised, conflict, day) {
				// Favorites are a hard guarantee the advisor may not override.
				res.Reasoning = fmt.Sprintf("%s (advisor suggested %s, rejected: it would drop a favorite)",
					res.Reasoning, advised.Type)
			} else {
				res = advised
			}
		case validResolution(advised):
			// Low-confidence advice is surfaced, not applied.
			res.Alternatives = append(res.Alternatives, advised.Alternatives...)
			res.Reasoning = fmt.Sprintf("%s (advisor suggested %s at confidence %.0f, below cutoff)",
				res.Reasoning, advised.Type, advised.Confidence)
		}
	}

	updated := r.apply(res, conflict, day, available, profile)
	return res, updated, advisorErr
}

// wouldDropFavorite reports whether applying res would remove or replace an
// explicit user favorite.
func (r *Resolver) wouldDropFavorite(res Resolution, conflict ConflictInfo, day DaySchedule) bool {
	if res.Type == ResolveAccept {
		return false
	}
	a, b := r.conflictItems(conflict, day)
	if a == nil || b == nil {
		return false
	}
	return lowerPriority(a, b).Source == SourceFavorite
}

// ruleBased is the deterministic fallback strategy.
func (r *Resolver) ruleBased(conflict ConflictInfo, day DaySchedule, available []Session, profile UserProfile) Resolution {
	if conflict.Type == ConflictMeal {
		return Resolution{
			Type:       ResolveAccept,
			Action:     "schedule a meal break around the session",
			Reasoning:  "meal gaps are handled by the quality reviewer rather than by dropping sessions",
			Confidence: 70,
		}
	}

	a, b := r.conflictItems(conflict, day)
	if a == nil || b == nil {
		return Resolution{Type: ResolveAccept, Action: "no change", Reasoning: "conflicting items no longer on the schedule", Confidence: 50}
	}

	// Two explicit favorites are both intentional; keep them.
	if a.Source == SourceFavorite && b.Source == SourceFavorite {
		return Resolution{
			Type:       ResolveAccept,
			Action:     "keep both sessions",
			Reasoning:  "both sessions are user favorites; the overlap is intentional and left for the attendee to choose on the day",
			Confidence: 95,
		}
	}

	victim := lowerPriority(a, b)
	if alt := r.findAlternative(*victim, day, available, profile); alt != nil {
		return Resolution{
			Type:         ResolveSwap,
			Action:       fmt.Sprintf("replace %q with %q", victim.Title, alt.Title),
			Reasoning:    "a comparable session fits the same slot without the conflict",
			Confidence:   85,
			Alternatives: []string{alt.ID},
		}
	}
	return Resolution{
		Type:       ResolveRemove,
		Action:     fmt.Sprintf("remove %q", victim.Title),
		Reasoning:  "no alternative fits the slot; dropping the lower-priority session",
		Confidence: 80,
	}
}

// apply rewrites the day according to the chosen resolution.
func (r *Resolver) apply(res Resolution, conflict ConflictInfo, day DaySchedule, available []Session, profile UserProfile) DaySchedule {
	switch res.Type {
	case ResolveAccept:
		return day
	case ResolveReschedule:
		// Rescheduling into open slots is not implemented; fall through to a
		// removal of the lower-priority item so the schedule stays usable.
		fallthrough
	case ResolveRemove:
		a, b := r.conflictItems(conflict, day)
		if a == nil || b == nil {
			return day
		}
		victim := lowerPriority(a, b)
		if victim.Source == SourceFavorite {
			return day
		}
		return removeItem(day, victim.ID)
	case ResolveSwap:
		a, b := r.conflictItems(conflict, day)
		if a == nil || b == nil || len(res.Alternatives) == 0 {
			return day
		}
		victim := lowerPriority(a, b)
		if victim.Source == SourceFavorite {
			return day
		}
		for _, s := range available {
			if s.ID != res.Alternatives[0] {
				continue
			}
			sc := r.scorer.Score(s, profile, -1)
			return swapItem(day, victim.ID, ScheduleItem{
				ID:        s.ID,
				Kind:      ItemSession,
				Source:    SourceSuggested,
				Title:     s.Title,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Session:   cloneSession(s),
				Score:     sc.Score,
				Reasons:   sc.Reasons,
			})
		}
		return removeItem(day, victim.ID)
	default:
		return day
	}
}

// conflictItems maps the conflict's session ids back onto schedule items.
func (r *Resolver) conflictItems(conflict ConflictInfo, day DaySchedule) (*ScheduleItem, *ScheduleItem) {
	var a, b *ScheduleItem
	for i := range day.Items {
		it := &day.Items[i]
		if it.Kind != ItemSession {
			continue
		}
		if len(conflict.SessionIDs) > 0 && it.SessionID() == conflict.SessionIDs[0] && a == nil {
			a = it
		} else if len(conflict.SessionIDs) > 1 && it.SessionID() == conflict.SessionIDs[1] && b == nil {
			b = it
		}
	}
	return a, b
}

// lowerPriority picks which of two conflicting items should give way:
// favorites always win, then the lower-scored item loses.
func lowerPriority(a, b *ScheduleItem) *ScheduleItem {
	if a.Source == SourceFavorite && b.Source != SourceFavorite {
		return b
	}
	if b.Source == SourceFavorite && a.Source != SourceFavorite {
		return a
	}
	if a.Score <= b.Score {
		return a
	}
	return b
}

// findAlternative searches available sessions for a same-slot replacement with
// overlapping content, using plain keyword similarity on titles and tracks.
func (r *Resolver) findAlternative(victim ScheduleItem, day DaySchedule, available []Session, profile UserProfile) *Session {
	if victim.Session == nil {
		return nil
	}
	placed := make(map[string]bool, len(day.Items))
	for _, it := range day.Items {
		if id := it.SessionID(); id != "" {
			placed[id] = true
		}
	}

	type candidate struct {
		s     Session
		score float64
	}
	var best *candidate
	for _, s := range available {
		if placed[s.ID] || s.ID == victim.Session.ID {
			continue
		}
		// Must fit the vacated slot without creating a new overlap.
		fitsSlot := s.StartTime.Equal(victim.StartTime) ||
			(!s.StartTime.Before(victim.StartTime) && !s.EndTime.After(victim.EndTime))
		if !fitsSlot {
			continue
		}
		if overlapsOther(day, s, victim.ID) {
			continue
		}
		sim := titleSimilarity(victim.Session.Title, s.Title)
		if strings.EqualFold(victim.Session.Track, s.Track) {
			sim += 0.3
		}
		if sim < 0.2 {
			continue
		}
		sc := r.scorer.Score(s, profile, -1)
		total := sc.Score + sim*20
		if best == nil || total > best.score {
			best = &candidate{s: s, score: total}
		}
	}
	if best == nil {
		return nil
	}
	out := best.s
	return &out
}

func overlapsOther(day DaySchedule, s Session, skipItemID string) bool {
	for _, it := range day.Items {
		if it.Kind != ItemSession || it.ID == skipItemID {
			continue
		}
		if s.StartTime.Before(it.EndTime) && it.StartTime.Before(s.EndTime) {
			return true
		}
	}
	return false
}

// titleSimilarity is word-overlap Jaccard similarity over lowercased titles.
func titleSimilarity(a, b string) float64 {
	wa := strings.Fields(strings.ToLower(a))
	wb := strings.Fields(strings.ToLower(b))
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(wa))
	for _, w := range wa {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wb))
	for _, w := range wb {
		setB[w] = true
	}
	inter := 0
	for w := range setB {
		if setA[w] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func validResolution(res Resolution) bool {
	switch res.Type {
	case ResolveSwap, ResolveRemove, ResolveReschedule, ResolveAccept:
	default:
		return false
	}
	return res.Confidence >= 0 && res.Confidence <= 100
}

func removeItem(day DaySchedule, itemID string) DaySchedule {
	items := make([]ScheduleItem, 0, len(day.Items))
	for _, it := range day.Items {
		if it.ID == itemID {
			continue
		}
		items = append(items, it)
	}
	return finalizeDay(day.Date, items)
}

func swapItem(day DaySchedule, itemID string, replacement ScheduleItem) DaySchedule {
	items := make([]ScheduleItem, 0, len(day.Items))
	for _, it := range day.Items {
		if it.ID == itemID {
			continue
		}
		items = append(items, it)
	}
	items = append(items, replacement)
	return finalizeDay(day.Date, items)
}

func cloneSession(s Session) *Session {
	c := s
	if len(s.Speakers) > 0 {
		c.Speakers = append([]Speaker(nil), s.Speakers...)
	}
	if len(s.Tags) > 0 {
		c.Tags = append([]string(nil), s.Tags...)
	}
	return &c
}

// sortItems orders items stably by start time, favorites first on exact ties
// so intentionally overlapping favorites display deterministically.
func sortItems(items []ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].Source == SourceFavorite && items[j].Source != SourceFavorite
		}
		return items[i].StartTime.Before(items[j].StartTime)
	})
}
