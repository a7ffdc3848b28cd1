package agenda

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DayBuilder fills a single calendar day with schedule items. One builder
// serves every strategy: the scorer is required, semantic hints (from the
// relevance oracle) and advisory input are optional and arrive from the
// engine, so their absence silently degrades to keyword scoring.
type DayBuilder struct {
	scorer *Scorer
	opts   AgendaOptions
	logger *log.Logger
}

// NewDayBuilder builds a day builder with normalized options.
func NewDayBuilder(scorer *Scorer, opts AgendaOptions) *DayBuilder {
	return &DayBuilder{
		scorer: scorer,
		opts:   opts.Normalize(),
		logger: log.New(log.Writer(), "[BUILDER] ", log.LstdFlags),
	}
}

type timeRange struct {
	start, end time.Time
}

func (r timeRange) overlaps(start, end time.Time) bool {
	return r.start.Before(end) && start.Before(r.end)
}

// Build assembles the schedule for one day. sessions must all start on the
// given date; hints maps session id to a semantic similarity in [0,1] and may
// be nil.
func (b *DayBuilder) Build(date time.Time, sessions []Session, profile UserProfile, hints map[string]float64) DaySchedule {
	var items []ScheduleItem
	var blocked []timeRange
	used := make(map[string]bool, len(sessions))
	favoriteIDs := toSet(profile.FavoriteSessionIDs)
	speakerIDs := toSet(profile.FavoriteSpeakerIDs)

	hint := func(id string) float64 {
		if hints == nil {
			return -1
		}
		if v, ok := hints[id]; ok {
			return v
		}
		return -1
	}

	// Pass 1: favorites are placed unconditionally. Overlaps among favorites
	// are deliberate and kept; every favorite's range blocks later passes.
	favorites := make([]Session, 0)
	for _, s := range sessions {
		if favoriteIDs[s.ID] {
			favorites = append(favorites, s)
		}
	}
	sort.SliceStable(favorites, func(i, j int) bool { return favorites[i].StartTime.Before(favorites[j].StartTime) })
	for _, s := range favorites {
		sc := b.scorer.Score(s, profile, hint(s.ID))
		items = append(items, b.sessionItem(s, SourceFavorite, sc))
		used[s.ID] = true
		blocked = append(blocked, timeRange{s.StartTime, s.EndTime})
	}

	// Pass 2: sessions featuring a favorited speaker, when nothing conflicts.
	for _, s := range sessions {
		if used[s.ID] || !hasFavoriteSpeaker(s, speakerIDs) {
			continue
		}
		if b.conflictsWithPlaced(items, blocked, s) || b.sessionCount(items) >= b.opts.MaxSessionsPerDay {
			continue
		}
		sc := b.scorer.Score(s, profile, hint(s.ID))
		sc.Reasons = append([]string{"features a favorite speaker"}, sc.Reasons...)
		items = append(items, b.sessionItem(s, SourceSuggested, sc))
		used[s.ID] = true
	}

	// Pass 3: scored fill over hourly slots.
	items = b.scoredFill(date, sessions, profile, items, blocked, used, hint)

	// Pass 4: meals.
	if b.opts.IncludeMeals {
		items = b.insertMeals(date, items)
	}

	// Pass 5: remaining multi-hour gaps get the best-fitting leftover session.
	items = b.fillGaps(date, sessions, profile, items, used, hint)

	// Pass 6: travel buffers where venue distance eats into the gap.
	items = b.insertTravelBuffers(items)

	day := finalizeDay(date, items)
	b.logger.Printf("built %s: %d sessions (%d favorites, %d suggested)",
		date.Format("2006-01-02"), day.Stats.Sessions, day.Stats.Favorites, day.Stats.Suggested)
	return day
}

// scoredFill walks the day's hourly slots and places the single best eligible
// candidate per slot, marking every slot a placed session spans as used.
func (b *DayBuilder) scoredFill(date time.Time, sessions []Session, profile UserProfile, items []ScheduleItem, blocked []timeRange, used map[string]bool, hint func(string) float64) []ScheduleItem {
	dayStart := atClock(date, b.opts.StartTime)
	dayEnd := atClock(date, b.opts.EndTime)
	networkingChosen := b.hasNetworking(items)

	for slot := dayStart; slot.Before(dayEnd); slot = slot.Add(time.Hour) {
		slotEnd := slot.Add(time.Hour)
		if b.slotTaken(items, slot, slotEnd) {
			continue
		}
		if b.sessionCount(items) >= b.opts.MaxSessionsPerDay {
			break
		}

		var best *Session
		var bestScore ScoreResult
		for i := range sessions {
			s := sessions[i]
			if used[s.ID] || !b.trackAllowed(s.Track) {
				continue
			}
			if s.StartTime.Before(slot) || !s.StartTime.Before(slotEnd) {
				continue
			}
			if b.conflictsWithPlaced(items, blocked, s) {
				continue
			}
			sc := b.scorer.Score(s, profile, hint(s.ID))
			if b.preferredTrack(s.Track) {
				sc.Score += 10
				sc.Reasons = append(sc.Reasons, "preferred track")
			}
			threshold := b.opts.Scoring.MinSessionScore
			if b.scorer.IsNetworking(s) {
				threshold = b.opts.Scoring.MinNetworkingScore
			}
			if sc.Score < threshold {
				continue
			}
			// Ties keep the earlier catalog entry.
			if best == nil || sc.Score > bestScore.Score {
				best, bestScore = &sessions[i], sc
			}
		}
		if best != nil {
			items = append(items, b.sessionItem(*best, SourceSuggested, bestScore))
			used[best.ID] = true
			if b.scorer.IsNetworking(*best) {
				networkingChosen = true
			}
		}
	}

	// Favor one end-of-day social event per day; it is exempt from the cap.
	if !networkingChosen {
		items = b.addEveningNetworking(sessions, profile, items, blocked, used, hint)
	}
	return items
}

func (b *DayBuilder) addEveningNetworking(sessions []Session, profile UserProfile, items []ScheduleItem, blocked []timeRange, used map[string]bool, hint func(string) float64) []ScheduleItem {
	var best *Session
	var bestScore ScoreResult
	for i := range sessions {
		s := sessions[i]
		if used[s.ID] || s.StartTime.Hour() < 17 || !b.scorer.IsNetworking(s) {
			continue
		}
		if b.conflictsWithPlaced(items, blocked, s) {
			continue
		}
		sc := b.scorer.Score(s, profile, hint(s.ID))
		if sc.Score < b.opts.Scoring.MinNetworkingScore {
			continue
		}
		if best == nil || sc.Score > bestScore.Score {
			best, bestScore = &sessions[i], sc
		}
	}
	if best != nil {
		bestScore.Reasons = append(bestScore.Reasons, "end-of-day networking pick")
		items = append(items, b.sessionItem(*best, SourceSuggested, bestScore))
		used[best.ID] = true
	}
	return items
}

// insertMeals adds breakfast/lunch/dinner items where the day's bounds call
// for them and nothing occupies the window yet.
func (b *DayBuilder) insertMeals(date time.Time, items []ScheduleItem) []ScheduleItem {
	dayStart := atClock(date, b.opts.StartTime)
	dayEnd := atClock(date, b.opts.EndTime)

	lunchStart := time.Date(date.Year(), date.Month(), date.Day(), lunchStartHour, 0, 0, 0, date.Location())
	lunchEnd := time.Date(date.Year(), date.Month(), date.Day(), lunchEndHour, 0, 0, 0, date.Location())
	if !b.windowTaken(items, lunchStart, lunchEnd) {
		items = append(items, mealItem("Lunch Break", lunchStart, lunchEnd))
	}

	if !dayStart.After(time.Date(date.Year(), date.Month(), date.Day(), 8, 0, 0, 0, date.Location())) {
		bStart := time.Date(date.Year(), date.Month(), date.Day(), 8, 0, 0, 0, date.Location())
		bEnd := bStart.Add(45 * time.Minute)
		if !b.windowTaken(items, bStart, bEnd) {
			items = append(items, mealItem("Breakfast", bStart, bEnd))
		}
	}

	dStart := time.Date(date.Year(), date.Month(), date.Day(), 19, 0, 0, 0, date.Location())
	if !dayEnd.Before(dStart.Add(time.Hour)) {
		dEnd := dStart.Add(time.Hour)
		if !b.windowTaken(items, dStart, dEnd) {
			items = append(items, mealItem("Dinner", dStart, dEnd))
		}
	}
	return items
}

// fillGaps matches remaining multi-hour gaps against unused candidates using
// the same scorer, preferring sessions whose cognitive load suits the
// attendee's energy at that hour. A gap with no qualifying candidate is left
// open rather than force-filled.
func (b *DayBuilder) fillGaps(date time.Time, sessions []Session, profile UserProfile, items []ScheduleItem, used map[string]bool, hint func(string) float64) []ScheduleItem {
	if len(items) < 2 {
		return items
	}
	sorted := append([]ScheduleItem(nil), items...)
	sortItems(sorted)

	for i := 0; i+1 < len(sorted); i++ {
		gapStart, gapEnd := sorted[i].EndTime, sorted[i+1].StartTime
		if gapEnd.Sub(gapStart) < 2*time.Hour {
			continue
		}
		if b.sessionCount(items) >= b.opts.MaxSessionsPerDay {
			break
		}
		if best := b.bestForGap(sessions, profile, used, hint, gapStart, gapEnd); best != nil {
			sc := b.scorer.Score(*best, profile, hint(best.ID))
			sc.Reasons = append(sc.Reasons, "fills an open gap")
			items = append(items, b.sessionItem(*best, SourceSuggested, sc))
			used[best.ID] = true
		}
	}
	return items
}

func (b *DayBuilder) bestForGap(sessions []Session, profile UserProfile, used map[string]bool, hint func(string) float64, gapStart, gapEnd time.Time) *Session {
	var best *Session
	var bestFit float64
	for i := range sessions {
		s := sessions[i]
		if used[s.ID] || !b.trackAllowed(s.Track) {
			continue
		}
		if s.StartTime.Before(gapStart) || s.EndTime.After(gapEnd) {
			continue
		}
		sc := b.scorer.Score(s, profile, hint(s.ID))
		if sc.Score < b.opts.Scoring.MinSessionScore {
			continue
		}
		// Energy-aware: penalize load far from what this hour calls for.
		load := b.scorer.CognitiveLoad(s)
		optimal := OptimalLoad(b.opts.Energy, s.StartTime.Hour())
		fit := sc.Score - 0.2*abs(load-optimal)
		if best == nil || fit > bestFit {
			best, bestFit = &sessions[i], fit
		}
	}
	return best
}

// insertTravelBuffers adds a travel item between consecutive sessions whose
// venues are more than a trivial walk apart.
func (b *DayBuilder) insertTravelBuffers(items []ScheduleItem) []ScheduleItem {
	sorted := append([]ScheduleItem(nil), items...)
	sortItems(sorted)

	var out []ScheduleItem
	out = append(out, items...)
	var prev *ScheduleItem
	for i := range sorted {
		it := sorted[i]
		if it.Kind != ItemSession || it.Session == nil {
			continue
		}
		if prev != nil && !it.StartTime.Before(prev.EndTime) {
			d := Distance(prev.Session.Location, it.Session.Location)
			if d.WalkingMinutes > travelSafetyBuffer {
				end := prev.EndTime.Add(time.Duration(d.WalkingMinutes) * time.Minute)
				if end.After(it.StartTime) {
					end = it.StartTime
				}
				out = append(out, ScheduleItem{
					ID:             uuid.New().String(),
					Kind:           ItemTravel,
					Source:         SourceSystem,
					Title:          fmt.Sprintf("Walk to %s", it.Session.Location),
					StartTime:      prev.EndTime,
					EndTime:        end,
					FromLocation:   prev.Session.Location,
					ToLocation:     it.Session.Location,
					WalkingMinutes: d.WalkingMinutes,
				})
			}
		}
		prev = &sorted[i]
	}
	return out
}

func (b *DayBuilder) sessionItem(s Session, source ItemSource, sc ScoreResult) ScheduleItem {
	return ScheduleItem{
		ID:        uuid.New().String(),
		Kind:      ItemSession,
		Source:    source,
		Title:     s.Title,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Session:   cloneSession(s),
		Score:     sc.Score,
		Reasons:   sc.Reasons,
	}
}

func mealItem(title string, start, end time.Time) ScheduleItem {
	return ScheduleItem{
		ID:        uuid.New().String(),
		Kind:      ItemMeal,
		Source:    SourceSystem,
		Title:     title,
		StartTime: start,
		EndTime:   end,
	}
}

func (b *DayBuilder) conflictsWithPlaced(items []ScheduleItem, blocked []timeRange, s Session) bool {
	for _, r := range blocked {
		if r.overlaps(s.StartTime, s.EndTime) {
			return true
		}
	}
	for _, it := range items {
		if it.Kind == ItemSession && it.Overlaps(ScheduleItem{StartTime: s.StartTime, EndTime: s.EndTime}) {
			return true
		}
	}
	return false
}

func (b *DayBuilder) slotTaken(items []ScheduleItem, start, end time.Time) bool {
	for _, it := range items {
		if it.Kind == ItemSession && it.StartTime.Before(end) && start.Before(it.EndTime) {
			return true
		}
	}
	return false
}

func (b *DayBuilder) windowTaken(items []ScheduleItem, start, end time.Time) bool {
	for _, it := range items {
		if it.StartTime.Before(end) && start.Before(it.EndTime) {
			return true
		}
	}
	return false
}

func (b *DayBuilder) sessionCount(items []ScheduleItem) int {
	n := 0
	for _, it := range items {
		if it.Kind == ItemSession {
			n++
		}
	}
	return n
}

func (b *DayBuilder) hasNetworking(items []ScheduleItem) bool {
	for _, it := range items {
		if it.Kind == ItemSession && it.Session != nil && b.scorer.IsNetworking(*it.Session) {
			return true
		}
	}
	return false
}

func (b *DayBuilder) trackAllowed(track string) bool {
	for _, t := range b.opts.AvoidTracks {
		if strings.EqualFold(t, track) {
			return false
		}
	}
	return true
}

func (b *DayBuilder) preferredTrack(track string) bool {
	for _, t := range b.opts.PreferredTracks {
		if strings.EqualFold(t, track) {
			return true
		}
	}
	return false
}

// finalizeDay sorts items and recomputes aggregate stats; every builder and
// repair step funnels through here so a DaySchedule is always consistent.
func finalizeDay(date time.Time, items []ScheduleItem) DaySchedule {
	sorted := append([]ScheduleItem(nil), items...)
	sortItems(sorted)

	var stats DayStats
	for _, it := range sorted {
		switch it.Kind {
		case ItemSession:
			stats.Sessions++
			switch it.Source {
			case SourceFavorite:
				stats.Favorites++
			case SourceSuggested:
				stats.Suggested++
			}
		case ItemMeal, ItemBreak:
			stats.BreakMinutes += int(it.EndTime.Sub(it.StartTime) / time.Minute)
		}
	}
	return DaySchedule{Date: date, Items: sorted, Stats: stats}
}

func atClock(date time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		t, _ = time.Parse("15:04", "09:00")
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

func hasFavoriteSpeaker(s Session, speakerIDs map[string]bool) bool {
	for _, sp := range s.Speakers {
		if speakerIDs[sp.ID] {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
