package agenda

import (
	"fmt"
	"sort"
	"time"
)

// Canonical lunch window used by meal checks.
const (
	lunchStartHour = 12
	lunchEndHour   = 13
)

// DetectConflicts scans one day's items and reports violations. It never
// mutates its input and is idempotent: the same schedule yields the same
// conflicts in the same order.
func DetectConflicts(day DaySchedule) []ConflictInfo {
	items := make([]ScheduleItem, len(day.Items))
	copy(items, day.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].StartTime.Before(items[j].StartTime) })

	var conflicts []ConflictInfo
	sessions := make([]ScheduleItem, 0, len(items))
	for _, it := range items {
		if it.Kind == ItemSession {
			sessions = append(sessions, it)
		}
	}

	for i := 0; i+1 < len(sessions); i++ {
		cur, next := sessions[i], sessions[i+1]
		if cur.EndTime.After(next.StartTime) {
			conflicts = append(conflicts, ConflictInfo{
				Type:       ConflictTimeOverlap,
				SessionIDs: []string{cur.SessionID(), next.SessionID()},
				Description: fmt.Sprintf("%q (ends %s) overlaps %q (starts %s)",
					cur.Title, cur.EndTime.Format("15:04"), next.Title, next.StartTime.Format("15:04")),
			})
			continue
		}
		gap := int(next.StartTime.Sub(cur.EndTime) / time.Minute)
		if cur.Session == nil || next.Session == nil {
			continue
		}
		if !HasEnoughTravelTime(cur.Session.Location, next.Session.Location, gap) {
			need := Distance(cur.Session.Location, next.Session.Location).WalkingMinutes + travelSafetyBuffer
			conflicts = append(conflicts, ConflictInfo{
				Type:       ConflictVenueDistance,
				SessionIDs: []string{cur.SessionID(), next.SessionID()},
				Description: fmt.Sprintf("only %d min to get from %s to %s, need %d min (short by %d)",
					gap, cur.Session.Location, next.Session.Location, need, need-gap),
			})
		}
	}

	if c, found := detectMealConflict(items, sessions); found {
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// detectMealConflict flags a session squatting on the lunch hour when the day
// has no meal item anywhere.
func detectMealConflict(items, sessions []ScheduleItem) (ConflictInfo, bool) {
	for _, it := range items {
		if it.Kind == ItemMeal {
			return ConflictInfo{}, false
		}
	}
	for _, s := range sessions {
		if occupiesLunch(s.StartTime, s.EndTime) {
			return ConflictInfo{
				Type:        ConflictMeal,
				SessionIDs:  []string{s.SessionID()},
				Description: fmt.Sprintf("%q occupies the lunch window and no meal break is scheduled", s.Title),
			}, true
		}
	}
	return ConflictInfo{}, false
}

func occupiesLunch(start, end time.Time) bool {
	lunchStart := time.Date(start.Year(), start.Month(), start.Day(), lunchStartHour, 0, 0, 0, start.Location())
	lunchEnd := time.Date(start.Year(), start.Month(), start.Day(), lunchEndHour, 0, 0, 0, start.Location())
	return start.Before(lunchEnd) && lunchStart.Before(end)
}
