package agenda

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Reviewer runs a post-hoc quality pass over a completed agenda: timing
// sanity, content balance, duplicates and essential elements. CRITICAL issues
// with a concrete target are fixed in place; everything else is surfaced.
type Reviewer struct {
	logger *log.Logger
}

// NewReviewer builds a reviewer.
func NewReviewer() *Reviewer {
	return &Reviewer{logger: log.New(log.Writer(), "[REVIEW] ", log.LstdFlags)}
}

const (
	issueEarlyStart     = "too-early"
	issueLateEnd        = "too-late"
	issueResidualOverlap = "residual-overlap"
	issueLongGap        = "long-gap"
	issueNoBreaks       = "no-breaks"
	issueOverloadedDay  = "overloaded-day"
	issueSparseDay      = "sparse-day"
	issueTrackSkew      = "track-skew"
	issueUnevenDays     = "uneven-days"
	issueDuplicate      = "duplicate-session"
	issueNearDuplicate  = "near-duplicate"
	issueMissingMeal    = "missing-meal"
	issueNoKeynote      = "no-keynote"
	issueNoNetworking   = "no-networking"
	issueNoOpening      = "no-opening"
)

// Review validates the agenda and applies safe fixes. It never fails: any
// internal panic is swallowed and the agenda is returned unreviewed with a
// note so presentation is never blocked.
func (r *Reviewer) Review(a Agenda) (out Agenda, report ReviewReport) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("review pass failed, returning agenda unreviewed: %v", rec)
			out = a
			report = ReviewReport{
				Confidence: 50,
				Notes:      []string{fmt.Sprintf("quality review skipped: %v", rec)},
			}
		}
	}()

	issues := r.collectIssues(a)
	fixed, remaining, agenda := r.autoFix(a, issues)

	confidence := 100.0
	for _, is := range remaining {
		switch is.Severity {
		case SeverityCritical:
			confidence -= 15
		case SeverityMajor:
			confidence -= 8
		case SeverityMinor:
			confidence -= 3
		}
	}
	confidence += float64(len(fixed)) // small credit for repaired issues
	confidence = clamp(confidence, 0, 100)

	return agenda, ReviewReport{Issues: remaining, Fixed: fixed, Confidence: confidence}
}

func (r *Reviewer) collectIssues(a Agenda) []ReviewIssue {
	var issues []ReviewIssue
	issues = append(issues, r.checkTiming(a)...)
	issues = append(issues, r.checkBalance(a)...)
	issues = append(issues, r.checkLogicalFlow(a)...)
	issues = append(issues, r.checkEssentials(a)...)
	return issues
}

func (r *Reviewer) checkTiming(a Agenda) []ReviewIssue {
	var issues []ReviewIssue
	for _, day := range a.Days {
		dayKey := day.Date.Format("2006-01-02")
		sessions := sessionItems(day)

		for _, it := range sessions {
			if it.StartTime.Hour() < 7 {
				issues = append(issues, ReviewIssue{
					Severity:    SeverityCritical,
					Type:        issueEarlyStart,
					Description: fmt.Sprintf("%q starts at %s, before 07:00", it.Title, it.StartTime.Format("15:04")),
					Day:         dayKey,
					SessionID:   it.SessionID(),
				})
			}
			if it.EndTime.Hour() >= 22 {
				issues = append(issues, ReviewIssue{
					Severity:    SeverityMajor,
					Type:        issueLateEnd,
					Description: fmt.Sprintf("%q runs until %s", it.Title, it.EndTime.Format("15:04")),
					Day:         dayKey,
					SessionID:   it.SessionID(),
				})
			}
		}

		consecutive := 0
		for i := 0; i+1 < len(sessions); i++ {
			cur, next := sessions[i], sessions[i+1]
			gap := next.StartTime.Sub(cur.EndTime)
			if gap < 0 {
				// Overlaps between two explicit favorites are intentional.
				if cur.Source == SourceFavorite && next.Source == SourceFavorite {
					continue
				}
				issues = append(issues, ReviewIssue{
					Severity:    SeverityCritical,
					Type:        issueResidualOverlap,
					Description: fmt.Sprintf("%q still overlaps %q after conflict resolution", cur.Title, next.Title),
					Day:         dayKey,
					SessionID:   next.SessionID(),
				})
			}
			if gap > 180*time.Minute {
				issues = append(issues, ReviewIssue{
					Severity:     SeverityMinor,
					Type:         issueLongGap,
					Description:  fmt.Sprintf("%d minute gap after %q", int(gap/time.Minute), cur.Title),
					Day:          dayKey,
					SuggestedFix: "consider adding a session or expo visit in the gap",
				})
			}
			if gap >= 0 && gap < 30*time.Minute {
				consecutive++
			} else {
				consecutive = 0
			}
			if consecutive >= 4 && len(sessions) > 8 {
				issues = append(issues, ReviewIssue{
					Severity:     SeverityMajor,
					Type:         issueNoBreaks,
					Description:  fmt.Sprintf("more than 4 back-to-back sessions around %q", next.Title),
					Day:          dayKey,
					SuggestedFix: "insert a break between long session runs",
				})
				consecutive = 0
			}
		}
	}
	return issues
}

func (r *Reviewer) checkBalance(a Agenda) []ReviewIssue {
	var issues []ReviewIssue
	trackCounts := map[string]int{}
	total := 0
	minDay, maxDay := -1, -1

	for _, day := range a.Days {
		dayKey := day.Date.Format("2006-01-02")
		n := day.Stats.Sessions
		total += n
		if minDay == -1 || n < minDay {
			minDay = n
		}
		if n > maxDay {
			maxDay = n
		}
		if n > 10 {
			issues = append(issues, ReviewIssue{
				Severity:     SeverityMajor,
				Type:         issueOverloadedDay,
				Description:  fmt.Sprintf("%d sessions scheduled on %s", n, dayKey),
				Day:          dayKey,
				SuggestedFix: "drop the lowest-scoring suggestions",
			})
		}
		if n < 4 {
			issues = append(issues, ReviewIssue{
				Severity:    SeverityMinor,
				Type:        issueSparseDay,
				Description: fmt.Sprintf("only %d sessions scheduled on %s", n, dayKey),
				Day:         dayKey,
			})
		}
		for _, it := range sessionItems(day) {
			if it.Session != nil && it.Session.Track != "" {
				trackCounts[strings.ToLower(it.Session.Track)]++
			}
		}
	}

	if total > 0 {
		for track, n := range trackCounts {
			if float64(n)/float64(total) > 0.6 {
				issues = append(issues, ReviewIssue{
					Severity:    SeverityMinor,
					Type:        issueTrackSkew,
					Description: fmt.Sprintf("track %q makes up %d of %d sessions", track, n, total),
				})
			}
		}
	}
	if len(a.Days) > 1 && maxDay-minDay > 5 {
		issues = append(issues, ReviewIssue{
			Severity:    SeverityMajor,
			Type:        issueUnevenDays,
			Description: fmt.Sprintf("session counts range from %d to %d across days", minDay, maxDay),
		})
	}
	return issues
}

func (r *Reviewer) checkLogicalFlow(a Agenda) []ReviewIssue {
	var issues []ReviewIssue
	for _, day := range a.Days {
		dayKey := day.Date.Format("2006-01-02")
		sessions := sessionItems(day)

		seen := map[string]bool{}
		for _, it := range sessions {
			key := strings.ToLower(strings.TrimSpace(it.Title))
			if seen[key] {
				issues = append(issues, ReviewIssue{
					Severity:    SeverityCritical,
					Type:        issueDuplicate,
					Description: fmt.Sprintf("%q appears twice on %s", it.Title, dayKey),
					Day:         dayKey,
					SessionID:   it.SessionID(),
				})
				continue
			}
			seen[key] = true
		}

		for i := 0; i < len(sessions); i++ {
			for j := i + 1; j < len(sessions); j++ {
				if strings.EqualFold(sessions[i].Title, sessions[j].Title) {
					continue // exact duplicates already flagged
				}
				if titleSimilarity(sessions[i].Title, sessions[j].Title) > 0.6 {
					issues = append(issues, ReviewIssue{
						Severity:    SeverityMinor,
						Type:        issueNearDuplicate,
						Description: fmt.Sprintf("%q and %q look like near-duplicates", sessions[i].Title, sessions[j].Title),
						Day:         dayKey,
					})
				}
			}
		}

		midday := 0
		hasMeal := false
		for _, it := range day.Items {
			if it.Kind == ItemMeal {
				hasMeal = true
			}
		}
		for _, it := range sessions {
			h := it.StartTime.Hour()
			if h >= 11 && h <= 14 {
				midday++
			}
		}
		if !hasMeal && midday >= 4 {
			issues = append(issues, ReviewIssue{
				Severity:     SeverityMajor,
				Type:         issueMissingMeal,
				Description:  fmt.Sprintf("%d sessions span midday on %s with no lunch break", midday, dayKey),
				Day:          dayKey,
				SuggestedFix: "insert a lunch break around 12:00",
			})
		}
	}
	return issues
}

func (r *Reviewer) checkEssentials(a Agenda) []ReviewIssue {
	var issues []ReviewIssue
	hasKeynote, hasNetworking, hasOpening := false, false, false
	for di, day := range a.Days {
		for _, it := range sessionItems(day) {
			text := strings.ToLower(it.Title)
			if it.Session != nil {
				text += " " + strings.ToLower(it.Session.Track)
			}
			if strings.Contains(text, "keynote") {
				hasKeynote = true
			}
			if it.Session != nil && isNetworkingSession(*it.Session) {
				hasNetworking = true
			}
			if di == 0 && (strings.Contains(text, "opening") || strings.Contains(text, "welcome")) {
				hasOpening = true
			}
		}
	}
	if !hasKeynote {
		issues = append(issues, ReviewIssue{Severity: SeverityMinor, Type: issueNoKeynote, Description: "no keynote anywhere on the agenda"})
	}
	if !hasNetworking {
		issues = append(issues, ReviewIssue{Severity: SeverityMinor, Type: issueNoNetworking, Description: "no networking or reception events on the agenda"})
	}
	if len(a.Days) > 0 && !hasOpening {
		issues = append(issues, ReviewIssue{Severity: SeverityMinor, Type: issueNoOpening, Description: "no opening or welcome session on day one"})
	}
	return issues
}

// autoFix removes the targets of CRITICAL issues and applies the mechanical
// MAJOR fixes (missing lunch). Favorites are never removed by review.
func (r *Reviewer) autoFix(a Agenda, issues []ReviewIssue) (fixed, remaining []ReviewIssue, out Agenda) {
	out = a
	out.Days = append([]DaySchedule(nil), a.Days...)

	for _, is := range issues {
		switch {
		case is.Severity == SeverityCritical && is.SessionID != "" && is.Day != "":
			di := dayIndex(out.Days, is.Day)
			if di < 0 {
				remaining = append(remaining, is)
				continue
			}
			if itemID, ok := removableItem(out.Days[di], is.SessionID); ok {
				out.Days[di] = removeItem(out.Days[di], itemID)
				fixed = append(fixed, is)
			} else {
				remaining = append(remaining, is)
			}
		case is.Type == issueMissingMeal && is.Day != "":
			di := dayIndex(out.Days, is.Day)
			if di < 0 {
				remaining = append(remaining, is)
				continue
			}
			day := out.Days[di]
			lunchStart := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), lunchStartHour, 0, 0, 0, day.Date.Location())
			items := append(append([]ScheduleItem(nil), day.Items...), mealItem("Lunch Break", lunchStart, lunchStart.Add(time.Hour)))
			out.Days[di] = finalizeDay(day.Date, items)
			fixed = append(fixed, is)
		default:
			remaining = append(remaining, is)
		}
	}
	return fixed, remaining, out
}

// removableItem finds the schedule item for a session id, refusing favorites.
func removableItem(day DaySchedule, sessionID string) (string, bool) {
	for _, it := range day.Items {
		if it.Kind == ItemSession && it.SessionID() == sessionID {
			if it.Source == SourceFavorite {
				return "", false
			}
			return it.ID, true
		}
	}
	return "", false
}

func dayIndex(days []DaySchedule, key string) int {
	for i, d := range days {
		if d.Date.Format("2006-01-02") == key {
			return i
		}
	}
	return -1
}

func sessionItems(day DaySchedule) []ScheduleItem {
	out := make([]ScheduleItem, 0, len(day.Items))
	for _, it := range day.Items {
		if it.Kind == ItemSession {
			out = append(out, it)
		}
	}
	return out
}
