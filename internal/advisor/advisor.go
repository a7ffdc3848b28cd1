package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/helpers"
	"github.com/mohammad-safakhou/confpilot/provider"
)

// Advisor asks an LLM to reason about scheduling conflicts and finished
// agendas. Model output is untrusted: it is unwrapped from whatever prose or
// fences surround it, parsed, and schema-checked before anything reaches the
// engine. A response that fails any check is an error, and the engine's
// rule-based paths take over.
type Advisor struct {
	llm    provider.Provider
	logger *log.Logger
}

// New builds an advisor on top of an LLM provider.
func New(llm provider.Provider) *Advisor {
	return &Advisor{
		llm:    llm,
		logger: log.New(log.Writer(), "[ADVISOR] ", log.LstdFlags),
	}
}

const resolutionSystemPrompt = `You are a conference scheduling assistant resolving a conflict between two agenda items.

RULES:
1. Favor the attendee's explicit favorites over suggestions
2. Prefer swapping in a comparable session over removing one outright
3. Reason about content overlap, speakers and walking distance
4. Confidence reflects how certain you are the attendee would agree

RESPONSE FORMAT:
Respond ONLY with valid JSON in the following format:
{
  "type": "swap|remove|reschedule|accept",
  "action": "one-line description of what to do",
  "reasoning": "why this is the right call",
  "confidence": 0-100,
  "alternatives": ["optional", "session", "ids"],
  "impact": "what the attendee loses or gains"
}
Do not include any other text or explanation.`

const insightsSystemPrompt = `You are a conference scheduling assistant reviewing a finished personal agenda.

RULES:
1. Comment on balance, pacing and alignment with the attendee's goals
2. Suggestions must be actionable on-site, not generic advice
3. Never invent sessions that are not on the agenda

RESPONSE FORMAT:
Respond ONLY with valid JSON in the following format:
{
  "reasoning": "overall assessment",
  "insights": ["array", "of", "observations"],
  "suggestions": ["array", "of", "actionable", "tips"],
  "confidence_score": 0-100
}
Do not include any other text or explanation.`

// SuggestResolution asks the model for a conflict resolution.
func (a *Advisor) SuggestResolution(ctx context.Context, conflict agenda.ConflictInfo, day agenda.DaySchedule, candidates []agenda.Session, profile agenda.UserProfile) (agenda.Resolution, error) {
	userPrompt := fmt.Sprintf(`CONFLICT:
Type: %s
Description: %s
Sessions involved: %s

DAY SCHEDULE:
%s

AVAILABLE ALTERNATIVES:
%s

ATTENDEE:
Role: %s
Organization: %s
Interests: %s
Goals: %s`,
		conflict.Type, conflict.Description, strings.Join(conflict.SessionIDs, ", "),
		describeDay(day),
		describeCandidates(candidates),
		profile.Role, profile.OrganizationType,
		strings.Join(profile.Interests, ", "), strings.Join(profile.Goals, ", "))

	raw, err := a.llm.Generate(ctx, resolutionSystemPrompt, userPrompt)
	if err != nil {
		return agenda.Resolution{}, fmt.Errorf("resolution generation failed: %w", err)
	}
	return parseResolution(raw)
}

// AgendaInsights asks the model for commentary on the finished agenda.
func (a *Advisor) AgendaInsights(ctx context.Context, ag agenda.Agenda, profile agenda.UserProfile) (agenda.Insights, error) {
	var days []string
	for _, day := range ag.Days {
		days = append(days, describeDay(day))
	}
	userPrompt := fmt.Sprintf(`AGENDA (%d days):
%s

METRICS:
Favorites included: %d of %d
Suggestions added: %d
Conflicts resolved: %d

ATTENDEE:
Role: %s
Organization: %s
Interests: %s
Goals: %s`,
		len(ag.Days), strings.Join(days, "\n\n"),
		ag.Metrics.FavoritesIncluded, ag.Metrics.TotalFavorites,
		ag.Metrics.SuggestionsAdded, ag.Metrics.ConflictsResolved,
		profile.Role, profile.OrganizationType,
		strings.Join(profile.Interests, ", "), strings.Join(profile.Goals, ", "))

	raw, err := a.llm.Generate(ctx, insightsSystemPrompt, userPrompt)
	if err != nil {
		return agenda.Insights{}, fmt.Errorf("insights generation failed: %w", err)
	}
	return parseInsights(raw)
}

// parseResolution unwraps and validates a resolution response.
func parseResolution(raw string) (agenda.Resolution, error) {
	payload, err := helpers.ExtractJSON(raw)
	if err != nil {
		return agenda.Resolution{}, fmt.Errorf("no JSON in resolution response: %w", err)
	}
	var res agenda.Resolution
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return agenda.Resolution{}, fmt.Errorf("malformed resolution response: %w", err)
	}
	switch res.Type {
	case agenda.ResolveSwap, agenda.ResolveRemove, agenda.ResolveReschedule, agenda.ResolveAccept:
	default:
		return agenda.Resolution{}, fmt.Errorf("unknown resolution type %q", res.Type)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		return agenda.Resolution{}, fmt.Errorf("confidence %.1f out of range", res.Confidence)
	}
	if strings.TrimSpace(res.Reasoning) == "" {
		return agenda.Resolution{}, fmt.Errorf("resolution response missing reasoning")
	}
	return res, nil
}

// parseInsights unwraps and validates an insights response.
func parseInsights(raw string) (agenda.Insights, error) {
	payload, err := helpers.ExtractJSON(raw)
	if err != nil {
		return agenda.Insights{}, fmt.Errorf("no JSON in insights response: %w", err)
	}
	var ins agenda.Insights
	if err := json.Unmarshal([]byte(payload), &ins); err != nil {
		return agenda.Insights{}, fmt.Errorf("malformed insights response: %w", err)
	}
	if ins.ConfidenceScore < 0 || ins.ConfidenceScore > 100 {
		return agenda.Insights{}, fmt.Errorf("confidence score %.1f out of range", ins.ConfidenceScore)
	}
	if len(ins.Insights) == 0 && len(ins.Suggestions) == 0 {
		return agenda.Insights{}, fmt.Errorf("insights response carries no content")
	}
	return ins, nil
}

func describeDay(day agenda.DaySchedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", day.Date.Format("Mon Jan 2"))
	for _, it := range day.Items {
		switch it.Kind {
		case agenda.ItemSession:
			loc := ""
			if it.Session != nil && it.Session.Location != "" {
				loc = " @ " + it.Session.Location
			}
			fmt.Fprintf(&b, "\n  %s-%s [%s] %s%s",
				it.StartTime.Format("15:04"), it.EndTime.Format("15:04"), it.Source, it.Title, loc)
		case agenda.ItemMeal, agenda.ItemBreak:
			fmt.Fprintf(&b, "\n  %s-%s %s", it.StartTime.Format("15:04"), it.EndTime.Format("15:04"), it.Title)
		}
	}
	return b.String()
}

func describeCandidates(candidates []agenda.Session) string {
	if len(candidates) == 0 {
		return "none"
	}
	var lines []string
	for _, s := range candidates {
		lines = append(lines, fmt.Sprintf("%s: %q %s-%s @ %s [%s]",
			s.ID, s.Title, s.StartTime.Format("15:04"), s.EndTime.Format("15:04"), s.Location, s.Track))
	}
	return strings.Join(lines, "\n")
}
