package agenda

import (
	"context"
	"time"
)

// UserProfile is the attendee snapshot a scheduling run works from.
// It is owned by the caller and read-only to the engine.
type UserProfile struct {
	ID                 string   `json:"id"`
	Role               string   `json:"role"`
	OrganizationType   string   `json:"organization_type"`
	Company            string   `json:"company,omitempty"`
	Interests          []string `json:"interests"`
	Goals              []string `json:"goals,omitempty"`
	FavoriteSessionIDs []string `json:"favorite_session_ids"`
	FavoriteSpeakerIDs []string `json:"favorite_speaker_ids"`
}

// Completeness reports the fraction of populated profile fields, used for the
// agenda's profile_completeness metric.
func (p UserProfile) Completeness() float64 {
	total, filled := 6.0, 0.0
	if p.Role != "" {
		filled++
	}
	if p.OrganizationType != "" {
		filled++
	}
	if len(p.Interests) > 0 {
		filled++
	}
	if len(p.Goals) > 0 {
		filled++
	}
	if len(p.FavoriteSessionIDs) > 0 {
		filled++
	}
	if len(p.FavoriteSpeakerIDs) > 0 {
		filled++
	}
	return filled / total
}

// Speaker is a catalog speaker reference attached to a session.
type Speaker struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
}

// Session is a read-only catalog entry shared across all users.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Track       string    `json:"track,omitempty"`
	Level       string    `json:"level,omitempty"`
	Speakers    []Speaker `json:"speakers,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// Overlaps reports whether two sessions occupy intersecting time ranges.
func (s Session) Overlaps(o Session) bool {
	return s.StartTime.Before(o.EndTime) && o.StartTime.Before(s.EndTime)
}

// ItemKind enumerates the kinds of placed schedule entries.
type ItemKind string

const (
	ItemSession ItemKind = "session"
	ItemMeal    ItemKind = "meal"
	ItemBreak   ItemKind = "break"
	ItemTravel  ItemKind = "travel"
)

// ItemSource records who put an item on the schedule.
type ItemSource string

const (
	SourceFavorite  ItemSource = "user-favorite"
	SourceSuggested ItemSource = "ai-suggested"
	SourceSystem    ItemSource = "system"
)

// ScheduleItem is one placed entry in a day's agenda.
type ScheduleItem struct {
	ID         string     `json:"id"`
	Kind       ItemKind   `json:"kind"`
	Source     ItemSource `json:"source"`
	Title      string     `json:"title"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Session    *Session   `json:"session,omitempty"`
	Score      float64    `json:"score,omitempty"`
	Reasons    []string   `json:"reasons,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`

	// Travel buffer details.
	FromLocation   string `json:"from_location,omitempty"`
	ToLocation     string `json:"to_location,omitempty"`
	WalkingMinutes int    `json:"walking_minutes,omitempty"`
}

// Overlaps reports whether two items occupy intersecting time ranges.
func (i ScheduleItem) Overlaps(o ScheduleItem) bool {
	return i.StartTime.Before(o.EndTime) && o.StartTime.Before(i.EndTime)
}

// SessionID returns the referenced catalog session id, or "".
func (i ScheduleItem) SessionID() string {
	if i.Session == nil {
		return ""
	}
	return i.Session.ID
}

// DayStats aggregates counts for one day's schedule.
type DayStats struct {
	Sessions     int `json:"sessions"`
	Favorites    int `json:"favorites"`
	Suggested    int `json:"suggested"`
	BreakMinutes int `json:"break_minutes"`
}

// DaySchedule holds a single day's ordered items. Builders and the repair loop
// always return a new DaySchedule rather than mutating a shared one, so the
// effects of each fix pass stay auditable.
type DaySchedule struct {
	Date  time.Time      `json:"date"`
	Items []ScheduleItem `json:"items"`
	Stats DayStats       `json:"stats"`
}

// ConflictType enumerates detectable schedule violations.
type ConflictType string

const (
	ConflictTimeOverlap   ConflictType = "time-overlap"
	ConflictVenueDistance ConflictType = "venue-distance"
	ConflictMeal          ConflictType = "meal-conflict"
)

// ConflictInfo describes one detected violation between placed items.
type ConflictInfo struct {
	Type         ConflictType `json:"type"`
	SessionIDs   []string     `json:"session_ids"`
	Description  string       `json:"description"`
	Resolution   *Resolution  `json:"resolution,omitempty"`
	Alternatives []string     `json:"alternatives,omitempty"`
}

// ResolutionType enumerates the strategies a resolver may pick.
type ResolutionType string

const (
	ResolveSwap       ResolutionType = "swap"
	ResolveRemove     ResolutionType = "remove"
	ResolveReschedule ResolutionType = "reschedule"
	ResolveAccept     ResolutionType = "accept"
)

// Resolution is the outcome of resolving one conflict.
type Resolution struct {
	Type         ResolutionType `json:"type"`
	Action       string         `json:"action"`
	Reasoning    string         `json:"reasoning"`
	Confidence   float64        `json:"confidence"` // 0-100
	Alternatives []string       `json:"alternatives,omitempty"`
	Impact       string         `json:"impact,omitempty"`
	Applied      bool           `json:"applied"`
}

// Severity grades review issues.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// ReviewIssue is a single finding from the quality reviewer.
type ReviewIssue struct {
	Severity     Severity `json:"severity"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Day          string   `json:"day,omitempty"` // YYYY-MM-DD
	SessionID    string   `json:"session_id,omitempty"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// ReviewReport summarises a quality pass over a completed agenda.
type ReviewReport struct {
	Issues     []ReviewIssue `json:"issues"`
	Fixed      []ReviewIssue `json:"fixed"`
	Confidence float64       `json:"confidence"` // 0-100
	Notes      []string      `json:"notes,omitempty"`
}

// AgendaMetrics carries run-level numbers surfaced to the caller.
type AgendaMetrics struct {
	TotalFavorites      int     `json:"total_favorites"`
	FavoritesIncluded   int     `json:"favorites_included"`
	SuggestionsAdded    int     `json:"suggestions_added"`
	ConflictsResolved   int     `json:"conflicts_resolved"`
	Confidence          float64 `json:"confidence"`
	ProfileCompleteness float64 `json:"profile_completeness"`
}

// Agenda is the aggregate produced by one scheduling run. The engine holds no
// state between runs; persistence, rendering and export belong to callers.
type Agenda struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Days         []DaySchedule  `json:"days"`
	Conflicts    []ConflictInfo `json:"conflicts,omitempty"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	Metrics      AgendaMetrics  `json:"metrics"`
	UsingAdvisor bool           `json:"using_advisor"`
	CreatedAt    time.Time      `json:"created_at"`
}

// EnergyProfile maps time-of-day buckets to the cognitive load an attendee
// handles best.
type EnergyProfile string

const (
	EnergyMorningPerson EnergyProfile = "morning-person"
	EnergyNightOwl      EnergyProfile = "night-owl"
	EnergySteady        EnergyProfile = "steady"
)

// ScoringPolicy collects the empirically tuned weights and thresholds so they
// stay configuration rather than scattered constants.
type ScoringPolicy struct {
	FavoriteBonus         float64 `mapstructure:"favorite_bonus" json:"favorite_bonus"`
	MinSessionScore       float64 `mapstructure:"min_session_score" json:"min_session_score"`
	MinNetworkingScore    float64 `mapstructure:"min_networking_score" json:"min_networking_score"`
	SemanticHintThreshold float64 `mapstructure:"semantic_hint_threshold" json:"semantic_hint_threshold"`
	SemanticHintBonus     float64 `mapstructure:"semantic_hint_bonus" json:"semantic_hint_bonus"`
	AdvisorConfidenceMin  float64 `mapstructure:"advisor_confidence_min" json:"advisor_confidence_min"`
}

// DefaultScoringPolicy mirrors the calibration of the original engine.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		FavoriteBonus:         50,
		MinSessionScore:       20,
		MinNetworkingScore:    15,
		SemanticHintThreshold: 0.7,
		SemanticHintBonus:     5,
		AdvisorConfidenceMin:  80,
	}
}

// AgendaOptions configures one scheduling run.
type AgendaOptions struct {
	IncludeMeals          bool          `mapstructure:"include_meals" json:"include_meals"`
	MaxSessionsPerDay     int           `mapstructure:"max_sessions_per_day" json:"max_sessions_per_day"`
	PreferredTracks       []string      `mapstructure:"preferred_tracks" json:"preferred_tracks,omitempty"`
	AvoidTracks           []string      `mapstructure:"avoid_tracks" json:"avoid_tracks,omitempty"`
	StartTime             string        `mapstructure:"start_time" json:"start_time"` // "09:00"
	EndTime               string        `mapstructure:"end_time" json:"end_time"`     // "18:00"
	MinimumBreakMinutes   int           `mapstructure:"minimum_break_minutes" json:"minimum_break_minutes"`
	MaximumWalkingMinutes int           `mapstructure:"maximum_walking_minutes" json:"maximum_walking_minutes"`
	Energy                EnergyProfile `mapstructure:"energy_profile" json:"energy_profile,omitempty"`
	Scoring               ScoringPolicy `mapstructure:"scoring" json:"scoring"`
}

// Normalize applies defaults for unset option values.
func (o AgendaOptions) Normalize() AgendaOptions {
	if o.MaxSessionsPerDay <= 0 {
		o.MaxSessionsPerDay = 8
	}
	if o.StartTime == "" {
		o.StartTime = "09:00"
	}
	if o.EndTime == "" {
		o.EndTime = "19:00"
	}
	if o.MinimumBreakMinutes <= 0 {
		o.MinimumBreakMinutes = 15
	}
	if o.MaximumWalkingMinutes <= 0 {
		o.MaximumWalkingMinutes = 15
	}
	if o.Energy == "" {
		o.Energy = EnergySteady
	}
	zero := ScoringPolicy{}
	if o.Scoring == zero {
		o.Scoring = DefaultScoringPolicy()
	}
	return o
}

// DefaultAgendaOptions returns the options used when a caller supplies none.
func DefaultAgendaOptions() AgendaOptions {
	return AgendaOptions{IncludeMeals: true}.Normalize()
}

// Hit is a relevance oracle result: a session id with a semantic similarity
// score in [0,1].
type Hit struct {
	SessionID string  `json:"id"`
	Score     float64 `json:"score"`
}

// Oracle is the optional semantic-relevance collaborator. Absence or failure
// degrades scoring to keyword heuristics, never fails a run.
type Oracle interface {
	Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]Hit, error)
}

// Advisor is the optional natural-language reasoning collaborator. Its output
// is untrusted: responses are schema-checked and discarded on any mismatch.
type Advisor interface {
	SuggestResolution(ctx context.Context, conflict ConflictInfo, day DaySchedule, candidates []Session, profile UserProfile) (Resolution, error)
	AgendaInsights(ctx context.Context, agenda Agenda, profile UserProfile) (Insights, error)
}

// Insights is the validated shape of an advisor's free-form agenda commentary.
type Insights struct {
	Reasoning       string   `json:"reasoning"`
	Insights        []string `json:"insights"`
	Suggestions     []string `json:"suggestions"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// InputError marks caller mistakes (missing or unknown user); it is the only
// error class that aborts a run without producing an agenda.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// NewInputError builds an InputError with the given message.
func NewInputError(msg string) error { return &InputError{Msg: msg} }
