package agenda

import (
	"fmt"
	"strings"
)

// ScoreResult is the scorer's verdict for one (session, profile) pair.
type ScoreResult struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// Scorer computes relevance/fit scores for sessions against a user profile.
// It is deterministic for identical inputs: the only external signal, the
// semantic hint, arrives pre-computed in [0,1] rather than being fetched here.
type Scorer struct {
	policy ScoringPolicy
}

// NewScorer builds a scorer with the given policy.
func NewScorer(policy ScoringPolicy) *Scorer {
	zero := ScoringPolicy{}
	if policy == zero {
		policy = DefaultScoringPolicy()
	}
	return &Scorer{policy: policy}
}

// roleKeywords maps attendee roles to content keywords that signal fit.
var roleKeywords = map[string][]string{
	"engineer":   {"technical", "architecture", "api", "code", "implementation", "deep dive", "performance"},
	"developer":  {"technical", "api", "code", "sdk", "hands-on", "implementation"},
	"architect":  {"architecture", "design", "integration", "platform", "scalability"},
	"manager":    {"strategy", "leadership", "roadmap", "adoption", "team", "case study"},
	"executive":  {"strategy", "vision", "transformation", "roi", "business", "leadership"},
	"analyst":    {"data", "analytics", "insights", "metrics", "reporting"},
	"underwriter": {"underwriting", "risk", "pricing", "claims"},
	"actuary":    {"actuarial", "risk", "modeling", "pricing"},
	"sales":      {"customer", "growth", "distribution", "market"},
}

// orgTypeKeywords maps organization types to content keywords.
var orgTypeKeywords = map[string][]string{
	"carrier":   {"carrier", "insurer", "claims", "underwriting", "policy"},
	"insurer":   {"carrier", "insurer", "claims", "underwriting", "policy"},
	"broker":    {"broker", "agency", "distribution", "agent"},
	"startup":   {"startup", "innovation", "founder", "venture", "mga"},
	"vendor":    {"partnership", "integration", "platform", "ecosystem"},
	"reinsurer": {"reinsurance", "risk transfer", "catastrophe"},
}

// popularTracks get a small boost: historically the best-attended tracks.
var popularTracks = map[string]bool{
	"ai & data":        true,
	"claims":           true,
	"keynote":          true,
	"main stage":       true,
	"emerging tech":    true,
	"customer experience": true,
}

var seniorTitleMarkers = []string{
	"ceo", "cto", "cio", "coo", "chief", "founder", "co-founder",
	"president", "vp", "vice president", "svp", "evp", "director", "head of", "principal",
}

var networkingKeywords = []string{
	"networking", "reception", "happy hour", "mixer", "meetup", "party",
	"social", "cocktail", "breakfast roundtable", "roundtable", "lounge",
}

// Score computes the weighted relevance score for a session. semanticHint is
// a pre-computed similarity in [0,1]; pass a negative value when no oracle
// signal exists.
func (sc *Scorer) Score(s Session, profile UserProfile, semanticHint float64) ScoreResult {
	var score float64
	var reasons []string
	text := sessionText(s)

	// User favorites dominate everything else; keep the marker first.
	if containsID(profile.FavoriteSessionIDs, s.ID) {
		score += sc.policy.FavoriteBonus
		reasons = append(reasons, "favorited by you")
	}

	// Interest keyword match is the heaviest organic signal.
	interestPts := 0.0
	for _, interest := range profile.Interests {
		kw := strings.ToLower(strings.TrimSpace(interest))
		if kw == "" {
			continue
		}
		if strings.Contains(strings.ToLower(s.Title), kw) {
			interestPts += 15
			reasons = append(reasons, fmt.Sprintf("matches interest %q", interest))
		} else if strings.Contains(text, kw) {
			interestPts += 8
			reasons = append(reasons, fmt.Sprintf("related to interest %q", interest))
		}
	}
	if interestPts > 40 {
		interestPts = 40
	}
	score += interestPts

	// Role fit.
	if pts, hit := keywordPoints(text, roleKeywords[strings.ToLower(profile.Role)], 10); pts > 0 {
		score += pts
		reasons = append(reasons, fmt.Sprintf("relevant for %s roles (%s)", profile.Role, hit))
	}

	// Organization-type fit.
	if pts, _ := keywordPoints(text, orgTypeKeywords[strings.ToLower(profile.OrganizationType)], 5); pts > 0 {
		score += pts
		reasons = append(reasons, "fits your organization type")
	}

	// Track popularity.
	if popularTracks[strings.ToLower(s.Track)] {
		score += 10
		reasons = append(reasons, "popular track")
	}

	// Speaker seniority.
	if senior := seniorSpeaker(s); senior != "" {
		score += 10
		reasons = append(reasons, "senior speaker: "+senior)
	}

	// Networking indicator: dedicated social events get the larger boost.
	if isNetworkingSession(s) {
		score += 15
		reasons = append(reasons, "networking opportunity")
	} else if containsAny(text, []string{"q&a", "discussion", "panel"}) {
		score += 5
		reasons = append(reasons, "interactive format")
	}

	// Semantic hint, only above the calibrated threshold.
	if semanticHint >= sc.policy.SemanticHintThreshold {
		score += sc.policy.SemanticHintBonus
		reasons = append(reasons, fmt.Sprintf("semantic match %.2f", semanticHint))
	}

	return ScoreResult{Score: score, Reasons: reasons}
}

// CognitiveLoad estimates how mentally demanding a session is, in [10,100].
func (sc *Scorer) CognitiveLoad(s Session) float64 {
	load := 50.0
	text := sessionText(s)

	switch strings.ToLower(s.Level) {
	case "advanced", "expert":
		load += 20
	case "beginner", "introductory":
		load -= 15
	}
	if containsAny(text, []string{"workshop", "hands-on", "deep dive", "masterclass", "technical"}) {
		load += 15
	}
	if containsAny(text, []string{"panel", "fireside", "keynote", "award", "welcome"}) {
		load -= 15
	}
	if isNetworkingSession(s) {
		load -= 25
	}
	techHits := 0
	for _, kw := range []string{"architecture", "api", "algorithm", "machine learning", "model", "data pipeline", "infrastructure"} {
		if strings.Contains(text, kw) {
			techHits++
		}
	}
	load += float64(min(techHits, 4)) * 5

	return clamp(load, 10, 100)
}

// NetworkingValue estimates relationship-building value, in [0,100].
func (sc *Scorer) NetworkingValue(s Session) float64 {
	v := 20.0
	text := sessionText(s)

	if isNetworkingSession(s) {
		v = 80
	}
	if containsAny(text, []string{"panel", "roundtable", "q&a", "meet the"}) {
		v += 10
	}
	hour := s.StartTime.Hour()
	if hour >= 17 {
		v += 20 // evening slots skew social
	} else if hour == 12 {
		v += 10
	}
	return clamp(v, 0, 100)
}

// OptimalLoad returns the cognitive load an attendee with the given energy
// profile handles best at the session's hour.
func OptimalLoad(profile EnergyProfile, hour int) float64 {
	var morning, afternoon, evening float64
	switch profile {
	case EnergyMorningPerson:
		morning, afternoon, evening = 80, 55, 30
	case EnergyNightOwl:
		morning, afternoon, evening = 35, 55, 80
	default:
		morning, afternoon, evening = 55, 55, 55
	}
	switch {
	case hour < 12:
		return morning
	case hour < 17:
		return afternoon
	default:
		return evening
	}
}

// IsNetworking reports whether a session is a dedicated social event.
func (sc *Scorer) IsNetworking(s Session) bool { return isNetworkingSession(s) }

func isNetworkingSession(s Session) bool {
	text := sessionText(s)
	return containsAny(text, networkingKeywords)
}

func sessionText(s Session) string {
	parts := []string{s.Title, s.Description, s.Track}
	parts = append(parts, s.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func keywordPoints(text string, keywords []string, perHit float64) (float64, string) {
	var pts float64
	var first string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			if first == "" {
				first = kw
			}
			pts += perHit
		}
	}
	if pts > perHit*2 {
		pts = perHit * 2
	}
	return pts, first
}

func seniorSpeaker(s Session) string {
	for _, sp := range s.Speakers {
		title := strings.ToLower(sp.Title)
		for _, marker := range seniorTitleMarkers {
			if strings.Contains(title, marker) {
				return sp.Name
			}
		}
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
