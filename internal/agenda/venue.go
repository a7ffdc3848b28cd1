package agenda

import "strings"

// DistanceCategory buckets how far apart two venue zones are.
type DistanceCategory string

const (
	SameRoom          DistanceCategory = "same-room"
	SameFloor         DistanceCategory = "same-floor"
	SameBuilding      DistanceCategory = "same-building"
	DifferentBuilding DistanceCategory = "different-building"
)

// VenueDistance is the result of a zone-to-zone lookup.
type VenueDistance struct {
	WalkingMinutes int              `json:"walking_minutes"`
	Category       DistanceCategory `json:"category"`
}

// travelSafetyBuffer is added on top of raw walking time when checking
// whether a gap between sessions is feasible.
const travelSafetyBuffer = 5

// unknownZoneMinutes is assumed when a physical-looking location is not in
// the zone map. Virtual locations resolve to zero instead.
const unknownZoneMinutes = 10

type venueZone struct {
	building string
	floor    int
	letter   byte
}

// zoneMap covers the named venue zones of the conference campus. Zones on the
// same floor are lettered; adjacent letters are a short hop.
var zoneMap = map[string]venueZone{
	"hall a":          {"main", 1, 'A'},
	"hall b":          {"main", 1, 'B'},
	"hall c":          {"main", 1, 'C'},
	"room 101":        {"main", 1, 'A'},
	"room 102":        {"main", 1, 'B'},
	"room 201":        {"main", 2, 'A'},
	"room 202":        {"main", 2, 'B'},
	"room 203":        {"main", 2, 'C'},
	"room 301":        {"main", 3, 'A'},
	"room 302":        {"main", 3, 'B'},
	"grand ballroom":  {"main", 1, 'A'},
	"keynote stage":   {"main", 1, 'A'},
	"expo floor":      {"expo", 1, 'A'},
	"expo theater":    {"expo", 1, 'B'},
	"workshop wing":   {"expo", 2, 'A'},
	"rooftop terrace": {"expo", 3, 'A'},
	"lounge":          {"expo", 1, 'C'},
}

// floorMinutes[i][j] is walking minutes between floor i+1 and floor j+1 of the
// same building, stairs and lifts included.
var floorMinutes = [3][3]int{
	{0, 4, 7},
	{4, 0, 4},
	{7, 4, 0},
}

// crossBuildingMinutes is the walk between the main venue and the expo hall.
const crossBuildingMinutes = 12

func normalizeZone(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isVirtualZone(name string) bool {
	switch name {
	case "", "online", "virtual", "livestream", "stream", "tbd":
		return true
	}
	return false
}

// Distance returns walking time and category between two named venue zones.
// Unknown physical zones fall back to a fixed estimate; virtual locations
// cost nothing. The lookup is symmetric and Distance(a,a) is always zero.
func Distance(from, to string) VenueDistance {
	f, t := normalizeZone(from), normalizeZone(to)
	if f == t {
		return VenueDistance{WalkingMinutes: 0, Category: SameRoom}
	}
	if isVirtualZone(f) || isVirtualZone(t) {
		return VenueDistance{WalkingMinutes: 0, Category: SameRoom}
	}
	fz, fok := zoneMap[f]
	tz, tok := zoneMap[t]
	if !fok || !tok {
		return VenueDistance{WalkingMinutes: unknownZoneMinutes, Category: DifferentBuilding}
	}
	if fz.building != tz.building {
		return VenueDistance{WalkingMinutes: crossBuildingMinutes, Category: DifferentBuilding}
	}
	if fz.floor != tz.floor {
		mins := floorMinutes[clampFloor(fz.floor)][clampFloor(tz.floor)]
		return VenueDistance{WalkingMinutes: mins, Category: SameBuilding}
	}
	if fz.letter == tz.letter {
		// Same lettered zone, different room names.
		return VenueDistance{WalkingMinutes: 2, Category: SameFloor}
	}
	if diff(fz.letter, tz.letter) == 1 {
		return VenueDistance{WalkingMinutes: 2, Category: SameFloor}
	}
	return VenueDistance{WalkingMinutes: 5, Category: SameFloor}
}

// HasEnoughTravelTime reports whether availableMinutes covers the walk plus a
// safety buffer.
func HasEnoughTravelTime(from, to string, availableMinutes int) bool {
	d := Distance(from, to)
	return availableMinutes >= d.WalkingMinutes+travelSafetyBuffer
}

func clampFloor(f int) int {
	if f < 1 {
		return 0
	}
	if f > 3 {
		return 2
	}
	return f - 1
}

func diff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
