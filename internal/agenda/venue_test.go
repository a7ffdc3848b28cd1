package agenda

import "testing"

func TestDistanceSameZone(t *testing.T) {
	t.Parallel()
	d := Distance("Hall A", "hall a")
	if d.WalkingMinutes != 0 || d.Category != SameRoom {
		t.Fatalf("same zone should cost nothing, got %+v", d)
	}
}

func TestDistanceAdjacentLetters(t *testing.T) {
	t.Parallel()
	d := Distance("Hall A", "Hall B")
	if d.WalkingMinutes != 2 || d.Category != SameFloor {
		t.Fatalf("adjacent halls should be a 2 minute hop, got %+v", d)
	}
	far := Distance("Hall A", "Hall C")
	if far.WalkingMinutes != 5 {
		t.Fatalf("non-adjacent halls on one floor should be 5 minutes, got %+v", far)
	}
}

func TestDistanceAcrossFloors(t *testing.T) {
	t.Parallel()
	d := Distance("Room 101", "Room 201")
	if d.WalkingMinutes != 4 || d.Category != SameBuilding {
		t.Fatalf("one floor apart should be 4 minutes, got %+v", d)
	}
	d = Distance("Room 101", "Room 301")
	if d.WalkingMinutes != 7 {
		t.Fatalf("two floors apart should be 7 minutes, got %+v", d)
	}
}

func TestDistanceCrossBuilding(t *testing.T) {
	t.Parallel()
	d := Distance("Hall A", "Expo Floor")
	if d.WalkingMinutes != crossBuildingMinutes || d.Category != DifferentBuilding {
		t.Fatalf("cross-building walk mispriced: %+v", d)
	}
}

func TestDistanceUnknownAndVirtual(t *testing.T) {
	t.Parallel()
	if d := Distance("Hall A", "Mystery Cave"); d.WalkingMinutes != unknownZoneMinutes {
		t.Fatalf("unknown zones should use the fallback estimate, got %+v", d)
	}
	if d := Distance("Online", "Hall A"); d.WalkingMinutes != 0 {
		t.Fatalf("virtual locations should cost nothing, got %+v", d)
	}
	if d := Distance("", "Keynote Stage"); d.WalkingMinutes != 0 {
		t.Fatalf("empty location should be treated as virtual, got %+v", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	t.Parallel()
	pairs := [][2]string{
		{"Hall A", "Expo Floor"},
		{"Room 101", "Room 302"},
		{"Grand Ballroom", "Lounge"},
		{"Hall B", "Somewhere Unknown"},
	}
	for _, p := range pairs {
		ab, ba := Distance(p[0], p[1]), Distance(p[1], p[0])
		if ab != ba {
			t.Fatalf("Distance(%q,%q)=%+v but reversed=%+v", p[0], p[1], ab, ba)
		}
	}
}

func TestHasEnoughTravelTimeBuffer(t *testing.T) {
	t.Parallel()
	// Hall A -> Hall B is 2 minutes plus the 5 minute buffer.
	if !HasEnoughTravelTime("Hall A", "Hall B", 7) {
		t.Fatalf("7 minutes should cover a 2 minute walk plus buffer")
	}
	if HasEnoughTravelTime("Hall A", "Hall B", 6) {
		t.Fatalf("6 minutes should not cover the walk plus buffer")
	}
	if HasEnoughTravelTime("Hall A", "Expo Floor", 10) {
		t.Fatalf("10 minutes should not cover a cross-building walk")
	}
}
