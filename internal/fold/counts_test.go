package fold

import (
	"testing"

	"stormlightlabs.org/gamedb/internal/taxa"
)

// TestNextCountsTransitionTable enumerates every event type against the
// expected ball/strike transition.
func TestNextCountsTransitionTable(t *testing.T) {
	type want struct {
		balls, strikes int
	}
	// from a 1-1 count
	expected := map[string]want{
		taxa.Ball:              {2, 1},
		taxa.CalledStrike:      {1, 2},
		taxa.SwingingStrike:    {1, 2},
		taxa.Foul:              {1, 2},
		taxa.FoulTip:           {1, 2},
		taxa.HitByPitch:        {0, 0},
		taxa.Walk:              {0, 0},
		taxa.StrikeoutLooking:  {0, 0},
		taxa.StrikeoutSwinging: {0, 0},
		taxa.StrikeoutFoulTip:  {0, 0},
		taxa.Single:            {0, 0},
		taxa.Double:            {0, 0},
		taxa.Triple:            {0, 0},
		taxa.HomeRun:           {0, 0},
		taxa.FieldingError:     {0, 0},
		taxa.FieldersChoiceOut: {0, 0},
		taxa.InPlayOut:         {0, 0},
		taxa.SacrificeFly:      {0, 0},
		taxa.Balk:              {1, 1},
		taxa.CaughtStealing:    {1, 1},
		taxa.Pickoff:           {1, 1},
	}

	if len(expected) != len(taxa.EventTypes) {
		t.Fatalf("transition table covers %d event types, taxon has %d", len(expected), len(taxa.EventTypes))
	}

	for name, want := range expected {
		info, ok := taxa.EventTypes[name]
		if !ok {
			t.Errorf("unknown event type %q in table", name)
			continue
		}
		balls, strikes := NextCounts(1, 1, info)
		if balls != want.balls || strikes != want.strikes {
			t.Errorf("%s from 1-1: got %d-%d, want %d-%d", name, balls, strikes, want.balls, want.strikes)
		}
	}
}

// TestNextCountsFoulCap covers the two-strike special case for every
// foul-flagged, non-strikeout event type.
func TestNextCountsFoulCap(t *testing.T) {
	for name, info := range taxa.EventTypes {
		if !info.IsFoul || info.IsStrikeout {
			continue
		}
		_, strikes := NextCounts(0, 2, info)
		if strikes != 2 {
			t.Errorf("%s with two strikes: strikes went to %d", name, strikes)
		}
	}
}
