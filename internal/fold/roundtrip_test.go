package fold

import (
	"testing"

	"stormlightlabs.org/gamedb/internal/eventtext"
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/testutils"
)

// TestRoundTripMaterialMessages folds a scripted game and re-renders each
// materialized event from its rows, expecting the original message back.
func TestRoundTripMaterialMessages(t *testing.T) {
	material := []string{
		"Ball.",
		"Called strike.",
		"Foul ball.",
		"Dot Nguyen singles, fielded by SS Ines Alvarez.",
		"Now batting: Carla Ruiz.",
		"Carla Ruiz doubles. Dot Nguyen to 3rd.",
		"Now batting: Mina Park.",
		"Mina Park hits a fly ball to LF.",
		"Mina Park homers! It's toasty! Dot Nguyen scores. Carla Ruiz scores.",
		"Now batting: Tim Locke.",
		"Tim Locke reaches on a throwing error by SS Nadia Ortiz.",
		"Now batting: Gil Soto.",
		"Ball. Tim Locke steals 2nd!",
		"Gil Soto walks.",
		"Now batting: Vic Cruz.",
		"Vic Cruz hits a sacrifice fly, fielded by LF Ty Park. Tim Locke scores.",
		"Now batting: Jo Kim.",
		"Jo Kim hits a ground ball to SS.",
		"Jo Kim grounds out, fielded by SS Ines Alvarez, assisted by 1B Pat Ito.",
		"Gil Soto is caught stealing third.",
	}

	doc := testutils.NewGameDoc("game-roundtrip").
		ScriptOpening("Hank Ito", "Dot Nguyen").
		Events(material...)

	parsed, err := eventtext.ParseGame(doc.Build())
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	for _, l := range parsed.Logs {
		t.Fatalf("unexpected parse log: %+v", l)
	}

	result := Fold(parsed)

	for _, ev := range result.Events {
		rendered, err := eventtext.Render(ev,
			runnersForEvent(result, ev.GameEventIndex),
			fieldersForEvent(result, ev.GameEventIndex))
		if err != nil {
			t.Errorf("render event %d: %v", ev.GameEventIndex, err)
			continue
		}
		original := result.RawEvents[ev.GameEventIndex].Text
		if rendered != original {
			t.Errorf("event %d round trip:\n  original: %q\n  rendered: %q", ev.GameEventIndex, original, rendered)
		}
	}
}

func fieldersForEvent(result model.GameResult, idx int) []model.EventFielder {
	var rows []model.EventFielder
	for _, f := range result.Fielders {
		if f.GameEventIndex == idx {
			rows = append(rows, f)
		}
	}
	return rows
}
