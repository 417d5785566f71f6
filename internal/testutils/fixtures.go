package testutils

import (
	"encoding/json"
	"time"

	"stormlightlabs.org/gamedb/internal/model"
)

// GameDoc builds raw chronicler game documents for tests. Field names
// follow the snapshot wire format the parser consumes.
type GameDoc struct {
	GameID    string
	ValidFrom time.Time
	Doc       map[string]any
	EventLog  []map[string]any
}

// NewGameDoc returns a minimal complete-game document: season 1, day 1,
// sunny weather, two named teams, no events yet.
func NewGameDoc(gameID string) *GameDoc {
	return &GameDoc{
		GameID:    gameID,
		ValidFrom: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Doc: map[string]any{
			"season": 1,
			"day":    1,
			"state":  "Complete",
			"weather": map[string]any{
				"name":    "Sunny",
				"emoji":   "☀️",
				"tooltip": "A beautiful day for baseball.",
			},
			"home_team": map[string]any{
				"id":    "team-home",
				"name":  "Home Hippos",
				"emoji": "🦛",
			},
			"away_team": map[string]any{
				"id":    "team-away",
				"name":  "Away Axolotls",
				"emoji": "🦎",
			},
		},
	}
}

// Season sets the season number.
func (g *GameDoc) Season(season int) *GameDoc {
	g.Doc["season"] = season
	return g
}

// Day sets the regular day number.
func (g *GameDoc) Day(day int) *GameDoc {
	g.Doc["day"] = day
	delete(g.Doc, "superstar_day")
	return g
}

// SuperstarDay marks the game as a superstar-day game.
func (g *GameDoc) SuperstarDay(day int) *GameDoc {
	g.Doc["superstar_day"] = day
	delete(g.Doc, "day")
	return g
}

// Ongoing marks the game as still in progress.
func (g *GameDoc) Ongoing() *GameDoc {
	g.Doc["state"] = "InProgress"
	return g
}

// FinalScore records the snapshot's final scores.
func (g *GameDoc) FinalScore(away, home int) *GameDoc {
	g.Doc["away_team"].(map[string]any)["final_score"] = away
	g.Doc["home_team"].(map[string]any)["final_score"] = home
	return g
}

// Stadium sets the stadium name.
func (g *GameDoc) Stadium(name string) *GameDoc {
	g.Doc["stadium"] = name
	return g
}

// At sets the snapshot timestamp (valid_from).
func (g *GameDoc) At(t time.Time) *GameDoc {
	g.ValidFrom = t
	return g
}

// Event appends a plain event-log message.
func (g *GameDoc) Event(message string) *GameDoc {
	g.EventLog = append(g.EventLog, map[string]any{"message": message})
	return g
}

// Events appends several plain event-log messages in order.
func (g *GameDoc) Events(messages ...string) *GameDoc {
	for _, m := range messages {
		g.Event(m)
	}
	return g
}

// PitchEvent appends a message with structured pitch metadata.
func (g *GameDoc) PitchEvent(message, pitchType string, speed float64, zone int) *GameDoc {
	g.EventLog = append(g.EventLog, map[string]any{
		"message": message,
		"pitch": map[string]any{
			"type":  pitchType,
			"speed": speed,
			"zone":  zone,
		},
	})
	return g
}

// EventWithBatter appends a message with snapshot batter metadata (the
// field the parser reconciles against the in-message name).
func (g *GameDoc) EventWithBatter(message, batter string) *GameDoc {
	g.EventLog = append(g.EventLog, map[string]any{
		"message": message,
		"batter":  batter,
	})
	return g
}

// Build marshals the document into the fetcher's RawGame shape.
func (g *GameDoc) Build() model.RawGame {
	doc := make(map[string]any, len(g.Doc)+1)
	for k, v := range g.Doc {
		doc[k] = v
	}
	eventLog := g.EventLog
	if eventLog == nil {
		eventLog = []map[string]any{}
	}
	doc["event_log"] = eventLog

	data, err := json.Marshal(doc)
	if err != nil {
		panic("marshal game doc: " + err.Error())
	}

	return model.RawGame{
		EntityID:  g.GameID,
		ValidFrom: g.ValidFrom,
		Data:      data,
	}
}

// ScriptOpening returns the framing prelude every well-formed game log
// starts with: game start, first inning header, and both starters
// announced via the first half-inning's framing.
func (g *GameDoc) ScriptOpening(homePitcher, awayBatter string) *GameDoc {
	return g.Events(
		"Play ball!",
		"Top of the 1st inning.",
		"Now pitching: "+homePitcher+" (SP1).",
		"Now batting: "+awayBatter+".",
	)
}
