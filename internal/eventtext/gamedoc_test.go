package eventtext

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stormlightlabs.org/gamedb/internal/model"
)

func rawGameFromJSON(t *testing.T, id string, validFrom time.Time, doc map[string]any) model.RawGame {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}
	return model.RawGame{EntityID: id, ValidFrom: validFrom, Data: data}
}

func completeDoc() map[string]any {
	return map[string]any{
		"season":  2,
		"day":     14,
		"state":   "Complete",
		"stadium": "The Crab Pot",
		"weather": map[string]any{"name": "Sunny", "emoji": "☀️", "tooltip": "Clear skies."},
		"home_team": map[string]any{
			"id": "t-home", "name": "Home Hippos", "emoji": "🦛", "final_score": 5,
		},
		"away_team": map[string]any{
			"id": "t-away", "name": "Away Axolotls", "emoji": "🦎", "final_score": 3,
		},
		"event_log": []map[string]any{
			{"message": "Play ball!"},
			{"message": "Game over."},
		},
	}
}

func TestParseGameHeader(t *testing.T) {
	validFrom := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)
	parsed, err := ParseGame(rawGameFromJSON(t, "game-42", validFrom, completeDoc()))
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}

	g := parsed.Game
	if g.MMOLBGameID != "game-42" {
		t.Errorf("got game id %q", g.MMOLBGameID)
	}
	if g.Season != 2 || g.Day == nil || *g.Day != 14 || g.SuperstarDay != nil {
		t.Errorf("bad season/day: %+v", g)
	}
	if g.IsOngoing {
		t.Error("complete game marked ongoing")
	}
	if g.HomeTeamFinalScore == nil || *g.HomeTeamFinalScore != 5 {
		t.Errorf("got home final %v", g.HomeTeamFinalScore)
	}
	if g.AwayTeamFinalScore == nil || *g.AwayTeamFinalScore != 3 {
		t.Errorf("got away final %v", g.AwayTeamFinalScore)
	}
	if g.StadiumName == nil || *g.StadiumName != "The Crab Pot" {
		t.Errorf("got stadium %v", g.StadiumName)
	}
	if !g.FromVersion.Equal(validFrom) {
		t.Errorf("from_version %v != valid_from %v", g.FromVersion, validFrom)
	}
	if parsed.Weather.Name != "Sunny" || parsed.Weather.Emoji != "☀️" {
		t.Errorf("bad weather %+v", parsed.Weather)
	}
	if len(parsed.Entries) != 2 || len(parsed.RawEvents) != 2 {
		t.Errorf("got %d entries, %d raw events", len(parsed.Entries), len(parsed.RawEvents))
	}
	if parsed.RawEvents[0].GameEventIndex != 0 || parsed.RawEvents[0].Text != "Play ball!" {
		t.Errorf("bad raw event %+v", parsed.RawEvents[0])
	}
}

func TestParseGameOngoingHasNullFinalScores(t *testing.T) {
	doc := completeDoc()
	doc["state"] = "InProgress"
	parsed, err := ParseGame(rawGameFromJSON(t, "game-43", time.Now().UTC(), doc))
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	if !parsed.Game.IsOngoing {
		t.Error("expected ongoing")
	}
	if parsed.Game.HomeTeamFinalScore != nil || parsed.Game.AwayTeamFinalScore != nil {
		t.Error("ongoing game must have null final scores")
	}
}

func TestParseGameSkipsSeasonZeroOngoing(t *testing.T) {
	doc := completeDoc()
	doc["season"] = 0
	doc["state"] = "InProgress"
	_, err := ParseGame(rawGameFromJSON(t, "game-0", time.Now().UTC(), doc))
	if !errors.Is(err, ErrSkipGame) {
		t.Fatalf("expected ErrSkipGame, got %v", err)
	}

	// A finished season-0 game is still ingestible.
	doc["state"] = "Complete"
	if _, err := ParseGame(rawGameFromJSON(t, "game-0", time.Now().UTC(), doc)); err != nil {
		t.Fatalf("finished season-0 game should parse: %v", err)
	}
}

func TestParseGameSuperstarDay(t *testing.T) {
	doc := completeDoc()
	delete(doc, "day")
	doc["superstar_day"] = 2
	parsed, err := ParseGame(rawGameFromJSON(t, "game-44", time.Now().UTC(), doc))
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	if parsed.Game.Day != nil || parsed.Game.SuperstarDay == nil || *parsed.Game.SuperstarDay != 2 {
		t.Errorf("bad superstar day mapping: %+v", parsed.Game)
	}
}

func TestParseGameMissingDayDefaultsWithWarning(t *testing.T) {
	doc := completeDoc()
	delete(doc, "day")
	parsed, err := ParseGame(rawGameFromJSON(t, "game-45", time.Now().UTC(), doc))
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	if parsed.Game.Day == nil || *parsed.Game.Day != 0 {
		t.Errorf("expected defaulted day 0, got %v", parsed.Game.Day)
	}
	found := false
	for _, l := range parsed.Logs {
		if l.Level == model.WarningLevel && l.GameEventIndex == nil {
			found = true
		}
	}
	if !found {
		t.Error("expected a game-wide warning about the missing day")
	}
}

func TestParseGameMalformedDocument(t *testing.T) {
	raw := model.RawGame{EntityID: "bad", ValidFrom: time.Now().UTC(), Data: json.RawMessage(`{"season": "two"}`)}
	if _, err := ParseGame(raw); err == nil {
		t.Fatal("expected decode error")
	}
}
