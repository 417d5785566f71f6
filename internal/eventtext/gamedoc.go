package eventtext

import (
	"encoding/json"
	"errors"
	"fmt"

	"stormlightlabs.org/gamedb/internal/model"
)

// ErrSkipGame marks a snapshot that must not be ingested at all: season-0
// games that never finish.
var ErrSkipGame = errors.New("game snapshot is not ingestible")

// ParsedGame is the parser's complete output for one raw game: the header,
// the ordered entry stream, the raw-event projection rows, and any parse
// logs.
type ParsedGame struct {
	Game      model.Game
	Weather   model.Weather
	Entries   []Entry
	RawEvents []model.RawEventEntry
	Logs      []model.LogEntry
}

type teamDoc struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Emoji      string `json:"emoji"`
	FinalScore *int   `json:"final_score"`
}

type weatherDoc struct {
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
	Tooltip string `json:"tooltip"`
}

type pitchDoc struct {
	Type  string  `json:"type"`
	Speed float64 `json:"speed"`
	Zone  int     `json:"zone"`
}

type eventLogDoc struct {
	Message string    `json:"message"`
	Batter  string    `json:"batter"`
	Pitch   *pitchDoc `json:"pitch"`
}

type gameDoc struct {
	Season         int            `json:"season"`
	Day            *int           `json:"day"`
	SuperstarDay   *int           `json:"superstar_day"`
	State          string         `json:"state"`
	Weather        weatherDoc     `json:"weather"`
	Stadium        *string        `json:"stadium"`
	HomeTeam       teamDoc        `json:"home_team"`
	AwayTeam       teamDoc        `json:"away_team"`
	IsPhotoContest bool           `json:"is_photo_contest"`
	CoinsEarned    *int           `json:"coins_earned"`
	EventLog       []eventLogDoc  `json:"event_log"`
}

const stateComplete = "Complete"

// ParseGame decodes one chronicler game snapshot into a header plus the
// parsed entry stream. It returns ErrSkipGame for snapshots that must not
// be ingested (season-0 games still in progress).
func ParseGame(raw model.RawGame) (*ParsedGame, error) {
	var doc gameDoc
	if err := json.Unmarshal(raw.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode game document %s: %w", raw.EntityID, err)
	}

	ongoing := doc.State != stateComplete
	if doc.Season == 0 && ongoing {
		return nil, ErrSkipGame
	}

	gameID := model.GameID(raw.EntityID)

	game := model.Game{
		MMOLBGameID:        gameID,
		Season:             doc.Season,
		Day:                doc.Day,
		SuperstarDay:       doc.SuperstarDay,
		HomeTeamEmoji:      doc.HomeTeam.Emoji,
		HomeTeamName:       doc.HomeTeam.Name,
		HomeTeamExternalID: doc.HomeTeam.ID,
		AwayTeamEmoji:      doc.AwayTeam.Emoji,
		AwayTeamName:       doc.AwayTeam.Name,
		AwayTeamExternalID: doc.AwayTeam.ID,
		IsOngoing:          ongoing,
		StadiumName:        doc.Stadium,
		FromVersion:        raw.ValidFrom,
		IsPhotoContest:     doc.IsPhotoContest,
		CoinsEarned:        doc.CoinsEarned,
	}
	// Incomplete games carry null final scores and are re-processed on
	// each observation.
	if !ongoing {
		game.HomeTeamFinalScore = doc.HomeTeam.FinalScore
		game.AwayTeamFinalScore = doc.AwayTeam.FinalScore
	}

	var logs []model.LogEntry
	if doc.Day == nil && doc.SuperstarDay == nil {
		day := 0
		game.Day = &day
		logs = append(logs, gameWideLog(gameID, len(logs), model.WarningLevel,
			"snapshot has neither day nor superstar_day; defaulting day to 0"))
	}
	if doc.Day != nil && doc.SuperstarDay != nil {
		game.Day = nil
		logs = append(logs, gameWideLog(gameID, len(logs), model.WarningLevel,
			"snapshot has both day and superstar_day; keeping superstar_day"))
	}

	raws := make([]RawEntry, 0, len(doc.EventLog))
	rawRows := make([]model.RawEventEntry, 0, len(doc.EventLog))
	for i, ev := range doc.EventLog {
		var pitch *PitchInfo
		if ev.Pitch != nil {
			pitch = &PitchInfo{Type: ev.Pitch.Type, Speed: ev.Pitch.Speed, Zone: ev.Pitch.Zone}
		}
		raws = append(raws, RawEntry{Text: ev.Message, Pitch: pitch, Batter: ev.Batter})
		rawRows = append(rawRows, model.RawEventEntry{GameEventIndex: i, Text: ev.Message})
	}

	day := 0
	if game.Day != nil {
		day = *game.Day
	}
	entries, parseLogs := Parse(gameID, raws, doc.Season, day)
	for i := range parseLogs {
		parseLogs[i].LogIndex += len(logs)
	}
	logs = append(logs, parseLogs...)

	return &ParsedGame{
		Game:      game,
		Weather:   model.Weather{Name: doc.Weather.Name, Emoji: doc.Weather.Emoji, Tooltip: doc.Weather.Tooltip},
		Entries:   entries,
		RawEvents: rawRows,
		Logs:      logs,
	}, nil
}

func gameWideLog(gameID model.GameID, idx int, level model.LogLevel, text string) model.LogEntry {
	return model.LogEntry{GameID: gameID, LogIndex: idx, Level: level, Text: text}
}
