package model

import (
	"encoding/json"
	"time"
)

// GameID is the external chronicler identifier for a game (mmolb_game_id).
type GameID string

// RunID identifies one ingest controller run (info.ingests.id).
type RunID string

// Weather is deduplicated on (Name, Emoji, Tooltip); ids are assigned
// non-deterministically and are not stable across rebuilds.
type Weather struct {
	ID      int64
	Name    string
	Emoji   string
	Tooltip string
}

// Game is the header row for one observed game document. A game is owned
// by the ingest run that produced it; on re-observation the row and every
// descendant (events, baserunners, fielders, side tables, log entries) are
// replaced as a unit.
type Game struct {
	MMOLBGameID        GameID
	Season             int
	Day                *int
	SuperstarDay       *int
	WeatherID          int64
	HomeTeamEmoji      string
	HomeTeamName       string
	HomeTeamExternalID string
	HomeTeamFinalScore *int
	AwayTeamEmoji      string
	AwayTeamName       string
	AwayTeamExternalID string
	AwayTeamFinalScore *int
	IsOngoing          bool
	StadiumName        *string
	FromVersion        time.Time
	IsPhotoContest     bool
	CoinsEarned        *int
}

// Event is one row per material event in a game's log, keyed by
// (GameID, GameEventIndex).
type Event struct {
	GameID              GameID
	GameEventIndex      int
	FairBallEventIndex  *int
	Inning              int
	TopOfInning         bool
	EventType           string // taxa.EventType name
	HitBase             *int   // taxa.Base id; Home(0) for home runs
	FairBallType        *string
	FairBallDirection   *string
	FieldingErrorType   *string
	PitchType           *string
	PitchSpeed          *float64
	PitchZone           *int
	DescribedAsSacrifice *bool // nil iff event type can never be a sacrifice
	IsToasty            *bool // nil iff event type can never be toasty
	BallsBefore         int
	BallsAfter          int
	StrikesBefore       int
	StrikesAfter        int
	OutsBefore          int
	OutsAfter           int
	ErrorsBefore        int
	ErrorsAfter         int
	AwayScoreBefore     int
	AwayScoreAfter      int
	HomeScoreBefore     int
	HomeScoreAfter      int
	PitcherName         string
	BatterName          string
	PitcherCount        int
	BatterCount         int
	BatterSubcount      int
	Cheer               *string
}

// EventBaserunner is one row per runner-observation on an event, keyed by
// (EventID, PlayOrder). EventID is resolved at write time once the event
// row exists; during fold, events are addressed by GameEventIndex.
type EventBaserunner struct {
	GameEventIndex       int
	PlayOrder            int
	BaserunnerName        string
	BaseBefore            *int // nil iff batter-runner
	BaseAfter             int  // 0 iff scored
	IsOut                 bool
	BaseDescriptionFormat string
	Steal                 bool
	SourceEventIndex      *int // nil iff placed without a pitch (automatic runner)
	IsEarned              bool
}

// EventFielder is one row per fielder-credit on an event, keyed by
// (EventID, PlayOrder).
type EventFielder struct {
	GameEventIndex int
	PlayOrder      int
	FielderName    string
	FielderSlot    string // best-effort, may be approximate
	Approximate    bool
}

// PitcherChange records a per-game side-table row for a pitching change.
type PitcherChange struct {
	GameEventIndex int
	Team           string // "home" or "away"
	Source         string // PitcherChange, FallingStar, Augment, Retirement
	PitcherName    string
	PitcherSlot    string
}

// Ejection is a per-game side-table row recorded when a participant is
// thrown out of the game.
type Ejection struct {
	GameEventIndex int
	Name           string
}

// DoorPrize is a per-game side-table row for a door-prize award, with one
// row per item handed out.
type DoorPrize struct {
	GameEventIndex int
	WinnerName     string
	Item           string
}

// RawEventEntry backs the raw_event projection: the text of one event-log
// entry and its index, kept in sync with the authoritative game document.
type RawEventEntry struct {
	GameEventIndex int
	Text           string
}

// LogLevel classifies the severity of an ingest log entry. Lower values
// are more severe; severity <= WarningLevel marks a game as "having
// issues".
type LogLevel int

const (
	CriticalLevel LogLevel = iota
	ErrorLevel
	WarningLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

func (l LogLevel) String() string {
	switch l {
	case CriticalLevel:
		return "Critical"
	case ErrorLevel:
		return "Error"
	case WarningLevel:
		return "Warning"
	case InfoLevel:
		return "Info"
	case DebugLevel:
		return "Debug"
	case TraceLevel:
		return "Trace"
	default:
		return "Unknown"
	}
}

// HasIssues reports whether this level is severe enough to put a game on
// the "games with issues" surface (severity <= Warning).
func (l LogLevel) HasIssues() bool {
	return l <= WarningLevel
}

// LogEntry is one row of info.event_ingest_log: game_id, optional
// game_event_index (nil = game-wide), a log_index sort key within the
// event, a level, and free text.
type LogEntry struct {
	GameID         GameID
	GameEventIndex *int
	LogIndex       int
	Level          LogLevel
	Text           string
}

// GameResult is the complete output of folding one parsed game: the
// header plus every derived row, ready for the writer to apply inside a
// single transaction.
type GameResult struct {
	Game           Game
	Weather        Weather
	Events         []Event
	Baserunners    []EventBaserunner
	Fielders       []EventFielder
	PitcherChanges []PitcherChange
	Ejections      []Ejection
	DoorPrizes     []DoorPrize
	RawEvents      []RawEventEntry
	Logs           []LogEntry
}

// HasIssues reports whether any log entry for this game is severe enough
// to surface it on the "games with issues" list.
func (g *GameResult) HasIssues() bool {
	for _, l := range g.Logs {
		if l.Level.HasIssues() {
			return true
		}
	}
	return false
}

// RawGame is the chronicler's raw document for kind="game": an opaque
// upstream JSON blob plus the snapshot metadata the fetcher attaches. The
// blob stays undecoded until the parser consumes it.
type RawGame struct {
	EntityID  string
	ValidFrom time.Time
	Data      json.RawMessage
}

// IngestRunState is the controller's lifecycle state machine.
type IngestRunState string

const (
	StateIdle     IngestRunState = "Idle"
	StateStarting IngestRunState = "Starting"
	StateRunning  IngestRunState = "Running"
	StateStopping IngestRunState = "Stopping"
	StateFailed   IngestRunState = "Failed"
)

// IngestRun is one row of info.ingests: a single controller-owned run.
type IngestRun struct {
	ID                     RunID
	StartedAt              time.Time
	FinishedAt             *time.Time
	AbortedAt              *time.Time
	AbortReason            *string
	StartNextIngestAtPage  *string
	GamesFetched           int
	GamesWritten           int
	GamesSkipped           int
}

// Done reports whether the run has reached a terminal state.
func (r *IngestRun) Done() bool {
	return r.FinishedAt != nil || r.AbortedAt != nil
}

// IngestTiming is one append-only row of info.ingest_timings: the
// duration spent in one pipeline component during one run.
type IngestTiming struct {
	RunID     RunID
	Component string // "fetch", "parse", "fold", "write"
	Duration  time.Duration
}

// IngestCount is one append-only row of info.ingest_counts: a named
// counter recorded once per run.
type IngestCount struct {
	RunID RunID
	Name  string // "games_fetched", "games_written", "games_skipped", "parse_errors"
	Value int
}
