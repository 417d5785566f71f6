package eventtext

// EntryKind discriminates the three shapes a parsed entry can take.
type EntryKind int

const (
	FramingKind EntryKind = iota
	FairBallKind
	MaterialKind
)

// RunnerMovement is one baserunner's movement as described by a material
// message. The origin base is not in the text; the folder resolves it by
// looking the runner up among the live base occupants.
type RunnerMovement struct {
	RunnerName            string
	ToBase                int // 0 if scored; for outs, the base the runner was retired at
	IsOut                 bool
	BaseDescriptionFormat string
	Steal                 bool
}

// FielderCredit is one fielder named on a material message.
type FielderCredit struct {
	FielderName string
	Slot        string
	Approximate bool
}

// PitchInfo is the structured pitch metadata the snapshot attaches to an
// event-log entry. It never appears in the message text.
type PitchInfo struct {
	Type  string
	Speed float64
	Zone  int
}

// Entry is one parsed line of a game's event log, at a fixed
// GameEventIndex (the raw event-log position).
type Entry struct {
	Kind           EntryKind
	GameEventIndex int
	Text           string

	// Framing-only payload: information that attaches to the next or
	// enclosing material event rather than materializing its own row.
	Cheer            *string
	WeatherChange    *string
	IsInningHeader   bool
	TopOfInningSide  bool
	InningNumber     int
	IsGameStart      bool
	IsGameEnd        bool
	IsMoundVisit     bool
	NowBattingName   string
	NowPitchingName  string
	NowPitchingSlot  string
	FallingStarName  string
	AugmentName      string
	ReplacementFrom  string
	ReplacementTo    string
	EjectionName     string
	DoorPrizeWinner  string
	DoorPrizeItems   []string

	// Fair-ball declaration payload.
	FairBallType      string
	FairBallDirection string

	// Material event payload.
	EventType            string
	Pitch                *PitchInfo
	HitBase              *int
	FieldingErrorType    *string
	Fielders             []FielderCredit
	Runners              []RunnerMovement
	BatterName           string
	PitcherName          string
	DescribedAsSacrifice *bool
	IsToasty             *bool

	// MetadataBatter is the snapshot's per-event batter field. When it
	// disagrees with the name parsed from the message, the parsed name
	// wins (retirement mid-PA leaves the metadata stale).
	MetadataBatter string

	// duplicate marks an entry collapsed by a compatibility quirk
	// (see quirks.go); the folder skips these entirely.
	duplicate bool
}

// Duplicate reports whether this entry was collapsed by a compatibility
// quirk and should be skipped by the folder.
func (e Entry) Duplicate() bool { return e.duplicate }
