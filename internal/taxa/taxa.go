// Package taxa holds the closed enumerations seeded into the taxa schema:
// event types, fielder locations, fair-ball types, roster slots, bases,
// base description formats, fielding error types, and pitch types. Each
// taxon carries a stable code-friendly name plus category-specific
// attributes consumed by the folder and the writer.
package taxa

// EventType describes the outcome of a pitch or non-pitch action.
type EventType struct {
	Name                string
	DisplayName         string
	EndsPlateAppearance bool
	IsInPlay            bool
	IsHit               bool
	IsError             bool
	IsBall              bool
	IsStrike            bool
	IsStrikeout         bool
	IsBasicStrike       bool
	IsFoul              bool
	IsFoulTip           bool
	BatterSwung         bool
}

// Event type names, used as the stable key stored on data.events.
const (
	Ball                = "ball"
	CalledStrike        = "called_strike"
	SwingingStrike      = "swinging_strike"
	Foul                = "foul"
	FoulTip             = "foul_tip"
	HitByPitch          = "hit_by_pitch"
	FieldersChoiceOut   = "fielders_choice_out"
	InPlayOut           = "in_play_out"
	Single              = "single"
	Double              = "double"
	Triple              = "triple"
	HomeRun             = "home_run"
	Walk                = "walk"
	StrikeoutLooking    = "strikeout_looking"
	StrikeoutSwinging   = "strikeout_swinging"
	SacrificeFly        = "sacrifice_fly"
	FieldingError       = "fielding_error"
	Balk                = "balk"
	CaughtStealing      = "caught_stealing"
	Pickoff             = "pickoff"
	StrikeoutFoulTip    = "strikeout_foul_tip"
)

// EventTypes is the seeded event_type taxon table, keyed by Name.
var EventTypes = map[string]EventType{
	Ball:              {Name: Ball, DisplayName: "Ball", IsBall: true},
	CalledStrike:      {Name: CalledStrike, DisplayName: "Called Strike", IsStrike: true, IsBasicStrike: true},
	SwingingStrike:    {Name: SwingingStrike, DisplayName: "Swinging Strike", IsStrike: true, IsBasicStrike: true, BatterSwung: true},
	Foul:              {Name: Foul, DisplayName: "Foul Ball", IsStrike: true, IsFoul: true, BatterSwung: true},
	FoulTip:           {Name: FoulTip, DisplayName: "Foul Tip", IsStrike: true, IsFoul: true, IsFoulTip: true, BatterSwung: true},
	HitByPitch:        {Name: HitByPitch, DisplayName: "Hit By Pitch", EndsPlateAppearance: true},
	FieldersChoiceOut: {Name: FieldersChoiceOut, DisplayName: "Fielder's Choice", EndsPlateAppearance: true, IsInPlay: true, BatterSwung: true},
	InPlayOut:         {Name: InPlayOut, DisplayName: "In Play Out", EndsPlateAppearance: true, IsInPlay: true, BatterSwung: true},
	Single:            {Name: Single, DisplayName: "Single", EndsPlateAppearance: true, IsInPlay: true, IsHit: true, BatterSwung: true},
	Double:            {Name: Double, DisplayName: "Double", EndsPlateAppearance: true, IsInPlay: true, IsHit: true, BatterSwung: true},
	Triple:            {Name: Triple, DisplayName: "Triple", EndsPlateAppearance: true, IsInPlay: true, IsHit: true, BatterSwung: true},
	HomeRun:           {Name: HomeRun, DisplayName: "Home Run", EndsPlateAppearance: true, IsInPlay: true, IsHit: true, BatterSwung: true},
	Walk:              {Name: Walk, DisplayName: "Walk", EndsPlateAppearance: true, IsBall: true},
	StrikeoutLooking:  {Name: StrikeoutLooking, DisplayName: "Strikeout Looking", EndsPlateAppearance: true, IsStrikeout: true, IsStrike: true, IsBasicStrike: true},
	StrikeoutSwinging: {Name: StrikeoutSwinging, DisplayName: "Strikeout Swinging", EndsPlateAppearance: true, IsStrikeout: true, IsStrike: true, BatterSwung: true},
	SacrificeFly:      {Name: SacrificeFly, DisplayName: "Sacrifice Fly", EndsPlateAppearance: true, IsInPlay: true, BatterSwung: true},
	FieldingError:     {Name: FieldingError, DisplayName: "Fielding Error", EndsPlateAppearance: true, IsInPlay: true, IsError: true, BatterSwung: true},
	Balk:              {Name: Balk, DisplayName: "Balk"},
	CaughtStealing:    {Name: CaughtStealing, DisplayName: "Caught Stealing"},
	Pickoff:           {Name: Pickoff, DisplayName: "Pickoff"},
	StrikeoutFoulTip:  {Name: StrikeoutFoulTip, DisplayName: "Strikeout (Foul Tip)", EndsPlateAppearance: true, IsStrikeout: true, IsStrike: true, IsFoul: true, IsFoulTip: true, BatterSwung: true},
}

// CanBeSacrifice reports whether described_as_sacrifice is meaningful for
// this event type (it's otherwise stored as nil, per model.Event's contract).
func CanBeSacrifice(eventType string) bool {
	switch eventType {
	case InPlayOut, FieldersChoiceOut, SacrificeFly:
		return true
	default:
		return false
	}
}

// DirectOut reports whether this event type retires the batter without
// putting them on the bases: strikeouts and balls caught or fielded for
// a routine out. These outs are counted from the event type alone and emit
// no batter-runner row.
func DirectOut(eventType string) bool {
	if EventTypes[eventType].IsStrikeout {
		return true
	}
	switch eventType {
	case InPlayOut, SacrificeFly:
		return true
	default:
		return false
	}
}

// BatterReachesBase returns the base the batter-runner reaches for event
// types that put the batter on base, and false for everything else.
func BatterReachesBase(eventType string) (int, bool) {
	switch eventType {
	case Single, Walk, HitByPitch, FieldingError, FieldersChoiceOut:
		return FirstBase, true
	case Double:
		return SecondBase, true
	case Triple:
		return ThirdBase, true
	case HomeRun:
		return HomeBase, true
	default:
		return 0, false
	}
}

// CanBeToasty reports whether is_toasty is meaningful for this event type.
func CanBeToasty(eventType string) bool {
	switch eventType {
	case HomeRun, Single, Double, Triple:
		return true
	default:
		return false
	}
}

// FielderArea classifies a fielder_location as infield or outfield.
type FielderArea string

const (
	Infield FielderArea = "Infield"
	Outfield FielderArea = "Outfield"
)

// FielderLocation is a numbered defensive position, 1-9.
type FielderLocation struct {
	Number       int
	Abbreviation string
	DisplayName  string
	Area         FielderArea
}

// FielderLocations is the seeded fielder_location taxon table, keyed by
// standard position number.
var FielderLocations = map[int]FielderLocation{
	1: {1, "P", "Pitcher", Infield},
	2: {2, "C", "Catcher", Infield},
	3: {3, "1B", "First Base", Infield},
	4: {4, "2B", "Second Base", Infield},
	5: {5, "3B", "Third Base", Infield},
	6: {6, "SS", "Shortstop", Infield},
	7: {7, "LF", "Left Field", Outfield},
	8: {8, "CF", "Center Field", Outfield},
	9: {9, "RF", "Right Field", Outfield},
}

// FielderAbbreviationToNumber maps the common text abbreviations the
// parser sees (including the generic "P") to a fielder_location number.
var FielderAbbreviationToNumber = map[string]int{
	"P": 1, "C": 2, "1B": 3, "2B": 4, "3B": 5, "SS": 6, "LF": 7, "CF": 8, "RF": 9,
}

// FairBallType is a batted-ball trajectory.
type FairBallType struct {
	Name        string
	DisplayName string
}

const (
	GroundBall = "ground_ball"
	LineDrive  = "line_drive"
	FlyBall    = "fly_ball"
	Popup      = "popup"
)

// FairBallTypes is the seeded fair_ball_type taxon table.
var FairBallTypes = map[string]FairBallType{
	GroundBall: {GroundBall, "Ground Ball"},
	LineDrive:  {LineDrive, "Line Drive"},
	FlyBall:    {FlyBall, "Fly Ball"},
	Popup:      {Popup, "Popup"},
}

// SlotRole is whether a roster slot pitches or bats.
type SlotRole string

const (
	PitcherRole SlotRole = "Pitcher"
	BatterRole  SlotRole = "Batter"
)

// PitcherType further classifies a pitching slot.
type PitcherType string

const (
	Starter         PitcherType = "Starter"
	Reliever        PitcherType = "Reliever"
	Closer          PitcherType = "Closer"
	UnknownPitcher  PitcherType = "Unknown"
)

// Slot is a roster slot: SP1-SP5, RP1-RP3, CL, or a batting position.
type Slot struct {
	Name        string
	Role        SlotRole
	PitcherType PitcherType
	SlotNumber  int // 0 if not numbered (CL, C, 1B, ...)
	Location    string
}

// Slots is the seeded slot taxon table, keyed by Name.
var Slots = buildSlots()

func buildSlots() map[string]Slot {
	slots := map[string]Slot{}
	for i := 1; i <= 5; i++ {
		name := slotName("SP", i)
		slots[name] = Slot{Name: name, Role: PitcherRole, PitcherType: Starter, SlotNumber: i, Location: "P"}
	}
	for i := 1; i <= 3; i++ {
		name := slotName("RP", i)
		slots[name] = Slot{Name: name, Role: PitcherRole, PitcherType: Reliever, SlotNumber: i, Location: "P"}
	}
	slots["CL"] = Slot{Name: "CL", Role: PitcherRole, PitcherType: Closer, Location: "P"}
	for _, bat := range []string{"C", "1B", "2B", "3B", "SS", "LF", "CF", "RF", "DH"} {
		slots[bat] = Slot{Name: bat, Role: BatterRole, PitcherType: UnknownPitcher, Location: bat}
	}
	// Approximate slot used when the source only said "P" for a pitcher
	// who fielded a ball.
	slots["P"] = Slot{Name: "P", Role: PitcherRole, PitcherType: UnknownPitcher, Location: "P"}
	return slots
}

func slotName(prefix string, n int) string {
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	return prefix + string(digits[n])
}

// ApproximateSlotFor resolves a position abbreviation from a fielder
// credit. A generic "P" cannot be pinned to a pitching slot, so it maps
// to the approximate "P" slot and is flagged for the Warning-level
// approximate-slot log.
func ApproximateSlotFor(abbreviation string) (string, bool) {
	if abbreviation == "P" {
		return "P", true
	}
	return abbreviation, false
}

// Base is a named base: Home=0, First=1, Second=2, Third=3.
type Base struct {
	ID            int
	Name          string
	BasesAchieved int // equals ID except Home, which scores
}

const (
	HomeBase   = 0
	FirstBase  = 1
	SecondBase = 2
	ThirdBase  = 3
)

// Bases is the seeded base taxon table, keyed by ID.
var Bases = map[int]Base{
	HomeBase:   {HomeBase, "Home", 0},
	FirstBase:  {FirstBase, "First", 1},
	SecondBase: {SecondBase, "Second", 2},
	ThirdBase:  {ThirdBase, "Third", 3},
}

// BaseDescriptionFormats enumerates the linguistic variants a raw message
// uses to name a base, preserved only to round-trip text.
var BaseDescriptionFormats = map[int][]string{
	HomeBase:   {"home"},
	FirstBase:  {"first", "first base", "1st"},
	SecondBase: {"second", "second base", "2nd"},
	ThirdBase:  {"third", "third base", "3rd"},
}

// BaseFromText resolves free text naming a base to a base id and the
// exact format string observed, for round-tripping.
func BaseFromText(text string) (id int, format string, ok bool) {
	for baseID, formats := range BaseDescriptionFormats {
		for _, f := range formats {
			if f == text {
				return baseID, f, true
			}
		}
	}
	return 0, "", false
}

// FieldingErrorType classifies a fielding error.
const (
	ThrowingError FieldingErrorType = "Throwing"
	CatchingError FieldingErrorType = "Catching"
)

// FieldingErrorType is one of Throwing or Catching.
type FieldingErrorType string

// PitchType is a pitch classification with its standard abbreviation.
type PitchType struct {
	Name         string
	Abbreviation string
}

const (
	Fastball   = "fastball"
	Curveball  = "curveball"
	Slider     = "slider"
	Changeup   = "changeup"
	Sinker     = "sinker"
	Cutter     = "cutter"
	Splitter   = "splitter"
	Knuckleball = "knuckleball"
)

// PitchTypes is the seeded pitch_type taxon table.
var PitchTypes = map[string]PitchType{
	Fastball:    {Fastball, "FB"},
	Curveball:   {Curveball, "CU"},
	Slider:      {Slider, "SL"},
	Changeup:    {Changeup, "CH"},
	Sinker:      {Sinker, "SI"},
	Cutter:      {Cutter, "FC"},
	Splitter:    {Splitter, "FS"},
	Knuckleball: {Knuckleball, "KN"},
}
