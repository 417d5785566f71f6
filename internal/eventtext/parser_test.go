package eventtext

import (
	"testing"

	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
)

func parseSingle(t *testing.T, text string) Entry {
	t.Helper()
	entries, logs := Parse("game-1", []RawEntry{{Text: text}}, 1, 1)
	if len(logs) != 0 {
		t.Fatalf("expected no parse logs for %q, got %v", text, logs)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	return entries[0]
}

func TestParseFraming(t *testing.T) {
	tests := []struct {
		text  string
		check func(t *testing.T, e Entry)
	}{
		{"Play ball!", func(t *testing.T, e Entry) {
			if !e.IsGameStart {
				t.Error("expected game start")
			}
		}},
		{"Game over.", func(t *testing.T, e Entry) {
			if !e.IsGameEnd {
				t.Error("expected game end")
			}
		}},
		{"Top of the 3rd inning.", func(t *testing.T, e Entry) {
			if !e.IsInningHeader || !e.TopOfInningSide || e.InningNumber != 3 {
				t.Errorf("bad inning header: %+v", e)
			}
		}},
		{"Bottom of the 11th inning.", func(t *testing.T, e Entry) {
			if !e.IsInningHeader || e.TopOfInningSide || e.InningNumber != 11 {
				t.Errorf("bad inning header: %+v", e)
			}
		}},
		{"Now batting: Jessica Telephone.", func(t *testing.T, e Entry) {
			if e.NowBattingName != "Jessica Telephone" {
				t.Errorf("got batter %q", e.NowBattingName)
			}
		}},
		{"Now pitching: Wes Ogden (RP2).", func(t *testing.T, e Entry) {
			if e.NowPitchingName != "Wes Ogden" || e.NowPitchingSlot != "RP2" {
				t.Errorf("got pitcher %q slot %q", e.NowPitchingName, e.NowPitchingSlot)
			}
		}},
		{"Coach Dan is making a mound visit.", func(t *testing.T, e Entry) {
			if !e.IsMoundVisit {
				t.Error("expected mound visit")
			}
		}},
		{"Weather: Solar Eclipse", func(t *testing.T, e Entry) {
			if e.WeatherChange == nil || *e.WeatherChange != "Solar Eclipse" {
				t.Errorf("got weather change %v", e.WeatherChange)
			}
		}},
		{"The crowd cheers: Let's go Hippos!", func(t *testing.T, e Entry) {
			if e.Cheer == nil || *e.Cheer != "Let's go Hippos!" {
				t.Errorf("got cheer %v", e.Cheer)
			}
		}},
		{"A falling star lands on Wes Ogden!", func(t *testing.T, e Entry) {
			if e.FallingStarName != "Wes Ogden" {
				t.Errorf("got falling star name %q", e.FallingStarName)
			}
		}},
		{"Mina Park receives an augment.", func(t *testing.T, e Entry) {
			if e.AugmentName != "Mina Park" {
				t.Errorf("got augment name %q", e.AugmentName)
			}
		}},
		{"Gil Soto is replaced by Ana Li.", func(t *testing.T, e Entry) {
			if e.ReplacementFrom != "Gil Soto" || e.ReplacementTo != "Ana Li" {
				t.Errorf("got replacement %q -> %q", e.ReplacementFrom, e.ReplacementTo)
			}
		}},
		{"Rex Bond is ejected!", func(t *testing.T, e Entry) {
			if e.EjectionName != "Rex Bond" {
				t.Errorf("got ejection name %q", e.EjectionName)
			}
		}},
		{"Lila May wins a door prize: Golden Bat, Tiny Crown!", func(t *testing.T, e Entry) {
			if e.DoorPrizeWinner != "Lila May" {
				t.Errorf("got winner %q", e.DoorPrizeWinner)
			}
			if len(e.DoorPrizeItems) != 2 || e.DoorPrizeItems[0] != "Golden Bat" || e.DoorPrizeItems[1] != "Tiny Crown" {
				t.Errorf("got items %v", e.DoorPrizeItems)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e := parseSingle(t, tt.text)
			if e.Kind != FramingKind {
				t.Fatalf("expected framing, got kind %d", e.Kind)
			}
			tt.check(t, e)
		})
	}
}

func TestParseFairBallDeclaration(t *testing.T) {
	e := parseSingle(t, "Ana Li hits a fly ball to CF.")
	if e.Kind != FairBallKind {
		t.Fatalf("expected fair-ball entry, got kind %d", e.Kind)
	}
	if e.BatterName != "Ana Li" || e.FairBallType != taxa.FlyBall || e.FairBallDirection != "CF" {
		t.Errorf("bad declaration: %+v", e)
	}
}

func TestParsePitches(t *testing.T) {
	tests := []struct {
		text      string
		eventType string
	}{
		{"Ball.", taxa.Ball},
		{"Called strike.", taxa.CalledStrike},
		{"Swinging strike.", taxa.SwingingStrike},
		{"Foul ball.", taxa.Foul},
		{"Foul tip.", taxa.FoulTip},
	}
	for _, tt := range tests {
		e := parseSingle(t, tt.text)
		if e.Kind != MaterialKind || e.EventType != tt.eventType {
			t.Errorf("%q: got kind %d type %q", tt.text, e.Kind, e.EventType)
		}
		if len(e.Runners) != 0 {
			t.Errorf("%q: unexpected runners %v", tt.text, e.Runners)
		}
	}
}

func TestParseOutcomes(t *testing.T) {
	tests := []struct {
		text      string
		eventType string
		batter    string
	}{
		{"Mina Park is hit by the pitch.", taxa.HitByPitch, "Mina Park"},
		{"Mina Park walks.", taxa.Walk, "Mina Park"},
		{"Mina Park strikes out looking.", taxa.StrikeoutLooking, "Mina Park"},
		{"Mina Park strikes out swinging.", taxa.StrikeoutSwinging, "Mina Park"},
		{"Mina Park strikes out on a foul tip.", taxa.StrikeoutFoulTip, "Mina Park"},
		{"Ozzie Smith Jr. strikes out swinging.", taxa.StrikeoutSwinging, "Ozzie Smith Jr."},
	}
	for _, tt := range tests {
		e := parseSingle(t, tt.text)
		if e.EventType != tt.eventType {
			t.Errorf("%q: got type %q", tt.text, e.EventType)
		}
		if e.BatterName != tt.batter {
			t.Errorf("%q: got batter %q, want %q", tt.text, e.BatterName, tt.batter)
		}
	}
}

func TestParseHitWithFielderAndAdvances(t *testing.T) {
	e := parseSingle(t, "Dot Nguyen singles, fielded by SS Ines Alvarez. Bob Tran scores. Carla Ruiz to 3rd.")
	if e.EventType != taxa.Single || e.BatterName != "Dot Nguyen" {
		t.Fatalf("bad head: %+v", e)
	}
	if e.HitBase == nil || *e.HitBase != taxa.FirstBase {
		t.Errorf("got hit base %v", e.HitBase)
	}
	if len(e.Fielders) != 1 || e.Fielders[0].FielderName != "Ines Alvarez" || e.Fielders[0].Slot != "SS" || e.Fielders[0].Approximate {
		t.Errorf("got fielders %v", e.Fielders)
	}
	if len(e.Runners) != 2 {
		t.Fatalf("got %d runners", len(e.Runners))
	}
	if e.Runners[0].RunnerName != "Bob Tran" || e.Runners[0].ToBase != taxa.HomeBase {
		t.Errorf("bad scoring runner %+v", e.Runners[0])
	}
	if e.Runners[1].RunnerName != "Carla Ruiz" || e.Runners[1].ToBase != taxa.ThirdBase || e.Runners[1].BaseDescriptionFormat != "3rd" {
		t.Errorf("bad advancing runner %+v", e.Runners[1])
	}
}

func TestParseGenericPitcherSlotIsApproximate(t *testing.T) {
	e := parseSingle(t, "Jo Kim grounds out, fielded by P Wes Ogden.")
	if len(e.Fielders) != 1 {
		t.Fatalf("got fielders %v", e.Fielders)
	}
	if !e.Fielders[0].Approximate || e.Fielders[0].Slot != "P" {
		t.Errorf("generic P should be approximate: %+v", e.Fielders[0])
	}
}

func TestParseAssistedFielders(t *testing.T) {
	e := parseSingle(t, "Jo Kim grounds out, fielded by SS Ines Alvarez, assisted by 1B Pat Ito.")
	if len(e.Fielders) != 2 {
		t.Fatalf("got %d fielders", len(e.Fielders))
	}
	if e.Fielders[1].FielderName != "Pat Ito" || e.Fielders[1].Slot != "1B" {
		t.Errorf("bad assist credit %+v", e.Fielders[1])
	}
}

func TestParseHomeRunToasty(t *testing.T) {
	e := parseSingle(t, "Mina Park homers! It's toasty! Bob Tran scores.")
	if e.EventType != taxa.HomeRun {
		t.Fatalf("got type %q", e.EventType)
	}
	if e.IsToasty == nil || !*e.IsToasty {
		t.Error("expected toasty")
	}
	if e.HitBase == nil || *e.HitBase != taxa.HomeBase {
		t.Errorf("got hit base %v", e.HitBase)
	}
	if len(e.Runners) != 1 || e.Runners[0].RunnerName != "Bob Tran" {
		t.Errorf("got runners %v", e.Runners)
	}
}

func TestParseFieldingError(t *testing.T) {
	e := parseSingle(t, "Tim Locke reaches on a throwing error by SS Nadia Ortiz.")
	if e.EventType != taxa.FieldingError {
		t.Fatalf("got type %q", e.EventType)
	}
	if e.FieldingErrorType == nil || *e.FieldingErrorType != string(taxa.ThrowingError) {
		t.Errorf("got error type %v", e.FieldingErrorType)
	}
	if len(e.Fielders) != 1 || e.Fielders[0].FielderName != "Nadia Ortiz" {
		t.Errorf("got fielders %v", e.Fielders)
	}

	e = parseSingle(t, "Tim Locke reaches on a catching error by CF Sam Dee.")
	if e.FieldingErrorType == nil || *e.FieldingErrorType != string(taxa.CatchingError) {
		t.Errorf("got error type %v", e.FieldingErrorType)
	}
}

func TestParseFieldersChoice(t *testing.T) {
	e := parseSingle(t, "Gil Soto reaches on a fielder's choice, fielded by 2B Ana Li. Hana Cho out at second base.")
	if e.EventType != taxa.FieldersChoiceOut {
		t.Fatalf("got type %q", e.EventType)
	}
	if len(e.Runners) != 1 {
		t.Fatalf("got runners %v", e.Runners)
	}
	r := e.Runners[0]
	if r.RunnerName != "Hana Cho" || !r.IsOut || r.ToBase != taxa.SecondBase || r.BaseDescriptionFormat != "second base" {
		t.Errorf("bad forced-out runner %+v", r)
	}
}

func TestParseSacrifices(t *testing.T) {
	e := parseSingle(t, "Vic Cruz hits a sacrifice fly, fielded by LF Ty Park. Moe Diaz scores.")
	if e.EventType != taxa.SacrificeFly {
		t.Fatalf("got type %q", e.EventType)
	}
	if e.DescribedAsSacrifice == nil || !*e.DescribedAsSacrifice {
		t.Error("sac fly should be described as sacrifice")
	}

	e = parseSingle(t, "Jo Kim flies out on a sacrifice, fielded by CF Sam Dee.")
	if e.EventType != taxa.InPlayOut {
		t.Fatalf("got type %q", e.EventType)
	}
	if e.DescribedAsSacrifice == nil || !*e.DescribedAsSacrifice {
		t.Error("expected described_as_sacrifice on marked out")
	}

	e = parseSingle(t, "Jo Kim grounds out.")
	if e.DescribedAsSacrifice == nil || *e.DescribedAsSacrifice {
		t.Error("plain out should carry described_as_sacrifice=false")
	}
}

func TestParseBaserunningEvents(t *testing.T) {
	e := parseSingle(t, "Rex Bond is caught stealing third.")
	if e.EventType != taxa.CaughtStealing {
		t.Fatalf("got type %q", e.EventType)
	}
	r := e.Runners[0]
	if !r.IsOut || !r.Steal || r.ToBase != taxa.ThirdBase || r.BaseDescriptionFormat != "third" {
		t.Errorf("bad caught-stealing runner %+v", r)
	}

	e = parseSingle(t, "Lila May is picked off first.")
	if e.EventType != taxa.Pickoff {
		t.Fatalf("got type %q", e.EventType)
	}
	r = e.Runners[0]
	if !r.IsOut || r.Steal || r.ToBase != taxa.FirstBase {
		t.Errorf("bad pickoff runner %+v", r)
	}

	e = parseSingle(t, "Ball. Max Low steals 2nd!")
	if e.EventType != taxa.Ball {
		t.Fatalf("got type %q", e.EventType)
	}
	r = e.Runners[0]
	if !r.Steal || r.IsOut || r.ToBase != taxa.SecondBase || r.BaseDescriptionFormat != "2nd" {
		t.Errorf("bad steal runner %+v", r)
	}
}

func TestParseBalk(t *testing.T) {
	e := parseSingle(t, "Wes Ogden balks. Carla Ruiz to third base.")
	if e.EventType != taxa.Balk {
		t.Fatalf("got type %q", e.EventType)
	}
	if e.PitcherName != "Wes Ogden" || e.BatterName != "" {
		t.Errorf("balk should name the pitcher: %+v", e)
	}
	if len(e.Runners) != 1 || e.Runners[0].ToBase != taxa.ThirdBase {
		t.Errorf("got runners %v", e.Runners)
	}
}

func TestUnmatchedMessageIsErrorLoggedFraming(t *testing.T) {
	tests := []string{
		"Something entirely unexpected happens.",
		"Home Run Challenge! Mina Park steps up.",
		"Wes Ogden walks it off with a balk!",
	}
	for _, text := range tests {
		entries, logs := Parse("game-1", []RawEntry{{Text: text}}, 1, 1)
		if len(entries) != 1 || entries[0].Kind != FramingKind {
			t.Errorf("%q: unmatched message should become framing", text)
		}
		if len(logs) != 1 {
			t.Fatalf("%q: expected one log, got %d", text, len(logs))
		}
		log := logs[0]
		if log.Level != model.ErrorLevel {
			t.Errorf("%q: expected Error level, got %v", text, log.Level)
		}
		if log.GameEventIndex == nil || *log.GameEventIndex != 0 {
			t.Errorf("%q: log should reference event index 0", text)
		}
	}
}

func TestParseAttachesPitchMetadata(t *testing.T) {
	raws := []RawEntry{{
		Text:  "Called strike.",
		Pitch: &PitchInfo{Type: taxa.Cutter, Speed: 93.4, Zone: 5},
	}}
	entries, _ := Parse("game-1", raws, 1, 1)
	e := entries[0]
	if e.Pitch == nil || e.Pitch.Type != taxa.Cutter || e.Pitch.Speed != 93.4 || e.Pitch.Zone != 5 {
		t.Errorf("pitch metadata not attached: %+v", e.Pitch)
	}
}

func TestParseKeepsMetadataBatterForReconciliation(t *testing.T) {
	raws := []RawEntry{{Text: "Mina Park walks.", Batter: "Old Name"}}
	entries, _ := Parse("game-1", raws, 1, 1)
	e := entries[0]
	if e.BatterName != "Mina Park" {
		t.Errorf("parsed name must win, got %q", e.BatterName)
	}
	if e.MetadataBatter != "Old Name" {
		t.Errorf("metadata batter not kept, got %q", e.MetadataBatter)
	}
}
