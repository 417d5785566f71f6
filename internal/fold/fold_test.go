package fold

import (
	"testing"

	"stormlightlabs.org/gamedb/internal/eventtext"
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
	"stormlightlabs.org/gamedb/internal/testutils"
)

// foldScript parses and folds a scripted game document.
func foldScript(t *testing.T, doc *testutils.GameDoc) model.GameResult {
	t.Helper()
	parsed, err := eventtext.ParseGame(doc.Build())
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	return Fold(parsed)
}

// opening is the framing prelude used by most scripts: game start, top of
// the 1st, home starter, and the away lead-off batter.
func opening(doc *testutils.GameDoc, batter string) *testutils.GameDoc {
	return doc.ScriptOpening("Hank Ito", batter)
}

func eventByIndex(t *testing.T, result model.GameResult, idx int) model.Event {
	t.Helper()
	for _, ev := range result.Events {
		if ev.GameEventIndex == idx {
			return ev
		}
	}
	t.Fatalf("no event at index %d (have %d events)", idx, len(result.Events))
	return model.Event{}
}

func runnersForEvent(result model.GameResult, idx int) []model.EventBaserunner {
	var rows []model.EventBaserunner
	for _, r := range result.Baserunners {
		if r.GameEventIndex == idx {
			rows = append(rows, r)
		}
	}
	return rows
}

func TestFoldStrikeout(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-k"), "Mina Park").Events(
		"Ball.",                           // idx 4
		"Called strike.",                  // idx 5
		"Foul ball.",                      // idx 6
		"Mina Park strikes out looking.",  // idx 7
	)
	result := foldScript(t, doc)

	if len(result.Events) != 4 {
		t.Fatalf("expected 4 material events, got %d", len(result.Events))
	}

	wantCounts := []struct{ bb, sb, ba, sa int }{
		{0, 0, 1, 0},
		{1, 0, 1, 1},
		{1, 1, 1, 2},
		{1, 2, 0, 0},
	}
	for i, want := range wantCounts {
		ev := result.Events[i]
		if ev.BallsBefore != want.bb || ev.StrikesBefore != want.sb ||
			ev.BallsAfter != want.ba || ev.StrikesAfter != want.sa {
			t.Errorf("event %d: counts %d-%d→%d-%d, want %d-%d→%d-%d",
				i, ev.BallsBefore, ev.StrikesBefore, ev.BallsAfter, ev.StrikesAfter,
				want.bb, want.sb, want.ba, want.sa)
		}
	}

	k := eventByIndex(t, result, 7)
	if k.EventType != taxa.StrikeoutLooking {
		t.Errorf("got type %q", k.EventType)
	}
	if k.OutsBefore != 0 || k.OutsAfter != 1 {
		t.Errorf("outs %d→%d, want 0→1", k.OutsBefore, k.OutsAfter)
	}
	if k.PitcherName != "Hank Ito" || k.PitcherCount != 1 {
		t.Errorf("pitcher %q count %d", k.PitcherName, k.PitcherCount)
	}
	if k.BatterName != "Mina Park" || k.BatterCount != 1 || k.BatterSubcount != 0 {
		t.Errorf("batter %q count %d subcount %d", k.BatterName, k.BatterCount, k.BatterSubcount)
	}
	if len(result.Baserunners) != 0 {
		t.Errorf("strikeouts must add no baserunner rows, got %v", result.Baserunners)
	}
}

func TestFoldLeadoffHomeRun(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-hr"), "Mina Park").Events(
		"Mina Park hits a fly ball to LF.", // idx 4: declaration
		"Mina Park homers!",                // idx 5: outcome
	)
	result := foldScript(t, doc)

	if len(result.Events) != 1 {
		t.Fatalf("expected 1 material event, got %d", len(result.Events))
	}
	hr := eventByIndex(t, result, 5)
	if hr.FairBallEventIndex == nil || *hr.FairBallEventIndex != 4 {
		t.Errorf("fair_ball_event_index = %v, want 4", hr.FairBallEventIndex)
	}
	if hr.FairBallType == nil || *hr.FairBallType != taxa.FlyBall {
		t.Errorf("fair_ball_type = %v", hr.FairBallType)
	}
	if hr.FairBallDirection == nil || *hr.FairBallDirection != "LF" {
		t.Errorf("fair_ball_direction = %v", hr.FairBallDirection)
	}
	if hr.HitBase == nil || *hr.HitBase != taxa.HomeBase {
		t.Errorf("hit_base = %v, want 0", hr.HitBase)
	}
	if hr.AwayScoreBefore != 0 || hr.AwayScoreAfter != 1 || hr.HomeScoreAfter != 0 {
		t.Errorf("scores %d→%d / %d", hr.AwayScoreBefore, hr.AwayScoreAfter, hr.HomeScoreAfter)
	}

	rows := runnersForEvent(result, 5)
	if len(rows) != 1 {
		t.Fatalf("expected one baserunner row, got %d", len(rows))
	}
	r := rows[0]
	if r.BaseBefore != nil || r.BaseAfter != 0 || r.IsOut {
		t.Errorf("bad batter-runner row %+v", r)
	}
	if r.SourceEventIndex == nil || *r.SourceEventIndex != 5 {
		t.Errorf("source_event_index = %v, want 5", r.SourceEventIndex)
	}
	if !r.IsEarned {
		t.Error("home run must be earned")
	}
}

func TestFoldReachedOnErrorThenScores(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-err"), "Tim Locke").Events(
		"Tim Locke reaches on a throwing error by SS Nadia Ortiz.", // idx 4
		"Now batting: Gil Soto.",                                   // idx 5
		"Gil Soto doubles. Tim Locke scores.",                      // idx 6
	)
	result := foldScript(t, doc)

	errEv := eventByIndex(t, result, 4)
	if errEv.FieldingErrorType == nil || *errEv.FieldingErrorType != string(taxa.ThrowingError) {
		t.Errorf("fielding_error_type = %v", errEv.FieldingErrorType)
	}
	if errEv.ErrorsBefore != 0 || errEv.ErrorsAfter != 1 {
		t.Errorf("errors %d→%d, want 0→1", errEv.ErrorsBefore, errEv.ErrorsAfter)
	}
	errRows := runnersForEvent(result, 4)
	if len(errRows) != 1 {
		t.Fatalf("got %d rows on the error event", len(errRows))
	}
	if errRows[0].IsEarned {
		t.Error("runner who reached on an error is never earned")
	}
	if errRows[0].SourceEventIndex == nil || *errRows[0].SourceEventIndex != 4 {
		t.Errorf("source = %v, want 4", errRows[0].SourceEventIndex)
	}

	dbl := eventByIndex(t, result, 6)
	if dbl.AwayScoreAfter != 1 {
		t.Errorf("away score after double = %d, want 1", dbl.AwayScoreAfter)
	}
	rows := runnersForEvent(result, 6)
	if len(rows) != 2 {
		t.Fatalf("got %d rows on the double", len(rows))
	}
	scored := rows[0]
	if scored.BaserunnerName != "Tim Locke" || scored.BaseAfter != 0 || scored.IsOut {
		t.Errorf("bad scoring row %+v", scored)
	}
	if scored.IsEarned {
		t.Error("run scored by an error-chain runner must be unearned")
	}
	if scored.SourceEventIndex == nil || *scored.SourceEventIndex != 4 {
		t.Errorf("scoring row source = %v, want 4", scored.SourceEventIndex)
	}
	batter := rows[1]
	if batter.BaseBefore != nil || batter.BaseAfter != taxa.SecondBase || !batter.IsEarned {
		t.Errorf("bad batter-runner row %+v", batter)
	}
}

func TestFoldInningRollover(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-roll"), "Mina Park").Events(
		"Mina Park strikes out swinging.",   // idx 4, out 1
		"Now batting: Gil Soto.",            // idx 5
		"Gil Soto strikes out swinging.",    // idx 6, out 2
		"Now batting: Rex Bond.",            // idx 7
		"Ball.",                             // idx 8
		"Rex Bond strikes out looking.",     // idx 9, out 3
		"Bottom of the 1st inning.",         // idx 10
		"Now pitching: Vera Stone (SP1).",   // idx 11
		"Now batting: Pat Ito.",             // idx 12
		"Ball.",                             // idx 13
	)
	result := foldScript(t, doc)

	third := eventByIndex(t, result, 9)
	if third.OutsAfter != 3 || !third.TopOfInning {
		t.Errorf("third out: outs_after=%d top=%v", third.OutsAfter, third.TopOfInning)
	}

	next := eventByIndex(t, result, 13)
	if next.TopOfInning {
		t.Error("event after rollover should be bottom of the inning")
	}
	if next.Inning != 1 {
		t.Errorf("inning = %d, want 1", next.Inning)
	}
	if next.OutsBefore != 0 || next.ErrorsBefore != 0 || next.BallsBefore != 0 || next.StrikesBefore != 0 {
		t.Errorf("half-inning-scoped counters not reset: %+v", next)
	}
	if next.PitcherName != "Vera Stone" || next.BatterName != "Pat Ito" {
		t.Errorf("announcements not applied: pitcher %q batter %q", next.PitcherName, next.BatterName)
	}
	if len(runnersForEvent(result, 13)) != 0 {
		t.Error("bases should be empty after the rollover")
	}
}

func TestFoldWalkOnFourBalls(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-bb"), "Mina Park").Events(
		"Ball.", "Ball.", "Ball.", // idx 4-6
		"Mina Park walks.", // idx 7
	)
	result := foldScript(t, doc)

	walk := eventByIndex(t, result, 7)
	if walk.BallsBefore != 3 || walk.BallsAfter != 0 || walk.StrikesAfter != 0 {
		t.Errorf("walk counts %d→%d, want 3→0", walk.BallsBefore, walk.BallsAfter)
	}
	rows := runnersForEvent(result, 7)
	if len(rows) != 1 || rows[0].BaseBefore != nil || rows[0].BaseAfter != taxa.FirstBase {
		t.Errorf("batter-runner should be on first: %v", rows)
	}
}

func TestFoldFoulWithTwoStrikesHoldsCount(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-foul"), "Mina Park").Events(
		"Foul ball.", "Foul ball.", "Foul ball.", // idx 4-6
	)
	result := foldScript(t, doc)

	last := eventByIndex(t, result, 6)
	if last.StrikesBefore != 2 || last.StrikesAfter != 2 {
		t.Errorf("foul at two strikes: %d→%d, want 2→2", last.StrikesBefore, last.StrikesAfter)
	}
	if last.BatterCount != 1 {
		t.Errorf("PA must not end on a capped foul, batter count %d", last.BatterCount)
	}
}

func TestFoldExtraInningsAutomaticRunner(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-extras"), "Rex Bond").Events(
		"Rex Bond strikes out swinging.", // idx 4: sets the away team's last batter
	)
	// Drive the headers through nine full innings into the top of the 10th.
	for inning := 1; inning <= 9; inning++ {
		doc.Event(ordinalHeader(false, inning))
		if inning < 9 {
			doc.Event(ordinalHeader(true, inning+1))
		}
	}
	doc.Event(ordinalHeader(true, 10))
	doc.Events(
		"Now batting: Mina Park.",
		"Ball.",
	)
	result := foldScript(t, doc)

	last := result.Events[len(result.Events)-1]
	if last.Inning != 10 || !last.TopOfInning {
		t.Fatalf("expected top of the 10th, got inning %d top=%v", last.Inning, last.TopOfInning)
	}

	rows := runnersForEvent(result, last.GameEventIndex)
	if len(rows) != 1 {
		t.Fatalf("expected one automatic-runner row, got %d", len(rows))
	}
	r := rows[0]
	if r.BaserunnerName != "Rex Bond" {
		t.Errorf("automatic runner should be the previous batter, got %q", r.BaserunnerName)
	}
	if r.BaseBefore == nil || *r.BaseBefore != taxa.SecondBase || r.BaseAfter != taxa.SecondBase {
		t.Errorf("automatic runner should hold second: %+v", r)
	}
	if r.SourceEventIndex != nil {
		t.Errorf("automatic runner has no source event, got %v", r.SourceEventIndex)
	}
	if r.IsEarned {
		t.Error("automatic runner can never score an earned run")
	}
}

func ordinalHeader(top bool, inning int) string {
	suffix := "th"
	switch inning {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	side := "Bottom"
	if top {
		side = "Top"
	}
	return side + " of the " + ordinal(inning) + suffix + " inning."
}

func ordinal(n int) string {
	digits := []byte{}
	if n >= 10 {
		digits = append(digits, byte('0'+n/10))
	}
	digits = append(digits, byte('0'+n%10))
	return string(digits)
}

func TestFoldCaughtStealingInterruptedPA(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-cs"), "Rex Bond").Events(
		"Rex Bond singles.",                // idx 4: Rex on first
		"Now batting: Mina Park.",          // idx 5
		"Ball.",                            // idx 6: Mina's PA opens
		"Rex Bond is caught stealing second.", // idx 7: inning-ending out on the bases
		"Bottom of the 1st inning.",        // idx 8
		"Now pitching: Vera Stone (SP1).",  // idx 9
		"Now batting: Pat Ito.",            // idx 10
		"Pat Ito strikes out swinging.",    // idx 11
		"Top of the 2nd inning.",           // idx 12
		"Now batting: Mina Park.",          // idx 13
		"Ball.",                            // idx 14: Mina resumes
	)
	result := foldScript(t, doc)

	first := eventByIndex(t, result, 6)
	if first.BatterCount != 2 || first.BatterSubcount != 0 {
		t.Errorf("interrupted PA: count %d subcount %d, want 2/0", first.BatterCount, first.BatterSubcount)
	}

	cs := eventByIndex(t, result, 7)
	csRows := runnersForEvent(result, 7)
	if len(csRows) != 1 || !csRows[0].IsOut || !csRows[0].Steal {
		t.Errorf("bad caught-stealing rows %v", csRows)
	}
	if cs.OutsAfter != cs.OutsBefore+1 {
		t.Errorf("caught stealing outs %d→%d", cs.OutsBefore, cs.OutsAfter)
	}

	resumed := eventByIndex(t, result, 14)
	if resumed.BatterCount != 2 {
		t.Errorf("batter_count changed across the resumption: %d", resumed.BatterCount)
	}
	if resumed.BatterSubcount != 1 {
		t.Errorf("batter_subcount = %d, want 1", resumed.BatterSubcount)
	}
}

func TestFoldScoreCrossCheck(t *testing.T) {
	// The snapshot claims a 2-0 final, but the log only shows a single
	// run; the fold keeps its own numbers and logs the discrepancy.
	doc := opening(testutils.NewGameDoc("game-mismatch"), "Mina Park").
		FinalScore(2, 0).
		Events(
			"Mina Park homers!",
			"Game over.",
		)
	result := foldScript(t, doc)

	found := false
	for _, l := range result.Logs {
		if l.Level == model.WarningLevel && l.GameEventIndex == nil {
			found = true
		}
	}
	if !found {
		t.Error("expected a game-wide warning about the score discrepancy")
	}
}

func TestFoldParseFailureKeepsGame(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-badmsg"), "Mina Park").Events(
		"Ball.",
		"The umpire does a little dance.", // unmatched
		"Called strike.",
	)
	result := foldScript(t, doc)

	if len(result.Events) != 2 {
		t.Fatalf("expected 2 material events, got %d", len(result.Events))
	}
	var errLog *model.LogEntry
	for i, l := range result.Logs {
		if l.Level == model.ErrorLevel {
			errLog = &result.Logs[i]
		}
	}
	if errLog == nil {
		t.Fatal("expected an Error-level parse log")
	}
	if errLog.GameEventIndex == nil || *errLog.GameEventIndex != 5 {
		t.Errorf("parse log index = %v, want 5", errLog.GameEventIndex)
	}
	if !result.HasIssues() {
		t.Error("game with a parse error must surface on the issues list")
	}
	// The raw-event projection still covers every log line.
	if len(result.RawEvents) != 7 {
		t.Errorf("raw events = %d, want 7", len(result.RawEvents))
	}
}

func TestFoldPitcherChangeSources(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-pitchers"), "Mina Park").Events(
		"Ball.",                            // idx 4: pitcher count 1
		"Now pitching: Wes Ogden (RP1).",   // idx 5: ordinary change
		"Ball.",                            // idx 6
		"A falling star lands on Wes Ogden!", // idx 7
		"Now pitching: Ty Park (RP2).",     // idx 8: falling-star change
		"Ball.",                            // idx 9
		"Mina Park receives an augment.",   // idx 10
		"Now pitching: Ty Park (RP2).",     // idx 11: augment, same slot
		"Ball.",                            // idx 12
	)
	result := foldScript(t, doc)

	if got := eventByIndex(t, result, 4).PitcherCount; got != 1 {
		t.Errorf("starter pitcher_count = %d, want 1", got)
	}
	if got := eventByIndex(t, result, 6).PitcherCount; got != 2 {
		t.Errorf("after change pitcher_count = %d, want 2", got)
	}
	if got := eventByIndex(t, result, 9).PitcherCount; got != 3 {
		t.Errorf("after falling star pitcher_count = %d, want 3", got)
	}
	if got := eventByIndex(t, result, 12).PitcherCount; got != 3 {
		t.Errorf("augment must not increment pitcher_count, got %d", got)
	}

	if len(result.PitcherChanges) != 3 {
		t.Fatalf("expected 3 pitcher_changes rows, got %d", len(result.PitcherChanges))
	}
	if result.PitcherChanges[0].Source != "PitcherChange" {
		t.Errorf("first change source %q", result.PitcherChanges[0].Source)
	}
	if result.PitcherChanges[1].Source != "FallingStar" {
		t.Errorf("second change source %q", result.PitcherChanges[1].Source)
	}
	if result.PitcherChanges[2].Source != "Augment" {
		t.Errorf("third change source %q", result.PitcherChanges[2].Source)
	}
}

func TestFoldSideTables(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-side"), "Mina Park").Events(
		"Rex Bond is ejected!",
		"Lila May wins a door prize: Golden Bat, Tiny Crown!",
	)
	result := foldScript(t, doc)

	if len(result.Ejections) != 1 || result.Ejections[0].Name != "Rex Bond" {
		t.Errorf("ejections = %v", result.Ejections)
	}
	if len(result.DoorPrizes) != 2 {
		t.Fatalf("door prizes = %v", result.DoorPrizes)
	}
	if result.DoorPrizes[0].Item != "Golden Bat" || result.DoorPrizes[1].Item != "Tiny Crown" {
		t.Errorf("door prize items = %v", result.DoorPrizes)
	}
}

func TestFoldCheerAttachesToNextMaterialEvent(t *testing.T) {
	doc := opening(testutils.NewGameDoc("game-cheer"), "Mina Park").Events(
		"The crowd cheers: Go Axolotls!",
		"Ball.",
		"Called strike.",
	)
	result := foldScript(t, doc)

	ball := eventByIndex(t, result, 5)
	if ball.Cheer == nil || *ball.Cheer != "Go Axolotls!" {
		t.Errorf("cheer = %v", ball.Cheer)
	}
	strike := eventByIndex(t, result, 6)
	if strike.Cheer != nil {
		t.Error("cheer must only attach once")
	}
}
