package fold

import (
	"fmt"

	"stormlightlabs.org/gamedb/internal/eventtext"
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
)

// Fold folds one parsed game into materialized rows: events with
// running counts, baserunner and fielder children, and the per-game side
// tables. It never suspends (no I/O): folding is CPU-only and
// synchronous on the caller's task.
func Fold(parsed *eventtext.ParsedGame) model.GameResult {
	acc := newAccumulator()
	gameID := parsed.Game.MMOLBGameID

	result := model.GameResult{
		Game:      parsed.Game,
		Weather:   parsed.Weather,
		RawEvents: parsed.RawEvents,
		Logs:      append([]model.LogEntry(nil), parsed.Logs...),
	}
	logIdx := len(result.Logs)
	outsRolledOver := false

	day := 0
	if parsed.Game.Day != nil {
		day = *parsed.Game.Day
	}
	skippedAnnouncementsOK := eventtext.SkippedNowBattingExpected(parsed.Game.Season, day)

	for _, entry := range parsed.Entries {
		if entry.Duplicate() {
			continue
		}

		switch entry.Kind {
		case eventtext.FramingKind:
			acc.processFraming(entry, &result, &outsRolledOver)
		case eventtext.FairBallKind:
			acc.pendingFairBall = &fairBall{
				index:     entry.GameEventIndex,
				ballType:  entry.FairBallType,
				direction: entry.FairBallDirection,
			}
			if entry.Cheer != nil {
				acc.pendingCheer = entry.Cheer
			}
		case eventtext.MaterialKind:
			ev, logs := acc.processMaterial(gameID, entry, &logIdx, skippedAnnouncementsOK)
			result.Events = append(result.Events, ev)
			result.Logs = append(result.Logs, logs...)
			result.Baserunners = append(result.Baserunners, acc.lastBaserunnerRows...)
			result.Fielders = append(result.Fielders, acc.lastFielderRows...)
			if ev.OutsAfter >= 3 {
				acc.advanceOnThirdOut()
				outsRolledOver = true
			}
		}
	}

	result.Logs = append(result.Logs, acc.crossCheckFinalScore(gameID, &parsed.Game, &logIdx)...)
	return result
}

// processFraming applies a non-material entry's side effects: cheer
// carry-over, half-inning transitions, batter and pitcher announcements,
// and the per-game side-table rows (pitcher changes, ejections, door
// prizes).
func (a *accumulator) processFraming(entry eventtext.Entry, result *model.GameResult, outsRolledOver *bool) {
	switch {
	case entry.Cheer != nil:
		a.pendingCheer = entry.Cheer

	case entry.IsInningHeader:
		if !*outsRolledOver {
			a.transitionHalfInning(entry.TopOfInningSide)
		} else {
			// The fold already rolled over on the third out; the header
			// only confirms the side.
			a.topOfInning = entry.TopOfInningSide
			*outsRolledOver = false
		}

	case entry.NowBattingName != "":
		a.currentBatter[a.battingTeam()] = entry.NowBattingName
		a.nowBattingSeen[a.battingTeam()] = true

	case entry.NowPitchingName != "":
		a.applyPitchingChange(entry, result)

	case entry.FallingStarName != "":
		a.pendingChangeSource = "FallingStar"

	case entry.AugmentName != "":
		a.pendingChangeSource = "Augment"

	case entry.ReplacementFrom != "":
		a.applyReplacement(entry, result)

	case entry.EjectionName != "":
		result.Ejections = append(result.Ejections, model.Ejection{
			GameEventIndex: entry.GameEventIndex,
			Name:           entry.EjectionName,
		})

	case entry.DoorPrizeWinner != "":
		for _, item := range entry.DoorPrizeItems {
			result.DoorPrizes = append(result.DoorPrizes, model.DoorPrize{
				GameEventIndex: entry.GameEventIndex,
				WinnerName:     entry.DoorPrizeWinner,
				Item:           item,
			})
		}
	}
}

// applyPitchingChange handles a pitching announcement. The turnover
// counter only
// moves when the slot itself changed hands (a pitching change or a
// falling-star replacement); augments and retirements rename the occupant
// without a turnover.
func (a *accumulator) applyPitchingChange(entry eventtext.Entry, result *model.GameResult) {
	defending := a.defendingTeam()
	source := a.pendingChangeSource
	if source == "" {
		source = "PitcherChange"
	}
	a.pendingChangeSource = ""

	previousSlot := a.lastPitcherSlot[defending]
	a.currentPitcher[defending] = entry.NowPitchingName
	a.lastPitcherSlot[defending] = entry.NowPitchingSlot

	if previousSlot == "" {
		// Starter announcement; counts as the first pitcher, not a change.
		a.pitcherCount[defending] = 1
		return
	}
	if previousSlot == entry.NowPitchingSlot && source == "PitcherChange" {
		return
	}

	if source == "PitcherChange" || source == "FallingStar" {
		a.pitcherCount[defending]++
	}
	result.PitcherChanges = append(result.PitcherChanges, model.PitcherChange{
		GameEventIndex: entry.GameEventIndex,
		Team:           defending,
		Source:         source,
		PitcherName:    entry.NowPitchingName,
		PitcherSlot:    entry.NowPitchingSlot,
	})
}

// applyReplacement renames a participant in place (retirement or similar
// swap). Slot and turnover counters are untouched; a replaced pitcher is
// recorded in the side table with source Retirement.
func (a *accumulator) applyReplacement(entry eventtext.Entry, result *model.GameResult) {
	a.pendingChangeSource = ""
	for _, team := range []string{home, away} {
		if a.currentPitcher[team] == entry.ReplacementFrom {
			a.currentPitcher[team] = entry.ReplacementTo
			result.PitcherChanges = append(result.PitcherChanges, model.PitcherChange{
				GameEventIndex: entry.GameEventIndex,
				Team:           team,
				Source:         "Retirement",
				PitcherName:    entry.ReplacementTo,
				PitcherSlot:    a.lastPitcherSlot[team],
			})
		}
		if a.currentBatter[team] == entry.ReplacementFrom {
			a.currentBatter[team] = entry.ReplacementTo
		}
	}
}

// processMaterial materializes one material entry,
// returning the materialized event row and any log entries it produced.
func (a *accumulator) processMaterial(gameID model.GameID, entry eventtext.Entry, logIdx *int, skippedAnnouncementsOK bool) (model.Event, []model.LogEntry) {
	var logs []model.LogEntry
	logf := func(level model.LogLevel, format string, args ...any) {
		idx := entry.GameEventIndex
		logs = append(logs, model.LogEntry{
			GameID:         gameID,
			GameEventIndex: &idx,
			LogIndex:       *logIdx,
			Level:          level,
			Text:           fmt.Sprintf(format, args...),
		})
		*logIdx++
	}

	info, known := taxa.EventTypes[entry.EventType]
	if !known {
		logf(model.ErrorLevel, "unrecognized event type %q", entry.EventType)
	}

	batting := a.battingTeam()
	defending := a.defendingTeam()

	// Step 3: batter turnover and consecutive-PA grouping. The name
	// parsed from the message wins over snapshot metadata, which goes
// stale when a batter retires mid-PA.
	batter := entry.BatterName
	if batter == "" {
		batter = a.currentBatter[batting]
	} else {
		if entry.MetadataBatter != "" && entry.MetadataBatter != batter {
			logf(model.DebugLevel, "snapshot batter %q disagrees with message batter %q; using the message",
				entry.MetadataBatter, batter)
		}
		a.currentBatter[batting] = batter
	}

	if batter != "" {
		switch {
		case batter != a.lastBatter[batting]:
			a.batterCount[batting]++
			a.batterSubcount[batting] = 0
			a.lastBatter[batting] = batter
			a.paEnded[batting] = false
			if !a.nowBattingSeen[batting] && !skippedAnnouncementsOK {
				logf(model.WarningLevel, "batter turnover to %q without announcement", batter)
			}
			a.nowBattingSeen[batting] = false
		case a.paEnded[batting] || a.lastBatterHalf[batting] != a.half():
			// Same batter starting a fresh PA: either their previous PA
			// completed, or it was cut short by an inning-ending out on
			// the bases. batter_count holds; the subcount advances.
			a.batterSubcount[batting]++
			a.paEnded[batting] = false
		}
		a.lastBatterHalf[batting] = a.half()
	}

	// Step 2: pitcher identity. Announcements own slot turnover; a balk
	// is the only material entry that names the pitcher directly.
	pitcher := entry.PitcherName
	if pitcher == "" {
		pitcher = a.currentPitcher[defending]
	} else {
		a.currentPitcher[defending] = pitcher
	}

	ballsBefore, strikesBefore, outsBefore, errorsBefore := a.balls, a.strikes, a.outs, a.errs
	awayBefore, homeBefore := a.awayScore, a.homeScore

	// Step 4: counts from the event-type taxon flags.
	ballsAfter, strikesAfter := NextCounts(ballsBefore, strikesBefore, info)
	if info.EndsPlateAppearance {
		a.paEnded[batting] = true
	}
	a.balls, a.strikes = ballsAfter, strikesAfter

	// Step 5: baserunner roll-forward.
	baserunnerRows, runnerLogs := a.rollForwardBaserunners(gameID, entry, batter, logIdx)
	logs = append(logs, runnerLogs...)

	// Step 6: scores.
	for _, row := range baserunnerRows {
		if row.BaseAfter == taxa.HomeBase && !row.IsOut {
			if batting == away {
				a.awayScore++
			} else {
				a.homeScore++
			}
		}
	}

	// Step 7: outs. Runner outs come from the rows; strikeouts and balls
	// fielded for a routine out are implied by the event type alone.
	outsAfter := outsBefore
	for _, row := range baserunnerRows {
		if row.IsOut {
			outsAfter++
		}
	}
	if taxa.DirectOut(entry.EventType) {
		outsAfter++
	}
	a.outs = outsAfter

	// Step 8: errors.
	errorsAfter := errorsBefore
	if info.IsError {
		errorsAfter++
	}
	a.errs = errorsAfter

	// Step 9: fair-ball pairing.
	var fairBallIdx *int
	var fairBallType, fairBallDirection *string
	if fb := a.pendingFairBall; fb != nil {
		idx := fb.index
		fairBallIdx = &idx
		if fb.ballType != "" {
			t := fb.ballType
			fairBallType = &t
		}
		if fb.direction != "" {
			d := fb.direction
			fairBallDirection = &d
		}
		a.pendingFairBall = nil
	}

	// Step 10: cheer.
	var cheer *string
	if a.pendingCheer != nil {
		cheer = a.pendingCheer
		a.pendingCheer = nil
	}

	var pitchType *string
	var pitchSpeed *float64
	var pitchZone *int
	if entry.Pitch != nil {
		if _, ok := taxa.PitchTypes[entry.Pitch.Type]; ok {
			t := entry.Pitch.Type
			pitchType = &t
		} else if entry.Pitch.Type != "" {
			logf(model.WarningLevel, "unknown pitch type %q", entry.Pitch.Type)
		}
		speed := entry.Pitch.Speed
		zone := entry.Pitch.Zone
		pitchSpeed = &speed
		pitchZone = &zone
	}

	var sacrifice *bool
	if taxa.CanBeSacrifice(entry.EventType) {
		v := entry.DescribedAsSacrifice != nil && *entry.DescribedAsSacrifice
		sacrifice = &v
	}

	var toasty *bool
	if taxa.CanBeToasty(entry.EventType) {
		v := entry.IsToasty != nil && *entry.IsToasty
		toasty = &v
	}

	ev := model.Event{
		GameID:               gameID,
		GameEventIndex:       entry.GameEventIndex,
		FairBallEventIndex:   fairBallIdx,
		Inning:               a.inning,
		TopOfInning:          a.topOfInning,
		EventType:            entry.EventType,
		HitBase:              entry.HitBase,
		FairBallType:         fairBallType,
		FairBallDirection:    fairBallDirection,
		FieldingErrorType:    entry.FieldingErrorType,
		PitchType:            pitchType,
		PitchSpeed:           pitchSpeed,
		PitchZone:            pitchZone,
		DescribedAsSacrifice: sacrifice,
		IsToasty:             toasty,
		BallsBefore:          ballsBefore,
		BallsAfter:           ballsAfter,
		StrikesBefore:        strikesBefore,
		StrikesAfter:         strikesAfter,
		OutsBefore:           outsBefore,
		OutsAfter:            outsAfter,
		ErrorsBefore:         errorsBefore,
		ErrorsAfter:          errorsAfter,
		AwayScoreBefore:      awayBefore,
		AwayScoreAfter:       a.awayScore,
		HomeScoreBefore:      homeBefore,
		HomeScoreAfter:       a.homeScore,
		PitcherName:          pitcher,
		BatterName:           batter,
		PitcherCount:         a.pitcherCount[defending],
		BatterCount:          a.batterCount[batting],
		BatterSubcount:       a.batterSubcount[batting],
		Cheer:                cheer,
	}

	a.lastBaserunnerRows = baserunnerRows
	a.lastFielderRows = fielderRowsFrom(entry)

	if outsAfter > 3 {
		logf(model.WarningLevel, "outs_after=%d exceeds 3", outsAfter)
	}
	for _, f := range a.lastFielderRows {
		if f.Approximate {
			logf(model.WarningLevel, "approximate fielder slot %q for %s", f.FielderSlot, f.FielderName)
		}
	}

	return ev, logs
}

// crossCheckFinalScore compares the folded running score against the
// snapshot's final score for complete games. The rows keep the folded
// values; the discrepancy is only logged.
func (a *accumulator) crossCheckFinalScore(gameID model.GameID, game *model.Game, logIdx *int) []model.LogEntry {
	if game.IsOngoing {
		return nil
	}

	var logs []model.LogEntry
	check := func(label string, folded int, final *int) {
		if final != nil && *final != folded {
			logs = append(logs, model.LogEntry{
				GameID:   gameID,
				LogIndex: *logIdx,
				Level:    model.WarningLevel,
				Text:     fmt.Sprintf("folded %s score %d disagrees with snapshot final score %d", label, folded, *final),
			})
			*logIdx++
		}
	}
	check("away", a.awayScore, game.AwayTeamFinalScore)
	check("home", a.homeScore, game.HomeTeamFinalScore)
	return logs
}
