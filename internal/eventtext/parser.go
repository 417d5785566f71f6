// Package eventtext parses a raw game document's free-form event-log
// messages into a typed sequence of framing entries, fair-ball
// declarations, and material events. The grammar is closed: every message
// the parser accepts maps to exactly one entry kind, and an unmatched
// message produces an Error-level log record while being treated as
// framing.
package eventtext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
)

// RawEntry is one undecoded event-log line plus the structured metadata
// the snapshot attaches to it.
type RawEntry struct {
	Text   string
	Pitch  *PitchInfo
	Batter string // snapshot metadata; may be stale mid-PA
}

const (
	nameToken = `[A-Z][\w'-]*(?:\.)?(?: [A-Z][\w'-]*(?:\.)?)*`
	slotToken = `SP[1-5]|RP[1-3]|CL|1B|2B|3B|SS|LF|CF|RF|DH|P|C`
	baseToken = `first base|second base|third base|first|second|third|home|1st|2nd|3rd`
)

// fielderClause matches "SLOT NAME" with an optional ", assisted by SLOT NAME".
var fielderClause = `(?:` + slotToken + `) ` + nameToken + `(?:, assisted by (?:` + slotToken + `) ` + nameToken + `)?`

var (
	reInningTop    = regexp.MustCompile(`^Top of the (\d+)(?:st|nd|rd|th) inning\.$`)
	reInningBottom = regexp.MustCompile(`^Bottom of the (\d+)(?:st|nd|rd|th) inning\.$`)
	reGameStart    = regexp.MustCompile(`^Play ball!$`)
	reGameEnd      = regexp.MustCompile(`^Game over\.$`)
	reNowBatting   = regexp.MustCompile(`^Now batting: (` + nameToken + `)\.$`)
	reNowPitching  = regexp.MustCompile(`^Now pitching: (` + nameToken + `) \((` + slotToken + `)\)\.$`)
	reMoundVisit   = regexp.MustCompile(`^(.+) is making a mound visit\.$`)
	reWeather      = regexp.MustCompile(`^Weather: (.+)$`)
	reCheer        = regexp.MustCompile(`^The crowd cheers: (.+)$`)
	reFallingStar  = regexp.MustCompile(`^A falling star lands on (` + nameToken + `)!$`)
	reAugment      = regexp.MustCompile(`^(` + nameToken + `) receives an augment\.$`)
	reReplacement  = regexp.MustCompile(`^(` + nameToken + `) is replaced by (` + nameToken + `)\.$`)
	reEjection     = regexp.MustCompile(`^(` + nameToken + `) is ejected!$`)
	reDoorPrize    = regexp.MustCompile(`^(` + nameToken + `) wins a door prize: (.+)!$`)

	reFairBall = regexp.MustCompile(`^(` + nameToken + `) hits a (ground ball|line drive|fly ball|popup) to (.+)\.$`)
)

// material heads are matched as anchored prefixes; any remaining text is
// parsed as advancement clauses.
var (
	reBall           = regexp.MustCompile(`^Ball\.`)
	reCalledStrike   = regexp.MustCompile(`^Called strike\.`)
	reSwingingStrike = regexp.MustCompile(`^Swinging strike\.`)
	reFoulBall       = regexp.MustCompile(`^Foul ball\.`)
	reFoulTip        = regexp.MustCompile(`^Foul tip\.`)
	reHitByPitch     = regexp.MustCompile(`^(` + nameToken + `) is hit by the pitch\.`)
	reWalk           = regexp.MustCompile(`^(` + nameToken + `) walks\.`)
	reKLooking       = regexp.MustCompile(`^(` + nameToken + `) strikes out looking\.`)
	reKSwinging      = regexp.MustCompile(`^(` + nameToken + `) strikes out swinging\.`)
	reKFoulTip       = regexp.MustCompile(`^(` + nameToken + `) strikes out on a foul tip\.`)
	reSingle         = regexp.MustCompile(`^(` + nameToken + `) singles(?:, fielded by (` + fielderClause + `))?\.`)
	reDouble         = regexp.MustCompile(`^(` + nameToken + `) doubles(?:, fielded by (` + fielderClause + `))?\.`)
	reTriple         = regexp.MustCompile(`^(` + nameToken + `) triples(?:, fielded by (` + fielderClause + `))?\.`)
	reHomeRun        = regexp.MustCompile(`^(` + nameToken + `) homers!`)
	reFieldingError  = regexp.MustCompile(`^(` + nameToken + `) reaches on a (throwing|catching) error by (` + fielderClause + `)\.`)
	reFieldersChoice = regexp.MustCompile(`^(` + nameToken + `) reaches on a fielder's choice(?:, fielded by (` + fielderClause + `))?\.`)
	reSacFly         = regexp.MustCompile(`^(` + nameToken + `) hits a sacrifice fly(?:, fielded by (` + fielderClause + `))?\.`)
	reInPlayOut      = regexp.MustCompile(`^(` + nameToken + `) (grounds|flies|lines|pops) out( on a sacrifice)?(?:, fielded by (` + fielderClause + `))?\.`)
	reBalk           = regexp.MustCompile(`^(` + nameToken + `) balks\.`)
	reCaughtStealing = regexp.MustCompile(`^(` + nameToken + `) is caught stealing (` + baseToken + `)\.`)
	rePickoff        = regexp.MustCompile(`^(` + nameToken + `) is picked off (` + baseToken + `)\.`)
)

// advancement clauses, matched anchored after a material head.
var (
	reClauseScores = regexp.MustCompile(`^(` + nameToken + `) scores\.`)
	reClauseTo     = regexp.MustCompile(`^(` + nameToken + `) to (` + baseToken + `)\.`)
	reClauseOutAt  = regexp.MustCompile(`^(` + nameToken + `) out at (` + baseToken + `)\.`)
	reClauseSteals = regexp.MustCompile(`^(` + nameToken + `) steals (` + baseToken + `)!`)
	reClauseToasty = regexp.MustCompile(`^It's toasty!`)
)

// Parse turns one game's raw event-log entries into parsed entries plus
// any log entries produced by unmatched messages. Season and day select
// the compatibility quirks to apply.
func Parse(gameID model.GameID, raws []RawEntry, season int, day int) ([]Entry, []model.LogEntry) {
	entries := make([]Entry, 0, len(raws))
	var logs []model.LogEntry
	logIdx := 0

	for idx, raw := range raws {
		trimmed := strings.TrimSpace(raw.Text)
		entry, ok := parseOne(idx, trimmed)
		if !ok {
			idxCopy := idx
			logs = append(logs, model.LogEntry{
				GameID:         gameID,
				GameEventIndex: &idxCopy,
				LogIndex:       logIdx,
				Level:          model.ErrorLevel,
				Text:           fmt.Sprintf("unmatched event-log message: %q", trimmed),
			})
			logIdx++
			entry = Entry{Kind: FramingKind, GameEventIndex: idx, Text: trimmed}
		}
		if entry.Kind == MaterialKind {
			entry.Pitch = raw.Pitch
			entry.MetadataBatter = raw.Batter
		}
		entries = append(entries, entry)
	}

	applyQuirks(entries, season, day)
	return entries, logs
}

func parseOne(idx int, text string) (Entry, bool) {
	if e, ok := parseFraming(idx, text); ok {
		return e, true
	}
	if m := reFairBall.FindStringSubmatch(text); m != nil {
		return Entry{
			Kind:              FairBallKind,
			GameEventIndex:    idx,
			Text:              text,
			BatterName:        m[1],
			FairBallType:      fairBallTypeName(m[2]),
			FairBallDirection: m[3],
		}, true
	}
	return parseMaterial(idx, text)
}

func parseFraming(idx int, text string) (Entry, bool) {
	e := Entry{Kind: FramingKind, GameEventIndex: idx, Text: text}

	switch {
	case reGameStart.MatchString(text):
		e.IsGameStart = true
	case reGameEnd.MatchString(text):
		e.IsGameEnd = true
	default:
		if m := reInningTop.FindStringSubmatch(text); m != nil {
			e.IsInningHeader = true
			e.TopOfInningSide = true
			e.InningNumber, _ = strconv.Atoi(m[1])
			return e, true
		}
		if m := reInningBottom.FindStringSubmatch(text); m != nil {
			e.IsInningHeader = true
			e.TopOfInningSide = false
			e.InningNumber, _ = strconv.Atoi(m[1])
			return e, true
		}
		if m := reNowBatting.FindStringSubmatch(text); m != nil {
			e.NowBattingName = m[1]
			return e, true
		}
		if m := reNowPitching.FindStringSubmatch(text); m != nil {
			e.NowPitchingName = m[1]
			e.NowPitchingSlot = m[2]
			return e, true
		}
		if reMoundVisit.MatchString(text) {
			e.IsMoundVisit = true
			return e, true
		}
		if m := reWeather.FindStringSubmatch(text); m != nil {
			change := m[1]
			e.WeatherChange = &change
			return e, true
		}
		if m := reCheer.FindStringSubmatch(text); m != nil {
			cheer := m[1]
			e.Cheer = &cheer
			return e, true
		}
		if m := reFallingStar.FindStringSubmatch(text); m != nil {
			e.FallingStarName = m[1]
			return e, true
		}
		if m := reAugment.FindStringSubmatch(text); m != nil {
			e.AugmentName = m[1]
			return e, true
		}
		if m := reReplacement.FindStringSubmatch(text); m != nil {
			e.ReplacementFrom = m[1]
			e.ReplacementTo = m[2]
			return e, true
		}
		if m := reEjection.FindStringSubmatch(text); m != nil {
			e.EjectionName = m[1]
			return e, true
		}
		if m := reDoorPrize.FindStringSubmatch(text); m != nil {
			e.DoorPrizeWinner = m[1]
			e.DoorPrizeItems = strings.Split(m[2], ", ")
			return e, true
		}
		return Entry{}, false
	}

	return e, true
}

// materialHead is one anchored head production: the pattern plus the
// function that seeds the Entry from its captures.
type materialHead struct {
	pattern *regexp.Regexp
	build   func(e *Entry, m []string)
}

var materialHeads = []materialHead{
	{reBall, func(e *Entry, m []string) { e.EventType = taxa.Ball }},
	{reCalledStrike, func(e *Entry, m []string) { e.EventType = taxa.CalledStrike }},
	{reSwingingStrike, func(e *Entry, m []string) { e.EventType = taxa.SwingingStrike }},
	{reFoulBall, func(e *Entry, m []string) { e.EventType = taxa.Foul }},
	{reFoulTip, func(e *Entry, m []string) { e.EventType = taxa.FoulTip }},
	{reHitByPitch, func(e *Entry, m []string) { e.EventType = taxa.HitByPitch; e.BatterName = m[1] }},
	{reWalk, func(e *Entry, m []string) { e.EventType = taxa.Walk; e.BatterName = m[1] }},
	{reKLooking, func(e *Entry, m []string) { e.EventType = taxa.StrikeoutLooking; e.BatterName = m[1] }},
	{reKSwinging, func(e *Entry, m []string) { e.EventType = taxa.StrikeoutSwinging; e.BatterName = m[1] }},
	{reKFoulTip, func(e *Entry, m []string) { e.EventType = taxa.StrikeoutFoulTip; e.BatterName = m[1] }},
	{reSingle, buildHit(taxa.Single, taxa.FirstBase)},
	{reDouble, buildHit(taxa.Double, taxa.SecondBase)},
	{reTriple, buildHit(taxa.Triple, taxa.ThirdBase)},
	{reHomeRun, func(e *Entry, m []string) {
		e.EventType = taxa.HomeRun
		e.BatterName = m[1]
		hb := taxa.HomeBase
		e.HitBase = &hb
	}},
	{reFieldingError, func(e *Entry, m []string) {
		e.EventType = taxa.FieldingError
		e.BatterName = m[1]
		errType := taxa.ThrowingError
		if m[2] == "catching" {
			errType = taxa.CatchingError
		}
		s := string(errType)
		e.FieldingErrorType = &s
		e.Fielders = parseFielders(m[3])
		first := taxa.FirstBase
		e.HitBase = &first
	}},
	{reFieldersChoice, func(e *Entry, m []string) {
		e.EventType = taxa.FieldersChoiceOut
		e.BatterName = m[1]
		e.Fielders = parseFielders(m[2])
	}},
	{reSacFly, func(e *Entry, m []string) {
		e.EventType = taxa.SacrificeFly
		e.BatterName = m[1]
		e.Fielders = parseFielders(m[2])
		sac := true
		e.DescribedAsSacrifice = &sac
	}},
	{reInPlayOut, func(e *Entry, m []string) {
		e.EventType = taxa.InPlayOut
		e.BatterName = m[1]
		sac := m[3] != ""
		e.DescribedAsSacrifice = &sac
		e.Fielders = parseFielders(m[4])
	}},
	{reBalk, func(e *Entry, m []string) { e.EventType = taxa.Balk; e.PitcherName = m[1] }},
	{reCaughtStealing, func(e *Entry, m []string) {
		e.EventType = taxa.CaughtStealing
		base, format, _ := taxa.BaseFromText(m[2])
		e.Runners = append(e.Runners, RunnerMovement{
			RunnerName:            m[1],
			ToBase:                base,
			IsOut:                 true,
			Steal:                 true,
			BaseDescriptionFormat: format,
		})
	}},
	{rePickoff, func(e *Entry, m []string) {
		e.EventType = taxa.Pickoff
		base, format, _ := taxa.BaseFromText(m[2])
		e.Runners = append(e.Runners, RunnerMovement{
			RunnerName:            m[1],
			ToBase:                base,
			IsOut:                 true,
			BaseDescriptionFormat: format,
		})
	}},
}

func buildHit(eventType string, hitBase int) func(*Entry, []string) {
	return func(e *Entry, m []string) {
		e.EventType = eventType
		e.BatterName = m[1]
		hb := hitBase
		e.HitBase = &hb
		e.Fielders = parseFielders(m[2])
	}
}

func parseMaterial(idx int, text string) (Entry, bool) {
	for _, head := range materialHeads {
		m := head.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		e := Entry{Kind: MaterialKind, GameEventIndex: idx, Text: text}
		head.build(&e, m)

		rest := strings.TrimSpace(text[len(m[0]):])
		if !parseClauses(&e, rest) {
			return Entry{}, false
		}
		return e, true
	}
	return Entry{}, false
}

// parseClauses consumes the advancement sentences that follow a material
// head. A remainder that doesn't reduce to known clauses fails the whole
// message, keeping the grammar closed.
func parseClauses(e *Entry, rest string) bool {
	for rest != "" {
		switch {
		case matchClause(reClauseScores, &rest, func(m []string) {
			e.Runners = append(e.Runners, RunnerMovement{RunnerName: m[1], ToBase: taxa.HomeBase})
		}):
		case matchClause(reClauseOutAt, &rest, func(m []string) {
			base, format, _ := taxa.BaseFromText(m[2])
			e.Runners = append(e.Runners, RunnerMovement{
				RunnerName: m[1], ToBase: base, IsOut: true, BaseDescriptionFormat: format,
			})
		}):
		case matchClause(reClauseSteals, &rest, func(m []string) {
			base, format, _ := taxa.BaseFromText(m[2])
			e.Runners = append(e.Runners, RunnerMovement{
				RunnerName: m[1], ToBase: base, Steal: true, BaseDescriptionFormat: format,
			})
		}):
		case matchClause(reClauseTo, &rest, func(m []string) {
			base, format, _ := taxa.BaseFromText(m[2])
			e.Runners = append(e.Runners, RunnerMovement{
				RunnerName: m[1], ToBase: base, BaseDescriptionFormat: format,
			})
		}):
		case matchClause(reClauseToasty, &rest, func(m []string) {
			if e.EventType == taxa.HomeRun || taxa.EventTypes[e.EventType].IsHit {
				toasty := true
				e.IsToasty = &toasty
			}
		}):
		default:
			return false
		}
	}
	return true
}

func matchClause(re *regexp.Regexp, rest *string, apply func(m []string)) bool {
	m := re.FindStringSubmatch(*rest)
	if m == nil {
		return false
	}
	apply(m)
	*rest = strings.TrimSpace((*rest)[len(m[0]):])
	return true
}

var fielderSplit = regexp.MustCompile(`^(` + slotToken + `) (` + nameToken + `)$`)

// parseFielders resolves a "SLOT NAME[, assisted by SLOT NAME]" credit
// list into FielderCredit rows with best-effort slot identification
// and flags generic credits for the approximate-slot warning.
func parseFielders(clause string) []FielderCredit {
	if clause == "" {
		return nil
	}
	var credits []FielderCredit
	for _, part := range strings.Split(clause, ", assisted by ") {
		m := fielderSplit.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		slot, approx := taxa.ApproximateSlotFor(m[1])
		credits = append(credits, FielderCredit{FielderName: m[2], Slot: slot, Approximate: approx})
	}
	return credits
}

func fairBallTypeName(text string) string {
	switch text {
	case "ground ball":
		return taxa.GroundBall
	case "line drive":
		return taxa.LineDrive
	case "fly ball":
		return taxa.FlyBall
	case "popup":
		return taxa.Popup
	default:
		return ""
	}
}
