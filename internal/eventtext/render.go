package eventtext

import (
	"fmt"
	"strings"

	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
)

// Render reconstructs the original event-log message from a materialized
// event row and its child rows. For every successfully-parsed message,
// Render(Parse(text)) == text; the web UI uses this to cross-check the
// raw-event projection.
func Render(ev model.Event, runners []model.EventBaserunner, fielders []model.EventFielder) (string, error) {
	head, headConsumesRunner, err := renderHead(ev, runners, fielders)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(head)

	if ev.IsToasty != nil && *ev.IsToasty {
		b.WriteString(" It's toasty!")
	}

	skipped := 0
	for _, r := range runners {
		if isStationary(r) || r.BaseBefore == nil {
			continue
		}
		if headConsumesRunner && skipped == 0 {
			skipped++
			continue
		}
		b.WriteString(" ")
		b.WriteString(renderClause(r))
	}

	return b.String(), nil
}

// renderHead builds the first sentence. The returned bool reports whether
// the head itself narrates the first moved runner (caught stealing and
// pickoffs), so the clause loop must not repeat it.
func renderHead(ev model.Event, runners []model.EventBaserunner, fielders []model.EventFielder) (string, bool, error) {
	fielded := fielderSuffix(fielders)

	switch ev.EventType {
	case taxa.Ball:
		return "Ball.", false, nil
	case taxa.CalledStrike:
		return "Called strike.", false, nil
	case taxa.SwingingStrike:
		return "Swinging strike.", false, nil
	case taxa.Foul:
		return "Foul ball.", false, nil
	case taxa.FoulTip:
		return "Foul tip.", false, nil
	case taxa.HitByPitch:
		return ev.BatterName + " is hit by the pitch.", false, nil
	case taxa.Walk:
		return ev.BatterName + " walks.", false, nil
	case taxa.StrikeoutLooking:
		return ev.BatterName + " strikes out looking.", false, nil
	case taxa.StrikeoutSwinging:
		return ev.BatterName + " strikes out swinging.", false, nil
	case taxa.StrikeoutFoulTip:
		return ev.BatterName + " strikes out on a foul tip.", false, nil
	case taxa.Single:
		return ev.BatterName + " singles" + fielded + ".", false, nil
	case taxa.Double:
		return ev.BatterName + " doubles" + fielded + ".", false, nil
	case taxa.Triple:
		return ev.BatterName + " triples" + fielded + ".", false, nil
	case taxa.HomeRun:
		return ev.BatterName + " homers!", false, nil
	case taxa.FieldingError:
		if ev.FieldingErrorType == nil {
			return "", false, fmt.Errorf("fielding error event %d has no error type", ev.GameEventIndex)
		}
		return fmt.Sprintf("%s reaches on a %s error by%s.",
			ev.BatterName, strings.ToLower(*ev.FieldingErrorType), strings.TrimPrefix(fielded, ", fielded by")), false, nil
	case taxa.FieldersChoiceOut:
		return ev.BatterName + " reaches on a fielder's choice" + fielded + ".", false, nil
	case taxa.SacrificeFly:
		return ev.BatterName + " hits a sacrifice fly" + fielded + ".", false, nil
	case taxa.InPlayOut:
		verb := outVerb(ev.FairBallType)
		sac := ""
		if ev.DescribedAsSacrifice != nil && *ev.DescribedAsSacrifice {
			sac = " on a sacrifice"
		}
		return ev.BatterName + " " + verb + " out" + sac + fielded + ".", false, nil
	case taxa.Balk:
		return ev.PitcherName + " balks.", false, nil
	case taxa.CaughtStealing, taxa.Pickoff:
		r, ok := firstMovedRunner(runners)
		if !ok {
			return "", false, fmt.Errorf("%s event %d has no moved runner", ev.EventType, ev.GameEventIndex)
		}
		verb := "is caught stealing"
		if ev.EventType == taxa.Pickoff {
			verb = "is picked off"
		}
		return fmt.Sprintf("%s %s %s.", r.BaserunnerName, verb, baseDescription(r)), true, nil
	default:
		return "", false, fmt.Errorf("cannot render event type %q", ev.EventType)
	}
}

func renderClause(r model.EventBaserunner) string {
	switch {
	case r.BaseAfter == taxa.HomeBase && !r.IsOut:
		return r.BaserunnerName + " scores."
	case r.Steal && !r.IsOut:
		return fmt.Sprintf("%s steals %s!", r.BaserunnerName, baseDescription(r))
	case r.IsOut:
		return fmt.Sprintf("%s out at %s.", r.BaserunnerName, baseDescription(r))
	default:
		return fmt.Sprintf("%s to %s.", r.BaserunnerName, baseDescription(r))
	}
}

func isStationary(r model.EventBaserunner) bool {
	return r.BaseBefore != nil && *r.BaseBefore == r.BaseAfter && !r.IsOut && !r.Steal
}

func firstMovedRunner(runners []model.EventBaserunner) (model.EventBaserunner, bool) {
	for _, r := range runners {
		if !isStationary(r) && r.BaseBefore != nil {
			return r, true
		}
	}
	return model.EventBaserunner{}, false
}

func baseDescription(r model.EventBaserunner) string {
	if r.BaseDescriptionFormat != "" {
		return r.BaseDescriptionFormat
	}
	formats := taxa.BaseDescriptionFormats[r.BaseAfter]
	if len(formats) > 0 {
		return formats[0]
	}
	return "home"
}

func fielderSuffix(fielders []model.EventFielder) string {
	if len(fielders) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fielders))
	for _, f := range fielders {
		parts = append(parts, f.FielderSlot+" "+f.FielderName)
	}
	return ", fielded by " + strings.Join(parts, ", assisted by ")
}

func outVerb(fairBallType *string) string {
	if fairBallType == nil {
		return "grounds"
	}
	switch *fairBallType {
	case taxa.FlyBall:
		return "flies"
	case taxa.LineDrive:
		return "lines"
	case taxa.Popup:
		return "pops"
	default:
		return "grounds"
	}
}
