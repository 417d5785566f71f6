package fold

import (
	"fmt"

	"stormlightlabs.org/gamedb/internal/eventtext"
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
)

// rollForwardBaserunners rolls the bases forward: resolve each narrated
// runner movement against the live base occupants, append the
// batter-runner implied by the event type, and emit a stationary row for
// every occupant the message didn't mention. play_order follows that
// emission order. The occupants are updated in place for the next event.
func (a *accumulator) rollForwardBaserunners(gameID model.GameID, entry eventtext.Entry, batter string, logIdx *int) ([]model.EventBaserunner, []model.LogEntry) {
	var rows []model.EventBaserunner
	var logs []model.LogEntry
	order := 0
	moved := map[string]bool{}

	for _, mv := range entry.Runners {
		moved[mv.RunnerName] = true

		row := model.EventBaserunner{
			GameEventIndex:        entry.GameEventIndex,
			PlayOrder:             order,
			BaserunnerName:        mv.RunnerName,
			BaseAfter:             mv.ToBase,
			IsOut:                 mv.IsOut,
			BaseDescriptionFormat: mv.BaseDescriptionFormat,
			Steal:                 mv.Steal,
		}

		fromBase, occupant := a.findRunner(mv.RunnerName)
		if occupant == nil {
			idx := entry.GameEventIndex
			logs = append(logs, model.LogEntry{
				GameID:         gameID,
				GameEventIndex: &idx,
				LogIndex:       *logIdx,
				Level:          model.WarningLevel,
				Text:           fmt.Sprintf("runner %q is not on base; emitting best-effort row", mv.RunnerName),
			})
			*logIdx++
			row.IsEarned = true
		} else {
			row.BaseBefore = &fromBase
			row.SourceEventIndex = occupant.sourceEventIndex
			contaminated := occupant.sourceEventIndex != nil && a.errorsInChain[*occupant.sourceEventIndex]
			row.IsEarned = occupant.isEarned && !contaminated
			a.bases[fromBase-1] = nil
			if !mv.IsOut && mv.ToBase >= taxa.FirstBase && mv.ToBase <= taxa.ThirdBase {
				a.bases[mv.ToBase-1] = occupant
			}
		}

		rows = append(rows, row)
		order++
	}

	// The batter-runner is implied by the event type, never narrated.
	if base, reaches := taxa.BatterReachesBase(entry.EventType); reaches && batter != "" {
		moved[batter] = true
		idx := entry.GameEventIndex
		isError := entry.EventType == taxa.FieldingError
		row := model.EventBaserunner{
			GameEventIndex:   entry.GameEventIndex,
			PlayOrder:        order,
			BaserunnerName:   batter,
			BaseBefore:       nil,
			BaseAfter:        base,
			SourceEventIndex: &idx,
			IsEarned:         !isError,
		}
		if isError {
			a.errorsInChain[idx] = true
		}
		if base >= taxa.FirstBase && base <= taxa.ThirdBase {
			if prev := a.bases[base-1]; prev != nil && !moved[prev.name] {
				logs = append(logs, model.LogEntry{
					GameID:         gameID,
					GameEventIndex: &idx,
					LogIndex:       *logIdx,
					Level:          model.WarningLevel,
					Text:           fmt.Sprintf("batter-runner displaces %q, whose advance was never narrated", prev.name),
				})
				*logIdx++
			}
			a.bases[base-1] = &runnerSlot{
				name:             batter,
				sourceEventIndex: &idx,
				isEarned:         row.IsEarned,
			}
		}
		rows = append(rows, row)
		order++
	}

	// Stationary runners: anyone still on base who wasn't mentioned.
	for i, occ := range a.bases {
		if occ == nil || moved[occ.name] {
			continue
		}
		base := i + 1
		rows = append(rows, model.EventBaserunner{
			GameEventIndex:   entry.GameEventIndex,
			PlayOrder:        order,
			BaserunnerName:   occ.name,
			BaseBefore:       &base,
			BaseAfter:        base,
			SourceEventIndex: occ.sourceEventIndex,
			IsEarned:         occ.isEarned,
		})
		order++
	}

	return rows, logs
}

// findRunner locates a named runner among the current base occupants,
// scanning lead runners first so a same-named trailing runner can't
// shadow one ahead of them.
func (a *accumulator) findRunner(name string) (int, *runnerSlot) {
	for i := len(a.bases) - 1; i >= 0; i-- {
		if a.bases[i] != nil && a.bases[i].name == name {
			return i + 1, a.bases[i]
		}
	}
	return 0, nil
}

// fielderRowsFrom converts the parser's fielder credits into child rows.
func fielderRowsFrom(entry eventtext.Entry) []model.EventFielder {
	rows := make([]model.EventFielder, 0, len(entry.Fielders))
	for i, f := range entry.Fielders {
		rows = append(rows, model.EventFielder{
			GameEventIndex: entry.GameEventIndex,
			PlayOrder:      i,
			FielderName:    f.FielderName,
			FielderSlot:    f.Slot,
			Approximate:    f.Approximate,
		})
	}
	return rows
}
