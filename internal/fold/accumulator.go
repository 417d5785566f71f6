// Package fold reconstructs per-game derived state — counts, baserunner
// attribution, earned-run determination, pitcher/batter turnover, and
// consecutive-PA grouping — by folding a parsed event stream per
// half-inning.
package fold

import (
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/taxa"
)

const regularInnings = 9

// team keys used for the per-team accumulator maps.
const (
	home = "home"
	away = "away"
)

// runnerSlot is the current occupant of a base.
type runnerSlot struct {
	name             string
	sourceEventIndex *int
	isEarned         bool
}

// halfKey identifies one half-inning, the unit over which outs and errors
// reset.
type halfKey struct {
	inning int
	top    bool
}

// accumulator is the mutable per-game fold state. It is
// owned entirely by the folding task: no sharing, no locking, and it dies
// with the task.
type accumulator struct {
	inning      int
	topOfInning bool
	outs        int
	errs        int
	balls       int
	strikes     int
	awayScore   int
	homeScore   int

	pitcherCount   map[string]int
	batterCount    map[string]int
	batterSubcount map[string]int

	lastBatter     map[string]string
	currentBatter  map[string]string
	paEnded        map[string]bool
	lastBatterHalf map[string]halfKey
	nowBattingSeen map[string]bool

	currentPitcher  map[string]string
	lastPitcherSlot map[string]string

	bases [3]*runnerSlot // index 0=first, 1=second, 2=third

	pendingFairBall     *fairBall
	pendingCheer        *string
	pendingChangeSource string
	errorsInChain       map[int]bool

	firstHalfInning bool

	// scratch space for the most recently folded material event, read by
	// Fold immediately after processMaterial returns.
	lastBaserunnerRows []model.EventBaserunner
	lastFielderRows    []model.EventFielder
}

// fairBall is a pending fair-ball declaration waiting for its outcome
// entry.
type fairBall struct {
	index     int
	ballType  string
	direction string
}

func newAccumulator() *accumulator {
	return &accumulator{
		inning:          1,
		topOfInning:     true,
		firstHalfInning: true,
		pitcherCount:    map[string]int{home: 0, away: 0},
		batterCount:     map[string]int{home: 0, away: 0},
		batterSubcount:  map[string]int{home: 0, away: 0},
		lastBatter:      map[string]string{home: "", away: ""},
		currentBatter:   map[string]string{home: "", away: ""},
		paEnded:         map[string]bool{home: true, away: true},
		lastBatterHalf:  map[string]halfKey{},
		nowBattingSeen:  map[string]bool{home: false, away: false},
		currentPitcher:  map[string]string{home: "", away: ""},
		lastPitcherSlot: map[string]string{home: "", away: ""},
		errorsInChain:   map[int]bool{},
	}
}

// battingTeam returns which team is at bat given top_of_inning.
func (a *accumulator) battingTeam() string {
	if a.topOfInning {
		return away
	}
	return home
}

// defendingTeam returns which team is in the field given top_of_inning.
func (a *accumulator) defendingTeam() string {
	if a.topOfInning {
		return home
	}
	return away
}

func (a *accumulator) half() halfKey {
	return halfKey{inning: a.inning, top: a.topOfInning}
}

// resetHalfInning clears the half-inning-scoped and PA-scoped fields and,
// when entering extra innings, places the automatic runner.
// The automatic runner is the batting team's most recent batter, placed
// without a pitch: source_event_index stays nil and a hypothetical score
// is never earned.
func (a *accumulator) resetHalfInning() {
	a.outs = 0
	a.errs = 0
	a.balls = 0
	a.strikes = 0
	a.bases = [3]*runnerSlot{}

	if a.inning > regularInnings {
		if name := a.lastBatter[a.battingTeam()]; name != "" {
			a.bases[taxa.SecondBase-1] = &runnerSlot{name: name, sourceEventIndex: nil, isEarned: false}
		}
	}
}

// transitionHalfInning flips top/bottom or advances the inning number,
// once per inning-header framing entry.
func (a *accumulator) transitionHalfInning(top bool) {
	if a.firstHalfInning {
		a.topOfInning = top
		a.firstHalfInning = false
		a.resetHalfInning()
		return
	}

	if top && !a.topOfInning {
		a.inning++
	}
	a.topOfInning = top
	a.resetHalfInning()
}

// advanceOnThirdOut rolls over the half-inning when the fold sees
// outs_after reach 3 without having consumed an inning-header framing
// entry yet. The header that follows must not double-reset; Fold tracks
// that via its rollover flag.
func (a *accumulator) advanceOnThirdOut() {
	if a.topOfInning {
		a.topOfInning = false
	} else {
		a.inning++
		a.topOfInning = true
	}
	a.resetHalfInning()
}
