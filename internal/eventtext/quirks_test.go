package eventtext

import "testing"

func TestDuplicatedNowBattingCollapsedOnAffectedDay(t *testing.T) {
	raws := []RawEntry{
		{Text: "Now batting: Mina Park."},
		{Text: "Now batting: Mina Park."},
		{Text: "Ball."},
	}

	entries, _ := Parse("game-1", raws, duplicatedNowBattingSeason, duplicatedNowBattingDay)
	if entries[0].Duplicate() {
		t.Error("first announcement must survive")
	}
	if !entries[1].Duplicate() {
		t.Error("second announcement should be collapsed")
	}

	// Outside the affected day both entries stand; the stream is taken
	// at face value.
	entries, _ = Parse("game-1", raws, 1, 1)
	if entries[0].Duplicate() || entries[1].Duplicate() {
		t.Error("announcements outside the quirk window must not be collapsed")
	}
}

func TestDuplicatedNowBattingDifferentBattersKept(t *testing.T) {
	raws := []RawEntry{
		{Text: "Now batting: Mina Park."},
		{Text: "Now batting: Gil Soto."},
	}
	entries, _ := Parse("game-1", raws, duplicatedNowBattingSeason, duplicatedNowBattingDay)
	if entries[1].Duplicate() {
		t.Error("different batters are not duplicates")
	}
}

func TestSkippedNowBattingWindow(t *testing.T) {
	if !SkippedNowBattingExpected(skippedNowBattingSeason, 1) {
		t.Error("early season-3 day should be in the window")
	}
	if !SkippedNowBattingExpected(skippedNowBattingSeason, skippedNowBattingLastDay) {
		t.Error("last affected day should be in the window")
	}
	if SkippedNowBattingExpected(skippedNowBattingSeason, skippedNowBattingLastDay+1) {
		t.Error("later days are not in the window")
	}
	if SkippedNowBattingExpected(2, 1) {
		t.Error("other seasons are not in the window")
	}
}
