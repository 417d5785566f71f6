package store

import (
	"context"
	"database/sql"
	"fmt"

	"stormlightlabs.org/gamedb/internal/taxa"
)

// txExecutor is the subset of *sql.Tx the seed statements need; named so
// the per-taxon helpers don't each repeat the full *sql.Tx type.
type txExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Seed populates the taxa schema from the in-memory enumerations in
// internal/taxa, the single source of truth shared with the folder. It is
// idempotent: every statement is an upsert keyed on the taxon's natural
// name, so re-running it against an already-seeded database is a no-op.
func (db *DB) Seed(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := seedEventTypes(ctx, tx); err != nil {
		return fmt.Errorf("seed event_type: %w", err)
	}
	if err := seedFielderLocations(ctx, tx); err != nil {
		return fmt.Errorf("seed fielder_location: %w", err)
	}
	if err := seedFairBallTypes(ctx, tx); err != nil {
		return fmt.Errorf("seed fair_ball_type: %w", err)
	}
	if err := seedSlots(ctx, tx); err != nil {
		return fmt.Errorf("seed slot: %w", err)
	}
	if err := seedBases(ctx, tx); err != nil {
		return fmt.Errorf("seed base: %w", err)
	}
	if err := seedFieldingErrorTypes(ctx, tx); err != nil {
		return fmt.Errorf("seed fielding_error_type: %w", err)
	}
	if err := seedPitchTypes(ctx, tx); err != nil {
		return fmt.Errorf("seed pitch_type: %w", err)
	}

	return tx.Commit()
}

func seedEventTypes(ctx context.Context, tx txExecutor) error {
	for _, et := range taxa.EventTypes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.event_type (
				name, display_name, ends_plate_appearance, is_in_play, is_hit, is_error,
				is_ball, is_strike, is_strikeout, is_basic_strike, is_foul, is_foul_tip, batter_swung
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (name) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				ends_plate_appearance = EXCLUDED.ends_plate_appearance,
				is_in_play = EXCLUDED.is_in_play,
				is_hit = EXCLUDED.is_hit,
				is_error = EXCLUDED.is_error,
				is_ball = EXCLUDED.is_ball,
				is_strike = EXCLUDED.is_strike,
				is_strikeout = EXCLUDED.is_strikeout,
				is_basic_strike = EXCLUDED.is_basic_strike,
				is_foul = EXCLUDED.is_foul,
				is_foul_tip = EXCLUDED.is_foul_tip,
				batter_swung = EXCLUDED.batter_swung`,
			et.Name, et.DisplayName, et.EndsPlateAppearance, et.IsInPlay, et.IsHit, et.IsError,
			et.IsBall, et.IsStrike, et.IsStrikeout, et.IsBasicStrike, et.IsFoul, et.IsFoulTip, et.BatterSwung,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedFielderLocations(ctx context.Context, tx txExecutor) error {
	for _, fl := range taxa.FielderLocations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.fielder_location (id, abbreviation, display_name, area)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET
				abbreviation = EXCLUDED.abbreviation,
				display_name = EXCLUDED.display_name,
				area = EXCLUDED.area`,
			fl.Number, fl.Abbreviation, fl.DisplayName, string(fl.Area),
		); err != nil {
			return err
		}
	}
	return nil
}

func seedFairBallTypes(ctx context.Context, tx txExecutor) error {
	for _, fb := range taxa.FairBallTypes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.fair_ball_type (name, display_name) VALUES ($1,$2)
			ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name`,
			fb.Name, fb.DisplayName,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedSlots(ctx context.Context, tx txExecutor) error {
	for _, s := range taxa.Slots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.slot (name, role, pitcher_type, slot_number, location)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (name) DO UPDATE SET
				role = EXCLUDED.role,
				pitcher_type = EXCLUDED.pitcher_type,
				slot_number = EXCLUDED.slot_number,
				location = EXCLUDED.location`,
			s.Name, string(s.Role), string(s.PitcherType), s.SlotNumber, s.Location,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedBases(ctx context.Context, tx txExecutor) error {
	for _, b := range taxa.Bases {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.base (id, name, bases_achieved) VALUES ($1,$2,$3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, bases_achieved = EXCLUDED.bases_achieved`,
			b.ID, b.Name, b.BasesAchieved,
		); err != nil {
			return err
		}
	}

	for baseID, formats := range taxa.BaseDescriptionFormats {
		for _, format := range formats {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO taxa.base_description_format (base_id, format) VALUES ($1,$2)
				ON CONFLICT (base_id, format) DO NOTHING`,
				baseID, format,
			); err != nil {
				return err
			}
		}
	}

	return nil
}

func seedFieldingErrorTypes(ctx context.Context, tx txExecutor) error {
	for _, t := range []taxa.FieldingErrorType{taxa.ThrowingError, taxa.CatchingError} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.fielding_error_type (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			string(t),
		); err != nil {
			return err
		}
	}
	return nil
}

func seedPitchTypes(ctx context.Context, tx txExecutor) error {
	for _, pt := range taxa.PitchTypes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO taxa.pitch_type (name, abbreviation) VALUES ($1,$2)
			ON CONFLICT (name) DO UPDATE SET abbreviation = EXCLUDED.abbreviation`,
			pt.Name, pt.Abbreviation,
		); err != nil {
			return err
		}
	}
	return nil
}
