package store

import (
	"context"
	"database/sql"
	"fmt"

	"stormlightlabs.org/gamedb/internal/model"
)

// ApplyGame applies one fold result to the store inside a single
// transaction: delete any prior version of the game (cascading to every
// descendant), upsert weather, then insert the game and its child rows.
// Any error rolls back this game's transaction only; the caller's run
// continues.
func (db *DB) ApplyGame(ctx context.Context, result *model.GameResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteExistingGame(ctx, tx, result.Game.MMOLBGameID); err != nil {
		return fmt.Errorf("delete existing game: %w", err)
	}

	weatherID, err := upsertWeather(ctx, tx, result.Weather)
	if err != nil {
		return fmt.Errorf("upsert weather: %w", err)
	}
	result.Game.WeatherID = weatherID

	gameID, err := insertGame(ctx, tx, result.Game)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	eventIDs, err := insertEvents(ctx, tx, gameID, result.Events)
	if err != nil {
		return fmt.Errorf("insert events: %w", err)
	}

	if err := insertBaserunners(ctx, tx, eventIDs, result.Baserunners); err != nil {
		return fmt.Errorf("insert baserunners: %w", err)
	}

	if err := insertFielders(ctx, tx, eventIDs, result.Fielders); err != nil {
		return fmt.Errorf("insert fielders: %w", err)
	}

	if err := insertPitcherChanges(ctx, tx, gameID, result.PitcherChanges); err != nil {
		return fmt.Errorf("insert pitcher changes: %w", err)
	}

	if err := insertEjections(ctx, tx, gameID, result.Ejections); err != nil {
		return fmt.Errorf("insert ejections: %w", err)
	}

	if err := insertDoorPrizes(ctx, tx, gameID, result.DoorPrizes); err != nil {
		return fmt.Errorf("insert door prizes: %w", err)
	}

	if err := insertRawEvents(ctx, tx, gameID, result.RawEvents); err != nil {
		return fmt.Errorf("insert raw events: %w", err)
	}

	if err := insertLogs(ctx, tx, gameID, result.Game.MMOLBGameID, result.Logs); err != nil {
		return fmt.Errorf("insert logs: %w", err)
	}

	return tx.Commit()
}

func deleteExistingGame(ctx context.Context, tx *sql.Tx, id model.GameID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM data.games WHERE mmolb_game_id = $1`, string(id))
	return err
}

func upsertWeather(ctx context.Context, tx *sql.Tx, w model.Weather) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO data.weather (name, emoji, tooltip) VALUES ($1, $2, $3)
		ON CONFLICT (name, emoji, tooltip) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, w.Name, w.Emoji, w.Tooltip,
	).Scan(&id)
	return id, err
}

func insertGame(ctx context.Context, tx *sql.Tx, g model.Game) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO data.games (
			mmolb_game_id, season, day, superstar_day, weather_id,
			home_team_emoji, home_team_name, home_team_external_id, home_team_final_score,
			away_team_emoji, away_team_name, away_team_external_id, away_team_final_score,
			is_ongoing, stadium_name, from_version, is_photo_contest, coins_earned
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id`,
		string(g.MMOLBGameID), g.Season, g.Day, g.SuperstarDay, g.WeatherID,
		g.HomeTeamEmoji, g.HomeTeamName, g.HomeTeamExternalID, g.HomeTeamFinalScore,
		g.AwayTeamEmoji, g.AwayTeamName, g.AwayTeamExternalID, g.AwayTeamFinalScore,
		g.IsOngoing, g.StadiumName, g.FromVersion, g.IsPhotoContest, g.CoinsEarned,
	).Scan(&id)
	return id, err
}

func insertEvents(ctx context.Context, tx *sql.Tx, gameID int64, events []model.Event) (map[int]int64, error) {
	ids := make(map[int]int64, len(events))
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO data.events (
			game_id, game_event_index, fair_ball_event_index, inning, top_of_inning,
			event_type, hit_base, fair_ball_type, fair_ball_direction, fielding_error_type,
			pitch_type, pitch_speed, pitch_zone, described_as_sacrifice, is_toasty,
			balls_before, balls_after, strikes_before, strikes_after,
			outs_before, outs_after, errors_before, errors_after,
			away_score_before, away_score_after, home_score_before, home_score_after,
			pitcher_name, batter_name, pitcher_count, batter_count, batter_subcount, cheer
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33)
		RETURNING id`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, e := range events {
		var id int64
		err := stmt.QueryRowContext(ctx,
			gameID, e.GameEventIndex, e.FairBallEventIndex, e.Inning, e.TopOfInning,
			e.EventType, e.HitBase, e.FairBallType, e.FairBallDirection, e.FieldingErrorType,
			e.PitchType, e.PitchSpeed, e.PitchZone, e.DescribedAsSacrifice, e.IsToasty,
			e.BallsBefore, e.BallsAfter, e.StrikesBefore, e.StrikesAfter,
			e.OutsBefore, e.OutsAfter, e.ErrorsBefore, e.ErrorsAfter,
			e.AwayScoreBefore, e.AwayScoreAfter, e.HomeScoreBefore, e.HomeScoreAfter,
			e.PitcherName, e.BatterName, e.PitcherCount, e.BatterCount, e.BatterSubcount, e.Cheer,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", e.GameEventIndex, err)
		}
		ids[e.GameEventIndex] = id
	}

	return ids, nil
}

func insertBaserunners(ctx context.Context, tx *sql.Tx, eventIDs map[int]int64, rows []model.EventBaserunner) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO data.event_baserunners (
			event_id, play_order, baserunner_name, base_before, base_after,
			is_out, base_description_format, steal, source_event_id, is_earned
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		eventID, ok := eventIDs[r.GameEventIndex]
		if !ok {
			return fmt.Errorf("baserunner row references unknown event index %d", r.GameEventIndex)
		}

		var sourceEventID *int64
		if r.SourceEventIndex != nil {
			if id, ok := eventIDs[*r.SourceEventIndex]; ok {
				sourceEventID = &id
			}
		}

		if _, err := stmt.ExecContext(ctx,
			eventID, r.PlayOrder, r.BaserunnerName, r.BaseBefore, r.BaseAfter,
			r.IsOut, r.BaseDescriptionFormat, r.Steal, sourceEventID, r.IsEarned,
		); err != nil {
			return err
		}
	}

	return nil
}

func insertFielders(ctx context.Context, tx *sql.Tx, eventIDs map[int]int64, rows []model.EventFielder) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO data.event_fielders (event_id, play_order, fielder_name, fielder_slot, approximate)
		VALUES ($1,$2,$3,$4,$5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		eventID, ok := eventIDs[r.GameEventIndex]
		if !ok {
			return fmt.Errorf("fielder row references unknown event index %d", r.GameEventIndex)
		}
		if _, err := stmt.ExecContext(ctx, eventID, r.PlayOrder, r.FielderName, r.FielderSlot, r.Approximate); err != nil {
			return err
		}
	}

	return nil
}

func insertPitcherChanges(ctx context.Context, tx *sql.Tx, gameID int64, rows []model.PitcherChange) error {
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO data.pitcher_changes (game_id, game_event_index, team, source, pitcher_name, pitcher_slot)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			gameID, r.GameEventIndex, r.Team, r.Source, r.PitcherName, r.PitcherSlot,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertEjections(ctx context.Context, tx *sql.Tx, gameID int64, rows []model.Ejection) error {
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO data.ejections (game_id, game_event_index, name) VALUES ($1,$2,$3)`,
			gameID, r.GameEventIndex, r.Name,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertDoorPrizes(ctx context.Context, tx *sql.Tx, gameID int64, rows []model.DoorPrize) error {
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO data.door_prizes (game_id, game_event_index, winner_name, item) VALUES ($1,$2,$3,$4)`,
			gameID, r.GameEventIndex, r.WinnerName, r.Item,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertRawEvents(ctx context.Context, tx *sql.Tx, gameID int64, rows []model.RawEventEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO data.raw_events (game_id, game_event_index, text) VALUES ($1,$2,$3)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, gameID, r.GameEventIndex, r.Text); err != nil {
			return err
		}
	}
	return nil
}

func insertLogs(ctx context.Context, tx *sql.Tx, gameID int64, mmolbID model.GameID, logs []model.LogEntry) error {
	for _, l := range logs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO info.event_ingest_log (game_id, mmolb_game_id, game_event_index, log_index, log_level, log_text)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			gameID, string(mmolbID), l.GameEventIndex, l.LogIndex, int(l.Level), l.Text,
		); err != nil {
			return err
		}
	}
	return nil
}
