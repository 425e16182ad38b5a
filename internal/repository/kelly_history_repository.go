package repository

import (
	"context"
	"database/sql"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

// KellyHistoryRepo provides append/list/delete operations for the per-game
// action log.  It implements engine.KellyHistoryStore.  The log is
// append-only during play; the only delete path is the cancel cascade.
type KellyHistoryRepo struct {
	db *sql.DB
}

// NewKellyHistoryRepo returns a new KellyHistoryRepo bound to the given database.
func NewKellyHistoryRepo(db *sql.DB) *KellyHistoryRepo { return &KellyHistoryRepo{db: db} }

// Append inserts one log row and populates its ID.
func (r *KellyHistoryRepo) Append(ctx context.Context, e *model.KellyHistoryEntry) error {
	var ball sql.NullInt64
	if e.BallNumber != nil {
		ball = sql.NullInt64{Int64: int64(*e.BallNumber), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO kelly_history (kelly_game_id, action, ball_number, player_name, timestamp) VALUES (?, ?, ?, ?, ?)",
		e.KellyGameID, e.Action, ball, e.PlayerName, e.Timestamp.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByGame returns a game's log rows in insertion order.
func (r *KellyHistoryRepo) ListByGame(ctx context.Context, gameID uint64) ([]model.KellyHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, kelly_game_id, action, ball_number, player_name, timestamp FROM kelly_history WHERE kelly_game_id = ? ORDER BY id",
		gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.KellyHistoryEntry
	for rows.Next() {
		var e model.KellyHistoryEntry
		var ball sql.NullInt64
		if err := rows.Scan(&e.ID, &e.KellyGameID, &e.Action, &ball, &e.PlayerName, &e.Timestamp); err != nil {
			return nil, err
		}
		if ball.Valid {
			b := int(ball.Int64)
			e.BallNumber = &b
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteByGame removes every log row of a game (cancel cascade).
func (r *KellyHistoryRepo) DeleteByGame(ctx context.Context, gameID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM kelly_history WHERE kelly_game_id = ?", gameID)
	return err
}
