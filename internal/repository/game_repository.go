package repository

import (
	"context"
	"database/sql"

	"github.com/joemdev/pool-scoreboard/internal/engine"
	"github.com/joemdev/pool-scoreboard/internal/model"
)

// GameRepo provides CRUD operations for the legs of a session.  It
// implements engine.GameStore.  Games reference their session through
// session_id; the bulk delete backs the session-cancel cascade.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo returns a new GameRepo bound to the given database.
func NewGameRepo(db *sql.DB) *GameRepo { return &GameRepo{db: db} }

// Insert creates a game row and populates ID and CreatedAt on the record.
func (r *GameRepo) Insert(ctx context.Context, g *model.Game) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO games (session_id, winner, game_number) VALUES (?, ?, ?)",
		g.SessionID, g.Winner, g.GameNumber)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM games WHERE id = ?", g.ID).Scan(&g.CreatedAt)
}

// ListBySession fetches all games of one session.
func (r *GameRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, session_id, winner, game_number, created_at FROM games WHERE session_id = ? ORDER BY game_number",
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Winner, &g.GameNumber, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes a single game row.
func (r *GameRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// DeleteBySession removes every game of a session (cancel cascade).
func (r *GameRepo) DeleteBySession(ctx context.Context, sessionID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM games WHERE session_id = ?", sessionID)
	return err
}

// CountByWinner tallies all games ever played, per winner.
func (r *GameRepo) CountByWinner(ctx context.Context) (int, int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT winner, COUNT(*) FROM games GROUP BY winner")
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	matisse, joe := 0, 0
	for rows.Next() {
		var winner string
		var n int
		if err := rows.Scan(&winner, &n); err != nil {
			return 0, 0, err
		}
		switch winner {
		case model.WinnerMatisse:
			matisse = n
		case model.WinnerJoe:
			joe = n
		}
	}
	return matisse, joe, rows.Err()
}
