package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/joemdev/pool-scoreboard/internal/engine"
	"github.com/joemdev/pool-scoreboard/internal/model"
)

// KellyGameRepo provides CRUD operations for Kelly Pool games.  It
// implements engine.KellyStore.  The embedded players and the pocketed-ball
// set are value objects owned by the game, so they live in JSON columns on
// the row rather than in child tables; each update replaces the whole
// document, which preserves the single-document-write semantics the rules
// rely on.
type KellyGameRepo struct {
	db *sql.DB
}

// NewKellyGameRepo returns a new KellyGameRepo bound to the given database.
func NewKellyGameRepo(db *sql.DB) *KellyGameRepo { return &KellyGameRepo{db: db} }

const kellyColumns = "id, status, players, balls_per_player, balls_pocketed, winner, total_balls, started_at, ended_at, created_at"

func scanKellyGame(row interface{ Scan(...any) error }) (*model.KellyGame, error) {
	var g model.KellyGame
	var playersJSON, pocketedJSON []byte
	var winner sql.NullString
	var endedAt sql.NullTime
	if err := row.Scan(&g.ID, &g.Status, &playersJSON, &g.BallsPerPlayer, &pocketedJSON,
		&winner, &g.TotalBalls, &g.StartedAt, &endedAt, &g.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(playersJSON, &g.Players); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pocketedJSON, &g.BallsPocketed); err != nil {
		return nil, err
	}
	if winner.Valid {
		w := winner.String
		g.Winner = &w
	}
	if endedAt.Valid {
		t := endedAt.Time
		g.EndedAt = &t
	}
	return &g, nil
}

// Get fetches a game by id.
func (r *KellyGameRepo) Get(ctx context.Context, id uint64) (*model.KellyGame, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+kellyColumns+" FROM kelly_games WHERE id = ? LIMIT 1", id)
	g, err := scanKellyGame(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	return g, err
}

// FindCurrent returns the single game in setup or active state.
func (r *KellyGameRepo) FindCurrent(ctx context.Context) (*model.KellyGame, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+kellyColumns+" FROM kelly_games WHERE status IN (?, ?) LIMIT 1",
		model.KellySetup, model.KellyActive)
	g, err := scanKellyGame(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	return g, err
}

// FindLatestFinished returns the most recently created finished game.
func (r *KellyGameRepo) FindLatestFinished(ctx context.Context) (*model.KellyGame, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+kellyColumns+" FROM kelly_games WHERE status = ? ORDER BY id DESC LIMIT 1",
		model.KellyFinished)
	g, err := scanKellyGame(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	return g, err
}

// Insert creates a game row, re-checking the single-current invariant in the
// same transaction.  It populates ID and CreatedAt on the record.
func (r *KellyGameRepo) Insert(ctx context.Context, g *model.KellyGame) error {
	playersJSON, err := json.Marshal(g.Players)
	if err != nil {
		return err
	}
	pocketedJSON, err := json.Marshal(g.BallsPocketed)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if g.Status == model.KellySetup || g.Status == model.KellyActive {
		var existing uint64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM kelly_games WHERE status IN (?, ?) LIMIT 1 FOR UPDATE",
			model.KellySetup, model.KellyActive).Scan(&existing)
		if err == nil {
			return engine.ErrActiveExists
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO kelly_games (status, players, balls_per_player, balls_pocketed, total_balls, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		g.Status, playersJSON, g.BallsPerPlayer, pocketedJSON, g.TotalBalls, g.StartedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM kelly_games WHERE id = ?", g.ID).Scan(&g.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveProgress patches the players document and the pocketed-ball set.
func (r *KellyGameRepo) SaveProgress(ctx context.Context, id uint64, players []model.KellyPlayer, ballsPocketed []int) error {
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return err
	}
	pocketedJSON, err := json.Marshal(ballsPocketed)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE kelly_games SET players = ?, balls_pocketed = ? WHERE id = ?",
		playersJSON, pocketedJSON, id)
	return err
}

// Finish persists the closing state of a game in one statement.
func (r *KellyGameRepo) Finish(ctx context.Context, id uint64, players []model.KellyPlayer, ballsPocketed []int, winner string, endedAt time.Time) error {
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return err
	}
	pocketedJSON, err := json.Marshal(ballsPocketed)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE kelly_games SET players = ?, balls_pocketed = ?, status = ?, winner = ?, ended_at = ? WHERE id = ?",
		playersJSON, pocketedJSON, model.KellyFinished, winner, endedAt.UTC(), id)
	return err
}

// Cancel marks the game cancelled.
func (r *KellyGameRepo) Cancel(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE kelly_games SET status = ? WHERE id = ?", model.KellyCancelled, id)
	return err
}

// ListFinished returns finished games, newest first.
func (r *KellyGameRepo) ListFinished(ctx context.Context) ([]model.KellyGame, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+kellyColumns+" FROM kelly_games WHERE status = ? ORDER BY id DESC",
		model.KellyFinished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.KellyGame
	for rows.Next() {
		g, err := scanKellyGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}
