package repository

import (
	"context"
	"database/sql"

	"github.com/joemdev/pool-scoreboard/internal/engine"
	"github.com/joemdev/pool-scoreboard/internal/model"
)

// SessionRepo provides CRUD operations for best-of-5 sessions.  It
// implements engine.SessionStore.  The "at most one active session"
// invariant is enforced by running the active-check and the insert inside a
// single transaction; the engine performs its own check first for a clean
// error message, this one closes the race.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = "id, matisse_wins, joe_wins, status, winner, created_at"

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var winner sql.NullString
	if err := row.Scan(&s.ID, &s.MatisseWins, &s.JoeWins, &s.Status, &winner, &s.CreatedAt); err != nil {
		return nil, err
	}
	if winner.Valid {
		w := winner.String
		s.Winner = &w
	}
	return &s, nil
}

// Get fetches a session by id.
func (r *SessionRepo) Get(ctx context.Context, id uint64) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ? LIMIT 1", id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	return s, err
}

// FindActive returns the single active session, or engine.ErrNotFound.
func (r *SessionRepo) FindActive(ctx context.Context) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE status = ? LIMIT 1", model.SessionActive)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	return s, err
}

// Insert creates a session row, re-checking the single-active invariant in
// the same transaction.  It populates ID and CreatedAt on the record.
func (r *SessionRepo) Insert(ctx context.Context, s *model.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if s.Status == model.SessionActive {
		var existing uint64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM sessions WHERE status = ? LIMIT 1 FOR UPDATE", model.SessionActive).Scan(&existing)
		if err == nil {
			return engine.ErrActiveExists
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (matisse_wins, joe_wins, status) VALUES (?, ?, ?)",
		s.MatisseWins, s.JoeWins, s.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM sessions WHERE id = ?", s.ID).Scan(&s.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateTallies patches only the win counters.
func (r *SessionRepo) UpdateTallies(ctx context.Context, id uint64, matisseWins, joeWins int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET matisse_wins = ?, joe_wins = ? WHERE id = ?",
		matisseWins, joeWins, id)
	return err
}

// Complete sets the final tallies, completed status and the winner.
func (r *SessionRepo) Complete(ctx context.Context, id uint64, matisseWins, joeWins int, winner string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET matisse_wins = ?, joe_wins = ?, status = ?, winner = ? WHERE id = ?",
		matisseWins, joeWins, model.SessionCompleted, winner, id)
	return err
}

// Cancel marks the session cancelled; the winner column stays null.
func (r *SessionRepo) Cancel(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET status = ? WHERE id = ?", model.SessionCancelled, id)
	return err
}

// ListCompleted returns completed sessions ordered by creation time,
// newest-first when desc is true.
func (r *SessionRepo) ListCompleted(ctx context.Context, desc bool) ([]model.Session, error) {
	order := "ASC"
	if desc {
		order = "DESC"
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE status = ? ORDER BY id "+order,
		model.SessionCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
