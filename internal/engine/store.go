package engine

import (
	"context"
	"errors"
	"time"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

// ErrNotFound is returned by store lookups when no row matches.  The MySQL
// repositories and the in-memory test fakes both return it so the engine can
// treat "missing" uniformly.
var ErrNotFound = errors.New("not found")

// ErrActiveExists is returned by store Inserts when the single-active
// invariant would be violated.  The engine pre-checks with FindCurrent or
// FindActive for a clean error message; this sentinel covers the race where
// two inserts pass the pre-check concurrently, and is mapped onto the same
// ConflictError.
var ErrActiveExists = errors.New("an active record already exists")

// SessionStore persists best-of-5 sessions.  Find methods return ErrNotFound
// when nothing matches.  Insert populates ID and CreatedAt on the passed
// record.  Implementations must execute each call atomically; FindActive
// followed by Insert inside CreateSession relies on the store serializing
// concurrent mutations (see ConflictError in CreateSession).
type SessionStore interface {
	Get(ctx context.Context, id uint64) (*model.Session, error)
	FindActive(ctx context.Context) (*model.Session, error)
	Insert(ctx context.Context, s *model.Session) error
	// UpdateTallies patches only the win counters.
	UpdateTallies(ctx context.Context, id uint64, matisseWins, joeWins int) error
	// Complete sets the final tallies, status=completed and the winner.
	Complete(ctx context.Context, id uint64, matisseWins, joeWins int, winner string) error
	// Cancel sets status=cancelled; the winner column stays null.
	Cancel(ctx context.Context, id uint64) error
	// ListCompleted returns completed sessions, newest-first when desc.
	ListCompleted(ctx context.Context, desc bool) ([]model.Session, error)
}

// GameStore persists the legs of a session.
type GameStore interface {
	Insert(ctx context.Context, g *model.Game) error
	ListBySession(ctx context.Context, sessionID uint64) ([]model.Game, error)
	Delete(ctx context.Context, id uint64) error
	DeleteBySession(ctx context.Context, sessionID uint64) error
	// CountByWinner tallies every game ever recorded, across all sessions.
	CountByWinner(ctx context.Context) (matisse, joe int, err error)
}

// KellyStore persists Kelly Pool games.  Players and the pocketed-ball set
// travel together with the row (the game is one document).
type KellyStore interface {
	Get(ctx context.Context, id uint64) (*model.KellyGame, error)
	// FindCurrent returns the single game in setup or active state.
	FindCurrent(ctx context.Context) (*model.KellyGame, error)
	// FindLatestFinished returns the most recently created finished game.
	FindLatestFinished(ctx context.Context) (*model.KellyGame, error)
	Insert(ctx context.Context, g *model.KellyGame) error
	// SaveProgress patches players and the pocketed set on an active game.
	SaveProgress(ctx context.Context, id uint64, players []model.KellyPlayer, ballsPocketed []int) error
	// Finish persists the closing state: players, pocketed set, winner,
	// status=finished and endedAt.
	Finish(ctx context.Context, id uint64, players []model.KellyPlayer, ballsPocketed []int, winner string, endedAt time.Time) error
	Cancel(ctx context.Context, id uint64) error
	// ListFinished returns finished games newest-first.
	ListFinished(ctx context.Context) ([]model.KellyGame, error)
}

// KellyHistoryStore persists the append-only action log of a game.
type KellyHistoryStore interface {
	Append(ctx context.Context, e *model.KellyHistoryEntry) error
	// ListByGame returns entries in insertion order.
	ListByGame(ctx context.Context, gameID uint64) ([]model.KellyHistoryEntry, error)
	DeleteByGame(ctx context.Context, gameID uint64) error
}
