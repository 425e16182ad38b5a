package engine

import (
	"context"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

// Sessions in a best-of-5 are capped at five legs and decided at three wins.
const (
	maxGamesPerSession = 5
	winsToTake         = 3
)

// SessionEngine runs the best-of-5 match lifecycle and its aggregate queries.
type SessionEngine struct {
	sessions SessionStore
	games    GameStore
}

// NewSessionEngine constructs a SessionEngine over the given stores.
func NewSessionEngine(sessions SessionStore, games GameStore) *SessionEngine {
	if sessions == nil || games == nil {
		panic("nil store passed to NewSessionEngine")
	}
	return &SessionEngine{sessions: sessions, games: games}
}

// RecordWinResult is returned by RecordWin.
type RecordWinResult struct {
	GameNumber int  `json:"game_number"`
	IsComplete bool `json:"is_complete"`
}

// UndoResult is returned by UndoLast.
type UndoResult struct {
	UndoneWinner string `json:"undone_winner"`
	GameNumber   int    `json:"game_number"`
}

// Create starts a new session with zeroed tallies.  It fails with a
// ConflictError while another session is active.
func (e *SessionEngine) Create(ctx context.Context) (*model.Session, error) {
	active, err := e.sessions.FindActive(ctx)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if active != nil {
		return nil, conflictf("A session is already active")
	}
	s := &model.Session{
		MatisseWins: 0,
		JoeWins:     0,
		Status:      model.SessionActive,
	}
	if err := e.sessions.Insert(ctx, s); err != nil {
		if err == ErrActiveExists {
			return nil, conflictf("A session is already active")
		}
		return nil, err
	}
	return s, nil
}

// GetActive returns the currently active session, or ErrNotFound.
func (e *SessionEngine) GetActive(ctx context.Context) (*model.Session, error) {
	return e.sessions.FindActive(ctx)
}

// GetSession returns the session with the given id regardless of status.
func (e *SessionEngine) GetSession(ctx context.Context, sessionID uint64) (*model.Session, error) {
	return e.sessions.Get(ctx, sessionID)
}

// RecordWin books one leg for the given winner.  The session completes when a
// tally reaches 3 or all 5 legs are played; the session winner is then the
// strict majority, or "tie" when an even split was forced.
func (e *SessionEngine) RecordWin(ctx context.Context, sessionID uint64, winner string) (*RecordWinResult, error) {
	if winner != model.WinnerMatisse && winner != model.WinnerJoe {
		return nil, validationf("winner must be %q or %q", model.WinnerMatisse, model.WinnerJoe)
	}
	session, err := e.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	totalGames := session.MatisseWins + session.JoeWins
	if totalGames >= maxGamesPerSession {
		return nil, statef("Session already has %d games", maxGamesPerSession)
	}

	gameNumber := totalGames + 1
	game := &model.Game{
		SessionID:  sessionID,
		Winner:     winner,
		GameNumber: gameNumber,
	}
	if err := e.games.Insert(ctx, game); err != nil {
		return nil, err
	}

	newMatisseWins := session.MatisseWins
	newJoeWins := session.JoeWins
	if winner == model.WinnerMatisse {
		newMatisseWins++
	} else {
		newJoeWins++
	}

	// A session ends when someone hits 3 wins or all 5 games are played.
	isComplete := newMatisseWins >= winsToTake ||
		newJoeWins >= winsToTake ||
		newMatisseWins+newJoeWins >= maxGamesPerSession

	if isComplete {
		if err := e.sessions.Complete(ctx, sessionID, newMatisseWins, newJoeWins, majority(newMatisseWins, newJoeWins)); err != nil {
			return nil, err
		}
	} else {
		if err := e.sessions.UpdateTallies(ctx, sessionID, newMatisseWins, newJoeWins); err != nil {
			return nil, err
		}
	}
	return &RecordWinResult{GameNumber: gameNumber, IsComplete: isComplete}, nil
}

// UndoLast removes the highest-numbered game of the active session and gives
// the corresponding tally back.  Undo is only defined while the session is
// active; a completed session never reopens through this path.
func (e *SessionEngine) UndoLast(ctx context.Context, sessionID uint64) (*UndoResult, error) {
	session, err := e.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	games, err := e.games.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, statef("No games to undo")
	}

	last := games[0]
	for _, g := range games[1:] {
		if g.GameNumber > last.GameNumber {
			last = g
		}
	}
	if err := e.games.Delete(ctx, last.ID); err != nil {
		return nil, err
	}

	newMatisseWins := session.MatisseWins
	newJoeWins := session.JoeWins
	if last.Winner == model.WinnerMatisse {
		newMatisseWins--
	} else {
		newJoeWins--
	}
	if err := e.sessions.UpdateTallies(ctx, sessionID, newMatisseWins, newJoeWins); err != nil {
		return nil, err
	}
	return &UndoResult{UndoneWinner: last.Winner, GameNumber: last.GameNumber}, nil
}

// EndEarly closes the active session immediately, deciding the winner by the
// current tallies (a level score ends in a tie).
func (e *SessionEngine) EndEarly(ctx context.Context, sessionID uint64) error {
	session, err := e.activeSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.sessions.Complete(ctx, sessionID, session.MatisseWins, session.JoeWins, majority(session.MatisseWins, session.JoeWins))
}

// CancelSession discards the active session and every game it owns.
// Cancelled sessions never count toward aggregates.
func (e *SessionEngine) CancelSession(ctx context.Context, sessionID uint64) error {
	if _, err := e.activeSession(ctx, sessionID); err != nil {
		return err
	}
	if err := e.games.DeleteBySession(ctx, sessionID); err != nil {
		return err
	}
	return e.sessions.Cancel(ctx, sessionID)
}

// activeSession loads a session and enforces the active-status precondition
// shared by every session mutation.
func (e *SessionEngine) activeSession(ctx context.Context, sessionID uint64) (*model.Session, error) {
	session, err := e.sessions.Get(ctx, sessionID)
	if err == ErrNotFound {
		return nil, statef("No active session")
	}
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionActive {
		return nil, statef("No active session")
	}
	return session, nil
}

// majority picks the session winner by strict majority, "tie" on equality.
func majority(matisseWins, joeWins int) string {
	switch {
	case matisseWins > joeWins:
		return model.WinnerMatisse
	case joeWins > matisseWins:
		return model.WinnerJoe
	default:
		return model.WinnerTie
	}
}
