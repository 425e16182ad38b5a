package engine

import (
	"context"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

// Scores counts completed sessions per player.  Tied sessions count for
// neither side.
type Scores struct {
	MatisseSessions int `json:"matisse_sessions"`
	JoeSessions     int `json:"joe_sessions"`
}

// LifetimeGames counts every leg ever won, across all sessions.
type LifetimeGames struct {
	MatisseGames int `json:"matisse_games"`
	JoeGames     int `json:"joe_games"`
}

// Streaks summarizes consecutive session wins.  CurrentStreak is the run of
// identical non-tie winners counted back from the most recent completed
// session; StreakHolder is empty when the latest session tied or nothing has
// completed yet.  Best* are the longest runs either player has ever held.
type Streaks struct {
	CurrentStreak int    `json:"current_streak"`
	StreakHolder  string `json:"streak_holder,omitempty"`
	BestMatisse   int    `json:"best_matisse"`
	BestJoe       int    `json:"best_joe"`
}

// GetScores aggregates completed sessions into session-level scores.
func (e *SessionEngine) GetScores(ctx context.Context) (*Scores, error) {
	completed, err := e.sessions.ListCompleted(ctx, false)
	if err != nil {
		return nil, err
	}
	scores := &Scores{}
	for _, s := range completed {
		if s.Winner == nil {
			continue
		}
		switch *s.Winner {
		case model.WinnerMatisse:
			scores.MatisseSessions++
		case model.WinnerJoe:
			scores.JoeSessions++
		}
	}
	return scores, nil
}

// GetLifetimeGames aggregates all games ever played into lifetime totals.
func (e *SessionEngine) GetLifetimeGames(ctx context.Context) (*LifetimeGames, error) {
	matisse, joe, err := e.games.CountByWinner(ctx)
	if err != nil {
		return nil, err
	}
	return &LifetimeGames{MatisseGames: matisse, JoeGames: joe}, nil
}

// GetMatchHistory returns all completed sessions, newest first.
func (e *SessionEngine) GetMatchHistory(ctx context.Context) ([]model.Session, error) {
	return e.sessions.ListCompleted(ctx, true)
}

// GetStreaks computes the current and best-ever session win streaks.
func (e *SessionEngine) GetStreaks(ctx context.Context) (*Streaks, error) {
	completed, err := e.sessions.ListCompleted(ctx, true)
	if err != nil {
		return nil, err
	}
	return computeStreaks(completed), nil
}

// computeStreaks scans completed sessions (newest-first) for the current
// streak, then oldest-first for the best-ever runs.  A tie ends the current
// streak and resets both running counters, as does a win by the other player.
func computeStreaks(newestFirst []model.Session) *Streaks {
	st := &Streaks{}

	for i, s := range newestFirst {
		w := winnerOf(s)
		if w != model.WinnerMatisse && w != model.WinnerJoe {
			break
		}
		if i == 0 {
			st.StreakHolder = w
		} else if w != st.StreakHolder {
			break
		}
		st.CurrentStreak++
	}
	if st.CurrentStreak == 0 {
		st.StreakHolder = ""
	}

	runMatisse, runJoe := 0, 0
	for i := len(newestFirst) - 1; i >= 0; i-- {
		switch winnerOf(newestFirst[i]) {
		case model.WinnerMatisse:
			runMatisse++
			runJoe = 0
		case model.WinnerJoe:
			runJoe++
			runMatisse = 0
		default:
			runMatisse, runJoe = 0, 0
		}
		if runMatisse > st.BestMatisse {
			st.BestMatisse = runMatisse
		}
		if runJoe > st.BestJoe {
			st.BestJoe = runJoe
		}
	}
	return st
}

func winnerOf(s model.Session) string {
	if s.Winner == nil {
		return ""
	}
	return *s.Winner
}
