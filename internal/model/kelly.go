package model

import "time"

// Kelly game lifecycle states as stored in the `kelly_games` table.  "setup"
// is a valid resting state reserved for a pre-deal configuration step; the
// current rules deal straight into "active", but every guard that asks "is a
// game in progress" must treat setup and active the same way.
const (
	KellySetup     = "setup"
	KellyActive    = "active"
	KellyFinished  = "finished"
	KellyCancelled = "cancelled"
)

// History log actions recorded in `kelly_history`.
const (
	KellyActionPocketed   = "pocketed"
	KellyActionUnpocketed = "unpocketed"
	KellyActionTurnPassed = "turn_passed"
)

// TotalBalls is the rack size; secret balls are dealt from 1..TotalBalls.
const TotalBalls = 15

// KellyPlayer is a value object embedded in a KellyGame (stored inside the
// game's JSON players column, never addressed on its own).  A player is
// eliminated exactly when every one of their secret balls has been pocketed;
// restoring any one of those balls un-eliminates them.
type KellyPlayer struct {
	Name         string `json:"name"`
	SecretBalls  []int  `json:"secret_balls"` // length = game's BallsPerPlayer
	IsEliminated bool   `json:"is_eliminated"`
	Order        int    `json:"order"`      // turn-order display index, 0-based
	PeekCount    int    `json:"peek_count"` // only ever increments
}

// KellyGame is one playthrough of the Kelly Pool elimination variant.  At
// most one game is in setup or active state at any time.  Players and the
// pocketed-ball set are persisted as JSON documents on the row.
//
// Fields:
//  ID             – primary key identifier.
//  Status         – one of the Kelly* lifecycle constants.
//  Players        – embedded players sorted by Order.
//  BallsPerPlayer – secret balls dealt to each player.
//  BallsPocketed  – ball numbers currently off the table.
//  Winner         – sole survivor's name, set only on finish.
//  StartedAt      – when the game was dealt.
//  EndedAt        – when the game finished (nil otherwise).
//  CreatedAt      – creation timestamp, drives newest-first history ordering.
type KellyGame struct {
	ID             uint64        `json:"id"`              // kelly_games.id
	Status         string        `json:"status"`          // kelly_games.status
	Players        []KellyPlayer `json:"players"`         // kelly_games.players (JSON)
	BallsPerPlayer int           `json:"balls_per_player"` // kelly_games.balls_per_player
	BallsPocketed  []int         `json:"balls_pocketed"`  // kelly_games.balls_pocketed (JSON)
	Winner         *string       `json:"winner,omitempty"` // kelly_games.winner (nullable)
	TotalBalls     int           `json:"total_balls"`     // kelly_games.total_balls
	StartedAt      time.Time     `json:"started_at"`      // kelly_games.started_at
	EndedAt        *time.Time    `json:"ended_at,omitempty"` // kelly_games.ended_at (nullable)
	CreatedAt      time.Time     `json:"created_at"`      // kelly_games.created_at
}

// KellyHistoryEntry is one row of a game's append-only action log.  The log
// is bulk-deleted when its game is cancelled and retained when it finishes.
// PlayerName is "game" for table-level actions (this ruleset does not enforce
// turn order, so pockets are attributed to the table rather than a shooter).
type KellyHistoryEntry struct {
	ID          uint64    `json:"id"`            // kelly_history.id
	KellyGameID uint64    `json:"kelly_game_id"` // kelly_history.kelly_game_id
	Action      string    `json:"action"`        // kelly_history.action
	BallNumber  *int      `json:"ball_number,omitempty"` // kelly_history.ball_number (nullable)
	PlayerName  string    `json:"player_name"`   // kelly_history.player_name
	Timestamp   time.Time `json:"timestamp"`     // kelly_history.timestamp
}
