package model

import "time"

// Player identifiers and session outcomes. The scoreboard tracks exactly two
// named players, so the winner enumeration is closed.
const (
	WinnerMatisse = "matisse"
	WinnerJoe     = "joe"
	WinnerTie     = "tie"
)

// Session lifecycle states as stored in the `sessions` table.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// Session represents one best-of-5 match between Matisse and Joe.  At most
// one session is active at any time; completed sessions are what the
// leaderboard and streak queries aggregate over.  Winner is only set once the
// session completes ("tie" is possible when a session is ended early).
//
// Fields:
//  ID          – primary key identifier.
//  MatisseWins – games won by Matisse inside this session.
//  JoeWins     – games won by Joe inside this session.
//  Status      – one of SessionActive, SessionCompleted, SessionCancelled.
//  Winner      – session winner, nil while the session is active or cancelled.
//  CreatedAt   – creation timestamp, drives newest-first history ordering.
type Session struct {
	ID          uint64    `json:"id"`           // sessions.id
	MatisseWins int       `json:"matisse_wins"` // sessions.matisse_wins
	JoeWins     int       `json:"joe_wins"`     // sessions.joe_wins
	Status      string    `json:"status"`       // sessions.status
	Winner      *string   `json:"winner,omitempty"` // sessions.winner (nullable)
	CreatedAt   time.Time `json:"created_at"`   // sessions.created_at
}

// Game is a single leg inside a Session.  Game numbers are contiguous from 1
// within their session; undoing always removes the highest number so no gaps
// appear.  Games are bulk-deleted when their session is cancelled.
//
// Fields:
//  ID         – primary key identifier.
//  SessionID  – owning session.
//  Winner     – WinnerMatisse or WinnerJoe (a leg cannot tie).
//  GameNumber – 1-based position inside the session.
//  CreatedAt  – creation timestamp.
type Game struct {
	ID         uint64    `json:"id"`          // games.id
	SessionID  uint64    `json:"session_id"`  // games.session_id
	Winner     string    `json:"winner"`      // games.winner
	GameNumber int       `json:"game_number"` // games.game_number
	CreatedAt  time.Time `json:"created_at"`  // games.created_at
}
