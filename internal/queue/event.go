// Package queue defines message payloads exchanged over the message broker.
package queue

// SessionCompletedEvent is published when a best-of-five session reaches a
// result, whether by three wins, five games, or an early end. It carries the
// final tallies so downstream consumers can log or aggregate without querying
// the primary database.
type SessionCompletedEvent struct {
	SessionID   uint64 `json:"session_id"`
	MatisseWins int    `json:"matisse_wins"`
	JoeWins     int    `json:"joe_wins"`
	Winner      string `json:"winner"` // matisse | joe | tie
	CompletedAt string `json:"completed_at"`
}

// KellyGameFinishedEvent is published when a kelly game ends with a sole
// surviving player.
type KellyGameFinishedEvent struct {
	GameID         uint64   `json:"game_id"`
	Winner         string   `json:"winner"`
	Players        []string `json:"players"`
	BallsPerPlayer int      `json:"balls_per_player"`
	BallsPocketed  int      `json:"balls_pocketed"`
	FinishedAt     string   `json:"finished_at"`
}
