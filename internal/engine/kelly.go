package engine

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

// Bounds on a Kelly Pool game.  Fifteen balls cap both the player count and
// the product of players and balls-per-player.
const (
	minKellyPlayers = 2
	maxKellyPlayers = 15
)

// KellyEngine runs the Kelly Pool elimination game.  The rng drives the
// secret-ball deal and the turn-order shuffle; now supplies timestamps.  Both
// are injectable so tests can fix the deal and the clock.
type KellyEngine struct {
	kelly   KellyStore
	history KellyHistoryStore
	rng     *rand.Rand
	now     func() time.Time
}

// NewKellyEngine constructs a KellyEngine.  A nil rng falls back to a
// time-seeded source and a nil now falls back to time.Now.
func NewKellyEngine(kelly KellyStore, history KellyHistoryStore, rng *rand.Rand, now func() time.Time) *KellyEngine {
	if kelly == nil || history == nil {
		panic("nil store passed to NewKellyEngine")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &KellyEngine{kelly: kelly, history: history, rng: rng, now: now}
}

// PocketResult reports the outcome of one pocketed ball.
type PocketResult struct {
	Winner     *string `json:"winner"`               // sole survivor, set only when the game finished
	Eliminated string  `json:"eliminated,omitempty"` // player eliminated by this ball, if any
	BallNumber int     `json:"ball_number"`
	OwnerName  *string `json:"owner_name"` // non-eliminated owner of the ball, if any
}

// LeaderboardEntry is one row of the Kelly win leaderboard.
type LeaderboardEntry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// GetActive returns the game currently in progress (setup or active), falling
// back to the most recently finished game so a just-completed result can
// still be shown.  ErrNotFound when neither exists.
func (e *KellyEngine) GetActive(ctx context.Context) (*model.KellyGame, error) {
	game, err := e.kelly.FindCurrent(ctx)
	if err == nil {
		return game, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	return e.kelly.FindLatestFinished(ctx)
}

// GetGame returns the game with the given id regardless of status.
func (e *KellyEngine) GetGame(ctx context.Context, gameID uint64) (*model.KellyGame, error) {
	return e.kelly.Get(ctx, gameID)
}

// CreateGame validates the roster, deals secret balls and starts the game.
// The deal shuffles 1..15 and slices contiguous chunks of ballsPerPlayer per
// player, which keeps the secret sets disjoint.  Turn order is shuffled
// independently so ball numbers carry no hint of position.
func (e *KellyEngine) CreateGame(ctx context.Context, playerNames []string, ballsPerPlayer int) (*model.KellyGame, error) {
	if ballsPerPlayer < 1 {
		ballsPerPlayer = 1
	}
	names := make([]string, len(playerNames))
	seen := make(map[string]bool, len(playerNames))
	for i, raw := range playerNames {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, validationf("Player name cannot be empty")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, validationf("Duplicate player name: %s", name)
		}
		seen[key] = true
		names[i] = name
	}
	if len(names) < minKellyPlayers {
		return nil, validationf("Need at least %d players", minKellyPlayers)
	}
	if len(names) > maxKellyPlayers {
		return nil, validationf("Maximum %d players", maxKellyPlayers)
	}
	totalNeeded := len(names) * ballsPerPlayer
	if totalNeeded > model.TotalBalls {
		return nil, validationf("Not enough balls: %d players × %d balls = %d, but only %d available",
			len(names), ballsPerPlayer, totalNeeded, model.TotalBalls)
	}

	existing, err := e.kelly.FindCurrent(ctx)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, conflictf("A kelly game is already in progress")
	}

	availableBalls := make([]int, model.TotalBalls)
	for i := range availableBalls {
		availableBalls[i] = i + 1
	}
	e.rng.Shuffle(len(availableBalls), func(i, j int) {
		availableBalls[i], availableBalls[j] = availableBalls[j], availableBalls[i]
	})

	orders := make([]int, len(names))
	for i := range orders {
		orders[i] = i
	}
	e.rng.Shuffle(len(orders), func(i, j int) {
		orders[i], orders[j] = orders[j], orders[i]
	})

	players := make([]model.KellyPlayer, len(names))
	for i, name := range names {
		secret := make([]int, ballsPerPlayer)
		copy(secret, availableBalls[i*ballsPerPlayer:(i+1)*ballsPerPlayer])
		players[i] = model.KellyPlayer{
			Name:        name,
			SecretBalls: secret,
			Order:       orders[i],
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Order < players[j].Order })

	game := &model.KellyGame{
		Status:         model.KellyActive,
		Players:        players,
		BallsPerPlayer: ballsPerPlayer,
		BallsPocketed:  []int{},
		TotalBalls:     model.TotalBalls,
		StartedAt:      e.now(),
	}
	if err := e.kelly.Insert(ctx, game); err != nil {
		if err == ErrActiveExists {
			return nil, conflictf("A kelly game is already in progress")
		}
		return nil, err
	}
	return game, nil
}

// PocketBall records a ball leaving the table.  The action is logged first,
// then the pocketed set grows; if the ball completed its owner's secret set
// the owner is eliminated, and if a single player is left standing the game
// finishes with them as winner.
func (e *KellyEngine) PocketBall(ctx context.Context, gameID uint64, ballNumber int) (*PocketResult, error) {
	game, err := e.activeGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if ballNumber < 1 || ballNumber > model.TotalBalls {
		return nil, validationf("Invalid ball number")
	}
	if containsBall(game.BallsPocketed, ballNumber) {
		return nil, statef("Ball already pocketed")
	}

	ball := ballNumber
	if err := e.history.Append(ctx, &model.KellyHistoryEntry{
		KellyGameID: gameID,
		Action:      model.KellyActionPocketed,
		BallNumber:  &ball,
		PlayerName:  "game",
		Timestamp:   e.now(),
	}); err != nil {
		return nil, err
	}

	newPocketed := append(append([]int{}, game.BallsPocketed...), ballNumber)

	result := &PocketResult{BallNumber: ballNumber}
	players := append([]model.KellyPlayer{}, game.Players...)

	// At most one non-eliminated player owns the ball (secret sets are
	// disjoint).
	for i := range players {
		p := &players[i]
		if p.IsEliminated || !containsBall(p.SecretBalls, ballNumber) {
			continue
		}
		owner := p.Name
		result.OwnerName = &owner
		if allPocketed(p.SecretBalls, newPocketed) {
			p.IsEliminated = true
			result.Eliminated = p.Name
		}
		break
	}

	if survivor, sole := soleSurvivor(players); sole {
		result.Winner = &survivor
		if err := e.kelly.Finish(ctx, gameID, players, newPocketed, survivor, e.now()); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := e.kelly.SaveProgress(ctx, gameID, players, newPocketed); err != nil {
		return nil, err
	}
	return result, nil
}

// UnpocketBall puts a ball back on the table.  If the ball belongs to an
// eliminated player they are restored unconditionally; elimination requires
// the whole secret set to be gone, so getting any one ball back suffices.
// Only forward pocketing can finish a game; this never transitions state.
func (e *KellyEngine) UnpocketBall(ctx context.Context, gameID uint64, ballNumber int) error {
	game, err := e.activeGame(ctx, gameID)
	if err != nil {
		return err
	}
	if !containsBall(game.BallsPocketed, ballNumber) {
		return statef("Ball is not pocketed")
	}

	newPocketed := make([]int, 0, len(game.BallsPocketed)-1)
	for _, b := range game.BallsPocketed {
		if b != ballNumber {
			newPocketed = append(newPocketed, b)
		}
	}

	players := append([]model.KellyPlayer{}, game.Players...)
	for i := range players {
		p := &players[i]
		if p.IsEliminated && containsBall(p.SecretBalls, ballNumber) {
			p.IsEliminated = false
			break
		}
	}

	ball := ballNumber
	if err := e.history.Append(ctx, &model.KellyHistoryEntry{
		KellyGameID: gameID,
		Action:      model.KellyActionUnpocketed,
		BallNumber:  &ball,
		PlayerName:  "game",
		Timestamp:   e.now(),
	}); err != nil {
		return err
	}

	return e.kelly.SaveProgress(ctx, gameID, players, newPocketed)
}

// RecordPeek bumps a player's peek counter.  The counter gates a
// reveal-secret-ball UI and never affects game rules.
func (e *KellyEngine) RecordPeek(ctx context.Context, gameID uint64, playerIndex int) error {
	game, err := e.activeGame(ctx, gameID)
	if err != nil {
		return err
	}
	if playerIndex < 0 || playerIndex >= len(game.Players) {
		return validationf("Invalid player index")
	}
	players := append([]model.KellyPlayer{}, game.Players...)
	players[playerIndex].PeekCount++
	return e.kelly.SaveProgress(ctx, gameID, players, game.BallsPocketed)
}

// CancelGame discards a game in setup or active state together with its
// entire action log.  Finished games keep their log.
func (e *KellyEngine) CancelGame(ctx context.Context, gameID uint64) error {
	game, err := e.kelly.Get(ctx, gameID)
	if err == ErrNotFound {
		return statef("No active kelly game to cancel")
	}
	if err != nil {
		return err
	}
	if game.Status != model.KellyActive && game.Status != model.KellySetup {
		return statef("No active kelly game to cancel")
	}
	if err := e.history.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	return e.kelly.Cancel(ctx, gameID)
}

// GetGameLog returns a game's action log in insertion order.
func (e *KellyEngine) GetGameLog(ctx context.Context, gameID uint64) ([]model.KellyHistoryEntry, error) {
	if _, err := e.kelly.Get(ctx, gameID); err != nil {
		return nil, err
	}
	return e.history.ListByGame(ctx, gameID)
}

// GetHistory returns finished games, newest first.
func (e *KellyEngine) GetHistory(ctx context.Context) ([]model.KellyGame, error) {
	return e.kelly.ListFinished(ctx)
}

// GetLeaderboard groups finished games by winner and orders by win count
// descending.  Equal counts keep the order in which the winners first
// appeared (oldest game first).
func (e *KellyEngine) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	finished, err := e.kelly.ListFinished(ctx)
	if err != nil {
		return nil, err
	}
	wins := make(map[string]int)
	var order []string
	for i := len(finished) - 1; i >= 0; i-- {
		g := finished[i]
		if g.Winner == nil {
			continue
		}
		name := *g.Winner
		if _, ok := wins[name]; !ok {
			order = append(order, name)
		}
		wins[name]++
	}
	entries := make([]LeaderboardEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, LeaderboardEntry{Name: name, Wins: wins[name]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Wins > entries[j].Wins })
	return entries, nil
}

// activeGame loads a game and enforces the active-status precondition shared
// by the in-game mutations.
func (e *KellyEngine) activeGame(ctx context.Context, gameID uint64) (*model.KellyGame, error) {
	game, err := e.kelly.Get(ctx, gameID)
	if err == ErrNotFound {
		return nil, statef("No active kelly game")
	}
	if err != nil {
		return nil, err
	}
	if game.Status != model.KellyActive {
		return nil, statef("No active kelly game")
	}
	return game, nil
}

func containsBall(balls []int, n int) bool {
	for _, b := range balls {
		if b == n {
			return true
		}
	}
	return false
}

func allPocketed(secret, pocketed []int) bool {
	for _, b := range secret {
		if !containsBall(pocketed, b) {
			return false
		}
	}
	return true
}

func soleSurvivor(players []model.KellyPlayer) (string, bool) {
	var name string
	count := 0
	for _, p := range players {
		if !p.IsEliminated {
			name = p.Name
			count++
		}
	}
	return name, count == 1
}
