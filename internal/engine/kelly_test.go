package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/joemdev/pool-scoreboard/internal/model"
)

func TestCreateGameDealsDisjointSecretBalls(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		_, ke, _ := newTestEngines(seed)
		ctx := context.Background()

		game, err := ke.CreateGame(ctx, []string{"Ava", "Ben", "Cleo", "Dan"}, 3)
		if err != nil {
			t.Fatalf("seed %d: create error: %v", seed, err)
		}
		if game.Status != model.KellyActive {
			t.Fatalf("status = %s, want active", game.Status)
		}
		if game.TotalBalls != 15 || game.BallsPerPlayer != 3 {
			t.Fatalf("game sizing = %+v", game)
		}

		seen := make(map[int]bool)
		orders := make(map[int]bool)
		for _, p := range game.Players {
			if len(p.SecretBalls) != 3 {
				t.Fatalf("seed %d: %s has %d balls, want 3", seed, p.Name, len(p.SecretBalls))
			}
			if p.IsEliminated || p.PeekCount != 0 {
				t.Fatalf("seed %d: fresh player %+v", seed, p)
			}
			for _, b := range p.SecretBalls {
				if b < 1 || b > 15 {
					t.Fatalf("seed %d: ball %d out of range", seed, b)
				}
				if seen[b] {
					t.Fatalf("seed %d: ball %d dealt twice", seed, b)
				}
				seen[b] = true
			}
			orders[p.Order] = true
		}
		if len(seen) != 12 {
			t.Fatalf("seed %d: dealt %d balls, want 12", seed, len(seen))
		}
		// Orders form a permutation of 0..3 and the roster is sorted by them.
		for i := 0; i < 4; i++ {
			if !orders[i] {
				t.Fatalf("seed %d: order %d missing", seed, i)
			}
			if game.Players[i].Order != i {
				t.Fatalf("seed %d: players not sorted by order", seed)
			}
		}
	}
}

func TestCreateGameValidation(t *testing.T) {
	manyNames := make([]string, 16)
	for i := range manyNames {
		manyNames[i] = strings.Repeat("x", i+1)
	}

	cases := []struct {
		name    string
		players []string
		bpp     int
		wantMsg string
	}{
		{"too few", []string{"solo"}, 1, "Need at least 2 players"},
		{"too many", manyNames, 1, "Maximum 15 players"},
		{"not enough balls", []string{"a", "b", "c", "d", "e", "f", "g", "h"}, 2,
			"Not enough balls: 8 players × 2 balls = 16, but only 15 available"},
		{"duplicate name", []string{"Bob", "ann", "bob"}, 1, "Duplicate player name: bob"},
		{"blank name", []string{"ann", "  "}, 1, "Player name cannot be empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ke, _ := newTestEngines(1)
			_, err := ke.CreateGame(context.Background(), tc.players, tc.bpp)
			if !IsValidation(err) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if err.Error() != tc.wantMsg {
				t.Fatalf("message = %q, want %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestCreateGameRejectsSecondGame(t *testing.T) {
	_, ke, _ := newTestEngines(1)
	ctx := context.Background()

	if _, err := ke.CreateGame(ctx, []string{"a", "b"}, 1); err != nil {
		t.Fatalf("create error: %v", err)
	}
	_, err := ke.CreateGame(ctx, []string{"c", "d"}, 1)
	if !IsConflict(err) {
		t.Fatalf("second create error = %v, want ConflictError", err)
	}
}

// ballsOf maps each player name to their dealt secret balls.
func ballsOf(g *model.KellyGame) map[string][]int {
	out := make(map[string][]int, len(g.Players))
	for _, p := range g.Players {
		out[p.Name] = p.SecretBalls
	}
	return out
}

func TestPocketBallEliminationToSoleSurvivor(t *testing.T) {
	_, ke, m := newTestEngines(7)
	ctx := context.Background()

	game, err := ke.CreateGame(ctx, []string{"A", "B", "C"}, 1)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	balls := ballsOf(game)

	// Pocket B's ball: elimination, no winner yet.
	res, err := ke.PocketBall(ctx, game.ID, balls["B"][0])
	if err != nil {
		t.Fatalf("pocket error: %v", err)
	}
	if res.OwnerName == nil || *res.OwnerName != "B" {
		t.Fatalf("owner = %v, want B", res.OwnerName)
	}
	if res.Eliminated != "B" {
		t.Fatalf("eliminated = %q, want B", res.Eliminated)
	}
	if res.Winner != nil {
		t.Fatalf("winner = %v, want none with two players standing", *res.Winner)
	}

	// Pocket C's ball: C out, A is the sole survivor and wins.
	res, err = ke.PocketBall(ctx, game.ID, balls["C"][0])
	if err != nil {
		t.Fatalf("pocket error: %v", err)
	}
	if res.Eliminated != "C" {
		t.Fatalf("eliminated = %q, want C", res.Eliminated)
	}
	if res.Winner == nil || *res.Winner != "A" {
		t.Fatalf("winner = %v, want A", res.Winner)
	}

	stored := m.kelly[game.ID]
	if stored.Status != model.KellyFinished {
		t.Fatalf("status = %s, want finished", stored.Status)
	}
	if stored.Winner == nil || *stored.Winner != "A" {
		t.Fatalf("stored winner = %v, want A", stored.Winner)
	}
	if stored.EndedAt == nil {
		t.Fatalf("endedAt not set on finish")
	}
	// Finished games keep their log.
	log, err := ke.GetGameLog(ctx, game.ID)
	if err != nil {
		t.Fatalf("log error: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("log length = %d, want 2", len(log))
	}
	for i, e := range log {
		if e.Action != model.KellyActionPocketed || e.PlayerName != "game" {
			t.Fatalf("log[%d] = %+v", i, e)
		}
	}
}

func TestPocketBallNeutralBall(t *testing.T) {
	_, ke, m := newTestEngines(3)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B"}, 1)
	balls := ballsOf(game)

	// Find a ball nobody owns.
	neutral := 0
	for b := 1; b <= 15; b++ {
		if b != balls["A"][0] && b != balls["B"][0] {
			neutral = b
			break
		}
	}

	res, err := ke.PocketBall(ctx, game.ID, neutral)
	if err != nil {
		t.Fatalf("pocket error: %v", err)
	}
	if res.OwnerName != nil || res.Eliminated != "" || res.Winner != nil {
		t.Fatalf("neutral pocket result = %+v", res)
	}
	if got := m.kelly[game.ID].BallsPocketed; len(got) != 1 || got[0] != neutral {
		t.Fatalf("pocketed = %v, want [%d]", got, neutral)
	}
}

func TestPocketBallPreconditions(t *testing.T) {
	_, ke, _ := newTestEngines(1)
	ctx := context.Background()

	if _, err := ke.PocketBall(ctx, 42, 1); !IsState(err) {
		t.Fatalf("pocket on missing game error = %v, want StateError", err)
	}

	game, _ := ke.CreateGame(ctx, []string{"A", "B"}, 1)
	for _, bad := range []int{0, 16, -3} {
		if _, err := ke.PocketBall(ctx, game.ID, bad); !IsValidation(err) {
			t.Fatalf("ball %d error = %v, want ValidationError", bad, err)
		}
	}

	if _, err := ke.PocketBall(ctx, game.ID, 7); err != nil {
		t.Fatalf("pocket error: %v", err)
	}
	if _, err := ke.PocketBall(ctx, game.ID, 7); !IsState(err) {
		t.Fatalf("double pocket error = %v, want StateError", err)
	}
}

func TestUnpocketRestoresPriorState(t *testing.T) {
	_, ke, m := newTestEngines(5)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B", "C"}, 1)
	balls := ballsOf(game)

	// Pocket then unpocket B's ball: the pocketed set and every elimination
	// flag return to their prior values.
	if _, err := ke.PocketBall(ctx, game.ID, balls["B"][0]); err != nil {
		t.Fatalf("pocket error: %v", err)
	}
	if err := ke.UnpocketBall(ctx, game.ID, balls["B"][0]); err != nil {
		t.Fatalf("unpocket error: %v", err)
	}

	stored := m.kelly[game.ID]
	if len(stored.BallsPocketed) != 0 {
		t.Fatalf("pocketed = %v, want empty", stored.BallsPocketed)
	}
	for _, p := range stored.Players {
		if p.IsEliminated {
			t.Fatalf("%s still eliminated after restore", p.Name)
		}
	}
	if stored.Status != model.KellyActive {
		t.Fatalf("status = %s, want active", stored.Status)
	}

	log, _ := ke.GetGameLog(ctx, game.ID)
	if len(log) != 2 || log[1].Action != model.KellyActionUnpocketed {
		t.Fatalf("log = %+v, want pocketed then unpocketed", log)
	}
}

func TestUnpocketSingleBallUneliminates(t *testing.T) {
	_, ke, m := newTestEngines(11)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B"}, 2)
	balls := ballsOf(game)

	// Eliminate A by pocketing both their balls.
	for _, b := range balls["A"] {
		if _, err := ke.PocketBall(ctx, game.ID, b); err != nil {
			t.Fatalf("pocket error: %v", err)
		}
	}
	// Two-player game: eliminating A finishes it immediately, so verify the
	// elimination invariant on the stored roster instead of continuing.
	stored := m.kelly[game.ID]
	for _, p := range stored.Players {
		wantElim := p.Name == "A"
		if p.IsEliminated != wantElim {
			t.Fatalf("%s eliminated = %v, want %v", p.Name, p.IsEliminated, wantElim)
		}
	}
}

func TestUnpocketRestoresEliminatedPlayer(t *testing.T) {
	_, ke, m := newTestEngines(13)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B", "C"}, 2)
	balls := ballsOf(game)

	for _, b := range balls["A"] {
		if _, err := ke.PocketBall(ctx, game.ID, b); err != nil {
			t.Fatalf("pocket error: %v", err)
		}
	}
	for _, p := range m.kelly[game.ID].Players {
		if p.Name == "A" && !p.IsEliminated {
			t.Fatalf("A should be eliminated with both balls pocketed")
		}
	}

	// Restoring any single secret ball un-eliminates, unconditionally.
	if err := ke.UnpocketBall(ctx, game.ID, balls["A"][0]); err != nil {
		t.Fatalf("unpocket error: %v", err)
	}
	for _, p := range m.kelly[game.ID].Players {
		if p.Name == "A" && p.IsEliminated {
			t.Fatalf("A should be restored after one ball came back")
		}
	}
}

func TestUnpocketRequiresPocketedBall(t *testing.T) {
	_, ke, _ := newTestEngines(1)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B"}, 1)
	if err := ke.UnpocketBall(ctx, game.ID, 5); !IsState(err) {
		t.Fatalf("unpocket error = %v, want StateError", err)
	}
}

func TestRecordPeek(t *testing.T) {
	_, ke, m := newTestEngines(1)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B"}, 1)
	for i := 0; i < 3; i++ {
		if err := ke.RecordPeek(ctx, game.ID, 1); err != nil {
			t.Fatalf("peek error: %v", err)
		}
	}
	if got := m.kelly[game.ID].Players[1].PeekCount; got != 3 {
		t.Fatalf("peek count = %d, want 3", got)
	}
	if got := m.kelly[game.ID].Players[0].PeekCount; got != 0 {
		t.Fatalf("other player's peek count = %d, want 0", got)
	}

	if err := ke.RecordPeek(ctx, game.ID, 2); !IsValidation(err) {
		t.Fatalf("out-of-range index error = %v, want ValidationError", err)
	}
	if err := ke.RecordPeek(ctx, game.ID, -1); !IsValidation(err) {
		t.Fatalf("negative index error = %v, want ValidationError", err)
	}
}

func TestCancelGameDeletesLog(t *testing.T) {
	_, ke, m := newTestEngines(1)
	ctx := context.Background()

	game, _ := ke.CreateGame(ctx, []string{"A", "B", "C"}, 1)
	balls := ballsOf(game)
	// Pocket two balls nobody owns so the game stays active.
	pocketed := 0
	for b := 1; b <= 15 && pocketed < 2; b++ {
		if b == balls["A"][0] || b == balls["B"][0] || b == balls["C"][0] {
			continue
		}
		if _, err := ke.PocketBall(ctx, game.ID, b); err != nil {
			t.Fatalf("pocket error: %v", err)
		}
		pocketed++
	}

	if err := ke.CancelGame(ctx, game.ID); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if got := m.kelly[game.ID].Status; got != model.KellyCancelled {
		t.Fatalf("status = %s, want cancelled", got)
	}
	if len(m.history) != 0 {
		t.Fatalf("history rows after cancel = %d, want 0", len(m.history))
	}

	if err := ke.CancelGame(ctx, game.ID); !IsState(err) {
		t.Fatalf("cancel of cancelled game error = %v, want StateError", err)
	}
}

func TestGetActivePrefersCurrentOverFinished(t *testing.T) {
	_, ke, _ := newTestEngines(9)
	ctx := context.Background()

	if _, err := ke.GetActive(ctx); err != ErrNotFound {
		t.Fatalf("get active on empty store = %v, want ErrNotFound", err)
	}

	first, _ := ke.CreateGame(ctx, []string{"A", "B"}, 1)
	balls := ballsOf(first)
	if _, err := ke.PocketBall(ctx, first.ID, balls["A"][0]); err != nil {
		t.Fatalf("pocket error: %v", err)
	}

	// No current game: the finished one is surfaced so the UI can show the
	// result.
	got, err := ke.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active error: %v", err)
	}
	if got.ID != first.ID || got.Status != model.KellyFinished {
		t.Fatalf("active = id %d status %s, want finished game %d", got.ID, got.Status, first.ID)
	}

	second, _ := ke.CreateGame(ctx, []string{"C", "D"}, 1)
	got, err = ke.GetActive(ctx)
	if err != nil {
		t.Fatalf("get active error: %v", err)
	}
	if got.ID != second.ID || got.Status != model.KellyActive {
		t.Fatalf("active = id %d status %s, want active game %d", got.ID, got.Status, second.ID)
	}
}

func TestLeaderboardCountsAndOrder(t *testing.T) {
	_, ke, _ := newTestEngines(21)
	ctx := context.Background()

	// Finish four games: Ava wins twice, Ben once, Cleo once.
	finishWith := func(winner, loser string) {
		game, err := ke.CreateGame(ctx, []string{winner, loser}, 1)
		if err != nil {
			t.Fatalf("create error: %v", err)
		}
		if _, err := ke.PocketBall(ctx, game.ID, ballsOf(game)[loser][0]); err != nil {
			t.Fatalf("pocket error: %v", err)
		}
	}
	finishWith("Ben", "Ava")
	finishWith("Ava", "Ben")
	finishWith("Cleo", "Ava")
	finishWith("Ava", "Cleo")

	board, err := ke.GetLeaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard error: %v", err)
	}
	want := []LeaderboardEntry{{"Ava", 2}, {"Ben", 1}, {"Cleo", 1}}
	if len(board) != len(want) {
		t.Fatalf("leaderboard = %+v, want %+v", board, want)
	}
	for i := range want {
		if board[i] != want[i] {
			t.Fatalf("leaderboard[%d] = %+v, want %+v", i, board[i], want[i])
		}
	}

	history, err := ke.GetHistory(ctx)
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history length = %d, want 4", len(history))
	}
	if *history[0].Winner != "Ava" || *history[3].Winner != "Ben" {
		t.Fatalf("history not newest-first: %s ... %s", *history[0].Winner, *history[3].Winner)
	}
}

func TestSetupGameBlocksCreationAndAcceptsCancel(t *testing.T) {
	_, ke, m := newTestEngines(1)
	ctx := context.Background()

	// Seed a setup-state game directly; the engine never creates one today
	// but every guard must still recognize it.
	m.kelly[900] = &model.KellyGame{ID: 900, Status: model.KellySetup, TotalBalls: 15}
	if m.seq < 900 {
		m.seq = 900
	}

	if _, err := ke.CreateGame(ctx, []string{"A", "B"}, 1); !IsConflict(err) {
		t.Fatalf("create beside setup game error = %v, want ConflictError", err)
	}

	got, err := ke.GetActive(ctx)
	if err != nil || got.ID != 900 {
		t.Fatalf("get active = %v, %v, want setup game", got, err)
	}

	// In-game mutations still require active state.
	if _, err := ke.PocketBall(ctx, 900, 3); !IsState(err) {
		t.Fatalf("pocket in setup error = %v, want StateError", err)
	}
	// But cancel accepts setup.
	if err := ke.CancelGame(ctx, 900); err != nil {
		t.Fatalf("cancel setup game error: %v", err)
	}
	if m.kelly[900].Status != model.KellyCancelled {
		t.Fatalf("status = %s, want cancelled", m.kelly[900].Status)
	}
}
