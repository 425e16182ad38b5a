package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joemdev/pool-scoreboard/internal/engine"
	"github.com/joemdev/pool-scoreboard/internal/model"
	"github.com/joemdev/pool-scoreboard/internal/queue"
	queue_publisher "github.com/joemdev/pool-scoreboard/internal/service"
)

// KellyHandler serves the Kelly Pool elimination endpoints.
type KellyHandler struct {
	Engine *engine.KellyEngine
}

func NewKellyHandler(e *engine.KellyEngine) *KellyHandler {
	return &KellyHandler{Engine: e}
}

type createKellyReq struct {
	PlayerNames    []string `json:"player_names"`
	BallsPerPlayer int      `json:"balls_per_player"`
}

type ballReq struct {
	BallNumber int `json:"ball_number"`
}

type peekReq struct {
	PlayerIndex int `json:"player_index"`
}

// CreateGame deals a new game. 409 when a game is already in progress.
func (h *KellyHandler) CreateGame(c echo.Context) error {
	var req createKellyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	game, err := h.Engine.CreateGame(ctx, req.PlayerNames, req.BallsPerPlayer)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, game)
}

// GetActive returns the in-progress game, falling back to the most recently
// finished one. 404 when no game has ever been dealt.
func (h *KellyHandler) GetActive(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	game, err := h.Engine.GetActive(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, game)
}

// PocketBall records a pocketed ball, applying elimination and win rules. The
// updated game is returned; finishing the game publishes a result event.
func (h *KellyHandler) PocketBall(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	var req ballReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.PocketBall(ctx, id, req.BallNumber)
	if err != nil {
		return respondEngineError(c, err)
	}
	game, err := h.Engine.GetGame(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	if res.Winner != nil {
		h.publishFinished(game)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"game":       game,
		"eliminated": res.Eliminated,
		"winner":     res.Winner,
	})
}

// UnpocketBall restores a ball to the table, un-eliminating its owner.
func (h *KellyHandler) UnpocketBall(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	var req ballReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.UnpocketBall(ctx, id, req.BallNumber); err != nil {
		return respondEngineError(c, err)
	}
	game, err := h.Engine.GetGame(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, game)
}

// RecordPeek increments a player's peek counter.
func (h *KellyHandler) RecordPeek(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}
	var req peekReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.RecordPeek(ctx, id, req.PlayerIndex); err != nil {
		return respondEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Cancel abandons the game and deletes its log.
func (h *KellyHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.CancelGame(ctx, id); err != nil {
		return respondEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetGameLog returns the game's action log in chronological order.
func (h *KellyHandler) GetGameLog(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid game id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Engine.GetGameLog(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetHistory returns finished games, newest first.
func (h *KellyHandler) GetHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	games, err := h.Engine.GetHistory(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, games)
}

// GetLeaderboard returns win counts per player across finished games.
func (h *KellyHandler) GetLeaderboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	board, err := h.Engine.GetLeaderboard(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

func (h *KellyHandler) publishFinished(g *model.KellyGame) {
	if g.Winner == nil {
		return
	}
	names := make([]string, len(g.Players))
	for i, p := range g.Players {
		names[i] = p.Name
	}
	finishedAt := time.Now().UTC()
	if g.EndedAt != nil {
		finishedAt = g.EndedAt.UTC()
	}
	ev := queue.KellyGameFinishedEvent{
		GameID:         g.ID,
		Winner:         *g.Winner,
		Players:        names,
		BallsPerPlayer: g.BallsPerPlayer,
		BallsPocketed:  len(g.BallsPocketed),
		FinishedAt:     finishedAt.Format(time.RFC3339),
	}
	// Fire and forget with a fresh context; the request may already be done.
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = queue_publisher.PublishKellyFinished(pubCtx, ev)
}
