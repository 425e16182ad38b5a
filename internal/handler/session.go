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

// SessionHandler serves the best-of-five scoreboard endpoints. Reads are
// public; mutations sit behind JWT middleware in the router.
type SessionHandler struct {
	Engine *engine.SessionEngine
}

func NewSessionHandler(e *engine.SessionEngine) *SessionHandler {
	return &SessionHandler{Engine: e}
}

type recordWinReq struct {
	Winner string `json:"winner"` // matisse | joe
}

// Create starts a new session. 409 when one is already active.
func (h *SessionHandler) Create(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Engine.Create(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// GetActive returns the in-progress session, or 404 when none exists.
func (h *SessionHandler) GetActive(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Engine.GetActive(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// RecordWin books one leg for the named winner and returns the updated
// session. Completing the session publishes a result event; a publish failure
// never fails the request.
func (h *SessionHandler) RecordWin(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req recordWinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.RecordWin(ctx, id, req.Winner)
	if err != nil {
		return respondEngineError(c, err)
	}
	s, err := h.Engine.GetSession(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	if res.IsComplete {
		h.publishCompleted(s)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session":     s,
		"game_number": res.GameNumber,
		"is_complete": res.IsComplete,
	})
}

// UndoLast removes the most recent leg and rolls the tally back.
func (h *SessionHandler) UndoLast(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.UndoLast(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	s, err := h.Engine.GetSession(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session":       s,
		"undone_winner": res.UndoneWinner,
		"game_number":   res.GameNumber,
	})
}

// EndEarly completes the session with whatever tallies stand, allowing a tie.
func (h *SessionHandler) EndEarly(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.EndEarly(ctx, id); err != nil {
		return respondEngineError(c, err)
	}
	s, err := h.Engine.GetSession(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}
	h.publishCompleted(s)
	return c.JSON(http.StatusOK, s)
}

// Cancel discards the session and its games; nothing reaches the aggregates.
func (h *SessionHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.CancelSession(ctx, id); err != nil {
		return respondEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetScores returns lifetime completed-session counts per player.
func (h *SessionHandler) GetScores(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	scores, err := h.Engine.GetScores(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, scores)
}

// GetLifetimeGames returns lifetime individual-game counts per player.
func (h *SessionHandler) GetLifetimeGames(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	games, err := h.Engine.GetLifetimeGames(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, games)
}

// GetMatchHistory returns completed sessions, newest first.
func (h *SessionHandler) GetMatchHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	history, err := h.Engine.GetMatchHistory(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

// GetStreaks returns the current and best-ever winning streaks.
func (h *SessionHandler) GetStreaks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	streaks, err := h.Engine.GetStreaks(ctx)
	if err != nil {
		return respondEngineError(c, err)
	}
	return c.JSON(http.StatusOK, streaks)
}

func (h *SessionHandler) publishCompleted(s *model.Session) {
	winner := model.WinnerTie
	if s.Winner != nil {
		winner = *s.Winner
	}
	ev := queue.SessionCompletedEvent{
		SessionID:   s.ID,
		MatisseWins: s.MatisseWins,
		JoeWins:     s.JoeWins,
		Winner:      winner,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// Fire and forget with a fresh context; the request may already be done.
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = queue_publisher.PublishSessionCompleted(pubCtx, ev)
}
