package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/joemdev/pool-scoreboard/internal/engine"
)

// respondEngineError maps rule-engine errors onto HTTP responses. Validation
// failures are 400, conflicts and illegal state transitions are 409, missing
// records are 404. Error messages are surfaced verbatim so clients can show
// them directly.
func respondEngineError(c echo.Context, err error) error {
	switch {
	case engine.IsValidation(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case engine.IsConflict(err), engine.IsState(err):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case err == engine.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses the :id path parameter as an unsigned integer.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
