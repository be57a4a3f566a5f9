package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT middleware stores claim values as float64 or string
// depending on the token, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter as a positive uint64.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// engineError maps engine sentinels to an HTTP status and message.
// Expected business outcomes become 4xx responses; transient store
// failures become 503 so clients know to retry with backoff.
func engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrSoldOut):
		return c.JSON(http.StatusConflict, echo.Map{"error": "sold out"})
	case errors.Is(err, engine.ErrDuplicateReservation):
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already have a reservation on this listing"})
	case errors.Is(err, engine.ErrListingExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "listing is closed or its pickup window has passed"})
	case errors.Is(err, engine.ErrGraceExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window has closed; contact the host or support"})
	case errors.Is(err, engine.ErrEditWindowClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "edit window has closed"})
	case errors.Is(err, engine.ErrIllegalTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not in a state that allows this"})
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, engine.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, engine.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable, retry later"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
