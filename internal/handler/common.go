package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/config"
	"github.com/okoskine/resbook/internal/model"
	"github.com/okoskine/resbook/internal/repository"
)

// ReservationHandler bundles the configuration and repositories needed
// for the reservation endpoints. Authentication is performed by
// middleware; getActor loads the pure Actor used by the policy
// predicates. Create/update/delete run their validation inside a
// transaction that holds the resource row lock.
type ReservationHandler struct {
	Cfg             config.Config
	UserRepo        *repository.UserRepo
	ResourceRepo    *repository.ResourceRepo
	ReservationRepo *repository.ReservationRepo
	Notifier        Notifier
}

// Notifier delivers out-of-band notices about reservations changed by
// someone other than their owner. Implementations must be safe to call
// from request goroutines; delivery is fire-and-forget.
type Notifier interface {
	NotifyReservationChanged(detail *repository.ReservationDetail, action, actorEmail string)
}

// NewReservationHandler constructs a ReservationHandler. All repository
// dependencies must be non-nil; the notifier may be nil to disable
// notifications.
func NewReservationHandler(cfg config.Config, users *repository.UserRepo, resources *repository.ResourceRepo, reservations *repository.ReservationRepo, notifier Notifier) *ReservationHandler {
	if users == nil || resources == nil || reservations == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Cfg:             cfg,
		UserRepo:        users,
		ResourceRepo:    resources,
		ReservationRepo: reservations,
		Notifier:        notifier,
	}
}

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. The JWT middleware stores claim values without normalizing
// their type, so several representations must be accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
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

// getActor loads the acting user and their administered units. Requests
// without a user_id in context produce an anonymous actor, which is a
// legitimate viewer for the read endpoints.
func (h *ReservationHandler) getActor(c echo.Context) (model.Actor, error) {
	userID, err := getUserID(c)
	if err != nil {
		return model.Actor{}, nil // anonymous
	}
	return h.UserRepo.GetActor(c.Request().Context(), userID)
}

// errUnparsableBool reports a boolean-ish query value that matched
// neither token set.
var errUnparsableBool = errors.New("unparsable boolean token")

// parseBoolToken parses boolean-ish query parameter values the way the
// listing filters specify: true/t/yes/y/1 and false/f/no/n/0, case
// insensitive. Anything else is a parse error surfaced as 400.
func parseBoolToken(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	}
	return false, errUnparsableBool
}

// fieldError responds with a 400 carrying field-scoped messages, the
// shape used for all domain validation failures.
func fieldError(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}
