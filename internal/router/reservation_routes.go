package router

// This file registers the reservation endpoints. Reads allow anonymous
// viewers and only use the bearer token when one is present; writes
// require authentication. Object-level rules live in the handlers.

import (
	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/handler"
	"github.com/okoskine/resbook/internal/middleware"
)

// RegisterReservations registers the reservation endpoints under /v1.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	reads := e.Group("/v1", middleware.OptionalJWTAuth(jwtSecret))
	reads.GET("/reservations", h.ListReservations)
	reads.GET("/reservations/:id", h.GetReservation)

	writes := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	writes.POST("/reservations", h.CreateReservation)
	writes.PUT("/reservations/:id", h.UpdateReservation)
	writes.DELETE("/reservations/:id", h.DeleteReservation)
}
