package router

import (
	"github.com/labstack/echo/v4"

	"github.com/okoskine/resbook/internal/handler"
	"github.com/okoskine/resbook/internal/middleware"
	"github.com/okoskine/resbook/internal/model"
)

// RegisterStaff registers the staff management endpoints. All routes
// require a valid JWT and the STAFF role.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff),
	)

	// ---- Units ----
	g.POST("/units", s.CreateUnit)
	g.PUT("/units/:id", s.UpdateUnit)
	g.DELETE("/units/:id", s.DeleteUnit)

	// ---- Unit staff ----
	g.POST("/units/:id/staff", s.AddUnitStaff)
	g.DELETE("/units/:id/staff/:userID", s.RemoveUnitStaff)

	// ---- Resources ----
	g.POST("/resources", s.CreateResource)
	g.PUT("/resources/:id", s.UpdateResource)
	g.DELETE("/resources/:id", s.DeleteResource)
}

// RegisterExchange registers the calendar sync endpoints used by the
// Exchange worker. They are staff only.
func RegisterExchange(e *echo.Echo, x *handler.ExchangeHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff),
	)
	g.PUT("/reservations/:id/exchange", x.AttachItemID)
	g.GET("/reservations/:id/exchange", x.GetReservationItem)
	g.GET("/exchange/items/:hash", x.GetItem)
	g.DELETE("/exchange/items/:hash", x.DeleteItem)
}
