package middleware

// identity.go defines helpers shared across middleware files: sentinel
// auth errors and a user identity function used when building rate-limit
// and cache keys. An unauthenticated request is identified as "guest".

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// userIdentity returns a stable identifier for the requesting user based
// on the user_id value stored by the JWT middleware, or "guest" when the
// request is anonymous.
func userIdentity(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	return fmt.Sprint(v)
}
