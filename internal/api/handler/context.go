package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxActor extracts the identity injected by the Auth middleware. The user id
// doubles as the actor recorded in the activity log.
func ctxActor(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get("user_id").(string)
	role, _ = c.Get("role").(string)
	if userID == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, role, nil
}
