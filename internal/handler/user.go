package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-ticketing/internal/repository"
)

// UserHandler exposes read access to the externally maintained user
// directory.
type UserHandler struct {
	Users *repository.UserRepo
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *repository.UserRepo) *UserHandler {
	if users == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// Me handles GET /v1/me, returning the display fields of the
// authenticated caller.
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetSummary(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "role": c.Get("role")})
}
