package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the caller's own identity and permissions. Useful for
// the frontend and for troubleshooting scope problems.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/user/me", h.Me)
	api.GET("/user/permissions", h.Permissions)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c echo.Context) error {
	user := UserFromContext(c.Request().Context())
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, user.Profile())
}

// Permissions lists which resource types the caller's scopes can read, per
// SMART context.
func (h *Handler) Permissions(c echo.Context) error {
	user := UserFromContext(c.Request().Context())
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"role":      user.Role,
		"resources": AccessibleResources(user.Scopes),
	})
}
