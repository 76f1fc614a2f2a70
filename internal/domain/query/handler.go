package query

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Moyowalker/onye-test/internal/platform/auth"
	"github.com/Moyowalker/onye-test/internal/platform/fhir"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/query", h.Query)
}

// Query handles POST /api/query. An empty query string is still
// interpreted (it classifies as a general search); only malformed JSON is
// rejected outright.
func (h *Handler) Query(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome("request body must be JSON with a \"query\" field"))
	}

	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, fhir.ErrorOutcome("authentication required"))
	}

	resp, err := h.svc.Execute(c.Request().Context(), user, req.Query)
	if err != nil {
		var scopeErr *ScopeError
		if errors.As(err, &scopeErr) {
			return c.JSON(http.StatusForbidden, fhir.ForbiddenOutcome(scopeErr.Error()))
		}
		return c.JSON(http.StatusBadGateway, fhir.UnavailableOutcome("FHIR data source is unavailable"))
	}

	return c.JSON(http.StatusOK, resp)
}
