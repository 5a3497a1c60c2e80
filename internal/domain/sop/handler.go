package sop

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sops", h.Create)
	api.GET("/sops/user/:userId", h.ListByUser)
	api.GET("/sops/:id", h.Get)
	api.PATCH("/sops/steps/:stepId", h.UpdateStep)
	api.DELETE("/sops/steps/:stepId", h.DeleteStep)
	api.PATCH("/sops/steps/:stepId/complete", h.CompleteStep)
	api.PATCH("/sops/steps/:stepId/reject", h.RejectStep)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "SOP not found")
	case errors.Is(err, ErrStepNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "SOP step not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sop, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"sop": sop})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sop, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sop": sop})
}

func (h *Handler) ListByUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	sops, err := h.svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sops": sops})
}

func (h *Handler) UpdateStep(c echo.Context) error {
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid step id")
	}
	var patch StepPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	step, err := h.svc.UpdateStep(c.Request().Context(), stepID, patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"step": step})
}

func (h *Handler) DeleteStep(c echo.Context) error {
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid step id")
	}
	if err := h.svc.DeleteStep(c.Request().Context(), stepID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "SOP step deleted successfully"})
}

func (h *Handler) CompleteStep(c echo.Context) error {
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid step id")
	}
	var body struct {
		IsCompleted bool `json:"is_completed"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	step, err := h.svc.CompleteStep(c.Request().Context(), stepID, body.IsCompleted)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"step": step})
}

func (h *Handler) RejectStep(c echo.Context) error {
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid step id")
	}
	step, err := h.svc.RejectStep(c.Request().Context(), stepID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"step": step})
}
