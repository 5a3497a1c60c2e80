package prescription

import (
	"errors"
	"net/http"
	"strconv"

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
	api.POST("/prescriptions/analyze", h.Analyze)
	api.GET("/prescriptions/user/:userId", h.ListByUser)
	api.GET("/prescriptions/:id", h.Get)
}

func (h *Handler) Analyze(c echo.Context) error {
	var in AnalyzeInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Analyze(c.Request().Context(), in)
	if err != nil {
		if in.MedicineText == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Medicine text is required")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to analyze prescription")
	}
	resp := map[string]interface{}{
		"success": true,
		"data":    result.Analysis,
		"message": "Prescription analyzed successfully",
	}
	if result.PrescriptionID != nil {
		resp["prescription_id"] = result.PrescriptionID
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListByUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.svc.ListByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get prescriptions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    list,
		"count":   len(list),
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Prescription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get prescription")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}
