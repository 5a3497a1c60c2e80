package transfusion

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cura/cura/internal/platform/auth"
	"github.com/cura/cura/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/transfusions")
	g.POST("/start", h.Start)
	g.PATCH("/:id/pause", h.Pause)
	g.PATCH("/:id/resume", h.Resume)
	g.PATCH("/:id/complete", h.Complete)
	g.PATCH("/:id/stop-early", h.StopEarly)
	g.POST("/:id/progress", h.RecordProgress)
	g.POST("/:id/note", h.RecordNote)
	g.POST("/:id/alert", h.RecordAlert)
	g.GET("/history/all", h.History)
	g.GET("/active/all", h.Active)
	g.GET("/:id", h.Get)
}

// caregiverID resolves the authenticated caller. Identity is established
// upstream; this only trusts what the auth middleware put on the context.
func caregiverID(c echo.Context) (uuid.UUID, error) {
	uid := auth.UserIDFromContext(c.Request().Context())
	id, err := uuid.Parse(uid)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}
	return id, nil
}

func httpError(err error) error {
	switch {
	case IsValidation(err), errors.Is(err, ErrInvalidRate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "transfusion not found")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) Start(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	var in StartInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Start(c.Request().Context(), cg, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":     true,
		"transfusion": t,
	})
}

func (h *Handler) Pause(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		PausedAt *time.Time `json:"paused_at"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Pause(c.Request().Context(), id, cg, body.PausedAt)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"transfusion": t,
	})
}

func (h *Handler) Resume(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		PauseDurationMs *int64 `json:"pause_duration_ms"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Resume(c.Request().Context(), id, cg, body.PauseDurationMs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"transfusion": t,
	})
}

func (h *Handler) Complete(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in CompleteInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Complete(c.Request().Context(), id, cg, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"transfusion": t,
	})
}

func (h *Handler) StopEarly(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in StopEarlyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.StopEarly(c.Request().Context(), id, cg, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"transfusion": t,
	})
}

func (h *Handler) RecordProgress(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in ProgressInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, deviations, err := h.svc.RecordProgress(c.Request().Context(), id, cg, in)
	if err != nil {
		return httpError(err)
	}
	resp := map[string]interface{}{
		"success":  true,
		"progress": p,
	}
	if len(deviations) > 0 {
		resp["deviations"] = deviations
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) RecordNote(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Note     string `json:"note"`
		NoteType string `json:"note_type"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.RecordNote(c.Request().Context(), id, cg, body.Note, body.NoteType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"note":    n,
	})
}

func (h *Handler) RecordAlert(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		AlertType    string `json:"alert_type"`
		AlertMessage string `json:"alert_message"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.RecordAlert(c.Request().Context(), id, cg, body.AlertType, body.AlertMessage)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"alert":   a,
	})
}

func (h *Handler) Get(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id, cg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"transfusion": d,
	})
}

func (h *Handler) History(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	list, total, err := h.svc.History(c.Request().Context(), cg, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	page := pagination.NewResponse(list, total, pg.Limit, pg.Offset)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"transfusions": page.Data,
		"total":        page.Total,
		"has_more":     page.HasMore,
	})
}

func (h *Handler) Active(c echo.Context) error {
	cg, err := caregiverID(c)
	if err != nil {
		return err
	}
	list, err := h.svc.Active(c.Request().Context(), cg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"transfusions": list,
	})
}
