package feedback

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/insights"
	"procurement-backend/internal/shared/server/middleware"
	"procurement-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the feedback service.
type Handler struct {
	Svc    *Service
	Source insights.Source
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, source insights.Source) *Handler {
	return &Handler{Svc: svc, Source: source}
}

// RegisterRoutes attaches feedback routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/feedback", h.recordFeedback)
	rg.GET("/feedback", h.listFeedback)
	rg.GET("/feedback/effectiveness", h.effectiveness)
	rg.PATCH("/feedback/:id/outcome", h.updateOutcome)
	rg.DELETE("/feedback/:id", h.deleteFeedback)
}

type recordBody struct {
	InsightID string `json:"insightId"`
	Action    string `json:"action"`
	Notes     string `json:"notes"`
}

func (h *Handler) recordFeedback(c *gin.Context) {
	var body recordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if body.InsightID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "insightId is required", nil)
		return
	}

	ins, err := h.Source.GetByID(c.Request.Context(), body.InsightID)
	if err != nil {
		switch {
		case errors.Is(err, insights.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "insight not found", nil)
		case errors.Is(err, insights.ErrSourceOffline):
			respond.Error(c, http.StatusServiceUnavailable, "source_unavailable", "insight source is unavailable", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load insight", nil)
		}
		return
	}

	actionBy := middleware.UserNameFromContext(c)
	if actionBy == "" {
		actionBy = middleware.UserEmailFromContext(c)
	}

	entry, err := h.Svc.Record(c.Request.Context(), RecordInput{
		Insight:  ins,
		Action:   body.Action,
		Notes:    body.Notes,
		ActionBy: actionBy,
	})
	if err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), []map[string]string{
				{"field": verr.Field, "issue": verr.Issue},
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record feedback", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, entry)
}

func (h *Handler) listFeedback(c *gin.Context) {
	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	filter := Filter{
		InsightType: c.Query("type"),
		ActionTaken: c.Query("action"),
		Outcome:     c.Query("outcome"),
	}

	entries, total, err := h.Svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), []map[string]string{
				{"field": verr.Field, "issue": verr.Issue},
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list feedback", nil)
		return
	}

	respond.OK(c, gin.H{
		"entries": entries,
		"total":   total,
	})
}

type outcomeBody struct {
	Outcome       string   `json:"outcome"`
	ActualSavings *float64 `json:"actualSavings"`
	Notes         *string  `json:"notes"`
}

func (h *Handler) updateOutcome(c *gin.Context) {
	entryID := c.Param("id")
	if entryID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "feedback id is required", nil)
		return
	}

	var body outcomeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	entry, err := h.Svc.UpdateOutcome(c.Request.Context(), entryID, body.Outcome, body.ActualSavings, body.Notes)
	if err != nil {
		var verr ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), []map[string]string{
				{"field": verr.Field, "issue": verr.Issue},
			})
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "feedback entry not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update outcome", nil)
		}
		return
	}

	respond.OK(c, entry)
}

func (h *Handler) deleteFeedback(c *gin.Context) {
	entryID := c.Param("id")
	if entryID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "feedback id is required", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), entryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "feedback entry not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete feedback", nil)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) effectiveness(c *gin.Context) {
	summary, err := h.Svc.Effectiveness(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute effectiveness", nil)
		return
	}
	respond.OK(c, summary)
}
