package insights

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the insight source.
type Handler struct {
	Source Source
}

// NewHandler constructs a Handler.
func NewHandler(source Source) *Handler {
	return &Handler{Source: source}
}

// RegisterRoutes attaches insight routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/insights", h.listInsights)
	rg.GET("/insights/summary", h.getSummary)
}

func (h *Handler) listInsights(c *gin.Context) {
	insightType := c.DefaultQuery("type", "all")
	if insightType != "all" && !ValidType(insightType) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown insight type", []map[string]string{
			{"field": "type", "issue": "invalid_value"},
		})
		return
	}

	sortKey := c.DefaultQuery("sort", SortBySavings)
	switch sortKey {
	case SortBySavings, SortBySeverity, SortByConfidence:
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown sort key", []map[string]string{
			{"field": "sort", "issue": "invalid_value"},
		})
		return
	}

	list, err := h.Source.Insights(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrSourceOffline) {
			respond.Error(c, http.StatusBadGateway, "source_unavailable", "analytics source unavailable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list insights", nil)
		return
	}

	list = SortInsights(FilterByType(list, insightType), sortKey)
	respond.JSON(c, http.StatusOK, gin.H{
		"insights": list,
		"count":    len(list),
	})
}

func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.Source.Summary(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrSourceOffline) {
			respond.Error(c, http.StatusBadGateway, "source_unavailable", "analytics source unavailable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch summary", nil)
		return
	}
	respond.OK(c, summary)
}
