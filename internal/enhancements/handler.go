package enhancements

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/insights"
	"procurement-backend/internal/shared/server/middleware"
	"procurement-backend/internal/shared/server/respond"
)

const (
	awaitInterval = 250 * time.Millisecond
	awaitMaxWait  = 25 * time.Second
)

// Handler wires HTTP handlers to the enhancement services. Jobs is the
// tracker shared by both services; polling resolves against it directly so
// bulk and analysis jobs stay reachable regardless of service wiring.
type Handler struct {
	Jobs    *Tracker
	Bulk    *BulkService
	Deep    *DeepService
	Source  insights.Source
	limiter *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(jobs *Tracker, bulk *BulkService, deep *DeepService, source insights.Source, pollWindow time.Duration) *Handler {
	return &Handler{
		Jobs:    jobs,
		Bulk:    bulk,
		Deep:    deep,
		Source:  source,
		limiter: newPollLimiter(pollWindow, nil),
	}
}

// RegisterRoutes attaches enhancement routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/enhancements", h.startEnhancement)
	rg.GET("/enhancements/jobs/:id", h.getJob)
	rg.POST("/insights/:id/analysis", h.startAnalysis)
	rg.GET("/analysis/jobs/:id", h.getJob)
}

type enhancementBody struct {
	Force bool `json:"force"`
}

func (h *Handler) startEnhancement(c *gin.Context) {
	var body enhancementBody
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	list, err := h.Source.Insights(c.Request.Context())
	if err != nil {
		if errors.Is(err, insights.ErrSourceOffline) {
			respond.Error(c, http.StatusServiceUnavailable, "source_unavailable", "insight source is unavailable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load insights", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	outcome, err := h.Bulk.RequestEnhancement(ctx, list, body.Force)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "not_configured", "reasoning service is not configured", nil)
		case errors.Is(err, ErrEmptyInsightSet):
			respond.Error(c, http.StatusBadRequest, "validation_error", "no insights available to enhance", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start enhancement", nil)
		}
		return
	}

	if outcome.Cached {
		respond.JSON(c, http.StatusOK, gin.H{
			"cached": true,
			"result": outcome.Result,
		})
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		job, err := h.Jobs.Await(ctx, outcome.Job.ID, awaitInterval, awaitMaxWait)
		if err != nil {
			if errors.Is(err, ErrPollTimeout) {
				respond.Error(c, http.StatusGatewayTimeout, "poll_timeout", "enhancement did not finish in time", gin.H{
					"jobId": outcome.Job.ID,
				})
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to await enhancement", nil)
			return
		}
		respond.JSON(c, http.StatusOK, jobResponse(job))
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"jobId":  outcome.Job.ID,
		"status": outcome.Job.Status,
	})
}

func (h *Handler) startAnalysis(c *gin.Context) {
	insightID := c.Param("id")
	if insightID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "insight id is required", nil)
		return
	}

	ins, err := h.Source.GetByID(c.Request.Context(), insightID)
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

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	job, err := h.Deep.RequestAnalysis(ctx, ins)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "not_configured", "reasoning service is not configured", nil)
		case errors.Is(err, ErrMissingInsight):
			respond.Error(c, http.StatusBadRequest, "validation_error", "insight id is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (h *Handler) getJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job id is required", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	if !h.limiter.Allow(userID, jobID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "poll_rate_limited", "polling too frequently", nil)
		return
	}

	job, err := h.Jobs.Get(jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
		return
	}

	respond.JSON(c, http.StatusOK, jobResponse(job))
}

func jobResponse(job Job) gin.H {
	resp := gin.H{
		"jobId":    job.ID,
		"kind":     job.Kind,
		"status":   job.Status,
		"progress": job.Progress,
	}
	if job.Status == StatusCompleted && job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Status == StatusFailed {
		resp["errorCode"] = job.ErrorCode
		resp["errorMessage"] = job.ErrorMessage
	}
	return resp
}
