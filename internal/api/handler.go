package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/usecase"
)

const serviceName = "content-refresher"

// ArticleRefresher refreshes one article synchronously.
type ArticleRefresher interface {
	RefreshArticle(ctx context.Context, id int64) domain.RefreshResult
}

// BatchRefresher refreshes a list of articles synchronously.
type BatchRefresher interface {
	RefreshMany(ctx context.Context, ids []int64) []domain.RefreshResult
}

// JobQueue accepts background batches and reports on them.
type JobQueue interface {
	SubmitAll(ctx context.Context) (domain.Job, error)
	SubmitByStatus(ctx context.Context, status domain.Status) (domain.Job, error)
	Job(ctx context.Context, id string) (domain.Job, error)
}

// StatusConfig is the redacted configuration shown by GET /status.
type StatusConfig struct {
	StoreDriver      string `json:"store_driver"`
	ArticleAPIURL    string `json:"article_api_url,omitempty"`
	OpenAIModel      string `json:"openai_model"`
	MaxSearchResults int    `json:"max_search_results"`
	RefreshInterval  string `json:"refresh_interval,omitempty"`
	HasGoogleAPIKey  bool   `json:"has_google_api_key"`
	HasOpenAIKey     bool   `json:"has_openai_key"`
	RedisEnabled     bool   `json:"redis_enabled"`
}

// Handler serves the pipeline's HTTP endpoints.
type Handler struct {
	pipeline ArticleRefresher
	batch    BatchRefresher
	jobs     JobQueue
	status   StatusConfig
	version  string
	started  time.Time
}

// NewHandler wires the use cases behind the HTTP endpoints.
func NewHandler(pipeline ArticleRefresher, batch BatchRefresher, jobs JobQueue, status StatusConfig, version string) *Handler {
	return &Handler{
		pipeline: pipeline,
		batch:    batch,
		jobs:     jobs,
		status:   status,
		version:  version,
		started:  time.Now(),
	}
}

// RefreshManyRequest lists the articles to refresh synchronously.
// The camelCase key is accepted for older clients.
type RefreshManyRequest struct {
	ArticleIDs []int64 `json:"article_ids"`
	Legacy     []int64 `json:"articleIds"`
}

// RefreshByStatusRequest names the status whose articles are refreshed.
type RefreshByStatusRequest struct {
	Status domain.Status `json:"status"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Status reports version, redacted configuration and uptime.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":        serviceName,
		"version":        h.version,
		"config":         h.status,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// RefreshArticle refreshes :articleId and answers 200 on success, 500 otherwise.
func (h *Handler) RefreshArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("articleId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "articleId must be a positive integer"})
		return
	}

	result := h.pipeline.RefreshArticle(c.Request.Context(), id)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RefreshMany refreshes the posted ids in order and returns every result.
func (h *Handler) RefreshMany(c *gin.Context) {
	var req RefreshManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "article_ids must be an array"})
		return
	}
	ids := req.ArticleIDs
	if ids == nil {
		ids = req.Legacy
	}
	if ids == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "article_ids must be an array"})
		return
	}

	results := h.batch.RefreshMany(c.Request.Context(), ids)
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// RefreshAll queues a background refresh of every article.
func (h *Handler) RefreshAll(c *gin.Context) {
	job, err := h.jobs.SubmitAll(c.Request.Context())
	if err != nil {
		h.submitFailed(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"job_id":  job.ID,
		"message": "Refresh process started",
	})
}

// RefreshByStatus queues a background refresh of the articles in the posted status.
func (h *Handler) RefreshByStatus(c *gin.Context) {
	var req RefreshByStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "status is required"})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown status " + string(req.Status)})
		return
	}

	job, err := h.jobs.SubmitByStatus(c.Request.Context(), req.Status)
	if err != nil {
		h.submitFailed(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"job_id":  job.ID,
		"message": "Refresh process started for articles with status: " + string(req.Status),
	})
}

// Job returns the record of a background job.
func (h *Handler) Job(c *gin.Context) {
	job, err := h.jobs.Job(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) submitFailed(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, usecase.ErrQueueFull) || errors.Is(err, usecase.ErrRunnerClosed) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
