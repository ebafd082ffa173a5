package polls

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/livepoll/backend/pkg/apperror"
	"github.com/livepoll/backend/pkg/response"
)

// CreateRequest is the body for POST /api/polls.
type CreateRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// VoteRequest is the body for POST /api/polls/:id/vote.
type VoteRequest struct {
	OptionIndex *int `json:"optionIndex" binding:"required"`
}

// ExportQueue enqueues a results export job. *queue.Queue implements it.
type ExportQueue interface {
	EnqueuePollExport(ctx context.Context, pollID uuid.UUID) (jobID string, err error)
}

// ExportStorage resolves a download link for a poll's export. *storage.S3 implements it.
type ExportStorage interface {
	ExportURL(ctx context.Context, pollID uuid.UUID) (url, key string, err error)
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
	exports ExportQueue
	storage ExportStorage
}

// NewHandler creates a polls handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// SetExportQueue enables POST /api/polls/:id/export.
func (h *Handler) SetExportQueue(q ExportQueue) { h.exports = q }

// SetExportStorage enables GET /api/polls/:id/export.
func (h *Handler) SetExportStorage(s ExportStorage) { h.storage = s }

// List handles GET /api/polls.
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.ListPolls(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/polls/:id.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.service.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// Create handles POST /api/polls.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	p, err := h.service.CreatePoll(c.Request.Context(), req.Question, req.Options)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, p)
}

// Vote handles POST /api/polls/:id/vote.
func (h *Handler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.BadRequest(c, "optionIndex is required")
			return
		}
		response.BadRequest(c, "invalid request body")
		return
	}
	p, err := h.service.CastVote(c.Request.Context(), c.Param("id"), *req.OptionIndex)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// RequestExport handles POST /api/polls/:id/export.
func (h *Handler) RequestExport(c *gin.Context) {
	if h.exports == nil {
		response.ServiceUnavailable(c, "exports are not configured")
		return
	}
	p, err := h.service.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	jobID, err := h.exports.EnqueuePollExport(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, h.logger, apperror.Internal("enqueue export", err))
		return
	}
	response.Accepted(c, gin.H{"message": "export queued", "jobId": jobID})
}

// ExportURL handles GET /api/polls/:id/export.
func (h *Handler) ExportURL(c *gin.Context) {
	if h.storage == nil {
		response.ServiceUnavailable(c, "exports are not configured")
		return
	}
	p, err := h.service.GetPoll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	url, key, err := h.storage.ExportURL(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, h.logger, apperror.Internal("presign export", err))
		return
	}
	response.OK(c, gin.H{"url": url, "key": key})
}

// RegisterRoutes mounts the poll endpoints on an /api group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/polls", h.List)
	api.POST("/polls", h.Create)
	api.GET("/polls/:id", h.Get)
	api.POST("/polls/:id/vote", h.Vote)
	api.POST("/polls/:id/export", h.RequestExport)
	api.GET("/polls/:id/export", h.ExportURL)
}
