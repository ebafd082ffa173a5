package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/livepoll/backend/internal/models"
	"github.com/livepoll/backend/pkg/response"
)

// CredentialsRequest is the body for POST /api/signup and POST /api/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Success  bool        `json:"success"`
	Role     models.Role `json:"role"`
	Redirect string      `json:"redirect"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.service.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, response.MessageBody{Message: "user registered successfully"})
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, LoginResponse{Success: true, Role: res.Role, Redirect: res.Redirect})
}

// RegisterRoutes mounts the credential endpoints on an /api group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
}
