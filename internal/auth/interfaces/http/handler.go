// Package http 实现认证上下文的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/marketgateway/internal/auth/application"
	"github.com/wyfcoding/marketgateway/internal/auth/domain"
	"github.com/wyfcoding/marketgateway/pkg/response"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	service *application.AuthService
}

// NewHandler 创建处理器
func NewHandler(service *application.AuthService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/validate", h.Validate)
	}

	users := r.Group("/api/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/username/:username", h.GetUserByUsername)
		users.GET("/:id", h.GetUser)
	}
}

// Register 注册用户
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var cmd application.RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			response.Error(c, http.StatusConflict, "Username already taken")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	response.Created(c, user)
}

// Login 登录
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var cmd application.LoginCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to login")
		return
	}

	response.Success(c, result)
}

// Validate 校验令牌。请求头缺失或格式错误返回 400，签名或过期问题返回 401
// POST /api/auth/validate
func (h *Handler) Validate(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Authorization header is not valid",
		})
		return
	}

	subject, ok := h.service.Validate(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Token is not valid",
		})
		return
	}

	response.Success(c, gin.H{
		"success":  true,
		"message":  "Token is valid",
		"username": subject,
	})
}

// ListUsers 查询所有用户
// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	response.Success(c, users)
}

// GetUser 根据 ID 查询用户
// GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get user")
		return
	}
	response.Success(c, user)
}

// GetUserByUsername 根据用户名查询用户
// GET /api/users/username/:username
func (h *Handler) GetUserByUsername(c *gin.Context) {
	user, err := h.service.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get user")
		return
	}
	response.Success(c, user)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
