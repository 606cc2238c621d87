// Package http 实现告警上下文的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/marketgateway/internal/alert/application"
	"github.com/wyfcoding/marketgateway/internal/alert/domain"
	"github.com/wyfcoding/marketgateway/pkg/response"
)

// Handler 告警 HTTP 处理器
type Handler struct {
	service *application.AlertService
}

// NewHandler 创建处理器
func NewHandler(service *application.AlertService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	alerts := r.Group("/api/alerts")
	{
		alerts.GET("", h.List)
		alerts.POST("", h.Create)
		alerts.GET("/active", h.ListActive)
		alerts.POST("/acknowledge/:id", h.Acknowledge)
		alerts.GET("/:id", h.Get)
		alerts.PUT("/:id", h.Update)
		alerts.DELETE("/:id", h.Delete)
	}
}

// List 按条件查询告警
// GET /api/alerts?symbolCode=...&alertType=...&startDate=...&endDate=...
func (h *Handler) List(c *gin.Context) {
	query := domain.AlertQuery{
		SymbolCode: c.Query("symbolCode"),
		AlertType:  c.Query("alertType"),
	}

	start, ok := parseTimeParam(c, "startDate")
	if !ok {
		return
	}
	end, ok := parseTimeParam(c, "endDate")
	if !ok {
		return
	}
	query.Start = start
	query.End = end

	alerts, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list alerts")
		return
	}
	response.Success(c, alerts)
}

// ListActive 查询所有未确认告警
// GET /api/alerts/active
func (h *Handler) ListActive(c *gin.Context) {
	alerts, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list active alerts")
		return
	}
	response.Success(c, alerts)
}

// Create 创建告警
// POST /api/alerts
func (h *Handler) Create(c *gin.Context) {
	var cmd application.CreateAlertCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	alert, err := h.service.Create(c.Request.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) {
			response.Error(c, http.StatusBadRequest, "Unknown symbol code")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to create alert")
		return
	}
	response.Created(c, alert)
}

// Get 根据 ID 查询告警
// GET /api/alerts/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	alert, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			response.Error(c, http.StatusNotFound, "Alert not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get alert")
		return
	}
	response.Success(c, alert)
}

// Acknowledge 确认告警
// POST /api/alerts/acknowledge/:id
func (h *Handler) Acknowledge(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	alert, err := h.service.Acknowledge(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			response.Error(c, http.StatusNotFound, "Alert not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to acknowledge alert")
		return
	}
	response.Success(c, alert)
}

// Update 更新告警确认状态
// PUT /api/alerts/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	var cmd application.UpdateAlertCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	alert, err := h.service.Update(c.Request.Context(), id, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			response.Error(c, http.StatusNotFound, "Alert not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to update alert")
		return
	}
	response.Success(c, alert)
}

// Delete 删除告警
// DELETE /api/alerts/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			response.Error(c, http.StatusNotFound, "Alert not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to delete alert")
		return
	}
	response.NoContent(c)
}

func alertID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid alert ID")
		return 0, false
	}
	return id, true
}

// parseTimeParam 解析时间查询参数，兼容带与不带时区两种格式
func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", raw)
	}
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid "+name+" timestamp")
		return nil, false
	}
	return &t, true
}
