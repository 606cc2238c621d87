// Package http 实现参考数据上下文的 HTTP 接口
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/marketgateway/internal/refdata/application"
	"github.com/wyfcoding/marketgateway/internal/refdata/domain"
	"github.com/wyfcoding/marketgateway/pkg/response"
)

// LatestPriceProvider 提供标的最新价格视图，无数据返回 nil
type LatestPriceProvider interface {
	LatestPrice(ctx context.Context, symbolCode string) (interface{}, error)
}

// Handler 参考数据 HTTP 处理器
type Handler struct {
	service *application.SymbolService
	prices  LatestPriceProvider
}

// NewHandler 创建处理器
func NewHandler(service *application.SymbolService, prices LatestPriceProvider) *Handler {
	return &Handler{service: service, prices: prices}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	symbols := r.Group("/api/symbols")
	{
		symbols.GET("", h.List)
		symbols.POST("", h.Create)
		symbols.GET("/code/:code", h.GetByCode)
		symbols.GET("/current-price/:symbol", h.CurrentPrice)
		symbols.GET("/:id", h.Get)
		symbols.PUT("/:id", h.Update)
		symbols.DELETE("/:id", h.Delete)
	}
}

// List 查询所有标的
// GET /api/symbols
func (h *Handler) List(c *gin.Context) {
	symbols, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list symbols")
		return
	}
	response.Success(c, symbols)
}

// Create 创建标的
// POST /api/symbols
func (h *Handler) Create(c *gin.Context) {
	var cmd application.CreateSymbolCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	symbol, err := h.service.Create(c.Request.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrSymbolExists) {
			response.Error(c, http.StatusConflict, "Symbol code already exists")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to create symbol")
		return
	}
	response.Created(c, symbol)
}

// Get 根据 ID 查询标的
// GET /api/symbols/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid symbol ID")
		return
	}

	symbol, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			response.Error(c, http.StatusNotFound, "Symbol not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get symbol")
		return
	}
	response.Success(c, symbol)
}

// GetByCode 根据代码查询标的
// GET /api/symbols/code/:code
func (h *Handler) GetByCode(c *gin.Context) {
	symbol, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			response.Error(c, http.StatusNotFound, "Symbol not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get symbol")
		return
	}
	response.Success(c, symbol)
}

// CurrentPrice 查询标的最新价格
// GET /api/symbols/current-price/:symbol
func (h *Handler) CurrentPrice(c *gin.Context) {
	code := c.Param("symbol")

	if _, err := h.service.GetByCode(c.Request.Context(), code); err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			response.Error(c, http.StatusNotFound, "Symbol not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get symbol")
		return
	}

	price, err := h.prices.LatestPrice(c.Request.Context(), code)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get latest price")
		return
	}
	if price == nil {
		response.Error(c, http.StatusNotFound, "No price data for symbol")
		return
	}
	response.Success(c, price)
}

// Update 更新标的
// PUT /api/symbols/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid symbol ID")
		return
	}

	var cmd application.UpdateSymbolCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	symbol, err := h.service.Update(c.Request.Context(), id, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			response.Error(c, http.StatusNotFound, "Symbol not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to update symbol")
		return
	}
	response.Success(c, symbol)
}

// Delete 删除标的
// DELETE /api/symbols/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid symbol ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			response.Error(c, http.StatusNotFound, "Symbol not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to delete symbol")
		return
	}
	response.NoContent(c)
}
