// Package http 实现行情数据上下文的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/marketgateway/internal/marketdata/application"
	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
	"github.com/wyfcoding/marketgateway/pkg/response"
)

// Handler 行情数据 HTTP 处理器
type Handler struct {
	service *application.MarketDataService
}

// NewHandler 创建处理器
func NewHandler(service *application.MarketDataService) *Handler {
	return &Handler{service: service}
}

// createPriceRequest 价格摄入载荷，标的代码来自路径
type createPriceRequest struct {
	Price     decimal.Decimal `json:"price" binding:"required"`
	Volume    int64           `json:"volume" binding:"min=0"`
	Timestamp time.Time       `json:"timestamp"`
}

// RegisterRoutes 注册路由，固定路径必须先于通配路径注册
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	prices := r.Group("/api/prices")
	{
		prices.GET("/recent", h.Recent)
		prices.GET("/:symbol", h.History)
		prices.GET("/:symbol/latest", h.Latest)
		prices.POST("/:symbol", h.Create)
	}

	r.GET("/api/analysis/:symbol", h.Analysis)
}

// Create 摄入价格事件
// POST /api/prices/:symbol
func (h *Handler) Create(c *gin.Context) {
	var req createPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Price.IsNegative() {
		response.Error(c, http.StatusBadRequest, "Price must not be negative")
		return
	}

	price, err := h.service.CreatePrice(c.Request.Context(), application.CreatePriceCommand{
		SymbolCode: c.Param("symbol"),
		Price:      req.Price,
		Volume:     req.Volume,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) {
			response.Error(c, http.StatusBadRequest, "Unknown symbol code")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to save price")
		return
	}
	response.Created(c, price)
}

// History 查询价格历史与统计
// GET /api/prices/:symbol?startDate=...&endDate=...&limit=...
func (h *Handler) History(c *gin.Context) {
	query := application.HistoryQuery{SymbolCode: c.Param("symbol")}

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

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.Error(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		query.Limit = limit
	}

	history, err := h.service.GetHistory(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) || errors.Is(err, domain.ErrNoPriceData) {
			response.Error(c, http.StatusNotFound, "No price data for symbol")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get price history")
		return
	}
	response.Success(c, history)
}

// Latest 查询标的最新价格
// GET /api/prices/:symbol/latest
func (h *Handler) Latest(c *gin.Context) {
	price, err := h.service.GetLatest(c.Request.Context(), c.Param("symbol"))
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

// Recent 查询最近一小时的价格
// GET /api/prices/recent
func (h *Handler) Recent(c *gin.Context) {
	prices, err := h.service.GetRecent(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get recent prices")
		return
	}
	response.Success(c, prices)
}

// Analysis 查询标的最新分析快照
// GET /api/analysis/:symbol
func (h *Handler) Analysis(c *gin.Context) {
	snapshot, err := h.service.GetAnalysis(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get analysis snapshot")
		return
	}
	if snapshot == nil {
		response.Error(c, http.StatusNotFound, "No analysis data for symbol")
		return
	}
	response.Success(c, snapshot)
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
