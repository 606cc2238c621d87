// Package ingest 实现内部服务的数据上报接口。
// 这些路由由准入过滤器以共享密钥保护，不出现在公开 API 文档里
package ingest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	alertapp "github.com/wyfcoding/marketgateway/internal/alert/application"
	alertdomain "github.com/wyfcoding/marketgateway/internal/alert/domain"
	"github.com/wyfcoding/marketgateway/internal/marketdata/application"
	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
	"github.com/wyfcoding/marketgateway/pkg/logger"
	"github.com/wyfcoding/marketgateway/pkg/response"
)

// HeaderInternalCaller 上报方标识请求头，仅用于审计日志
const HeaderInternalCaller = "X-Internal-Caller"

// AnalysisResultRequest 分析服务上报的指标载荷。
// 时间戳以字符串接收，兼容不带时区的上游格式
type AnalysisResultRequest struct {
	SymbolCode   string          `json:"symbolCode" binding:"required,max=16"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	SMA          decimal.Decimal `json:"sma"`
	EMA          decimal.Decimal `json:"ema"`
	Volume       int64           `json:"volume"`
	Timestamp    string          `json:"timestamp"`
	WindowSize   int             `json:"windowSize"`
}

// Handler 内部上报 HTTP 处理器
type Handler struct {
	marketData  *application.MarketDataService
	alerts      *alertapp.AlertService
	serviceName string
}

// NewHandler 创建处理器
func NewHandler(marketData *application.MarketDataService, alerts *alertapp.AlertService, serviceName string) *Handler {
	return &Handler{
		marketData:  marketData,
		alerts:      alerts,
		serviceName: serviceName,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	internal := r.Group("/internal")
	{
		internal.POST("/analysis-results", h.ReceiveAnalysisResult)
		internal.POST("/alerts", h.ReceiveAlert)
		internal.GET("/health", h.Health)
	}
}

// ReceiveAnalysisResult 接收分析服务上报的移动平均等指标
// POST /internal/analysis-results
func (h *Handler) ReceiveAnalysisResult(c *gin.Context) {
	ctx := c.Request.Context()

	var req AnalysisResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := toSnapshot(req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info(ctx, "Received analysis result",
		"caller", c.GetHeader(HeaderInternalCaller),
		"symbol", snapshot.SymbolCode,
		"window", snapshot.WindowSize,
	)

	if err := h.marketData.SaveAnalysis(ctx, snapshot); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to store analysis result")
		return
	}

	response.Success(c, gin.H{
		"status":    "received",
		"symbol":    snapshot.SymbolCode,
		"timestamp": snapshot.Timestamp.Format(time.RFC3339),
	})
}

// ReceiveAlert 接收分析服务检测到的告警，持久化后实时广播
// POST /internal/alerts
func (h *Handler) ReceiveAlert(c *gin.Context) {
	ctx := c.Request.Context()

	var cmd alertapp.CreateAlertCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info(ctx, "Received alert",
		"caller", c.GetHeader(HeaderInternalCaller),
		"symbol", cmd.SymbolCode,
		"type", cmd.AlertType,
	)

	alert, err := h.alerts.Create(ctx, cmd)
	if err != nil {
		logger.Error(ctx, "Failed to create alert from internal service", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, alertdomain.ErrUnknownSymbol) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "created",
		"alertId": alert.ID,
		"symbol":  alert.SymbolCode,
	})
}

// Health 供内部服务探测网关存活
// GET /internal/health
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": h.serviceName,
	})
}

func toSnapshot(req AnalysisResultRequest) (*domain.AnalysisSnapshot, error) {
	snapshot := &domain.AnalysisSnapshot{
		SymbolCode:   req.SymbolCode,
		CurrentPrice: req.CurrentPrice,
		SMA:          req.SMA,
		EMA:          req.EMA,
		Volume:       req.Volume,
		WindowSize:   req.WindowSize,
	}

	if req.Timestamp != "" {
		ts, err := parseTimestamp(req.Timestamp)
		if err != nil {
			return nil, err
		}
		snapshot.Timestamp = ts
	}
	return snapshot, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02T15:04:05", raw)
}
