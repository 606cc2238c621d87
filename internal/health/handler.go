// Package health 实现存活与就绪探测
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/marketgateway/pkg/logger"
)

// Pinger 依赖连通性检查端口
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 健康检查 HTTP 处理器
type Handler struct {
	serviceName string
	version     string
	db          Pinger
	cache       Pinger

	// 分析服务健康检查地址，为空时跳过
	analysisURL string
	client      *http.Client
}

// NewHandler 创建处理器
func NewHandler(serviceName, version string, db, cache Pinger, analysisURL string) *Handler {
	return &Handler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		cache:       cache,
		analysisURL: analysisURL,
		client:      &http.Client{Timeout: 3 * time.Second},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/sys/health", h.Liveness)
	r.GET("/sys/ready", h.Readiness)
}

// Liveness 存活探测，进程在即返回 UP
// GET /sys/health
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Readiness 就绪探测，逐个检查下游依赖
// GET /sys/ready
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	checks["database"] = h.check(ctx, "database", h.db)
	if checks["database"] != "UP" {
		ready = false
	}

	checks["redis"] = h.check(ctx, "redis", h.cache)
	if checks["redis"] != "UP" {
		ready = false
	}

	if h.analysisURL != "" {
		status := "UP"
		if err := h.checkAnalysis(ctx); err != nil {
			logger.Warn(ctx, "Analysis service unreachable", "url", h.analysisURL, "error", err)
			status = "DOWN"
		}
		// 分析服务不可达只降级上报，不影响就绪
		checks["analysis"] = status
	}

	status := http.StatusOK
	overall := "UP"
	if !ready {
		status = http.StatusServiceUnavailable
		overall = "DOWN"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}

func (h *Handler) check(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "SKIPPED"
	}
	if err := p.Ping(ctx); err != nil {
		logger.Warn(ctx, "Dependency check failed", "dependency", name, "error", err)
		return "DOWN"
	}
	return "UP"
}

func (h *Handler) checkAnalysis(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.analysisURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
