package broadcast

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wyfcoding/marketgateway/pkg/config"
	"github.com/wyfcoding/marketgateway/pkg/logger"
)

// Handler WebSocket 接入处理器
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader

	sendBufferSize int
	writeTimeout   time.Duration
	pongTimeout    time.Duration
}

// NewHandler 创建处理器
func NewHandler(hub *Hub, cfg config.WebSocketConfig) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBufferSize: cfg.SendBufferSize,
		writeTimeout:   time.Duration(cfg.WriteTimeout) * time.Second,
		pongTimeout:    time.Duration(cfg.PongTimeout) * time.Second,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", h.Serve)
}

// Serve 将 HTTP 连接升级为 WebSocket 会话
// GET /ws
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "WebSocket upgrade failed", "error", err)
		return
	}

	session := NewSession(h.hub, conn, h.sendBufferSize, h.writeTimeout, h.pongTimeout)
	go session.Run()
}
