package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wyfcoding/marketgateway/pkg/logger"
)

const maxCommandSize = 4 * 1024

// Command 客户端订阅控制命令
type Command struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Session 单个 WebSocket 会话。读写各占一个 goroutine，
// 发送缓冲区满时丢弃消息而不是阻塞广播
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	writeTimeout time.Duration
	pongTimeout  time.Duration

	closeOnce sync.Once
}

// NewSession 创建会话
func NewSession(hub *Hub, conn *websocket.Conn, sendBufferSize int, writeTimeout, pongTimeout time.Duration) *Session {
	if sendBufferSize <= 0 {
		sendBufferSize = 256
	}
	return &Session{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
	}
}

// Deliver 非阻塞投递，缓冲区满时返回 false
func (s *Session) Deliver(message []byte) bool {
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

// Run 启动读写循环，任意一侧退出都会注销并关闭连接
func (s *Session) Run() {
	s.hub.Register(s)
	go s.writePump()
	s.readPump()
}

// readPump 读取并执行客户端的订阅命令
func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxCommandSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug(context.Background(), "WebSocket read failed", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			logger.Debug(context.Background(), "Ignoring malformed WebSocket command", "error", err)
			continue
		}

		switch cmd.Action {
		case "subscribe":
			s.hub.Subscribe(s, cmd.Topics...)
		case "unsubscribe":
			s.hub.Unsubscribe(s, cmd.Topics...)
		default:
			logger.Debug(context.Background(), "Ignoring unknown WebSocket action", "action", cmd.Action)
		}
	}
}

// writePump 将缓冲消息写出并维持 ping
func (s *Session) writePump() {
	ticker := time.NewTicker(s.pongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close 注销会话并关闭底层连接，幂等。
// Unregister 返回后不会再有投递，此时关闭 send 唤醒 writePump 退出
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.hub.Unregister(s)
		close(s.send)
		_ = s.conn.Close()
	})
}
