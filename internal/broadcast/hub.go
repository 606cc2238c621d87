// Package broadcast 实现主题订阅与广播分发
package broadcast

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/wyfcoding/marketgateway/pkg/logger"
	"github.com/wyfcoding/marketgateway/pkg/metrics"
)

// Subscriber 广播订阅者。Deliver 不得阻塞，缓冲区满时返回 false
type Subscriber interface {
	Deliver(message []byte) bool
}

// Envelope 广播消息信封
type Envelope struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// Hub 主题广播中心。订阅关系全部在锁内变更，
// 投递是非阻塞的，慢订阅者丢消息而不拖慢其他订阅者
type Hub struct {
	mu sync.RWMutex
	// topic -> 订阅者集合
	topics map[string]map[Subscriber]struct{}
	// 订阅者 -> 已订阅主题集合，用于断开时整体清理
	sessions map[Subscriber]map[string]struct{}
	metrics  *metrics.Metrics
}

// NewHub 创建广播中心
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		topics:   make(map[string]map[Subscriber]struct{}),
		sessions: make(map[Subscriber]map[string]struct{}),
		metrics:  m,
	}
}

// Register 注册订阅者会话
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sub]; !ok {
		h.sessions[sub] = make(map[string]struct{})
		if h.metrics != nil {
			h.metrics.WSSessionsActive.Inc()
		}
	}
}

// Subscribe 订阅主题，重复订阅是幂等的
func (h *Hub) Subscribe(sub Subscriber, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owned, ok := h.sessions[sub]
	if !ok {
		owned = make(map[string]struct{})
		h.sessions[sub] = owned
		if h.metrics != nil {
			h.metrics.WSSessionsActive.Inc()
		}
	}

	for _, raw := range topics {
		topic := NormalizeTopic(raw)
		if topic == "" {
			continue
		}
		if _, ok := owned[topic]; ok {
			continue
		}

		set, ok := h.topics[topic]
		if !ok {
			set = make(map[Subscriber]struct{})
			h.topics[topic] = set
		}
		set[sub] = struct{}{}
		owned[topic] = struct{}{}
		if h.metrics != nil {
			h.metrics.WSSubscriptionsActive.Inc()
		}
	}
}

// Unsubscribe 取消订阅主题
func (h *Hub) Unsubscribe(sub Subscriber, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owned, ok := h.sessions[sub]
	if !ok {
		return
	}

	for _, raw := range topics {
		topic := NormalizeTopic(raw)
		if _, ok := owned[topic]; !ok {
			continue
		}
		h.removeSubscription(sub, topic)
		delete(owned, topic)
	}
}

// Unregister 移除订阅者的所有订阅。断开后的会话不再收到任何消息
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owned, ok := h.sessions[sub]
	if !ok {
		return
	}

	for topic := range owned {
		h.removeSubscription(sub, topic)
	}
	delete(h.sessions, sub)
	if h.metrics != nil {
		h.metrics.WSSessionsActive.Dec()
	}
}

// Publish 向多个主题发布同一事件，每个主题独立封包。
// 同时订阅了全局与标的主题的会话会各收到一条消息
func (h *Hub) Publish(topics []string, event interface{}) {
	for _, topic := range topics {
		payload, err := json.Marshal(Envelope{Topic: topic, Data: event})
		if err != nil {
			logger.Error(context.Background(), "Failed to marshal broadcast envelope", "topic", topic, "error", err)
			continue
		}

		h.mu.RLock()
		for sub := range h.topics[topic] {
			if !sub.Deliver(payload) && h.metrics != nil {
				h.metrics.DeliveriesDropped.Inc()
			}
		}
		h.mu.RUnlock()

		if h.metrics != nil {
			h.metrics.BroadcastsTotal.Inc()
		}
	}
}

// SubscriberCount 主题的当前订阅者数
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[NormalizeTopic(topic)])
}

// removeSubscription 调用方必须持有写锁
func (h *Hub) removeSubscription(sub Subscriber, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
	if h.metrics != nil {
		h.metrics.WSSubscriptionsActive.Dec()
	}
}

// NormalizeTopic 规范化主题名：根主题小写，标的后缀大写。
// "Prices/aapl" 与 "prices/AAPL" 是同一主题
func NormalizeTopic(raw string) string {
	topic := strings.TrimSpace(raw)
	if topic == "" {
		return ""
	}

	if idx := strings.Index(topic, "/"); idx >= 0 {
		return strings.ToLower(topic[:idx]) + "/" + strings.ToUpper(topic[idx+1:])
	}
	return strings.ToLower(topic)
}
