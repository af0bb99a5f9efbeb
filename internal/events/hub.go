// Package events 订单变更通知：进程内订阅 + Redis 发布订阅跨实例转发
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/logger"

	"github.com/google/uuid"
)

// 事件类型
const (
	TypeOrderCreated = "order_created"
	TypeOrderUpdated = "order_updated"
	TypeOrderDeleted = "order_deleted"
)

const relayChannel = "events:orders"

// OrderEvent 订单变更事件
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderNo    string    `json:"order_no"`
	UserID     uint      `json:"user_id"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"prev_status,omitempty"`
	Action     string    `json:"action,omitempty"`
	At         time.Time `json:"at"`
	Origin     string    `json:"origin,omitempty"`
}

// Hub 订单事件中心
// 订阅者通道满时丢弃事件，发布方永不阻塞
type Hub struct {
	mu       sync.RWMutex
	subs     map[int]chan OrderEvent
	nextID   int
	instance string
}

// NewHub 创建事件中心
func NewHub() *Hub {
	return &Hub{
		subs:     make(map[int]chan OrderEvent),
		instance: uuid.NewString(),
	}
}

// Subscribe 订阅事件，返回只读通道与取消函数
func (h *Hub) Subscribe(buffer int) (<-chan OrderEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan OrderEvent, buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish 发布事件：本地分发并在 Redis 可用时转发给其他实例
func (h *Hub) Publish(ctx context.Context, event OrderEvent) {
	if h == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	event.Origin = h.instance
	h.dispatch(event)

	client := cache.Client()
	if client == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Warnw("order_event_encode_failed", "order_no", event.OrderNo, "error", err)
		return
	}
	if err := client.Publish(ctx, cache.Key(relayChannel), body).Err(); err != nil {
		logger.Warnw("order_event_relay_publish_failed", "order_no", event.OrderNo, "error", err)
	}
}

func (h *Hub) dispatch(event OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			logger.Debugw("order_event_subscriber_slow_drop", "subscriber", id, "order_no", event.OrderNo)
		}
	}
}

// receive 处理来自其他实例的事件，忽略自身发布的回环消息
func (h *Hub) receive(payload []byte) {
	var event OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warnw("order_event_relay_decode_failed", "error", err)
		return
	}
	if event.Origin == h.instance {
		return
	}
	h.dispatch(event)
}
