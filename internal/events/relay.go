package events

import (
	"context"
	"errors"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/logger"
)

// RelayService 订阅 Redis 频道并把其他实例的事件转发到本地 Hub
type RelayService struct {
	hub    *Hub
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRelayService 创建转发服务
func NewRelayService(hub *Hub) *RelayService {
	return &RelayService{hub: hub}
}

// Name 服务名称
func (s *RelayService) Name() string {
	return "event-relay"
}

// Start 阻塞运行直到 ctx 结束或 Stop 被调用；Redis 未启用时直接等待退出
func (s *RelayService) Start(ctx context.Context) error {
	if s == nil || s.hub == nil {
		return errors.New("event relay not initialized")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	defer close(s.done)

	client := cache.Client()
	if client == nil {
		logger.Infow("order_event_relay_disabled", "reason", "redis_disabled")
		<-runCtx.Done()
		return nil
	}
	pubsub := client.Subscribe(runCtx, cache.Key(relayChannel))
	defer pubsub.Close()
	logger.Infow("order_event_relay_started", "channel", cache.Key(relayChannel))

	messages := pubsub.Channel()
	for {
		select {
		case <-runCtx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.hub.receive([]byte(msg.Payload))
		}
	}
}

// Stop 停止服务
func (s *RelayService) Stop(ctx context.Context) error {
	if s == nil || s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
