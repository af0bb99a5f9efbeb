package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kuajing-shop/internal/config"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	cartPurgeInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if ttl := s.cartSnapshotTTL(); ttl > 0 {
		go s.runCartPurgeLoop(ctx, ttl)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// cartSnapshotTTL 落库购物车的保留时长，0 表示不清理
func (s *Service) cartSnapshotTTL() time.Duration {
	if s == nil || s.consumer == nil || s.consumer.Container == nil {
		return 0
	}
	c := s.consumer.Container
	if c.Config == nil || c.CartSnapshotRepo == nil || c.Config.Cart.TTLSeconds <= 0 {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(c.Config.Cart.Storage), "redis") {
		return 0
	}
	return time.Duration(c.Config.Cart.TTLSeconds) * time.Second
}

func (s *Service) runCartPurgeLoop(ctx context.Context, ttl time.Duration) {
	repo := s.consumer.CartSnapshotRepo
	runOnce := func() {
		purged, err := repo.DeleteBefore(ctx, time.Now().Add(-ttl))
		if err != nil {
			logger.Warnw("worker_cart_snapshot_purge_failed", "error", err)
			return
		}
		if purged > 0 {
			logger.Infow("worker_cart_snapshot_purged", "count", purged)
		}
	}
	runOnce()

	ticker := time.NewTicker(cartPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
