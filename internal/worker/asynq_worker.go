package worker

import (
	"context"
	"fmt"

	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/provider"
	"github.com/kuajing-shop/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotify, c.handleOrderNotify)
}

// handleOrderNotify 投递订单通知，失败不重试
func (c *Consumer) handleOrderNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderNotifyPayload(task)
	if err != nil {
		logger.Warnw("worker_order_notify_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.OrderNo == "" || payload.Action == "" {
		logger.Debugw("worker_order_notify_skip_invalid_payload", "order_no", payload.OrderNo, "action", payload.Action)
		return nil
	}
	if c.Container == nil || c.NotificationService == nil {
		logger.Warnw("worker_order_notify_skip_service_nil", "order_no", payload.OrderNo)
		return nil
	}
	if err := c.NotificationService.Deliver(ctx, payload); err != nil {
		logger.Warnw("worker_order_notify_deliver_failed",
			"order_no", payload.OrderNo,
			"action", payload.Action,
			"error", err,
		)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return nil
}
