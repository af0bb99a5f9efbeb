package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/metrics"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/queue"
)

// OrderNotifier 订单通知发送端口
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, action string, order *models.Order)
}

// NotificationService 订单通知：优先入队由 worker 投递，队列不可用时异步直接投递
// 投递失败只记录日志，不重试也不影响调用方
type NotificationService struct {
	queueClient *queue.Client
	webhookURL  string
	httpClient  *http.Client
	metrics     *metrics.OrderMetrics
}

// NewNotificationService 创建通知服务
func NewNotificationService(queueClient *queue.Client, webhookURL string, timeout time.Duration, orderMetrics *metrics.OrderMetrics) *NotificationService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificationService{
		queueClient: queueClient,
		webhookURL:  strings.TrimSpace(webhookURL),
		httpClient:  &http.Client{Timeout: timeout},
		metrics:     orderMetrics,
	}
}

// NotifyOrder 发送订单通知
func (s *NotificationService) NotifyOrder(ctx context.Context, action string, order *models.Order) {
	if s == nil || order == nil {
		return
	}
	if s.webhookURL == "" {
		logger.Debugw("order_notify_skipped", "reason", "webhook_not_configured", "order_no", order.OrderNo, "action", action)
		s.metrics.IncNotification(action, "skipped")
		return
	}
	payload := BuildOrderNotifyPayload(action, order)
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueOrderNotify(payload)
		if err == nil {
			s.metrics.IncNotification(action, "enqueued")
			return
		}
		logger.Warnw("order_notify_enqueue_failed", "order_no", order.OrderNo, "action", action, "error", err)
	}
	go func() {
		deliverCtx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout)
		defer cancel()
		if err := s.Deliver(deliverCtx, payload); err != nil {
			logger.Warnw("order_notify_deliver_failed", "order_no", payload.OrderNo, "action", payload.Action, "error", err)
		}
	}()
}

// Deliver 向 Webhook 投递通知
func (s *NotificationService) Deliver(ctx context.Context, payload queue.OrderNotifyPayload) error {
	if s.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.IncNotification(payload.Action, "failed")
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.metrics.IncNotification(payload.Action, "failed")
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	s.metrics.IncNotification(payload.Action, "delivered")
	logger.Infow("order_notify_delivered", "order_no", payload.OrderNo, "action", payload.Action)
	return nil
}

// BuildOrderNotifyPayload 组装通知载荷
func BuildOrderNotifyPayload(action string, order *models.Order) queue.OrderNotifyPayload {
	return queue.OrderNotifyPayload{
		Action:         action,
		OrderNo:        order.OrderNo,
		Status:         order.Status,
		RecipientName:  order.RecipientName,
		RecipientEmail: order.RecipientEmail,
		FinalTotal:     order.FinalTotal.String(),
		TrackingCode:   order.TrackingCode,
		ShippingMethod: order.ShippingMethod,
	}
}
