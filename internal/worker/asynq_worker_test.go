package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kuajing-shop/internal/provider"
	"github.com/kuajing-shop/internal/queue"
	"github.com/kuajing-shop/internal/service"

	"github.com/hibiken/asynq"
)

func newNotifyTask(t *testing.T, payload queue.OrderNotifyPayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewOrderNotifyTask(payload)
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func TestHandleOrderNotifyDelivers(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	consumer := NewConsumer(&provider.Container{
		NotificationService: service.NewNotificationService(nil, server.URL, time.Second, nil),
	})
	task := newNotifyTask(t, queue.OrderNotifyPayload{Action: "shipped", OrderNo: "20260101120000001"})
	if err := consumer.handleOrderNotify(context.Background(), task); err != nil {
		t.Fatalf("handle notify failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected webhook hit once, got %d", hits)
	}
}

func TestHandleOrderNotifyFailureSkipsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	consumer := NewConsumer(&provider.Container{
		NotificationService: service.NewNotificationService(nil, server.URL, time.Second, nil),
	})
	err := consumer.handleOrderNotify(context.Background(), newNotifyTask(t, queue.OrderNotifyPayload{Action: "new_order", OrderNo: "20260101120000002"}))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleOrderNotifyIgnoresInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	if err := consumer.handleOrderNotify(context.Background(), newNotifyTask(t, queue.OrderNotifyPayload{})); err != nil {
		t.Fatalf("empty payload should be skipped, got %v", err)
	}
	bad := asynq.NewTask(queue.TaskOrderNotify, []byte("{broken"))
	if err := consumer.handleOrderNotify(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}
