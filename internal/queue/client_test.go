package queue

import (
	"testing"

	"github.com/kuajing-shop/internal/config"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("disabled queue should not be enabled")
	}
	if err := client.EnqueueOrderNotify(OrderNotifyPayload{OrderNo: "20260301120000001", Action: "shipped"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should not be enabled")
	}
}

func TestOrderNotifyTaskIDDistinguishesActionAndStatus(t *testing.T) {
	base := OrderNotifyPayload{OrderNo: "20260301120000001", Action: "payment_reminder", Status: "unpaid_alert"}
	shipped := base
	shipped.Action = "shipped"
	shipped.Status = "shipped"
	if orderNotifyTaskID(base) == orderNotifyTaskID(shipped) {
		t.Fatalf("different actions should not share a task id")
	}
	if orderNotifyTaskID(base) != orderNotifyTaskID(base) {
		t.Fatalf("task id should be stable")
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected default addr %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected default server config %+v", cfg)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, Concurrency: 4, Queues: map[string]int{"notify": 2}})
	if opt.Addr != "redis:6380" || cfg.Concurrency != 4 || cfg.Queues["notify"] != 2 {
		t.Fatalf("config not applied: %s %+v", opt.Addr, cfg)
	}
}
