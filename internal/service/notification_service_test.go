package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/queue"
)

func TestNotificationServiceDeliverPostsPayload(t *testing.T) {
	received := make(chan queue.OrderNotifyPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload queue.OrderNotifyPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload failed: %v", err)
		}
		received <- payload
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	svc := NewNotificationService(nil, server.URL, time.Second, nil)
	order := &models.Order{
		OrderNo:        "20260101120000001",
		Status:         constants.OrderStatusShipped,
		RecipientName:  "王小明",
		TrackingCode:   "F123",
		ShippingMethod: constants.ShippingMethodFamily,
		FinalTotal:     models.NewMoneyFromInt(230),
	}
	if err := svc.Deliver(context.Background(), BuildOrderNotifyPayload(constants.NotifyActionShipped, order)); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	payload := <-received
	if payload.Action != constants.NotifyActionShipped || payload.TrackingCode != "F123" || payload.FinalTotal != "230.00" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestNotificationServiceDeliverReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewNotificationService(nil, server.URL, time.Second, nil)
	if err := svc.Deliver(context.Background(), queue.OrderNotifyPayload{Action: constants.NotifyActionNewOrder}); err == nil {
		t.Fatalf("non-2xx response should be an error")
	}
}

func TestNotificationServiceFallsBackWithoutQueue(t *testing.T) {
	received := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload queue.OrderNotifyPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		received <- payload.OrderNo
	}))
	defer server.Close()

	svc := NewNotificationService(nil, server.URL, time.Second, nil)
	svc.NotifyOrder(context.Background(), constants.NotifyActionNewOrder, &models.Order{OrderNo: "20260101120000002"})
	select {
	case orderNo := <-received:
		if orderNo != "20260101120000002" {
			t.Fatalf("unexpected order no: %s", orderNo)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification was not delivered")
	}
}
