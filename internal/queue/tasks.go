package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotify 订单通知 Webhook 投递任务
	TaskOrderNotify = "order:notify"
)

// OrderNotifyPayload 订单通知载荷，同时作为 Webhook 请求体
type OrderNotifyPayload struct {
	Action         string `json:"action"`
	OrderNo        string `json:"order_no"`
	Status         string `json:"status"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	FinalTotal     string `json:"final_total"`
	TrackingCode   string `json:"tracking_code,omitempty"`
	ShippingMethod string `json:"shipping_method"`
}

// NewOrderNotifyTask 创建订单通知任务
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, body), nil
}

// ParseOrderNotifyPayload 解析订单通知载荷
func ParseOrderNotifyPayload(task *asynq.Task) (OrderNotifyPayload, error) {
	var payload OrderNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OrderNotifyPayload{}, err
	}
	return payload, nil
}
