package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"
)

// 订单动作
const (
	ActionReportPayment      = "report_payment"
	ActionConfirmPayment     = "confirm_payment"
	ActionPaymentReminder    = "payment_reminder"
	ActionShip               = "ship"
	ActionNotifyArrival      = "notify_arrival"
	ActionConfirmPickup      = "confirm_pickup"
	ActionConfirmCODReceived = "confirm_cod_received"
	ActionComplete           = "complete"
	ActionMarkRefundNeeded   = "mark_refund_needed"
	ActionMarkRefunded       = "mark_refunded"
	ActionCancel             = "cancel"
)

// PaymentReport 顾客付款回报
type PaymentReport struct {
	PayerName   string `json:"payer_name"`
	PaymentTime string `json:"payment_time"`
	Last5       string `json:"last5"`
}

// IsEmpty 是否未填写
func (r PaymentReport) IsEmpty() bool {
	return strings.TrimSpace(r.PayerName) == "" &&
		strings.TrimSpace(r.PaymentTime) == "" &&
		strings.TrimSpace(r.Last5) == ""
}

var last5Pattern = regexp.MustCompile(`^[0-9]{5}$`)

// Validate 付款回报需填写汇款人与帐号后五码
func (r PaymentReport) Validate() error {
	if strings.TrimSpace(r.PayerName) == "" {
		return fmt.Errorf("%w: payer name required", ErrPaymentReportInvalid)
	}
	if !last5Pattern.MatchString(strings.TrimSpace(r.Last5)) {
		return fmt.Errorf("%w: last5 must be 5 digits", ErrPaymentReportInvalid)
	}
	return nil
}

// TransitionInput 状态流转参数
type TransitionInput struct {
	Action        string
	PaymentReport PaymentReport
	TrackingCode  string
}

// TransitionResult 状态流转结果
type TransitionResult struct {
	Action  string
	From    string
	To      string
	Updates map[string]interface{}
	Notify  string        // 需要发送的通知动作，空表示不通知
	Order   *models.Order // 应用变更后的订单副本
}

type transitionRule struct {
	to      string
	from    []string // 非空时：只允许从这些状态流转
	notFrom []string // 非空时：禁止从这些状态流转
	notify  string
	check   func(order *models.Order, input TransitionInput) error
	apply   func(order *models.Order, input TransitionInput, now time.Time, updates map[string]interface{})
}

var transitionRules = map[string]transitionRule{
	ActionReportPayment: {
		to:   constants.OrderStatusPaidVerifying,
		from: []string{constants.OrderStatusPendingPayment, constants.OrderStatusUnpaidAlert},
		check: func(_ *models.Order, input TransitionInput) error {
			return input.PaymentReport.Validate()
		},
		apply: func(order *models.Order, input TransitionInput, _ time.Time, updates map[string]interface{}) {
			order.PayerName = strings.TrimSpace(input.PaymentReport.PayerName)
			order.PaymentTime = strings.TrimSpace(input.PaymentReport.PaymentTime)
			order.PaymentLast5 = strings.TrimSpace(input.PaymentReport.Last5)
			updates["payer_name"] = order.PayerName
			updates["payment_time"] = order.PaymentTime
			updates["payment_last5"] = order.PaymentLast5
		},
	},
	ActionConfirmPayment: {
		to: constants.OrderStatusPaymentConfirmed,
		from: []string{
			constants.OrderStatusPaidVerifying,
			constants.OrderStatusPendingPayment,
			constants.OrderStatusUnpaidAlert,
		},
		apply: markPaid,
	},
	ActionPaymentReminder: {
		to: constants.OrderStatusUnpaidAlert,
		from: []string{
			constants.OrderStatusPendingPayment,
			constants.OrderStatusUnpaidAlert,
			constants.OrderStatusPaidVerifying,
		},
		notify: constants.NotifyActionPaymentReminder,
	},
	ActionShip: {
		to: constants.OrderStatusShipped,
		notFrom: []string{
			constants.OrderStatusShipped,
			constants.OrderStatusPickedUp,
			constants.OrderStatusPendingPayment,
			constants.OrderStatusUnpaidAlert,
			constants.OrderStatusRefundNeeded,
		},
		notify: constants.NotifyActionShipped,
		check: func(order *models.Order, input TransitionInput) error {
			// 面交不需要物流单号
			if order.ShippingMethod != constants.ShippingMethodMeetup && strings.TrimSpace(input.TrackingCode) == "" {
				return ErrTrackingCodeRequired
			}
			return nil
		},
		apply: func(order *models.Order, input TransitionInput, now time.Time, updates map[string]interface{}) {
			shippedAt := now
			order.ShippedAt = &shippedAt
			updates["shipped_at"] = shippedAt
			if code := strings.TrimSpace(input.TrackingCode); code != "" {
				order.TrackingCode = code
				updates["tracking_code"] = code
			}
		},
	},
	ActionNotifyArrival: {
		to:     constants.OrderStatusArrivedNotified,
		from:   []string{constants.OrderStatusPaymentConfirmed, constants.OrderStatusShipped},
		notify: constants.NotifyActionArrived,
	},
	ActionConfirmPickup: {
		to:      constants.OrderStatusPickedUp,
		notFrom: []string{constants.OrderStatusPickedUp},
	},
	ActionConfirmCODReceived: {
		to:   constants.OrderStatusCompleted,
		from: []string{constants.OrderStatusShipped, constants.OrderStatusPickedUp},
		check: func(order *models.Order, _ TransitionInput) error {
			if order.PaymentMethod != constants.PaymentMethodCash {
				return fmt.Errorf("%w: order is not cash on delivery", ErrInvalidTransition)
			}
			return nil
		},
		apply: markPaid,
	},
	ActionComplete: {
		to: constants.OrderStatusCompleted,
		from: []string{
			constants.OrderStatusShipped,
			constants.OrderStatusArrivedNotified,
			constants.OrderStatusPickedUp,
		},
		check: func(order *models.Order, _ TransitionInput) error {
			if order.PaymentMethod == constants.PaymentMethodCash {
				return fmt.Errorf("%w: cash on delivery orders complete on cash receipt", ErrInvalidTransition)
			}
			return nil
		},
	},
	ActionMarkRefundNeeded: {
		to: constants.OrderStatusRefundNeeded,
		notFrom: []string{
			constants.OrderStatusRefundNeeded,
			constants.OrderStatusShipped,
			constants.OrderStatusPickedUp,
		},
	},
	// 终态之外任意状态均可标记退款完成，已完成订单不再退款
	ActionMarkRefunded: {
		to: constants.OrderStatusRefunded,
	},
	ActionCancel: {
		to:      constants.OrderStatusCancelled,
		notFrom: []string{constants.OrderStatusShipped, constants.OrderStatusPickedUp},
		apply: func(order *models.Order, _ TransitionInput, now time.Time, updates map[string]interface{}) {
			cancelledAt := now
			order.CancelledAt = &cancelledAt
			updates["cancelled_at"] = cancelledAt
		},
	},
}

func markPaid(order *models.Order, _ TransitionInput, now time.Time, updates map[string]interface{}) {
	if order.PaidAt != nil {
		return
	}
	paidAt := now
	order.PaidAt = &paidAt
	updates["paid_at"] = paidAt
}

// IsTerminalStatus 终态：已完成、已取消、已退款，只允许删除
func IsTerminalStatus(status string) bool {
	switch status {
	case constants.OrderStatusCompleted, constants.OrderStatusCancelled, constants.OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// IsKnownAction 判断动作是否存在
func IsKnownAction(action string) bool {
	_, ok := transitionRules[action]
	return ok
}

// Transition 按守卫表计算状态流转，不修改入参订单也不写库
func Transition(order *models.Order, input TransitionInput, now time.Time) (*TransitionResult, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	rule, ok := transitionRules[input.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, input.Action)
	}
	from := order.Status
	if IsTerminalStatus(from) {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if len(rule.from) > 0 && !containsString(rule.from, from) {
		return nil, fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, input.Action, from)
	}
	if containsString(rule.notFrom, from) {
		return nil, fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, input.Action, from)
	}
	if rule.check != nil {
		if err := rule.check(order, input); err != nil {
			return nil, err
		}
	}

	next := *order
	next.Items = append([]models.OrderItem(nil), order.Items...)
	next.Status = rule.to
	next.UpdatedAt = now
	updates := map[string]interface{}{"updated_at": now}
	if rule.apply != nil {
		rule.apply(&next, input, now, updates)
	}
	return &TransitionResult{
		Action:  input.Action,
		From:    from,
		To:      rule.to,
		Updates: updates,
		Notify:  rule.notify,
		Order:   &next,
	}, nil
}
