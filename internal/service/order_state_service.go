package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/events"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/metrics"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor 操作者
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// CancelTicket 取消确认凭证
type CancelTicket struct {
	OrderNo   string    `json:"order_no"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OrderStateService 订单状态服务：加载、校验、CAS 写入、发布事件与通知
type OrderStateService struct {
	orderRepo  repository.OrderRepository
	userRepo   repository.UserRepository
	notifier   OrderNotifier
	publisher  EventPublisher
	metrics    *metrics.OrderMetrics
	confirmTTL time.Duration
	now        func() time.Time

	mu           sync.Mutex
	localTickets map[string]CancelTicket
}

// NewOrderStateService 创建订单状态服务
func NewOrderStateService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, notifier OrderNotifier, publisher EventPublisher, orderMetrics *metrics.OrderMetrics, confirmTTL time.Duration) *OrderStateService {
	if confirmTTL <= 0 {
		confirmTTL = 2 * time.Minute
	}
	return &OrderStateService{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		publisher:    publisher,
		metrics:      orderMetrics,
		confirmTTL:   confirmTTL,
		now:          time.Now,
		localTickets: make(map[string]CancelTicket),
	}
}

// Apply 执行状态流转
// 顾客只能对自己的订单回报付款；取消必须走两步确认
func (s *OrderStateService) Apply(ctx context.Context, actor Actor, orderNo string, input TransitionInput) (*models.Order, error) {
	if actor.UserID == 0 {
		return nil, ErrNotAuthenticated
	}
	if !IsKnownAction(input.Action) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, input.Action)
	}
	if !actor.IsAdmin && input.Action != ActionReportPayment {
		return nil, ErrForbiddenAction
	}
	if input.Action == ActionCancel {
		return nil, ErrCancelNotConfirmed
	}
	order, err := s.loadOrder(actor, orderNo)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, order, input)
}

// ReportPayment 顾客回报付款
func (s *OrderStateService) ReportPayment(ctx context.Context, userID uint, orderNo string, report PaymentReport) (*models.Order, error) {
	return s.Apply(ctx, Actor{UserID: userID}, orderNo, TransitionInput{
		Action:        ActionReportPayment,
		PaymentReport: report,
	})
}

// RequestCancel 取消第一步：校验可取消并签发确认凭证
func (s *OrderStateService) RequestCancel(ctx context.Context, orderNo string) (*CancelTicket, error) {
	order, err := s.loadOrder(Actor{IsAdmin: true}, orderNo)
	if err != nil {
		return nil, err
	}
	if _, err := Transition(order, TransitionInput{Action: ActionCancel}, s.now()); err != nil {
		s.metrics.IncTransition(ActionCancel, "rejected")
		return nil, err
	}
	ticket := CancelTicket{
		OrderNo:   order.OrderNo,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.confirmTTL),
	}
	if err := s.storeTicket(ctx, ticket); err != nil {
		return nil, err
	}
	logger.Infow("order_cancel_requested", "order_no", order.OrderNo, "expires_at", ticket.ExpiresAt)
	return &ticket, nil
}

// ConfirmCancel 取消第二步：凭证一次性使用
func (s *OrderStateService) ConfirmCancel(ctx context.Context, orderNo, token string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	ok, err := s.consumeTicket(ctx, orderNo, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.IncTransition(ActionCancel, "unconfirmed")
		return nil, ErrCancelNotConfirmed
	}
	order, err := s.loadOrder(Actor{IsAdmin: true}, orderNo)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, order, TransitionInput{Action: ActionCancel})
}

// Delete 删除订单：同一事务内删除订单并回滚用户消费与购物金；订单已被删除时返回 ErrOrderNotFound，不重复补偿；库存不回补
func (s *OrderStateService) Delete(ctx context.Context, orderNo string) error {
	order, err := s.loadOrder(Actor{IsAdmin: true}, orderNo)
	if err != nil {
		return err
	}
	// 先删订单行再回滚消费：并发删除时只有删到行的一方做补偿
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).Delete(order.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderNotFound
		}
		_, err = s.userRepo.WithTx(tx).ReverseOrderCharge(order.UserID, order.Subtotal.Decimal, order.UsedCredits.Decimal)
		return err
	})
	if err != nil {
		s.metrics.IncTransition("delete", "error")
		return err
	}
	s.metrics.IncTransition("delete", "ok")
	logger.Infow("order_deleted",
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"reversed_spend", order.Subtotal.String(),
		"refunded_credits", order.UsedCredits.String(),
	)
	s.publish(ctx, events.OrderEvent{
		Type:       events.TypeOrderDeleted,
		OrderNo:    order.OrderNo,
		UserID:     order.UserID,
		PrevStatus: order.Status,
		Action:     "delete",
	})
	return nil
}

func (s *OrderStateService) commit(ctx context.Context, order *models.Order, input TransitionInput) (*models.Order, error) {
	result, err := Transition(order, input, s.now())
	if err != nil {
		s.metrics.IncTransition(input.Action, "rejected")
		return nil, err
	}
	affected, err := s.orderRepo.UpdateStatusFrom(order.ID, result.From, result.To, result.Updates)
	if err != nil {
		s.metrics.IncTransition(input.Action, "error")
		return nil, err
	}
	if affected == 0 {
		s.metrics.IncTransition(input.Action, "conflict")
		return nil, ErrTransitionConflict
	}
	s.metrics.IncTransition(input.Action, "ok")
	logger.Infow("order_status_changed",
		"order_no", order.OrderNo,
		"action", input.Action,
		"from", result.From,
		"to", result.To,
	)
	s.publish(ctx, events.OrderEvent{
		Type:       events.TypeOrderUpdated,
		OrderNo:    order.OrderNo,
		UserID:     order.UserID,
		Status:     result.To,
		PrevStatus: result.From,
		Action:     input.Action,
	})
	if result.Notify != "" && s.notifier != nil {
		s.notifier.NotifyOrder(ctx, result.Notify, result.Order)
	}
	return result.Order, nil
}

func (s *OrderStateService) loadOrder(actor Actor, orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	var (
		order *models.Order
		err   error
	)
	if actor.IsAdmin {
		order, err = s.orderRepo.GetByOrderNo(orderNo)
	} else {
		order, err = s.orderRepo.GetByOrderNoAndUser(orderNo, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderStateService) publish(ctx context.Context, event events.OrderEvent) {
	if s.publisher == nil {
		return
	}
	event.At = s.now()
	s.publisher.Publish(ctx, event)
}

func cancelTicketKey(orderNo string) string {
	return "order_cancel:" + orderNo
}

// storeTicket Redis 可用时写入 Redis，否则写入进程内
func (s *OrderStateService) storeTicket(ctx context.Context, ticket CancelTicket) error {
	if cache.Enabled() {
		return cache.SetBytes(ctx, cancelTicketKey(ticket.OrderNo), []byte(ticket.Token), s.confirmTTL)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, item := range s.localTickets {
		if now.After(item.ExpiresAt) {
			delete(s.localTickets, key)
		}
	}
	s.localTickets[ticket.OrderNo] = ticket
	return nil
}

func (s *OrderStateService) consumeTicket(ctx context.Context, orderNo, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if cache.Enabled() {
		stored, found, err := cache.GetDel(ctx, cancelTicketKey(orderNo))
		if err != nil {
			return false, err
		}
		return found && stored == token, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, found := s.localTickets[orderNo]
	if !found {
		return false, nil
	}
	delete(s.localTickets, orderNo)
	if s.now().After(ticket.ExpiresAt) {
		return false, nil
	}
	return ticket.Token == token, nil
}
