package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/events"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"

	"github.com/shopspring/decimal"
)

func createTestOrder(t *testing.T, env *orderTestEnv, credits int64, usedCredits int64) (*models.User, *models.Order) {
	t.Helper()
	user := seedUser(t, env.db, constants.TierGeneral, credits)
	product := seedProduct(t, env.db, models.Product{PriceGeneral: models.NewMoneyFromInt(300), Stock: 10})
	input := myshipInput(user.ID, cartLine(product, "", 300, 1))
	input.UsedCredits = decimal.NewFromInt(usedCredits)
	order, err := env.orders.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return user, order
}

func TestApplyAdminFlowThroughShipping(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	ctx := context.Background()
	_, order := createTestOrder(t, env, 0, 0)
	admin := Actor{UserID: 999, IsAdmin: true}

	if _, err := env.states.Apply(ctx, admin, order.OrderNo, TransitionInput{Action: ActionShip, TrackingCode: "X1"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ship from pending should be rejected, got %v", err)
	}
	if _, err := env.states.Apply(ctx, admin, order.OrderNo, TransitionInput{Action: ActionConfirmPayment}); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	shipped, err := env.states.Apply(ctx, admin, order.OrderNo, TransitionInput{Action: ActionShip, TrackingCode: "X1"})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.Status != constants.OrderStatusShipped || shipped.TrackingCode != "X1" {
		t.Fatalf("unexpected shipped order: %s/%s", shipped.Status, shipped.TrackingCode)
	}

	stored, err := env.orderRepo.GetByOrderNo(order.OrderNo)
	if err != nil || stored == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusShipped || stored.PaidAt == nil || stored.ShippedAt == nil {
		t.Fatalf("persisted order mismatch: status=%s paid=%v shipped=%v", stored.Status, stored.PaidAt, stored.ShippedAt)
	}

	actions := env.notifier.Actions()
	if actions[len(actions)-1] != constants.NotifyActionShipped {
		t.Fatalf("expected shipped notification, got %v", actions)
	}
	types := env.publisher.Types()
	if types[len(types)-1] != events.TypeOrderUpdated {
		t.Fatalf("expected update event, got %v", types)
	}
}

func TestApplyCustomerRestrictions(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	ctx := context.Background()
	owner, order := createTestOrder(t, env, 0, 0)

	if _, err := env.states.Apply(ctx, Actor{UserID: owner.ID}, order.OrderNo, TransitionInput{Action: ActionConfirmPayment}); !errors.Is(err, ErrForbiddenAction) {
		t.Fatalf("customer confirm should be forbidden, got %v", err)
	}
	if _, err := env.states.ReportPayment(ctx, owner.ID+100, order.OrderNo, PaymentReport{PayerName: "x", Last5: "12345"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("stranger report should not find order, got %v", err)
	}
	reported, err := env.states.ReportPayment(ctx, owner.ID, order.OrderNo, PaymentReport{PayerName: "王小明", PaymentTime: "12:00", Last5: "67890"})
	if err != nil {
		t.Fatalf("report payment failed: %v", err)
	}
	if reported.Status != constants.OrderStatusPaidVerifying || reported.PaymentLast5 != "67890" {
		t.Fatalf("unexpected reported order: %s/%s", reported.Status, reported.PaymentLast5)
	}
}

func TestApplyDetectsConcurrentTransition(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	_, order := createTestOrder(t, env, 0, 0)

	// 另一管理员已抢先确认收款
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", constants.OrderStatusPaymentConfirmed).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	_, err := env.states.commit(context.Background(), order, TransitionInput{Action: ActionConfirmPayment})
	if !errors.Is(err, ErrTransitionConflict) {
		t.Fatalf("expected ErrTransitionConflict, got %v", err)
	}
}

func TestCancelRequiresConfirmation(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	ctx := context.Background()
	_, order := createTestOrder(t, env, 0, 0)
	admin := Actor{UserID: 1, IsAdmin: true}

	if _, err := env.states.Apply(ctx, admin, order.OrderNo, TransitionInput{Action: ActionCancel}); !errors.Is(err, ErrCancelNotConfirmed) {
		t.Fatalf("direct cancel should require confirmation, got %v", err)
	}

	ticket, err := env.states.RequestCancel(ctx, order.OrderNo)
	if err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	if _, err := env.states.ConfirmCancel(ctx, order.OrderNo, "wrong-token"); !errors.Is(err, ErrCancelNotConfirmed) {
		t.Fatalf("wrong token should be rejected, got %v", err)
	}
	// 凭证一次性使用，错误尝试后需重新申请
	if _, err := env.states.ConfirmCancel(ctx, order.OrderNo, ticket.Token); !errors.Is(err, ErrCancelNotConfirmed) {
		t.Fatalf("consumed ticket should be rejected, got %v", err)
	}

	ticket, err = env.states.RequestCancel(ctx, order.OrderNo)
	if err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	cancelled, err := env.states.ConfirmCancel(ctx, order.OrderNo, ticket.Token)
	if err != nil {
		t.Fatalf("confirm cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled order: %s", cancelled.Status)
	}
	if _, err := env.states.RequestCancel(ctx, order.OrderNo); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled order cannot be cancelled again, got %v", err)
	}
}

func TestCancelTicketExpires(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	ctx := context.Background()
	_, order := createTestOrder(t, env, 0, 0)

	base := time.Now()
	env.states.now = func() time.Time { return base }
	ticket, err := env.states.RequestCancel(ctx, order.OrderNo)
	if err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	env.states.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := env.states.ConfirmCancel(ctx, order.OrderNo, ticket.Token); !errors.Is(err, ErrCancelNotConfirmed) {
		t.Fatalf("expired ticket should be rejected, got %v", err)
	}
}

func TestDeleteOrderCompensatesUser(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	ctx := context.Background()
	user, order := createTestOrder(t, env, 100, 40)

	before := reloadUser(t, env.db, user.ID)
	if !before.TotalSpend.Equal(decimal.NewFromInt(300)) || !before.Credits.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected charge: spend=%s credits=%s", before.TotalSpend.String(), before.Credits.String())
	}

	if err := env.states.Delete(ctx, order.OrderNo); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	after := reloadUser(t, env.db, user.ID)
	if !after.TotalSpend.IsZero() || !after.Credits.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected compensation: spend=%s credits=%s", after.TotalSpend.String(), after.Credits.String())
	}

	var orders, items int64
	env.db.Model(&models.Order{}).Count(&orders)
	env.db.Model(&models.OrderItem{}).Count(&items)
	if orders != 0 || items != 0 {
		t.Fatalf("order rows should be gone, got orders=%d items=%d", orders, items)
	}
	if product := reloadProduct(t, env.db, order.Items[0].ProductID); product.Stock != 9 {
		t.Fatalf("stock should not be restored, got %d", product.Stock)
	}
	types := env.publisher.Types()
	if types[len(types)-1] != events.TypeOrderDeleted {
		t.Fatalf("expected delete event, got %v", types)
	}
}

// snapshotOrderRepository 按订单号返回首次读取时的快照，模拟两名管理员都在删除提交前加载了订单
type snapshotOrderRepository struct {
	repository.OrderRepository
	snapshots map[string]*models.Order
}

func (r *snapshotOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	if order, ok := r.snapshots[orderNo]; ok {
		copied := *order
		return &copied, nil
	}
	order, err := r.OrderRepository.GetByOrderNo(orderNo)
	if err != nil || order == nil {
		return order, err
	}
	r.snapshots[orderNo] = order
	copied := *order
	return &copied, nil
}

func TestDeleteOrderTwiceCompensatesOnce(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	ctx := context.Background()
	user, order := createTestOrder(t, env, 100, 40)

	staleRepo := &snapshotOrderRepository{OrderRepository: env.orderRepo, snapshots: map[string]*models.Order{}}
	states := NewOrderStateService(staleRepo, env.userRepo, env.notifier, env.publisher, nil, time.Minute)
	if _, err := staleRepo.GetByOrderNo(order.OrderNo); err != nil {
		t.Fatalf("load order failed: %v", err)
	}

	if err := states.Delete(ctx, order.OrderNo); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := states.Delete(ctx, order.OrderNo); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}

	after := reloadUser(t, env.db, user.ID)
	if !after.Credits.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("credits refunded more than once: got %s want 100", after.Credits.String())
	}
	if !after.TotalSpend.IsZero() {
		t.Fatalf("spend should be reversed once, got %s", after.TotalSpend.String())
	}
}

func TestDeleteOrderSpendFloorsAtZero(t *testing.T) {
	env := setupOrderServiceTest(t, OrderOptions{})
	user, order := createTestOrder(t, env, 0, 0)

	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("total_spend", 100).Error; err != nil {
		t.Fatalf("adjust spend failed: %v", err)
	}
	if err := env.states.Delete(context.Background(), order.OrderNo); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	if got := reloadUser(t, env.db, user.ID); got.TotalSpend.IsNegative() || !got.TotalSpend.IsZero() {
		t.Fatalf("spend should floor at zero, got %s", got.TotalSpend.String())
	}
}
