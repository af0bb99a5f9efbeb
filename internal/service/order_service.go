package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kuajing-shop/internal/cart"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/events"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/metrics"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/pricing"
	"github.com/kuajing-shop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartPruner 下单成功后移除已购买的购物车行
type CartPruner interface {
	RemovePurchased(ctx context.Context, userID uint, keys []cart.LineKey) error
}

// EventPublisher 订单变更事件发布端口
type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent)
}

// OrderOptions 下单策略配置
type OrderOptions struct {
	TrustClientPricing bool
	OrderNoMaxRetries  int
}

// OrderService 订单服务（下单与查询）
type OrderService struct {
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	userRepo       repository.UserRepository
	settingService *SettingService
	allocator      *OrderNoAllocator
	pruner         CartPruner
	notifier       OrderNotifier
	publisher      EventPublisher
	metrics        *metrics.OrderMetrics
	options        OrderOptions
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository, settingService *SettingService, allocator *OrderNoAllocator, pruner CartPruner, notifier OrderNotifier, publisher EventPublisher, orderMetrics *metrics.OrderMetrics, options OrderOptions) *OrderService {
	if options.OrderNoMaxRetries <= 0 {
		options.OrderNoMaxRetries = 5
	}
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		userRepo:       userRepo,
		settingService: settingService,
		allocator:      allocator,
		pruner:         pruner,
		notifier:       notifier,
		publisher:      publisher,
		metrics:        orderMetrics,
		options:        options,
	}
}

// ShippingDetail 收件信息
type ShippingDetail struct {
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	RecipientEmail string `json:"recipient_email"`
	StoreCode      string `json:"store_code"`
	Address        string `json:"address"`
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID         uint
	Lines          []cart.Line
	PaymentMethod  string
	ShippingMethod string
	UsedCredits    decimal.Decimal
	// 仅在信任前端计价时使用
	ClientDiscount    decimal.Decimal
	ClientShippingFee decimal.Decimal
	PaymentReport     PaymentReport
	Shipping          ShippingDetail
	Note              string
}

var errOrderNoTaken = errors.New("order number taken")

// CreateOrder 下单：校验方式、计价、分配订单号，并在同一事务内写订单、扣库存、更新用户消费与购物金
// 事务提交后依次移除购物车已购行、发布事件、发送通知，这些步骤失败只记录日志
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	started := time.Now()
	order, err := s.createOrder(ctx, input)
	if err != nil {
		s.metrics.IncRejected(rejectReason(err))
		return nil, err
	}
	s.metrics.IncCreated(order.PaymentMethod, order.ShippingMethod)
	s.metrics.ObserveCreateSeconds(time.Since(started).Seconds())

	if s.pruner != nil {
		if err := s.pruner.RemovePurchased(ctx, order.UserID, cartLineKeys(input.Lines)); err != nil {
			logger.Warnw("order_cart_prune_failed", "order_no", order.OrderNo, "user_id", order.UserID, "error", err)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.OrderEvent{
			Type:    events.TypeOrderCreated,
			OrderNo: order.OrderNo,
			UserID:  order.UserID,
			Status:  order.Status,
			At:      order.CreatedAt,
		})
	}
	if s.notifier != nil {
		s.notifier.NotifyOrder(ctx, constants.NotifyActionNewOrder, order)
	}
	logger.Infow("order_created",
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"status", order.Status,
		"final_total", order.FinalTotal.String(),
	)
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrNotAuthenticated
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	if len(input.Lines) == 0 {
		return nil, ErrEmptySelection
	}

	products, err := loadLineProducts(s.productRepo, input.Lines)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingService.GetStoreSettings(ctx)
	if err != nil {
		return nil, err
	}
	options, err := AllowedLogistics(input.Lines, products, settings)
	if err != nil {
		return nil, err
	}
	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	shippingMethod := strings.TrimSpace(input.ShippingMethod)
	if !options.AllowsPayment(paymentMethod) {
		return nil, ErrPaymentMethodNotAllowed
	}
	if !options.AllowsShipping(shippingMethod) {
		return nil, ErrShippingMethodNotAllowed
	}
	if err := validateShippingDetail(shippingMethod, input.Shipping); err != nil {
		return nil, err
	}
	if !input.PaymentReport.IsEmpty() {
		if err := input.PaymentReport.Validate(); err != nil {
			return nil, err
		}
	}

	priced, err := priceLines(input.Lines, products, user.Tier, s.options.TrustClientPricing)
	if err != nil {
		return nil, err
	}
	quote := s.quote(priced, products, shippingMethod, settings, input, user)

	items := buildOrderItems(input.Lines, priced, products)
	quantities := make(map[uint]int)
	productOrder := make([]uint, 0, len(priced))
	for _, line := range priced {
		if _, ok := quantities[line.ProductID]; !ok {
			productOrder = append(productOrder, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	for attempt := 1; attempt <= s.options.OrderNoMaxRetries; attempt++ {
		order := &models.Order{
			OrderNo:        s.allocator.Next(ctx),
			UserID:         user.ID,
			Status:         initialOrderStatus(paymentMethod, input.PaymentReport),
			PaymentMethod:  paymentMethod,
			ShippingMethod: shippingMethod,
			Subtotal:       quote.Subtotal,
			Discount:       quote.Discount,
			ShippingFee:    quote.ShippingFee,
			UsedCredits:    quote.UsedCredits,
			FinalTotal:     quote.FinalTotal,
			PayerName:      strings.TrimSpace(input.PaymentReport.PayerName),
			PaymentTime:    strings.TrimSpace(input.PaymentReport.PaymentTime),
			PaymentLast5:   strings.TrimSpace(input.PaymentReport.Last5),
			RecipientName:  strings.TrimSpace(input.Shipping.RecipientName),
			RecipientPhone: strings.TrimSpace(input.Shipping.RecipientPhone),
			RecipientEmail: strings.TrimSpace(input.Shipping.RecipientEmail),
			StoreCode:      strings.TrimSpace(input.Shipping.StoreCode),
			Address:        strings.TrimSpace(input.Shipping.Address),
			Note:           strings.TrimSpace(input.Note),
		}
		orderItems := append([]models.OrderItem(nil), items...)

		err := models.DB.Transaction(func(tx *gorm.DB) error {
			if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
				if repository.IsDuplicateKey(err) {
					return errOrderNoTaken
				}
				return err
			}
			productRepo := s.productRepo.WithTx(tx)
			for _, productID := range productOrder {
				affected, err := productRepo.DecrementStock(productID, quantities[productID])
				if err != nil {
					return err
				}
				if affected == 0 {
					return fmt.Errorf("%w: product %d", ErrStockInsufficient, productID)
				}
			}
			affected, err := s.userRepo.WithTx(tx).ApplyOrderCharge(user.ID, quote.Subtotal.Decimal, quote.UsedCredits.Decimal)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrCreditsInsufficient
			}
			return nil
		})
		if err == nil {
			return order, nil
		}
		if errors.Is(err, errOrderNoTaken) {
			logger.Warnw("order_no_conflict_retry", "order_no", order.OrderNo, "attempt", attempt)
			continue
		}
		if errors.Is(err, ErrStockInsufficient) || errors.Is(err, ErrCreditsInsufficient) {
			return nil, err
		}
		logger.Errorw("order_create_failed", "user_id", user.ID, "order_no", order.OrderNo, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
	}
	return nil, ErrOrderNoConflict
}

// quote 计算订单金额：默认服务端重算，信任前端时直接采用前端的折扣与运费
func (s *OrderService) quote(priced []pricing.Line, products map[uint]*models.Product, shippingMethod string, settings StoreSettings, input CreateOrderInput, user *models.User) CheckoutQuote {
	if s.options.TrustClientPricing {
		subtotal := pricing.QuoteLines(priced, nil).Subtotal
		return settleTotals(subtotal, input.ClientDiscount, input.ClientShippingFee, input.UsedCredits, user.Credits.Decimal)
	}
	return ComputeQuote(QuoteInput{
		Lines:            priced,
		Rules:            bulkRules(products),
		ShippingMethod:   shippingMethod,
		Settings:         settings,
		RequestedCredits: input.UsedCredits,
		AvailableCredits: user.Credits.Decimal,
	})
}

// initialOrderStatus 初始状态：货到付款直接确认；转帐已回报则待核对，否则待付款
func initialOrderStatus(paymentMethod string, report PaymentReport) string {
	if paymentMethod == constants.PaymentMethodCash {
		return constants.OrderStatusPaymentConfirmed
	}
	if !report.IsEmpty() {
		return constants.OrderStatusPaidVerifying
	}
	return constants.OrderStatusPendingPayment
}

func validateShippingDetail(method string, detail ShippingDetail) error {
	if strings.TrimSpace(detail.RecipientName) == "" {
		return fmt.Errorf("%w: recipient name required", ErrShippingInfoInvalid)
	}
	switch method {
	case constants.ShippingMethodMyship, constants.ShippingMethodFamily:
		if strings.TrimSpace(detail.StoreCode) == "" {
			return fmt.Errorf("%w: store code required", ErrShippingInfoInvalid)
		}
	case constants.ShippingMethodDelivery:
		if strings.TrimSpace(detail.Address) == "" {
			return fmt.Errorf("%w: address required", ErrShippingInfoInvalid)
		}
	}
	return nil
}

func buildOrderItems(lines []cart.Line, priced []pricing.Line, products map[uint]*models.Product) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(priced))
	for i, line := range priced {
		product := products[line.ProductID]
		name := lines[i].Name
		sku := lines[i].SKU
		if product != nil {
			name = product.Name
			sku = product.SKU
		}
		unit := models.NewMoneyFromDecimal(line.UnitPrice)
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			SKU:         sku,
			ProductName: name,
			Option:      line.Option,
			UnitPrice:   unit,
			Quantity:    line.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(line.Amount()),
		})
	}
	return items
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, ErrNoCommonLogistics):
		return "no_common_logistics"
	case errors.Is(err, ErrPaymentMethodNotAllowed), errors.Is(err, ErrShippingMethodNotAllowed):
		return "method_not_allowed"
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrProductUnavailable), errors.Is(err, ErrInvalidOption):
		return "product_invalid"
	case errors.Is(err, ErrStockInsufficient):
		return "stock_insufficient"
	case errors.Is(err, ErrCreditsInsufficient):
		return "credits_insufficient"
	case errors.Is(err, ErrShippingInfoInvalid), errors.Is(err, ErrPaymentReportInvalid):
		return "detail_invalid"
	case errors.Is(err, ErrOrderNoConflict):
		return "order_no_conflict"
	default:
		return "error"
	}
}

// GetUserOrder 获取用户自己的订单
func (s *OrderService) GetUserOrder(userID uint, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(strings.TrimSpace(orderNo), userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders 用户订单列表
func (s *OrderService) ListUserOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrNotAuthenticated
	}
	return s.orderRepo.ListByUser(filter)
}

// GetAdminOrder 管理端获取订单
func (s *OrderService) GetAdminOrder(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}
