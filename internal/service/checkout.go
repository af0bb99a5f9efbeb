package service

import (
	"context"
	"strings"

	"github.com/kuajing-shop/internal/cart"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/pricing"
	"github.com/kuajing-shop/internal/repository"

	"github.com/shopspring/decimal"
)

// LogisticsOptions 本次结账可用的付款与配送方式
type LogisticsOptions struct {
	Payment  []string `json:"payment_methods"`
	Shipping []string `json:"shipping_methods"`
}

// AllowsPayment 判断付款方式是否可用
func (o LogisticsOptions) AllowsPayment(method string) bool {
	return containsString(o.Payment, method)
}

// AllowsShipping 判断配送方式是否可用
func (o LogisticsOptions) AllowsShipping(method string) bool {
	return containsString(o.Shipping, method)
}

// AllowedLogistics 以店铺启用的方式为起点，逐个商品取交集
// 商品允许清单为空表示不限制；任一结果为空时返回 ErrNoCommonLogistics
func AllowedLogistics(lines []cart.Line, products map[uint]*models.Product, settings StoreSettings) (LogisticsOptions, error) {
	options := LogisticsOptions{Payment: []string{}, Shipping: []string{}}
	if len(lines) == 0 {
		return options, ErrEmptySelection
	}
	payment := settings.EnabledPaymentMethods()
	shipping := settings.EnabledShippingMethods()
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || product == nil {
			return options, ErrProductNotFound
		}
		if len(product.AllowedPaymentMethods) > 0 {
			payment = intersectMethods(payment, product.AllowedPaymentMethods)
		}
		if len(product.AllowedShippingMethods) > 0 {
			shipping = intersectMethods(shipping, product.AllowedShippingMethods)
		}
	}
	options.Payment = payment
	options.Shipping = shipping
	if len(payment) == 0 || len(shipping) == 0 {
		return options, ErrNoCommonLogistics
	}
	return options, nil
}

func intersectMethods(current []string, allowed models.StringArray) []string {
	result := make([]string, 0, len(current))
	for _, method := range current {
		if allowed.Contains(method) {
			result = append(result, method)
		}
	}
	return result
}

// IsCounterDropoff 是否为超商店到店配送
func IsCounterDropoff(method string) bool {
	return method == constants.ShippingMethodMyship || method == constants.ShippingMethodFamily
}

// CheckoutQuote 结账金额明细
type CheckoutQuote struct {
	Subtotal     models.Money `json:"subtotal"`
	BulkDiscount models.Money `json:"bulk_discount"`
	Rebate       models.Money `json:"rebate"`
	Discount     models.Money `json:"discount"` // 组合优惠 + 店到店折抵
	ShippingFee  models.Money `json:"shipping_fee"`
	UsedCredits  models.Money `json:"used_credits"`
	FinalTotal   models.Money `json:"final_total"`
}

// QuoteInput 计算结账金额的输入
type QuoteInput struct {
	Lines            []pricing.Line
	Rules            map[uint]pricing.BulkRule
	ShippingMethod   string
	Settings         StoreSettings
	RequestedCredits decimal.Decimal
	AvailableCredits decimal.Decimal
}

// ComputeQuote 计算小计、组合优惠、店到店折抵、运费、购物金与应付金额
// 免运门槛比较的是组合优惠后的金额；折抵不受免运影响
func ComputeQuote(input QuoteInput) CheckoutQuote {
	quote := pricing.QuoteLines(input.Lines, input.Rules)

	rebate := decimal.Zero
	if IsCounterDropoff(input.ShippingMethod) {
		rebate = decimal.NewFromInt(constants.CounterDropoffRebate)
	}
	fee, _ := input.Settings.ShippingFee(input.ShippingMethod)
	threshold := input.Settings.FreeShippingThreshold.Decimal
	if threshold.GreaterThan(decimal.Zero) && quote.Net().GreaterThanOrEqual(threshold) {
		fee = decimal.Zero
	}

	result := settleTotals(quote.Subtotal, quote.BulkDiscount.Add(rebate), fee, input.RequestedCredits, input.AvailableCredits)
	result.BulkDiscount = models.NewMoneyFromDecimal(quote.BulkDiscount)
	result.Rebate = models.NewMoneyFromDecimal(rebate)
	return result
}

// settleTotals 夹取购物金并计算应付金额
// used = min(requested, available, max(0, subtotal+fee-discount))；final = max(0, subtotal+fee-discount-used)
func settleTotals(subtotal, discount, fee, requested, available decimal.Decimal) CheckoutQuote {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	payable := decimal.Max(decimal.Zero, subtotal.Add(fee).Sub(discount))
	used := decimal.Max(decimal.Zero, requested)
	used = decimal.Min(used, decimal.Max(decimal.Zero, available), payable).Round(2)
	final := decimal.Max(decimal.Zero, subtotal.Add(fee).Sub(discount).Sub(used))
	return CheckoutQuote{
		Subtotal:     models.NewMoneyFromDecimal(subtotal),
		BulkDiscount: models.NewMoneyFromDecimal(decimal.Zero),
		Rebate:       models.NewMoneyFromDecimal(decimal.Zero),
		Discount:     models.NewMoneyFromDecimal(discount),
		ShippingFee:  models.NewMoneyFromDecimal(fee),
		UsedCredits:  models.NewMoneyFromDecimal(used),
		FinalTotal:   models.NewMoneyFromDecimal(final),
	}
}

// CheckoutRequest 结账预览请求
type CheckoutRequest struct {
	LineIndexes    []int
	ShippingMethod string
	Credits        decimal.Decimal
}

// CheckoutService 结账预览服务（供前端展示可选方式与金额）
type CheckoutService struct {
	cartService    *CartService
	productRepo    repository.ProductRepository
	userRepo       repository.UserRepository
	settingService *SettingService
	trustClient    bool
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(cartService *CartService, productRepo repository.ProductRepository, userRepo repository.UserRepository, settingService *SettingService, trustClient bool) *CheckoutService {
	return &CheckoutService{
		cartService:    cartService,
		productRepo:    productRepo,
		userRepo:       userRepo,
		settingService: settingService,
		trustClient:    trustClient,
	}
}

// Options 计算所选购物车行可用的付款与配送方式
func (s *CheckoutService) Options(ctx context.Context, userID uint, indexes []int) (LogisticsOptions, error) {
	lines, err := s.cartService.Select(ctx, userID, indexes)
	if err != nil {
		return LogisticsOptions{Payment: []string{}, Shipping: []string{}}, err
	}
	products, err := loadLineProducts(s.productRepo, lines)
	if err != nil {
		return LogisticsOptions{Payment: []string{}, Shipping: []string{}}, err
	}
	settings, err := s.settingService.GetStoreSettings(ctx)
	if err != nil {
		return LogisticsOptions{Payment: []string{}, Shipping: []string{}}, err
	}
	return AllowedLogistics(lines, products, settings)
}

// Quote 计算所选购物车行的结账金额
func (s *CheckoutService) Quote(ctx context.Context, userID uint, req CheckoutRequest) (*CheckoutQuote, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	lines, err := s.cartService.Select(ctx, userID, req.LineIndexes)
	if err != nil {
		return nil, err
	}
	products, err := loadLineProducts(s.productRepo, lines)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingService.GetStoreSettings(ctx)
	if err != nil {
		return nil, err
	}
	options, err := AllowedLogistics(lines, products, settings)
	if err != nil {
		return nil, err
	}
	method := strings.TrimSpace(req.ShippingMethod)
	if method != "" && !options.AllowsShipping(method) {
		return nil, ErrShippingMethodNotAllowed
	}
	priced, err := priceLines(lines, products, user.Tier, s.trustClient)
	if err != nil {
		return nil, err
	}
	quote := ComputeQuote(QuoteInput{
		Lines:            priced,
		Rules:            bulkRules(products),
		ShippingMethod:   method,
		Settings:         settings,
		RequestedCredits: req.Credits,
		AvailableCredits: user.Credits.Decimal,
	})
	return &quote, nil
}

// loadLineProducts 加载结账行涉及的商品，缺失任一商品即失败
func loadLineProducts(repo repository.ProductRepository, lines []cart.Line) (map[uint]*models.Product, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	list, err := repo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uint]*models.Product, len(list))
	for i := range list {
		products[list[i].ID] = &list[i]
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, ErrProductNotFound
		}
	}
	return products, nil
}

// priceLines 生成计价行
// trustClient=false 时以商品当前等级价替换购物车快照价
func priceLines(lines []cart.Line, products map[uint]*models.Product, tier string, trustClient bool) ([]pricing.Line, error) {
	result := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		product, ok := products[line.ProductID]
		if !ok || product == nil {
			return nil, ErrProductNotFound
		}
		if !product.IsListed {
			return nil, ErrProductUnavailable
		}
		if !product.HasOption(line.Option) {
			return nil, ErrInvalidOption
		}
		unit := line.UnitPrice.Decimal
		if !trustClient {
			unit = pricing.UnitPrice(product, tier)
		}
		result = append(result, pricing.Line{
			ProductID: line.ProductID,
			Option:    line.Option,
			UnitPrice: unit,
			Quantity:  line.Quantity,
		})
	}
	return result, nil
}

func bulkRules(products map[uint]*models.Product) map[uint]pricing.BulkRule {
	rules := make(map[uint]pricing.BulkRule, len(products))
	for id, product := range products {
		rules[id] = pricing.RuleOf(product)
	}
	return rules
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
