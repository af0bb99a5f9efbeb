package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"

	"github.com/shopspring/decimal"
)

const skuMaxAttempts = 3

// ProductInput 创建/更新商品输入
type ProductInput struct {
	Name                   string          `json:"name" binding:"required"`
	Category               string          `json:"category" binding:"required"`
	Options                []string        `json:"options"`
	Images                 []string        `json:"images"`
	CostLocal              models.Money    `json:"cost_local"`
	ExchangeRate           decimal.Decimal `json:"exchange_rate"`
	ShippingPerKg          models.Money    `json:"shipping_per_kg"`
	WeightKg               decimal.Decimal `json:"weight_kg"`
	MaterialCost           models.Money    `json:"material_cost"`
	PriceGeneral           models.Money    `json:"price_general"`
	PriceVIP               models.Money    `json:"price_vip"`
	PriceWholesale         models.Money    `json:"price_wholesale"`
	BulkCount              int             `json:"bulk_count"`
	BulkTotal              models.Money    `json:"bulk_total"`
	Stock                  int             `json:"stock"`
	AllowedPaymentMethods  []string        `json:"allowed_payment_methods"`
	AllowedShippingMethods []string        `json:"allowed_shipping_methods"`
	IsListed               bool            `json:"is_listed"`
	IsPreorder             bool            `json:"is_preorder"`
	SortOrder              int             `json:"sort_order"`
}

// ProductAdminView 管理端商品视图（附到岸成本）
type ProductAdminView struct {
	models.Product
	LandedCost models.Money `json:"landed_cost"`
}

// NewProductAdminView 构建管理端商品视图
func NewProductAdminView(product *models.Product) ProductAdminView {
	return ProductAdminView{
		Product:    *product,
		LandedCost: models.NewMoneyFromDecimal(product.LandedCost()),
	}
}

// ProductService 商品业务服务
type ProductService struct {
	repo           repository.ProductRepository
	settingService *SettingService
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, settingService *SettingService) *ProductService {
	return &ProductService{repo: repo, settingService: settingService}
}

// ListPublic 获取上架商品列表
func (s *ProductService) ListPublic(category, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   category,
		Search:     search,
		OnlyListed: true,
	})
}

// GetPublic 获取上架商品详情
func (s *ProductService) GetPublic(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsListed {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 管理端商品列表
func (s *ProductService) ListAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyListed = false
	return s.repo.List(filter)
}

// GetAdmin 管理端获取商品
func (s *ProductService) GetAdmin(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品，货号按分类前缀自动编号
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	product := &models.Product{}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	settings, err := s.settingService.GetStoreSettings(ctx)
	if err != nil {
		return nil, err
	}
	prefix := settings.SKUPrefix(product.Category)
	if prefix == "" {
		return nil, fmt.Errorf("%w: %s", ErrSKUPrefixMissing, product.Category)
	}

	for attempt := 0; attempt < skuMaxAttempts; attempt++ {
		sku, err := s.nextSKU(prefix, attempt)
		if err != nil {
			return nil, err
		}
		product.SKU = sku
		err = s.repo.Create(product)
		if err == nil {
			logger.Infow("product_created", "product_id", product.ID, "sku", product.SKU)
			return product, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
		product.ID = 0
		logger.Warnw("product_sku_conflict_retry", "sku", sku, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("allocate sku for prefix %s failed", prefix)
}

// Update 更新商品（货号与累计售出不变）
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// nextSKU 取前缀下最大流水号 + 1（冲突重试时再向后偏移）
func (s *ProductService) nextSKU(prefix string, offset int) (string, error) {
	maxSKU, err := s.repo.MaxSKUWithPrefix(prefix)
	if err != nil {
		return "", err
	}
	next := 1
	if suffix := strings.TrimPrefix(maxSKU, prefix); suffix != "" {
		if n, err := strconv.Atoi(suffix); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next+offset), nil
}

func applyProductInput(product *models.Product, input ProductInput) error {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" || category == "" {
		return fmt.Errorf("%w: name and category required", ErrProductInvalid)
	}
	if input.Stock < 0 {
		return fmt.Errorf("%w: stock is negative", ErrProductInvalid)
	}
	if input.BulkCount < 0 || input.BulkCount == 1 {
		return fmt.Errorf("%w: bulk count must be 0 or greater than 1", ErrProductInvalid)
	}
	for _, amount := range []models.Money{input.CostLocal, input.ShippingPerKg, input.MaterialCost, input.PriceGeneral, input.PriceVIP, input.PriceWholesale, input.BulkTotal} {
		if amount.Decimal.IsNegative() {
			return fmt.Errorf("%w: amount is negative", ErrProductInvalid)
		}
	}
	if input.ExchangeRate.IsNegative() || input.WeightKg.IsNegative() {
		return fmt.Errorf("%w: exchange rate or weight is negative", ErrProductInvalid)
	}
	payments, err := normalizeMethodList(input.AllowedPaymentMethods, knownPaymentMethods)
	if err != nil {
		return err
	}
	shippings, err := normalizeMethodList(input.AllowedShippingMethods, knownShippingMethods)
	if err != nil {
		return err
	}

	product.Name = name
	product.Category = category
	product.Options = uniqueTrimmed(input.Options)
	product.Images = uniqueTrimmed(input.Images)
	product.CostLocal = input.CostLocal
	product.ExchangeRate = input.ExchangeRate
	product.ShippingPerKg = input.ShippingPerKg
	product.WeightKg = input.WeightKg
	product.MaterialCost = input.MaterialCost
	product.PriceGeneral = input.PriceGeneral
	product.PriceVIP = input.PriceVIP
	product.PriceWholesale = input.PriceWholesale
	product.BulkCount = input.BulkCount
	product.BulkTotal = input.BulkTotal
	product.Stock = input.Stock
	product.AllowedPaymentMethods = payments
	product.AllowedShippingMethods = shippings
	product.IsListed = input.IsListed
	product.IsPreorder = input.IsPreorder || input.Stock >= constants.StockUnlimited
	product.SortOrder = input.SortOrder
	return nil
}

func normalizeMethodList(values []string, known map[string]struct{}) (models.StringArray, error) {
	result := make(models.StringArray, 0, len(values))
	for _, value := range uniqueTrimmed(values) {
		code := strings.ToLower(value)
		if _, ok := known[code]; !ok {
			return nil, fmt.Errorf("%w: unknown method %q", ErrProductInvalid, value)
		}
		if !result.Contains(code) {
			result = append(result, code)
		}
	}
	return result, nil
}

func uniqueTrimmed(values []string) models.StringArray {
	result := make(models.StringArray, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
