package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/pricing"
	"github.com/kuajing-shop/internal/repository"

	"github.com/shopspring/decimal"
)

const storeSettingsCacheTTL = 5 * time.Minute

// MethodToggle 付款方式开关
type MethodToggle struct {
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}

// ShippingOption 配送方式与固定运费
type ShippingOption struct {
	Code    string       `json:"code"`
	Fee     models.Money `json:"fee"`
	Enabled bool         `json:"enabled"`
}

// BankAccount 汇款帐户（公开给结账页）
type BankAccount struct {
	BankCode    string `json:"bank_code"`
	BankName    string `json:"bank_name"`
	AccountNo   string `json:"account_no"`
	AccountName string `json:"account_name"`
}

// StoreSettings 店铺配置
type StoreSettings struct {
	PaymentMethods        []MethodToggle          `json:"payment_methods"`
	ShippingMethods       []ShippingOption        `json:"shipping_methods"`
	FreeShippingThreshold models.Money            `json:"free_shipping_threshold"` // 0 表示不启用免运
	CategoryCodes         map[string]string       `json:"category_codes"`          // 分类 -> 货号前缀
	BirthdayGifts         map[string]models.Money `json:"birthday_gifts"`          // 会员等级 -> 生日礼金
	BankAccount           BankAccount             `json:"bank_account"`
}

// DefaultStoreSettings 默认店铺配置
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		PaymentMethods: []MethodToggle{
			{Code: constants.PaymentMethodBankTransfer, Enabled: true},
			{Code: constants.PaymentMethodCash, Enabled: true},
		},
		ShippingMethods: []ShippingOption{
			{Code: constants.ShippingMethodMeetup, Fee: models.NewMoneyFromInt(0), Enabled: true},
			{Code: constants.ShippingMethodMyship, Fee: models.NewMoneyFromInt(0), Enabled: true},
			{Code: constants.ShippingMethodFamily, Fee: models.NewMoneyFromInt(0), Enabled: true},
			{Code: constants.ShippingMethodDelivery, Fee: models.NewMoneyFromInt(100), Enabled: true},
		},
		FreeShippingThreshold: models.NewMoneyFromInt(1500),
		CategoryCodes:         map[string]string{},
		BirthdayGifts:         map[string]models.Money{},
	}
}

// EnabledPaymentMethods 已启用的付款方式（保持配置顺序）
func (s StoreSettings) EnabledPaymentMethods() []string {
	result := make([]string, 0, len(s.PaymentMethods))
	for _, item := range s.PaymentMethods {
		if item.Enabled {
			result = append(result, item.Code)
		}
	}
	return result
}

// EnabledShippingMethods 已启用的配送方式（保持配置顺序）
func (s StoreSettings) EnabledShippingMethods() []string {
	result := make([]string, 0, len(s.ShippingMethods))
	for _, item := range s.ShippingMethods {
		if item.Enabled {
			result = append(result, item.Code)
		}
	}
	return result
}

// ShippingFee 获取配送方式运费
func (s StoreSettings) ShippingFee(code string) (decimal.Decimal, bool) {
	for _, item := range s.ShippingMethods {
		if item.Code == code {
			return item.Fee.Decimal, true
		}
	}
	return decimal.Zero, false
}

// SKUPrefix 获取分类对应的货号前缀
func (s StoreSettings) SKUPrefix(category string) string {
	return strings.TrimSpace(s.CategoryCodes[strings.TrimSpace(category)])
}

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetStoreSettings 获取店铺配置（缓存优先，未配置时返回默认值）
func (s *SettingService) GetStoreSettings(ctx context.Context) (StoreSettings, error) {
	var cached StoreSettings
	hit, err := cache.GetJSON(ctx, storeSettingsCacheKey(), &cached)
	if err != nil {
		logger.Warnw("store_settings_cache_read_failed", "error", err)
	}
	if hit {
		return cached, nil
	}

	setting, err := s.repo.GetByKey(constants.SettingKeyStore)
	if err != nil {
		return StoreSettings{}, err
	}
	settings := DefaultStoreSettings()
	if setting != nil && len(setting.ValueJSON) > 0 {
		decoded, err := decodeStoreSettings(setting.ValueJSON)
		if err != nil {
			logger.Warnw("store_settings_decode_failed", "error", err)
		} else {
			settings = decoded
		}
	}
	if err := cache.SetJSON(ctx, storeSettingsCacheKey(), settings, storeSettingsCacheTTL); err != nil {
		logger.Warnw("store_settings_cache_write_failed", "error", err)
	}
	return settings, nil
}

// UpdateStoreSettings 校验并保存店铺配置，写入后失效缓存
func (s *SettingService) UpdateStoreSettings(ctx context.Context, input StoreSettings) (StoreSettings, error) {
	normalized, err := normalizeStoreSettings(input)
	if err != nil {
		return StoreSettings{}, err
	}
	value, err := encodeStoreSettings(normalized)
	if err != nil {
		return StoreSettings{}, err
	}
	if _, err := s.repo.Upsert(constants.SettingKeyStore, value); err != nil {
		return StoreSettings{}, err
	}
	if err := cache.Del(ctx, storeSettingsCacheKey()); err != nil {
		logger.Warnw("store_settings_cache_invalidate_failed", "error", err)
	}
	return normalized, nil
}

func storeSettingsCacheKey() string {
	return "setting:" + constants.SettingKeyStore
}

var knownPaymentMethods = map[string]struct{}{
	constants.PaymentMethodBankTransfer: {},
	constants.PaymentMethodCash:         {},
}

var knownShippingMethods = map[string]struct{}{
	constants.ShippingMethodMeetup:   {},
	constants.ShippingMethodMyship:   {},
	constants.ShippingMethodFamily:   {},
	constants.ShippingMethodDelivery: {},
}

func normalizeStoreSettings(input StoreSettings) (StoreSettings, error) {
	result := StoreSettings{
		FreeShippingThreshold: input.FreeShippingThreshold,
		CategoryCodes:         map[string]string{},
		BirthdayGifts:         map[string]models.Money{},
		BankAccount: BankAccount{
			BankCode:    strings.TrimSpace(input.BankAccount.BankCode),
			BankName:    strings.TrimSpace(input.BankAccount.BankName),
			AccountNo:   strings.TrimSpace(input.BankAccount.AccountNo),
			AccountName: strings.TrimSpace(input.BankAccount.AccountName),
		},
	}
	if result.FreeShippingThreshold.Decimal.IsNegative() {
		return StoreSettings{}, fmt.Errorf("%w: free shipping threshold is negative", ErrSettingsInvalid)
	}

	seen := make(map[string]struct{})
	for _, item := range input.PaymentMethods {
		code := strings.ToLower(strings.TrimSpace(item.Code))
		if _, ok := knownPaymentMethods[code]; !ok {
			return StoreSettings{}, fmt.Errorf("%w: unknown payment method %q", ErrSettingsInvalid, item.Code)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		result.PaymentMethods = append(result.PaymentMethods, MethodToggle{Code: code, Enabled: item.Enabled})
	}

	seen = make(map[string]struct{})
	for _, item := range input.ShippingMethods {
		code := strings.ToLower(strings.TrimSpace(item.Code))
		if _, ok := knownShippingMethods[code]; !ok {
			return StoreSettings{}, fmt.Errorf("%w: unknown shipping method %q", ErrSettingsInvalid, item.Code)
		}
		if item.Fee.Decimal.IsNegative() {
			return StoreSettings{}, fmt.Errorf("%w: shipping fee of %s is negative", ErrSettingsInvalid, code)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		result.ShippingMethods = append(result.ShippingMethods, ShippingOption{Code: code, Fee: item.Fee, Enabled: item.Enabled})
	}

	for category, prefix := range input.CategoryCodes {
		category = strings.TrimSpace(category)
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if category == "" || prefix == "" {
			continue
		}
		result.CategoryCodes[category] = prefix
	}
	for tier, amount := range input.BirthdayGifts {
		if amount.Decimal.IsNegative() {
			return StoreSettings{}, fmt.Errorf("%w: birthday gift of %s is negative", ErrSettingsInvalid, tier)
		}
		result.BirthdayGifts[pricing.NormalizeTier(tier)] = amount
	}
	return result, nil
}

func encodeStoreSettings(settings StoreSettings) (models.JSON, error) {
	body, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	var value models.JSON
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func decodeStoreSettings(value models.JSON) (StoreSettings, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return StoreSettings{}, err
	}
	settings := DefaultStoreSettings()
	if err := json.Unmarshal(body, &settings); err != nil {
		return StoreSettings{}, err
	}
	if settings.CategoryCodes == nil {
		settings.CategoryCodes = map[string]string{}
	}
	if settings.BirthdayGifts == nil {
		settings.BirthdayGifts = map[string]models.Money{}
	}
	return settings, nil
}
