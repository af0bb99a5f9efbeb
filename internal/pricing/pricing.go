// Package pricing 商品定价：会员等级单价与“N 件组合价”优惠计算，纯函数无副作用
package pricing

import (
	"strings"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"

	"github.com/shopspring/decimal"
)

// NormalizeTier 规范化会员等级，未知或空值视为一般会员
func NormalizeTier(tier string) string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case constants.TierVIP:
		return constants.TierVIP
	case constants.TierWholesale:
		return constants.TierWholesale
	default:
		return constants.TierGeneral
	}
}

// UnitPrice 按会员等级解析单价
// 等级价为 0 表示未提供该等级价，回落到一般价
func UnitPrice(product *models.Product, tier string) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	switch NormalizeTier(tier) {
	case constants.TierWholesale:
		if product.PriceWholesale.GreaterThan(decimal.Zero) {
			return product.PriceWholesale.Decimal
		}
	case constants.TierVIP:
		if product.PriceVIP.GreaterThan(decimal.Zero) {
			return product.PriceVIP.Decimal
		}
	}
	return product.PriceGeneral.Decimal
}

// BulkRule 组合价规则：任意 Count 件合计 Total
type BulkRule struct {
	Count int
	Total decimal.Decimal
}

// RuleOf 读取商品的组合价规则
func RuleOf(product *models.Product) BulkRule {
	if product == nil {
		return BulkRule{}
	}
	return BulkRule{Count: product.BulkCount, Total: product.BulkTotal.Decimal}
}

// Active 件数大于 1 且总价大于 0 才生效
func (r BulkRule) Active() bool {
	return r.Count > 1 && r.Total.GreaterThan(decimal.Zero)
}

// BulkResult 组合价计算结果
type BulkResult struct {
	Quantity  int
	Sets      int
	Remainder int
	Gross     decimal.Decimal // 原价合计 quantity × unit
	Revenue   decimal.Decimal // 组合价后的实收
	Discount  decimal.Decimal // Gross - Revenue，不为负
}

// EvaluateBulk 计算某商品购买 quantity 件时的组合价
// sets = quantity / count，余数按单价计；规则未生效或数量不足一组时无优惠
func EvaluateBulk(rule BulkRule, unitPrice decimal.Decimal, quantity int) BulkResult {
	if quantity < 0 {
		quantity = 0
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	result := BulkResult{
		Quantity:  quantity,
		Remainder: quantity,
		Gross:     gross,
		Revenue:   gross,
		Discount:  decimal.Zero,
	}
	if !rule.Active() || quantity < rule.Count {
		return result
	}
	sets := quantity / rule.Count
	remainder := quantity % rule.Count
	revenue := rule.Total.Mul(decimal.NewFromInt(int64(sets))).
		Add(unitPrice.Mul(decimal.NewFromInt(int64(remainder))))
	discount := gross.Sub(revenue)
	if discount.LessThan(decimal.Zero) {
		// 组合价高于原价时不加价
		return result
	}
	result.Sets = sets
	result.Remainder = remainder
	result.Revenue = revenue
	result.Discount = discount
	return result
}
