package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品表
type Product struct {
	ID                     uint            `gorm:"primarykey" json:"id"`                                         // 主键
	SKU                    string          `gorm:"uniqueIndex;type:varchar(64);not null" json:"sku"`             // 货号（分类前缀 + 流水号）
	Name                   string          `gorm:"type:varchar(255);not null" json:"name"`                       // 名称
	Category               string          `gorm:"type:varchar(64);index" json:"category"`                       // 分类
	Options                StringArray     `gorm:"type:json" json:"options"`                                     // 规格选项（空表示单一规格）
	Images                 StringArray     `gorm:"type:json" json:"images"`                                      // 图片
	CostLocal              Money           `gorm:"type:decimal(20,2);not null;default:0" json:"cost_local"`      // 当地币成本
	ExchangeRate           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"exchange_rate"`   // 汇率
	ShippingPerKg          Money           `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_per_kg"` // 国际运费（每公斤）
	WeightKg               decimal.Decimal `gorm:"type:decimal(20,3);not null;default:0" json:"weight_kg"`       // 重量（公斤）
	MaterialCost           Money           `gorm:"type:decimal(20,2);not null;default:0" json:"material_cost"`   // 包材成本
	PriceGeneral           Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price_general"`   // 一般价
	PriceVIP               Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price_vip"`       // VIP 价（0 表示不提供）
	PriceWholesale         Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price_wholesale"` // 批发价（0 表示不提供）
	BulkCount              int             `gorm:"not null;default:0" json:"bulk_count"`                         // 组合优惠件数
	BulkTotal              Money           `gorm:"type:decimal(20,2);not null;default:0" json:"bulk_total"`      // 组合优惠总价
	Stock                  int             `gorm:"not null;default:0" json:"stock"`                              // 剩余库存（99999 表示不限量）
	SoldCount              int             `gorm:"not null;default:0" json:"sold_count"`                         // 累计售出
	AllowedPaymentMethods  StringArray     `gorm:"type:json" json:"allowed_payment_methods"`                     // 允许的付款方式（空表示不限）
	AllowedShippingMethods StringArray     `gorm:"type:json" json:"allowed_shipping_methods"`                    // 允许的配送方式（空表示不限）
	IsListed               bool            `gorm:"not null;default:false;index" json:"is_listed"`                // 是否上架
	IsPreorder             bool            `gorm:"default:false" json:"is_preorder"`                             // 是否预购
	SortOrder              int             `gorm:"default:0;index" json:"sort_order"`                            // 排序权重
	CreatedAt              time.Time       `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt              time.Time       `json:"updated_at"`                                                   // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// LandedCost 到岸单位成本 = 当地成本 × 汇率 + 重量 × 每公斤运费 + 包材
func (p *Product) LandedCost() decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	goods := p.CostLocal.Decimal.Mul(p.ExchangeRate)
	freight := p.WeightKg.Mul(p.ShippingPerKg.Decimal)
	return goods.Add(freight).Add(p.MaterialCost.Decimal).Round(2)
}

// HasOption 判断规格是否有效（单一规格商品只接受空规格）
func (p *Product) HasOption(option string) bool {
	if p == nil {
		return false
	}
	if len(p.Options) == 0 {
		return option == ""
	}
	return p.Options.Contains(option)
}
