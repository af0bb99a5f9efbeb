package models

import "time"

// OrderItem 订单项（下单时的购物车行快照，之后不随商品变动）
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`                         // 商品ID
	SKU         string    `gorm:"type:varchar(64)" json:"sku"`                              // 货号快照
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"`           // 名称快照
	Option      string    `gorm:"type:varchar(128)" json:"option"`                          // 规格
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价
	Quantity    int       `gorm:"not null" json:"quantity"`                                 // 数量
	TotalPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计
	CreatedAt   time.Time `json:"created_at"`                                               // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
