package models

import "time"

// Order 订单表
type Order struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo        string     `gorm:"uniqueIndex;type:varchar(32);not null" json:"order_no"`     // 订单编号（YYYYMMDDHHMMSS + 3 位序号）
	UserID         uint       `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Status         string     `gorm:"index;type:varchar(32);not null" json:"status"`             // 订单状态
	PaymentMethod  string     `gorm:"type:varchar(32);not null" json:"payment_method"`           // 付款方式
	ShippingMethod string     `gorm:"type:varchar(32);not null" json:"shipping_method"`          // 配送方式
	Subtotal       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 商品小计
	Discount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 折扣（组合优惠 + 店到店折抵）
	ShippingFee    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费
	UsedCredits    Money      `gorm:"type:decimal(20,2);not null;default:0" json:"used_credits"` // 使用购物金
	FinalTotal     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"final_total"`  // 应付金额
	PayerName      string     `gorm:"type:varchar(64)" json:"payer_name"`                        // 汇款人
	PaymentTime    string     `gorm:"type:varchar(64)" json:"payment_time"`                      // 汇款时间（顾客自填）
	PaymentLast5   string     `gorm:"type:varchar(5)" json:"payment_last5"`                      // 帐号后五码
	RecipientName  string     `gorm:"type:varchar(64)" json:"recipient_name"`                    // 收件人
	RecipientPhone string     `gorm:"type:varchar(32)" json:"recipient_phone"`                   // 收件人电话
	RecipientEmail string     `gorm:"type:varchar(191)" json:"recipient_email"`                  // 通知邮箱
	StoreCode      string     `gorm:"type:varchar(32)" json:"store_code"`                        // 取货门市代码
	Address        string     `gorm:"type:varchar(500)" json:"address"`                          // 宅配地址
	TrackingCode   string     `gorm:"type:varchar(64)" json:"tracking_code"`                     // 物流单号
	Note           string     `gorm:"type:varchar(500)" json:"note"`                             // 备注
	PaidAt         *time.Time `gorm:"index" json:"paid_at"`                                      // 确认收款时间
	ShippedAt      *time.Time `json:"shipped_at"`                                                // 出货时间
	CancelledAt    *time.Time `json:"cancelled_at"`                                              // 取消时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                                // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项快照
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// HasPaymentReport 是否已填写付款回报
func (o *Order) HasPaymentReport() bool {
	if o == nil {
		return false
	}
	return o.PayerName != "" || o.PaymentLast5 != ""
}
