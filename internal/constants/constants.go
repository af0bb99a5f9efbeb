package constants

// 会员等级常量
const (
	TierGeneral   = "general"
	TierVIP       = "vip"
	TierWholesale = "wholesale"
)

// 订单状态常量
const (
	OrderStatusPendingPayment   = "pending_payment"
	OrderStatusPaidVerifying    = "paid_verifying"
	OrderStatusUnpaidAlert      = "unpaid_alert"
	OrderStatusPaymentConfirmed = "payment_confirmed"
	OrderStatusShipped          = "shipped"
	OrderStatusArrivedNotified  = "arrived_notified"
	OrderStatusPickedUp         = "picked_up"
	OrderStatusRefundNeeded     = "refund_needed"
	OrderStatusRefunded         = "refunded"
	OrderStatusCompleted        = "completed"
	OrderStatusCancelled        = "cancelled"
)

// 付款方式常量
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
)

// 配送方式常量（myship / family 为超商店到店）
const (
	ShippingMethodMeetup   = "meetup"
	ShippingMethodMyship   = "myship"
	ShippingMethodFamily   = "family"
	ShippingMethodDelivery = "delivery"
)

// 订单通知动作
const (
	NotifyActionNewOrder        = "new_order"
	NotifyActionShipped         = "shipped"
	NotifyActionArrived         = "arrived"
	NotifyActionPaymentReminder = "payment_reminder"
)

// StockUnlimited 库存哨兵值：不限量 / 预购
const StockUnlimited = 99999

// CounterDropoffRebate 店到店配送的固定折抵金额
const CounterDropoffRebate = 20

// 设置键
const (
	SettingKeyStore = "store_config"
)

// 管理后台角色
const (
	RoleAdmin = "admin"
)
