package service

import "errors"

// 认证与用户
var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrUserNotFound         = errors.New("user not found")
	ErrIdentityTokenInvalid = errors.New("identity token invalid")
)

// 结账校验
var (
	ErrEmptySelection           = errors.New("no cart line selected")
	ErrNoCommonLogistics        = errors.New("no common payment or shipping method")
	ErrPaymentMethodNotAllowed  = errors.New("payment method not allowed")
	ErrShippingMethodNotAllowed = errors.New("shipping method not allowed")
)

// 商品
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product not listed")
	ErrInvalidOption      = errors.New("invalid product option")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrProductInvalid     = errors.New("invalid product data")
	ErrSKUPrefixMissing   = errors.New("category has no sku prefix")
	ErrCartLineNotFound   = errors.New("cart line not found")
)

// 下单
var (
	ErrStockInsufficient   = errors.New("stock insufficient")
	ErrCreditsInsufficient = errors.New("credits insufficient")
	ErrOrderNoConflict     = errors.New("order number allocation exhausted")
	ErrOrderCreateFailed   = errors.New("order create failed")
	ErrShippingInfoInvalid = errors.New("shipping detail invalid")
)

// 订单状态
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid order transition")
	ErrUnknownAction        = errors.New("unknown order action")
	ErrTransitionConflict   = errors.New("order changed concurrently")
	ErrCancelNotConfirmed   = errors.New("cancel confirmation missing or expired")
	ErrPaymentReportInvalid = errors.New("payment report invalid")
	ErrTrackingCodeRequired = errors.New("tracking code required")
	ErrForbiddenAction      = errors.New("action not permitted")
)

// 设置
var (
	ErrSettingsInvalid = errors.New("store settings invalid")
)
