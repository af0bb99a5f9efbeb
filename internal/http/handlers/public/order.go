package public

import (
	"strings"

	"github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/repository"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentReportRequest 付款回报请求
type PaymentReportRequest struct {
	PayerName   string `json:"payer_name" binding:"required"`
	PaymentTime string `json:"payment_time"`
	Last5       string `json:"last5" binding:"required,last5digits"`
}

// OrderPaymentReport 下单时附带的付款回报（可不填）
type OrderPaymentReport struct {
	PayerName   string `json:"payer_name"`
	PaymentTime string `json:"payment_time"`
	Last5       string `json:"last5" binding:"omitempty,last5digits"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	LineIndexes       []int                  `json:"line_indexes"`
	PaymentMethod     string                 `json:"payment_method" binding:"required"`
	ShippingMethod    string                 `json:"shipping_method" binding:"required"`
	UsedCredits       decimal.Decimal        `json:"used_credits"`
	ClientDiscount    decimal.Decimal        `json:"client_discount"`
	ClientShippingFee decimal.Decimal        `json:"client_shipping_fee"`
	PaymentReport     OrderPaymentReport     `json:"payment_report"`
	Shipping          service.ShippingDetail `json:"shipping"`
	Note              string                 `json:"note" binding:"max=500"`
}

// CreateOrder 从购物车所选行下单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	ctx := c.Request.Context()
	lines, err := h.CartService.Select(ctx, uid, req.LineIndexes)
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}
	order, err := h.OrderService.CreateOrder(ctx, service.CreateOrderInput{
		UserID:            uid,
		Lines:             lines,
		PaymentMethod:     strings.TrimSpace(req.PaymentMethod),
		ShippingMethod:    strings.TrimSpace(req.ShippingMethod),
		UsedCredits:       req.UsedCredits,
		ClientDiscount:    req.ClientDiscount,
		ClientShippingFee: req.ClientShippingFee,
		PaymentReport: service.PaymentReport{
			PayerName:   req.PaymentReport.PayerName,
			PaymentTime: req.PaymentReport.PaymentTime,
			Last5:       req.PaymentReport.Last5,
		},
		Shipping: req.Shipping,
		Note:     req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)
	orders, total, err := h.OrderService.ListUserOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.SuccessWithPage(c, orders, shared.BuildPagination(page, pageSize, total))
}

// GetOrder 当前用户订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetUserOrder(uid, c.Param("order_no"))
	if err != nil {
		respondWithMappedError(c, err, orderActionErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// ReportPayment 顾客回报转帐资讯
func (h *Handler) ReportPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PaymentReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.payment_report_invalid", err)
		return
	}
	order, err := h.OrderStateService.ReportPayment(c.Request.Context(), uid, c.Param("order_no"), service.PaymentReport{
		PayerName:   req.PayerName,
		PaymentTime: req.PaymentTime,
		Last5:       req.Last5,
	})
	if err != nil {
		respondWithMappedError(c, err, orderActionErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("order_payment_reported", "order_no", order.OrderNo, "user_id", uid)
	response.Success(c, order)
}
