package public

import (
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CheckoutOptionsRequest 结账可选方式请求
type CheckoutOptionsRequest struct {
	LineIndexes []int `json:"line_indexes"`
}

// CheckoutQuoteRequest 结账金额预览请求
type CheckoutQuoteRequest struct {
	LineIndexes    []int           `json:"line_indexes"`
	ShippingMethod string          `json:"shipping_method"`
	Credits        decimal.Decimal `json:"credits"`
}

// CheckoutOptions 计算所选商品共同支持的付款与配送方式
func (h *Handler) CheckoutOptions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	options, err := h.CheckoutService.Options(c.Request.Context(), uid, req.LineIndexes)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, options)
}

// CheckoutQuote 计算所选商品的结账金额
func (h *Handler) CheckoutQuote(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	quote, err := h.CheckoutService.Quote(c.Request.Context(), uid, service.CheckoutRequest{
		LineIndexes:    req.LineIndexes,
		ShippingMethod: req.ShippingMethod,
		Credits:        req.Credits,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, quote)
}
