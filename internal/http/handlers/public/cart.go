package public

import (
	"strconv"

	"github.com/kuajing-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CartLineRequest 加入购物车请求
type CartLineRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Option    string `json:"option"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// CartQuantityRequest 调整数量请求（delta 可为负，结果最小为 1）
type CartQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.View(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartLine 加入购物车，同商品同规格合并数量
func (h *Handler) AddCartLine(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	view, err := h.CartService.AddLine(c.Request.Context(), uid, req.ProductID, req.Option, req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// UpdateCartLine 调整购物车行数量
func (h *Handler) UpdateCartLine(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	index, ok := parseLineIndex(c)
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	view, err := h.CartService.UpdateQuantity(c.Request.Context(), uid, index, req.Delta)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// DeleteCartLine 移除购物车行
func (h *Handler) DeleteCartLine(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	index, ok := parseLineIndex(c)
	if !ok {
		return
	}
	view, err := h.CartService.RemoveLine(c.Request.Context(), uid, index)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(c.Request.Context(), uid); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

func parseLineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return index, true
}
