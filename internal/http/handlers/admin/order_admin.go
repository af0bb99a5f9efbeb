package admin

import (
	"strings"
	"time"

	"github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/repository"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderTransitionRequest 订单状态流转请求
type OrderTransitionRequest struct {
	Action        string                `json:"action" binding:"required"`
	TrackingCode  string                `json:"tracking_code"`
	PaymentReport service.PaymentReport `json:"payment_report"`
}

// CancelConfirmRequest 取消确认请求
type CancelConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	orders, total, err := h.OrderService.ListAdminOrders(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		Search:      strings.TrimSpace(c.Query("search")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, shared.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.OrderService.GetAdminOrder(c.Param("order_no"))
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// AdminTransitionOrder 执行订单状态流转
func (h *Handler) AdminTransitionOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req OrderTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderStateService.Apply(c.Request.Context(), service.Actor{UserID: adminID, IsAdmin: true}, c.Param("order_no"), service.TransitionInput{
		Action:        strings.TrimSpace(req.Action),
		TrackingCode:  strings.TrimSpace(req.TrackingCode),
		PaymentReport: req.PaymentReport,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_transition",
		"admin_id", adminID,
		"order_no", order.OrderNo,
		"action", req.Action,
		"status", order.Status,
	)
	response.Success(c, order)
}

// AdminRequestCancel 取消第一步：签发确认凭证
func (h *Handler) AdminRequestCancel(c *gin.Context) {
	ticket, err := h.OrderStateService.RequestCancel(c.Request.Context(), c.Param("order_no"))
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, ticket)
}

// AdminConfirmCancel 取消第二步：凭证确认后执行取消
func (h *Handler) AdminConfirmCancel(c *gin.Context) {
	var req CancelConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderStateService.ConfirmCancel(c.Request.Context(), c.Param("order_no"), req.Token)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminDeleteOrder 删除订单并回滚会员累计消费与购物金
func (h *Handler) AdminDeleteOrder(c *gin.Context) {
	orderNo := c.Param("order_no")
	if err := h.OrderStateService.Delete(c.Request.Context(), orderNo); err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
