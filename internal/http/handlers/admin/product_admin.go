package admin

import (
	"strconv"
	"strings"

	"github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/repository"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListProducts 管理端商品列表（含下架商品与到岸成本）
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	products, total, err := h.ProductService.ListAdmin(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	items := make([]service.ProductAdminView, 0, len(products))
	for i := range products {
		items = append(items, service.NewProductAdminView(&products[i]))
	}
	response.SuccessWithPage(c, items, shared.BuildPagination(page, pageSize, total))
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdmin(id)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, service.NewProductAdminView(product))
}

// AdminCreateProduct 创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), req)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_save_failed")
		return
	}
	response.Success(c, service.NewProductAdminView(product))
}

// AdminUpdateProduct 更新商品（下架即 is_listed=false）
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(id, req)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_save_failed")
		return
	}
	response.Success(c, service.NewProductAdminView(product))
}

func parseProductID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
