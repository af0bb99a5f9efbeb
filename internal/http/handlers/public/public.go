package public

import (
	"strconv"
	"strings"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicShippingOption 公开的配送方式
type PublicShippingOption struct {
	Code string       `json:"code"`
	Fee  models.Money `json:"fee"`
}

// PublicConfig 前台结账所需的店铺配置
type PublicConfig struct {
	PaymentMethods        []string               `json:"payment_methods"`
	ShippingMethods       []PublicShippingOption `json:"shipping_methods"`
	FreeShippingThreshold models.Money           `json:"free_shipping_threshold"`
	BankAccount           service.BankAccount    `json:"bank_account"`
}

// PublicProductView 公共商品响应结构（不含成本字段）
type PublicProductView struct {
	ID                     uint               `json:"id"`
	SKU                    string             `json:"sku"`
	Name                   string             `json:"name"`
	Category               string             `json:"category"`
	Options                models.StringArray `json:"options"`
	Images                 models.StringArray `json:"images"`
	PriceGeneral           models.Money       `json:"price_general"`
	PriceVIP               models.Money       `json:"price_vip"`
	PriceWholesale         models.Money       `json:"price_wholesale"`
	BulkCount              int                `json:"bulk_count"`
	BulkTotal              models.Money       `json:"bulk_total"`
	IsUnlimited            bool               `json:"is_unlimited"`
	Stock                  int                `json:"stock"`
	IsSoldOut              bool               `json:"is_sold_out"`
	IsPreorder             bool               `json:"is_preorder"`
	AllowedPaymentMethods  models.StringArray `json:"allowed_payment_methods"`
	AllowedShippingMethods models.StringArray `json:"allowed_shipping_methods"`
}

func newPublicProductView(product *models.Product) PublicProductView {
	unlimited := product.Stock >= constants.StockUnlimited
	view := PublicProductView{
		ID:                     product.ID,
		SKU:                    product.SKU,
		Name:                   product.Name,
		Category:               product.Category,
		Options:                product.Options,
		Images:                 product.Images,
		PriceGeneral:           product.PriceGeneral,
		PriceVIP:               product.PriceVIP,
		PriceWholesale:         product.PriceWholesale,
		BulkCount:              product.BulkCount,
		BulkTotal:              product.BulkTotal,
		IsUnlimited:            unlimited,
		IsPreorder:             product.IsPreorder,
		AllowedPaymentMethods:  product.AllowedPaymentMethods,
		AllowedShippingMethods: product.AllowedShippingMethods,
	}
	if !unlimited {
		view.Stock = product.Stock
		view.IsSoldOut = product.Stock <= 0
	}
	return view
}

// GetConfig 获取结账公开配置
func (h *Handler) GetConfig(c *gin.Context) {
	settings, err := h.SettingService.GetStoreSettings(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	shipping := make([]PublicShippingOption, 0, len(settings.ShippingMethods))
	for _, item := range settings.ShippingMethods {
		if !item.Enabled {
			continue
		}
		shipping = append(shipping, PublicShippingOption{Code: item.Code, Fee: item.Fee})
	}
	response.Success(c, PublicConfig{
		PaymentMethods:        settings.EnabledPaymentMethods(),
		ShippingMethods:       shipping,
		FreeShippingThreshold: settings.FreeShippingThreshold,
		BankAccount:           settings.BankAccount,
	})
}

// GetProducts 获取上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := shared.ParsePagination(c)
	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListPublic(category, search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	items := make([]PublicProductView, 0, len(products))
	for i := range products {
		items = append(items, newPublicProductView(&products[i]))
	}
	response.SuccessWithPage(c, items, shared.BuildPagination(page, pageSize, total))
}

// GetProduct 获取上架商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.ProductService.GetPublic(uint(id))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
		}, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, newPublicProductView(product))
}
