package public

import "github.com/kuajing-shop/internal/provider"

// Handler 店面接口：商品与店铺设定公开读取，购物车、结账、下单与付款回报需顾客登录
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
