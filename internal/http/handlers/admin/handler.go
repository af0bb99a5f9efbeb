package admin

import "github.com/kuajing-shop/internal/provider"

// Handler 后台接口：订单审核与流转、商品维护、店铺设定
// 权限由路由层的 casbin 中间件把关，处理器内不再重复判断
type Handler struct {
	*provider.Container
}

// New 创建后台处理器，依赖全部来自容器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
