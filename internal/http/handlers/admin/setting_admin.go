package admin

import (
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminGetStoreSettings 获取店铺配置
func (h *Handler) AdminGetStoreSettings(c *gin.Context) {
	settings, err := h.SettingService.GetStoreSettings(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	response.Success(c, settings)
}

// AdminUpdateStoreSettings 更新店铺配置
func (h *Handler) AdminUpdateStoreSettings(c *gin.Context) {
	var req service.StoreSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	settings, err := h.SettingService.UpdateStoreSettings(c.Request.Context(), req)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{Target: service.ErrSettingsInvalid, Code: response.CodeBadRequest, Key: "error.settings_invalid"},
		}, response.CodeInternal, "error.settings_save_failed")
		return
	}
	response.Success(c, settings)
}
