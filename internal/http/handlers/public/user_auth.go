package public

import (
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentityLoginRequest 身份登录请求
type IdentityLoginRequest struct {
	IdentityToken string `json:"identity_token" binding:"required"`
}

// IdentityLogin 使用外部身份令牌登录
func (h *Handler) IdentityLogin(c *gin.Context) {
	var req IdentityLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.UserService.LoginWithIdentity(c.Request.Context(), req.IdentityToken)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{Target: service.ErrIdentityTokenInvalid, Code: response.CodeUnauthorized, Key: "error.identity_invalid"},
		}, response.CodeInternal, "error.login_failed")
		return
	}
	response.Success(c, result)
}

// GetCurrentUser 获取当前用户资料
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.GetProfile(uid)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "error.user_not_found")
		return
	}
	response.Success(c, user)
}
