package admin

import (
	handlershared "github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mappedHandlerError = handlershared.MappedError

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetUserID(c)
}

var orderErrorRules = []mappedHandlerError{
	{Target: service.ErrNotAuthenticated, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrUnknownAction, Code: response.CodeBadRequest, Key: "error.unknown_action"},
	{Target: service.ErrInvalidTransition, Code: response.CodeBadRequest, Key: "error.invalid_transition"},
	{Target: service.ErrTransitionConflict, Code: response.CodeConflict, Key: "error.transition_conflict"},
	{Target: service.ErrCancelNotConfirmed, Code: response.CodeBadRequest, Key: "error.cancel_not_confirmed"},
	{Target: service.ErrTrackingCodeRequired, Code: response.CodeBadRequest, Key: "error.tracking_code_required"},
	{Target: service.ErrPaymentReportInvalid, Code: response.CodeBadRequest, Key: "error.payment_report_invalid"},
	{Target: service.ErrForbiddenAction, Code: response.CodeForbidden, Key: "error.forbidden"},
}

var productErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductInvalid, Code: response.CodeBadRequest, Key: "error.product_invalid"},
	{Target: service.ErrSKUPrefixMissing, Code: response.CodeBadRequest, Key: "error.sku_prefix_missing"},
}
