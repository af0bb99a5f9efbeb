package public

import (
	handlershared "github.com/kuajing-shop/internal/http/handlers/shared"
	"github.com/kuajing-shop/internal/http/response"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, rules, fallbackCode, fallbackKey)
}

var authErrorRules = []mappedHandlerError{
	{Target: service.ErrNotAuthenticated, Code: response.CodeUnauthorized, Key: "error.unauthorized"},
	{Target: service.ErrUserNotFound, Code: response.CodeNotFound, Key: "error.user_not_found"},
}

var cartErrorRules = handlershared.ConcatMappedErrors(authErrorRules, []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductUnavailable, Code: response.CodeBadRequest, Key: "error.product_unavailable"},
	{Target: service.ErrInvalidOption, Code: response.CodeBadRequest, Key: "error.option_invalid"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrCartLineNotFound, Code: response.CodeNotFound, Key: "error.cart_line_not_found"},
})

var checkoutErrorRules = handlershared.ConcatMappedErrors(cartErrorRules, []mappedHandlerError{
	{Target: service.ErrEmptySelection, Code: response.CodeBadRequest, Key: "error.empty_selection"},
	{Target: service.ErrNoCommonLogistics, Code: response.CodeBadRequest, Key: "error.no_common_logistics"},
	{Target: service.ErrPaymentMethodNotAllowed, Code: response.CodeBadRequest, Key: "error.payment_method_not_allowed"},
	{Target: service.ErrShippingMethodNotAllowed, Code: response.CodeBadRequest, Key: "error.shipping_method_not_allowed"},
})

var orderCreateErrorRules = handlershared.ConcatMappedErrors(checkoutErrorRules, []mappedHandlerError{
	{Target: service.ErrShippingInfoInvalid, Code: response.CodeBadRequest, Key: "error.shipping_info_invalid"},
	{Target: service.ErrPaymentReportInvalid, Code: response.CodeBadRequest, Key: "error.payment_report_invalid"},
	{Target: service.ErrStockInsufficient, Code: response.CodeConflict, Key: "error.stock_insufficient"},
	{Target: service.ErrCreditsInsufficient, Code: response.CodeConflict, Key: "error.credits_insufficient"},
	{Target: service.ErrOrderNoConflict, Code: response.CodeConflict, Key: "error.order_no_conflict"},
})

var orderActionErrorRules = handlershared.ConcatMappedErrors(authErrorRules, []mappedHandlerError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrInvalidTransition, Code: response.CodeBadRequest, Key: "error.invalid_transition"},
	{Target: service.ErrTransitionConflict, Code: response.CodeConflict, Key: "error.transition_conflict"},
	{Target: service.ErrPaymentReportInvalid, Code: response.CodeBadRequest, Key: "error.payment_report_invalid"},
	{Target: service.ErrForbiddenAction, Code: response.CodeForbidden, Key: "error.forbidden"},
})
