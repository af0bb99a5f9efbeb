package shared

// messages 错误提示文案
var messages = map[string]string{
	"error.bad_request":                 "請求參數錯誤",
	"error.unauthorized":                "請先登入",
	"error.forbidden":                   "沒有操作權限",
	"error.auth_header_missing":         "缺少授權標頭",
	"error.auth_header_invalid":         "授權標頭格式錯誤",
	"error.token_invalid":               "登入憑證無效",
	"error.jwt_secret_missing":          "伺服器未設定簽章金鑰",
	"error.user_id_invalid":             "使用者編號錯誤",
	"error.user_id_type_invalid":        "使用者編號型別錯誤",
	"error.user_not_found":              "找不到使用者",
	"error.identity_invalid":            "身分驗證失敗",
	"error.login_failed":                "登入失敗",
	"error.rate_limited":                "操作過於頻繁，請 %d 秒後再試",
	"error.login_too_many":              "登入嘗試過多，請 %d 秒後再試",
	"error.order_too_frequent":          "下單過於頻繁，請 %d 秒後再試",
	"error.rate_limit_unavailable":      "限流服務暫時不可用",
	"error.config_fetch_failed":         "讀取店鋪設定失敗",
	"error.settings_invalid":            "店鋪設定內容錯誤",
	"error.settings_save_failed":        "儲存店鋪設定失敗",
	"error.product_not_found":           "找不到商品",
	"error.product_unavailable":         "商品已下架",
	"error.product_invalid":             "商品資料錯誤",
	"error.product_fetch_failed":        "讀取商品失敗",
	"error.product_save_failed":         "儲存商品失敗",
	"error.sku_prefix_missing":          "此分類尚未設定貨號前綴",
	"error.option_invalid":              "商品規格不存在",
	"error.quantity_invalid":            "數量必須大於零",
	"error.cart_line_not_found":         "購物車項目不存在",
	"error.cart_fetch_failed":           "讀取購物車失敗",
	"error.cart_update_failed":          "更新購物車失敗",
	"error.empty_selection":             "請至少選擇一項商品",
	"error.no_common_logistics":         "所選商品沒有共同的付款或配送方式，請分開下單",
	"error.payment_method_not_allowed":  "不支援此付款方式",
	"error.shipping_method_not_allowed": "不支援此配送方式",
	"error.shipping_info_invalid":       "收件資訊不完整",
	"error.stock_insufficient":          "商品庫存不足",
	"error.credits_insufficient":        "購物金餘額不足",
	"error.order_no_conflict":           "訂單編號產生失敗，請重試",
	"error.order_create_failed":         "建立訂單失敗",
	"error.order_not_found":             "找不到訂單",
	"error.order_fetch_failed":          "讀取訂單失敗",
	"error.order_update_failed":         "更新訂單失敗",
	"error.order_delete_failed":         "刪除訂單失敗",
	"error.invalid_transition":          "目前訂單狀態不允許此操作",
	"error.unknown_action":              "不支援的訂單操作",
	"error.transition_conflict":         "訂單已被其他人更新，請重新整理",
	"error.cancel_not_confirmed":        "取消確認已失效，請重新操作",
	"error.payment_report_invalid":      "請填寫匯款人與帳號後五碼",
	"error.tracking_code_required":      "請填寫物流單號",
	"error.stream_unavailable":          "即時通知服務不可用",
}

// Message 返回错误文案，未登记的 key 原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
