package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kuajing-shop/internal/config"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/provider"
	"github.com/kuajing-shop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const routerTestIdentitySecret = "router-test-identity-secret"

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "debug"},
		UserJWT:  config.JWTConfig{SecretKey: "router-test-user-secret", ExpireHours: 1},
		Identity: config.IdentityConfig{Secret: routerTestIdentitySecret},
		Admin:    config.AdminConfig{ProviderIDs: []string{"admin-1"}},
		Order: config.OrderConfig{
			Timezone:                "Asia/Taipei",
			OrderNoMaxRetries:       5,
			CancelConfirmTTLSeconds: 120,
		},
		Cart:    config.CartConfig{Storage: "database"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	container := provider.NewContainer(cfg)
	return SetupRouter(cfg, container)
}

func identityToken(t *testing.T, subject, email string) string {
	t.Helper()
	claims := service.IdentityClaims{
		Email: email,
		Name:  subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routerTestIdentitySecret))
	if err != nil {
		t.Fatalf("sign identity token failed: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s decode envelope failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func mustOK(t *testing.T, resp envelope, step string) {
	t.Helper()
	if resp.StatusCode != 0 {
		t.Fatalf("%s: status_code=%d msg=%s", step, resp.StatusCode, resp.Msg)
	}
}

func mustStatus(t *testing.T, resp envelope, want int, step string) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s: status_code want %d got %d msg=%s", step, want, resp.StatusCode, resp.Msg)
	}
}

func decodeData(t *testing.T, resp envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("decode data failed: %v data=%s", err, string(resp.Data))
	}
}

func login(t *testing.T, r *gin.Engine, subject string) (string, bool) {
	t.Helper()
	resp := doRequest(t, r, http.MethodPost, "/api/v1/auth/identity", "", gin.H{
		"identity_token": identityToken(t, subject, subject+"@example.com"),
	})
	mustOK(t, resp, "identity login")
	var result struct {
		Token string `json:"token"`
		User  struct {
			IsAdmin bool `json:"is_admin"`
		} `json:"user"`
	}
	decodeData(t, resp, &result)
	if result.Token == "" {
		t.Fatalf("login should return token")
	}
	return result.Token, result.User.IsAdmin
}

func TestOrderFlowThroughHTTP(t *testing.T) {
	r := setupRouterTest(t)

	adminToken, isAdmin := login(t, r, "admin-1")
	if !isAdmin {
		t.Fatalf("configured provider id should be admin")
	}
	customerToken, isAdmin := login(t, r, "customer-1")
	if isAdmin {
		t.Fatalf("customer should not be admin")
	}

	resp := doRequest(t, r, http.MethodGet, "/api/v1/admin/orders", customerToken, nil)
	mustStatus(t, resp, 403, "customer on admin route")

	settings := service.DefaultStoreSettings()
	settings.CategoryCodes = map[string]string{"accessories": "ac"}
	settings.BankAccount = service.BankAccount{BankCode: "822", BankName: "中國信託", AccountNo: "123456789012", AccountName: "跨境小舖"}
	resp = doRequest(t, r, http.MethodPut, "/api/v1/admin/settings/store", adminToken, settings)
	mustOK(t, resp, "save store settings")

	resp = doRequest(t, r, http.MethodPost, "/api/v1/admin/products", adminToken, gin.H{
		"name":          "皮革手鍊",
		"category":      "accessories",
		"cost_local":    "800",
		"exchange_rate": "0.22",
		"price_general": "150",
		"stock":         10,
		"is_listed":     true,
	})
	mustOK(t, resp, "create product")
	var product struct {
		ID  uint   `json:"id"`
		SKU string `json:"sku"`
	}
	decodeData(t, resp, &product)
	if product.SKU != "AC0001" {
		t.Fatalf("sku want AC0001 got %s", product.SKU)
	}

	resp = doRequest(t, r, http.MethodGet, "/api/v1/public/products", "", nil)
	mustOK(t, resp, "public products")
	if body := string(resp.Data); !strings.Contains(body, "AC0001") || strings.Contains(body, "cost_local") {
		t.Fatalf("public listing should show sku without cost fields: %s", body)
	}

	resp = doRequest(t, r, http.MethodPost, "/api/v1/cart/lines", customerToken, gin.H{
		"product_id": product.ID,
		"quantity":   2,
	})
	mustOK(t, resp, "add cart line")
	var cartView struct {
		Count int `json:"count"`
	}
	decodeData(t, resp, &cartView)
	if cartView.Count != 2 {
		t.Fatalf("cart count want 2 got %d", cartView.Count)
	}

	resp = doRequest(t, r, http.MethodPost, "/api/v1/checkout/options", customerToken, gin.H{"line_indexes": []int{0}})
	mustOK(t, resp, "checkout options")
	var options service.LogisticsOptions
	decodeData(t, resp, &options)
	if !containsString(options.Payment, constants.PaymentMethodBankTransfer) || !containsString(options.Shipping, constants.ShippingMethodMeetup) {
		t.Fatalf("unexpected options: %+v", options)
	}

	resp = doRequest(t, r, http.MethodPost, "/api/v1/checkout/quote", customerToken, gin.H{
		"line_indexes":    []int{0},
		"shipping_method": constants.ShippingMethodMeetup,
	})
	mustOK(t, resp, "checkout quote")
	var quote struct {
		Subtotal   string `json:"subtotal"`
		FinalTotal string `json:"final_total"`
	}
	decodeData(t, resp, &quote)
	if quote.Subtotal != "300.00" || quote.FinalTotal != "300.00" {
		t.Fatalf("quote mismatch: %+v", quote)
	}

	resp = doRequest(t, r, http.MethodPost, "/api/v1/orders", customerToken, gin.H{
		"line_indexes":    []int{0},
		"payment_method":  constants.PaymentMethodBankTransfer,
		"shipping_method": constants.ShippingMethodMeetup,
		"shipping":        gin.H{"recipient_name": "王小明", "recipient_phone": "0912345678"},
	})
	mustOK(t, resp, "create order")
	var order struct {
		OrderNo string `json:"order_no"`
		Status  string `json:"status"`
	}
	decodeData(t, resp, &order)
	if len(order.OrderNo) != 17 || order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("unexpected order: %+v", order)
	}

	reportPath := "/api/v1/orders/" + order.OrderNo + "/payment-report"
	resp = doRequest(t, r, http.MethodPost, reportPath, customerToken, gin.H{"payer_name": "王小明", "last5": "12a45"})
	mustStatus(t, resp, 400, "report with non-digit last5")

	resp = doRequest(t, r, http.MethodPost, reportPath, customerToken, gin.H{"payer_name": "王小明", "last5": "12345"})
	mustOK(t, resp, "report payment")
	decodeData(t, resp, &order)
	if order.Status != constants.OrderStatusPaidVerifying {
		t.Fatalf("status want %s got %s", constants.OrderStatusPaidVerifying, order.Status)
	}

	resp = doRequest(t, r, http.MethodPost, "/api/v1/admin/orders/"+order.OrderNo+"/transitions", adminToken, gin.H{
		"action": service.ActionConfirmPayment,
	})
	mustOK(t, resp, "confirm payment")
	decodeData(t, resp, &order)
	if order.Status != constants.OrderStatusPaymentConfirmed {
		t.Fatalf("status want %s got %s", constants.OrderStatusPaymentConfirmed, order.Status)
	}

	resp = doRequest(t, r, http.MethodGet, "/api/v1/cart", customerToken, nil)
	mustOK(t, resp, "get cart")
	decodeData(t, resp, &cartView)
	if cartView.Count != 0 {
		t.Fatalf("purchased lines should leave the cart, count=%d", cartView.Count)
	}

	resp = doRequest(t, r, http.MethodDelete, "/api/v1/admin/orders/"+order.OrderNo, adminToken, nil)
	mustOK(t, resp, "delete order")
	resp = doRequest(t, r, http.MethodGet, "/api/v1/orders/"+order.OrderNo, customerToken, nil)
	mustStatus(t, resp, 404, "get deleted order")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "shop_orders_created_total") {
		t.Fatalf("metrics endpoint mismatch: code=%d", w.Code)
	}
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}

func TestHealthEndpoint(t *testing.T) {
	r := setupRouterTest(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health want 200 got %d", w.Code)
	}
}
