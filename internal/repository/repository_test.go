package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createStockProduct(t *testing.T, repo *GormProductRepository, sku string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:          sku,
		Name:         "测试商品 " + sku,
		PriceGeneral: models.NewMoneyFromInt(100),
		Stock:        stock,
		IsListed:     true,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestProductRepositoryDecrementStockGuarded(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewProductRepository(db)
	product := createStockProduct(t, repo, "AC0001", 5)

	affected, err := repo.DecrementStock(product.ID, 3)
	if err != nil || affected != 1 {
		t.Fatalf("first decrement failed: affected=%d err=%v", affected, err)
	}
	affected, err = repo.DecrementStock(product.ID, 3)
	if err != nil {
		t.Fatalf("second decrement error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected insufficient stock to update nothing, got %d", affected)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil || got == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if got.Stock != 2 || got.SoldCount != 3 {
		t.Fatalf("unexpected stock/sold: %d/%d", got.Stock, got.SoldCount)
	}
}

func TestProductRepositoryDecrementStockNeverNegative(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewProductRepository(db)
	product := createStockProduct(t, repo, "AC0002", 10)

	sold := 0
	for _, qty := range []int{4, 3, 2, 4, 1, 5, 1} {
		affected, err := repo.DecrementStock(product.ID, qty)
		if err != nil {
			t.Fatalf("decrement failed: %v", err)
		}
		if affected == 1 {
			sold += qty
		}
	}
	got, _ := repo.GetByID(product.ID)
	if sold != 10 || got.Stock != 0 || got.SoldCount != 10 {
		t.Fatalf("unexpected result sold=%d stock=%d soldCount=%d", sold, got.Stock, got.SoldCount)
	}
}

func TestProductRepositoryUnlimitedStockOnlyCountsSold(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewProductRepository(db)
	product := createStockProduct(t, repo, "PR0001", constants.StockUnlimited)

	if affected, err := repo.DecrementStock(product.ID, 7); err != nil || affected != 1 {
		t.Fatalf("decrement unlimited failed: affected=%d err=%v", affected, err)
	}
	got, _ := repo.GetByID(product.ID)
	if got.Stock != constants.StockUnlimited || got.SoldCount != 7 {
		t.Fatalf("unexpected stock/sold: %d/%d", got.Stock, got.SoldCount)
	}
}

func TestProductRepositoryMaxSKUWithPrefix(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewProductRepository(db)
	createStockProduct(t, repo, "AC0002", 1)
	createStockProduct(t, repo, "AC0010", 1)
	createStockProduct(t, repo, "BG0099", 1)

	got, err := repo.MaxSKUWithPrefix("AC")
	if err != nil {
		t.Fatalf("max sku failed: %v", err)
	}
	if got != "AC0010" {
		t.Fatalf("expected AC0010, got %s", got)
	}
	empty, err := repo.MaxSKUWithPrefix("ZZ")
	if err != nil || empty != "" {
		t.Fatalf("expected empty result, got %q err=%v", empty, err)
	}
}

func TestProductRepositoryListOnlyListed(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewProductRepository(db)
	createStockProduct(t, repo, "AC0001", 1)
	hidden := createStockProduct(t, repo, "AC0002", 1)
	if err := db.Model(hidden).Update("is_listed", false).Error; err != nil {
		t.Fatalf("delist failed: %v", err)
	}

	products, total, err := repo.List(ProductListFilter{OnlyListed: true, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].SKU != "AC0001" {
		t.Fatalf("unexpected list result total=%d len=%d", total, len(products))
	}
}

func TestProductRepositoryListPagination(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewProductRepository(db)
	for i := 1; i <= 3; i++ {
		createStockProduct(t, repo, fmt.Sprintf("BG%04d", i), 1)
	}

	products, total, err := repo.List(ProductListFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(products) != 1 {
		t.Fatalf("second page want 1 of 3, got %d of %d", len(products), total)
	}

	products, _, err = repo.List(ProductListFilter{Page: 0, PageSize: maxPageSize + 50})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("oversized page should still return all rows, got %d", len(products))
	}
}

func TestUserRepositoryOrderCharge(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewUserRepository(db)
	user := &models.User{ProviderID: "idp-1", Tier: constants.TierGeneral, Credits: models.NewMoneyFromInt(50)}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	affected, err := repo.ApplyOrderCharge(user.ID, decimal.NewFromInt(250), decimal.NewFromInt(30))
	if err != nil || affected != 1 {
		t.Fatalf("apply charge failed: affected=%d err=%v", affected, err)
	}
	affected, err = repo.ApplyOrderCharge(user.ID, decimal.NewFromInt(10), decimal.NewFromInt(30))
	if err != nil {
		t.Fatalf("apply charge error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected credits guard to reject overdraw")
	}

	got, _ := repo.GetByID(user.ID)
	if !got.TotalSpend.Equal(decimal.NewFromInt(250)) || !got.Credits.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected spend/credits: %s/%s", got.TotalSpend, got.Credits)
	}

	if _, err := repo.ReverseOrderCharge(user.ID, decimal.NewFromInt(300), decimal.NewFromInt(30)); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	got, _ = repo.GetByID(user.ID)
	if !got.TotalSpend.IsZero() || !got.Credits.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected spend/credits after reverse: %s/%s", got.TotalSpend, got.Credits)
	}
}

func TestUserRepositoryUpdateFieldsIgnoresBalances(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewUserRepository(db)
	user := &models.User{ProviderID: "idp-2", Credits: models.NewMoneyFromInt(10)}
	if err := repo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	err := repo.UpdateFields(user.ID, map[string]interface{}{
		"display_name": "小明",
		"credits":      decimal.NewFromInt(9999),
	})
	if err != nil {
		t.Fatalf("update fields failed: %v", err)
	}
	got, _ := repo.GetByID(user.ID)
	if got.DisplayName != "小明" || !got.Credits.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected user after update: %+v", got)
	}
}

func TestOrderRepositoryUpdateStatusFrom(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	order := &models.Order{
		OrderNo:        "20260101120000001",
		UserID:         1,
		Status:         constants.OrderStatusPendingPayment,
		PaymentMethod:  constants.PaymentMethodBankTransfer,
		ShippingMethod: constants.ShippingMethodMyship,
	}
	items := []models.OrderItem{{ProductID: 1, ProductName: "A", Quantity: 2, UnitPrice: models.NewMoneyFromInt(100)}}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	affected, err := repo.UpdateStatusFrom(order.ID, constants.OrderStatusPendingPayment, constants.OrderStatusPaymentConfirmed, nil)
	if err != nil || affected != 1 {
		t.Fatalf("first update failed: affected=%d err=%v", affected, err)
	}
	affected, err = repo.UpdateStatusFrom(order.ID, constants.OrderStatusPendingPayment, constants.OrderStatusCancelled, nil)
	if err != nil || affected != 0 {
		t.Fatalf("stale update should not apply: affected=%d err=%v", affected, err)
	}

	got, err := repo.GetByOrderNo(order.OrderNo)
	if err != nil || got == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got.Status != constants.OrderStatusPaymentConfirmed || len(got.Items) != 1 {
		t.Fatalf("unexpected order: status=%s items=%d", got.Status, len(got.Items))
	}

	if affected, err := repo.Delete(order.ID); err != nil || affected != 1 {
		t.Fatalf("delete failed: affected=%d err=%v", affected, err)
	}
	gone, err := repo.GetByID(order.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected order removed, got %+v err=%v", gone, err)
	}
	var itemCount int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount)
	if itemCount != 0 {
		t.Fatalf("expected items removed, got %d", itemCount)
	}

	affected, err = repo.Delete(order.ID)
	if err != nil || affected != 0 {
		t.Fatalf("second delete should affect nothing, got affected=%d err=%v", affected, err)
	}
}

func TestOrderRepositoryDuplicateOrderNo(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	first := &models.Order{OrderNo: "20260101120000001", UserID: 1, Status: constants.OrderStatusPendingPayment, PaymentMethod: "cash", ShippingMethod: "meetup"}
	if err := repo.Create(first, nil); err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	second := &models.Order{OrderNo: first.OrderNo, UserID: 2, Status: constants.OrderStatusPendingPayment, PaymentMethod: "cash", ShippingMethod: "meetup"}
	err := repo.Create(second, nil)
	if !IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestOrderRepositoryListByUserNewestFirst(t *testing.T) {
	db := setupRepositoryTest(t)
	repo := NewOrderRepository(db)
	for _, no := range []string{"20260101120000001", "20260102120000001", "20260101130000001"} {
		order := &models.Order{OrderNo: no, UserID: 7, Status: constants.OrderStatusPendingPayment, PaymentMethod: "cash", ShippingMethod: "meetup"}
		if err := repo.Create(order, nil); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}
	orders, total, err := repo.ListByUser(OrderListFilter{UserID: 7, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(orders) != 2 || orders[0].OrderNo != "20260102120000001" {
		t.Fatalf("unexpected list total=%d len=%d first=%s", total, len(orders), orders[0].OrderNo)
	}
}

func TestSettingAndCartSnapshotUpsert(t *testing.T) {
	db := setupRepositoryTest(t)
	settings := NewSettingRepository(db)
	if _, err := settings.Upsert(constants.SettingKeyStore, models.JSON{"free_shipping_threshold": 1000}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if _, err := settings.Upsert(constants.SettingKeyStore, models.JSON{"free_shipping_threshold": 1500}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	got, err := settings.GetByKey(constants.SettingKeyStore)
	if err != nil || got == nil {
		t.Fatalf("get setting failed: %v", err)
	}
	if fmt.Sprint(got.ValueJSON["free_shipping_threshold"]) != "1500" {
		t.Fatalf("unexpected setting value: %v", got.ValueJSON)
	}

	carts := NewCartSnapshotRepository(db)
	ctx := context.Background()
	if payload, err := carts.Load(ctx, "cart:1"); err != nil || payload != nil {
		t.Fatalf("expected empty cart, got %q err=%v", payload, err)
	}
	if err := carts.Save(ctx, "cart:1", []byte(`[{"product_id":1}]`)); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}
	if err := carts.Save(ctx, "cart:1", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite cart failed: %v", err)
	}
	payload, err := carts.Load(ctx, "cart:1")
	if err != nil || string(payload) != "[]" {
		t.Fatalf("unexpected cart payload %q err=%v", payload, err)
	}
}
