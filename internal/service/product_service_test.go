package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"

	"github.com/shopspring/decimal"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *repository.GormProductRepository) {
	t.Helper()
	db := openServiceTestDB(t, "product_service_test")
	repo := repository.NewProductRepository(db)
	settings := NewSettingService(repository.NewSettingRepository(db))
	defaults := DefaultStoreSettings()
	defaults.CategoryCodes = map[string]string{"饰品": "AC", "包包": "BG"}
	if _, err := settings.UpdateStoreSettings(context.Background(), defaults); err != nil {
		t.Fatalf("seed settings failed: %v", err)
	}
	return NewProductService(repo, settings), repo
}

func productInput(category string) ProductInput {
	return ProductInput{
		Name:         "珍珠耳环",
		Category:     category,
		Options:      []string{" 金 ", "银", "金"},
		CostLocal:     models.NewMoneyFromInt(1000),
		ExchangeRate:  decimal.RequireFromString("0.22"),
		WeightKg:      decimal.RequireFromString("0.5"),
		ShippingPerKg: models.NewMoneyFromInt(180),
		MaterialCost:  models.NewMoneyFromInt(10),
		PriceGeneral:  models.NewMoneyFromInt(390),
		Stock:         5,
		IsListed:      true,
	}
}

func TestProductServiceCreateAssignsSequentialSKU(t *testing.T) {
	svc, _ := setupProductServiceTest(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, productInput("饰品"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	second, err := svc.Create(ctx, productInput("饰品"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	other, err := svc.Create(ctx, productInput("包包"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if first.SKU != "AC0001" || second.SKU != "AC0002" || other.SKU != "BG0001" {
		t.Fatalf("unexpected skus: %s %s %s", first.SKU, second.SKU, other.SKU)
	}
	if len(first.Options) != 2 || first.Options[0] != "金" {
		t.Fatalf("options not normalized: %v", first.Options)
	}

	if _, err := svc.Create(ctx, productInput("鞋子")); !errors.Is(err, ErrSKUPrefixMissing) {
		t.Fatalf("expected ErrSKUPrefixMissing, got %v", err)
	}
}

func TestProductServiceValidation(t *testing.T) {
	svc, _ := setupProductServiceTest(t)
	ctx := context.Background()

	input := productInput("饰品")
	input.BulkCount = 1
	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("bulk count 1 should be invalid, got %v", err)
	}
	input = productInput("饰品")
	input.AllowedShippingMethods = []string{"teleport"}
	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("unknown method should be invalid, got %v", err)
	}
	input = productInput("饰品")
	input.Stock = -1
	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("negative stock should be invalid, got %v", err)
	}
}

func TestProductServicePublicVisibilityAndLandedCost(t *testing.T) {
	svc, _ := setupProductServiceTest(t)
	ctx := context.Background()

	input := productInput("饰品")
	input.IsListed = false
	hidden, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	shown, err := svc.Create(ctx, productInput("饰品"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if _, err := svc.GetPublic(hidden.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unlisted product should be hidden, got %v", err)
	}
	rows, total, err := svc.ListPublic("", "", 1, 20)
	if err != nil || total != 1 || rows[0].ID != shown.ID {
		t.Fatalf("public list should only contain listed product, total=%d err=%v", total, err)
	}
	rows, total, err = svc.ListAdmin(repository.ProductListFilter{Page: 1, PageSize: 20, OnlyListed: true})
	if err != nil || total != 2 {
		t.Fatalf("admin list should include unlisted, total=%d err=%v", total, err)
	}

	// 1000 × 0.22 + 0.5 × 180 + 10 = 320
	view := NewProductAdminView(shown)
	if !view.LandedCost.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("landed cost want 320 got %s", view.LandedCost.String())
	}
}

func TestProductServiceUpdateKeepsSKU(t *testing.T) {
	svc, _ := setupProductServiceTest(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, productInput("饰品"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	input := productInput("饰品")
	input.Name = "珍珠耳环（新款）"
	input.Stock = constants.StockUnlimited
	updated, err := svc.Update(product.ID, input)
	if err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	if updated.SKU != product.SKU || updated.Name != "珍珠耳环（新款）" || !updated.IsPreorder {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, err := svc.Update(product.ID+100, input); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
