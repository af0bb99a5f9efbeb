package main

import (
	"context"

	"github.com/kuajing-shop/internal/config"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/logger"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"
	"github.com/kuajing-shop/internal/service"

	"github.com/shopspring/decimal"
)

// 写入演示用的店铺设置与商品
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	settingService := service.NewSettingService(repository.NewSettingRepository(models.DB))
	settings := service.DefaultStoreSettings()
	settings.CategoryCodes = map[string]string{
		"accessories": "AC",
		"bags":        "BG",
		"stationery":  "ST",
	}
	settings.BirthdayGifts = map[string]models.Money{
		constants.TierGeneral:   models.NewMoneyFromInt(100),
		constants.TierVIP:       models.NewMoneyFromInt(200),
		constants.TierWholesale: models.NewMoneyFromInt(300),
	}
	settings.BankAccount = service.BankAccount{
		BankCode:    "812",
		BankName:    "台新銀行",
		AccountNo:   "28881000123456",
		AccountName: "跨境選物",
	}
	if _, err := settingService.UpdateStoreSettings(ctx, settings); err != nil {
		stdLog.Fatalf("Failed to seed store settings: %v", err)
	}

	productService := service.NewProductService(repository.NewProductRepository(models.DB), settingService)
	inputs := []service.ProductInput{
		{
			Name:           "韓系珍珠髮夾",
			Category:       "accessories",
			Options:        []string{"白", "粉"},
			CostLocal:      models.NewMoneyFromInt(3000),
			ExchangeRate:   decimal.RequireFromString("0.024"),
			ShippingPerKg:  models.NewMoneyFromInt(200),
			WeightKg:       decimal.RequireFromString("0.05"),
			MaterialCost:   models.NewMoneyFromInt(5),
			PriceGeneral:   models.NewMoneyFromInt(150),
			PriceVIP:       models.NewMoneyFromInt(135),
			PriceWholesale: models.NewMoneyFromInt(110),
			BulkCount:      3,
			BulkTotal:      models.NewMoneyFromInt(400),
			Stock:          50,
			IsListed:       true,
		},
		{
			Name:                   "帆布托特包",
			Category:               "bags",
			CostLocal:              models.NewMoneyFromInt(12000),
			ExchangeRate:           decimal.RequireFromString("0.024"),
			ShippingPerKg:          models.NewMoneyFromInt(200),
			WeightKg:               decimal.RequireFromString("0.4"),
			MaterialCost:           models.NewMoneyFromInt(10),
			PriceGeneral:           models.NewMoneyFromInt(590),
			PriceVIP:               models.NewMoneyFromInt(550),
			Stock:                  constants.StockUnlimited,
			AllowedShippingMethods: []string{constants.ShippingMethodMyship, constants.ShippingMethodDelivery},
			IsListed:               true,
		},
		{
			Name:                  "手帳貼紙組",
			Category:              "stationery",
			CostLocal:             models.NewMoneyFromInt(800),
			ExchangeRate:          decimal.RequireFromString("0.024"),
			PriceGeneral:          models.NewMoneyFromInt(60),
			Stock:                 200,
			AllowedPaymentMethods: []string{constants.PaymentMethodBankTransfer},
			IsListed:              true,
		},
	}
	for _, input := range inputs {
		product, err := productService.Create(ctx, input)
		if err != nil {
			stdLog.Fatalf("Failed to seed product %s: %v", input.Name, err)
		}
		logger.Infow("seed_product_created", "sku", product.SKU, "name", product.Name)
	}

	logger.Infow("seed_completed", "products", len(inputs))
}
