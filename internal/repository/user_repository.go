package repository

import (
	"errors"
	"strings"

	"github.com/kuajing-shop/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByProviderID(providerID string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdateFields(id uint, fields map[string]interface{}) error
	ApplyOrderCharge(userID uint, spend, credits decimal.Decimal) (int64, error)
	ReverseOrderCharge(userID uint, spend, credits decimal.Decimal) (int64, error)
	WithTx(tx *gorm.DB) UserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByProviderID 根据身份提供方 ID 获取用户
func (r *GormUserRepository) GetByProviderID(providerID string) (*models.User, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("provider_id = ?", providerID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateFields 按字段更新（不会触碰累计消费与购物金）
func (r *GormUserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	delete(fields, "total_spend")
	delete(fields, "credits")
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// ApplyOrderCharge 下单时累加消费并扣减购物金（相对更新，余额不足时不更新）
func (r *GormUserRepository) ApplyOrderCharge(userID uint, spend, credits decimal.Decimal) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.User{}).
		Where("id = ? AND credits >= ?", userID, credits.Round(2)).
		Updates(map[string]interface{}{
			"total_spend": gorm.Expr("total_spend + ?", spend.Round(2)),
			"credits":     gorm.Expr("credits - ?", credits.Round(2)),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReverseOrderCharge 删除订单时回滚消费（不低于 0）并退回购物金
func (r *GormUserRepository) ReverseOrderCharge(userID uint, spend, credits decimal.Decimal) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	spend = spend.Round(2)
	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_spend": gorm.Expr("CASE WHEN total_spend >= ? THEN total_spend - ? ELSE 0 END", spend, spend),
			"credits":     gorm.Expr("credits + ?", credits.Round(2)),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
