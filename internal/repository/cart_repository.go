package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kuajing-shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSnapshotRepository 购物车快照仓库，实现 cart.Storage
type CartSnapshotRepository struct {
	db *gorm.DB
}

// NewCartSnapshotRepository 创建购物车快照仓库
func NewCartSnapshotRepository(db *gorm.DB) *CartSnapshotRepository {
	return &CartSnapshotRepository{db: db}
}

// Load 读取快照，不存在时返回 nil
func (r *CartSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var snapshot models.CartSnapshot
	if err := r.db.WithContext(ctx).Where(&models.CartSnapshot{Key: key}).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot.Payload, nil
}

// Save 覆盖写入快照
func (r *CartSnapshotRepository) Save(ctx context.Context, key string, payload []byte) error {
	snapshot := &models.CartSnapshot{Key: key, Payload: payload, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(snapshot).Error
}

// DeleteBefore 清理指定时间之前未更新的快照
func (r *CartSnapshotRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.CartSnapshot{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
