package models

import (
	"strings"

	"github.com/kuajing-shop/internal/logger"
)

// EnsureAdmins 将配置中的身份提供方 ID 对应的已有用户标记为管理员
// 尚未登录过的 ID 会在首次登录时由用户服务处理
func EnsureAdmins(providerIDs []string) error {
	ids := make([]string, 0, len(providerIDs))
	for _, id := range providerIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		logger.Warnw("admin_bootstrap_empty", "hint", "set admin.provider_ids to grant back-office access")
		return nil
	}
	result := DB.Model(&User{}).
		Where("provider_id IN ? AND is_admin = ?", ids, false).
		Update("is_admin", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		logger.Infow("admin_bootstrap_promoted", "count", result.RowsAffected)
	}
	return nil
}
