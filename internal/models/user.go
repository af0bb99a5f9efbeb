package models

import "time"

// User 用户表（顾客与管理员共用）
type User struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                     // 主键
	ProviderID  string     `gorm:"uniqueIndex;type:varchar(191);not null" json:"-"`          // 身份提供方的稳定 ID
	MemberNo    string     `gorm:"index;type:varchar(32)" json:"member_no"`                  // 会员编号（展示用）
	Phone       string     `gorm:"index;type:varchar(32)" json:"phone"`                      // 手机
	Email       string     `gorm:"index;type:varchar(191)" json:"email"`                     // 邮箱
	DisplayName string     `gorm:"default:''" json:"display_name"`                           // 昵称
	AvatarURL   string     `gorm:"type:varchar(500)" json:"avatar_url"`                      // 头像
	Tier        string     `gorm:"type:varchar(20);not null;default:'general'" json:"tier"`  // 会员等级
	TotalSpend  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_spend"` // 累计消费
	Credits     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"credits"`     // 购物金余额
	IsAdmin     bool       `gorm:"not null;default:false;index" json:"is_admin"`             // 是否管理员
	Birthday    *time.Time `json:"birthday,omitempty"`                                       // 生日
	LastLoginAt *time.Time `json:"last_login_at"`                                            // 最后登录时间
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
