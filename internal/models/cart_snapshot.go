package models

import "time"

// CartSnapshot 购物车快照（整车序列化存储，每次变更整体覆盖）
type CartSnapshot struct {
	Key       string    `gorm:"primarykey;type:varchar(191)" json:"key"` // 存储键（cart:<user_id>）
	Payload   []byte    `gorm:"not null" json:"-"`                       // 购物车行 JSON
	UpdatedAt time.Time `json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
