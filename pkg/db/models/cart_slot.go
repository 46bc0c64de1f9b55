package models

import "time"

// CartSlot holds one serialized cart under a namespaced key.
type CartSlot struct {
	Key       string    `gorm:"column:slot_key;primaryKey;size:191"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name used by the SQL slot store.
func (CartSlot) TableName() string {
	return "cart_slots"
}
