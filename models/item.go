package models

import "time"

const ItemTable = "ilt_items"

// 物品状态：available / lent / maintenance
const (
	ItemStatusAvailable   = "available"
	ItemStatusLent        = "lent"
	ItemStatusMaintenance = "maintenance"
)

type Item struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"size:1000" json:"description,omitempty"`
	CategoryID  string `gorm:"type:uuid;index;not null" json:"categoryId"`

	Status string `gorm:"size:20;not null;default:'available'" json:"status"`
	// ✅ 冗余列：当前借用人；仅当 status = lent 时非空，
	// 且必须和唯一一条未归还的 LendingLog 保持一致
	CurrentBorrowerID *string `gorm:"type:uuid;index" json:"currentBorrowerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Item) TableName() string { return ItemTable }
