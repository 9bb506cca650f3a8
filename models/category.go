package models

import "time"

const CategoryTable = "ilt_categories"

// Category 的唯一性按 LOWER(name) 算，索引在 db.Migrate 里建。
type Category struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return CategoryTable }
