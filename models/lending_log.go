package models

import "time"

const LendingLogTable = "ilt_lending_logs"

// LendingLog 是不可变的借还台账：借出时创建，归还时只补
// date_returned / return_condition_notes，之后不再改动，也永不删除。
// BorrowerName / BorrowerEmail 是借出瞬间的快照，用户之后改名或被删
// 都不影响历史记录。
type LendingLog struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID string `gorm:"type:uuid;index;not null" json:"itemId"`

	BorrowerID    string `gorm:"type:uuid;index;not null" json:"borrowerId"`
	BorrowerName  string `gorm:"size:255;not null" json:"borrowerName"`
	BorrowerEmail string `gorm:"size:255;not null" json:"borrowerEmail"`

	DateLent     time.Time  `gorm:"index;not null" json:"dateLent"`
	DateReturned *time.Time `gorm:"index" json:"dateReturned,omitempty"`

	ConditionNotes       string `gorm:"size:500" json:"conditionNotes,omitempty"`
	ReturnConditionNotes string `gorm:"size:500" json:"returnConditionNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LendingLog) TableName() string { return LendingLogTable }

func (l *LendingLog) Open() bool { return l.DateReturned == nil }
