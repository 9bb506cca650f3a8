package models

import (
	"time"

	"gorm.io/datatypes"
)

const AdminAuditLogTable = "ilt_admin_audit_log"

// 审计动作（管理端的特权变更，每次一条）
const (
	AuditCreateCategory = "CREATE_CATEGORY"
	AuditUpdateCategory = "UPDATE_CATEGORY"
	AuditDeleteCategory = "DELETE_CATEGORY"
	AuditCreateUser     = "CREATE_USER"
	AuditUpdateUser     = "UPDATE_USER"
	AuditDeleteUser     = "DELETE_USER"
)

const (
	AuditEntityCategory = "category"
	AuditEntityUser     = "user"
)

// AdminAuditLog 与它记录的那次变更写在同一个事务里，
// 只追加，不回改。ActorName 同样是写入瞬间的快照。
type AdminAuditLog struct {
	ID        string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID   string `gorm:"type:uuid;index;not null" json:"actorId"`
	ActorName string `gorm:"size:255;not null" json:"actorName"`

	Action     string `gorm:"size:40;index;not null" json:"action"`
	EntityType string `gorm:"size:20;not null" json:"entityType"`
	EntityID   string `gorm:"type:uuid;index;not null" json:"entityId"`

	// 结构化详情，比如 {"oldName": ..., "newName": ...}
	Details datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (AdminAuditLog) TableName() string { return AdminAuditLogTable }
