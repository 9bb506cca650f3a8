package db

import (
	"Gin_postgres_redis_lending_tracker/models"
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// logAdminAction 只接收打开的事务句柄：审计条目必须和它记录的那次
// 变更一起提交、一起回滚，单独写审计是契约违规，所以不导出。
func logAdminAction(tx *gorm.DB, actor *models.User, action, entityType, entityID string, details map[string]any) error {
	var payload datatypes.JSON
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		payload = datatypes.JSON(b)
	}
	entry := &models.AdminAuditLog{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    payload,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// findActor 在事务里确认操作者存在并返回（快照 ActorName 用）。
func findActor(tx *gorm.DB, actingAdminID string) (*models.User, error) {
	var actor models.User
	if err := tx.First(&actor, "id = ?", actingAdminID).Error; err != nil {
		return nil, asNotFound(err)
	}
	return &actor, nil
}

// 审计列表（管理端只读；台账本身永不回改）
func (r *Repo) ListAuditLogs(ctx context.Context, action, entityType string, page, size int) ([]models.AdminAuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	q := r.DB.WithContext(ctx).Model(&models.AdminAuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AdminAuditLog
	if err := q.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
