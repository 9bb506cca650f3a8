package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_lending_tracker/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 分类增删改：唯一性检查、写入、审计三者同一事务，
// 保证 "改了没记" 或 "记了没改" 都不可能出现。

func (r *Repo) CreateCategory(ctx context.Context, actingAdminID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	var cat *models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := findActor(tx, actingAdminID)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.Category{}).
			Where("LOWER(name) = ?", strings.ToLower(name)).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflictf("category name already exists")
		}

		c := &models.Category{ID: uuid.NewString(), Name: name}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if err := logAdminAction(tx, actor, models.AuditCreateCategory,
			models.AuditEntityCategory, c.ID,
			map[string]any{"name": c.Name}); err != nil {
			return err
		}
		cat = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func (r *Repo) RenameCategory(ctx context.Context, actingAdminID, categoryID, newName string) (*models.Category, error) {
	newName = strings.TrimSpace(newName)
	var cat *models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := findActor(tx, actingAdminID)
		if err != nil {
			return err
		}

		var c models.Category
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", categoryID).Error; err != nil {
			return asNotFound(err)
		}

		// 排除自己再查重
		var n int64
		if err := tx.Model(&models.Category{}).
			Where("LOWER(name) = ? AND id <> ?", strings.ToLower(newName), c.ID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflictf("category name already exists")
		}

		oldName := c.Name
		c.Name = newName
		if err := tx.Save(&c).Error; err != nil {
			return err
		}
		if err := logAdminAction(tx, actor, models.AuditUpdateCategory,
			models.AuditEntityCategory, c.ID,
			map[string]any{"oldName": oldName, "newName": newName}); err != nil {
			return err
		}
		cat = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// 删除分类：先在同一事务里数引用它的物品，非零立即拒绝并带上数量。
func (r *Repo) DeleteCategory(ctx context.Context, actingAdminID, categoryID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := findActor(tx, actingAdminID)
		if err != nil {
			return err
		}

		var c models.Category
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", categoryID).Error; err != nil {
			return asNotFound(err)
		}

		var n int64
		if err := tx.Model(&models.Item{}).
			Where("category_id = ?", c.ID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &ConflictError{
				Reason:    "category still has items assigned to it",
				ItemCount: n,
			}
		}

		if err := tx.Delete(&models.Category{}, "id = ?", c.ID).Error; err != nil {
			return err
		}
		return logAdminAction(tx, actor, models.AuditDeleteCategory,
			models.AuditEntityCategory, c.ID,
			map[string]any{"name": c.Name, "itemCount": 0})
	})
}
