package db

import (
	"Gin_postgres_redis_lending_tracker/models"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateItemInput struct {
	Name        string
	Description string
	CategoryID  string
}

func (r *Repo) CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	var item *models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 共享锁挡住并发的删分类：对方的 FOR UPDATE 要等我们提交
		var cat models.Category
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			First(&cat, "id = ?", in.CategoryID).Error; err != nil {
			return asNotFound(err)
		}
		it := &models.Item{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			CategoryID:  cat.ID,
			Status:      models.ItemStatusAvailable,
		}
		if err := tx.Create(it).Error; err != nil {
			return err
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, asNotFound(err)
	}
	return &it, nil
}

type UpdateItemInput struct {
	Name        *string
	Description *string
	CategoryID  *string
	// available <-> maintenance 之间切换；lent 状态归还借系统管
	Status *string
}

func (r *Repo) UpdateItem(ctx context.Context, itemID string, in UpdateItemInput) (*models.Item, error) {
	var item *models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, "id = ?", itemID).Error; err != nil {
			return asNotFound(err)
		}

		if in.Name != nil {
			it.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			it.Description = *in.Description
		}
		if in.CategoryID != nil && *in.CategoryID != it.CategoryID {
			var cat models.Category
			if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
				First(&cat, "id = ?", *in.CategoryID).Error; err != nil {
				return asNotFound(err)
			}
			it.CategoryID = cat.ID
		}
		if in.Status != nil && *in.Status != it.Status {
			// lent 只能经由归还流程退出，这里只许 available/maintenance 互切
			if it.Status == models.ItemStatusLent || *in.Status == models.ItemStatusLent {
				return conflictf("lending status can only change through lend/return")
			}
			if *in.Status != models.ItemStatusAvailable && *in.Status != models.ItemStatusMaintenance {
				return conflictf("unknown item status %q", *in.Status)
			}
			it.Status = *in.Status
		}

		if err := tx.Save(&it).Error; err != nil {
			return err
		}
		item = &it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// 删除物品：在借状态挡掉，未归还的台账意味着东西还在别人手里。
func (r *Repo) DeleteItem(ctx context.Context, itemID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, "id = ?", itemID).Error; err != nil {
			return asNotFound(err)
		}
		if it.Status == models.ItemStatusLent {
			return conflictf("item is currently lent and cannot be deleted")
		}
		// 台账保留：它是审计历史，借还记录不跟着物品走
		return tx.Delete(&models.Item{}, "id = ?", it.ID).Error
	})
}

// 管理端统一视图：物品 + 当前未归还的那条台账（可空）
type ItemRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CategoryID  string    `json:"categoryId"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	LogID         *string    `json:"logId,omitempty"`
	BorrowerID    *string    `json:"borrowerId,omitempty"`
	BorrowerName  *string    `json:"borrowerName,omitempty"`
	BorrowerEmail *string    `json:"borrowerEmail,omitempty"`
	DateLent      *time.Time `json:"dateLent,omitempty"`
}

type ItemsQuery struct {
	Q          string // 模糊搜索：name/description
	Status     string // "", "available", "lent", "maintenance"
	CategoryID string
	Page       int
	Size       int
}

type PagedItems struct {
	Total int64     `json:"total"`
	Items []ItemRow `json:"items"`
}

func (r *Repo) ListItemsWithOpenLog(ctx context.Context, q ItemsQuery) (*PagedItems, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}
	offset := (q.Page - 1) * q.Size

	db := r.DB.WithContext(ctx)

	base := db.Table(models.ItemTable + " i").
		Joins("JOIN " + models.CategoryTable + " c ON c.id = i.category_id").
		Joins("LEFT JOIN " + models.LendingLogTable + " ol ON ol.item_id = i.id AND ol.date_returned IS NULL")

	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		base = base.Where("LOWER(i.name) LIKE ? OR LOWER(i.description) LIKE ?", pat, pat)
	}
	if q.Status != "" {
		base = base.Where("i.status = ?", q.Status)
	}
	if q.CategoryID != "" {
		base = base.Where("i.category_id = ?", q.CategoryID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("i.id").Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []ItemRow
	if err := base.Session(&gorm.Session{}).
		Select(`
			i.id, i.name, i.description, i.category_id, i.status, i.created_at, i.updated_at,
			c.name            AS category,
			ol.id             AS log_id,
			ol.borrower_id,
			ol.borrower_name,
			ol.borrower_email,
			ol.date_lent
		`).
		Order("i.created_at DESC").
		Offset(offset).
		Limit(q.Size).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return &PagedItems{Total: total, Items: rows}, nil
}
