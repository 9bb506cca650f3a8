package db

import (
	"context"
	"errors"
	"log"
	"time"

	"Gin_postgres_redis_lending_tracker/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 借出：原子操作 = 锁住 item → 校验 available → 置为 lent → 写台账。
// 借用人的姓名/邮箱在这一刻快照进 LendingLog，之后改用户不影响历史。
func (r *Repo) LendItem(ctx context.Context, itemID, userID, conditionNotes string) (*models.LendingLog, error) {
	var entry *models.LendingLog
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 锁住该物品
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, "id = ?", itemID).Error; err != nil {
			return asNotFound(err)
		}
		if it.Status != models.ItemStatusAvailable {
			return conflictf("item already lent or under maintenance")
		}

		// 2) available 状态下不应该有未归还台账；有就是数据坏了，直接报错不修
		var n int64
		if err := tx.Model(&models.LendingLog{}).
			Where("item_id = ? AND date_returned IS NULL", itemID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			ie := &IntegrityError{Detail: "item " + itemID + " is available but has an open lending log"}
			log.Printf("[INTEGRITY] %v", ie)
			return ie
		}

		// 3) 借用人必须存在；查不到则整个事务回滚，物品不动、台账不写
		var borrower models.User
		if err := tx.First(&borrower, "id = ?", userID).Error; err != nil {
			return asNotFound(err)
		}

		// 4) 占用物品 + 写台账，同一事务
		if err := tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", it.ID, models.ItemStatusAvailable).
			Updates(map[string]any{
				"status":              models.ItemStatusLent,
				"current_borrower_id": borrower.ID,
			}).Error; err != nil {
			return err
		}

		l := &models.LendingLog{
			ID:             uuid.NewString(),
			ItemID:         it.ID,
			BorrowerID:     borrower.ID,
			BorrowerName:   borrower.Name,
			BorrowerEmail:  borrower.Email,
			DateLent:       time.Now().UTC(),
			ConditionNotes: conditionNotes,
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		entry = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// 归还：原子操作 = 锁住 item → 校验 lent → 关掉未归还台账 → 释放物品。
// 归还一件本来就 available 的物品一律报错，不做静默幂等，
// 否则会把客户端的 bug 或并发竞态吞掉。
func (r *Repo) ReturnItem(ctx context.Context, itemID, returnConditionNotes string) (*models.LendingLog, error) {
	var entry *models.LendingLog
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&it, "id = ?", itemID).Error; err != nil {
			return asNotFound(err)
		}
		if it.Status != models.ItemStatusLent {
			return conflictf("item is not currently lent")
		}

		// 锁住唯一的未归还台账（唯一部分索引保证只有一条）
		var l models.LendingLog
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ? AND date_returned IS NULL", itemID).
			First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// status 说在借，台账却没有未归还的一条：致命，不猜修复策略
				ie := &IntegrityError{Detail: "item " + itemID + " has status=lent but no open lending log"}
				log.Printf("[INTEGRITY] %v", ie)
				return ie
			}
			return err
		}

		now := time.Now().UTC()
		l.DateReturned = &now
		l.ReturnConditionNotes = returnConditionNotes
		if err := tx.Save(&l).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Item{}).
			Where("id = ?", it.ID).
			Updates(map[string]any{
				"status":              models.ItemStatusAvailable,
				"current_borrower_id": nil,
			}).Error; err != nil {
			return err
		}
		entry = &l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// 借还历史：按借出时间倒序；from/to 闭区间过滤 date_lent。
// 未知物品返回空列表而不是报错，"物品不存在" 由调用方另查。
func (r *Repo) ItemHistory(ctx context.Context, itemID string, from, to *time.Time) ([]models.LendingLog, error) {
	q := r.DB.WithContext(ctx).Model(&models.LendingLog{}).
		Where("item_id = ?", itemID).
		Order("date_lent DESC")
	if from != nil {
		q = q.Where("date_lent >= ?", *from)
	}
	if to != nil {
		q = q.Where("date_lent <= ?", *to)
	}
	logs := make([]models.LendingLog, 0)
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// 全局借还记录（管理端列表用）
func (r *Repo) ListLendingLogs(ctx context.Context, userID, itemID, status string) ([]models.LendingLog, error) {
	q := r.DB.WithContext(ctx).Model(&models.LendingLog{}).Order("date_lent DESC")
	if userID != "" {
		q = q.Where("borrower_id = ?", userID)
	}
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	if status == "open" {
		q = q.Where("date_returned IS NULL")
	} else if status == "returned" {
		q = q.Where("date_returned IS NOT NULL")
	}
	var ls []models.LendingLog
	if err := q.Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}
