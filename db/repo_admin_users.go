package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_lending_tracker/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateUserInput struct {
	Name     string
	Email    string
	Role     string
	Password string
}

type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *string
	Password *string
}

func (r *Repo) CreateUser(ctx context.Context, actingAdminID string, in CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var user *models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := findActor(tx, actingAdminID)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.User{}).
			Where("LOWER(email) = ?", email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return conflictf("email already in use")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &models.User{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(in.Name),
			Email:        email,
			Role:         in.Role,
			PasswordHash: string(hash),
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if err := logAdminAction(tx, actor, models.AuditCreateUser,
			models.AuditEntityUser, u.ID,
			map[string]any{"name": u.Name, "email": u.Email, "role": u.Role}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repo) UpdateUser(ctx context.Context, actingAdminID, targetUserID string, in UpdateUserInput) (*models.User, error) {
	var user *models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := findActor(tx, actingAdminID)
		if err != nil {
			return err
		}

		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&u, "id = ?", targetUserID).Error; err != nil {
			return asNotFound(err)
		}

		// 审计详情只记真正变了的字段，前后值成对
		details := map[string]any{}

		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if email != u.Email {
				var n int64
				if err := tx.Model(&models.User{}).
					Where("LOWER(email) = ? AND id <> ?", email, u.ID).
					Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return conflictf("email already in use")
				}
				details["oldEmail"] = u.Email
				details["newEmail"] = email
				u.Email = email
			}
		}
		if in.Name != nil && strings.TrimSpace(*in.Name) != u.Name {
			details["oldName"] = u.Name
			details["newName"] = strings.TrimSpace(*in.Name)
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Role != nil && *in.Role != u.Role {
			// 把最后一个管理员降级和删掉他是一回事，一样要挡
			if u.Role == models.RoleAdmin {
				admins, err := lockAdmins(tx)
				if err != nil {
					return err
				}
				if len(admins) <= 1 {
					return forbiddenf("cannot demote the last administrator")
				}
			}
			details["oldRole"] = u.Role
			details["newRole"] = *in.Role
			u.Role = *in.Role
		}
		if in.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u.PasswordHash = string(hash)
			details["passwordChanged"] = true
		}

		if len(details) == 0 {
			user = &u
			return nil // 没有实际变更就不写审计
		}

		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		if err := logAdminAction(tx, actor, models.AuditUpdateUser,
			models.AuditEntityUser, u.ID, details); err != nil {
			return err
		}
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// 删除用户，两道闸依次检查：
//  1. 不能删自己（哪怕你同时也是最后一个管理员，先报这个，诊断更具体）
//  2. 目标是管理员时，锁住全部管理员行再数，≤1 则拒绝
func (r *Repo) DeleteUser(ctx context.Context, actingAdminID, targetUserID string) error {
	if targetUserID == actingAdminID {
		return forbiddenf("cannot delete your own account")
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, err := findActor(tx, actingAdminID)
		if err != nil {
			return err
		}

		// 先不加锁读一次，决定走哪条加锁路径。目标是管理员时
		// 不能先锁目标行再锁整个管理员集合：两个互删的事务会按
		// 相反顺序拿锁，直接死锁。改成都先锁集合（固定顺序）。
		var target models.User
		if err := tx.First(&target, "id = ?", targetUserID).Error; err != nil {
			return asNotFound(err)
		}

		locked := false
		if target.Role == models.RoleAdmin {
			// 锁住所有管理员行再数，两个并发删除就串行化了，
			// 不会各自看到 2 然后一起删成 0
			admins, err := lockAdmins(tx)
			if err != nil {
				return err
			}
			if len(admins) <= 1 {
				return forbiddenf("cannot delete the last administrator")
			}
			for i := range admins {
				if admins[i].ID == target.ID {
					target = admins[i]
					locked = true
					break
				}
			}
			if !locked {
				// 等锁期间目标被并发事务删掉或降级了
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					First(&target, "id = ?", targetUserID).Error; err != nil {
					return asNotFound(err)
				}
				locked = true
			}
		}
		if !locked {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&target, "id = ?", targetUserID).Error; err != nil {
				return asNotFound(err)
			}
			if target.Role == models.RoleAdmin {
				// 等锁期间被提升成了管理员，补一次集合检查
				admins, err := lockAdmins(tx)
				if err != nil {
					return err
				}
				if len(admins) <= 1 {
					return forbiddenf("cannot delete the last administrator")
				}
			}
		}

		if err := tx.Delete(&models.User{}, "id = ?", target.ID).Error; err != nil {
			return err
		}
		return logAdminAction(tx, actor, models.AuditDeleteUser,
			models.AuditEntityUser, target.ID,
			map[string]any{"name": target.Name, "email": target.Email, "role": target.Role})
	})
}

func lockAdmins(tx *gorm.DB) ([]models.User, error) {
	var admins []models.User
	// 固定按 id 顺序拿行锁，并发调用之间不会互相死锁
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", models.RoleAdmin).
		Order("id").
		Find(&admins).Error
	return admins, err
}
