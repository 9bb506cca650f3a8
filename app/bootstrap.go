// app/bootstrap.go
package app

import (
	"context"
	"log"

	"Gin_postgres_redis_lending_tracker/db"
	"Gin_postgres_redis_lending_tracker/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapFirstAdmin 系统里一个管理员都没有时，用环境变量种第一个。
// 已经有管理员就什么都不做——最后一管理员保护依赖这条路径保证
// 系统永远不会从 "有管理员" 退化成 "没有管理员"。
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		log.Printf("bootstrap: count admins failed: %v", err)
		return
	}
	if n > 0 {
		return // 已经有管理员，跳过
	}
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		log.Printf("[BOOTSTRAP] no administrator exists and BOOTSTRAP_ADMIN_EMAIL/_PASSWORD are not set")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("bootstrap: hash password failed: %v", err)
		return
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        cfg.BootstrapAdminEmail,
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := repo.DB.WithContext(ctx).Create(u).Error; err != nil {
		log.Printf("bootstrap: create admin failed: %v", err)
		return
	}
	log.Printf("[BOOTSTRAP] created first administrator %s", cfg.BootstrapAdminEmail)
}
