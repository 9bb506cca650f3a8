package db

import (
	"os"
	"testing"

	"Gin_postgres_redis_lending_tracker/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testRepo 连接 TEST_DATABASE_URL 指向的 Postgres 并清空所有表。
// 没设环境变量就跳过（集成测试需要真库：行锁和部分唯一索引
// 在别的引擎上行为不一样，不值得 mock）。
func testRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping integration test: TEST_DATABASE_URL not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, tbl := range []string{
		models.LendingLogTable,
		models.AdminAuditLogTable,
		models.ItemTable,
		models.CategoryTable,
		models.User{}.TableName(),
	} {
		require.NoError(t, gdb.Exec("TRUNCATE "+tbl+" CASCADE").Error)
	}
	return NewRepo(gdb)
}

func seedUser(t *testing.T, r *Repo, name, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: "x",
	}
	require.NoError(t, r.DB.Create(u).Error)
	return u
}

func seedCategory(t *testing.T, r *Repo, name string) *models.Category {
	t.Helper()
	c := &models.Category{ID: uuid.NewString(), Name: name}
	require.NoError(t, r.DB.Create(c).Error)
	return c
}

func seedItem(t *testing.T, r *Repo, name, categoryID string) *models.Item {
	t.Helper()
	it := &models.Item{
		ID:         uuid.NewString(),
		Name:       name,
		CategoryID: categoryID,
		Status:     models.ItemStatusAvailable,
	}
	require.NoError(t, r.DB.Create(it).Error)
	return it
}

func countOpenLogs(t *testing.T, r *Repo, itemID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(&models.LendingLog{}).
		Where("item_id = ? AND date_returned IS NULL", itemID).
		Count(&n).Error)
	return n
}

func countAuditLogs(t *testing.T, r *Repo, action string) int64 {
	t.Helper()
	q := r.DB.Model(&models.AdminAuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var n int64
	require.NoError(t, q.Count(&n).Error)
	return n
}
