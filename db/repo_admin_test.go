package db

import (
	"context"
	"encoding/json"
	"testing"

	"Gin_postgres_redis_lending_tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastAudit(t *testing.T, r *Repo) *models.AdminAuditLog {
	t.Helper()
	var entry models.AdminAuditLog
	require.NoError(t, r.DB.Order("created_at DESC").First(&entry).Error)
	return &entry
}

func auditDetails(t *testing.T, entry *models.AdminAuditLog) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(entry.Details, &m))
	return m
}

func TestCreateCategoryAuditsAndRejectsDuplicates(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)

	cat, err := r.CreateCategory(ctx, admin.ID, "Cameras")
	require.NoError(t, err)
	assert.Equal(t, "Cameras", cat.Name)
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditCreateCategory))

	entry := lastAudit(t, r)
	assert.Equal(t, admin.ID, entry.ActorID)
	assert.Equal(t, "Root", entry.ActorName)
	assert.Equal(t, models.AuditEntityCategory, entry.EntityType)
	assert.Equal(t, cat.ID, entry.EntityID)

	// 大小写不同也算重名；失败时不能多出审计
	_, err = r.CreateCategory(ctx, admin.ID, "cameras")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditCreateCategory))
}

func TestRenameCategoryRecordsOldAndNewName(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	cat, err := r.CreateCategory(ctx, admin.ID, "Cameras")
	require.NoError(t, err)

	renamed, err := r.RenameCategory(ctx, admin.ID, cat.ID, "Optics")
	require.NoError(t, err)
	assert.Equal(t, "Optics", renamed.Name)

	entry := lastAudit(t, r)
	assert.Equal(t, models.AuditUpdateCategory, entry.Action)
	d := auditDetails(t, entry)
	assert.Equal(t, "Cameras", d["oldName"])
	assert.Equal(t, "Optics", d["newName"])
}

func TestDeleteCategoryWithItemsConflictsWithCount(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	cat, err := r.CreateCategory(ctx, admin.ID, "Cameras")
	require.NoError(t, err)
	seedItem(t, r, "EOS R5", cat.ID)
	seedItem(t, r, "X100V", cat.ID)

	err = r.DeleteCategory(ctx, admin.ID, cat.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.EqualValues(t, 2, conflict.ItemCount)

	// 分类还在，没写 DELETE 审计
	_, err = r.FindCategoryByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, countAuditLogs(t, r, models.AuditDeleteCategory))
}

func TestDeleteEmptyCategorySucceedsWithOneAuditRow(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	cat, err := r.CreateCategory(ctx, admin.ID, "Cameras")
	require.NoError(t, err)

	require.NoError(t, r.DeleteCategory(ctx, admin.ID, cat.ID))
	_, err = r.FindCategoryByID(ctx, cat.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditDeleteCategory))

	d := auditDetails(t, lastAudit(t, r))
	assert.Equal(t, "Cameras", d["name"])
	assert.EqualValues(t, 0, d["itemCount"])
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)

	u, err := r.CreateUser(ctx, admin.ID, CreateUserInput{
		Name: "Alice", Email: "Alice@Example.com", Role: models.RoleUser, Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "secret-pass", u.PasswordHash)
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditCreateUser))

	_, err = r.CreateUser(ctx, admin.ID, CreateUserInput{
		Name: "Other", Email: "alice@example.com", Role: models.RoleUser, Password: "secret-pass",
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditCreateUser))
}

func TestUpdateUserRecordsBeforeAndAfter(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	alice := seedUser(t, r, "Alice", "alice@example.com", models.RoleUser)

	newName := "Alicia"
	newEmail := "alicia@example.com"
	_, err := r.UpdateUser(ctx, admin.ID, alice.ID, UpdateUserInput{Name: &newName, Email: &newEmail})
	require.NoError(t, err)

	entry := lastAudit(t, r)
	assert.Equal(t, models.AuditUpdateUser, entry.Action)
	d := auditDetails(t, entry)
	assert.Equal(t, "Alice", d["oldName"])
	assert.Equal(t, "Alicia", d["newName"])
	assert.Equal(t, "alice@example.com", d["oldEmail"])
	assert.Equal(t, "alicia@example.com", d["newEmail"])
}

func TestUpdateUserNoChangeWritesNoAudit(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	alice := seedUser(t, r, "Alice", "alice@example.com", models.RoleUser)

	sameName := "Alice"
	_, err := r.UpdateUser(ctx, admin.ID, alice.ID, UpdateUserInput{Name: &sameName})
	require.NoError(t, err)
	assert.EqualValues(t, 0, countAuditLogs(t, r, models.AuditUpdateUser))
}

func TestDeleteUserSelfForbidden(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)

	// 自删优先于最后一管理员：同一个人两条规则都命中时报自删
	err := r.DeleteUser(ctx, admin.ID, admin.ID)
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Contains(t, forbidden.Reason, "own account")

	_, err = r.FindUserByID(ctx, admin.ID)
	require.NoError(t, err)
}

func TestDeleteLastAdminForbidden(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	other := seedUser(t, r, "Second", "second@example.com", models.RoleAdmin)

	// 两个管理员时可以删一个
	require.NoError(t, r.DeleteUser(ctx, admin.ID, other.ID))
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditDeleteUser))

	// 只剩一个之后，哪个管理员请求都删不掉
	third := seedUser(t, r, "Standard", "user@example.com", models.RoleUser)
	err := r.DeleteUser(ctx, third.ID, admin.ID)
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Contains(t, forbidden.Reason, "last administrator")
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditDeleteUser))
}

func TestDeleteStandardUserSucceedsWithAudit(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	alice := seedUser(t, r, "Alice", "alice@example.com", models.RoleUser)

	require.NoError(t, r.DeleteUser(ctx, admin.ID, alice.ID))
	_, err := r.FindUserByID(ctx, alice.ID)
	require.ErrorIs(t, err, ErrNotFound)

	entry := lastAudit(t, r)
	assert.Equal(t, models.AuditDeleteUser, entry.Action)
	d := auditDetails(t, entry)
	assert.Equal(t, "Alice", d["name"])
	assert.Equal(t, "alice@example.com", d["email"])
	assert.Equal(t, models.RoleUser, d["role"])
}

func TestDemoteLastAdminForbidden(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)

	role := models.RoleUser
	_, err := r.UpdateUser(ctx, admin.ID, admin.ID, UpdateUserInput{Role: &role})
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestDeleteItemBlockedWhileLent(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, r, "Cameras")
	item := seedItem(t, r, "EOS R5", cat.ID)
	alice := seedUser(t, r, "Alice", "alice@example.com", models.RoleUser)

	_, err := r.LendItem(ctx, item.ID, alice.ID, "")
	require.NoError(t, err)

	err = r.DeleteItem(ctx, item.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// 归还之后可以删，台账保留
	_, err = r.ReturnItem(ctx, item.ID, "")
	require.NoError(t, err)
	require.NoError(t, r.DeleteItem(ctx, item.ID))

	logs, err := r.ItemHistory(ctx, item.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestConcurrentAdminDeletesOnlyOneSucceeds(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	alice := seedUser(t, r, "Alice", "alice@example.com", models.RoleAdmin)
	bob := seedUser(t, r, "Bob", "bob@example.com", models.RoleAdmin)

	// 两个管理员同时删对方，只能成一个，另一个要撞上最后管理员保护
	type result struct{ err error }
	results := make(chan result, 2)
	go func() { results <- result{err: r.DeleteUser(ctx, alice.ID, bob.ID)} }()
	go func() { results <- result{err: r.DeleteUser(ctx, bob.ID, alice.ID)} }()

	var okCount, forbiddenCount int
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err == nil {
			okCount++
			continue
		}
		var forbidden *ForbiddenError
		if assert.ErrorAs(t, res.err, &forbidden) {
			forbiddenCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, forbiddenCount)

	n, err := r.CountAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 1, countAuditLogs(t, r, models.AuditDeleteUser))
}

func TestConcurrentCreateItemAndDeleteCategory(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	admin := seedUser(t, r, "Root", "root@example.com", models.RoleAdmin)
	cat, err := r.CreateCategory(ctx, admin.ID, "Cameras")
	require.NoError(t, err)

	delCh := make(chan error, 1)
	createCh := make(chan error, 1)
	go func() { delCh <- r.DeleteCategory(ctx, admin.ID, cat.ID) }()
	go func() {
		_, err := r.CreateItem(ctx, CreateItemInput{Name: "EOS R5", CategoryID: cat.ID})
		createCh <- err
	}()
	delErr, createErr := <-delCh, <-createCh

	// 分类行锁把两边串行化：要么物品先建好、删除报 Conflict，
	// 要么分类先删掉、建物品报 NotFound，不会两边都成功
	if delErr == nil {
		require.ErrorIs(t, createErr, ErrNotFound)
	} else {
		require.NoError(t, createErr)
		var conflict *ConflictError
		require.ErrorAs(t, delErr, &conflict)
	}

	var orphans int64
	require.NoError(t, r.DB.Table(models.ItemTable+" i").
		Joins("LEFT JOIN "+models.CategoryTable+" c ON c.id = i.category_id").
		Where("c.id IS NULL").
		Count(&orphans).Error)
	assert.Zero(t, orphans)
}
