package routes

import (
	"Gin_postgres_redis_lending_tracker/app"
	"Gin_postgres_redis_lending_tracker/controllers"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	userCtl := controllers.NewUserController(s)
	catCtl := controllers.NewCategoryController(s)
	itemCtl := controllers.NewItemController(s)
	auditCtl := controllers.NewAuditLogController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// 登录 / 登出 / whoami
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/login", authCtl.Login)
		auth.POST("/logout", authCtl.Logout)
		auth.GET("/whoami", authMW, authCtl.Whoami)
	}

	// ------------------------------
	// 物品与借还
	// ------------------------------
	items := r.Group("/api/items", authMW, seenMW)
	{
		items.GET("", itemCtl.ListItems)
		items.GET("/:id", itemCtl.GetItem)
		items.POST("/:id/lend", itemCtl.Lend)
		items.POST("/:id/return", itemCtl.Return)
		items.GET("/:id/history", itemCtl.History)
	}

	itemsAdmin := r.Group("/api/items", authMW, adminMW)
	{
		itemsAdmin.POST("", itemCtl.CreateItem)
		itemsAdmin.PUT("/:id", itemCtl.UpdateItem)
		itemsAdmin.DELETE("/:id", itemCtl.DeleteItem)
	}

	// 全局借还记录（仅管理员）
	logs := r.Group("/api/lending-logs", authMW, adminMW)
	{
		logs.GET("", itemCtl.ListLendingLogs)
	}

	// ------------------------------
	// 分类（读所有人，写仅管理员）
	// ------------------------------
	cats := r.Group("/api/categories", authMW, seenMW)
	{
		cats.GET("", catCtl.ListCategories)
	}
	catsAdmin := r.Group("/api/categories", authMW, adminMW)
	{
		catsAdmin.POST("", catCtl.CreateCategory)
		catsAdmin.PUT("/:id", catCtl.UpdateCategory)
		catsAdmin.DELETE("/:id", catCtl.DeleteCategory)
	}

	// ------------------------------
	// 用户管理（仅管理员）
	// ------------------------------
	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", userCtl.ListUsers) // ?q=&page=&size=
		users.GET("/:id", userCtl.GetUser)
		users.POST("", userCtl.CreateUser)
		users.PUT("/:id", userCtl.UpdateUser)
		users.DELETE("/:id", userCtl.DeleteUser)
	}

	// ------------------------------
	// 审计台账（仅管理员，只读）
	// ------------------------------
	audit := r.Group("/api/audit-logs", authMW, adminMW)
	{
		audit.GET("", auditCtl.ListAuditLogs)
	}
}
