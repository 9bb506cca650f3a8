package main

import (
	"Gin_postgres_redis_lending_tracker/app"
	"Gin_postgres_redis_lending_tracker/config"
	"Gin_postgres_redis_lending_tracker/controllers"
	"Gin_postgres_redis_lending_tracker/routes"
	"context"
	"log"
	"os"
)

func main() {
	config.LoadEnv()
	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	// 系统里一个管理员都没有时种第一个
	s := controllers.GetSrv(application)
	app.BootstrapFirstAdmin(context.Background(), application.Config, s.Repo)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
