package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv 读取 .env（没有也不报错，容器里直接用环境变量）
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}
