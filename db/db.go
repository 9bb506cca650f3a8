package db

import (
	"Gin_postgres_redis_lending_tracker/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.LendingLog{},
		&models.AdminAuditLog{},
	); err != nil {
		return err
	}

	// 同一物品最多一条“未归还”——核心不变量的数据库兜底
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_item
	  ON %s (item_id)
	  WHERE date_returned IS NULL;
	`, models.LendingLogTable, models.LendingLogTable)).Error; err != nil {
		return err
	}

	// 查询借还历史更快（按物品、借出时间倒序）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_item_datelent_desc
	  ON %s (item_id, date_lent DESC);
	`, models.LendingLogTable, models.LendingLogTable)).Error; err != nil {
		return err
	}

	// 分类名不区分大小写唯一
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_lower_name
	  ON %s (LOWER(name));
	`, models.CategoryTable, models.CategoryTable)).Error; err != nil {
		return err
	}

	// "有物品引用的分类不能删" 的数据库兜底：外键让并发的
	// 建物品 / 删分类在行锁上串行化，不会留下孤儿 category_id
	if err := db.Exec(fmt.Sprintf(`
	  DO $$
	  BEGIN
	    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%[1]s_category_fk') THEN
	      ALTER TABLE %[1]s ADD CONSTRAINT %[1]s_category_fk
	        FOREIGN KEY (category_id) REFERENCES %[2]s (id);
	    END IF;
	  END $$;
	`, models.ItemTable, models.CategoryTable)).Error; err != nil {
		return err
	}

	return nil
}
