package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/pkg/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func InitDB() {
	database := conf.Conf.Database
	gormConfig := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: database.TablePrefix,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	}
	var dialector gorm.Dialector
	switch database.Type {
	case "sqlite3":
		if err := os.MkdirAll(filepath.Dir(database.DBFile), 0o700); err != nil {
			utils.Log.Fatalf("failed to create db dir: %+v", err)
		}
		dialector = sqlite.Open(fmt.Sprintf("%s?_journal=WAL&_vacuum=incremental", database.DBFile))
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			database.User, database.Password, database.Host, database.Port, database.Name)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			database.Host, database.User, database.Password, database.Name, database.Port, database.SSLMode)
		dialector = postgres.Open(dsn)
	default:
		utils.Log.Fatalf("unsupported database type: %s", database.Type)
	}
	handle, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		utils.Log.Fatalf("failed to connect database: %+v", err)
	}
	if err := db.Init(handle); err != nil {
		utils.Log.Fatalf("failed to init database: %+v", err)
	}
}
