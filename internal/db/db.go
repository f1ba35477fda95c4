package db

import (
	"github.com/luco5826/dsp/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var db *gorm.DB

// Init installs the shared handle and migrates the schema.
func Init(d *gorm.DB) error {
	db = d
	return errors.WithStack(db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.Assignment{},
	))
}

func GetDb() *gorm.DB {
	return db
}

func Close() {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
