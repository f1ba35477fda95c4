package db

import (
	"github.com/luco5826/dsp/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func CreateUser(u *model.User) error {
	return errors.WithStack(db.Create(u).Error)
}

func GetUserByID(id int64) (*model.User, error) {
	var u model.User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrapf(err, "failed find user %d", id)
	}
	return &u, nil
}

func GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrapf(err, "failed find user %s", email)
	}
	return &u, nil
}

func ListUsers() ([]model.User, error) {
	var users []model.User
	err := db.Order("id ASC").Find(&users).Error
	return users, errors.WithStack(err)
}

func CountUsers() (int64, error) {
	var total int64
	err := db.Model(&model.User{}).Count(&total).Error
	return total, errors.WithStack(err)
}
