package model

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"column:name;size:255" json:"name"`
	Email   string `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	PwdHash string `gorm:"column:pwd_hash;size:255" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PwdHash = string(hash)
	return nil
}

func (u *User) ValidatePassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PwdHash), []byte(pwd))
}
