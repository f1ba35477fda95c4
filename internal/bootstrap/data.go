package bootstrap

import (
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/pkg/utils"
)

// InitData seeds a first user so a fresh instance can be logged into.
func InitData() {
	total, err := db.CountUsers()
	if err != nil {
		utils.Log.Fatalf("failed to count users: %+v", err)
	}
	if total > 0 {
		return
	}
	admin := model.User{Name: "admin", Email: "admin@dsp.local"}
	if err := admin.SetPassword("password"); err != nil {
		utils.Log.Fatalf("failed to hash seed password: %+v", err)
	}
	if err := db.CreateUser(&admin); err != nil {
		utils.Log.Fatalf("failed to seed user: %+v", err)
	}
	utils.Log.Infof("seeded initial user %s", admin.Email)
}
