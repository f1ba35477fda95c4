package conf

import (
	"path/filepath"
)

type Database struct {
	Type        string `json:"type" env:"TYPE"`
	Host        string `json:"host" env:"HOST"`
	Port        int    `json:"port" env:"PORT"`
	User        string `json:"user" env:"USER"`
	Password    string `json:"password" env:"PASS"`
	Name        string `json:"name" env:"NAME"`
	DBFile      string `json:"db_file" env:"FILE"`
	TablePrefix string `json:"table_prefix" env:"TABLE_PREFIX"`
	SSLMode     string `json:"ssl_mode" env:"SSL_MODE"`
}

type LogConfig struct {
	Enable     bool   `json:"enable" env:"ENABLE"`
	Name       string `json:"name" env:"NAME"`
	MaxSize    int    `json:"max_size" env:"MAX_SIZE"`
	MaxBackups int    `json:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `json:"max_age" env:"MAX_AGE"`
	Compress   bool   `json:"compress" env:"COMPRESS"`
}

type Config struct {
	Address   string    `json:"address" env:"ADDR"`
	Port      int       `json:"port" env:"PORT"`
	JwtSecret string    `json:"jwt_secret" env:"JWT_SECRET"`
	PageSize  int       `json:"page_size" env:"PAGE_SIZE"`
	DataDir   string    `json:"data_dir" env:"DATA_DIR"`
	Cors      []string  `json:"cors" env:"CORS" envSeparator:","`
	Database  Database  `json:"database" envPrefix:"DB_"`
	Log       LogConfig `json:"log" envPrefix:"LOG_"`
}

func DefaultConfig() *Config {
	return &Config{
		Address:   "0.0.0.0",
		Port:      5000,
		JwtSecret: "change me",
		PageSize:  10,
		DataDir:   "data",
		Cors:      []string{"*"},
		Database: Database{
			Type:   "sqlite3",
			DBFile: filepath.Join("data", "data.db"),
		},
		Log: LogConfig{
			Enable:     true,
			Name:       filepath.Join("data", "log", "dsp.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
		},
	}
}

var Conf *Config
