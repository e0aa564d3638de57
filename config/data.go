package config

import "github.com/spf13/viper"

// Database storage config struct
type Database struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	AutoMigrate  bool   `json:"auto_migrate"`
	MaxOpenConns int    `json:"max_open_conns"`
}

func getDatabaseConfig(v *viper.Viper) *Database {
	return &Database{
		Driver:       v.GetString("database.driver"),
		DSN:          v.GetString("database.dsn"),
		AutoMigrate:  v.GetBool("database.auto_migrate"),
		MaxOpenConns: v.GetInt("database.max_open_conns"),
	}
}

// Redis config struct, only read when the redis denylist is selected
type Redis struct {
	Addr      string `json:"addr"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

func getRedisConfig(v *viper.Viper) *Redis {
	return &Redis{
		Addr:      v.GetString("redis.addr"),
		Password:  v.GetString("redis.password"),
		DB:        v.GetInt("redis.db"),
		KeyPrefix: v.GetString("redis.key_prefix"),
	}
}
