package config

import "github.com/spf13/viper"

// Logger logger config struct
type Logger struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  v.GetString("logger.level"),
		Format: v.GetString("logger.format"),
	}
}
