package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	Storage      Storage
	Log          Log
	GeminiApiKey string
	AnswerKeyTTL time.Duration
}

type Server struct {
	Port    string
	GinMode string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Redis is optional. An empty Addr keeps answer keys in process memory.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Storage struct {
	Root      string
	URLPrefix string
}

type Log struct {
	Level  string
	Pretty bool
}

// NewConfig reads .env from the working directory, or the file bound to
// ENV_FILE, then lets environment variables override it.
func NewConfig() (*Config, error) {
	if file := viper.GetString("ENV_FILE"); file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(".env")
		viper.AddConfigPath(".")
	}
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("ANSWER_KEY_TTL", "10m")
	viper.SetDefault("UPLOAD_ROOT", "./wwwroot")
	viper.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")

	config.Storage.Root = viper.GetString("UPLOAD_ROOT")
	config.Storage.URLPrefix = viper.GetString("UPLOAD_URL_PREFIX")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.AnswerKeyTTL = viper.GetDuration("ANSWER_KEY_TTL")
	if config.AnswerKeyTTL <= 0 {
		config.AnswerKeyTTL = 10 * time.Minute
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("db_host", config.Database.Host).
		Str("db_name", config.Database.Name).
		Str("redis", config.Redis.Addr).
		Str("upload_root", config.Storage.Root).
		Dur("answer_key_ttl", config.AnswerKeyTTL).
		Msg("Config loaded")
	return &config, nil
}

// DSN is the postgres connection string for gorm.
func (d Database) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode
}
