package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
// 加载顺序: .env -> configs/config.yaml -> INKWELL_ 前缀的环境变量
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file, skipped")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvPrefix("INKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		log.Warn("config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}

	Cfg = &cfg

	return nil
}

// setDefaults 未配置时的兜底值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.slow_ms", 100)
	v.SetDefault("minio.bucket", "articleimg")
	v.SetDefault("minio.path_prefix", "blog-images")
	v.SetDefault("kafka.topic", "inkwell.posts")
	v.SetDefault("jwt.issuer", "Inkwell")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.index", "logstash-inkwell")
	v.SetDefault("draft.ttl", 120)
	v.SetDefault("draft.submit_lock", 30)
	v.SetDefault("draft.history_size", 100)
}
