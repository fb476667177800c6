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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "pibno")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("storage.driver", "minio")
	v.SetDefault("minio.internal_endpoint", "")
	v.SetDefault("minio.external_endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "pibno")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.public_url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "Pibno")
	v.SetDefault("jwt.ttl_hours", 24)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("admin.email", "admin@pibno.local")
	v.SetDefault("admin.password", "")
	v.SetDefault("feed.page_size", 8)
	v.SetDefault("feed.bootstrap_timeout_ms", 1500)
	v.SetDefault("feed.snapshot_size", 24)
	v.SetDefault("feed.snapshot_file", "./static/posts.json")
	v.SetDefault("feed.default_image", "https://images.unsplash.com/photo-1438232992991-995b7058bbb3?w=800")
	v.SetDefault("upload.avatar_max_bytes", 2621440)
	v.SetDefault("upload.media_max_bytes", 10485760)
	v.SetDefault("upload.avatar_viewport", 300)
	v.SetDefault("cron.feed_snapshot", "0 */10 * * * *")
	v.SetDefault("cron.avatar_cleanup", "@daily")
}

// LoadConfig 从文件加载配置并填充到 Cfg，.env 与 PIBNO_ 前缀的环境变量优先
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("PIBNO")
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

	Cfg = &cfg

	return nil
}
