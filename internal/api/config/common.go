package config

// Config 配置主体
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
	S3      S3Config      `mapstructure:"s3"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Cron    CronConfig    `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}

// LogConfig 日志配置，File 非空时同时写入文件
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// StorageConfig 选择对象存储实现: minio | s3
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	Bucket           string `mapstructure:"bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	ExternalUseSSL   bool   `mapstructure:"external_use_ssl"`
}

// S3Config AWS S3配置
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PublicURL string `mapstructure:"public_url"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
	TTL    int    `mapstructure:"ttl_hours"`
}

// AdminConfig 默认管理员，启动时自动补齐且不可删除
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type FeedConfig struct {
	PageSize         int    `mapstructure:"page_size"`
	BootstrapTimeout int    `mapstructure:"bootstrap_timeout_ms"`
	SnapshotSize     int    `mapstructure:"snapshot_size"`
	SnapshotFile     string `mapstructure:"snapshot_file"`
	DefaultImage     string `mapstructure:"default_image"`
}

type UploadConfig struct {
	AvatarMaxBytes int64 `mapstructure:"avatar_max_bytes"`
	MediaMaxBytes  int64 `mapstructure:"media_max_bytes"`
	AvatarViewport int   `mapstructure:"avatar_viewport"`
}

// CronConfig 定时任务表达式 (带秒)
type CronConfig struct {
	FeedSnapshot  string `mapstructure:"feed_snapshot"`
	AvatarCleanup string `mapstructure:"avatar_cleanup"`
}
