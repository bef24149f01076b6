package config

import (
	"fmt"
	"strings"

	"github.com/jiancai-next/internal/constants"
	"github.com/jiancai-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Backend    BackendConfig    `mapstructure:"backend"`
	GuestStore GuestStoreConfig `mapstructure:"guest_store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

// ServerConfig 本地门面服务配置（仅供视图层访问，默认只监听回环地址）
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// BackendConfig 远端商城后端配置
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"` // REST 基础地址
	WSURL   string `mapstructure:"ws_url"`   // WebSocket 推送地址
	// 请求超时秒数。0 表示不设超时：挂起的请求会让 loading 一直保持，
	// 与前端原行为一致，生产环境建议显式配置
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// GuestStoreConfig 游客购物车本地存储配置
type GuestStoreConfig struct {
	Path string `mapstructure:"path"` // sqlite 文件路径
}

// RedisConfig 快照缓存配置（可选）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	// 快照缓存过期秒数
	SnapshotTTLSeconds int `mapstructure:"snapshot_ttl_seconds"`
}

// Addr 返回 redis 连接地址
func (c RedisConfig) Addr() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Port
	if port <= 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// CORSConfig 跨域配置（视图层以 webview/浏览器承载时需要）
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Load 加载配置，找不到配置文件时使用默认值
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./")
	viper.AddConfigPath("../") // 如果从 cmd/agent 运行
	viper.AddConfigPath("./etc")

	viper.SetDefault("server.host", constants.DefaultListenHost)
	viper.SetDefault("server.port", constants.DefaultListenPort)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "agent.log")
	viper.SetDefault("log.max_size_mb", 50)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("backend.base_url", "http://127.0.0.1:8080")
	viper.SetDefault("backend.ws_url", "ws://127.0.0.1:8080/ws/cart")
	viper.SetDefault("backend.timeout_seconds", 0)
	viper.SetDefault("guest_store.path", constants.DefaultGuestStorePath)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "jc")
	viper.SetDefault("redis.snapshot_ttl_seconds", 86400)
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})

	viper.SetEnvPrefix("JIANCAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("读取配置文件失败: %v，使用默认配置\n", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Printf("解析配置失败: %v，使用默认配置\n", err)
		return &Config{}
	}
	return &cfg
}
