package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（匹配 config/config.yaml）
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`     // 服务器配置
	Postgres  PostgresConfig            `mapstructure:"postgres"`   // PostgreSQL 配置
	RateLimit RateLimitConfig           `mapstructure:"rate_limit"` // 作答接口限流配置
	Collector map[string]PlatformConfig `mapstructure:"collector"`  // 各平台采集配置（key 为平台名小写）
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin 运行模式：debug/release/test
}

// PostgresConfig PostgreSQL 数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接 DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RateLimitConfig 作答接口限流配置（令牌桶，按客户端 IP）
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`   // 每秒补充令牌数
	Burst int     `mapstructure:"burst"` // 桶容量
}

// PlatformConfig 单个平台的采集配置
type PlatformConfig struct {
	BaseURL    string `mapstructure:"base_url"`    // API 基础地址
	SearchPath string `mapstructure:"search_path"` // 检索接口路径
	Timeout    int    `mapstructure:"timeout"`     // 请求超时（秒）
	PageSize   int    `mapstructure:"page_size"`   // 单次拉取条数
	UserAgent  string `mapstructure:"user_agent"`  // 自定义 UA（Reddit 等要求非默认 UA）
	Proxy      string `mapstructure:"proxy"`       // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	// 4. 限流缺省值
	if cfg.RateLimit.RPS <= 0 {
		cfg.RateLimit.RPS = 10
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 20
	}
	return &cfg, nil
}
