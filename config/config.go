package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Parser   ParserConfig   `mapstructure:"parser"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	ParseCacheTTL time.Duration `mapstructure:"parse_cache_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Output []string `mapstructure:"output"` // stdout / stderr / 文件路径
}

// ParserConfig 课表 PDF 文本解析配置
type ParserConfig struct {
	Programs      []string `mapstructure:"programs"`       // 已知学位项目代码，如 BSCSE / BSDS
	FooterMarkers []string `mapstructure:"footer_markers"` // 页眉页脚等噪声片段，出现即截断
}

// PlannerConfig Section Planner 会话配置
type PlannerConfig struct {
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	MaxSessions       int           `mapstructure:"max_sessions"`
	MaxGeneratedPlans int           `mapstructure:"max_generated_plans"`
	DemoPDFPath       string        `mapstructure:"demo_pdf_path"`
}

// UploadConfig 上传限制配置
type UploadConfig struct {
	MaxPDFSize   int64         `mapstructure:"max_pdf_size"` // 字节
	RateLimit    int           `mapstructure:"rate_limit"`   // 窗口内最大解析次数
	RateWindow   time.Duration `mapstructure:"rate_window"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	Timezone string `mapstructure:"timezone"` // 日历导出使用的时区
	Weeks    int    `mapstructure:"weeks"`    // 日历导出默认重复周数
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.enabled", true)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "uiu_hub")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Dhaka")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.parse_cache_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", []string{"stdout"})

	v.SetDefault("parser.programs", []string{"BSCSE", "BSDS"})
	v.SetDefault("parser.footer_markers", []string{
		"CLASS ROUTINE",
		"United International University",
		"Course Offerings",
		"monir@admin.uiu",
	})

	v.SetDefault("planner.session_ttl", "2h")
	v.SetDefault("planner.max_sessions", 1000)
	v.SetDefault("planner.max_generated_plans", 50)
	v.SetDefault("planner.demo_pdf_path", "")

	v.SetDefault("upload.max_pdf_size", 10*1024*1024) // 10MB
	v.SetDefault("upload.rate_limit", 30)
	v.SetDefault("upload.rate_window", "1m")
	v.SetDefault("upload.max_body_bytes", 12*1024*1024)

	v.SetDefault("export.timezone", "Asia/Dhaka")
	v.SetDefault("export.weeks", 14)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("UIUHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if len(c.Parser.Programs) == 0 {
		return fmt.Errorf("配置校验失败: parser.programs 不能为空")
	}
	for _, p := range c.Parser.Programs {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("配置校验失败: parser.programs 含空项")
		}
	}
	if c.Planner.SessionTTL <= 0 {
		return fmt.Errorf("配置校验失败: planner.session_ttl 必须大于 0")
	}
	if c.Planner.MaxSessions <= 0 {
		return fmt.Errorf("配置校验失败: planner.max_sessions 必须大于 0")
	}
	if c.Planner.MaxGeneratedPlans <= 0 {
		return fmt.Errorf("配置校验失败: planner.max_generated_plans 必须大于 0")
	}
	if c.Export.Weeks <= 0 {
		return fmt.Errorf("配置校验失败: export.weeks 必须大于 0")
	}
	if c.Upload.MaxPDFSize <= 0 {
		return fmt.Errorf("配置校验失败: upload.max_pdf_size 必须大于 0")
	}
	return nil
}
