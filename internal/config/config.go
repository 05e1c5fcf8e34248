package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server        ServerConfig               `mapstructure:"server"`         // 运维接口配置
	Database      DatabaseConfig             `mapstructure:"database"`       // user-partner 主库
	ClickDatabase DatabaseConfig             `mapstructure:"click_database"` // click-history 点击库
	Redis         RedisConfig                `mapstructure:"redis"`          // 运行锁
	Kafka         KafkaConfig                `mapstructure:"kafka"`          // 运行事件
	Pipeline      PipelineConfig             `mapstructure:"pipeline"`       // 入库管线参数
	FX            FXConfig                   `mapstructure:"fx"`             // 汇率源
	Bookmakers    map[string]BookmakerConfig `mapstructure:"bookmakers"`     // 多博彩商独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RedisConfig 为空 URL 时使用无锁实现
type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// KafkaConfig 为空 brokers 时不发送事件
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	BillingTopic string   `mapstructure:"billing_topic"`
}

// PipelineConfig 管线参数
type PipelineConfig struct {
	MinCPATrackerDay int           `mapstructure:"min_cpa_tracker_day"` // tracker 保底阈值
	TxTimeout        time.Duration `mapstructure:"tx_timeout"`          // 单次写库事务超时
	Parallelism      int           `mapstructure:"parallelism"`         // all 命令并发的 campaign 数
}

// FXConfig fastforex 汇率源
type FXConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"`
	RetryCount int    `mapstructure:"retry_count"`
	Proxy      string `mapstructure:"proxy"`
}

// BookmakerConfig 单个博彩商的独立配置
type BookmakerConfig struct {
	BaseURL    string                    `mapstructure:"base_url"`    // API基础地址
	AuthURL    string                    `mapstructure:"auth_url"`    // 登录/Token 地址（OAuth2、会话登录用）
	Timeout    int                       `mapstructure:"timeout"`     // 请求超时（秒）
	RetryCount int                       `mapstructure:"retry_count"` // 重试次数
	Proxy      string                    `mapstructure:"proxy"`       // 代理地址
	Campaigns  map[string]CampaignConfig `mapstructure:"campaigns"`   // campaign 标题 → 凭证与业务常量
}

// CampaignConfig 单个 campaign 的凭证与业务常量
type CampaignConfig struct {
	APIKey       string `mapstructure:"api_key"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	AccountID    string `mapstructure:"account_id"` // 部分博彩商要求的联盟账号

	RevenueSharePercentage float64 `mapstructure:"revenue_share_percentage"` // 本地计算 RS 的比例，如 0.30
	CPAConditionFromRS     float64 `mapstructure:"cpa_condition_from_rs"`    // RS 阈值型 CPA 的门槛
	OnlyPositiveRS         bool    `mapstructure:"only_positive_rs"`         // 阈值判断时负 RS 记 0
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if p := os.Getenv("BETENLACE_CONFIG_DIR"); p != "" {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("USER_PARTNER_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CLICK_HISTORY_DSN"); v != "" {
		cfg.ClickDatabase.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("API_KEY_FX"); v != "" {
		cfg.FX.APIKey = v
	}
	if v := os.Getenv("MIN_CPA_TRACKER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MinCPATrackerDay = n
		}
	}

	// 博彩商凭证：<BOOKMAKER>_<CAMPAIGN>_<FIELD>，如 YAJUEGO_YAJUEGO_80_ACCESS_KEY
	for name, bm := range cfg.Bookmakers {
		for title, cc := range bm.Campaigns {
			prefix := EnvPrefix(name, title)
			overrideString(&cc.APIKey, prefix+"_API_KEY")
			overrideString(&cc.AccessKey, prefix+"_ACCESS_KEY")
			overrideString(&cc.SecretKey, prefix+"_SECRET_KEY")
			overrideString(&cc.ClientID, prefix+"_CLIENT_ID")
			overrideString(&cc.ClientSecret, prefix+"_CLIENT_SECRET")
			overrideString(&cc.Username, prefix+"_USERNAME")
			overrideString(&cc.Password, prefix+"_PASSWORD")
			bm.Campaigns[title] = cc
		}
		cfg.Bookmakers[name] = bm
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// EnvPrefix 生成凭证环境变量前缀，非字母数字统一替换为下划线
func EnvPrefix(bookmaker, campaign string) string {
	clean := func(s string) string {
		var b strings.Builder
		for _, r := range strings.ToUpper(s) {
			if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			} else {
				b.WriteRune('_')
			}
		}
		return b.String()
	}
	return clean(bookmaker) + "_" + clean(campaign)
}

func applyDefaults(cfg *Config) {
	if cfg.Pipeline.MinCPATrackerDay <= 0 {
		cfg.Pipeline.MinCPATrackerDay = 5
	}
	if cfg.Pipeline.TxTimeout <= 0 {
		cfg.Pipeline.TxTimeout = 5 * time.Minute
	}
	if cfg.Pipeline.Parallelism <= 0 {
		cfg.Pipeline.Parallelism = 4
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Minute
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "pipeline.run.completed"
	}
	if cfg.Kafka.BillingTopic == "" {
		cfg.Kafka.BillingTopic = "billing.closed"
	}
	if cfg.FX.BaseURL == "" {
		cfg.FX.BaseURL = "https://api.fastforex.io"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
}

// Campaign 获取博彩商下指定 campaign 的配置
func (b *BookmakerConfig) Campaign(title string) (CampaignConfig, bool) {
	cc, ok := b.Campaigns[title]
	return cc, ok
}
