package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Collector   CollectorConfig   `mapstructure:"collector"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Report      ReportConfig      `mapstructure:"report"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Storage     StorageConfig     `mapstructure:"storage"`
	SSH         SSHConfig         `mapstructure:"ssh"`
	Log         LogConfig         `mapstructure:"log"`
}

// CollectorConfig 采集配置
type CollectorConfig struct {
	// DeviceType 设备平台标签，决定交互插件与解析插件（默认 cisco_ios）
	DeviceType string `mapstructure:"device_type"`
	Port       int    `mapstructure:"port"`
	// SaveRaw 是否归档每台设备的原始命令回显
	SaveRaw bool `mapstructure:"save_raw"`
	// RawPrefix 原始回显归档的顶层目录
	RawPrefix string `mapstructure:"raw_prefix"`
	// OutputFilter 原始输出的行过滤（移除分页提示等）
	OutputFilter OutputFilterConfig `mapstructure:"output_filter"`
	// DebugEchoLines debug 日志中记录的回显首尾行数
	DebugEchoLines int `mapstructure:"debug_echo_lines"`
}

// OutputFilterConfig 输出过滤器配置
type OutputFilterConfig struct {
	Prefixes        []string `mapstructure:"prefixes"`
	Contains        []string `mapstructure:"contains"`
	CaseInsensitive bool     `mapstructure:"case_insensitive"`
	TrimSpace       bool     `mapstructure:"trim_space"`
}

// CredentialsConfig 凭据来源配置
type CredentialsConfig struct {
	// File 凭据文件（YAML：username / password_b64 / enable_secret_b64）
	File string `mapstructure:"file"`
	// MasterKeyEnv 解密 enc: 前缀字段时读取主密钥的环境变量名
	MasterKeyEnv string `mapstructure:"master_key_env"`
}

// ReportConfig 报表输出配置
type ReportConfig struct {
	Filename  string `mapstructure:"filename"`
	SheetName string `mapstructure:"sheet_name"`
	// Upload 报表生成后是否同步写入 storage 后端
	Upload bool   `mapstructure:"upload"`
	Prefix string `mapstructure:"prefix"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig 归档存储配置
type StorageConfig struct {
	// Backend local | minio
	Backend string      `mapstructure:"backend"`
	Local   LocalConfig `mapstructure:"local"`
	Minio   MinioConfig `mapstructure:"minio"`
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	MkdirIfMissing bool   `mapstructure:"mkdir_if_missing"`
}

// MinioConfig 对象存储配置
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// SSHConfig SSH配置
// 超时在 Load 中由 ssh.timeout.* 嵌套块合并得出
type SSHConfig struct {
	ConnectTimeout    time.Duration `mapstructure:"-"`
	CommandTimeout    time.Duration `mapstructure:"-"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
	PromptTimeout     time.Duration `mapstructure:"prompt_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load 加载配置文件
// configPath 为空时在 ./configs 等目录查找 config.yaml；找不到配置文件时使用默认值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("APCOUNTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// ssh.timeout.dial_timeout + auth_timeout（秒）合并为 ConnectTimeout
	dialSec := v.GetInt("ssh.timeout.dial_timeout")
	authSec := v.GetInt("ssh.timeout.auth_timeout")
	config.SSH.ConnectTimeout = time.Duration(dialSec+authSec) * time.Second
	config.SSH.CommandTimeout = time.Duration(v.GetInt("ssh.timeout.command_timeout")) * time.Second

	normalize(&config)
	return &config, nil
}

// Default 返回只包含默认值的配置
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// 仅在找到了损坏的默认配置文件时出现
		v := viper.New()
		setDefaults(v)
		cfg = &Config{}
		_ = v.Unmarshal(cfg)
		cfg.SSH.ConnectTimeout = 7 * time.Second
		cfg.SSH.CommandTimeout = 60 * time.Second
		normalize(cfg)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("collector.device_type", "cisco_ios")
	v.SetDefault("collector.port", 22)
	v.SetDefault("collector.save_raw", false)
	v.SetDefault("collector.raw_prefix", "raw")
	v.SetDefault("collector.debug_echo_lines", 5)
	v.SetDefault("collector.output_filter.case_insensitive", true)
	v.SetDefault("collector.output_filter.trim_space", true)
	v.SetDefault("collector.output_filter.prefixes", []string{"more"})
	v.SetDefault("collector.output_filter.contains", []string{"--more--"})

	v.SetDefault("credentials.file", "configs/secrets.yaml")
	v.SetDefault("credentials.master_key_env", "APCOUNTER_MASTER_KEY")

	v.SetDefault("report.filename", "ap_counts.xlsx")
	v.SetDefault("report.sheet_name", "Sheet1")
	v.SetDefault("report.upload", false)
	v.SetDefault("report.prefix", "reports")

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.sqlite.path", "./data/apcounter.db")
	v.SetDefault("database.sqlite.conn_max_lifetime", time.Hour)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local.base_dir", "./data/archive")
	v.SetDefault("storage.local.mkdir_if_missing", true)
	v.SetDefault("storage.minio.port", 9000)
	v.SetDefault("storage.minio.bucket", "apcounter")

	v.SetDefault("ssh.timeout.dial_timeout", 2)
	v.SetDefault("ssh.timeout.auth_timeout", 5)
	v.SetDefault("ssh.timeout.command_timeout", 60)
	v.SetDefault("ssh.keep_alive_interval", 0)
	v.SetDefault("ssh.prompt_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.file_path", "./logs/apcounter.log")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 30)
}

// normalize 修正非法取值
func normalize(cfg *Config) {
	cfg.Collector.DeviceType = strings.ToLower(strings.TrimSpace(cfg.Collector.DeviceType))
	if cfg.Collector.DeviceType == "" {
		cfg.Collector.DeviceType = "cisco_ios"
	}
	if cfg.Collector.Port < 1 || cfg.Collector.Port > 65535 {
		cfg.Collector.Port = 22
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.SSH.ConnectTimeout <= 0 {
		cfg.SSH.ConnectTimeout = 7 * time.Second
	}
	if cfg.SSH.CommandTimeout <= 0 {
		cfg.SSH.CommandTimeout = 60 * time.Second
	}
	if cfg.SSH.PromptTimeout <= 0 {
		cfg.SSH.PromptTimeout = 10 * time.Second
	}
}

// MinioEndpoint 返回 host:port；未配置 host 时为空串
func (c *Config) MinioEndpoint() string {
	host := strings.TrimSpace(c.Storage.Minio.Host)
	if host == "" || c.Storage.Minio.Port <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", host, c.Storage.Minio.Port)
}
