package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Store     StoreConfig     `mapstructure:"store"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Lock      LockConfig      `mapstructure:"lock"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Cron      CronConfig      `mapstructure:"cron"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// StoreConfig selects the document store backend: fs|postgres|memory.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Root   string `mapstructure:"root"`
}

// ArtifactsConfig selects where ticket CSV/MD files go: fs|s3|memory.
type ArtifactsConfig struct {
	Driver string   `mapstructure:"driver"`
	Root   string   `mapstructure:"root"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

type LockConfig struct {
	Driver   string        `mapstructure:"driver"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Wait     time.Duration `mapstructure:"wait"`
	RetryGap time.Duration `mapstructure:"retry_gap"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	Disabled bool          `mapstructure:"disabled"`
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Issuer   string        `mapstructure:"issuer"`
}

type AuditConfig struct {
	Sink     string `mapstructure:"sink"`
	FilePath string `mapstructure:"file_path"`
	PaaSBase string `mapstructure:"paas_base"`
	PaaSKey  string `mapstructure:"paas_key"`
	Agent    string `mapstructure:"agent"`
}

type PipelineConfig struct {
	Timezone            string  `mapstructure:"timezone"`
	Currency            string  `mapstructure:"currency"`
	DryRunPolicy        string  `mapstructure:"dry_run_policy"`
	MaxOrdersAllowed    int     `mapstructure:"max_orders_allowed"`
	MaxSingleOrderRatio float64 `mapstructure:"max_single_order_ratio"`
	AutoRefreshSummary  bool    `mapstructure:"auto_refresh_summary"`
}

type CronConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OpsSummary string `mapstructure:"ops_summary"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "Asia/Seoul")

	v.SetDefault("store.driver", "fs")
	v.SetDefault("store.root", "reports/live")
	v.SetDefault("artifacts.driver", "fs")
	v.SetDefault("artifacts.root", "reports/live/manual_execution_ticket/files")
	v.SetDefault("artifacts.s3.region", "us-east-1")
	v.SetDefault("artifacts.s3.prefix", "manual_execution_ticket/")
	v.SetDefault("artifacts.s3.path_style", false)

	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.prefix", "manualexec:lock:")
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("lock.wait", "10s")
	v.SetDefault("lock.retry_gap", "50ms")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("auth.issuer", "manualexec")

	v.SetDefault("audit.sink", "file")
	v.SetDefault("audit.file_path", "reports/audit/manual_loop_audit.jsonl")
	v.SetDefault("audit.agent", "manualexec")

	// Exchange-local timestamps; KRX runs on KST.
	v.SetDefault("pipeline.timezone", "Asia/Seoul")
	v.SetDefault("pipeline.currency", "KRW")
	v.SetDefault("pipeline.dry_run_policy", "refuse_after_real")
	v.SetDefault("pipeline.max_orders_allowed", 20)
	v.SetDefault("pipeline.max_single_order_ratio", 0.35)
	v.SetDefault("pipeline.auto_refresh_summary", true)

	v.SetDefault("cron.enabled", false)
	v.SetDefault("cron.ops_summary", "0 */5 * * * *")
	v.SetDefault("metrics.enabled", true)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
