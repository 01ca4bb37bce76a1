package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Generation GenerationConfig `mapstructure:"generation"`
	Commerce   CommerceConfig   `mapstructure:"commerce"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Curation   CurationConfig   `mapstructure:"curation"`
	QA         QAConfig         `mapstructure:"qa"`
	Producer   ProducerConfig   `mapstructure:"producer"`
}

type ServerConfig struct {
	Port     int        `mapstructure:"port"`
	Mode     string     `mapstructure:"mode"`
	APIToken string     `mapstructure:"api_token"`
	CORS     CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	Debug           bool          `mapstructure:"debug"`
}

// StorageConfig configures the S3-compatible bucket for generated images.
// An empty bucket disables uploads and generated images fall back to the
// placeholder.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

type CommerceConfig struct {
	StoreURL      string        `mapstructure:"store_url"`
	AccessToken   string        `mapstructure:"access_token"`
	APIVersion    string        `mapstructure:"api_version"`
	Vendor        string        `mapstructure:"vendor"`
	PublishStatus string        `mapstructure:"publish_status"` // active, draft
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryCount    int           `mapstructure:"retry_count"`
	RetryWait     time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait  time.Duration `mapstructure:"retry_max_wait"`
}

// NotifyConfig configures the transactional email API. Without an API key
// notifications are dropped.
type NotifyConfig struct {
	APIURL        string        `mapstructure:"api_url"`
	APIKey        string        `mapstructure:"api_key"`
	From          string        `mapstructure:"from"`
	To            string        `mapstructure:"to"`
	MarketingList []string      `mapstructure:"marketing_list"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func (n NotifyConfig) Enabled() bool {
	return n.APIKey != "" && n.APIURL != ""
}

type PipelineConfig struct {
	// PublishDelay is the fixed pause after each item, spacing calls to the
	// commerce platform.
	PublishDelay        time.Duration `mapstructure:"publish_delay"`
	PlaceholderImageURL string        `mapstructure:"placeholder_image_url"`
	LockFile            string        `mapstructure:"lock_file"`
	// StaleAfter is the processing lease length. Zero disables the sweep.
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	StaleAction   string        `mapstructure:"stale_action"` // fail, requeue
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type FeedConfig struct {
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	PageSize      int           `mapstructure:"page_size"`
}

type CurationConfig struct {
	MinConfidence       float64 `mapstructure:"min_confidence"`
	MaxPerPeriod        int     `mapstructure:"max_per_period"`
	MaxPerCategory      int     `mapstructure:"max_per_category"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // 0-100
	ManualReview        bool    `mapstructure:"manual_review"`
	Timezone            string  `mapstructure:"timezone"`
}

type QAConfig struct {
	AutoApprove bool `mapstructure:"auto_approve"`
}

type ProducerConfig struct {
	Source     string `mapstructure:"source"`
	BatchSize  int    `mapstructure:"batch_size"`
	Seed       int64  `mapstructure:"seed"`
	StagingDir string `mapstructure:"staging_dir"` // one <source>/manifest.jsonl per staged source
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment specifics come from the environment.
	v.BindEnv("server.api_token", "GHOST_API_TOKEN")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("generation.provider", "GENERATION_PROVIDER")
	v.BindEnv("generation.model", "GENERATION_MODEL")
	v.BindEnv("commerce.store_url", "SHOPIFY_STORE_URL")
	v.BindEnv("commerce.access_token", "SHOPIFY_ACCESS_TOKEN")
	v.BindEnv("notify.api_key", "EMAIL_API_KEY")
	v.BindEnv("notify.to", "NOTIFY_EMAIL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Generation.ResolveEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/ghostline.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.slow_threshold", "500ms")

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "items")

	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.model", "gpt-4o-mini")
	v.SetDefault("generation.image_model", "gpt-image-1")
	v.SetDefault("generation.base_url", "https://api.openai.com/v1")
	v.SetDefault("generation.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("generation.timeout", "60s")

	v.SetDefault("commerce.api_version", "2024-01")
	v.SetDefault("commerce.vendor", "NexusAI")
	v.SetDefault("commerce.publish_status", "active")
	v.SetDefault("commerce.timeout", "30s")
	v.SetDefault("commerce.retry_count", 3)
	v.SetDefault("commerce.retry_wait", "2s")
	v.SetDefault("commerce.retry_max_wait", "30s")

	v.SetDefault("notify.api_url", "https://api.resend.com")
	v.SetDefault("notify.from", "ghostline@localhost")
	v.SetDefault("notify.timeout", "10s")

	v.SetDefault("pipeline.publish_delay", "2s")
	v.SetDefault("pipeline.placeholder_image_url", "https://placehold.co/1024x1024/png?text=Digital+Product")
	v.SetDefault("pipeline.lock_file", "./data/ghostd.lock")
	v.SetDefault("pipeline.stale_after", "0s")
	v.SetDefault("pipeline.stale_action", StaleActionFail)
	v.SetDefault("pipeline.sweep_interval", "1m")

	v.SetDefault("feed.poll_interval", "2s")
	v.SetDefault("feed.retry_interval", "5s")
	v.SetDefault("feed.page_size", 500)

	v.SetDefault("curation.min_confidence", 0.6)
	v.SetDefault("curation.max_per_period", 10)
	v.SetDefault("curation.max_per_category", 0)
	v.SetDefault("curation.similarity_threshold", 70.0)
	v.SetDefault("curation.manual_review", false)
	v.SetDefault("curation.timezone", "UTC")

	v.SetDefault("qa.auto_approve", false)

	v.SetDefault("producer.source", "oracle")
	v.SetDefault("producer.batch_size", 5)
	v.SetDefault("producer.staging_dir", "./data/staging")
}
