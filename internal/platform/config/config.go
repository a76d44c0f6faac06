// Package config reads process configuration from the environment once at startup.
// Feature flags are passed to constructors from here; nothing else reads env vars.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "contractflow/pkg/platform/strings"
)

// Hand-off modes.
const (
	HandoffInline = "inline"
	HandoffHTTP   = "http"
	HandoffKafka  = "kafka"
)

// Server is the complete configuration of the server, worker and CLI binaries.
type Server struct {
	Addr           string
	ServiceName    string
	ServiceVersion string
	BuildSHA       string
	LogLevel       string
	LogFormat      string
	// APIKey protects the webhook and debug routes. Empty disables the check.
	APIKey string

	StrictContractType bool

	Provider ProviderConfig
	Assets   AssetConfig
	SignNow  SignNowConfig
	Stripe   StripeConfig
	ClickUp  ClickUpConfig
	Slack    SlackConfig
	Handoff  HandoffConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Dedupe   DedupeConfig
	Database DatabaseConfig
	Archive  ArchiveConfig
}

// ProviderConfig is the service provider named in the agreement's signature block.
type ProviderConfig struct {
	Company     string
	SignerName  string
	SignerTitle string
}

type AssetConfig struct {
	Dir             string
	LogoBase64      string
	SignatureBase64 string
}

type SignNowConfig struct {
	APIURL          string
	AppURL          string
	BasicToken      string
	Username        string
	Password        string
	SendEmailInvite bool
	Timeout         time.Duration
}

type StripeConfig struct {
	APIURL    string
	SecretKey string
}

type ClickUpConfig struct {
	APIURL string
	Token  string
	ListID string
}

type SlackConfig struct {
	APIURL        string
	BotToken      string
	SigningSecret string
	ChannelID     string
	DMSubmitter   bool
}

type HandoffConfig struct {
	Mode    string
	URL     string
	Secret  string
	Timeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// RedisConfig holds connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DedupeConfig struct {
	TTL time.Duration
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether archiving is configured.
func (c ArchiveConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Only malformed values are errors; missing values take their defaults.
func FromEnv() (Server, error) {
	e := &env{}
	cfg := Server{
		Addr:               e.str("ADDR", ":8080"),
		ServiceName:        e.str("SERVICE_NAME", "contractflow"),
		ServiceVersion:     e.str("SERVICE_VERSION", "dev"),
		BuildSHA:           e.str("BUILD_SHA", "unknown"),
		LogLevel:           e.str("LOG_LEVEL", "info"),
		LogFormat:          e.str("LOG_FORMAT", "json"),
		APIKey:             e.str("API_KEY", ""),
		StrictContractType: e.boolean("STRICT_CONTRACT_TYPE"),
		Provider: ProviderConfig{
			Company:     e.str("PROVIDER_COMPANY", ""),
			SignerName:  e.str("PROVIDER_SIGNER_NAME", ""),
			SignerTitle: e.str("PROVIDER_SIGNER_TITLE", ""),
		},
		Assets: AssetConfig{
			Dir:             e.str("ASSET_DIR", ""),
			LogoBase64:      e.str("LOGO_BASE64", ""),
			SignatureBase64: e.str("SIGNATURE_BASE64", ""),
		},
		SignNow: SignNowConfig{
			APIURL:          e.str("SIGNNOW_API_URL", "https://api.signnow.com"),
			AppURL:          e.str("SIGNNOW_APP_URL", "https://app.signnow.com"),
			BasicToken:      e.str("SIGNNOW_BASIC_TOKEN", ""),
			Username:        e.str("SIGNNOW_USERNAME", ""),
			Password:        e.str("SIGNNOW_PASSWORD", ""),
			SendEmailInvite: e.boolean("SIGNNOW_SEND_EMAIL_INVITE"),
			Timeout:         e.duration("SIGNNOW_TIMEOUT", 30*time.Second),
		},
		Stripe: StripeConfig{
			APIURL:    e.str("STRIPE_API_URL", "https://api.stripe.com"),
			SecretKey: e.str("STRIPE_SECRET_KEY", ""),
		},
		ClickUp: ClickUpConfig{
			APIURL: e.str("CLICKUP_API_URL", "https://api.clickup.com"),
			Token:  e.str("CLICKUP_API_TOKEN", ""),
			ListID: e.str("CLICKUP_LIST_ID", ""),
		},
		Slack: SlackConfig{
			APIURL:        e.str("SLACK_API_URL", "https://slack.com/api"),
			BotToken:      e.str("SLACK_BOT_TOKEN", ""),
			SigningSecret: e.str("SLACK_SIGNING_SECRET", ""),
			ChannelID:     e.str("SLACK_CHANNEL_ID", ""),
			DMSubmitter:   e.boolean("SLACK_DM_SUBMITTER"),
		},
		Handoff: HandoffConfig{
			Mode:    strings.ToLower(e.str("HANDOFF_MODE", HandoffInline)),
			URL:     e.str("HANDOFF_URL", ""),
			Secret:  e.str("HANDOFF_SECRET", ""),
			Timeout: e.duration("HANDOFF_TIMEOUT", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: e.list("KAFKA_BROKERS"),
			Topic:   e.str("KAFKA_TOPIC", "contract-submissions"),
			Group:   e.str("KAFKA_GROUP", "contractflow-worker"),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Dedupe: DedupeConfig{
			TTL: e.duration("DEDUPE_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:          e.str("DATABASE_URL", ""),
			MaxOpenConns: e.integer("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns: e.integer("DB_MAX_IDLE_CONNS", 2),
		},
		Archive: ArchiveConfig{
			Endpoint:  e.str("ARCHIVE_ENDPOINT", ""),
			AccessKey: e.str("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: e.str("ARCHIVE_SECRET_KEY", ""),
			Bucket:    e.str("ARCHIVE_BUCKET", ""),
			UseSSL:    e.boolean("ARCHIVE_USE_SSL"),
		},
	}
	if e.err != nil {
		return Server{}, e.err
	}
	return cfg, cfg.validate()
}

func (c Server) validate() error {
	switch c.Handoff.Mode {
	case HandoffInline:
	case HandoffHTTP:
		if c.Handoff.URL == "" || c.Handoff.Secret == "" {
			return fmt.Errorf("HANDOFF_MODE=http requires HANDOFF_URL and HANDOFF_SECRET")
		}
	case HandoffKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("HANDOFF_MODE=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown HANDOFF_MODE %q", c.Handoff.Mode)
	}
	return nil
}

// env collects the first parse error so FromEnv reads like a table.
type env struct {
	err error
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) boolean(key string) bool {
	v := e.str(key, "")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
	}
	return b
}

func (e *env) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *env) list(key string) []string {
	return platformstrings.SplitList(e.str(key, ""), ",")
}

func (e *env) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
