package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "EPAY_"

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
	Qazkom    QazkomConfig    `koanf:"qazkom"`
	Epayment  EpaymentConfig  `koanf:"epayment"`
	Notifier  NotifierConfig  `koanf:"notifier"`
	Publisher PublisherConfig `koanf:"publisher"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	AMQP      AMQPConfig      `koanf:"amqp"`
}

// WorkerConfig drives the outbox relay.
type WorkerConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required,min=1"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
	Migrate         bool          `koanf:"migrate"`
	// StatementTimeout and LockTimeout are sent to the server as session settings. Zero leaves the server default.
	StatementTimeout time.Duration `koanf:"statement_timeout"`
	LockTimeout      time.Duration `koanf:"lock_timeout"`
}

type LoggerConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text"`
}

// QazkomConfig holds the merchant credentials and the redirect target of the bank gateway.
type QazkomConfig struct {
	MerchantID          string `koanf:"merchant_id" validate:"required"`
	MerchantName        string `koanf:"merchant_name" validate:"required"`
	CertID              string `koanf:"cert_id" validate:"required,hexadecimal"`
	MerchantKeyPath     string `koanf:"merchant_key_path" validate:"required"`
	MerchantKeyPassword string `koanf:"merchant_key_password"`
	BankCertPath        string `koanf:"bank_cert_path" validate:"required"`
	EpayURI             string `koanf:"epay_uri" validate:"required,url"`
	HTTPMethod          string `koanf:"http_method" validate:"required,oneof=GET POST"`
	Template            string `koanf:"template"`
	PostbackURI         string `koanf:"postback_uri" validate:"required,url"`
	FailureURI          string `koanf:"failure_uri" validate:"required,url"`
	ReturnURI           string `koanf:"return_uri" validate:"required,url"`
	Timezone            string `koanf:"timezone" validate:"required"`
}

// Location is the zone gateway timestamps are written in.
func (c QazkomConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type EpaymentConfig struct {
	// DefaultPaymentURIPattern may contain @INVOICE_NUMBER@, @INVOICE_ID@ and @LANG@.
	DefaultPaymentURIPattern string `koanf:"default_payment_uri_pattern" validate:"required"`
}

type NotifierConfig struct {
	Transport string `koanf:"transport" validate:"required,oneof=log smtp amqp"`
}

type PublisherConfig struct {
	Transport  string        `koanf:"transport" validate:"required,oneof=log kafka"`
	MaxRetries int           `koanf:"max_retries" validate:"min=1"`
	BaseDelay  time.Duration `koanf:"base_delay"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from" validate:"omitempty,email"`
	FromName string `koanf:"from_name"`
}

type KafkaConfig struct {
	Brokers      []string      `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type AMQPConfig struct {
	URL   string `koanf:"url"`
	Queue string `koanf:"queue"`
}

var defaults = map[string]any{
	"server.port":                "8080",
	"server.read_timeout":        "15s",
	"server.write_timeout":       "15s",
	"server.idle_timeout":        "60s",
	"server.request_timeout":     "30s",
	"logger.level":               "info",
	"logger.format":              "json",
	"worker.interval":            "10s",
	"worker.batch_size":          50,
	"qazkom.http_method":         "POST",
	"qazkom.timezone":            "Asia/Almaty",
	"notifier.transport":         "log",
	"publisher.transport":        "log",
	"publisher.max_retries":      3,
	"publisher.base_delay":       "200ms",
	"kafka.topic":                "invoice-events",
	"kafka.write_timeout":        "10s",
	"amqp.queue":                 "notifications",
	"database.ssl_mode":          "disable",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.statement_timeout": "15s",
	"database.lock_timeout":      "5s",
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if err := mainConfig.validateTransports(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
