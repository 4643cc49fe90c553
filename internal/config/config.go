package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/richardbizik/msk-proxy/internal/profile"
)

// TopicName is the topic every proxied message ends up in unless overridden.
const TopicName = "messages"

const (
	MechanismIAM   = "iam"
	MechanismScram = "scram"
	MechanismPlain = "plain"
	MechanismNone  = "none"
)

var (
	ErrNoBrokers        = errors.New("no kafka brokers configured")
	ErrUnknownMechanism = errors.New("unknown kafka auth mechanism")
	ErrScramVariant     = errors.New("scram variant must be 256 or 512")
	ErrCertKeyPair      = errors.New("both kafka cert and key path must be specified")
)

type Config struct {
	Kafka  KafkaConfig  `yaml:"kafka" json:"kafka"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Trace  TraceConfig  `yaml:"trace" json:"trace"`
	Server ServerConfig `yaml:"server" json:"server"`
}

type KafkaConfig struct {
	// Brokers specifies kafka brokers list that are part of a cluster
	Brokers []string `yaml:"brokers" json:"brokers" env:"bootstrap_server" env-separator:","`
	// Auth specifies the auth mechanism and credential to be used while communicating with the cluster
	Auth KafkaAuth `yaml:"auth" json:"auth"`

	Topic string `yaml:"topic" json:"topic" env:"KAFKA_TOPIC" env-default:"messages"`

	ConnIdleTimeout time.Duration `yaml:"connIdleTimeout" json:"connIdleTimeout" env:"KAFKA_CONN_IDLE_TIMEOUT" env-default:"60s"`
	RetryBackoff    time.Duration `yaml:"retryBackoff" json:"retryBackoff" env:"KAFKA_RETRY_BACKOFF" env-default:"1s"`
	// ProduceTimeout bounds how long a single publish waits for the broker ack
	ProduceTimeout time.Duration `yaml:"produceTimeout" json:"produceTimeout" env:"KAFKA_PRODUCE_TIMEOUT" env-default:"10s"`
}

type KafkaAuth struct {
	// Mechanism is one of iam, scram, plain or none
	Mechanism string    `yaml:"mechanism" env:"KAFKA_AUTH_MECHANISM" env-default:"iam"`
	Username  string    `yaml:"user" env:"KAFKA_USERNAME"`
	Password  string    `yaml:"pass" env:"KAFKA_PASSWORD"`
	Scram     int       `yaml:"scram" env:"KAFKA_SCRAM" env-default:"512"`
	TLS       TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	// Enabled is implied by the iam mechanism
	Enabled  bool   `yaml:"enabled" env:"KAFKA_TLS_ENABLED"`
	CAPath   string `yaml:"caPath" env:"KAFKA_TLS_CA_PATH"`
	CertPath string `yaml:"certPath" env:"KAFKA_TLS_CERT_PATH"`
	KeyPath  string `yaml:"keyPath" env:"KAFKA_TLS_KEY_PATH"`
}

type LogConfig struct {
	Level   string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format  string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	Service string `yaml:"service" env:"POWERTOOLS_SERVICE_NAME" env-default:"msk-proxy"`
	// Event logs every inbound event when set, lambdas default it to true
	Event bool `yaml:"event" env:"LOG_EVENT"`
}

type TraceConfig struct {
	// Endpoint of the OTLP/HTTP collector, the ADOT lambda layer listens on localhost:4318
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
}

// InitConfig reads the profile config file and overlays the environment on top of it.
func InitConfig() (Config, error) {
	c := Config{}
	var fileName string
	confFile := os.Getenv("CONFIG_FILE")
	if confFile == "" {
		wd, err := os.Getwd()
		if err != nil {
			return c, err
		}
		fileName = fmt.Sprintf("%s/conf-%s.yaml", wd, strings.ToLower(string(profile.Current)))
	} else {
		fileName = confFile
	}
	if err := cleanenv.ReadConfig(fileName, &c); err != nil {
		return c, fmt.Errorf("reading config file %s: %w", fileName, err)
	}
	return finish(c)
}

// InitFromEnv builds the config purely from the environment, which is all a lambda gets.
func InitFromEnv() (Config, error) {
	c := Config{}
	if err := cleanenv.ReadEnv(&c); err != nil {
		return c, fmt.Errorf("reading config from env: %w", err)
	}
	c.Log = lambdaLogDefaults(c.Log)
	return finish(c)
}

// ReadLogEnv reads only the log settings, with the lambda defaults applied.
func ReadLogEnv() (LogConfig, error) {
	var c LogConfig
	if err := cleanenv.ReadEnv(&c); err != nil {
		return lambdaLogDefaults(c), fmt.Errorf("reading log config from env: %w", err)
	}
	return lambdaLogDefaults(c), nil
}

// lambdaLogDefaults turns event logging on unless LOG_EVENT was set explicitly.
func lambdaLogDefaults(c LogConfig) LogConfig {
	if _, ok := os.LookupEnv("LOG_EVENT"); !ok {
		c.Event = true
	}
	return c
}

func finish(c Config) (Config, error) {
	c.Kafka.Brokers = cleanBrokers(c.Kafka.Brokers)
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	return c.Kafka.Validate()
}

func (k KafkaConfig) Validate() error {
	var errs []error
	if len(k.Brokers) == 0 {
		errs = append(errs, ErrNoBrokers)
	}
	switch strings.ToLower(k.Auth.Mechanism) {
	case MechanismIAM, MechanismPlain, MechanismNone:
	case MechanismScram:
		if k.Auth.Scram != 256 && k.Auth.Scram != 512 {
			errs = append(errs, fmt.Errorf("%w: got %d", ErrScramVariant, k.Auth.Scram))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownMechanism, k.Auth.Mechanism))
	}
	if (k.Auth.TLS.CertPath == "") != (k.Auth.TLS.KeyPath == "") {
		errs = append(errs, ErrCertKeyPair)
	}
	return errors.Join(errs...)
}

func cleanBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
