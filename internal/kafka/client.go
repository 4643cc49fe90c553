package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

const dialTimeout = 10 * time.Second

func New(opts []kgo.Opt) (*kgo.Client, error) {
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return client, nil
}

// GetDefaultConfig translates the kafka config into client options. The iam
// mechanism always talks TLS because MSK only accepts SASL_SSL for it.
func GetDefaultConfig(conf config.KafkaConfig) ([]kgo.Opt, error) {
	topic := conf.Topic
	if topic == "" {
		topic = config.TopicName
	}
	options := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.WithLogger(newKLogger(slog.Default())),
		kgo.DefaultProduceTopic(topic),
	}
	if conf.ConnIdleTimeout > 0 {
		options = append(options, kgo.ConnIdleTimeout(conf.ConnIdleTimeout))
	}
	if conf.RetryBackoff > 0 {
		backoff := conf.RetryBackoff
		options = append(options, kgo.RetryBackoffFn(func(int) time.Duration { return backoff }))
	}

	mechanism := strings.ToLower(conf.Auth.Mechanism)

	if conf.Auth.TLS.Enabled || mechanism == config.MechanismIAM {
		tlsConfig, err := newTLSConfig(conf.Auth.TLS)
		if err != nil {
			return nil, err
		}
		tlsDialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: dialTimeout},
			Config:    tlsConfig,
		}
		options = append(options, kgo.Dialer(tlsDialer.DialContext))
	} else {
		plainDialer := &net.Dialer{Timeout: dialTimeout}
		options = append(options, kgo.Dialer(plainDialer.DialContext))
	}

	switch mechanism {
	case config.MechanismIAM:
		options = append(options, kgo.SASL(iamMechanism(nil)))
	case config.MechanismScram:
		scram := scram.Auth{
			User: conf.Auth.Username,
			Pass: conf.Auth.Password,
		}
		if conf.Auth.Scram == 256 {
			options = append(options, kgo.SASL(scram.AsSha256Mechanism()))
		} else if conf.Auth.Scram == 512 {
			options = append(options, kgo.SASL(scram.AsSha512Mechanism()))
		} else {
			return nil, fmt.Errorf("invalid scram alg %d: must be 256 or 512", conf.Auth.Scram)
		}
	case config.MechanismPlain:
		options = append(options, kgo.SASL(plain.Auth{
			User: conf.Auth.Username,
			Pass: conf.Auth.Password,
		}.AsMechanism()))
	case config.MechanismNone:
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMechanism, conf.Auth.Mechanism)
	}

	return options, nil
}

func newTLSConfig(conf config.TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if conf.CAPath != "" {
		caCert, err := os.ReadFile(conf.CAPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("unable to append CA: %s", conf.CAPath)
		}
		tlsConfig.RootCAs = pool
	}
	if conf.CertPath != "" || conf.KeyPath != "" {
		if conf.CertPath == "" || conf.KeyPath == "" {
			return nil, config.ErrCertKeyPair
		}
		cert, err := tls.LoadX509KeyPair(conf.CertPath, conf.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("unable to load kafka cert and key pair: %s, %s. %w", conf.CertPath, conf.KeyPath, err)
		}
		tlsConfig.Certificates = append(tlsConfig.Certificates, cert)
	}
	return tlsConfig, nil
}
