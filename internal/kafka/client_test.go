package kafka

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func kafkaConfig(mechanism string) config.KafkaConfig {
	return config.KafkaConfig{
		Brokers:         []string{"b-1.demo.kafka.eu-west-1.amazonaws.com:9098"},
		Topic:           config.TopicName,
		ConnIdleTimeout: 60 * time.Second,
		RetryBackoff:    time.Second,
		Auth: config.KafkaAuth{
			Mechanism: mechanism,
			Username:  "user",
			Password:  "pass",
			Scram:     512,
		},
	}
}

func TestGetDefaultConfig(t *testing.T) {
	for _, mechanism := range []string{"iam", "IAM", "scram", "plain", "none"} {
		t.Run(mechanism, func(t *testing.T) {
			opts, err := GetDefaultConfig(kafkaConfig(mechanism))
			require.NoError(t, err)

			client, err := New(opts)
			require.NoError(t, err)
			defer client.Close()

			assert.Equal(t, config.TopicName, client.OptValue(kgo.DefaultProduceTopic))
			assert.Equal(t, 60*time.Second, client.OptValue(kgo.ConnIdleTimeout))
		})
	}
}

func TestGetDefaultConfigScram256(t *testing.T) {
	conf := kafkaConfig("scram")
	conf.Auth.Scram = 256
	_, err := GetDefaultConfig(conf)
	assert.NoError(t, err)
}

func TestGetDefaultConfigFallsBackToDefaultTopic(t *testing.T) {
	conf := kafkaConfig("none")
	conf.Topic = ""
	opts, err := GetDefaultConfig(conf)
	require.NoError(t, err)

	client, err := New(opts)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "messages", client.OptValue(kgo.DefaultProduceTopic))
}

func TestGetDefaultConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.pem")

	tests := []struct {
		name   string
		modify func(*config.KafkaConfig)
		is     error
	}{
		{
			name:   "unknown mechanism",
			modify: func(c *config.KafkaConfig) { c.Auth.Mechanism = "kerberos" },
			is:     config.ErrUnknownMechanism,
		},
		{
			name:   "bad scram variant",
			modify: func(c *config.KafkaConfig) { c.Auth.Mechanism = "scram"; c.Auth.Scram = 1 },
		},
		{
			name:   "missing CA file",
			modify: func(c *config.KafkaConfig) { c.Auth.TLS.CAPath = missing },
		},
		{
			name:   "cert without key",
			modify: func(c *config.KafkaConfig) { c.Auth.TLS.CertPath = missing },
			is:     config.ErrCertKeyPair,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conf := kafkaConfig("iam")
			tc.modify(&conf)
			_, err := GetDefaultConfig(conf)
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestNewWrapsClientError(t *testing.T) {
	_, err := New([]kgo.Opt{kgo.SeedBrokers("localhost:9092"), kgo.ConnIdleTimeout(time.Millisecond)})
	require.Error(t, err)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "failed to create kafka client: "), msg)
	assert.NotContains(t, msg, "\n")
}
