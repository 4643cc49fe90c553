package kafka

import (
	"context"
	"fmt"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/twmb/franz-go/pkg/sasl"
	kaws "github.com/twmb/franz-go/pkg/sasl/aws"
)

const iamUserAgent = "msk-proxy"

// iamCredentials resolves AWS credentials for the MSK IAM handshake. The
// default chain is only loaded on the first handshake, so building client
// options never touches the network.
type iamCredentials struct {
	mu       sync.Mutex
	provider awssdk.CredentialsProvider
	load     func(ctx context.Context) (awssdk.CredentialsProvider, error)
}

func iamMechanism(provider awssdk.CredentialsProvider) sasl.Mechanism {
	c := &iamCredentials{provider: provider, load: loadDefaultProvider}
	return kaws.ManagedStreamingIAM(c.auth)
}

func loadDefaultProvider(ctx context.Context) (awssdk.CredentialsProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return cfg.Credentials, nil
}

func (c *iamCredentials) auth(ctx context.Context) (kaws.Auth, error) {
	provider, err := c.resolve(ctx)
	if err != nil {
		return kaws.Auth{}, err
	}
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return kaws.Auth{}, fmt.Errorf("retrieving aws credentials: %w", err)
	}
	return kaws.Auth{
		AccessKey:    creds.AccessKeyID,
		SecretKey:    creds.SecretAccessKey,
		SessionToken: creds.SessionToken,
		UserAgent:    iamUserAgent,
	}, nil
}

func (c *iamCredentials) resolve(ctx context.Context) (awssdk.CredentialsProvider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	p, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.provider = p
	return p, nil
}
