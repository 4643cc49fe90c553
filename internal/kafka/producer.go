package kafka

import (
	"context"
	"log/slog"
	"sync"

	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/richardbizik/msk-proxy/internal/tracing"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer is the slice of the franz-go client the proxy needs.
type Producer interface {
	// ProduceSync produces records and waits for broker acknowledgment.
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

var _ Producer = (*kgo.Client)(nil)

// Factory builds a new Producer.
type Factory func() (Producer, error)

// LazyClient hands out one Producer per process, creating it on first use.
// A failed creation is not remembered, the next Get tries again.
type LazyClient struct {
	mu       sync.Mutex
	factory  Factory
	producer Producer
}

func NewLazyClient(conf config.KafkaConfig) *LazyClient {
	return NewLazyClientWithFactory(func() (Producer, error) {
		opts, err := GetDefaultConfig(conf)
		if err != nil {
			return nil, err
		}
		client, err := New(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}

func NewLazyClientWithFactory(factory Factory) *LazyClient {
	return &LazyClient{factory: factory}
}

func (l *LazyClient) Get(ctx context.Context) (Producer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.producer != nil {
		return l.producer, nil
	}

	_, span := tracing.Tracer().Start(ctx, "kafka.connect")
	slog.Info("Connecting to kafka cluster")
	p, err := l.factory()
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	l.producer = p
	return p, nil
}

func (l *LazyClient) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.producer == nil {
		return
	}
	l.producer.Close()
	l.producer = nil
}

// Publish sends a single record and blocks until the broker acknowledged it.
func Publish(ctx context.Context, p Producer, topic, key, value string) (*kgo.Record, error) {
	ctx, span := tracing.Tracer().Start(ctx, topic+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.kafka.message.key", key),
			attribute.Int("messaging.message.body.size", len(value)),
		))

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: []byte(value),
	}
	produced, err := p.ProduceSync(ctx, record).First()
	if err == nil {
		span.SetAttributes(
			attribute.Int("messaging.kafka.destination.partition", int(produced.Partition)),
			attribute.Int64("messaging.kafka.message.offset", produced.Offset),
		)
	}
	tracing.End(span, err)
	return produced, err
}
