package handlers

import (
	"context"
	"testing"

	"github.com/richardbizik/msk-proxy/internal/kafka"
	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// mockProducer is a mock implementation of kafka.Producer for testing.
type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	if fn, ok := args.Get(0).(func([]*kgo.Record) kgo.ProduceResults); ok {
		return fn(rs)
	}
	return args.Get(0).(kgo.ProduceResults)
}

func (m *mockProducer) Close() {
	m.Called()
}

// produced returns the records passed to the i-th ProduceSync call.
func (m *mockProducer) produced(i int) []*kgo.Record {
	return m.Calls[i].Arguments.Get(1).([]*kgo.Record)
}

// ack acknowledges every record on the given partition, starting at offset.
func ack(partition int32, offset int64) func([]*kgo.Record) kgo.ProduceResults {
	return func(rs []*kgo.Record) kgo.ProduceResults {
		results := make(kgo.ProduceResults, 0, len(rs))
		for i, r := range rs {
			r.Partition = partition
			r.Offset = offset + int64(i)
			results = append(results, kgo.ProduceResult{Record: r})
		}
		return results
	}
}

type staticSource struct {
	producer kafka.Producer
	err      error
}

func (s staticSource) Get(context.Context) (kafka.Producer, error) {
	return s.producer, s.err
}

// recordSpans installs an in-memory tracer provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spansByName(spans []sdktrace.ReadOnlySpan) map[string]sdktrace.ReadOnlySpan {
	out := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		out[s.Name()] = s
	}
	return out
}
