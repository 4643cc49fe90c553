package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/richardbizik/msk-proxy/internal/kafka"
	"github.com/richardbizik/msk-proxy/internal/logging"
	"github.com/richardbizik/msk-proxy/internal/tracing"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const SuccessBody = "Message successfully pushed to kafka"

// ProducerSource hands out the producer shared by all invocations of a warm instance.
type ProducerSource interface {
	Get(ctx context.Context) (kafka.Producer, error)
}

// Proxy turns API Gateway proxy requests into kafka records.
type Proxy struct {
	producers ProducerSource
	topic     string
	timeout   time.Duration
	logEvent  bool
}

func NewProxy(producers ProducerSource, conf config.Config) *Proxy {
	topic := conf.Kafka.Topic
	if topic == "" {
		topic = config.TopicName
	}
	return &Proxy{
		producers: producers,
		topic:     topic,
		timeout:   conf.Kafka.ProduceTimeout,
		logEvent:  conf.Log.Event,
	}
}

// Handle publishes the request body and maps the outcome to a response. The
// returned error is always nil, failures are reported as a 500 response.
func (p *Proxy) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		ctx = tracing.FromLambda(ctx)
	}
	resp := newResponse()
	requestID := RequestID(ctx, req)

	ctx, span := tracing.Tracer().Start(ctx, "Proxy.Handle",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("faas.invocation_id", requestID)))
	defer span.End()

	logger := logging.ForInvocation(ctx).With("requestId", requestID)
	if p.logEvent {
		logger.Info("received event", "event", req)
	}

	record, err := p.publish(ctx, requestID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Int("http.response.status_code", http.StatusInternalServerError))
		logger.Error(err.Error(), "error", err)
		resp.StatusCode = http.StatusInternalServerError
		resp.Body = err.Error()
		return resp, nil
	}

	logger.Info(fmt.Sprintf("Message was sent to partition %d", record.Partition),
		"topic", record.Topic, "partition", record.Partition, "offset", record.Offset)
	span.SetAttributes(attribute.Int("http.response.status_code", http.StatusOK))
	resp.StatusCode = http.StatusOK
	resp.Body = SuccessBody
	return resp, nil
}

func (p *Proxy) publish(ctx context.Context, key string, req events.APIGatewayProxyRequest) (*kgo.Record, error) {
	message, err := MessageBody(req)
	if err != nil {
		return nil, err
	}
	producer, err := p.producers.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return kafka.Publish(ctx, producer, p.topic, key, message)
}

// MessageBody returns the request body, base64-decoded when the gateway flagged it as encoded.
func MessageBody(req events.APIGatewayProxyRequest) (string, error) {
	if !req.IsBase64Encoded {
		return req.Body, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", fmt.Errorf("decoding base64 body: %w", err)
	}
	return string(decoded), nil
}

// RequestID prefers the lambda invocation id, then the gateway request id,
// and generates one when neither is present.
func RequestID(ctx context.Context, req events.APIGatewayProxyRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if req.RequestContext.RequestID != "" {
		return req.RequestContext.RequestID
	}
	return uuid.NewString()
}

func newResponse() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		Headers: map[string]string{
			"Content-Type":    "application/json",
			"X-Custom-Header": "application/json",
		},
	}
}
