package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/richardbizik/msk-proxy/internal/logging"
)

// Consumer is the MSK event source handler. It only records that it ran.
type Consumer struct {
	logEvent bool
}

func NewConsumer(logEvent bool) *Consumer {
	return &Consumer{logEvent: logEvent}
}

func (c *Consumer) Handle(ctx context.Context, event events.KafkaEvent) (bool, error) {
	logger := logging.ForInvocation(ctx)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With("requestId", lc.AwsRequestID)
	}
	if c.logEvent {
		logger.Info("received event", "event", event)
	}

	count := 0
	for _, records := range event.Records {
		count += len(records)
	}
	logger.Info("Received message!", "eventSource", event.EventSource, "eventSourceArn", event.EventSourceARN, "records", count)

	if logger.Enabled(ctx, slog.LevelDebug) {
		for batch, records := range event.Records {
			for _, r := range records {
				logger.Debug("record",
					"batch", batch,
					"topic", r.Topic,
					"partition", r.Partition,
					"offset", r.Offset,
					"key", decodeOrRaw(r.Key),
					"valueBytes", len(decodeOrRaw(r.Value)))
			}
		}
	}

	return true, nil
}

// decodeOrRaw undoes the base64 encoding MSK applies to keys and values.
func decodeOrRaw(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(b)
}
