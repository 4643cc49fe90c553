package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/richardbizik/msk-proxy/internal/handlers"
	"github.com/richardbizik/msk-proxy/internal/kafka"
	"github.com/richardbizik/msk-proxy/internal/logging"
	"github.com/richardbizik/msk-proxy/internal/tracing"
)

func main() {
	conf, err := config.InitFromEnv()
	if err != nil {
		slog.Error("unable to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(conf.Log)

	tp, err := tracing.Setup(context.Background(), conf.Log.Service, conf.Trace)
	if err != nil {
		slog.Error("unable to set up tracing", "error", err)
		os.Exit(1)
	}

	// The client outlives single invocations and is reused while the instance stays warm.
	producers := kafka.NewLazyClient(conf.Kafka)
	proxy := handlers.NewProxy(producers, conf)

	// The sandbox may freeze right after a response, so spans are flushed per invocation.
	handle := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := proxy.Handle(ctx, req)
		if ferr := tp.ForceFlush(ctx); ferr != nil {
			slog.Warn("flushing spans", "error", ferr)
		}
		return resp, err
	}

	lambda.StartWithOptions(handle, lambda.WithEnableSIGTERM(func() {
		producers.Close()
		_ = tp.Shutdown(context.Background())
	}))
}
