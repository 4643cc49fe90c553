package main

import (
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/richardbizik/msk-proxy/internal/handlers"
	"github.com/richardbizik/msk-proxy/internal/logging"
)

func main() {
	// The consumer never talks to kafka itself, so only the log settings matter.
	conf, err := config.ReadLogEnv()
	logging.Setup(conf)
	if err != nil {
		slog.Warn("unable to read log config, using defaults", "error", err)
	}

	lambda.Start(handlers.NewConsumer(conf.Event).Handle)
}
