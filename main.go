package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/richardbizik/msk-proxy/internal/config"
	"github.com/richardbizik/msk-proxy/internal/handlers"
	"github.com/richardbizik/msk-proxy/internal/kafka"
	"github.com/richardbizik/msk-proxy/internal/logging"
	"github.com/richardbizik/msk-proxy/internal/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	srv       *http.Server
	producers *kafka.LazyClient
	tp        *sdktrace.TracerProvider
)

func main() {
	conf, err := config.InitConfig()
	if err != nil {
		slog.Error("unable to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(conf.Log)

	tp, err = tracing.Setup(context.Background(), conf.Log.Service, conf.Trace)
	if err != nil {
		slog.Error("unable to set up tracing", "error", err)
		os.Exit(1)
	}

	producers = kafka.NewLazyClient(conf.Kafka)
	proxy := handlers.NewProxy(producers, conf)

	srv = &http.Server{
		ReadHeaderTimeout: time.Second * 5,
		Addr:              fmt.Sprintf(":%d", conf.Server.Port),
		Handler:           setupServer(proxy),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error(err.Error())
		}
	}()
	appStop := make(chan os.Signal, 2)
	slog.Info("Started server", "addr", srv.Addr, "brokers", conf.Kafka.Brokers, "topic", conf.Kafka.Topic)
	handleSigterm(appStop)
}

func setupServer(proxy *handlers.Proxy) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/", handlers.ProduceKafkaEventHandler(proxy))
	return r
}

func handleSigterm(appStop chan os.Signal) {
	signal.Notify(appStop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-appStop
	slog.Info("Received sigterm shutting down")
	cleanup()
}

func cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server forced to shutdown", "error", err)
	}
	producers.Close()
	if err := tp.Shutdown(ctx); err != nil {
		slog.Error("tracer provider shutdown", "error", err)
	}
}
