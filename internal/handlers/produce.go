package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const RequestIDHeader = "X-Request-Id"

// ProduceKafkaEventHandler serves the proxy over plain HTTP by dressing the
// request up as an API Gateway event.
func ProduceKafkaEventHandler(proxy *Proxy) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusExpectationFailed)
			w.Write([]byte(err.Error()))
			return
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		resp, _ := proxy.Handle(ctx, events.APIGatewayProxyRequest{
			HTTPMethod:      r.Method,
			Path:            r.URL.Path,
			Body:            string(body),
			IsBase64Encoded: isBase64(r.Header),
			RequestContext:  events.APIGatewayProxyRequestContext{RequestID: requestID},
		})

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.Header().Set(RequestIDHeader, requestID)
		w.WriteHeader(resp.StatusCode)
		if _, err := io.WriteString(w, resp.Body); err != nil {
			slog.Warn("writing response", "error", err)
		}
	}
}

func isBase64(h http.Header) bool {
	return strings.EqualFold(h.Get("Content-Transfer-Encoding"), "base64")
}
