package observability

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zepp_bridge_requests_total",
			Help: "Total HTTP requests by endpoint and method.",
		},
		[]string{"endpoint", "method"},
	)

	WebhookCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zepp_bridge_webhook_requests_total",
			Help: "Webhook deliveries by device and outcome.",
		},
		[]string{"device", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, WebhookCounter)
}

func Setup() (shutdown func(), promHandler http.Handler, tracer oteltrace.Tracer) {
	promExporter, err := otelprom.New()
	if err != nil {
		slog.Error("create prometheus exporter", "err", err)
		os.Exit(1)
	}
	meterProvider := otelmetric.NewMeterProvider(otelmetric.WithReader(promExporter))
	otel.SetMeterProvider(meterProvider)

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "zepp-bridge"),
		),
	)
	if err != nil {
		slog.Error("create otel resource", "err", err)
		os.Exit(1)
	}

	var tp *trace.TracerProvider
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		exp, err := otlptracehttp.New(context.Background(), otlptracehttp.WithEndpointURL(endpoint))
		if err != nil {
			slog.Error("create otlp exporter", "err", err)
			os.Exit(1)
		}
		tp = trace.NewTracerProvider(
			trace.WithBatcher(exp),
			trace.WithResource(res),
		)
	} else {
		tp = trace.NewTracerProvider(trace.WithResource(res))
	}
	otel.SetTracerProvider(tp)

	shutdown = func() {
		_ = tp.Shutdown(context.Background())
	}
	promHandler = promhttp.Handler()
	tracer = otel.Tracer("zepp-bridge")
	return shutdown, promHandler, tracer
}

// Middleware for per-endpoint Prometheus counting and tracing.
func MetricsAndTracingMiddleware(tracer oteltrace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			endpoint := r.URL.Path
			method := r.Method
			RequestCounter.WithLabelValues(endpoint, method).Inc()

			rw := &statusRecorder{ResponseWriter: w, status: 200}
			ctx, span := tracer.Start(r.Context(), method+" "+endpoint)
			span.SetAttributes(
				attribute.String("http.method", method),
				attribute.String("http.target", endpoint),
			)
			next.ServeHTTP(rw, r.WithContext(ctx))
			span.SetAttributes(attribute.Int("http.status_code", rw.status))
			span.End()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
