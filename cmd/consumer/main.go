package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/ride-sim/internal/config"
	"github.com/example/ride-sim/internal/ingest"
	"github.com/example/ride-sim/internal/logging"
	"github.com/example/ride-sim/internal/monitor"
	"github.com/example/ride-sim/internal/sim"
	"github.com/example/ride-sim/internal/storage"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total event files consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total event files that failed to parse",
	})
	reportsStored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_reports_stored_total",
		Help: "Total reports written to redis",
	})
	storeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_store_errors_total",
		Help: "Total redis write failures",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, reportsStored, storeErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	cache := storage.NewRedisCache(redisAddr, cfg.RedisPassword, cfg.ReportCacheTTL)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := cache.Ping(r.Context()); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: cfg.KafkaInputTopic, GroupID: cfg.KafkaGroup, MinBytes: 1, MaxBytes: int(cfg.MaxEventsBytes)})
	defer func() {
		_ = r.Close()
		_ = cache.Close()
	}()

	logger.Info("consumer listening", "topic", cfg.KafkaInputTopic, "brokers", brokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
		msgsConsumed.Inc()

		if err := handleMessage(ctx, cache, m.Value, logging.EventTracer(logger)); err != nil {
			logger.Warn("event file dropped", "offset", m.Offset, "error", err)
		}
	}
}

// handleMessage simulates one event file and stores its report under the
// file's fingerprint.
func handleMessage(ctx context.Context, w ReportWriter, payload []byte, tracer sim.Tracer) error {
	batch, err := ingest.Load(bytes.NewReader(payload))
	if err != nil {
		msgsInvalid.Inc()
		return err
	}
	report, err := sim.Run(ctx, batch.Events, sim.WithTracer(tracer))
	if err != nil {
		return err
	}
	if err := storeReportWithRetry(ctx, w, batch.Fingerprint, report, 3, 200*time.Millisecond); err != nil {
		storeErrors.Inc()
		return err
	}
	reportsStored.Inc()
	return nil
}

// ReportWriter is the subset of the report cache the consumer writes to.
type ReportWriter interface {
	Set(ctx context.Context, fingerprint string, r monitor.Report) error
}

// storeReportWithRetry writes the report with retry and doubling backoff.
func storeReportWithRetry(ctx context.Context, w ReportWriter, fingerprint string, r monitor.Report, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = w.Set(ctx, fingerprint, r); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
