package httpapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-sim/internal/config"
	"github.com/example/ride-sim/internal/ingest"
	"github.com/example/ride-sim/internal/logging"
	"github.com/example/ride-sim/internal/notify"
	"github.com/example/ride-sim/internal/observability"
	"github.com/example/ride-sim/internal/sim"
	"github.com/example/ride-sim/internal/storage"
	"github.com/example/ride-sim/internal/stream"
)

// TraceSink receives the events of one run.
type TraceSink interface {
	TraceFor(runID string) sim.Tracer
}

// Notifier is told about every stored run.
type Notifier interface {
	RunCompleted(ctx context.Context, run *storage.Run, cached bool) error
}

type Server struct {
	Store storage.RunStore
	Cache storage.ReportCache
	Hub   *stream.Hub
	Sinks []TraceSink
	// Notifier is optional.
	Notifier Notifier

	maxEventsBytes int64
	logger         *slog.Logger
	mux            *mux.Router
	closers        []io.Closer
}

// NewServer wires the backends named in cfg and falls back to in-memory
// storage for the ones left empty.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	s := &Server{
		Hub:            stream.NewHub(),
		maxEventsBytes: cfg.MaxEventsBytes,
		logger:         logger,
		mux:            mux.NewRouter(),
	}
	s.Sinks = append(s.Sinks, s.Hub)

	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Warn("postgres unavailable, using memory store", "error", err)
		} else {
			if cfg.RunMigrations {
				if err := ps.Migrate(context.Background()); err != nil {
					logger.Error("migration failed", "error", err)
				} else {
					logger.Info("migration applied")
				}
			}
			s.Store = ps
			s.closers = append(s.closers, ps)
		}
	}
	if s.Store == nil {
		s.Store = storage.NewMemoryStore()
	}

	if cfg.RedisAddr != "" {
		rc := storage.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.ReportCacheTTL)
		s.Cache = rc
		s.closers = append(s.closers, rc)
	} else {
		s.Cache = storage.NewMemoryCache(cfg.ReportCacheTTL)
	}

	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTraceTopic)
		s.Sinks = append(s.Sinks, kp)
		s.closers = append(s.closers, kp)
	}
	if cfg.AMQPURL != "" {
		ap, err := ingest.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("amqp unavailable, trace fan-out disabled", "error", err)
		} else {
			s.Sinks = append(s.Sinks, ap)
			s.closers = append(s.closers, ap)
		}
	}

	if cfg.WebhookURL != "" {
		s.Notifier = notify.NewWebhook(cfg.WebhookURL, cfg.WebhookToken)
	}

	s.routes()
	s.registerMiddleware()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/simulations", s.handleCreateSimulation).Methods(http.MethodPost)
	s.mux.HandleFunc("/api/v1/simulations/{run_id}", s.handleGetSimulation).Methods(http.MethodGet)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/trace/{watcher_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Close releases the configured backends.
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type simulationResponse struct {
	storage.Run
	Cached bool `json:"cached"`
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxEventsBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "event file too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	batch, err := ingest.Load(bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	run := storage.Run{
		ID:          newID(),
		Fingerprint: batch.Fingerprint,
		EventCount:  len(batch.Events),
		CreatedAt:   time.Now().UTC(),
	}
	logger := s.logger.With("run_id", run.ID, "fingerprint", run.Fingerprint)

	report, cached, err := s.Cache.Get(ctx, batch.Fingerprint)
	if err != nil {
		logger.Warn("report cache lookup failed", "error", err)
	}
	if cached {
		observability.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		report, err = sim.Run(ctx, batch.Events, sim.WithTracer(s.tracerFor(run.ID)))
		if err != nil {
			logger.Warn("simulation aborted", "error", err)
			writeError(w, http.StatusServiceUnavailable, "simulation aborted")
			return
		}
		if err := s.Cache.Set(ctx, batch.Fingerprint, report); err != nil {
			logger.Warn("report cache store failed", "error", err)
		}
	}
	run.Report = report
	noteRun(ctx, run.ID, run.Fingerprint, cached)

	if err := s.Store.SaveRun(ctx, &run); err != nil {
		logger.Error("save run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store run")
		return
	}
	if s.Notifier != nil {
		if err := s.Notifier.RunCompleted(ctx, &run, cached); err != nil {
			logger.Warn("run notification failed", "error", err)
		}
	}
	logger.Info("simulation complete", "events", run.EventCount, "cached", cached)
	writeJSON(w, http.StatusCreated, simulationResponse{Run: run, Cached: cached})
}

func (s *Server) tracerFor(runID string) sim.Tracer {
	ts := make([]sim.Tracer, 0, len(s.Sinks)+1)
	for _, sink := range s.Sinks {
		ts = append(ts, sink.TraceFor(runID))
	}
	ts = append(ts, logging.EventTracer(s.logger.With("run_id", runID)))
	return sim.Tracers(ts...)
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["run_id"]
	run, err := s.Store.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	noteRun(r.Context(), run.ID, run.Fingerprint, false)
	writeJSON(w, http.StatusOK, run)
}

var upgrader = websocket.Upgrader{HandshakeTimeout: 10 * time.Second}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["watcher_id"]
	scopeFrom(r.Context()).watcherID = id
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Hub.Watch(id, conn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
