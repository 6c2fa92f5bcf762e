// Package relay serves the websocket endpoint that turns TTS_REQUEST
// frames into TTS_RESPONSE frames using a synthesis provider.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/speakeasy/internal/synth"
)

// Options tune a relay Server.
type Options struct {
	Voice          string
	RateLimit      float64 // requests per second per connection
	Burst          int
	RequestTimeout time.Duration
	Logger         *log.Logger
	Registry       *prometheus.Registry
}

// DefaultOptions returns 2 req/s with a burst of 5 and a 30s provider
// timeout.
func DefaultOptions() Options {
	return Options{
		RateLimit:      2,
		Burst:          5,
		RequestTimeout: 30 * time.Second,
	}
}

// Server relays synthesis requests from websocket clients to a provider.
type Server struct {
	synth    synth.Synthesizer
	log      *log.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	voice   string
	limit   rate.Limit
	burst   int
	timeout time.Duration
}

// NewServer creates a relay backed by s.
func NewServer(s synth.Synthesizer, opts Options) *Server {
	d := DefaultOptions()
	if opts.RateLimit <= 0 {
		opts.RateLimit = d.RateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = d.Burst
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = d.RequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default().WithPrefix("relay")
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	return &Server{
		synth:    s,
		log:      opts.Logger,
		metrics:  NewMetrics(opts.Registry, "speakeasy"),
		registry: opts.Registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			// Non-browser clients omit Origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		voice:   opts.Voice,
		limit:   rate.Limit(opts.RateLimit),
		burst:   opts.Burst,
		timeout: opts.RequestTimeout,
	}
}

// Router returns the relay's HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)

	return r
}

// Reconfigure applies new limits and voice. Connected clients keep the
// limiter they were given; timeouts and voice apply to new requests.
func (s *Server) Reconfigure(voice string, limit float64, burst int, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.voice = voice
	if limit > 0 {
		s.limit = rate.Limit(limit)
	}
	if burst > 0 {
		s.burst = burst
	}
	if timeout > 0 {
		s.timeout = timeout
	}
	s.log.Info("Relay reconfigured", "voice", voice, "rate", float64(s.limit), "burst", s.burst, "timeout", s.timeout)
}

func (s *Server) settings() (voice string, timeout time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice, s.timeout
}

func (s *Server) newLimiter() *rate.Limiter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rate.NewLimiter(s.limit, s.burst)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sess := newSession(s, conn)
	s.metrics.ActiveSessions.Inc()
	defer s.metrics.ActiveSessions.Dec()

	sess.run(r.Context())
}
