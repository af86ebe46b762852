package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"

	"github.com/openalpha/pawfund/api/handlers"
	"github.com/openalpha/pawfund/api/middleware"
	"github.com/openalpha/pawfund/api/types"
	"github.com/openalpha/pawfund/api/websocket"
	"github.com/openalpha/pawfund/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     log.Logger

	service     types.FundService
	hub         *websocket.Hub
	fundHandler *handlers.FundHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Listen           string                      `mapstructure:"listen" yaml:"listen"`
	ReadTimeout      time.Duration               `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     time.Duration               `mapstructure:"write_timeout" yaml:"write_timeout"`
	EnableFaucet     bool                        `mapstructure:"enable_faucet" yaml:"enable_faucet"`
	DisableRateLimit bool                        `mapstructure:"disable_rate_limit" yaml:"disable_rate_limit"` // For testing purposes
	RateLimit        *middleware.RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// DefaultConfig returns default configuration. The faucet is off unless
// explicitly enabled.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "0.0.0.0:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		RateLimit:    middleware.DefaultRateLimitConfig(),
	}
}

// NewServer creates a new API server. hub may be nil, in which case /ws is
// not served.
func NewServer(config *Config, service types.FundService, hub *websocket.Hub, logger log.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		config:      config,
		logger:      logger.With("module", "api"),
		service:     service,
		hub:         hub,
		fundHandler: handlers.NewFundHandler(service, config.EnableFaucet),
	}
	if !config.DisableRateLimit {
		s.rateLimiter = middleware.NewRateLimiter(config.RateLimit)
	}
	s.httpServer = &http.Server{
		Addr:         config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler builds the routed handler with its middleware chain:
// CORS -> RateLimit -> Metrics -> Router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.MetricsMiddleware(metrics.GetCollector()))

	// Health check (support both /health and /v1/health for compatibility)
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/v1/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	s.fundHandler.RegisterRoutes(router)

	// WebSocket
	if s.hub != nil {
		router.HandleFunc("/ws", s.hub.ServeWS)
	}

	var handler http.Handler = router
	if s.rateLimiter != nil {
		handler = middleware.RateLimitMiddleware(s.rateLimiter, types.SignerHeader)(handler)
	}
	return corsMiddleware(handler)
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("API server starting",
		"addr", s.config.Listen,
		"faucet", s.config.EnableFaucet,
		"rate_limit", s.rateLimiter != nil,
		"websocket", s.hub != nil,
	)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"height":    s.service.Height(),
	}
	if s.hub != nil {
		resp["ws_clients"] = s.hub.GetClientCount()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+types.SignerHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
