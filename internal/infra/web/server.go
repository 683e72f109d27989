package web

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"conversation-insights/internal/config"
	"conversation-insights/internal/infra/logging"
	"conversation-insights/internal/infra/metrics"
	"conversation-insights/internal/infra/redis"
	"conversation-insights/internal/infra/worker"
	"conversation-insights/internal/usecase"
)

// Server exposes the REST surface around the pipeline: ingestion, reads,
// trends, health and metrics.
type Server struct {
	convUC    usecase.ConversationUseCase
	insightUC usecase.InsightUseCase
	statsUC   usecase.StatsUseCase
	sched     *worker.Scheduler

	auth      *AuthManager
	limiter   *redis.RateLimiter // nil when rate limiting is disabled
	rateLimit config.RateLimitConfig
	cfg       config.ServerConfig

	log *zerolog.Logger
}

func NewServer(
	convUC usecase.ConversationUseCase,
	insightUC usecase.InsightUseCase,
	statsUC usecase.StatsUseCase,
	sched *worker.Scheduler,
	limiter *redis.RateLimiter,
	rateLimit config.RateLimitConfig,
	cfg config.ServerConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		convUC:    convUC,
		insightUC: insightUC,
		statsUC:   statsUC,
		sched:     sched,
		auth:      NewAuthManager(cfg.AdminSecret, 30*time.Minute),
		limiter:   limiter,
		rateLimit: rateLimit,
		cfg:       cfg,
		log:       &l,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(traceMiddleware)

	r.Get("/health", s.handleHealth)
	if s.cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/conversations", func(r chi.Router) {
			r.With(s.rateLimitMiddleware).Post("/", s.handleIngest)
			r.With(s.rateLimitMiddleware).Post("/bulk", s.handleIngestBulk)
			r.Get("/", s.handleListConversations)
			r.Get("/{id}", s.handleGetConversation)
			r.Get("/{id}/events", s.handleConversationEvents)
		})

		r.Route("/insights", func(r chi.Router) {
			r.Get("/", s.handleListInsights)
			r.Get("/trends", s.handleTrends)
			r.Get("/conversation/{id}", s.handleInsightsForConversation)
			r.Get("/{id}", s.handleGetInsight)
		})

		r.Post("/admin/session", s.handleAdminLogin)
		r.With(s.adminMiddleware).Get("/stats", s.handleStats)
	})

	return r
}

// traceMiddleware stamps every request context with a trace ID so logs
// emitted downstream (ingestion, pipeline) correlate back to the request.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware throttles ingestion per client address with a fixed
// Redis window. Disabled when no limiter is wired.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || !s.rateLimit.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ok, err := s.limiter.Allow(r.Context(), redis.IngestKey(host), s.rateLimit.Requests, s.rateLimit.Window)
		if err != nil {
			// Redis trouble must not block ingestion.
			s.log.Error().Err(err).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			metrics.IncHTTPRequest(r.URL.Path, strconv.Itoa(http.StatusTooManyRequests))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminMiddleware guards the stats endpoint with a bearer JWT.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminSecret == "" {
			s.log.Error().Msg("admin secret is not configured")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
