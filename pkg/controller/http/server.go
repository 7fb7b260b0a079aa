package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/secmon-lab/hippo/pkg/usecase"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/secmon-lab/hippo/pkg/utils/safe"
)

// DefaultMaxAudioSize matches the upload limit of the transcription API
const DefaultMaxAudioSize = 25 << 20

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	metricsHandler http.Handler
	maxAudioSize   int64
	allowedOrigins map[string]struct{}
	upgrader       websocket.Upgrader
}

type Options func(*Server)

// WithMetricsHandler exposes h at /metrics
func WithMetricsHandler(h http.Handler) Options {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithMaxAudioSize limits the size of one uploaded utterance
func WithMaxAudioSize(size int64) Options {
	return func(s *Server) {
		s.maxAudioSize = size
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// Without it only same-origin requests are accepted.
func WithAllowedOrigins(origins ...string) Options {
	return func(s *Server) {
		if s.allowedOrigins == nil {
			s.allowedOrigins = make(map[string]struct{}, len(origins))
		}
		for _, o := range origins {
			s.allowedOrigins[o] = struct{}{}
		}
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		uc:           uc,
		maxAudioSize: DefaultMaxAudioSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if len(s.allowedOrigins) > 0 {
		s.upgrader.CheckOrigin = s.checkOrigin
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler)
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	r.Post("/api/sessions", s.createSession)
	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/memory", s.showMemory)
		r.Get("/history", s.showHistory)

		// Routes below start the session when it is not live yet
		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware(s.uc.Sessions))
			r.Post("/turns", s.submitTurn)
			r.Get("/ws", s.serveWebSocket)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := s.allowedOrigins[origin]
	return ok
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte("ok"))
}
