package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"presupuesto/internal/kv"
	"presupuesto/internal/log"
	"presupuesto/internal/middleware/ratelimit"
	"presupuesto/internal/middleware/security"
	"presupuesto/internal/middleware/trace"
	"presupuesto/internal/services"
	appweb "presupuesto/web"
)

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	// Store is checked by /readyz when it implements kv.Pinger.
	Store     kv.Store
	Logger    *log.Logger
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.LedgerService
	store     kv.Store
	logger    *log.Logger
	started   time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// server. Call Shutdown to stop it and its background goroutines.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		ledger:   svc,
		store:    opts.Store,
		logger:   logger,
		started:  time.Now(),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/api/ledger", s.handleLedger)
	mux.Handle("/income", s.limitWrites(s.handleSetIncome))
	mux.Handle("/expenses", s.limitWrites(s.handleAddExpense))
	mux.Handle("/expenses/delete", s.limitWrites(s.handleDeleteExpense))
	mux.Handle("/months/close", s.limitWrites(s.handleCloseMonth))
	mux.Handle("/months/toggle", s.limitWrites(s.handleToggleMonth))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(s.detector.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// limitWrites applies the per-IP rate limit to POST and DELETE requests.
func (s *Server) limitWrites(next http.HandlerFunc) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		s.errorResponse(r, http.StatusTooManyRequests, "Demasiadas solicitudes, probá más tarde").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			limited.ServeHTTP(w, r)
			return
		}
		next(w, r)
	})
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
