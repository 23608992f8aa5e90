// Package api exposes the analyses and the result store over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/risk-inventory/internal/absence"
	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/inventory"
	"github.com/sells-group/risk-inventory/internal/store"
	"github.com/sells-group/risk-inventory/internal/turnover"
)

// maxBodyBytes caps request bodies; response tables of a few thousand rows
// fit comfortably.
const maxBodyBytes = 32 << 20

// Options configures a Server.
type Options struct {
	// Store persists results. When nil, analyses are returned but not saved
	// and the results endpoints answer 503.
	Store              store.ResultStore
	AbsenceBenchmarks  catalog.Benchmarks
	TurnoverBenchmarks catalog.Benchmarks
	Costs              turnover.Costs
	Strict             bool

	RateLimit   rate.Limit
	Burst       int
	CORSOrigins []string

	// Now overrides the clock of every engine.
	Now func() time.Time
}

// Server holds the engines behind the HTTP handlers.
type Server struct {
	opts      Options
	store     store.ResultStore
	absence   *absence.Engine
	turnover  *turnover.Calculator
	inventory *inventory.Engine
	now       func() time.Time
}

// New builds a Server from opts, filling unset limits with defaults.
func New(opts Options) *Server {
	if opts.RateLimit == 0 {
		opts.RateLimit = 10
	}
	if opts.Burst == 0 {
		opts.Burst = 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.AbsenceBenchmarks.Default == 0 {
		opts.AbsenceBenchmarks = catalog.AbsenceBenchmarks()
	}
	if opts.TurnoverBenchmarks.Default == 0 {
		opts.TurnoverBenchmarks = catalog.TurnoverBenchmarks()
	}
	if opts.Costs == (turnover.Costs{}) {
		opts.Costs = turnover.DefaultCosts()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		opts:      opts,
		store:     opts.Store,
		absence:   absence.NewEngine(opts.AbsenceBenchmarks).WithClock(now),
		turnover:  turnover.NewCalculator(opts.TurnoverBenchmarks).WithClock(now),
		inventory: inventory.NewEngine().WithClock(now),
		now:       now,
	}
}

// Router returns the HTTP handler with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(rate.NewLimiter(s.opts.RateLimit, s.opts.Burst)))

		r.Get("/instruments", s.handleInstruments)
		r.Post("/analyses/{instrument}", s.handleAnalysis)
		r.Post("/absence", s.handleAbsence)
		r.Post("/turnover", s.handleTurnover)
		r.Post("/inventory", s.handleInventory)
		r.Get("/results", s.handleListResults)
		r.Get("/results/{id}", s.handleGetResult)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

type errorBody struct {
	Error      string `json:"error"`
	Validation any    `json:"validation,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
