// Package httpapi exposes the feed catalog and question answering over HTTP.
package httpapi

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/cognicore/feedscope/internal/logging"
	"github.com/cognicore/feedscope/pkg/feedscope"
	"github.com/cognicore/feedscope/pkg/feedscope/config"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Config holds the middleware settings.
type Config struct {
	// CORSOrigins lists allowed origins. Empty disables CORS headers.
	CORSOrigins []string
	// AskRatePerMinute limits POST /ask per client IP. Zero disables it.
	AskRatePerMinute int
}

// Server serves the API.
type Server struct {
	fs      *feedscope.Feedscope
	dataset *config.Dataset
	cfg     Config
	md      goldmark.Markdown
}

// New creates a server. dataset may be nil when only the catalog is loaded.
func New(fs *feedscope.Feedscope, dataset *config.Dataset, cfg Config) *Server {
	catalogFeeds.Set(float64(fs.Engine().Catalog().Len()))
	return &Server{
		fs:      fs,
		dataset: dataset,
		cfg:     cfg,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging)
	r.Use(chimiddleware.Recoverer)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(prometheusMetrics)

		r.Get("/health", s.health)
		r.Get("/samples", s.samples)

		r.Route("/feeds", func(r chi.Router) {
			r.Get("/", s.allFeeds)
			r.Get("/quality", s.qualityRanking)
			r.Get("/resolution", s.byResolution)
			r.Get("/latency", s.byLatency)
			r.Get("/encrypted", s.byEncryption)
			r.Get("/civilian-safe", s.byCivilianSafety)
			r.Get("/theater/{theater}", s.byTheater)
			r.Get("/codec/{codec}", s.byCodec)
			r.Get("/model/{tag}", s.byModel)
			r.Get("/{id}", s.feedByID)
		})

		r.Post("/search", s.search)

		r.Route("/analysis", func(r chi.Router) {
			r.Get("/theater", s.theaterDistribution)
			r.Get("/codec", s.codecDistribution)
			r.Get("/resolution", s.resolutionDistribution)
		})

		r.Get("/params/{kind}", s.params)

		r.With(s.askLimit()).Post("/ask", s.ask)
		r.Get("/answers", s.recentAnswers)
		r.Get("/answers/{id}", s.answerByID)
	})
	return r
}

func (s *Server) askLimit() func(http.Handler) http.Handler {
	if s.cfg.AskRatePerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.cfg.AskRatePerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many questions, slow down"})
		}),
	)
}

func logger() *zerolog.Logger {
	l := logging.Component("httpapi")
	return &l
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger().Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// renderMarkdown converts answer text to HTML. Failures fall back to
// the empty string; the plain text is always returned too.
func (s *Server) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		logger().Warn().Err(err).Msg("render markdown")
		return ""
	}
	return buf.String()
}
