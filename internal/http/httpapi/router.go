package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"batchgen/internal/http/handlers"
	"batchgen/internal/middleware"
)

// Options configures the middleware stack around the admin API.
type Options struct {
	Logger             zerolog.Logger
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	// AdminJWTSecret enables bearer auth on /v1/batch-jobs when set.
	AdminJWTSecret string
	DefaultLocale  string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
	)
	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSAllowedOrigins))
	}

	// Health & docs
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/batch-jobs", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		if opts.AdminJWTSecret != "" {
			r.Use(middleware.AdminAuth(opts.AdminJWTSecret))
		}
		r.Use(middleware.Locale(opts.DefaultLocale))

		r.Post("/", app.CreateBatchJob)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetBatchJob)
			r.Get("/items", app.ListBatchJobItems)
			r.Post("/cancel", app.CancelBatchJob)
			r.Get("/archive", app.DownloadBatchArchive)
		})
	})

	return r
}
