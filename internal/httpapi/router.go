package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/config"
)

func NewRouter(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggingMiddleware(logger))
	r.Use(RecoverMiddleware(logger))

	r.Get("/health", HealthHandler(pool))
	r.Get("/version", VersionHandler())

	// mod_xml_curl posts one binding per request.
	r.Route("/fs/xml", func(fs chi.Router) {
		fs.With(XMLCurlBasicAuth(cfg)).Post("/{binding}", XMLCurlHandler(cfg, pool, logger))
	})

	return r
}
