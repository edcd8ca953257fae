package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayamansour/souqsync/api/controllers"
	"github.com/ayamansour/souqsync/api/middleware"
	"github.com/ayamansour/souqsync/internal/catalog"
	"github.com/ayamansour/souqsync/internal/session"
	"github.com/ayamansour/souqsync/pkg/config"
	"github.com/ayamansour/souqsync/pkg/logger"
)

// NewRouter assembles the gateway's HTTP surface. db and redis are only
// used for readiness and may be nil in reduced dev setups.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	db controllers.Pinger,
	redis controllers.Pinger,
	manager *session.Manager,
	enricher *catalog.Enricher,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, db, redis))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, cfg.Session, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(manager, enricher, logg))
			r.Post("/items", controllers.CartAdd(manager, logg))
			r.Patch("/items/{compositeId}", controllers.CartUpdateQuantity(manager, logg))
			r.Delete("/items/{compositeId}", controllers.CartRemove(manager, logg))
			r.Delete("/", controllers.CartClear(manager, logg))
			r.Post("/refresh", controllers.CartRefresh(manager, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(manager, logg))
			r.Post("/toggle", controllers.WishlistToggle(manager, logg))
		})

		r.Post("/session/adopt", controllers.SessionAdopt(manager, logg))
	})

	return r
}
