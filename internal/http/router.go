package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

// MutationRecorder counts cart mutations by operation.
type MutationRecorder interface {
	CartMutated(op string)
}

type Deps struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string
	SecureCookies    bool

	Catalog  *catalog.Catalog
	Sessions *session.Registry
	Metrics  MutationRecorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = nopMutations{}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSAllowOrigins))

	r.Get("/health", health)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	products := &CatalogHandler{catalog: d.Catalog}
	carts := &CartHandler{catalog: d.Catalog, metrics: d.Metrics}
	checkouts := &CheckoutHandler{}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", products.List)
		r.Get("/products/{productId}", products.Get)

		r.Group(func(r chi.Router) {
			r.Use(Sessions(d.Sessions, d.SecureCookies))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.Get)
				r.Delete("/", carts.Clear)
				r.Put("/open", carts.SetOpen)
				r.Post("/items", carts.AddItem)
				r.Patch("/items/{productId}", carts.SetQuantity)
				r.Delete("/items/{productId}", carts.RemoveItem)
			})

			r.Get("/checkout", checkouts.Enter)
			r.Post("/checkout", checkouts.Submit)
			r.Get("/order-confirmation", checkouts.Confirmation)
		})
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storefront"})
}

type nopMutations struct{}

func (nopMutations) CartMutated(string) {}
