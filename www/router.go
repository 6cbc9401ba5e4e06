package www

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"greenbowl/auth"
	"greenbowl/cart"
	"greenbowl/catalog"
	"greenbowl/orderapi"
	"greenbowl/payment"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	SessionSecret string
	Carts         *cart.Store
	Auth          *auth.Client
	Catalog       *catalog.Client
	Orders        *orderapi.Client
	Payments      *payment.Gateway
	Trackers      *TrackerManager
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	sessions *sessionStore
	tmpl     *template.Template

	carts    *cart.Store
	auth     *auth.Client
	catalog  *catalog.Client
	orders   *orderapi.Client
	payments *payment.Gateway
	trackers *TrackerManager
}

// NewRouter creates the chi router and returns it along with a stop function.
func NewRouter(d Deps) (http.Handler, func()) {
	h := &Handlers{
		sessions: newSessionStore(d.SessionSecret),
		carts:    d.Carts,
		auth:     d.Auth,
		catalog:  d.Catalog,
		orders:   d.Orders,
		payments: d.Payments,
		trackers: d.Trackers,
	}

	funcMap := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"mul":   func(a float64, b int) float64 { return a * float64(b) },
	}
	h.tmpl = template.Must(template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html"))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Public pages
	r.Get("/", h.handleHome)
	r.Get("/restaurants/{restaurantID}", h.handleRestaurant)
	r.Get("/cart", h.handleCart)

	// Login/register/logout
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)

	// Checkout and order pages (login required)
	r.Group(func(r chi.Router) {
		r.Use(h.loginMiddleware)
		r.Get("/checkout", h.handleCheckout)
		r.Post("/checkout", h.handlePlaceOrder)
		r.Get("/payment/return", h.handlePaymentReturn)
		r.Get("/orders", h.handleOrders)
		r.Get("/track/{orderID}", h.handleTrack)
		// Live progress feed for the tracking page. Kept behind login so an
		// anonymous client cannot start trackers for arbitrary order ids.
		r.Get("/events/track/{orderID}", h.handleTrackEvents)
	})

	// Cart API (JSON, used by the menu and cart pages)
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.apiCartState)
		r.Post("/items", h.apiCartAdd)
		r.Put("/items/{itemID}", h.apiCartSetQuantity)
		r.Delete("/items/{itemID}", h.apiCartRemove)
	})

	return r, func() {
		h.trackers.Shutdown()
	}
}

func (h *Handlers) loginMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, _, ok := h.sessions.login(r); !ok {
			http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderError shows the full-page error view with a retry link.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, msg string) {
	w.WriteHeader(http.StatusBadGateway)
	h.renderTemplate(w, "error.html", map[string]interface{}{
		"Page":    "error",
		"Message": msg,
		"Retry":   r.URL.String(),
	})
}
