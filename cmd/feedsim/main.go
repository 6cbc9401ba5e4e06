// Command feedsim simulates the platform services GreenBowl talks to:
// auth, restaurant catalog, order service with its live order feed, the
// delivery progress feed, and the payment gateway. It exists for local
// development so the whole ordering and tracking flow can be exercised
// without the real platform.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"greenbowl/milestones"
	"greenbowl/orderapi"
	"greenbowl/payment"
	"greenbowl/tracker"
)

func main() {
	interval := flag.Duration("interval", 5*time.Second, "delay between milestone advances")
	secret := flag.String("secret", "dev-secret", "payment gateway signing secret")
	merchant := flag.String("merchant", "greenbowl-dev", "payment gateway merchant id")
	flag.Parse()

	sim := newSim(*interval)
	gateway := payment.New("", *merchant, *secret)

	servers := []struct {
		name string
		addr string
		h    http.Handler
	}{
		{"auth", ":5000", sim.authRouter()},
		{"catalog", ":5001", sim.catalogRouter()},
		{"orders", ":7000", sim.orderRouter()},
		{"delivery", ":8000", sim.deliveryRouter()},
		{"gateway", ":9000", sim.gatewayRouter(gateway)},
	}

	for _, s := range servers {
		s := s
		go func() {
			log.Printf("feedsim %s service on %s", s.name, s.addr)
			if err := http.ListenAndServe(s.addr, s.h); err != nil {
				log.Fatalf("%s service: %v", s.name, err)
			}
		}()
	}
	select {}
}

type simUser struct {
	ID    string
	Name  string
	Email string
	Hash  []byte
}

type simOrder struct {
	mu sync.Mutex

	order  orderapi.Order
	status string
	driver *tracker.Driver
	eta    string

	subs map[chan tracker.StatusUpdate]struct{}
}

type sim struct {
	interval time.Duration

	mu     sync.Mutex
	users  map[string]*simUser // by email
	tokens map[string]*simUser
	orders map[string]*simOrder
}

func newSim(interval time.Duration) *sim {
	s := &sim{
		interval: interval,
		users:    make(map[string]*simUser),
		tokens:   make(map[string]*simUser),
		orders:   make(map[string]*simOrder),
	}
	// Demo account for quick manual testing.
	hash, _ := bcrypt.GenerateFromPassword([]byte("greenbowl"), bcrypt.DefaultCost)
	s.users["demo@greenbowl.dev"] = &simUser{
		ID: "u-demo", Name: "Demo User", Email: "demo@greenbowl.dev", Hash: hash,
	}
	return s
}

// --- auth service ---

func (s *sim) authRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(req.Body).Decode(&body)

		s.mu.Lock()
		u := s.users[strings.ToLower(body.Email)]
		s.mu.Unlock()
		if u == nil || bcrypt.CompareHashAndPassword(u.Hash, []byte(body.Password)) != nil {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		s.issueToken(w, u)
	})
	r.Post("/api/auth/register", func(w http.ResponseWriter, req *http.Request) {
		var body struct{ Name, Email, Password string }
		json.NewDecoder(req.Body).Decode(&body)
		email := strings.ToLower(body.Email)

		s.mu.Lock()
		if _, exists := s.users[email]; exists {
			s.mu.Unlock()
			http.Error(w, `{"error":"email already registered"}`, http.StatusConflict)
			return
		}
		hash, _ := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		u := &simUser{ID: "u-" + uuid.NewString()[:8], Name: body.Name, Email: email, Hash: hash}
		s.users[email] = u
		s.mu.Unlock()
		s.issueToken(w, u)
	})
	return r
}

func (s *sim) issueToken(w http.ResponseWriter, u *simUser) {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = u
	s.mu.Unlock()
	writeJSON(w, map[string]interface{}{
		"token": token,
		"user":  map[string]string{"id": u.ID, "name": u.Name, "email": u.Email},
	})
}

// --- catalog service ---

var simRestaurants = []map[string]interface{}{
	{"id": "r-1", "name": "Green Garden", "cuisine": "italian", "rating": 4.6, "deliveryTime": "25-35 min"},
	{"id": "r-2", "name": "Tokyo Bowl", "cuisine": "japanese", "rating": 4.8, "deliveryTime": "30-40 min"},
	{"id": "r-3", "name": "Casa Verde", "cuisine": "mexican", "rating": 4.3, "deliveryTime": "20-30 min"},
}

var simMenus = map[string][]map[string]interface{}{
	"r-1": {
		{"id": "m-1", "name": "Pesto Bowl", "description": "Basil pesto, grains, greens", "price": 12.50, "category": "mains"},
		{"id": "m-2", "name": "Margherita", "description": "Tomato, mozzarella, basil", "price": 11.00, "category": "mains"},
	},
	"r-2": {
		{"id": "m-3", "name": "Salmon Teriyaki", "description": "Glazed salmon over rice", "price": 15.00, "category": "mains"},
		{"id": "m-4", "name": "Miso Soup", "description": "Classic starter", "price": 4.50, "category": "starters"},
	},
	"r-3": {
		{"id": "m-5", "name": "Verde Tacos", "description": "Three tacos, salsa verde", "price": 10.50, "category": "mains"},
	},
}

func (s *sim) catalogRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/restaurants/", func(w http.ResponseWriter, req *http.Request) {
		cuisine := req.URL.Query().Get("cuisine")
		out := simRestaurants
		if cuisine != "" && cuisine != "all" {
			out = nil
			for _, rest := range simRestaurants {
				if rest["cuisine"] == cuisine {
					out = append(out, rest)
				}
			}
		}
		writeJSON(w, out)
	})
	r.Get("/api/restaurants/{restaurantID}/menu", func(w http.ResponseWriter, req *http.Request) {
		menu, ok := simMenus[chi.URLParam(req, "restaurantID")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, menu)
	})
	return r
}

// --- order service ---

func (s *sim) orderRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		var body orderapi.CreateOrderRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		o := &simOrder{
			order: orderapi.Order{
				ID:            "ord-" + uuid.NewString()[:8],
				RestaurantID:  body.RestaurantID,
				Status:        milestones.Pending,
				Total:         body.Total,
				PaymentMethod: body.PaymentMethod,
				CreatedAt:     time.Now().Format(time.RFC3339),
			},
			status: milestones.Pending,
			subs:   make(map[chan tracker.StatusUpdate]struct{}),
		}
		s.mu.Lock()
		s.orders[o.order.ID] = o
		s.mu.Unlock()

		go s.progress(o)
		writeJSON(w, o.order)
	})
	r.Get("/api/orders/{orderID}", func(w http.ResponseWriter, req *http.Request) {
		o := s.order(chi.URLParam(req, "orderID"))
		if o == nil {
			http.NotFound(w, req)
			return
		}
		o.mu.Lock()
		out := map[string]interface{}{"status": o.status}
		if o.eta != "" {
			out["estimatedTime"] = o.eta
		}
		if o.driver != nil {
			out["driver"] = o.driver
		}
		o.mu.Unlock()
		writeJSON(w, out)
	})
	r.Get("/api/orders/user/{userID}", func(w http.ResponseWriter, req *http.Request) {
		var out []orderapi.Order
		s.mu.Lock()
		for _, o := range s.orders {
			o.mu.Lock()
			ord := o.order
			ord.Status = o.status
			o.mu.Unlock()
			out = append(out, ord)
		}
		s.mu.Unlock()
		writeJSON(w, out)
	})
	r.Get("/api/order-events/{orderID}", s.serveFeed(false))
	return r
}

func (s *sim) deliveryRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/delivery-progress/{orderID}", s.serveFeed(true))
	return r
}

func (s *sim) order(id string) *simOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

// progress walks an order through every regular milestone on a timer,
// attaching a driver when delivery begins.
func (s *sim) progress(o *simOrder) {
	for _, m := range milestones.Regular() {
		if m.ID == milestones.Pending {
			continue
		}
		time.Sleep(s.interval)

		o.mu.Lock()
		o.status = m.ID
		upd := tracker.StatusUpdate{}
		if m.Category == milestones.CategoryDelivery {
			if o.driver == nil {
				o.driver = &tracker.Driver{Name: "Alejandro M.", Vehicle: "Honda PCX"}
				o.eta = time.Now().Add(20 * time.Minute).Format("15:04")
			}
			upd.DeliveryStatus = m.ID
			upd.Driver = o.driver
			upd.EstimatedTime = o.eta
		} else {
			upd.OrderStatus = m.ID
		}
		for ch := range o.subs {
			select {
			case ch <- upd:
			default:
			}
		}
		o.mu.Unlock()

		log.Printf("feedsim: order %s -> %s", o.order.ID, m.ID)
	}
}

// serveFeed streams status updates for one order as SSE. The delivery feed
// carries deliveryStatus updates, the order feed everything else.
func (s *sim) serveFeed(delivery bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		o := s.order(chi.URLParam(req, "orderID"))
		if o == nil {
			http.NotFound(w, req)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")

		ch := make(chan tracker.StatusUpdate, 16)
		o.mu.Lock()
		o.subs[ch] = struct{}{}
		o.mu.Unlock()
		defer func() {
			o.mu.Lock()
			delete(o.subs, ch)
			o.mu.Unlock()
		}()

		fmt.Fprint(w, "event: connected\ndata: {}\n\n")
		flusher.Flush()

		for {
			select {
			case <-req.Context().Done():
				return
			case upd := <-ch:
				if delivery && upd.DeliveryStatus == "" {
					continue
				}
				if !delivery && upd.OrderStatus == "" {
					continue
				}
				data, _ := json.Marshal(upd)
				fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
				flusher.Flush()
				if milestones.IsTerminal(upd.OrderStatus) || milestones.IsTerminal(upd.DeliveryStatus) {
					return
				}
			}
		}
	}
}

// --- payment gateway ---

// gatewayRouter auto-approves every checkout and bounces the browser back
// with a signed callback, mirroring how a hosted payment page behaves.
func (s *sim) gatewayRouter(gw *payment.Gateway) http.Handler {
	r := chi.NewRouter()
	r.Get("/checkout", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		orderID := q.Get("order_id")
		returnURL := q.Get("return_url")
		if orderID == "" || returnURL == "" {
			http.Error(w, "missing order_id or return_url", http.StatusBadRequest)
			return
		}
		params := gw.SignedCallback(orderID, q.Get("tx_id"), "paid")
		http.Redirect(w, req, returnURL+"?"+params.Encode(), http.StatusSeeOther)
	})
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
