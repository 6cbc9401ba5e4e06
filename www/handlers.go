package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"greenbowl/milestones"
	"greenbowl/orderapi"
	"greenbowl/payment"
)

func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	cuisine := r.URL.Query().Get("cuisine")
	token, _, name, _ := h.sessions.login(r)

	restaurants, err := h.catalog.ListRestaurants(r.Context(), cuisine, token)
	if err != nil {
		h.renderError(w, r, "Could not load restaurants. Please try again.")
		return
	}

	h.renderTemplate(w, "index.html", map[string]interface{}{
		"Page":        "home",
		"UserName":    name,
		"Cuisine":     cuisine,
		"Restaurants": restaurants,
	})
}

func (h *Handlers) handleRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")
	token, _, name, _ := h.sessions.login(r)

	menu, err := h.catalog.GetMenu(r.Context(), restaurantID, token)
	if err != nil {
		h.renderError(w, r, "Could not load the menu. Please try again.")
		return
	}

	h.renderTemplate(w, "restaurant.html", map[string]interface{}{
		"Page":         "restaurant",
		"UserName":     name,
		"RestaurantID": restaurantID,
		"Menu":         menu,
	})
}

func (h *Handlers) handleCart(w http.ResponseWriter, r *http.Request) {
	cartID := h.sessions.cartID(w, r)
	_, _, name, _ := h.sessions.login(r)

	items, err := h.carts.Items(cartID)
	if err != nil {
		h.renderError(w, r, "Could not load your cart.")
		return
	}
	totals, _ := h.carts.ComputeTotals(cartID)

	h.renderTemplate(w, "cart.html", map[string]interface{}{
		"Page":     "cart",
		"UserName": name,
		"Items":    items,
		"Totals":   totals,
	})
}

func (h *Handlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := h.sessions.cartID(w, r)
	_, _, name, _ := h.sessions.login(r)

	items, err := h.carts.Items(cartID)
	if err != nil || len(items) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	totals, _ := h.carts.ComputeTotals(cartID)

	h.renderTemplate(w, "checkout.html", map[string]interface{}{
		"Page":     "checkout",
		"UserName": name,
		"Items":    items,
		"Totals":   totals,
	})
}

// handlePlaceOrder submits the cart to the order service. Card payments
// detour through the payment gateway; cash orders go straight to tracking.
func (h *Handlers) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	token, userID, _, _ := h.sessions.login(r)
	cartID := h.sessions.cartID(w, r)

	items, err := h.carts.Items(cartID)
	if err != nil || len(items) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	totals, err := h.carts.ComputeTotals(cartID)
	if err != nil {
		h.renderError(w, r, "Could not total your cart.")
		return
	}

	method := r.FormValue("paymentMethod")
	if method == "" {
		method = "card"
	}

	req := orderapi.CreateOrderRequest{
		UserID:        userID,
		RestaurantID:  items[0].RestaurantID,
		Total:         totals.Total,
		PaymentMethod: method,
		Address:       r.FormValue("address"),
	}
	for _, it := range items {
		req.Items = append(req.Items, orderapi.OrderItem{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(r.Context(), req, token)
	if err != nil {
		h.renderError(w, r, "The order could not be placed. Please try again.")
		return
	}

	if method == "card" {
		redirect, _, err := h.payments.RedirectURL(payment.Request{
			OrderID:   order.ID,
			Amount:    totals.Total,
			Currency:  "USD",
			ReturnURL: baseURL(r) + "/payment/return",
			CancelURL: baseURL(r) + "/checkout",
		})
		if err != nil {
			h.renderError(w, r, "Could not start the payment.")
			return
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}

	h.carts.Clear(cartID)
	http.Redirect(w, r, "/track/"+order.ID, http.StatusSeeOther)
}

// handlePaymentReturn is the gateway's signed callback landing page.
func (h *Handlers) handlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	cb, err := h.payments.VerifyCallback(r.URL.Query())
	if err != nil {
		h.renderError(w, r, "Payment confirmation could not be verified.")
		return
	}
	if cb.Status != "paid" {
		h.renderError(w, r, "Payment was declined. Your cart is unchanged.")
		return
	}

	h.carts.Clear(h.sessions.cartID(w, r))
	http.Redirect(w, r, "/track/"+cb.OrderID, http.StatusSeeOther)
}

func (h *Handlers) handleOrders(w http.ResponseWriter, r *http.Request) {
	token, userID, name, _ := h.sessions.login(r)

	orders, err := h.orders.ListUserOrders(r.Context(), userID, token)
	if err != nil {
		h.renderError(w, r, "Could not load your orders.")
		return
	}

	h.renderTemplate(w, "orders.html", map[string]interface{}{
		"Page":     "orders",
		"UserName": name,
		"Orders":   orders,
	})
}

// handleTrack renders the tracking page shell. The page itself subscribes to
// /events/track/{orderID} and paints every snapshot it receives.
func (h *Handlers) handleTrack(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	_, _, name, _ := h.sessions.login(r)

	h.renderTemplate(w, "track.html", map[string]interface{}{
		"Page":       "track",
		"UserName":   name,
		"OrderID":    orderID,
		"Restaurant": milestones.ByCategory(milestones.CategoryRestaurant),
		"Delivery":   milestones.ByCategory(milestones.CategoryDelivery),
		"Special":    milestones.ByCategory(milestones.CategorySpecial),
	})
}

func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, "login.html", map[string]interface{}{
		"Page": "login",
		"Next": r.URL.Query().Get("next"),
	})
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		h.renderTemplate(w, "login.html", map[string]interface{}{
			"Page":  "login",
			"Error": "Invalid email or password.",
			"Next":  r.FormValue("next"),
		})
		return
	}
	h.sessions.setLogin(w, r, sess)

	next := r.FormValue("next")
	if next == "" || next[0] != '/' {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handlers) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, "register.html", map[string]interface{}{"Page": "register"})
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.Register(r.Context(), r.FormValue("name"), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.renderTemplate(w, "register.html", map[string]interface{}{
			"Page":  "register",
			"Error": "Registration failed. Check your details and try again.",
		})
		return
	}
	h.sessions.setLogin(w, r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clearLogin(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
