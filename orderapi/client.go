// Package orderapi is the HTTP client of the external order service. It
// provides the one-shot status fetch that seeds a tracking session before
// the live feed takes over, plus the customer's order history.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"greenbowl/tracker"
)

// Client talks to the order service REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an order service client for the given base URL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// OrderStatus is the seed payload from GET /api/orders/{id}.
type OrderStatus struct {
	Status        string          `json:"status"`
	EstimatedTime string          `json:"estimatedTime,omitempty"`
	Driver        *tracker.Driver `json:"driver,omitempty"`
}

// Order is one entry of a customer's order history.
type Order struct {
	ID            string  `json:"id"`
	RestaurantID  string  `json:"restaurantId"`
	Restaurant    string  `json:"restaurantName"`
	Status        string  `json:"status"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	PaymentStatus string  `json:"paymentStatus,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

// GetOrder fetches the current status of one order. Callers treat any error
// as fatal to the tracking view: no live feed is started without a seed.
func (c *Client) GetOrder(ctx context.Context, orderID string) (OrderStatus, error) {
	var out OrderStatus
	url := fmt.Sprintf("%s/api/orders/%s", c.baseURL, orderID)
	if err := c.getJSON(ctx, url, "", &out); err != nil {
		return OrderStatus{}, err
	}
	return out, nil
}

// Seed adapts GetOrder to the stream listener's seed contract.
func (c *Client) Seed(orderID string) func(ctx context.Context) (tracker.StatusUpdate, error) {
	return func(ctx context.Context) (tracker.StatusUpdate, error) {
		st, err := c.GetOrder(ctx, orderID)
		if err != nil {
			return tracker.StatusUpdate{}, err
		}
		return tracker.StatusUpdate{
			OrderStatus:   st.Status,
			EstimatedTime: st.EstimatedTime,
			Driver:        st.Driver,
		}, nil
	}
}

// OrderItem is one line of an order being placed.
type OrderItem struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// CreateOrderRequest is the checkout payload sent to the order service.
type CreateOrderRequest struct {
	UserID        string      `json:"userId"`
	RestaurantID  string      `json:"restaurantId"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"paymentMethod"`
	Address       string      `json:"deliveryAddress"`
}

// CreateOrder places a new order and returns it with its assigned id.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, token string) (Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Order{}, fmt.Errorf("order service: encode: %w", err)
	}
	url := c.baseURL + "/api/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("order service request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Order{}, fmt.Errorf("order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Order{}, fmt.Errorf("order service: status %d", resp.StatusCode)
	}
	var out Order
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Order{}, fmt.Errorf("order service: decode: %w", err)
	}
	return out, nil
}

// ListUserOrders fetches the order history for a customer.
func (c *Client) ListUserOrders(ctx context.Context, userID, token string) ([]Order, error) {
	var out []Order
	url := fmt.Sprintf("%s/api/orders/user/%s", c.baseURL, userID)
	if err := c.getJSON(ctx, url, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("order service request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order service: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("order service: decode: %w", err)
	}
	return nil
}
