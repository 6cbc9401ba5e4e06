// Package catalog is the HTTP client of the external restaurant service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Restaurant is one listing from the restaurant service.
type Restaurant struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Cuisine      string   `json:"cuisine"`
	Rating       float64  `json:"rating"`
	DeliveryTime string   `json:"deliveryTime"`
	ImageURL     string   `json:"imageUrl"`
	Tags         []string `json:"tags,omitempty"`
}

// MenuItem is one dish on a restaurant's menu.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
}

// Client talks to the restaurant service REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a restaurant service client.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// ListRestaurants fetches restaurants, optionally filtered by cuisine.
// An empty cuisine means all.
func (c *Client) ListRestaurants(ctx context.Context, cuisine, token string) ([]Restaurant, error) {
	if cuisine == "" {
		cuisine = "all"
	}
	u := fmt.Sprintf("%s/api/restaurants/?cuisine=%s", c.baseURL, url.QueryEscape(cuisine))
	var out []Restaurant
	if err := c.getJSON(ctx, u, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMenu fetches the menu of one restaurant.
func (c *Client) GetMenu(ctx context.Context, restaurantID, token string) ([]MenuItem, error) {
	u := fmt.Sprintf("%s/api/restaurants/%s/menu", c.baseURL, restaurantID)
	var out []MenuItem
	if err := c.getJSON(ctx, u, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("restaurant service request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("restaurant service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("restaurant service: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("restaurant service: decode: %w", err)
	}
	return nil
}
