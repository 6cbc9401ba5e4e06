package cart

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Fee schedule applied at checkout.
const (
	DeliveryFee = 3.99
	ServiceFee  = 2.49
	TaxRate     = 0.085
)

// Item is one line of a cart.
type Item struct {
	ID           string  `json:"id"`
	ItemID       string  `json:"itemId"`
	Name         string  `json:"name"`
	RestaurantID string  `json:"restaurantId"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

// Totals is the cart arithmetic shown on the checkout page.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	ServiceFee  float64 `json:"serviceFee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// Add puts a menu item in the cart, incrementing quantity if it is already
// there. Carts hold items from a single restaurant; adding from another
// restaurant is rejected rather than silently mixing orders.
func (s *Store) Add(cartID, itemID, name, restaurantID string, price float64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("cart: quantity must be positive, got %d", quantity)
	}

	var existing string
	err := s.QueryRow(`SELECT restaurant_id FROM cart_items WHERE cart_id = ? LIMIT 1`, cartID).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if err == nil && existing != restaurantID {
		return fmt.Errorf("cart: holds items from another restaurant")
	}

	_, err = s.Exec(`
		INSERT INTO cart_items (id, cart_id, item_id, name, restaurant_id, price, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cart_id, item_id)
		DO UPDATE SET quantity = quantity + excluded.quantity`,
		uuid.New().String(), cartID, itemID, name, restaurantID, price, quantity)
	return err
}

// SetQuantity updates a line's quantity; zero removes the line.
func (s *Store) SetQuantity(cartID, itemID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("cart: quantity must not be negative, got %d", quantity)
	}
	if quantity == 0 {
		return s.Remove(cartID, itemID)
	}
	_, err := s.Exec(`UPDATE cart_items SET quantity = ? WHERE cart_id = ? AND item_id = ?`,
		quantity, cartID, itemID)
	return err
}

// Remove deletes a line from the cart.
func (s *Store) Remove(cartID, itemID string) error {
	_, err := s.Exec(`DELETE FROM cart_items WHERE cart_id = ? AND item_id = ?`, cartID, itemID)
	return err
}

// Clear empties the cart, e.g. after a completed checkout.
func (s *Store) Clear(cartID string) error {
	_, err := s.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

// Items lists the cart's lines in insertion order.
func (s *Store) Items(cartID string) ([]Item, error) {
	rows, err := s.Query(`
		SELECT id, item_id, name, restaurant_id, price, quantity
		FROM cart_items WHERE cart_id = ? ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ItemID, &it.Name, &it.RestaurantID, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ComputeTotals derives the checkout totals for the cart. An empty cart has
// all-zero totals; fees apply only once there is something to deliver.
func (s *Store) ComputeTotals(cartID string) (Totals, error) {
	items, err := s.Items(cartID)
	if err != nil {
		return Totals{}, err
	}
	if len(items) == 0 {
		return Totals{}, nil
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	tax := round2(subtotal * TaxRate)
	subtotal = round2(subtotal)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: DeliveryFee,
		ServiceFee:  ServiceFee,
		Tax:         tax,
		Total:       round2(subtotal + DeliveryFee + ServiceFee + tax),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
