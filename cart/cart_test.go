package cart

import (
	"math"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cart.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndList(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add("c1", "m1", "Margherita", "r1", 12.50, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("c1", "m2", "Garlic Bread", "r1", 4.00, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	items, err := s.Items("c1")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Name != "Margherita" || items[1].Quantity != 2 {
		t.Errorf("items = %+v", items)
	}
}

func TestAddSameItemIncrementsQuantity(t *testing.T) {
	s := openTestStore(t)

	s.Add("c1", "m1", "Margherita", "r1", 12.50, 1)
	s.Add("c1", "m1", "Margherita", "r1", 12.50, 2)

	items, _ := s.Items("c1")
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(items))
	}
	if items[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", items[0].Quantity)
	}
}

func TestAddRejectsSecondRestaurant(t *testing.T) {
	s := openTestStore(t)

	s.Add("c1", "m1", "Margherita", "r1", 12.50, 1)
	if err := s.Add("c1", "x1", "Sushi Set", "r2", 18.00, 1); err == nil {
		t.Fatal("mixing restaurants in one cart must fail")
	}
}

func TestSetQuantityAndRemove(t *testing.T) {
	s := openTestStore(t)
	s.Add("c1", "m1", "Margherita", "r1", 12.50, 1)

	if err := s.SetQuantity("c1", "m1", 4); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	items, _ := s.Items("c1")
	if items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", items[0].Quantity)
	}

	// Zero removes the line.
	if err := s.SetQuantity("c1", "m1", 0); err != nil {
		t.Fatalf("set quantity 0: %v", err)
	}
	items, _ = s.Items("c1")
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestComputeTotals(t *testing.T) {
	s := openTestStore(t)
	s.Add("c1", "m1", "Margherita", "r1", 10.00, 2)  // 20.00
	s.Add("c1", "m2", "Garlic Bread", "r1", 5.00, 1) // 5.00

	tot, err := s.ComputeTotals("c1")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if tot.Subtotal != 25.00 {
		t.Errorf("subtotal = %.2f, want 25.00", tot.Subtotal)
	}
	if tot.DeliveryFee != DeliveryFee || tot.ServiceFee != ServiceFee {
		t.Errorf("fees = %.2f/%.2f", tot.DeliveryFee, tot.ServiceFee)
	}
	wantTax := 2.13 // 25.00 * 8.5%, rounded
	if math.Abs(tot.Tax-wantTax) > 1e-9 {
		t.Errorf("tax = %.2f, want %.2f", tot.Tax, wantTax)
	}
	wantTotal := 25.00 + 3.99 + 2.49 + wantTax
	if math.Abs(tot.Total-wantTotal) > 1e-9 {
		t.Errorf("total = %.2f, want %.2f", tot.Total, wantTotal)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	s := openTestStore(t)
	tot, err := s.ComputeTotals("empty")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if tot != (Totals{}) {
		t.Errorf("empty cart totals = %+v, want zero", tot)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	s.Add("c1", "m1", "Margherita", "r1", 12.50, 1)
	s.Add("c2", "m1", "Margherita", "r1", 12.50, 1)

	if err := s.Clear("c1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if items, _ := s.Items("c1"); len(items) != 0 {
		t.Error("c1 should be empty after clear")
	}
	if items, _ := s.Items("c2"); len(items) != 1 {
		t.Error("clear must not touch other carts")
	}
}
