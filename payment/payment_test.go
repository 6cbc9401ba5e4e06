package payment

import (
	"net/url"
	"strings"
	"testing"
)

func TestRedirectURLRoundTrip(t *testing.T) {
	g := New("https://pay.example.com/checkout", "m-100", "s3cret")

	redirect, txID, err := g.RedirectURL(Request{
		OrderID:   "ord-1",
		Amount:    31.48,
		ReturnURL: "https://shop.example.com/payment/return",
		CancelURL: "https://shop.example.com/cart",
	})
	if err != nil {
		t.Fatalf("RedirectURL: %v", err)
	}
	if txID == "" {
		t.Fatal("expected a transaction id")
	}
	if !strings.HasPrefix(redirect, "https://pay.example.com/checkout?") {
		t.Errorf("redirect = %q", redirect)
	}

	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	params := u.Query()
	if params.Get("amount") != "31.48" {
		t.Errorf("amount = %q", params.Get("amount"))
	}
	if params.Get("currency") != "USD" {
		t.Errorf("currency = %q, want default USD", params.Get("currency"))
	}

	// The signed parameters verify as a callback would.
	params.Set("status", "paid")
	params.Set("signature", g.sign(params))
	cb, err := g.VerifyCallback(params)
	if err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}
	if cb.OrderID != "ord-1" || cb.TxID != txID || cb.Status != "paid" {
		t.Errorf("callback = %+v", cb)
	}
}

func TestVerifyCallbackRejectsTampering(t *testing.T) {
	g := New("https://pay.example.com/checkout", "m-100", "s3cret")

	params := url.Values{}
	params.Set("order_id", "ord-1")
	params.Set("tx_id", "tx-1")
	params.Set("status", "paid")
	params.Set("signature", g.sign(params))

	// Unmodified verifies.
	if _, err := g.VerifyCallback(params); err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}

	// Any change breaks the signature.
	params.Set("order_id", "ord-2")
	if _, err := g.VerifyCallback(params); err == nil {
		t.Fatal("tampered callback must not verify")
	}
}

func TestVerifyCallbackMissingSignature(t *testing.T) {
	g := New("https://pay.example.com/checkout", "m-100", "s3cret")
	params := url.Values{"order_id": {"ord-1"}}
	if _, err := g.VerifyCallback(params); err == nil {
		t.Fatal("expected error for missing signature")
	}
}

func TestRedirectURLValidation(t *testing.T) {
	g := New("https://pay.example.com/checkout", "m-100", "s3cret")

	if _, _, err := g.RedirectURL(Request{Amount: 10}); err == nil {
		t.Error("missing order id must fail")
	}
	if _, _, err := g.RedirectURL(Request{OrderID: "ord-1", Amount: 0}); err == nil {
		t.Error("zero amount must fail")
	}
}
