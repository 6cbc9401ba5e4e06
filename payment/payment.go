// Package payment builds the signed redirect that hands a checkout to the
// external payment gateway, and verifies the signature on the gateway's
// callback. The gateway itself is a black box; only the signing contract
// lives here.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Gateway holds the merchant credentials for the external payment provider.
type Gateway struct {
	checkoutURL string
	merchantID  string
	secret      []byte
}

// New creates a gateway client.
func New(checkoutURL, merchantID, secret string) *Gateway {
	return &Gateway{checkoutURL: checkoutURL, merchantID: merchantID, secret: []byte(secret)}
}

// Request describes one checkout hand-off.
type Request struct {
	OrderID   string
	Amount    float64
	Currency  string
	ReturnURL string
	CancelURL string
}

// RedirectURL builds the signed URL the browser is redirected to. The
// transaction id is generated here and echoed back in the callback.
func (g *Gateway) RedirectURL(req Request) (redirect, txID string, err error) {
	if req.OrderID == "" {
		return "", "", fmt.Errorf("payment: order id required")
	}
	if req.Amount <= 0 {
		return "", "", fmt.Errorf("payment: amount must be positive, got %.2f", req.Amount)
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	txID = uuid.New().String()
	params := url.Values{}
	params.Set("merchant_id", g.merchantID)
	params.Set("tx_id", txID)
	params.Set("order_id", req.OrderID)
	params.Set("amount", fmt.Sprintf("%.2f", req.Amount))
	params.Set("currency", req.Currency)
	params.Set("return_url", req.ReturnURL)
	params.Set("cancel_url", req.CancelURL)
	params.Set("signature", g.sign(params))

	return g.checkoutURL + "?" + params.Encode(), txID, nil
}

// Callback is the verified result of a gateway callback.
type Callback struct {
	OrderID string
	TxID    string
	Status  string // "paid" or "failed"
}

// VerifyCallback checks the signature on the gateway's callback parameters
// and extracts the terminal order identifier.
func (g *Gateway) VerifyCallback(params url.Values) (Callback, error) {
	sig := params.Get("signature")
	if sig == "" {
		return Callback{}, fmt.Errorf("payment callback: missing signature")
	}
	if !hmac.Equal([]byte(sig), []byte(g.sign(params))) {
		return Callback{}, fmt.Errorf("payment callback: signature mismatch")
	}
	cb := Callback{
		OrderID: params.Get("order_id"),
		TxID:    params.Get("tx_id"),
		Status:  params.Get("status"),
	}
	if cb.OrderID == "" {
		return Callback{}, fmt.Errorf("payment callback: missing order id")
	}
	return cb, nil
}

// SignedCallback builds the parameter set a gateway sends back after a
// transaction settles. The dev gateway simulator uses it to produce
// callbacks that pass VerifyCallback.
func (g *Gateway) SignedCallback(orderID, txID, status string) url.Values {
	params := url.Values{}
	params.Set("merchant_id", g.merchantID)
	params.Set("order_id", orderID)
	params.Set("tx_id", txID)
	params.Set("status", status)
	params.Set("signature", g.sign(params))
	return params
}

// sign computes the HMAC-SHA256 over the sorted key=value pairs, excluding
// the signature parameter itself.
func (g *Gateway) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params.Get(k))
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
