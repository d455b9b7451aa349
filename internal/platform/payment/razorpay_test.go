package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyPayment(t *testing.T) {
	r := NewRazorpay("key", "secret")

	mac := hmac.New(sha256.New, []byte("secret"))
	fmt.Fprintf(mac, "order_1|pay_1")
	good := hex.EncodeToString(mac.Sum(nil))

	if err := r.VerifyPayment("order_1", "pay_1", good); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
	if err := r.VerifyPayment("order_1", "pay_1", "deadbeef"); err != ErrSignatureMismatch {
		t.Errorf("bad signature: err = %v, want ErrSignatureMismatch", err)
	}
	if err := r.VerifyPayment("order_2", "pay_1", good); err != ErrSignatureMismatch {
		t.Errorf("signature over different order must fail, got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/orders" {
			t.Errorf("path = %q", req.URL.Path)
		}
		if user, pass, _ := req.BasicAuth(); user != "key" || pass != "secret" {
			t.Error("missing basic auth")
		}
		fmt.Fprint(w, `{"id":"order_9","amount":15000,"currency":"INR","receipt":"bill-1","status":"created"}`)
	}))
	defer srv.Close()

	r := NewRazorpay("key", "secret")
	r.BaseURL = srv.URL

	order, err := r.CreateOrder(context.Background(), 15000, "INR", "bill-1")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_9" || order.Amount != 15000 {
		t.Errorf("order = %+v", order)
	}
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	r := NewRazorpay("key", "secret")
	if _, err := r.CreateOrder(context.Background(), 0, "INR", "x"); err == nil {
		t.Error("zero amount must be rejected before any network call")
	}
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewRazorpay("key", "secret")
	r.BaseURL = srv.URL
	if _, err := r.CreateOrder(context.Background(), 100, "INR", "x"); err == nil {
		t.Error("gateway error must surface")
	}
}
