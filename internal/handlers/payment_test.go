package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway"
	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/piprapay"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

func newTestRouter(payments *mockPayments, projects *mockProjects) http.Handler {
	clientID := primitive.NewObjectID()
	tokens := tokenTable{
		"admin":  {UserID: "u1", Role: models.RoleAdmin},
		"client": {UserID: "u2", Role: models.RoleClient, ClientID: &clientID},
	}
	if projects == nil {
		projects = &mockProjects{}
	}
	return NewRouter(Handlers{
		Users:    NewUserHandler(nil),
		Clients:  NewClientHandler(nil),
		Projects: NewProjectHandler(projects),
		Settings: NewSettingsHandler(nil),
		Payments: NewPaymentHandler(payments),
	}, tokens)
}

func TestOutcomeLocation(t *testing.T) {
	tests := []struct {
		out  services.Outcome
		want string
	}{
		{services.Outcome{ProjectID: "abc123"}, "/client/projects/abc123?payment_status=success"},
		{services.Outcome{Failure: "Payment cancelled by user"}, "/payment/failure?message=Payment+cancelled+by+user"},
	}
	for _, tt := range tests {
		if got := OutcomeLocation(tt.out); got != tt.want {
			t.Errorf("OutcomeLocation(%+v) = %q, want %q", tt.out, got, tt.want)
		}
	}
}

func TestBkashCallbackRoutes(t *testing.T) {
	var gotPayment, gotStatus string
	payments := &mockPayments{
		HandleBkashCallbackFunc: func(ctx context.Context, paymentID, status string) services.Outcome {
			gotPayment, gotStatus = paymentID, status
			if status != "success" {
				return services.Outcome{Failure: services.MessageCancelled}
			}
			return services.Outcome{ProjectID: "p1"}
		},
	}
	router := newTestRouter(payments, nil)

	for _, path := range []string{"/bkash/callback", "/bkash-style-callback"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?paymentID=PAY-1&status=success", nil))
			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/client/projects/p1?payment_status=success" {
				t.Errorf("Location = %q", loc)
			}
			if gotPayment != "PAY-1" || gotStatus != "success" {
				t.Errorf("service got %q %q", gotPayment, gotStatus)
			}
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bkash/callback?paymentID=PAY-1&status=cancel", nil))
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/payment/failure?message=") {
		t.Errorf("Location = %q", loc)
	}
}

func TestPiprapayReturnRoutes(t *testing.T) {
	payments := &mockPayments{
		HandlePiprapayReturnFunc: func(ctx context.Context, invoiceID, status string) services.Outcome {
			if invoiceID != "INV-7" {
				return services.Outcome{Failure: services.MessageGeneric}
			}
			return services.Outcome{ProjectID: "p7"}
		},
	}
	router := newTestRouter(payments, nil)

	for _, path := range []string{"/piprapay/return", "/piprapay-return"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?invoice_id=INV-7", nil))
		if loc := rec.Header().Get("Location"); loc != "/client/projects/p7?payment_status=success" {
			t.Errorf("%s: Location = %q", path, loc)
		}
	}
}

func TestPiprapayWebhookResponses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus bool
	}{
		{"accepted", nil, http.StatusOK, true},
		{"bad key", services.ErrUnauthorized, http.StatusUnauthorized, false},
		{"bad payload", services.ErrInvalidInput, http.StatusBadRequest, false},
		{"unknown order", services.ErrNotFound, http.StatusNotFound, false},
		{"store down", context.DeadlineExceeded, http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey, gotAddr, gotBody string
			payments := &mockPayments{
				HandlePiprapayWebhookFunc: func(ctx context.Context, key, remoteAddr string, body []byte) error {
					gotKey, gotAddr, gotBody = key, remoteAddr, string(body)
					return tt.err
				},
			}
			router := newTestRouter(payments, nil)

			for _, path := range []string{"/piprapay/webhook", "/piprapay-webhook"} {
				req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"status":"completed"}`))
				req.Header.Set(piprapay.APIKeyHeader, "k1")
				req.RemoteAddr = "203.0.113.5:4431"
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)

				if rec.Code != tt.wantCode {
					t.Errorf("%s: code = %d, want %d", path, rec.Code, tt.wantCode)
				}
				var body map[string]bool
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("%s: decode: %v", path, err)
				}
				if body["status"] != tt.wantStatus || len(body) != 1 {
					t.Errorf("%s: body = %v", path, body)
				}
				if gotKey != "k1" || gotAddr != "203.0.113.5" || gotBody != `{"status":"completed"}` {
					t.Errorf("%s: service got key=%q addr=%q body=%q", path, gotKey, gotAddr, gotBody)
				}
			}
		})
	}
}

func TestStartPaymentRequiresToken(t *testing.T) {
	called := false
	payments := &mockPayments{
		StartBkashPaymentFunc: func(ctx context.Context, p *services.Principal, projectID string) (string, error) {
			called = true
			if p == nil || projectID != "p1" {
				t.Errorf("principal=%v projectID=%q", p, projectID)
			}
			return "https://checkout.example.com", nil
		},
	}
	router := newTestRouter(payments, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/projects/p1/pay/bkash", nil))
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("unauthenticated call: code %d, called %v", rec.Code, called)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/projects/p1/pay/bkash", nil)
	req.Header.Set("Authorization", "Bearer client")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["redirect_url"] != "https://checkout.example.com" {
		t.Errorf("body = %v", body)
	}
}

func TestStartPaymentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"paid", services.ErrAlreadyPaid, http.StatusConflict},
		{"unknown", services.ErrNotFound, http.StatusNotFound},
		{"not configured", &gateway.ConfigurationError{Provider: "piprapay", Missing: []string{"api_key"}}, http.StatusServiceUnavailable},
		{"rejected", &gateway.GatewayError{Provider: "piprapay", Op: "create charge", Message: "bad amount"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &mockPayments{
				StartPiprapayPaymentFunc: func(context.Context, *services.Principal, string) (string, error) {
					return "", tt.err
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/api/projects/p1/pay/piprapay", nil)
			req.Header.Set("Authorization", "Bearer client")
			rec := httptest.NewRecorder()
			newTestRouter(payments, nil).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestVerifyPiprapay(t *testing.T) {
	payments := &mockPayments{
		VerifyPiprapayFunc: func(ctx context.Context, invoiceID string) (piprapay.VerifyResult, error) {
			if invoiceID == "INV-BAD" {
				return piprapay.VerifyResult{OK: false, Message: "HTTP 500"}, nil
			}
			return piprapay.VerifyResult{OK: true, Status: "completed", InvoiceID: invoiceID}, nil
		},
	}
	router := newTestRouter(payments, nil)

	for invoice, want := range map[string]int{"INV-1": http.StatusOK, "INV-BAD": http.StatusBadGateway} {
		req := httptest.NewRequest(http.MethodPost, "/api/piprapay/verify", strings.NewReader(`{"invoice_id":"`+invoice+`"}`))
		req.Header.Set("Authorization", "Bearer admin")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: code = %d, want %d", invoice, rec.Code, want)
		}
	}
}

func TestPaymentEvents(t *testing.T) {
	payments := &mockPayments{
		EventsFunc: func(ctx context.Context, orderID string) ([]models.PaymentEvent, error) {
			if orderID != "ORD-1" {
				return nil, nil
			}
			return []models.PaymentEvent{{OrderID: "ORD-1", Outcome: models.OutcomeTransitioned}}, nil
		},
	}
	router := newTestRouter(payments, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/ORD-1/events", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var events []models.PaymentEvent
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil || len(events) != 1 {
		t.Fatalf("events = %v, err = %v", events, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/ORD-2/events", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty log body = %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orders/ORD-1/events", nil)
	req.Header.Set("Authorization", "Bearer client")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("client code = %d", rec.Code)
	}
}

func TestPiprapayWebhookReportsPeerAddress(t *testing.T) {
	var gotAddr string
	payments := &mockPayments{
		HandlePiprapayWebhookFunc: func(ctx context.Context, key, remoteAddr string, body []byte) error {
			gotAddr = remoteAddr
			return services.ErrUnauthorized
		},
	}
	router := newTestRouter(payments, nil)

	req := httptest.NewRequest(http.MethodPost, "/piprapay/webhook", strings.NewReader(`{}`))
	req.RemoteAddr = "203.0.113.5:4431"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if want := "203.0.113.5 (X-Forwarded-For: 198.51.100.7)"; gotAddr != want {
		t.Errorf("remote address = %q, want %q", gotAddr, want)
	}
}
