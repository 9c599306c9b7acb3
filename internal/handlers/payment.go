package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway/piprapay"
	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

type PaymentProcessor interface {
	StartBkashPayment(ctx context.Context, principal *services.Principal, projectID string) (string, error)
	StartPiprapayPayment(ctx context.Context, principal *services.Principal, projectID string) (string, error)
	HandleBkashCallback(ctx context.Context, paymentID, status string) services.Outcome
	HandlePiprapayReturn(ctx context.Context, invoiceID, status string) services.Outcome
	HandlePiprapayWebhook(ctx context.Context, presentedKey, remoteAddr string, body []byte) error
	VerifyPiprapay(ctx context.Context, invoiceID string) (piprapay.VerifyResult, error)
	Events(ctx context.Context, orderID string) ([]models.PaymentEvent, error)
}

type PaymentHandler struct {
	service PaymentProcessor
}

func NewPaymentHandler(service PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// OutcomeLocation is where the customer's browser goes after a synchronous
// confirmation.
func OutcomeLocation(out services.Outcome) string {
	if out.Success() {
		return "/client/projects/" + url.PathEscape(out.ProjectID) + "?payment_status=success"
	}
	return "/payment/failure?message=" + url.QueryEscape(out.Failure)
}

// BkashCallback handles GET /bkash/callback?paymentID=&status=
func (h *PaymentHandler) BkashCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out := h.service.HandleBkashCallback(r.Context(), q.Get("paymentID"), q.Get("status"))
	http.Redirect(w, r, OutcomeLocation(out), http.StatusFound)
}

// PiprapayReturn handles GET /piprapay/return?invoice_id=
func (h *PaymentHandler) PiprapayReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out := h.service.HandlePiprapayReturn(r.Context(), q.Get("invoice_id"), q.Get("status"))
	http.Redirect(w, r, OutcomeLocation(out), http.StatusFound)
}

// PiprapayWebhook handles POST /piprapay/webhook. The body of every answer
// is a bare status envelope.
func (h *PaymentHandler) PiprapayWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"status": false})
		return
	}

	err = h.service.HandlePiprapayWebhook(r.Context(), r.Header.Get(piprapay.APIKeyHeader), remoteIP(r), body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"status": true})
	case errors.Is(err, services.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"status": false})
	case errors.Is(err, services.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]bool{"status": false})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]bool{"status": false})
	default:
		log.Printf("PipraPay webhook failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"status": false})
	}
}

// StartBkash handles POST /api/projects/{projectID}/pay/bkash
func (h *PaymentHandler) StartBkash(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.service.StartBkashPayment(r.Context(), PrincipalFrom(r.Context()), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectURL})
}

// StartPiprapay handles POST /api/projects/{projectID}/pay/piprapay
func (h *PaymentHandler) StartPiprapay(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.service.StartPiprapayPayment(r.Context(), PrincipalFrom(r.Context()), mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectURL})
}

// VerifyPiprapay handles POST /api/piprapay/verify
func (h *PaymentHandler) VerifyPiprapay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InvoiceID string `json:"invoice_id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.VerifyPiprapay(r.Context(), body.InvoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if !result.OK {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// PaymentEvents handles GET /api/orders/{orderID}/events, the reconciliation
// log of one order.
func (h *PaymentHandler) PaymentEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Events(r.Context(), mux.Vars(r)["orderID"])
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.PaymentEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// remoteIP returns the peer address. A client-supplied X-Forwarded-For is
// appended for context but never replaces it.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		return host + " (X-Forwarded-For: " + fwd + ")"
	}
	return host
}
