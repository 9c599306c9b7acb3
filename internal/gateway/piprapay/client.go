// Package piprapay is a client for the PipraPay API-key gateway: charge
// creation, payment verification and webhook parsing.
package piprapay

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway"
)

const (
	Provider        = "piprapay"
	APIKeyHeader    = "mh-piprapay-api-key"
	DefaultCurrency = "BDT"

	StatusCompleted = "completed"
)

type Config struct {
	BaseURL    string
	APIKey     string
	WebhookKey string
	Currency   string
}

// ConfigFromSettings builds a Config from the "piprapay" settings bundle.
// The webhook key is optional here; the webhook handler rejects every
// delivery while it is unset.
func ConfigFromSettings(values map[string]string) (Config, error) {
	if err := gateway.RequireKeys(Provider, values, "base_url", "api_key"); err != nil {
		return Config{}, err
	}
	currency := values["currency"]
	if currency == "" {
		currency = DefaultCurrency
	}
	return Config{
		BaseURL:    strings.TrimRight(values["base_url"], "/"),
		APIKey:     values["api_key"],
		WebhookKey: values["webhook_key"],
		Currency:   currency,
	}, nil
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

type Customer struct {
	FullName      string
	EmailOrMobile string
}

type ChargeRequest struct {
	Amount      float64
	Currency    string
	Customer    Customer
	Metadata    map[string]string
	RedirectURL string
	CancelURL   string
	WebhookURL  string
}

// ChargeResult is one of ChargeSuccess, ChargeFailed or ChargeMalformed.
type ChargeResult interface {
	chargeResult()
}

// ChargeSuccess carries the hosted payment page and the provider invoice id.
type ChargeSuccess struct {
	URL       string
	InvoiceID string
}

// ChargeFailed is a transport failure or a non-2xx answer.
type ChargeFailed struct {
	StatusCode int
	Message    string
}

// ChargeMalformed is a 2xx answer in which no payment URL could be found.
type ChargeMalformed struct {
	RawBody string
}

func (ChargeSuccess) chargeResult()   {}
func (ChargeFailed) chargeResult()    {}
func (ChargeMalformed) chargeResult() {}

// VerifyResult is the outcome of a verification call. OK is false when the
// provider could not be reached or answered with something unusable; Message
// then says why.
type VerifyResult struct {
	OK        bool              `json:"ok"`
	Message   string            `json:"message,omitempty"`
	Status    string            `json:"status,omitempty"`
	InvoiceID string            `json:"invoice_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Payload   json.RawMessage   `json:"data,omitempty"`
}

func (r VerifyResult) Completed() bool {
	return r.OK && r.Status == StatusCompleted
}

// CreateCharge never returns a Go error: every failure is a ChargeFailed or
// ChargeMalformed value the caller must inspect.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) ChargeResult {
	currency := req.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}
	body := map[string]interface{}{
		"full_name":    req.Customer.FullName,
		"email_mobile": req.Customer.EmailOrMobile,
		"amount":       decimal.NewFromFloat(req.Amount).StringFixed(2),
		"metadata":     req.Metadata,
		"redirect_url": req.RedirectURL,
		"return_type":  "GET",
		"cancel_url":   req.CancelURL,
		"webhook_url":  req.WebhookURL,
		"currency":     currency,
	}

	status, raw, err := c.post(ctx, "create charge", "/api/create-charge", body)
	if err != nil {
		return ChargeFailed{Message: err.Error()}
	}
	if status < 200 || status >= 300 {
		return ChargeFailed{StatusCode: status, Message: failureMessage(raw)}
	}
	return ParseChargeResponse(raw)
}

// VerifyPayment asks the provider for the current state of invoiceID.
func (c *Client) VerifyPayment(ctx context.Context, invoiceID string) VerifyResult {
	status, raw, err := c.post(ctx, "verify payment", "/api/verify-payments", map[string]string{"invoice_id": invoiceID})
	if err != nil {
		return VerifyResult{OK: false, Message: err.Error()}
	}
	if status < 200 || status >= 300 {
		return VerifyResult{OK: false, Message: failureMessage(raw)}
	}
	return ParseVerifyResponse(raw)
}

// ParseChargeResponse picks the payment URL and invoice id out of a
// create-charge answer. Deployments differ in field names, so several
// locations are probed in order.
func ParseChargeResponse(raw []byte) ChargeResult {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ChargeMalformed{RawBody: string(raw)}
	}
	url := firstString(doc, "url", "payment_url", "pp_url", "data.url", "data.payment_url", "data.pp_url")
	if url == "" {
		return ChargeMalformed{RawBody: string(raw)}
	}
	return ChargeSuccess{
		URL:       url,
		InvoiceID: firstString(doc, "invoice_id", "pp_id", "id", "data.invoice_id", "data.pp_id", "data.id"),
	}
}

// ParseVerifyResponse accepts the status either at the top level or under
// "data".
func ParseVerifyResponse(raw []byte) VerifyResult {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return VerifyResult{OK: false, Message: "unparsable verification response"}
	}
	status := strings.ToLower(firstString(doc, "status", "data.status"))
	if status == "" {
		return VerifyResult{OK: false, Message: "verification response has no status", Payload: raw}
	}
	return VerifyResult{
		OK:        true,
		Status:    status,
		InvoiceID: firstString(doc, "invoice_id", "pp_id", "data.invoice_id", "data.pp_id"),
		Metadata:  stringMap(lookup(doc, "metadata", "data.metadata")),
		Payload:   raw,
	}
}

// WebhookEvent is an asynchronous payment notification.
type WebhookEvent struct {
	Status    string
	InvoiceID string
	Metadata  map[string]string
}

func ParseWebhook(raw []byte) (*WebhookEvent, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return &WebhookEvent{
		Status:    strings.ToLower(firstString(doc, "status", "data.status")),
		InvoiceID: firstString(doc, "invoice_id", "pp_id", "data.invoice_id", "data.pp_id"),
		Metadata:  stringMap(lookup(doc, "metadata", "data.metadata")),
	}, nil
}

// VerifyWebhookKey reports whether the key presented by a webhook matches
// the configured one. An unset configured key matches nothing.
func VerifyWebhookKey(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

func (c *Client) post(ctx context.Context, op, path string, body interface{}) (int, []byte, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	log.Printf("PipraPay %s request body: %s", op, string(gateway.MaskSensitiveFields(reqBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("PipraPay %s request failed: %v", op, err)
		return 0, nil, fmt.Errorf("piprapay %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read piprapay %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("PipraPay %s failed with status %d: %s", op, resp.StatusCode, string(raw))
	}
	return resp.StatusCode, raw, nil
}

func failureMessage(raw []byte) string {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err == nil {
		if msg := firstString(doc, "message", "error", "data.message"); msg != "" {
			return msg
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return "empty response from gateway"
}

// lookup returns the first value found at one of the dotted paths.
func lookup(doc map[string]interface{}, paths ...string) interface{} {
	for _, path := range paths {
		var cur interface{} = doc
		for _, part := range strings.Split(path, ".") {
			m, ok := cur.(map[string]interface{})
			if !ok {
				cur = nil
				break
			}
			cur = m[part]
		}
		if cur != nil {
			return cur
		}
	}
	return nil
}

func firstString(doc map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		switch v := lookup(doc, path).(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		}
	}
	return ""
}

func stringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		// some deployments send metadata as a JSON-encoded string
		s, isString := v.(string)
		if !isString || json.Unmarshal([]byte(s), &m) != nil {
			return map[string]string{}
		}
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		switch tv := val.(type) {
		case string:
			out[k] = tv
		case nil:
		default:
			out[k] = fmt.Sprint(tv)
		}
	}
	return out
}
