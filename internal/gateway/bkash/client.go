// Package bkash is a client for the bKash tokenized checkout API. Every call
// first obtains a fresh id_token through the grant endpoint; tokens are not
// cached between calls.
package bkash

import (
	"bytes"
	"context"
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
	Provider       = "bkash"
	DefaultBaseURL = "https://tokenized.sandbox.bka.sh/v1.2.0-beta"

	StatusCodeSuccess = "0000"
	TransactionDone   = "Completed"
)

type Config struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	Username  string
	Password  string
}

// ConfigFromSettings builds a Config from the "bkash" settings bundle. All
// four credentials are required; base_url falls back to the sandbox.
func ConfigFromSettings(values map[string]string) (Config, error) {
	if err := gateway.RequireKeys(Provider, values, "app_key", "app_secret", "username", "password"); err != nil {
		return Config{}, err
	}
	baseURL := strings.TrimRight(values["base_url"], "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Config{
		BaseURL:   baseURL,
		AppKey:    values["app_key"],
		AppSecret: values["app_secret"],
		Username:  values["username"],
		Password:  values["password"],
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

type PaymentRequest struct {
	Amount         float64
	OrderID        string
	PayerReference string
	CallbackURL    string
}

type CreatePaymentResult struct {
	RedirectURL string
	PaymentID   string
}

// ExecuteResult is the execute endpoint's answer. Callers decide success with
// Confirmed.
type ExecuteResult struct {
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	PayerReference        string `json:"payerReference"`
	CustomerMsisdn        string `json:"customerMsisdn"`

	Raw json.RawMessage `json:"-"`
}

func (r *ExecuteResult) Confirmed() bool {
	return r != nil && r.StatusCode == StatusCodeSuccess && r.TransactionStatus == TransactionDone
}

type grantResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	IDToken       string `json:"id_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int    `json:"expires_in"`
	RefreshToken  string `json:"refresh_token"`
}

type createResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
}

func (c *Client) grantToken(ctx context.Context) (string, error) {
	body := map[string]string{
		"app_key":    c.cfg.AppKey,
		"app_secret": c.cfg.AppSecret,
	}
	headers := map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}

	var grant grantResponse
	if _, err := c.post(ctx, "grant token", "/tokenized/checkout/token/grant", headers, body, &grant); err != nil {
		return "", err
	}
	if grant.IDToken == "" {
		msg := grant.StatusMessage
		if msg == "" {
			msg = "id_token missing from grant response"
		}
		log.Printf("bKash token grant returned no token: %s", msg)
		return "", &gateway.GatewayError{Provider: Provider, Op: "grant token", Message: msg}
	}
	return grant.IDToken, nil
}

func (c *Client) authHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": token,
		"X-APP-Key":     c.cfg.AppKey,
	}
}

// CreatePayment starts a checkout and returns the URL the payer must be sent to.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*CreatePaymentResult, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"mode":                  "0011",
		"payerReference":        req.PayerReference,
		"callbackURL":           req.CallbackURL,
		"amount":                decimal.NewFromFloat(req.Amount).StringFixed(2),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": req.OrderID,
	}

	var created createResponse
	if _, err := c.post(ctx, "create payment", "/tokenized/checkout/create", c.authHeaders(token), body, &created); err != nil {
		return nil, err
	}
	if created.StatusCode != StatusCodeSuccess {
		log.Printf("bKash create payment rejected for order %s: %s %s", req.OrderID, created.StatusCode, created.StatusMessage)
		return nil, &gateway.GatewayError{Provider: Provider, Op: "create payment", Message: created.StatusMessage}
	}

	log.Printf("bKash payment created: PaymentID=%s, Order=%s", created.PaymentID, req.OrderID)
	return &CreatePaymentResult{RedirectURL: created.BkashURL, PaymentID: created.PaymentID}, nil
}

// ExecutePayment finalizes the payment identified by paymentID and returns the
// gateway result as is.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*ExecuteResult, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, err
	}

	var result ExecuteResult
	raw, err := c.post(ctx, "execute payment", "/tokenized/checkout/execute", c.authHeaders(token),
		map[string]string{"paymentID": paymentID}, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

func (c *Client) post(ctx context.Context, op, path string, headers map[string]string, body interface{}, out interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	log.Printf("bKash %s request body: %s", op, string(gateway.MaskSensitiveFields(reqBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("bKash %s request failed: %v", op, err)
		return nil, fmt.Errorf("bkash %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bkash %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("bKash %s failed with status %d: %s", op, resp.StatusCode, string(raw))
		return nil, &gateway.GatewayError{Provider: Provider, Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("Failed to decode bKash %s response: %v", op, err)
		return nil, fmt.Errorf("failed to decode bkash %s response: %w", op, err)
	}
	return raw, nil
}
