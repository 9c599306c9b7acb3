// Package sms sends text messages through an HTTP SMS gateway that takes
// api_key, senderid, number and message as form fields.
package sms

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway"
)

const Provider = "sms"

type Config struct {
	APIURL   string
	APIKey   string
	SenderID string
}

func ConfigFromSettings(values map[string]string) (Config, error) {
	if err := gateway.RequireKeys(Provider, values, "api_url", "api_key"); err != nil {
		return Config{}, err
	}
	return Config{
		APIURL:   values["api_url"],
		APIKey:   values["api_key"],
		SenderID: values["sender_id"],
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

func (c *Client) Send(ctx context.Context, to, message string) error {
	to = NormalizeNumber(to)
	if to == "" {
		return fmt.Errorf("sms recipient is empty")
	}

	form := url.Values{}
	form.Set("api_key", c.cfg.APIKey)
	form.Set("senderid", c.cfg.SenderID)
	form.Set("number", to)
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &gateway.GatewayError{Provider: Provider, Op: "send", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	log.Printf("SMS sent to ****%s", lastDigits(to, 4))
	return nil
}

// NormalizeNumber turns local Bangladeshi numbers (01XXXXXXXXX) into the
// 8801XXXXXXXXX form gateways expect and strips separators.
func NormalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "01") && len(digits) == 11 {
		return "88" + digits
	}
	return digits
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
