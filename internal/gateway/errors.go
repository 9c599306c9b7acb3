// Package gateway holds what the payment gateway clients share: their error
// taxonomy and the masking helper used when request bodies are logged.
package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfigurationError reports required credentials missing from settings.
// It is an operator problem and is never shown to the paying customer.
type ConfigurationError struct {
	Provider string
	Missing  []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

// GatewayError reports a provider that rejected a call or answered with
// something unusable. Message is the provider's own status message when it
// sent one.
type GatewayError struct {
	Provider   string
	Op         string
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (HTTP %d): %s", e.Provider, e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Provider, e.Op, e.Message)
}

// RequireKeys returns a ConfigurationError naming every key of values that
// is empty, or nil when all are present.
func RequireKeys(provider string, values map[string]string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(values[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Provider: provider, Missing: missing}
	}
	return nil
}

var sensitiveKeys = map[string]bool{
	"app_secret": true,
	"password":   true,
	"api_key":    true,
	"app_key":    true,
}

// MaskSensitiveFields returns body with secrets removed and phone numbers
// and emails partially hidden, for logging.
func MaskSensitiveFields(body []byte) []byte {
	var req map[string]interface{}
	if err := json.Unmarshal(body, &req); err != nil {
		return body
	}
	maskMap(req)
	masked, _ := json.Marshal(req)
	return masked
}

func maskMap(m map[string]interface{}) {
	for k, v := range m {
		switch val := v.(type) {
		case map[string]interface{}:
			maskMap(val)
		case string:
			lower := strings.ToLower(k)
			switch {
			case sensitiveKeys[lower]:
				m[k] = "****"
			case strings.Contains(lower, "email"):
				m[k] = maskEmail(val)
			case strings.Contains(lower, "mobile") || strings.Contains(lower, "phone") || lower == "number" || lower == "payerreference":
				if len(val) > 4 {
					m[k] = "****" + val[len(val)-4:]
				}
			}
		}
	}
}

func maskEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && len(parts[0]) > 3 {
		return parts[0][:3] + "****@" + parts[1]
	}
	return email
}
