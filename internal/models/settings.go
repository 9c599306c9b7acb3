package models

import "time"

const (
	ProviderBkash    = "bkash"
	ProviderPiprapay = "piprapay"
	ProviderSMS      = "sms"
	ProviderSMTP     = "smtp"
	ProviderStorage  = "storage"
)

// Settings is the credential bundle of one integration, keyed by provider name.
type Settings struct {
	Provider  string            `bson:"_id" json:"provider" yaml:"provider"`
	Values    map[string]string `bson:"values" json:"values" yaml:"values"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at" yaml:"-"`
}

// SettingsSnapshot is a read-only copy of every provider's settings, taken
// once at the start of a request.
type SettingsSnapshot map[string]map[string]string

func (s SettingsSnapshot) Get(provider, key string) string {
	if s == nil {
		return ""
	}
	return s[provider][key]
}

func (s SettingsSnapshot) Provider(provider string) map[string]string {
	out := make(map[string]string, len(s[provider]))
	for k, v := range s[provider] {
		out[k] = v
	}
	return out
}
