package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
)

// SettingsCache keeps the last snapshot so every request does not hit the
// settings collection.
type SettingsCache interface {
	Get(ctx context.Context) (models.SettingsSnapshot, bool)
	Set(ctx context.Context, snapshot models.SettingsSnapshot)
	Invalidate(ctx context.Context)
}

type noopCache struct{}

func (noopCache) Get(context.Context) (models.SettingsSnapshot, bool) { return nil, false }
func (noopCache) Set(context.Context, models.SettingsSnapshot)        {}
func (noopCache) Invalidate(context.Context)                          {}

type SettingsService struct {
	repo  repository.SettingsRepository
	cache SettingsCache
}

func NewSettingsService(repo repository.SettingsRepository, cache SettingsCache) *SettingsService {
	if cache == nil {
		cache = noopCache{}
	}
	return &SettingsService{repo: repo, cache: cache}
}

// Snapshot returns every provider's settings as of now. The result is a copy;
// later admin changes do not affect a snapshot already handed out.
func (s *SettingsService) Snapshot(ctx context.Context) (models.SettingsSnapshot, error) {
	if snap, ok := s.cache.Get(ctx); ok {
		return snap, nil
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	snap := make(models.SettingsSnapshot, len(all))
	for _, st := range all {
		values := make(map[string]string, len(st.Values))
		for k, v := range st.Values {
			values[k] = v
		}
		snap[st.Provider] = values
	}
	s.cache.Set(ctx, snap)
	return snap, nil
}

func (s *SettingsService) Set(ctx context.Context, provider string, values map[string]string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no values given", ErrInvalidInput)
	}
	for k := range values {
		if strings.TrimSpace(k) == "" || strings.ContainsAny(k, ".$") {
			return fmt.Errorf("%w: invalid key %q", ErrInvalidInput, k)
		}
	}

	if err := s.repo.Upsert(ctx, provider, values); err != nil {
		log.Printf("Failed to save %s settings: %v", provider, err)
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.cache.Invalidate(ctx)
	log.Printf("Settings updated: provider=%s keys=%s", provider, strings.Join(sortedKeys(values), ","))
	return nil
}

// Masked returns the provider's settings with secrets hidden, for display.
func (s *SettingsService) Masked(ctx context.Context, provider string) (map[string]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	values := snap.Provider(provider)
	for k, v := range values {
		if isSecretKey(k) {
			values[k] = MaskSecret(v)
		}
	}
	return values, nil
}

// Import reads a YAML document of the form
//
//	bkash:
//	  app_key: ...
//	sms:
//	  api_url: ...
//
// and stores every provider in it. It returns the number of providers saved.
func (s *SettingsService) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read settings file: %w", err)
	}

	var doc map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: invalid settings file: %v", ErrInvalidInput, err)
	}

	count := 0
	for _, provider := range sortedKeys(doc) {
		if len(doc[provider]) == 0 {
			continue
		}
		if err := s.Set(ctx, provider, doc[provider]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range []string{"key", "secret", "password", "token"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// MaskSecret keeps the last four characters of long values only.
func MaskSecret(v string) string {
	if len(v) <= 8 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
