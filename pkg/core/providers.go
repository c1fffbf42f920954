package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/fragent/fragent-go/pkg/llm"
	customLLM "github.com/fragent/fragent-go/pkg/llm/custom"
	ollamaLLM "github.com/fragent/fragent-go/pkg/llm/ollama"
	openaiLLM "github.com/fragent/fragent-go/pkg/llm/openai"
	"github.com/fragent/fragent-go/pkg/storage"
)

// Setting keys read by provider resolution.
const (
	DefaultProviderSettingKey = "default_provider"
	providerSettingPrefix     = "provider_"
)

// ProviderSettingKey returns the settings key holding credentials for name.
func ProviderSettingKey(name llm.ProviderName) string {
	return providerSettingPrefix + string(name)
}

// ProviderSettings are the resolved connection details for one provider call.
type ProviderSettings struct {
	Name    llm.ProviderName
	APIKey  string
	BaseURL string

	// Model is the agent's model, or the provider default when the agent has none.
	Model string

	Timeout  time.Duration
	Referer  string
	AppTitle string
}

// ProviderFactory builds an llm.Provider from resolved settings.
type ProviderFactory func(settings ProviderSettings) (llm.Provider, error)

// DefaultProviderFactory builds the provider variant named by settings.Name.
// OpenRouter reuses the OpenAI client with attribution headers.
func DefaultProviderFactory(settings ProviderSettings) (llm.Provider, error) {
	var (
		provider llm.Provider
		err      error
	)
	switch settings.Name {
	case llm.ProviderOpenAI:
		p, e := openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
		})
		provider, err = p, e
	case llm.ProviderOpenRouter:
		p, e := openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
			Headers: map[string]string{
				"HTTP-Referer": settings.Referer,
				"X-Title":      settings.AppTitle,
			},
		})
		provider, err = p, e
	case llm.ProviderOllama:
		p, e := ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
		})
		provider, err = p, e
	case llm.ProviderCustom:
		p, e := customLLM.NewClient(&customLLM.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
		})
		provider, err = p, e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, settings.Name)
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// providerResolver turns an agent into provider settings. Setting lookups
// are cached for cfg.SettingsCacheTTL.
type providerResolver struct {
	settings storage.SettingsStore
	cfg      LLMConfig
	factory  ProviderFactory
	cache    *ristretto.Cache
}

func newProviderResolver(settings storage.SettingsStore, cfg LLMConfig, factory ProviderFactory) (*providerResolver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &providerResolver{
		settings: settings,
		cfg:      cfg,
		factory:  factory,
		cache:    cache,
	}, nil
}

// Resolve returns the settings for agent's provider. Unknown provider names
// wrap ErrUnsupportedProvider; a missing host or required API key wraps
// ErrProviderUnavailable. Settings store failures are returned as is.
func (r *providerResolver) Resolve(ctx context.Context, agent *storage.Agent) (ProviderSettings, error) {
	raw := ""
	if agent != nil && agent.IntegrationSettings != nil {
		raw, _ = agent.IntegrationSettings["provider"].(string)
	}
	if raw == "" {
		value, err := r.setting(ctx, DefaultProviderSettingKey)
		if err != nil {
			return ProviderSettings{}, err
		}
		raw, _ = value["provider"].(string)
	}
	if raw == "" {
		raw = r.cfg.DefaultProvider
	}

	name, ok := llm.ParseProviderName(raw)
	if !ok {
		return ProviderSettings{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, raw)
	}

	fallback := r.cfg.Providers[string(name)]
	settings := ProviderSettings{
		Name:     name,
		APIKey:   fallback.APIKey,
		BaseURL:  fallback.BaseURL,
		Model:    fallback.DefaultModel,
		Timeout:  r.cfg.Timeout,
		Referer:  r.cfg.Referer,
		AppTitle: r.cfg.AppTitle,
	}

	stored, err := r.setting(ctx, ProviderSettingKey(name))
	if err != nil {
		return ProviderSettings{}, err
	}
	if v, _ := stored["api_key"].(string); v != "" {
		settings.APIKey = v
	}
	if v, _ := stored["host"].(string); v != "" {
		settings.BaseURL = v
	} else if v, _ := stored["api_base"].(string); v != "" {
		settings.BaseURL = v
	}
	if v, _ := stored["default_model"].(string); v != "" {
		settings.Model = v
	}
	if agent != nil && agent.Model != "" {
		settings.Model = agent.Model
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	if settings.BaseURL == "" {
		return settings, fmt.Errorf("%w: no host configured for %s", ErrProviderUnavailable, name)
	}
	if name.RequiresAPIKey() && settings.APIKey == "" {
		return settings, fmt.Errorf("%w: no api key configured for %s", ErrProviderUnavailable, name)
	}
	return settings, nil
}

// setting returns the value stored under key, or an empty map when the key
// does not exist.
func (r *providerResolver) setting(ctx context.Context, key string) (map[string]interface{}, error) {
	if v, ok := r.cache.Get(key); ok {
		return v.(map[string]interface{}), nil
	}

	value := map[string]interface{}{}
	s, err := r.settings.GetSetting(ctx, key)
	switch {
	case err == nil:
		if s.Value != nil {
			value = s.Value
		}
	case isNotFound(err):
	default:
		return nil, err
	}

	if r.cfg.SettingsCacheTTL > 0 {
		r.cache.SetWithTTL(key, value, 1, r.cfg.SettingsCacheTTL)
		r.cache.Wait()
	}
	return value, nil
}

// Invalidate drops the cached value for key.
func (r *providerResolver) Invalidate(key string) {
	r.cache.Del(key)
}

func (r *providerResolver) Close() {
	r.cache.Close()
}

// ProviderCredentials are the values stored in a provider_<name> setting.
type ProviderCredentials struct {
	APIKey       string
	Host         string
	DefaultModel string
}

// SetProviderSettings stores credentials for a provider.
//
// Example:
//
//	err := client.SetProviderSettings(ctx, llm.ProviderOpenAI, core.ProviderCredentials{
//	    APIKey: "sk-...",
//	    Host:   "https://api.openai.com/v1",
//	})
func (c *Client) SetProviderSettings(ctx context.Context, name llm.ProviderName, creds ProviderCredentials) error {
	if _, ok := llm.ParseProviderName(string(name)); !ok {
		return NewAgentError("SetProviderSettings", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name))
	}

	value := map[string]interface{}{
		"api_key": creds.APIKey,
		"host":    creds.Host,
	}
	if creds.DefaultModel != "" {
		value["default_model"] = creds.DefaultModel
	}

	key := ProviderSettingKey(name)
	err := c.PutSetting(ctx, key, value, fmt.Sprintf("Settings for %s provider", name))
	if err != nil {
		return NewAgentError("SetProviderSettings", err)
	}
	return nil
}

// SetDefaultProvider stores the provider used by agents that do not name one.
func (c *Client) SetDefaultProvider(ctx context.Context, name llm.ProviderName) error {
	if _, ok := llm.ParseProviderName(string(name)); !ok {
		return NewAgentError("SetDefaultProvider", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name))
	}

	value := map[string]interface{}{"provider": string(name)}
	if err := c.PutSetting(ctx, DefaultProviderSettingKey, value, "Default LLM provider"); err != nil {
		return NewAgentError("SetDefaultProvider", err)
	}
	return nil
}
