// Package registry resolves model ids to connectors. A Registry is built
// once from config, is read-only to callers, and changes only through an
// explicit Reload.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/stellarlinkco/model-bench/internal/config"
	"github.com/stellarlinkco/model-bench/internal/connector"
)

type Registry struct {
	mu         sync.RWMutex
	connectors map[string]connector.Connector
}

// NewFromConfig builds a registry with one connector per configured model.
// Providers without an API key, and disabled providers, contribute nothing.
// Unknown provider names are a configuration defect and fail fast.
func NewFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("registry: nil config")
	}

	connectors, err := buildConnectors(cfg)
	if err != nil {
		return nil, err
	}
	return &Registry{connectors: connectors}, nil
}

func buildConnectors(cfg *config.Config) (map[string]connector.Connector, error) {
	out := make(map[string]connector.Connector)

	for name, pcfg := range cfg.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || !pcfg.ProviderEnabled() {
			continue
		}
		if strings.TrimSpace(pcfg.APIKey) == "" {
			continue
		}

		switch key {
		case "anthropic", "claude":
			models := pcfg.Models
			if len(models) == 0 {
				models = config.DefaultAnthropicModels
			}
			for _, m := range models {
				c := connector.NewClaudeConnector(pcfg.APIKey, pcfg.BaseURL, m)
				out[c.ModelInfo().ID] = c
			}
		case "openai":
			models := pcfg.Models
			if len(models) == 0 {
				models = config.DefaultOpenAIModels
			}
			for _, m := range models {
				c := connector.NewOpenAIConnector(pcfg.APIKey, pcfg.BaseURL, m)
				out[c.ModelInfo().ID] = c
			}
		default:
			return nil, fmt.Errorf("registry: unknown provider %q", name)
		}
	}

	return out, nil
}

// ConnectorFor returns the connector registered for a model id, or false
// when the model is unknown or unavailable.
func (r *Registry) ConnectorFor(modelID string) (connector.Connector, bool) {
	if r == nil {
		return nil, false
	}
	modelID = strings.ToLower(strings.TrimSpace(modelID))
	if modelID == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[modelID]
	return c, ok
}

// Models lists the registered models sorted by id.
func (r *Registry) Models() []connector.ModelInfo {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]connector.ModelInfo, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c.ModelInfo())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of registered models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connectors)
}

// Reload rebuilds the connector set from a new config. On error the
// previous set stays in place.
func (r *Registry) Reload(cfg *config.Config) error {
	if r == nil {
		return errors.New("registry: nil registry")
	}
	if cfg == nil {
		return errors.New("registry: nil config")
	}

	connectors, err := buildConnectors(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.connectors = connectors
	r.mu.Unlock()
	return nil
}

// Register adds or replaces a single connector. Intended for tests and
// for wiring custom endpoints.
func (r *Registry) Register(c connector.Connector) {
	if r == nil || c == nil {
		return
	}
	id := strings.ToLower(strings.TrimSpace(c.ModelInfo().ID))
	if id == "" {
		return
	}

	r.mu.Lock()
	if r.connectors == nil {
		r.connectors = make(map[string]connector.Connector)
	}
	r.connectors[id] = c
	r.mu.Unlock()
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{connectors: make(map[string]connector.Connector)}
}
