package adapters

import (
	"strings"

	"github.com/smallbiznis/scriba/internal/stt/domain"
)

// Registry keeps adapters by normalized name and preserves registration
// order for the fallback chain.
type Registry struct {
	adapters map[string]domain.Adapter
	order    []string
}

func NewRegistry(adapters ...domain.Adapter) *Registry {
	registry := &Registry{adapters: map[string]domain.Adapter{}}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(adapter.Name()))
		if name == "" {
			continue
		}
		if _, exists := registry.adapters[name]; exists {
			continue
		}
		registry.adapters[name] = adapter
		registry.order = append(registry.order, name)
	}
	return registry
}

func (r *Registry) Exists(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.adapters[normalize(name)]
	return ok
}

func (r *Registry) Get(name string) (domain.Adapter, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	adapter, ok := r.adapters[normalize(name)]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return adapter, nil
}

// Names returns adapter names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
