package capability

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xilef-bot/evalbot/internal/sandbox"
)

// Definition describes a capability.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Provider supplies one capability object.
type Provider interface {
	Definition() Definition
	// Value is called once per invocation when the catalog is built.
	Value() any
}

// Registry manages the host capability providers.
type Registry struct {
	providers sync.Map
}

// NewRegistry creates an empty capability registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds or replaces a provider. Names are stored lower-case.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	name := strings.ToLower(strings.TrimSpace(def.Name))
	if name == "" {
		return fmt.Errorf("capability name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("capability name %q contains whitespace", def.Name)
	}

	r.providers.Store(name, provider)
	return nil
}

// Unregister removes a provider
func (r *Registry) Unregister(name string) {
	r.providers.Delete(strings.ToLower(name))
}

// Get retrieves a provider by name, case-insensitively
func (r *Registry) Get(name string) (Provider, bool) {
	val, ok := r.providers.Load(strings.ToLower(name))
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns all definitions sorted by name
func (r *Registry) List() []Definition {
	var defs []Definition
	r.providers.Range(func(key, value interface{}) bool {
		def := value.(Provider).Definition()
		def.Name = key.(string)
		defs = append(defs, def)
		return true
	})
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns the sorted capability names
func (r *Registry) Names() []string {
	defs := r.List()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Catalog snapshots every provider into a catalog for one invocation.
// Map and slice values are copied, so invocations never share them.
func (r *Registry) Catalog() sandbox.Catalog {
	catalog := sandbox.Catalog{}
	r.providers.Range(func(key, value interface{}) bool {
		catalog[key.(string)] = clone(value.(Provider).Value())
		return true
	})
	return catalog
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	sources := make(map[string]int)
	total := 0
	r.providers.Range(func(_, value interface{}) bool {
		total++
		sources[value.(Provider).Definition().Source]++
		return true
	})
	return map[string]interface{}{
		"total":   total,
		"sources": sources,
	}
}
