package providers

import (
	"fmt"
	"sort"
)

// Kind names the role an external service plays in the pipeline.
type Kind string

const (
	KindESign   Kind = "esign"
	KindPayment Kind = "payment"
	KindTracker Kind = "tracker"
	KindChat    Kind = "chat"
)

// Descriptor is the non-secret view of a configured client, used by diagnostics.
type Descriptor struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	BaseURL    string `json:"base_url"`
	Configured bool   `json:"configured"`
	// Credentials maps credential names to masked prefixes.
	Credentials map[string]string `json:"credentials,omitempty"`
}

// Provider is implemented by every external service client.
type Provider interface {
	Describe() Descriptor
}

// ProviderRegistry maintains all registered providers
type ProviderRegistry struct {
	providers map[string]Provider
}

// NewProviderRegistry creates a new empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *ProviderRegistry) Register(p Provider) error {
	id := p.Describe().ID
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Describe returns every registered provider's descriptor, ordered by ID.
func (r *ProviderRegistry) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Describe())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Mask keeps the first four characters of a secret for diagnostics.
func Mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	default:
		return secret[:4] + "****"
	}
}
