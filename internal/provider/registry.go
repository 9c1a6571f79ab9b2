// Package provider holds the static configuration of the status pages that
// are tracked.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyRegistry   = errors.New("provider registry is empty")
)

// Provider is the configuration of one tracked status page.
type Provider struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	StatusPage  string `json:"status_page" yaml:"status_page"`
	RSSFeed     string `json:"rss_feed" yaml:"rss_feed"`
	LogoURL     string `json:"logo_url" yaml:"logo_url"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description" yaml:"description"`
}

// Registry is an immutable, ordered table of providers.
type Registry struct {
	providers []Provider
	byName    map[string]int
}

// NewRegistry validates providers and builds a registry that preserves their order.
func NewRegistry(providers []Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		byName:    make(map[string]int, len(providers)),
	}
	for i, p := range providers {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("provider %d: %w", i, err)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("provider %d: duplicate name %q", i, p.Name)
		}
		if p.DisplayName == "" {
			p.DisplayName = p.Name
		}
		r.byName[p.Name] = len(r.providers)
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on invalid input.
func MustNewRegistry(providers []Provider) *Registry {
	r, err := NewRegistry(providers)
	if err != nil {
		panic(err)
	}
	return r
}

func (p Provider) validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.New("name is required")
	case strings.ContainsAny(p.Name, " /"):
		return fmt.Errorf("name %q must not contain spaces or slashes", p.Name)
	case strings.TrimSpace(p.RSSFeed) == "":
		return fmt.Errorf("%s: rss_feed is required", p.Name)
	}
	return nil
}

// Get returns the provider with the given name.
func (r *Registry) Get(name string) (Provider, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

// ByFeed returns the provider whose feed URL is url.
func (r *Registry) ByFeed(url string) (Provider, bool) {
	for _, p := range r.providers {
		if p.RSSFeed == url {
			return p, true
		}
	}
	return Provider{}, false
}

// All returns a copy of the providers in registry order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Names returns provider names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Subset returns a registry with only the named providers, in the order given.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	selected := make([]Provider, 0, len(names))
	for _, name := range names {
		p, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
		selected = append(selected, p)
	}
	return NewRegistry(selected)
}
