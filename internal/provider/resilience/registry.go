package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// FeedHealth is the observed health of one polled feed.
type FeedHealth struct {
	// Name is the client name, normally the feed URL.
	Name string `json:"name"`

	// CircuitState is the current circuit breaker state.
	CircuitState gobreaker.State `json:"-"`

	// Counts contains circuit breaker statistics.
	Counts gobreaker.Counts `json:"-"`

	LastSuccessAt       *time.Time `json:"last_success_at"`
	LastFailureAt       *time.Time `json:"last_failure_at"`
	LastError           string     `json:"last_error,omitempty"`
	LastEntryCount      int        `json:"last_entry_count"`
	NotModifiedCount    int        `json:"not_modified_count"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// IsHealthy returns true if the feed is considered healthy.
func (h *FeedHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed && h.ConsecutiveFailures == 0
}

// IsDegraded returns true when the circuit is half-open or recent fetches failed
// without tripping it.
func (h *FeedHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen ||
		(h.CircuitState == gobreaker.StateClosed && h.ConsecutiveFailures > 0)
}

// IsUnhealthy returns true if the circuit is open.
func (h *FeedHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Status returns "healthy", "degraded" or "unhealthy".
func (h *FeedHealth) Status() string {
	switch {
	case h.IsUnhealthy():
		return "unhealthy"
	case h.IsDegraded():
		return "degraded"
	default:
		return "healthy"
	}
}

// Registry tracks feed clients and the outcome of their fetches.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*registeredFeed
	now   func() time.Time
}

type registeredFeed struct {
	client              *Client
	lastSuccessAt       *time.Time
	lastFailureAt       *time.Time
	lastError           string
	lastEntryCount      int
	notModifiedCount    int
	consecutiveFailures int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		feeds: make(map[string]*registeredFeed),
		now:   time.Now,
	}
}

// Register adds a client to the registry, replacing any client of the same name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[name] = &registeredFeed{client: client}
}

// Unregister removes a feed from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.feeds, name)
}

// RecordSuccess records a fetch that returned entries.
func (r *Registry) RecordSuccess(name string, entries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := r.now()
		f.lastSuccessAt = &now
		f.lastEntryCount = entries
		f.consecutiveFailures = 0
	}
}

// RecordNotModified records a fetch answered with 304 Not Modified.
func (r *Registry) RecordNotModified(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := r.now()
		f.lastSuccessAt = &now
		f.notModifiedCount++
		f.consecutiveFailures = 0
	}
}

// RecordFailure records a failed fetch.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := r.now()
		f.lastFailureAt = &now
		f.consecutiveFailures++
		if err != nil {
			f.lastError = err.Error()
		}
	}
}

// GetHealth returns the health of one feed, or nil when it is not registered.
func (r *Registry) GetHealth(name string) *FeedHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.feeds[name]
	if !ok {
		return nil
	}
	return f.health(name)
}

// GetAllHealth returns the health of every registered feed, sorted by name.
func (r *Registry) GetAllHealth() []*FeedHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*FeedHealth, 0, len(r.feeds))
	for name, f := range r.feeds {
		health = append(health, f.health(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })

	return health
}

// FeedCount returns the number of registered feeds.
func (r *Registry) FeedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.feeds)
}

func (f *registeredFeed) health(name string) *FeedHealth {
	return &FeedHealth{
		Name:                name,
		CircuitState:        f.client.CircuitBreakerState(),
		Counts:              f.client.CircuitBreakerCounts(),
		LastSuccessAt:       f.lastSuccessAt,
		LastFailureAt:       f.lastFailureAt,
		LastError:           f.lastError,
		LastEntryCount:      f.lastEntryCount,
		NotModifiedCount:    f.notModifiedCount,
		ConsecutiveFailures: f.consecutiveFailures,
	}
}
