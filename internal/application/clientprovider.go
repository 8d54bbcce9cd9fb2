// Package application contains use-case orchestration services.
package application

import (
	"sync"

	"github.com/brandops/brandpanel/internal/domain/port/driven"
)

// ClientProvider enables runtime hot-swap of the vendor client. It holds a
// mutex-protected reference to the current driven.ProfileClient, allowing
// credential updates to take effect without restarting the application.
type ClientProvider struct {
	mu     sync.RWMutex
	client driven.ProfileClient
}

// NewClientProvider creates a provider with the given initial client.
// client may be nil if no credentials are available at startup.
func NewClientProvider(client driven.ProfileClient) *ClientProvider {
	return &ClientProvider{client: client}
}

// Get returns the current client. Callers should check for nil if the
// provider was created without initial credentials.
func (p *ClientProvider) Get() driven.ProfileClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Replace swaps the current client. The next caller of Get receives the new
// value.
func (p *ClientProvider) Replace(client driven.ProfileClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
}

// HasClient returns true if a non-nil client is currently held.
func (p *ClientProvider) HasClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}
