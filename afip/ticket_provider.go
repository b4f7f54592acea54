package afip

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

// LoginFunc performs one full WSAA authentication for a service name.
type LoginFunc func(ctx context.Context, serviceName string) (*model.AccessTicket, error)

// TicketProvider hands out live access tickets, one cached per service
// name, re-acquiring when the cached one expires. Validity is re-checked
// on every call; there is no renewal, only re-acquisition.
//
// The mutex only avoids redundant loginCms round trips. WSAA tolerates
// several concurrent live tickets per credential, so losing a race and
// acquiring a second ticket would be harmless.
type TicketProvider struct {
	login LoginFunc

	mu    sync.Mutex
	cache map[string]*model.AccessTicket

	clock clockwork.Clock

	// re-acquire this much before nominal expiry
	expirySkew time.Duration
}

// NewTicketProvider builds a provider; nothing is acquired until the
// first Ticket call.
func NewTicketProvider(login LoginFunc) *TicketProvider {
	return &TicketProvider{
		login:      login,
		cache:      make(map[string]*model.AccessTicket),
		clock:      clockwork.NewRealClock(),
		expirySkew: time.Minute,
	}
}

// NewTicketProviderWithClock pins the clock, for expiry boundary tests.
func NewTicketProviderWithClock(login LoginFunc, clock clockwork.Clock) *TicketProvider {
	p := NewTicketProvider(login)
	p.clock = clock
	return p
}

// Ticket returns a ticket valid for the named service, reusing the
// cached one while it lives.
func (p *TicketProvider) Ticket(ctx context.Context, serviceName string) (*model.AccessTicket, error) {

	if t, ok := p.currentIfValid(serviceName); ok {
		return t, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// double check after taking the lock
	if t, ok := p.currentIfValidLocked(serviceName); ok {
		return t, nil
	}

	logger.Debugf("no live ticket for %s, authenticating", serviceName)
	t, err := p.login(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	p.cache[serviceName] = t
	return t, nil
}

// Invalidate drops the cached ticket for a service, forcing the next
// call to authenticate again.
func (p *TicketProvider) Invalidate(serviceName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, serviceName)
}

func (p *TicketProvider) currentIfValid(serviceName string) (*model.AccessTicket, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentIfValidLocked(serviceName)
}

// assumes the caller holds the lock
func (p *TicketProvider) currentIfValidLocked(serviceName string) (*model.AccessTicket, bool) {
	t, ok := p.cache[serviceName]
	if !ok {
		return nil, false
	}
	if !t.Valid(p.clock.Now().Add(p.expirySkew)) {
		return nil, false
	}
	return t, true
}
