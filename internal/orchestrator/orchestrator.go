// Package orchestrator routes requests to the correct protocol adapter and
// aggregates read queries across every registered venue.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/venue"
)

// Capability names used in venue listings.
const (
	CapabilityPerp    = "perp"
	CapabilityLending = "lending"
	CapabilitySwap    = "swap"
)

// VenueInfo describes one registered (venue, capability) pair.
type VenueInfo struct {
	Protocol   domain.Protocol
	Capability string
}

// Orchestrator holds every registered adapter, keyed per capability by the
// adapter's declared protocol id. Venues are registered once at startup;
// after that the registry is read-only, but a mutex guards it anyway so that
// late registration cannot race with resolution.
type Orchestrator struct {
	mu sync.RWMutex

	perps    map[domain.Protocol]venue.Perp
	lendings map[domain.Protocol]venue.Lending
	swaps    map[domain.Protocol]venue.Swap

	// Registration order per capability; also carries the default venue,
	// which is always the first entry (first registration wins and is never
	// re-elected).
	perpOrder    []domain.Protocol
	lendingOrder []domain.Protocol
	swapOrder    []domain.Protocol

	logger *slog.Logger
}

// New returns an empty orchestrator.
func New(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		perps:    make(map[domain.Protocol]venue.Perp),
		lendings: make(map[domain.Protocol]venue.Lending),
		swaps:    make(map[domain.Protocol]venue.Swap),
		logger:   logger,
	}
}

// RegisterPerp adds a perp adapter. The first adapter registered becomes the
// capability default. Re-registering a protocol id replaces the previous
// adapter; that is logged because two adapters sharing an id is usually a
// wiring mistake.
func (o *Orchestrator) RegisterPerp(p venue.Perp) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := p.Protocol()
	if _, dup := o.perps[id]; dup {
		o.logger.Warn("orchestrator: replacing perp venue", slog.String("venue", id.String()))
	} else {
		o.perpOrder = append(o.perpOrder, id)
	}
	o.perps[id] = p
	o.logger.Info("orchestrator: registered perp venue", slog.String("venue", id.String()))
}

// RegisterLending adds a lending adapter.
func (o *Orchestrator) RegisterLending(l venue.Lending) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := l.Protocol()
	if _, dup := o.lendings[id]; dup {
		o.logger.Warn("orchestrator: replacing lending venue", slog.String("venue", id.String()))
	} else {
		o.lendingOrder = append(o.lendingOrder, id)
	}
	o.lendings[id] = l
	o.logger.Info("orchestrator: registered lending venue", slog.String("venue", id.String()))
}

// RegisterSwap adds a swap adapter.
func (o *Orchestrator) RegisterSwap(s venue.Swap) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := s.Protocol()
	if _, dup := o.swaps[id]; dup {
		o.logger.Warn("orchestrator: replacing swap venue", slog.String("venue", id.String()))
	} else {
		o.swapOrder = append(o.swapOrder, id)
	}
	o.swaps[id] = s
	o.logger.Info("orchestrator: registered swap venue", slog.String("venue", id.String()))
}

// Perp resolves a perp adapter. An empty id resolves the capability default.
func (o *Orchestrator) Perp(id string) (venue.Perp, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if id == "" {
		if len(o.perpOrder) == 0 {
			return nil, fmt.Errorf("orchestrator: perp: %w", domain.ErrNoVenueRegistered)
		}
		return o.perps[o.perpOrder[0]], nil
	}
	p, ok := o.perps[domain.Protocol(id)]
	if !ok {
		return nil, fmt.Errorf("orchestrator: perp %q: %w", id, domain.ErrUnknownVenue)
	}
	return p, nil
}

// Lending resolves a lending adapter. An empty id resolves the default.
func (o *Orchestrator) Lending(id string) (venue.Lending, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if id == "" {
		if len(o.lendingOrder) == 0 {
			return nil, fmt.Errorf("orchestrator: lending: %w", domain.ErrNoVenueRegistered)
		}
		return o.lendings[o.lendingOrder[0]], nil
	}
	l, ok := o.lendings[domain.Protocol(id)]
	if !ok {
		return nil, fmt.Errorf("orchestrator: lending %q: %w", id, domain.ErrUnknownVenue)
	}
	return l, nil
}

// Swap resolves a swap adapter. An empty id resolves the default.
func (o *Orchestrator) Swap(id string) (venue.Swap, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if id == "" {
		if len(o.swapOrder) == 0 {
			return nil, fmt.Errorf("orchestrator: swap: %w", domain.ErrNoVenueRegistered)
		}
		return o.swaps[o.swapOrder[0]], nil
	}
	s, ok := o.swaps[domain.Protocol(id)]
	if !ok {
		return nil, fmt.Errorf("orchestrator: swap %q: %w", id, domain.ErrUnknownVenue)
	}
	return s, nil
}

// Perps returns every registered perp adapter in registration order.
func (o *Orchestrator) Perps() []venue.Perp {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]venue.Perp, 0, len(o.perpOrder))
	for _, id := range o.perpOrder {
		out = append(out, o.perps[id])
	}
	return out
}

// Venues lists every registered (venue, capability) pair in registration
// order.
func (o *Orchestrator) Venues() []VenueInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()

	infos := make([]VenueInfo, 0, len(o.perpOrder)+len(o.lendingOrder)+len(o.swapOrder))
	for _, id := range o.perpOrder {
		infos = append(infos, VenueInfo{Protocol: id, Capability: CapabilityPerp})
	}
	for _, id := range o.lendingOrder {
		infos = append(infos, VenueInfo{Protocol: id, Capability: CapabilityLending})
	}
	for _, id := range o.swapOrder {
		infos = append(infos, VenueInfo{Protocol: id, Capability: CapabilitySwap})
	}
	return infos
}

// ---------------------------------------------------------------------------
// Fan-out aggregate queries.
//
// Each query runs the same read against every registered perp venue
// concurrently and concatenates the successes in registration order. A
// failing venue is logged and excluded from the result, so one venue's outage
// never blocks visibility into the others. When every venue fails the result
// is an empty list and a nil error.
// ---------------------------------------------------------------------------

// fanOutPerp runs fetch against every perp venue and returns the per-venue
// result slices in registration order, with failed venues left nil.
func fanOutPerp[T any](ctx context.Context, o *Orchestrator, what string, fetch func(context.Context, venue.Perp) ([]T, error)) []T {
	o.mu.RLock()
	order := make([]domain.Protocol, len(o.perpOrder))
	copy(order, o.perpOrder)
	adapters := make([]venue.Perp, len(order))
	for i, id := range order {
		adapters[i] = o.perps[id]
	}
	o.mu.RUnlock()

	results := make([][]T, len(adapters))
	g, gctx := errgroup.WithContext(ctx)
	for i := range adapters {
		i := i
		g.Go(func() error {
			out, err := fetch(gctx, adapters[i])
			if err != nil {
				o.logger.Warn("orchestrator: venue query failed",
					slog.String("venue", order[i].String()),
					slog.String("query", what),
					slog.String("error", err.Error()),
				)
				return nil
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are absorbed above

	var combined []T
	for _, r := range results {
		combined = append(combined, r...)
	}
	return combined
}

// AllMarkets returns every market from every perp venue.
func (o *Orchestrator) AllMarkets(ctx context.Context) []domain.Market {
	return fanOutPerp(ctx, o, "markets", func(ctx context.Context, p venue.Perp) ([]domain.Market, error) {
		return p.Markets(ctx)
	})
}

// AllTickers returns every ticker from every perp venue, sorted by symbol so
// the output is deterministic regardless of venue completion order.
func (o *Orchestrator) AllTickers(ctx context.Context) []domain.Ticker {
	tickers := fanOutPerp(ctx, o, "tickers", func(ctx context.Context, p venue.Perp) ([]domain.Ticker, error) {
		return p.AllTickers(ctx)
	})
	sort.Slice(tickers, func(i, j int) bool { return tickers[i].Symbol < tickers[j].Symbol })
	return tickers
}

// AllPositions returns every open position from every perp venue.
func (o *Orchestrator) AllPositions(ctx context.Context) []domain.Position {
	return fanOutPerp(ctx, o, "positions", func(ctx context.Context, p venue.Perp) ([]domain.Position, error) {
		return p.Positions(ctx)
	})
}

// AllBalances returns every balance from every perp venue.
func (o *Orchestrator) AllBalances(ctx context.Context) []domain.Balance {
	return fanOutPerp(ctx, o, "balances", func(ctx context.Context, p venue.Perp) ([]domain.Balance, error) {
		return p.Balances(ctx)
	})
}
