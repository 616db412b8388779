// Package service holds the application services that sit between the
// orchestrator and the storage layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/venue"
)

// syncLockTTL bounds how long a crashed sync can block the next run.
const syncLockTTL = 5 * time.Minute

// Locker guards a sync run so two processes never walk the same venue
// history at once. Implementations return domain.ErrLockHeld when the lock
// is taken.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// HistoryService syncs fill and order history from registered venues into
// the stores.
type HistoryService struct {
	fills  domain.FillStore
	orders domain.OrderStore
	locks  Locker
	logger *slog.Logger
}

// NewHistoryService creates a HistoryService. locks may be nil, in which
// case syncs run unguarded.
func NewHistoryService(fills domain.FillStore, orders domain.OrderStore, locks Locker, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{
		fills:  fills,
		orders: orders,
		locks:  locks,
		logger: logger,
	}
}

// SyncResult summarises one sync run against one venue.
type SyncResult struct {
	Protocol      domain.Protocol
	FillsWritten  int
	OrdersWritten int
}

// Sync pulls fills and open orders from the venue and persists them.
// Duplicate fills from overlapping sync windows are dropped by the store,
// so calling Sync repeatedly is safe.
func (s *HistoryService) Sync(ctx context.Context, v venue.Perp) (SyncResult, error) {
	result := SyncResult{Protocol: v.Protocol()}

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "sync:"+string(v.Protocol()), syncLockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				s.logger.WarnContext(ctx, "history_service: sync already running",
					slog.String("protocol", string(v.Protocol())),
				)
			}
			return result, fmt.Errorf("history_service: sync %s: %w", v.Protocol(), err)
		}
		defer unlock()
	}

	fills, err := v.Fills(ctx)
	if err != nil {
		return result, fmt.Errorf("history_service: fetch fills %s: %w", v.Protocol(), err)
	}
	result.FillsWritten, err = s.fills.InsertBatch(ctx, fills)
	if err != nil {
		return result, fmt.Errorf("history_service: store fills %s: %w", v.Protocol(), err)
	}

	orders, err := v.OpenOrders(ctx)
	if err != nil {
		return result, fmt.Errorf("history_service: fetch orders %s: %w", v.Protocol(), err)
	}
	result.OrdersWritten, err = s.orders.InsertBatch(ctx, orders)
	if err != nil {
		return result, fmt.Errorf("history_service: store orders %s: %w", v.Protocol(), err)
	}

	cursor, err := s.fills.LastTimestampMs(ctx, v.Protocol())
	if err != nil {
		cursor = 0
	}
	s.logger.InfoContext(ctx, "history_service: sync complete",
		slog.String("protocol", string(v.Protocol())),
		slog.Int("fills_written", result.FillsWritten),
		slog.Int("orders_written", result.OrdersWritten),
		slog.Uint64("history_until_ms", cursor),
	)
	return result, nil
}

// SyncAll syncs every venue in turn. One venue's failure does not stop the
// others; the first error is returned after all venues have been tried.
func (s *HistoryService) SyncAll(ctx context.Context, venues []venue.Perp) ([]SyncResult, error) {
	var results []SyncResult
	var firstErr error
	for _, v := range venues {
		res, err := s.Sync(ctx, v)
		if err != nil {
			s.logger.WarnContext(ctx, "history_service: venue sync failed",
				slog.String("protocol", string(v.Protocol())),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstErr
}

// Fills returns stored fill history matching the filter.
func (s *HistoryService) Fills(ctx context.Context, f domain.FillFilter) ([]domain.Fill, error) {
	return s.fills.Query(ctx, f)
}

// RecentOrders returns the newest stored orders up to limit.
func (s *HistoryService) RecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.orders.ListRecent(ctx, limit)
}
