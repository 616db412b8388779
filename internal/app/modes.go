package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/cache/redis"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/platform/hyperliquid"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/service"
)

var (
	errMissingHistory = errors.New("app: sync mode requires the history service (enable postgres)")
	errMissingExport  = errors.New("app: export mode requires the export service (enable postgres and s3)")
	errMissingReader  = errors.New("app: fetch mode requires object storage (enable s3)")
)

// decStr renders an optional decimal for logging.
func decStr(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// StatusMode prints a one-shot account snapshot across every registered
// venue: balances, open positions with mark prices, open orders, and lending
// positions.
func (a *App) StatusMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "status snapshot")

	for _, info := range deps.Orchestrator.Venues() {
		a.logger.InfoContext(ctx, "registered venue",
			slog.String("protocol", info.Protocol.String()),
			slog.String("capability", info.Capability),
		)
	}

	for _, b := range deps.Orchestrator.AllBalances(ctx) {
		a.logger.InfoContext(ctx, "balance",
			slog.String("protocol", b.Protocol.String()),
			slog.String("total", b.Total.String()),
			slog.String("available", b.Available.String()),
		)
	}

	positions := deps.Orchestrator.AllPositions(ctx)
	for _, p := range positions {
		mark := "-"
		cached := false
		if t, fromCache, err := a.lookupTicker(ctx, deps, p.Protocol, p.Symbol); err == nil {
			mark = t.MidPrice.String()
			cached = fromCache
		}
		a.logger.InfoContext(ctx, "position",
			slog.String("protocol", p.Protocol.String()),
			slog.String("symbol", p.Symbol),
			slog.String("side", string(p.Side)),
			slog.String("size", p.Size.String()),
			slog.String("entry_price", decStr(p.EntryPrice)),
			slog.String("mark_price", mark),
			slog.Bool("mark_cached", cached),
			slog.String("unrealized_pnl", decStr(p.UnrealizedPnl)),
		)
	}
	if len(positions) == 0 {
		a.logger.InfoContext(ctx, "no open positions")
	}

	for _, p := range deps.Orchestrator.Perps() {
		orders, err := p.OpenOrders(ctx)
		if err != nil {
			a.logger.WarnContext(ctx, "open orders query failed",
				slog.String("protocol", p.Protocol().String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, o := range orders {
			a.logger.InfoContext(ctx, "open order",
				slog.String("protocol", o.Protocol.String()),
				slog.String("symbol", o.Symbol),
				slog.String("side", string(o.Side)),
				slog.String("size", o.Size.String()),
				slog.String("price", decStr(o.Price)),
			)
		}
	}

	if a.cfg.Wallet.Address != "" {
		if lending, err := deps.Orchestrator.Lending(""); err == nil {
			positions, err := lending.Positions(ctx, a.cfg.Wallet.Address)
			if err != nil {
				a.logger.WarnContext(ctx, "lending positions query failed",
					slog.String("protocol", lending.Protocol().String()),
					slog.String("error", err.Error()),
				)
			}
			for _, p := range positions {
				a.logger.InfoContext(ctx, "lending position",
					slog.String("protocol", p.Protocol.String()),
					slog.String("market", p.MarketID),
					slog.String("supplied_usd", p.Supplied.String()),
					slog.String("borrowed_usd", p.Borrowed.String()),
				)
			}
		}
	}

	return nil
}

// lookupTicker consults the ticker cache before falling back to the live
// venue. The second return value reports whether the cache served the hit.
func (a *App) lookupTicker(ctx context.Context, deps *Dependencies, protocol domain.Protocol, symbol string) (domain.Ticker, bool, error) {
	if deps.TickerCache != nil {
		t, _, err := deps.TickerCache.GetTicker(ctx, protocol, symbol)
		if err == nil {
			return t, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			a.logger.WarnContext(ctx, "ticker cache read failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	p, err := deps.Orchestrator.Perp(string(protocol))
	if err != nil {
		return domain.Ticker{}, false, err
	}
	t, err := p.Ticker(ctx, symbol)
	return t, false, err
}

// SyncMode persists fill and order history on a fixed interval until the
// context is cancelled. Each cycle also refreshes the ticker cache when Redis
// is configured.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	if deps.History == nil {
		return errMissingHistory
	}

	a.logger.InfoContext(ctx, "starting sync loop",
		slog.Duration("interval", a.cfg.Sync.Interval.Duration),
	)

	a.syncOnce(ctx, deps)

	ticker := time.NewTicker(a.cfg.Sync.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.syncOnce(ctx, deps)
		}
	}
}

// syncOnce runs one history sync pass and, when a ticker cache is available,
// refreshes it from the live venues. One failed cache write does not stop
// the rest of the cycle.
func (a *App) syncOnce(ctx context.Context, deps *Dependencies) {
	if _, err := deps.History.SyncAll(ctx, deps.Orchestrator.Perps()); err != nil {
		a.logger.WarnContext(ctx, "history sync failed", slog.String("error", err.Error()))
	}

	if deps.TickerCache == nil {
		return
	}
	for _, t := range deps.Orchestrator.AllTickers(ctx) {
		if err := deps.TickerCache.SetTicker(ctx, t); err != nil {
			a.logger.WarnContext(ctx, "ticker cache write failed",
				slog.String("symbol", t.Symbol),
				slog.String("error", err.Error()),
			)
			continue
		}
	}
}

// StreamMode holds a live websocket subscription to mid prices. With a price
// bus configured the stream is published and a bus subscriber feeds the
// ticker cache, so any number of processes can share one venue stream;
// without a bus the cache is written directly.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	ws := hyperliquid.NewWSClient(deps.WSURL)
	protocol := deps.Hyperliquid.Protocol()

	if deps.PriceBus != nil && deps.TickerCache != nil {
		updates, err := deps.PriceBus.SubscribeMids(ctx, protocol)
		if err != nil {
			return err
		}
		go a.cacheMidsUpdates(ctx, updates, deps.TickerCache)
	}

	ws.OnMids(func(mids map[string]decimal.Decimal) {
		if deps.PriceBus != nil {
			if err := deps.PriceBus.PublishMids(ctx, protocol, mids); err != nil {
				a.logger.WarnContext(ctx, "price publish failed", slog.String("error", err.Error()))
			}
			return
		}
		if deps.TickerCache != nil {
			a.cacheMids(ctx, deps.TickerCache, protocol, mids)
		}
	})

	if err := ws.Connect(ctx); err != nil {
		return err
	}
	defer ws.Close()

	a.logger.InfoContext(ctx, "streaming mid prices", slog.String("url", deps.WSURL))

	<-ctx.Done()
	return ctx.Err()
}

// cacheMids writes one mids snapshot into the ticker cache. A failed write
// skips that symbol only.
func (a *App) cacheMids(ctx context.Context, cache domain.TickerCache, protocol domain.Protocol, mids map[string]decimal.Decimal) {
	for sym, mid := range mids {
		t := domain.Ticker{Symbol: sym, Protocol: protocol, MidPrice: mid}
		if err := cache.SetTicker(ctx, t); err != nil {
			a.logger.WarnContext(ctx, "ticker cache write failed",
				slog.String("symbol", sym),
				slog.String("error", err.Error()),
			)
			continue
		}
	}
}

// cacheMidsUpdates drains the price bus into the ticker cache until the
// subscription channel closes.
func (a *App) cacheMidsUpdates(ctx context.Context, updates <-chan redis.MidsUpdate, cache domain.TickerCache) {
	for u := range updates {
		a.cacheMids(ctx, cache, u.Protocol, u.Mids)
	}
}

// ExportMode writes a one-shot CSV export of the fill history to object
// storage and archives records older than the retention window.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	if deps.Export == nil {
		return errMissingExport
	}

	if deps.BlobReader != nil {
		if prior, err := deps.BlobReader.List(ctx, service.ExportPrefix); err == nil {
			a.logger.InfoContext(ctx, "existing exports", slog.Int("count", len(prior)))
		}
	}

	now := time.Now().UTC()
	path, err := deps.Export.Export(ctx, domain.FillFilter{ToMs: uint64(now.UnixMilli())}, service.ExportCSV)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "export complete", slog.String("path", path))

	if deps.Archiver != nil {
		cutoff := now.AddDate(0, -1, 0)
		if _, err := deps.Archiver.ArchiveFills(ctx, cutoff); err != nil {
			a.logger.WarnContext(ctx, "fill archive failed", slog.String("error", err.Error()))
		}
		if _, err := deps.Archiver.ArchiveOrders(ctx, cutoff); err != nil {
			a.logger.WarnContext(ctx, "order archive failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

// FetchMode streams the most recent fill export from object storage to the
// application's output.
func (a *App) FetchMode(ctx context.Context, deps *Dependencies) error {
	if deps.BlobReader == nil {
		return errMissingReader
	}

	infos, err := deps.BlobReader.List(ctx, service.ExportPrefix)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return errors.New("app: no exports in object storage")
	}

	latest := infos[0]
	for _, info := range infos[1:] {
		if info.LastModified.After(latest.LastModified) {
			latest = info
		}
	}

	rc, err := deps.BlobReader.Get(ctx, latest.Path)
	if err != nil {
		return err
	}
	defer rc.Close()

	a.logger.InfoContext(ctx, "fetching export",
		slog.String("path", latest.Path),
		slog.Int64("bytes", latest.Size),
	)
	if _, err := io.Copy(a.out, rc); err != nil {
		return fmt.Errorf("app: fetch %s: %w", latest.Path, err)
	}
	return nil
}
