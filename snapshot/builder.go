// Package snapshot builds analytics-ready financial snapshots from a
// user's raw ledger: cashflow, category trends, recurring charges,
// anomalies, and opportunity signals over a configurable lookback
// window, with a TTL-bounded cache in front of the builder.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/logger"
)

const recurringWindowDays = 90

// Ledger is the read side of the transaction and connection store.
type Ledger interface {
	TransactionsInRange(ctx context.Context, userID, start, end string) ([]core.Transaction, error)
	Connections(ctx context.Context, userID string) ([]core.Connection, error)
	UsersWithConnections(ctx context.Context) ([]string, error)
}

// Builder assembles snapshots from ledger data and caches them. Cached
// snapshots are shared values and must never be mutated by callers.
type Builder struct {
	ledger Ledger
	cache  *ristretto.Cache
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source. Tests use this to pin the
// snapshot windows.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithTTL overrides how long cached snapshots stay fresh.
func WithTTL(ttl time.Duration) Option {
	return func(b *Builder) { b.ttl = ttl }
}

// NewBuilder creates a snapshot builder over the given ledger.
func NewBuilder(ledger Ledger, opts ...Option) (*Builder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}

	b := &Builder{
		ledger: ledger,
		cache:  cache,
		ttl:    10 * time.Minute,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Close releases the cache resources.
func (b *Builder) Close() {
	b.cache.Close()
}

func cacheKey(userID string, periodDays int) string {
	return fmt.Sprintf("%s:%d", userID, periodDays)
}

// Snapshot returns the cached snapshot for the user and period, building
// it on a miss. Concurrent misses for the same key may build twice; both
// results are equivalent and the last write wins.
func (b *Builder) Snapshot(ctx context.Context, userID string, periodDays int) (*core.Snapshot, error) {
	key := cacheKey(userID, periodDays)
	if cached, ok := b.cache.Get(key); ok {
		if snap, ok := cached.(*core.Snapshot); ok {
			return snap, nil
		}
	}

	snap, err := b.build(ctx, userID, periodDays)
	if err != nil {
		return nil, err
	}

	b.cache.SetWithTTL(key, snap, 1, b.ttl)
	return snap, nil
}

// Invalidate drops the cached snapshot for the user and period.
func (b *Builder) Invalidate(userID string, periodDays int) {
	b.cache.Del(cacheKey(userID, periodDays))
}

type windows struct {
	start, end           string
	priorStart, priorEnd string
	ninetyStart          string
}

// computeWindows derives the three query windows from today: the current
// period, the baseline period of equal length immediately before it, and
// the fixed recurring-detection window ending today.
func (b *Builder) computeWindows(periodDays int) windows {
	today := b.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(periodDays - 1))
	priorEnd := start.AddDate(0, 0, -1)
	priorStart := priorEnd.AddDate(0, 0, -(periodDays - 1))
	ninetyStart := today.AddDate(0, 0, -recurringWindowDays)

	const layout = "2006-01-02"
	return windows{
		start:       start.Format(layout),
		end:         today.Format(layout),
		priorStart:  priorStart.Format(layout),
		priorEnd:    priorEnd.Format(layout),
		ninetyStart: ninetyStart.Format(layout),
	}
}

func (b *Builder) build(ctx context.Context, userID string, periodDays int) (*core.Snapshot, error) {
	log := logger.FromContext(ctx)
	w := b.computeWindows(periodDays)

	periodTxns, err := b.ledger.TransactionsInRange(ctx, userID, w.start, w.end)
	if err != nil {
		return nil, fmt.Errorf("load current transactions: %w", err)
	}
	priorTxns, err := b.ledger.TransactionsInRange(ctx, userID, w.priorStart, w.priorEnd)
	if err != nil {
		return nil, fmt.Errorf("load baseline transactions: %w", err)
	}
	ninetyTxns, err := b.ledger.TransactionsInRange(ctx, userID, w.ninetyStart, w.end)
	if err != nil {
		return nil, fmt.Errorf("load recurring-window transactions: %w", err)
	}
	connections, err := b.ledger.Connections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}

	accountSummary := computeAccountSummary(connections)
	cashflow := computeCashflow(periodTxns)
	baselineCashflow := computeCashflow(priorTxns)
	categories := computeCategoryBreakdown(periodTxns, priorTxns)
	recurring := computeRecurringCharges(ninetyTxns)
	anomalies := computeAnomalies(periodTxns)
	top := topTransactions(periodTxns)
	signals := opportunitySignals(accountSummary, cashflow, categories, recurring, anomalies)

	current := simplifyTransactions(periodTxns)
	recent := current
	if len(recent) > recentTxnLimit {
		recent = recent[:recentTxnLimit]
	}

	snap := &core.Snapshot{
		UserID:     userID,
		PeriodDays: periodDays,
		DateRange:  core.DateRange{Start: w.start, End: w.end},
		Transactions: core.TransactionWindows{
			Current:  current,
			Baseline: simplifyTransactions(priorTxns),
			Recent:   recent,
		},
		AccountSummary:     accountSummary,
		Cashflow:           core.CashflowComparison{Current: cashflow, Baseline: baselineCashflow},
		CategoryBreakdown:  categories,
		RecurringCharges:   recurring,
		Anomalies:          anomalies,
		TopTransactions:    top,
		OpportunitySignals: signals,
		TransactionCount:   len(periodTxns),
		TotalIncome:        cashflow.TotalIncome,
		TotalSpend:         cashflow.TotalSpend,
		NetCashflow:        cashflow.NetCashflow,
	}

	log.Debug().
		Str("user_id", userID).
		Int("period_days", periodDays).
		Int("transactions", snap.TransactionCount).
		Msg("snapshot built")

	return snap, nil
}
