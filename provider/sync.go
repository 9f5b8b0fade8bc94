package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/logger"
)

const (
	defaultSyncWindowDays = 90
	dateLayout            = "2006-01-02"
)

// Writer is the ledger write side a sync run feeds.
type Writer interface {
	SaveTransactions(ctx context.Context, userID string, txns []core.Transaction) error
	SaveConnections(ctx context.Context, userID string, connections []core.Connection) error
}

// Syncer pulls a user's accounts and transactions from the provider and
// writes them through the ledger.
type Syncer struct {
	client     *Client
	writer     Writer
	windowDays int
	now        func() time.Time
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithSyncWindow sets how many days of transactions each run pulls.
func WithSyncWindow(days int) SyncOption {
	return func(s *Syncer) { s.windowDays = days }
}

// WithSyncClock overrides the time source. Tests use this to pin the
// pull window.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer creates a syncer over the given client and writer.
func NewSyncer(client *Client, writer Writer, opts ...SyncOption) *Syncer {
	s := &Syncer{
		client:     client,
		writer:     writer,
		windowDays: defaultSyncWindowDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncSummary reports what one run pulled.
type SyncSummary struct {
	UserID       string `json:"userId"`
	Connections  int    `json:"connections"`
	Accounts     int    `json:"accounts"`
	Transactions int    `json:"transactions"`
}

// SyncUser pulls the user's connections and the trailing transaction
// window and persists both.
func (s *Syncer) SyncUser(ctx context.Context, userID, accessToken string) (*SyncSummary, error) {
	log := logger.FromContext(ctx)

	connections, err := s.client.Accounts(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("pull accounts: %w", err)
	}
	if err := s.writer.SaveConnections(ctx, userID, connections); err != nil {
		return nil, fmt.Errorf("save connections: %w", err)
	}

	end := s.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(s.windowDays - 1))
	txns, err := s.client.Transactions(ctx, accessToken, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("pull transactions: %w", err)
	}
	if err := s.writer.SaveTransactions(ctx, userID, txns); err != nil {
		return nil, fmt.Errorf("save transactions: %w", err)
	}

	summary := &SyncSummary{
		UserID:       userID,
		Connections:  len(connections),
		Transactions: len(txns),
	}
	for _, conn := range connections {
		summary.Accounts += len(conn.Accounts)
	}

	log.Info().
		Str("user_id", userID).
		Int("connections", summary.Connections).
		Int("accounts", summary.Accounts).
		Int("transactions", summary.Transactions).
		Msg("sync complete")
	return summary, nil
}
