package store

import (
	"context"
	"sync"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/insight"
)

// Memory is an in-memory store for development and tests. All methods
// are safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	transactions map[string][]core.Transaction
	connections  map[string][]core.Connection
	insights     map[string]*insight.Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string][]core.Transaction),
		connections:  make(map[string][]core.Connection),
		insights:     make(map[string]*insight.Document),
	}
}

// AddTransactions appends transactions for a user.
func (m *Memory) AddTransactions(userID string, txns ...core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[userID] = append(m.transactions[userID], txns...)
}

// SetConnections replaces a user's bank connections.
func (m *Memory) SetConnections(userID string, connections ...core.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[userID] = connections
}

// TransactionsInRange returns the user's transactions with dates inside
// the inclusive ISO date window.
func (m *Memory) TransactionsInRange(ctx context.Context, userID, start, end string) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Transaction
	for _, txn := range m.transactions[userID] {
		if txn.Date >= start && txn.Date <= end {
			out = append(out, txn)
		}
	}
	return out, nil
}

// Connections returns the user's bank connections.
func (m *Memory) Connections(ctx context.Context, userID string) ([]core.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[userID], nil
}

// UsersWithConnections lists users that have at least one connection
// with accounts.
func (m *Memory) UsersWithConnections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []string
	for userID, connections := range m.connections {
		for _, conn := range connections {
			if len(conn.Accounts) > 0 {
				users = append(users, userID)
				break
			}
		}
	}
	return users, nil
}

// SaveTransactions upserts pulled transactions for a user, replacing any
// existing record with the same transaction id.
func (m *Memory) SaveTransactions(ctx context.Context, userID string, txns []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.transactions[userID]
	byID := make(map[string]int, len(existing))
	for i, txn := range existing {
		byID[txn.ID] = i
	}
	for _, txn := range txns {
		if i, ok := byID[txn.ID]; ok && txn.ID != "" {
			existing[i] = txn
			continue
		}
		existing = append(existing, txn)
		byID[txn.ID] = len(existing) - 1
	}
	m.transactions[userID] = existing
	return nil
}

// SaveConnections replaces the user's bank connections.
func (m *Memory) SaveConnections(ctx context.Context, userID string, connections []core.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[userID] = connections
	return nil
}

// Upsert stores the insight document, replacing any previous one for the
// same user.
func (m *Memory) Upsert(ctx context.Context, doc *insight.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights[doc.UserID] = doc
	return nil
}

// Insight returns the stored document for a user, or nil.
func (m *Memory) Insight(userID string) *insight.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.insights[userID]
}
