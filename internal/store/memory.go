/**
 * @description
 * In-memory implementation of the account ledger. A plain map guarded by a
 * RWMutex: event handlers may run concurrently on separate bus deliveries,
 * so every access goes through the lock.
 *
 * @notes
 * - AddUnique holds the write lock across both the uniqueness scan and the
 *   insert. Splitting those into two independently locked steps would
 *   reintroduce the classic check-then-act race on the bank account number.
 * - Instances are constructed explicitly and injected; there is no package
 *   level singleton, so tests get isolated ledgers for free.
 */
package store

import (
	"fmt"
	"sync"

	"github.com/dtupay/account-service/internal/domain"
)

// InMemoryLedger is the map-backed AccountLedger used in production.
type InMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{accounts: make(map[string]*domain.Account)}
}

// Get returns the account with the given ID.
func (l *InMemoryLedger) Get(id string) (*domain.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrAccountNotFound, id)
	}
	cp := *account
	return &cp, nil
}

// Add inserts the account, overwriting any record with the same ID.
func (l *InMemoryLedger) Add(account *domain.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *account
	l.accounts[account.ID] = &cp
}

// AddUnique inserts the account after verifying that no existing account
// references the same bank account. Scan and insert share one critical
// section.
func (l *InMemoryLedger) AddUnique(account *domain.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.accounts {
		if existing.BankAccount == account.BankAccount {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateBankAccount, account.BankAccount)
		}
	}

	cp := *account
	l.accounts[account.ID] = &cp
	return nil
}

// Remove deletes the account with the given ID and reports whether a record
// existed.
func (l *InMemoryLedger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.accounts[id]
	delete(l.accounts, id)
	return ok
}

// List returns a snapshot of all accounts in no particular order.
func (l *InMemoryLedger) List() []*domain.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(l.accounts))
	for _, account := range l.accounts {
		cp := *account
		accounts = append(accounts, &cp)
	}
	return accounts
}

// Clear wipes all state. Used by test harnesses only.
func (l *InMemoryLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[string]*domain.Account)
}

var _ AccountLedger = (*InMemoryLedger)(nil)
