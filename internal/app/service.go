/**
 * @description
 * This file contains the core business logic for the account-service,
 * implemented as an `AccountService`. It owns the account lifecycle rules
 * (create, fetch, delete) on top of the ledger and is completely independent
 * of the message transport.
 *
 * @notes
 * - There are no other business rules at this layer: balances, token
 *   management and payment settlement belong to the other services of the
 *   platform.
 */
package app

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dtupay/account-service/internal/domain"
	"github.com/dtupay/account-service/internal/store"
)

// AccountService provides the account lifecycle operations.
type AccountService struct {
	ledger store.AccountLedger
	logger *slog.Logger
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(ledger store.AccountLedger, logger *slog.Logger) *AccountService {
	return &AccountService{
		ledger: ledger,
		logger: logger.With("component", "account-service"),
	}
}

// CreateAccount registers a new account and returns its assigned ID. The
// candidate's ID field is ignored; IDs are always system-generated. When the
// candidate's bank account is already registered the ledger rejects the
// insert, nothing is mutated, and ErrDuplicateBankAccount is returned with
// the conflicting bank account number in the message.
func (s *AccountService) CreateAccount(candidate domain.Account) (string, error) {
	candidate.ID = uuid.NewString()

	if err := s.ledger.AddUnique(&candidate); err != nil {
		s.logger.Warn("account creation rejected", "bank_account", candidate.BankAccount, "error", err)
		return "", err
	}

	s.logger.Info("account created", "account_id", candidate.ID)
	return candidate.ID, nil
}

// GetAccount returns the account with the given ID, or ErrAccountNotFound.
func (s *AccountService) GetAccount(id string) (*domain.Account, error) {
	return s.ledger.Get(id)
}

// DeleteAccount removes the given account from the ledger. Existence is
// re-validated first so that deleting an unknown or already removed account
// fails with ErrAccountNotFound and never mutates the ledger.
func (s *AccountService) DeleteAccount(account domain.Account) error {
	if _, err := s.ledger.Get(account.ID); err != nil {
		return err
	}

	if !s.ledger.Remove(account.ID) {
		// Get succeeded a moment ago; a concurrent delete won the race.
		return fmt.Errorf("%w: %q", domain.ErrAccountNotFound, account.ID)
	}

	s.logger.Info("account deleted", "account_id", account.ID)
	return nil
}
