/**
 * @description
 * This file defines the core domain model for a DTU Pay account together with
 * the domain errors the account lifecycle logic can produce.
 *
 * @notes
 * - The account ID is assigned by the service at creation time and is never
 *   client-supplied.
 * - At most one account may reference a given bank account number at any
 *   time. This is the central invariant of the whole service; the ledger
 *   enforces it, handlers and callers only observe the resulting errors.
 */
package domain

import "errors"

var (
	// ErrAccountNotFound is returned when no account exists for a given ID.
	ErrAccountNotFound = errors.New("account does not exist")

	// ErrDuplicateBankAccount is returned when a create attempt references a
	// bank account number that is already registered to another account.
	ErrDuplicateBankAccount = errors.New("bank account already registered")
)

// Account represents a customer or merchant account registered with DTU Pay.
// BankAccount holds the identifier of the external bank account money is
// settled against.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CPR         string `json:"cpr"`
	BankAccount string `json:"bank_account"`
}
