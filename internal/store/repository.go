/**
 * @description
 * This file defines the interface for the account ledger, the authoritative
 * store of DTU Pay accounts. Defining an interface keeps the application
 * logic decoupled from the storage implementation and makes it trivial to
 * construct isolated ledgers in tests.
 *
 * @notes
 * - The ledger is volatile by design. The platform recovers from restarts
 *   through message redelivery on the durable bus, not through local
 *   persistence, so no database sits behind this interface.
 */
package store

import "github.com/dtupay/account-service/internal/domain"

// AccountLedger is the contract for the in-memory account store.
//
// Add assumes the caller has already validated uniqueness and silently
// overwrites on an ID collision; IDs are system-generated UUIDs, so
// collisions do not occur in practice. AddUnique is the atomic
// scan-then-insert used by account creation: the bank-account uniqueness
// check and the insert happen inside a single critical section, so two
// concurrent creates with the same bank account can never both succeed.
type AccountLedger interface {
	Get(id string) (*domain.Account, error)
	Add(account *domain.Account)
	AddUnique(account *domain.Account) error
	Remove(id string) bool
	List() []*domain.Account
	Clear()
}
