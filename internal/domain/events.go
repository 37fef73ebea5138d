/**
 * @description
 * This file defines the event contract of the account-service: the names of
 * the events it consumes and produces, the wire-level envelope they travel
 * in, and the strongly-typed payloads each event carries.
 *
 * @notes
 * - Events are the only API of this service. Every saga hop is correlated by
 *   a request ID that round-trips unchanged through all services touched by
 *   one logical request.
 * - A terminal envelope carries exactly one of payload or error. The
 *   NewSuccess/NewFailure constructors are the only way handlers build
 *   outbound envelopes, which keeps that invariant in one place.
 */
package domain

import "encoding/json"

// Inbound event names the account-service reacts to.
const (
	EventCreateCustomerAccount  = "CreateCustomerAccount"
	EventCreateMerchantAccount  = "CreateMerchantAccount"
	EventDeleteAccount          = "DeleteAccount"
	EventExportBankAccounts     = "ExportBankAccounts"
	EventCustomerTokensSupplied = "CustomerTokensSupplied"
)

// Outbound event names the account-service publishes.
const (
	EventAssignTokensToCustomer = "AssignTokensToCustomer"
	EventCustomerAccountCreated = "CustomerAccountCreated"
	EventMerchantAccountCreated = "MerchantAccountCreated"
	EventAccountDeleted         = "AccountDeleted"
	EventBankAccountsExported   = "BankAccountsExported"
)

// Envelope is the unit of communication on the bus: a named event with its
// payload. RequestID is the saga correlation key; it is empty only on legacy
// single-argument events that predate correlated workflows.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewSuccess builds a terminal success envelope. It panics if the payload
// cannot be marshalled, which only happens for programming errors (all
// payload types in this package are plain JSON-serializable structs).
func NewSuccess(eventType, requestID string, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic("domain: unmarshalable event payload: " + err.Error())
	}
	return Envelope{Type: eventType, RequestID: requestID, Payload: raw}
}

// NewFailure builds a terminal failure envelope carrying no payload.
func NewFailure(eventType, requestID, errMsg string) Envelope {
	return Envelope{Type: eventType, RequestID: requestID, Error: errMsg}
}

// IsFailure reports whether the envelope carries an error from an earlier
// hop of the saga.
func (e Envelope) IsFailure() bool {
	return e.Error != ""
}

// DecodePayload unmarshals the envelope payload into the given target.
func (e Envelope) DecodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// PaymentPayload is the in-flight state of a payment saga. The payment
// service fills in the parties and token; this service contributes the two
// bank account numbers so the payment can be settled at the bank.
type PaymentPayload struct {
	MerchantID          string `json:"merchant_id"`
	CustomerID          string `json:"customer_id"`
	CustomerBankAccount string `json:"customer_bank_account"`
	MerchantBankAccount string `json:"merchant_bank_account"`
	Token               string `json:"token"`
	Amount              string `json:"amount"`
}

// TokensSuppliedPayload is what the token service reports back once tokens
// have been assigned to a freshly created customer account.
type TokensSuppliedPayload struct {
	Account Account  `json:"account"`
	Tokens  []string `json:"tokens,omitempty"`
}

// AccountDeletedPayload confirms a completed account deletion.
type AccountDeletedPayload struct {
	AccountID string `json:"account_id"`
	Message   string `json:"message"`
}
