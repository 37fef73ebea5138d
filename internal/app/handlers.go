/**
 * @description
 * This file contains the saga participant handlers of the account-service:
 * one handler per inbound event type. Every handler follows the same
 * two-phase shape, which is the mechanism by which failures cross service
 * boundaries without exceptions ever reaching the transport:
 *
 *   1. If the inbound envelope already carries an error from an earlier hop,
 *      retag it under this handler's own outbound event name and stop. The
 *      error text is forwarded opaquely; no local work is attempted.
 *   2. Otherwise run the local operation and emit exactly one terminal
 *      envelope for the request: a success with a payload, or a failure with
 *      the domain error's message. Workflows that continue (customer account
 *      creation hands over to the token service) emit their continue event
 *      instead of a terminal one; the terminal event for those requests is
 *      produced by the response handler.
 *
 * @notes
 * - Handler bodies short-circuit: the failure branch returns immediately, so
 *   a request can never see both a failure and a success envelope.
 * - Handlers never touch the ledger directly; all access goes through the
 *   AccountService.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/dtupay/account-service/internal/domain"
)

// AccountEventHandler handles the processing of account-related events.
type AccountEventHandler struct {
	service *AccountService
	logger  *slog.Logger
}

// NewAccountEventHandler creates a new instance of AccountEventHandler.
func NewAccountEventHandler(service *AccountService, logger *slog.Logger) *AccountEventHandler {
	return &AccountEventHandler{
		service: service,
		logger:  logger.With("component", "event-handler"),
	}
}

// RegisterHandlers binds every inbound event type this service reacts to.
func (h *AccountEventHandler) RegisterHandlers(d *Dispatcher) {
	d.Register(domain.EventCreateCustomerAccount, h.HandleCreateCustomerAccount)
	d.Register(domain.EventCreateMerchantAccount, h.HandleCreateMerchantAccount)
	d.Register(domain.EventDeleteAccount, h.HandleDeleteAccount)
	d.Register(domain.EventExportBankAccounts, h.HandleExportBankAccounts)
	d.Register(domain.EventCustomerTokensSupplied, h.HandleCustomerTokensSupplied)
}

// HandleCreateCustomerAccount creates a customer account and hands the saga
// over to the token service. The terminal CustomerAccountCreated event for
// this request is emitted later, by HandleCustomerTokensSupplied, once the
// token service has responded.
func (h *AccountEventHandler) HandleCreateCustomerAccount(ctx context.Context, env domain.Envelope) []domain.Envelope {
	var account domain.Account
	if err := env.DecodePayload(&account); err != nil {
		h.logger.Error("malformed CreateCustomerAccount payload", "request_id", env.RequestID, "error", err)
		return []domain.Envelope{domain.NewFailure(domain.EventCustomerAccountCreated, env.RequestID, "malformed account payload")}
	}

	id, err := h.service.CreateAccount(account)
	if err != nil {
		return []domain.Envelope{domain.NewFailure(domain.EventCustomerAccountCreated, env.RequestID, err.Error())}
	}

	account.ID = id
	return []domain.Envelope{domain.NewSuccess(domain.EventAssignTokensToCustomer, env.RequestID, account)}
}

// HandleCreateMerchantAccount creates a merchant account. Merchants do not
// get tokens assigned, so this workflow terminates in a single hop.
func (h *AccountEventHandler) HandleCreateMerchantAccount(ctx context.Context, env domain.Envelope) []domain.Envelope {
	var account domain.Account
	if err := env.DecodePayload(&account); err != nil {
		h.logger.Error("malformed CreateMerchantAccount payload", "request_id", env.RequestID, "error", err)
		return []domain.Envelope{domain.NewFailure(domain.EventMerchantAccountCreated, env.RequestID, "malformed account payload")}
	}

	id, err := h.service.CreateAccount(account)
	if err != nil {
		return []domain.Envelope{domain.NewFailure(domain.EventMerchantAccountCreated, env.RequestID, err.Error())}
	}

	account.ID = id
	return []domain.Envelope{domain.NewSuccess(domain.EventMerchantAccountCreated, env.RequestID, account)}
}

// HandleDeleteAccount removes an existing account. Deleting an unknown or
// already removed account is a failure, also on redelivery; the service does
// not deduplicate requests by request ID.
func (h *AccountEventHandler) HandleDeleteAccount(ctx context.Context, env domain.Envelope) []domain.Envelope {
	var account domain.Account
	if err := env.DecodePayload(&account); err != nil {
		h.logger.Error("malformed DeleteAccount payload", "request_id", env.RequestID, "error", err)
		return []domain.Envelope{domain.NewFailure(domain.EventAccountDeleted, env.RequestID, "malformed account payload")}
	}

	if err := h.service.DeleteAccount(account); err != nil {
		return []domain.Envelope{domain.NewFailure(domain.EventAccountDeleted, env.RequestID, err.Error())}
	}

	return []domain.Envelope{domain.NewSuccess(domain.EventAccountDeleted, env.RequestID, domain.AccountDeletedPayload{
		AccountID: account.ID,
		Message:   "account deleted",
	})}
}

// HandleExportBankAccounts resolves the bank account numbers of both parties
// of a payment and threads them into the payment payload. This hop sits in
// the middle of the payment saga, so an inherited upstream error (for
// example a rejected token) is forwarded instead of doing local work.
func (h *AccountEventHandler) HandleExportBankAccounts(ctx context.Context, env domain.Envelope) []domain.Envelope {
	if env.IsFailure() {
		return []domain.Envelope{domain.NewFailure(domain.EventBankAccountsExported, env.RequestID, env.Error)}
	}

	var payment domain.PaymentPayload
	if err := env.DecodePayload(&payment); err != nil {
		h.logger.Error("malformed ExportBankAccounts payload", "request_id", env.RequestID, "error", err)
		return []domain.Envelope{domain.NewFailure(domain.EventBankAccountsExported, env.RequestID, "malformed payment payload")}
	}

	customer, err := h.service.GetAccount(payment.CustomerID)
	if err != nil {
		return []domain.Envelope{domain.NewFailure(domain.EventBankAccountsExported, env.RequestID, err.Error())}
	}

	merchant, err := h.service.GetAccount(payment.MerchantID)
	if err != nil {
		return []domain.Envelope{domain.NewFailure(domain.EventBankAccountsExported, env.RequestID, err.Error())}
	}

	payment.CustomerBankAccount = customer.BankAccount
	payment.MerchantBankAccount = merchant.BankAccount
	return []domain.Envelope{domain.NewSuccess(domain.EventBankAccountsExported, env.RequestID, payment)}
}

// HandleCustomerTokensSupplied closes the customer account creation saga.
// The account was created two hops ago; this handler only translates the
// token service's response into the terminal event the facade is waiting
// for, so no lifecycle operation runs here.
func (h *AccountEventHandler) HandleCustomerTokensSupplied(ctx context.Context, env domain.Envelope) []domain.Envelope {
	if env.IsFailure() {
		return []domain.Envelope{domain.NewFailure(domain.EventCustomerAccountCreated, env.RequestID, env.Error)}
	}

	var supplied domain.TokensSuppliedPayload
	if err := env.DecodePayload(&supplied); err != nil {
		h.logger.Error("malformed CustomerTokensSupplied payload", "request_id", env.RequestID, "error", err)
		return []domain.Envelope{domain.NewFailure(domain.EventCustomerAccountCreated, env.RequestID, "malformed tokens payload")}
	}

	return []domain.Envelope{domain.NewSuccess(domain.EventCustomerAccountCreated, env.RequestID, supplied.Account)}
}
