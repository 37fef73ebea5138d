package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dtupay/account-service/internal/domain"
	"github.com/dtupay/account-service/internal/store"
)

func newTestHandler() (*AccountEventHandler, *AccountService, *store.InMemoryLedger) {
	ledger := store.NewInMemoryLedger()
	service := NewAccountService(ledger, discardLogger())
	return NewAccountEventHandler(service, discardLogger()), service, ledger
}

func envelope(t *testing.T, eventType, requestID string, payload any) domain.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling test payload: %v", err)
	}
	return domain.Envelope{Type: eventType, RequestID: requestID, Payload: raw}
}

// countByType counts outbound envelopes addressed to the given event type.
func countByType(outs []domain.Envelope, eventType string) int {
	n := 0
	for _, out := range outs {
		if out.Type == eventType {
			n++
		}
	}
	return n
}

func TestHandleCreateCustomerAccountContinuesToTokenService(t *testing.T) {
	handler, _, _ := newTestHandler()

	in := envelope(t, domain.EventCreateCustomerAccount, "req-1",
		domain.Account{Name: "John Doe", CPR: "1234", BankAccount: "bank-1"})
	outs := handler.HandleCreateCustomerAccount(context.Background(), in)

	if len(outs) != 1 {
		t.Fatalf("expected exactly one outbound envelope, got %d", len(outs))
	}
	out := outs[0]
	if out.Type != domain.EventAssignTokensToCustomer {
		t.Fatalf("expected continue event %q, got %q", domain.EventAssignTokensToCustomer, out.Type)
	}
	if out.RequestID != "req-1" {
		t.Fatalf("request ID not threaded through: %q", out.RequestID)
	}
	// No terminal event yet: the saga terminates on the tokens-supplied hop.
	if countByType(outs, domain.EventCustomerAccountCreated) != 0 {
		t.Fatal("create must not emit a terminal event before tokens are supplied")
	}

	var account domain.Account
	if err := out.DecodePayload(&account); err != nil {
		t.Fatalf("decoding continue payload: %v", err)
	}
	if account.ID == "" {
		t.Fatal("continue event must carry the assigned account ID")
	}
}

func TestHandleCreateCustomerAccountFailureEmitsSingleTerminal(t *testing.T) {
	handler, service, _ := newTestHandler()
	if _, err := service.CreateAccount(domain.Account{Name: "First", BankAccount: "bank-1"}); err != nil {
		t.Fatalf("seeding account: %v", err)
	}

	in := envelope(t, domain.EventCreateCustomerAccount, "req-2",
		domain.Account{Name: "Second", BankAccount: "bank-1"})
	outs := handler.HandleCreateCustomerAccount(context.Background(), in)

	if len(outs) != 1 {
		t.Fatalf("expected exactly one outbound envelope, got %d", len(outs))
	}
	out := outs[0]
	if out.Type != domain.EventCustomerAccountCreated || !out.IsFailure() {
		t.Fatalf("expected a CustomerAccountCreated failure, got %+v", out)
	}
	if out.RequestID != "req-2" {
		t.Fatalf("request ID not threaded through: %q", out.RequestID)
	}
	if !strings.Contains(out.Error, "bank-1") {
		t.Fatalf("failure should name the conflicting bank account: %q", out.Error)
	}
	// The failure branch must short-circuit: no continue event alongside it.
	if countByType(outs, domain.EventAssignTokensToCustomer) != 0 {
		t.Fatal("failure must not be followed by a continue event")
	}
}

func TestHandleCreateMerchantAccount(t *testing.T) {
	tests := []struct {
		name        string
		seedBank    string
		wantFailure bool
	}{
		{name: "success", wantFailure: false},
		{name: "duplicate bank account", seedBank: "bank-9", wantFailure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service, _ := newTestHandler()
			if tt.seedBank != "" {
				if _, err := service.CreateAccount(domain.Account{Name: "Seed", BankAccount: tt.seedBank}); err != nil {
					t.Fatalf("seeding account: %v", err)
				}
			}

			in := envelope(t, domain.EventCreateMerchantAccount, "req-3",
				domain.Account{Name: "Shop", CPR: "4321", BankAccount: "bank-9"})
			outs := handler.HandleCreateMerchantAccount(context.Background(), in)

			if got := countByType(outs, domain.EventMerchantAccountCreated); got != 1 {
				t.Fatalf("expected exactly one terminal MerchantAccountCreated, got %d", got)
			}
			if outs[0].IsFailure() != tt.wantFailure {
				t.Fatalf("IsFailure = %v, want %v (error %q)", outs[0].IsFailure(), tt.wantFailure, outs[0].Error)
			}
			if outs[0].RequestID != "req-3" {
				t.Fatalf("request ID not threaded through: %q", outs[0].RequestID)
			}
		})
	}
}

func TestHandleDeleteAccount(t *testing.T) {
	handler, service, ledger := newTestHandler()
	id, err := service.CreateAccount(domain.Account{Name: "John Doe", BankAccount: "bank-1"})
	if err != nil {
		t.Fatalf("seeding account: %v", err)
	}

	in := envelope(t, domain.EventDeleteAccount, "req-4", domain.Account{ID: id})
	outs := handler.HandleDeleteAccount(context.Background(), in)

	if got := countByType(outs, domain.EventAccountDeleted); got != 1 {
		t.Fatalf("expected exactly one terminal AccountDeleted, got %d", got)
	}
	if outs[0].IsFailure() {
		t.Fatalf("expected success, got failure %q", outs[0].Error)
	}
	if len(ledger.List()) != 0 {
		t.Fatal("account not removed from ledger")
	}

	// Redelivery of the same delete surfaces a failure, never a second success.
	outs = handler.HandleDeleteAccount(context.Background(), in)
	if got := countByType(outs, domain.EventAccountDeleted); got != 1 {
		t.Fatalf("expected exactly one terminal AccountDeleted, got %d", got)
	}
	if !outs[0].IsFailure() {
		t.Fatal("expected failure when deleting an already removed account")
	}
}

func TestHandleExportBankAccounts(t *testing.T) {
	handler, service, _ := newTestHandler()
	customerID, _ := service.CreateAccount(domain.Account{Name: "Customer", BankAccount: "cust-bank"})
	merchantID, _ := service.CreateAccount(domain.Account{Name: "Merchant", BankAccount: "merch-bank"})

	t.Run("fills both bank accounts", func(t *testing.T) {
		in := envelope(t, domain.EventExportBankAccounts, "req-5", domain.PaymentPayload{
			CustomerID: customerID,
			MerchantID: merchantID,
			Token:      "token-1",
			Amount:     "100",
		})
		outs := handler.HandleExportBankAccounts(context.Background(), in)

		if got := countByType(outs, domain.EventBankAccountsExported); got != 1 {
			t.Fatalf("expected exactly one BankAccountsExported, got %d", got)
		}
		var payment domain.PaymentPayload
		if err := outs[0].DecodePayload(&payment); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if payment.CustomerBankAccount != "cust-bank" || payment.MerchantBankAccount != "merch-bank" {
			t.Fatalf("bank accounts not filled in: %+v", payment)
		}
		if payment.Token != "token-1" || payment.Amount != "100" {
			t.Fatalf("unrelated payload fields must round-trip unchanged: %+v", payment)
		}
	})

	t.Run("unknown party fails", func(t *testing.T) {
		in := envelope(t, domain.EventExportBankAccounts, "req-6", domain.PaymentPayload{
			CustomerID: customerID,
			MerchantID: "no-such-merchant",
		})
		outs := handler.HandleExportBankAccounts(context.Background(), in)

		if len(outs) != 1 || !outs[0].IsFailure() {
			t.Fatalf("expected a single failure envelope, got %+v", outs)
		}
		if outs[0].RequestID != "req-6" {
			t.Fatalf("request ID not threaded through: %q", outs[0].RequestID)
		}
	})
}

// TestInheritedErrorPassthrough checks the first phase of every response-hop
// handler: a non-empty inbound error is retagged under the handler's own
// outbound event name with the same request ID and untouched text, and no
// local lifecycle operation runs.
func TestInheritedErrorPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		handle  func(h *AccountEventHandler) HandlerFunc
		inType  string
		outType string
	}{
		{
			name:    "customer tokens supplied",
			handle:  func(h *AccountEventHandler) HandlerFunc { return h.HandleCustomerTokensSupplied },
			inType:  domain.EventCustomerTokensSupplied,
			outType: domain.EventCustomerAccountCreated,
		},
		{
			name:    "export bank accounts",
			handle:  func(h *AccountEventHandler) HandlerFunc { return h.HandleExportBankAccounts },
			inType:  domain.EventExportBankAccounts,
			outType: domain.EventBankAccountsExported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, ledger := newTestHandler()

			in := domain.Envelope{Type: tt.inType, RequestID: "req-7", Error: "token validation failed"}
			outs := tt.handle(handler)(context.Background(), in)

			if len(outs) != 1 {
				t.Fatalf("expected exactly one outbound envelope, got %d", len(outs))
			}
			out := outs[0]
			if out.Type != tt.outType {
				t.Fatalf("expected retag under %q, got %q", tt.outType, out.Type)
			}
			if out.RequestID != "req-7" || out.Error != "token validation failed" {
				t.Fatalf("inherited error must pass through unchanged: %+v", out)
			}
			if len(ledger.List()) != 0 {
				t.Fatal("no lifecycle operation may run on an inherited error")
			}
		})
	}
}

func TestHandleCustomerTokensSuppliedClosesTheSaga(t *testing.T) {
	handler, _, _ := newTestHandler()

	account := domain.Account{ID: "acc-1", Name: "John Doe", BankAccount: "bank-1"}
	in := envelope(t, domain.EventCustomerTokensSupplied, "req-8",
		domain.TokensSuppliedPayload{Account: account, Tokens: []string{"t1", "t2"}})
	outs := handler.HandleCustomerTokensSupplied(context.Background(), in)

	if got := countByType(outs, domain.EventCustomerAccountCreated); got != 1 {
		t.Fatalf("expected exactly one terminal CustomerAccountCreated, got %d", got)
	}
	if outs[0].IsFailure() {
		t.Fatalf("expected success, got %q", outs[0].Error)
	}

	var got domain.Account
	if err := outs[0].DecodePayload(&got); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if got.ID != "acc-1" {
		t.Fatalf("terminal event must carry the created account, got %+v", got)
	}
}

func TestMalformedPayloadStillYieldsOneTerminal(t *testing.T) {
	handler, _, _ := newTestHandler()

	in := domain.Envelope{
		Type:      domain.EventCreateCustomerAccount,
		RequestID: "req-9",
		Payload:   json.RawMessage(`{"name": 42`),
	}
	outs := handler.HandleCreateCustomerAccount(context.Background(), in)

	if len(outs) != 1 || !outs[0].IsFailure() || outs[0].Type != domain.EventCustomerAccountCreated {
		t.Fatalf("expected a single terminal failure, got %+v", outs)
	}
}
