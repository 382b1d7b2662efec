package wallet

import (
	"testing"

	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/money"
)

func isServiceDegraded(err error) bool { return domainerrors.IsServiceDegraded(err) }

func mustMoney(t *testing.T, amount, currency string) money.Money {
	t.Helper()
	m, err := money.New(amount, currency)
	if err != nil {
		t.Fatalf("money.New(%q, %q): %v", amount, currency, err)
	}
	return m
}
