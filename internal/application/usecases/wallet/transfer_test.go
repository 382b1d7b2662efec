package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallethub/ledger/internal/application/dtos"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/outbox"
)

func TestTransfer_MovesFundsBetweenWallets(t *testing.T) {
	a := newTestWallet(t, "user-a", "USD")
	require.NoError(t, a.Credit(mustMoney(t, "300.00", "USD")))
	b := newTestWallet(t, "user-b", "USD")
	walletRepo := newFakeWalletRepo(a, b)
	outboxRepo := &fakeOutboxRepo{}
	h := NewTransferHandler(WriteDeps{
		UoW:        fakeUoW{},
		WalletRepo: walletRepo,
		TxRepo:     newFakeTransactionRepo(),
		Outbox:     outbox.NewService(outboxRepo),
	})

	result, err := h.Handle(context.Background(), dtos.TransferCommand{
		SourceWalletID: a.ID().String(), DestinationWalletID: b.ID().String(),
		Amount: "125.50", ReferenceID: "r3",
	})

	require.NoError(t, err)
	assert.Equal(t, "174.50", result.SourceWallet.Balance)
	assert.Equal(t, "125.50", result.DestinationWallet.Balance)
	assert.NotEqual(t, result.SourceTransaction, result.DestTransaction)
	assert.Len(t, outboxRepo.saved, 1)
	assert.Equal(t, "wallet.funds_transferred", outboxRepo.saved[0].EventType())
}

func TestTransfer_SameWalletIsInvalid(t *testing.T) {
	a := newTestWallet(t, "user-a", "USD")
	h := NewTransferHandler(WriteDeps{
		UoW:        fakeUoW{},
		WalletRepo: newFakeWalletRepo(a),
		TxRepo:     newFakeTransactionRepo(),
		Outbox:     outbox.NewService(&fakeOutboxRepo{}),
	})

	_, err := h.Handle(context.Background(), dtos.TransferCommand{
		SourceWalletID: a.ID().String(), DestinationWalletID: a.ID().String(),
		Amount: "50.00", ReferenceID: "r4",
	})

	require.Error(t, err)
	assert.True(t, domainerrors.IsInvalidTransfer(err))
}

func TestTransfer_CrossCurrencyIsInvalid(t *testing.T) {
	a := newTestWallet(t, "user-a", "USD")
	require.NoError(t, a.Credit(mustMoney(t, "300.00", "USD")))
	b := newTestWallet(t, "user-b", "EUR")
	h := NewTransferHandler(WriteDeps{
		UoW:        fakeUoW{},
		WalletRepo: newFakeWalletRepo(a, b),
		TxRepo:     newFakeTransactionRepo(),
		Outbox:     outbox.NewService(&fakeOutboxRepo{}),
	})

	_, err := h.Handle(context.Background(), dtos.TransferCommand{
		SourceWalletID: a.ID().String(), DestinationWalletID: b.ID().String(),
		Amount: "10.00", ReferenceID: "r5",
	})

	require.Error(t, err)
	assert.True(t, domainerrors.IsInvalidTransfer(err))
}

func TestTransfer_SameReferenceIsIdempotent(t *testing.T) {
	a := newTestWallet(t, "user-a", "USD")
	require.NoError(t, a.Credit(mustMoney(t, "300.00", "USD")))
	b := newTestWallet(t, "user-b", "USD")
	h := NewTransferHandler(WriteDeps{
		UoW:        fakeUoW{},
		WalletRepo: newFakeWalletRepo(a, b),
		TxRepo:     newFakeTransactionRepo(),
		Outbox:     outbox.NewService(&fakeOutboxRepo{}),
	})
	cmd := dtos.TransferCommand{
		SourceWalletID: a.ID().String(), DestinationWalletID: b.ID().String(),
		Amount: "100.00", ReferenceID: "r6",
	}

	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.False(t, first.Idempotent)
	assert.True(t, second.Idempotent)
	assert.Equal(t, first.SourceTransaction, second.SourceTransaction)
	assert.Equal(t, "200.00", second.SourceWallet.Balance)
}
