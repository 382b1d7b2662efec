package events_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/wallethub/ledger/internal/domain/events"
)

func TestWalletCreated(t *testing.T) {
	walletID := uuid.New()
	e := events.NewWalletCreated(walletID, "user-1", "USD")

	assert.Equal(t, "wallet.created", e.EventType())
	assert.Equal(t, walletID, e.AggregateID())
	assert.WithinDuration(t, e.OccurredAt(), e.OccurredAt(), 0)
}

func TestFundsTransferred_CarriesBothLegs(t *testing.T) {
	source, dest, srcTx, dstTx := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	e := events.NewFundsTransferred(source, dest, srcTx, dstTx, "10.00", "USD", "ref-1")

	assert.Equal(t, source, e.AggregateID())
	assert.Equal(t, dest.String(), e.DestinationWalletID)
	assert.Equal(t, "wallet.funds_transferred", e.EventType())
}
