package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/wallethub/ledger/internal/application/dtos"
	"github.com/wallethub/ledger/internal/domain/entities"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/money"
	"github.com/wallethub/ledger/internal/application/usecases/wallet"
	"github.com/wallethub/ledger/internal/outbox"
	"github.com/wallethub/ledger/internal/resilience/breaker"
	"github.com/wallethub/ledger/internal/resilience/degradation"
)

// ledgerWorld is the godog scenario state: one instance per scenario,
// wiring the real command/query handlers against in-memory fakes so every
// step runs through the same code the HTTP layer calls.
type ledgerWorld struct {
	ctx context.Context

	walletRepo *memWalletRepo
	txRepo     *memTransactionRepo
	outboxRepo *memOutboxRepo
	uow        *memUnitOfWork
	degrader   *degradation.Manager
	dbBreaker  *breaker.Breaker

	createHandler  *wallet.CreateWalletHandler
	depositHandler *wallet.DepositHandler
	withdrawHandler *wallet.WithdrawHandler
	transferHandler *wallet.TransferHandler
	getHandler      *wallet.GetWalletHandler
	historyHandler  *wallet.GetHistoricalBalanceHandler

	wallets map[string]uuid.UUID
	times   map[string]time.Time

	prevTxID string
	lastTxID string

	lastErr error
}

func newLedgerWorld() *ledgerWorld {
	w := &ledgerWorld{
		ctx:        context.Background(),
		walletRepo: newMemWalletRepo(),
		txRepo:     newMemTransactionRepo(),
		outboxRepo: &memOutboxRepo{},
		uow:        &memUnitOfWork{},
		degrader:   degradation.NewManager(),
		wallets:    make(map[string]uuid.UUID),
		times:      make(map[string]time.Time),
	}
	w.dbBreaker = breaker.New(breaker.Config{
		Name:                "database",
		MaxRequestsHalfOpen: 1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		FailureThreshold:    1,
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.degrader.Set(degradation.ReadOnlyMode, to == gobreaker.StateOpen)
		},
	})

	writeDeps := wallet.WriteDeps{
		UoW:        w.uow,
		WalletRepo: w.walletRepo,
		TxRepo:     w.txRepo,
		Outbox:     outbox.NewService(w.outboxRepo),
		DBBreaker:  w.dbBreaker,
		Degrader:   w.degrader,
	}
	readDeps := wallet.ReadDeps{
		WalletRepo: w.walletRepo,
		TxRepo:     w.txRepo,
		Degrader:   w.degrader,
	}

	w.createHandler = wallet.NewCreateWalletHandler(writeDeps)
	w.depositHandler = wallet.NewDepositHandler(writeDeps)
	w.withdrawHandler = wallet.NewWithdrawHandler(writeDeps)
	w.transferHandler = wallet.NewTransferHandler(writeDeps)
	w.getHandler = wallet.NewGetWalletHandler(readDeps)
	w.historyHandler = wallet.NewGetHistoricalBalanceHandler(readDeps)
	return w
}

func (w *ledgerWorld) aFreshLedger() error {
	return nil
}

func (w *ledgerWorld) walletFor(name, userID, currency string) error {
	wlt, err := entities.NewWallet(userID, currency)
	if err != nil {
		return err
	}
	w.wallets[name] = wlt.ID()
	return w.walletRepo.Save(w.ctx, wlt)
}

func (w *ledgerWorld) walletForWithBalance(name, userID, currency, balance string) error {
	wlt, err := entities.NewWallet(userID, currency)
	if err != nil {
		return err
	}
	amount, err := money.New(balance, currency)
	if err != nil {
		return err
	}
	if amount.IsPositive() {
		if err := wlt.Credit(amount); err != nil {
			return err
		}
	}
	w.wallets[name] = wlt.ID()
	return w.walletRepo.Save(w.ctx, wlt)
}

func (w *ledgerWorld) iCreateWallet(name, userID, currency string) error {
	result, err := w.createHandler.Handle(w.ctx, dtos.CreateWalletCommand{UserID: userID, Currency: currency})
	w.lastErr = err
	if err == nil {
		id, parseErr := uuid.Parse(result.ID)
		if parseErr != nil {
			return parseErr
		}
		w.wallets[name] = id
	}
	return nil
}

func (w *ledgerWorld) walletBalanceIs(name, expected string) error {
	id, err := w.requireWallet(name)
	if err != nil {
		return err
	}
	wlt, err := w.walletRepo.FindByID(w.ctx, id)
	if err != nil {
		return err
	}
	if wlt.Balance().String() != expected {
		return fmt.Errorf("wallet %q balance = %s, want %s", name, wlt.Balance().String(), expected)
	}
	return nil
}

func (w *ledgerWorld) walletStatusIs(name, expected string) error {
	id, err := w.requireWallet(name)
	if err != nil {
		return err
	}
	wlt, err := w.walletRepo.FindByID(w.ctx, id)
	if err != nil {
		return err
	}
	if string(wlt.Status()) != expected {
		return fmt.Errorf("wallet %q status = %s, want %s", name, wlt.Status(), expected)
	}
	return nil
}

func (w *ledgerWorld) iDepositInto(amount, name, reference string) error {
	id, err := w.requireWallet(name)
	if err != nil {
		return err
	}
	result, err := w.depositHandler.Handle(w.ctx, dtos.DepositCommand{WalletID: id.String(), Amount: amount, ReferenceID: reference})
	w.lastErr = err
	w.prevTxID = w.lastTxID
	if err == nil {
		w.lastTxID = result.TransactionID
	}
	return nil
}

func (w *ledgerWorld) bothDepositsIntoReturnedTheSameTransactionID(name string) error {
	if w.lastErr != nil {
		return fmt.Errorf("last deposit into %q failed: %w", name, w.lastErr)
	}
	if w.prevTxID == "" || w.prevTxID != w.lastTxID {
		return fmt.Errorf("deposit transaction ids differ: %q vs %q", w.prevTxID, w.lastTxID)
	}
	return nil
}

func (w *ledgerWorld) iWithdrawFrom(amount, name, reference string) error {
	id, err := w.requireWallet(name)
	if err != nil {
		return err
	}
	_, err = w.withdrawHandler.Handle(w.ctx, dtos.WithdrawCommand{WalletID: id.String(), Amount: amount, ReferenceID: reference})
	w.lastErr = err
	return nil
}

func (w *ledgerWorld) theLastOperationFailedWithInsufficientFunds(available, requested string) error {
	var v *domainerrors.InsufficientFundsError
	if !errors.As(w.lastErr, &v) {
		return fmt.Errorf("expected InsufficientFundsError, got %v", w.lastErr)
	}
	if v.Available != available || v.Requested != requested {
		return fmt.Errorf("insufficient funds mismatch: available=%s requested=%s, want available=%s requested=%s", v.Available, v.Requested, available, requested)
	}
	return nil
}

func (w *ledgerWorld) iTransferFromTo(amount, source, destination, reference string) error {
	sourceID, err := w.requireWallet(source)
	if err != nil {
		return err
	}
	destID, err := w.requireWallet(destination)
	if err != nil {
		return err
	}
	_, err = w.transferHandler.Handle(w.ctx, dtos.TransferCommand{
		SourceWalletID:      sourceID.String(),
		DestinationWalletID: destID.String(),
		Amount:              amount,
		ReferenceID:         reference,
	})
	w.lastErr = err
	return nil
}

func (w *ledgerWorld) theLedgerRecordsATransferPair(source, destination, reference string) error {
	if w.lastErr != nil {
		return fmt.Errorf("transfer failed: %w", w.lastErr)
	}
	sourceID, err := w.requireWallet(source)
	if err != nil {
		return err
	}
	destID, err := w.requireWallet(destination)
	if err != nil {
		return err
	}
	outTx, err := w.txRepo.FindByReference(w.ctx, sourceID, reference)
	if err != nil {
		return err
	}
	if outTx.Type() != entities.TransactionTypeTransferOut {
		return fmt.Errorf("source transaction type = %s, want TRANSFER_OUT", outTx.Type())
	}
	inTx, err := w.txRepo.FindByReference(w.ctx, destID, reference)
	if err != nil {
		return err
	}
	if inTx.Type() != entities.TransactionTypeTransferIn {
		return fmt.Errorf("destination transaction type = %s, want TRANSFER_IN", inTx.Type())
	}
	return nil
}

func (w *ledgerWorld) theLastOperationFailedWithAnInvalidTransfer() error {
	if !domainerrors.IsInvalidTransfer(w.lastErr) {
		return fmt.Errorf("expected InvalidTransferError, got %v", w.lastErr)
	}
	return nil
}

func (w *ledgerWorld) iMarkTheTime(label string) error {
	w.times[label] = time.Now().UTC()
	return nil
}

func (w *ledgerWorld) historicalBalanceOfAtIs(name, label, expected string) error {
	asOf, ok := w.times[label]
	if !ok {
		return fmt.Errorf("no time marked %q", label)
	}
	return w.assertHistoricalBalance(name, asOf, expected)
}

func (w *ledgerWorld) historicalBalanceOfRightNowIs(name, expected string) error {
	return w.assertHistoricalBalance(name, time.Now().UTC(), expected)
}

func (w *ledgerWorld) assertHistoricalBalance(name string, asOf time.Time, expected string) error {
	id, err := w.requireWallet(name)
	if err != nil {
		return err
	}
	result, err := w.historyHandler.Handle(w.ctx, dtos.GetHistoricalBalanceQuery{WalletID: id.String(), AsOf: asOf})
	if err != nil {
		return err
	}
	got, err := money.New(result.Balance, result.Currency)
	if err != nil {
		return err
	}
	want, err := money.New(expected, result.Currency)
	if err != nil {
		return err
	}
	if got.Compare(want) != 0 {
		return fmt.Errorf("historical balance of %q at %s = %s, want %s", name, asOf, result.Balance, expected)
	}
	return nil
}

func (w *ledgerWorld) thePrimaryDatabaseStartsFailingEveryWrite() error {
	w.uow.failing = true
	return nil
}

func (w *ledgerWorld) theDegradationManagerDetectsThePrimaryFailure() error {
	_, _ = w.createHandler.Handle(w.ctx, dtos.CreateWalletCommand{UserID: "detector", Currency: "USD"})
	return nil
}

func (w *ledgerWorld) theLastOperationFailedWithServiceDegradedMode(mode string) error {
	var degraded *domainerrors.ServiceDegradedError
	if !errors.As(w.lastErr, &degraded) {
		return fmt.Errorf("expected ServiceDegradedError, got %v", w.lastErr)
	}
	if degraded.Code != mode {
		return fmt.Errorf("degradation code = %s, want %s", degraded.Code, mode)
	}
	return nil
}

func (w *ledgerWorld) gettingWalletStillSucceeds(name string) error {
	id, err := w.requireWallet(name)
	if err != nil {
		return err
	}
	_, err = w.getHandler.Handle(w.ctx, dtos.GetWalletQuery{WalletID: id.String()})
	return err
}

func (w *ledgerWorld) requireWallet(name string) (uuid.UUID, error) {
	id, ok := w.wallets[name]
	if !ok {
		return uuid.UUID{}, fmt.Errorf("no wallet named %q", name)
	}
	return id, nil
}

// InitializeScenario wires every step text to its handler and resets the
// world between scenarios, the way godog expects a ScenarioInitializer to.
func InitializeScenario(ctx *godog.ScenarioContext) {
	var world *ledgerWorld

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		world = newLedgerWorld()
		return c, nil
	})

	ctx.Step(`^a fresh ledger$`, func() error { return world.aFreshLedger() })
	ctx.Step(`^wallet "([^"]*)" for user "([^"]*)" in "([^"]*)" with balance "([^"]*)"$`, func(name, userID, currency, balance string) error {
		return world.walletForWithBalance(name, userID, currency, balance)
	})
	ctx.Step(`^wallet "([^"]*)" for user "([^"]*)" in "([^"]*)"$`, func(name, userID, currency string) error {
		return world.walletFor(name, userID, currency)
	})
	ctx.Step(`^I create wallet "([^"]*)" for user "([^"]*)" in "([^"]*)"$`, func(name, userID, currency string) error {
		return world.iCreateWallet(name, userID, currency)
	})
	ctx.Step(`^wallet "([^"]*)" balance is "([^"]*)"$`, func(name, expected string) error {
		return world.walletBalanceIs(name, expected)
	})
	ctx.Step(`^wallet "([^"]*)" status is "([^"]*)"$`, func(name, expected string) error {
		return world.walletStatusIs(name, expected)
	})
	ctx.Step(`^I deposit "([^"]*)" into "([^"]*)" with reference "([^"]*)"$`, func(amount, name, reference string) error {
		return world.iDepositInto(amount, name, reference)
	})
	ctx.Step(`^both deposits into "([^"]*)" returned the same transaction id$`, func(name string) error {
		return world.bothDepositsIntoReturnedTheSameTransactionID(name)
	})
	ctx.Step(`^I withdraw "([^"]*)" from "([^"]*)" with reference "([^"]*)"$`, func(amount, name, reference string) error {
		return world.iWithdrawFrom(amount, name, reference)
	})
	ctx.Step(`^the last operation failed with insufficient funds available "([^"]*)" requested "([^"]*)"$`, func(available, requested string) error {
		return world.theLastOperationFailedWithInsufficientFunds(available, requested)
	})
	ctx.Step(`^I transfer "([^"]*)" from "([^"]*)" to "([^"]*)" with reference "([^"]*)"$`, func(amount, source, destination, reference string) error {
		return world.iTransferFromTo(amount, source, destination, reference)
	})
	ctx.Step(`^the ledger records a TRANSFER_OUT transaction on "([^"]*)" and a TRANSFER_IN transaction on "([^"]*)" for reference "([^"]*)"$`, func(source, destination, reference string) error {
		return world.theLedgerRecordsATransferPair(source, destination, reference)
	})
	ctx.Step(`^the last operation failed with an invalid transfer$`, func() error {
		return world.theLastOperationFailedWithAnInvalidTransfer()
	})
	ctx.Step(`^I mark the time "([^"]*)"$`, func(label string) error {
		return world.iMarkTheTime(label)
	})
	ctx.Step(`^the historical balance of "([^"]*)" at "([^"]*)" is "([^"]*)"$`, func(name, label, expected string) error {
		return world.historicalBalanceOfAtIs(name, label, expected)
	})
	ctx.Step(`^the historical balance of "([^"]*)" right now is "([^"]*)"$`, func(name, expected string) error {
		return world.historicalBalanceOfRightNowIs(name, expected)
	})
	ctx.Step(`^the primary database starts failing every write$`, func() error {
		return world.thePrimaryDatabaseStartsFailingEveryWrite()
	})
	ctx.Step(`^the degradation manager detects the primary failure$`, func() error {
		return world.theDegradationManagerDetectsThePrimaryFailure()
	})
	ctx.Step(`^the last operation failed with service degraded mode "([^"]*)"$`, func(mode string) error {
		return world.theLastOperationFailedWithServiceDegradedMode(mode)
	})
	ctx.Step(`^getting wallet "([^"]*)" still succeeds$`, func(name string) error {
		return world.gettingWalletStillSucceeds(name)
	})
}
