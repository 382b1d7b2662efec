package ports

import "context"

// UnitOfWork draws the transaction boundary around a use case. One Execute
// call is one database transaction: fn's error rolls it back, fn's nil
// return commits it. Every repository call inside fn must use the ctx
// Execute hands it, not the caller's original ctx, since that's where the
// live transaction handle is threaded from.
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    wallet, err := walletRepo.FindByID(txCtx, walletID)
//	    if err != nil {
//	        return err
//	    }
//	    if err := wallet.Credit(amount); err != nil {
//	        return err
//	    }
//	    if err := walletRepo.Save(txCtx, wallet); err != nil {
//	        return err
//	    }
//	    return outboxRepo.Save(txCtx, outboxEvent)
//	})
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
}

// ExecuteWithResult runs fn inside uow's transaction and carries back a
// typed result, without the interface itself needing a generic method
// (interface methods can't be generic in Go).
func ExecuteWithResult[T any](ctx context.Context, uow UnitOfWork, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := uow.Execute(ctx, func(txCtx context.Context) error {
		r, err := fn(txCtx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}
