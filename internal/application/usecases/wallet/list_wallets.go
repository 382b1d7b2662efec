package wallet

import (
	"context"

	"github.com/wallethub/ledger/internal/application/dtos"
	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
)

// ListWalletsHandler is the admin wallet listing: a
// read-side convenience over the replica repository, never the cache,
// since it isn't part of the cache-aside contract.
type ListWalletsHandler struct {
	deps ReadDeps
}

func NewListWalletsHandler(deps ReadDeps) *ListWalletsHandler {
	return &ListWalletsHandler{deps: deps}
}

func (h *ListWalletsHandler) Handle(ctx context.Context, q dtos.ListWalletsQuery) (dtos.WalletListDTO, error) {
	filter := ports.WalletFilter{UserID: q.UserID, Currency: q.Currency}
	if q.Status != nil {
		status := entities.WalletStatus(*q.Status)
		filter.Status = &status
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	wallets, err := h.deps.WalletRepo.List(ctx, filter, q.Offset, limit)
	if err != nil {
		return dtos.WalletListDTO{}, err
	}

	return dtos.WalletListDTO{
		Wallets:    dtos.ToWalletDTOList(wallets),
		TotalCount: len(wallets),
		Offset:     q.Offset,
		Limit:      limit,
	}, nil
}
