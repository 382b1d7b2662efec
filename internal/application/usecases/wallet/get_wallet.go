package wallet

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/application/dtos"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
)

// cachedWallet is the JSON shape stored under a wallet's cache key — just
// enough to reconstruct a WalletDTO without round-tripping the domain
// entity through the cache.
type cachedWallet struct {
	Wallet   dtos.WalletDTO `json:"wallet"`
	CachedAt time.Time      `json:"cached_at"`
}

// GetWalletHandler implements the current-wallet query:
// cache first, replica on miss, populate the cache on the way back out.
type GetWalletHandler struct {
	deps ReadDeps
}

func NewGetWalletHandler(deps ReadDeps) *GetWalletHandler {
	return &GetWalletHandler{deps: deps}
}

func (h *GetWalletHandler) Handle(ctx context.Context, q dtos.GetWalletQuery) (dtos.WalletDTO, error) {
	walletID, err := uuid.Parse(q.WalletID)
	if err != nil {
		return dtos.WalletDTO{}, domainerrors.NewValidationError("wallet_id", "must be a valid UUID")
	}
	key := cacheKeyFor(q.WalletID)

	if !h.deps.cacheBypassed() {
		if dto, hit := h.tryCache(ctx, key); hit {
			return dto, nil
		}
	}

	wallet, err := h.deps.WalletRepo.FindByID(ctx, walletID)
	if err != nil {
		return dtos.WalletDTO{}, err
	}
	dto := dtos.ToWalletDTO(wallet, time.Now().UTC(), false)

	if !h.deps.cacheBypassed() {
		h.populateCache(ctx, key, dto)
	}
	return dto, nil
}

func (h *GetWalletHandler) tryCache(ctx context.Context, key string) (dtos.WalletDTO, bool) {
	get := func(ctx context.Context) (any, error) {
		raw, hit, err := h.deps.Cache.Get(ctx, key)
		if err != nil || !hit {
			return nil, err
		}
		return raw, nil
	}

	var raw any
	var err error
	if h.deps.CacheBreaker != nil {
		raw, err = h.deps.CacheBreaker.Execute(ctx, get)
	} else {
		raw, err = get(ctx)
	}
	if err != nil {
		h.logCacheError("cache read failed, falling back to replica", err)
		return dtos.WalletDTO{}, false
	}
	bytes, ok := raw.([]byte)
	if !ok || bytes == nil {
		return dtos.WalletDTO{}, false
	}

	var cached cachedWallet
	if err := json.Unmarshal(bytes, &cached); err != nil {
		h.logCacheError("cache payload unreadable, falling back to replica", err)
		return dtos.WalletDTO{}, false
	}
	// Any cache hit is, by definition, a snapshot taken up to walletCacheTTL ago —
	// mark it Stale so callers can judge freshness against AsOf themselves.
	cached.Wallet.AsOf = cached.CachedAt
	cached.Wallet.Stale = true
	return cached.Wallet, true
}

func (h *GetWalletHandler) populateCache(ctx context.Context, key string, dto dtos.WalletDTO) {
	payload, err := json.Marshal(cachedWallet{Wallet: dto, CachedAt: time.Now().UTC()})
	if err != nil {
		return
	}
	put := func(ctx context.Context) (any, error) {
		return nil, h.deps.Cache.Put(ctx, key, payload, walletCacheTTL)
	}
	var putErr error
	if h.deps.CacheBreaker != nil {
		_, putErr = h.deps.CacheBreaker.Execute(ctx, put)
	} else {
		_, putErr = put(ctx)
	}
	if putErr != nil {
		h.logCacheError("cache populate failed", putErr)
	}
}

func (h *GetWalletHandler) logCacheError(msg string, err error) {
	if h.deps.Logger != nil {
		h.deps.Logger.Warn(msg, slog.Any("error", err))
	}
}

// walletCacheTTL is the TTL every wallet snapshot is stored under. It is a
// fixed value; the cache.ttl configuration setting is not read here.
const walletCacheTTL = 30 * time.Second
