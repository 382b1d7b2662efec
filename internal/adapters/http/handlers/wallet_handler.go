// Package handlers - Wallet HTTP handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wallethub/ledger/internal/adapters/http/common"
	"github.com/wallethub/ledger/internal/application/dtos"
	"github.com/wallethub/ledger/internal/bus"
)

// WalletHandler translates wallet HTTP requests into bus commands/queries
// and bus results back into the API envelope. It holds no business logic of
// its own — every rule lives in the use-case handlers registered on b.
type WalletHandler struct {
	bus *bus.Bus
}

// NewWalletHandler builds a WalletHandler dispatching through b.
func NewWalletHandler(b *bus.Bus) *WalletHandler {
	return &WalletHandler{bus: b}
}

// ============================================
// Request DTOs
// ============================================

// CreateWalletRequest - запрос на создание кошелька.
//
// @Description Create wallet request body
type CreateWalletRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	Currency string `json:"currency" binding:"required,len=3,currency_code"`
}

// DepositRequest - запрос на пополнение кошелька.
//
// @Description Deposit request body
type DepositRequest struct {
	Amount      string `json:"amount" binding:"required,money_amount"`
	ReferenceID string `json:"reference_id" binding:"required"`
}

// WithdrawRequest - запрос на списание с кошелька.
//
// @Description Withdraw request body
type WithdrawRequest struct {
	Amount      string `json:"amount" binding:"required,money_amount"`
	ReferenceID string `json:"reference_id" binding:"required"`
}

// TransferRequest - запрос на перевод между кошельками.
//
// @Description Transfer request body
type TransferRequest struct {
	DestinationWalletID string `json:"destination_wallet_id" binding:"required,uuid"`
	Amount              string `json:"amount" binding:"required,money_amount"`
	ReferenceID         string `json:"reference_id" binding:"required"`
}

// WalletIDParam - параметр ID кошелька из URL.
type WalletIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListWalletsParams - параметры для списка кошельков.
type ListWalletsParams struct {
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	Currency string `form:"currency" binding:"omitempty,len=3"`
	Status   string `form:"status" binding:"omitempty,wallet_status"`
}

// HistoricalBalanceParams - параметры запроса исторического баланса.
type HistoricalBalanceParams struct {
	AsOf string `form:"as_of" binding:"required"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateWallet создаёт новый кошелёк.
//
// @Summary Create a new wallet
// @Description Open a new wallet for a user in a given currency
// @Tags Wallets
// @Accept json
// @Produce json
// @Param request body CreateWalletRequest true "Wallet data"
// @Success 201 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req CreateWalletRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.CreateWalletCommand{
		UserID:   req.UserID,
		Currency: req.Currency,
	}

	result, err := bus.DispatchTyped[dtos.WalletDTO](c.Request.Context(), h.bus, cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetWallet возвращает текущее состояние кошелька по ID.
//
// @Summary Get wallet by ID
// @Description Get current wallet state by UUID
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	query := dtos.GetWalletQuery{WalletID: params.ID}

	result, err := bus.QueryTyped[dtos.WalletDTO](c.Request.Context(), h.bus, query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetHistoricalBalance возвращает баланс кошелька на заданный момент времени,
// восстановленный сверткой его завершённых транзакций.
//
// @Summary Get historical wallet balance
// @Description Reconstruct a wallet's balance as of a point in time
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Param as_of query string true "RFC3339 timestamp"
// @Success 200 {object} common.APIResponse{data=dtos.HistoricalBalanceResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/balance [get]
func (h *WalletHandler) GetHistoricalBalance(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	var q HistoricalBalanceParams
	if !BindQuery(c, &q) {
		return
	}

	asOf, err := time.Parse(time.RFC3339, q.AsOf)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "as_of", Message: "must be an RFC3339 timestamp", Code: "format"},
		})
		return
	}

	query := dtos.GetHistoricalBalanceQuery{WalletID: params.ID, AsOf: asOf}

	result, err := bus.QueryTyped[dtos.HistoricalBalanceResult](c.Request.Context(), h.bus, query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListWallets возвращает список кошельков с фильтрацией и пагинацией.
//
// @Summary List wallets
// @Description Get paginated list of wallets with optional filters
// @Tags Wallets
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Param user_id query string false "Filter by user ID" format(uuid)
// @Param currency query string false "Filter by currency"
// @Param status query string false "Filter by status" Enums(ACTIVE, FROZEN, CLOSED)
// @Success 200 {object} common.APIResponse{data=dtos.WalletListDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets [get]
func (h *WalletHandler) ListWallets(c *gin.Context) {
	pagination := ParsePagination(c)

	var filters ListWalletsParams
	if !BindQuery(c, &filters) {
		return
	}

	query := dtos.ListWalletsQuery{
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	}

	if filters.UserID != "" {
		query.UserID = &filters.UserID
	}
	if filters.Currency != "" {
		query.Currency = &filters.Currency
	}
	if filters.Status != "" {
		query.Status = &filters.Status
	}

	result, err := bus.QueryTyped[dtos.WalletListDTO](c.Request.Context(), h.bus, query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	meta := BuildMeta(pagination, result.TotalCount)
	common.SuccessWithMeta(c, http.StatusOK, result, meta)
}

// Deposit пополняет кошелёк.
//
// @Summary Deposit into a wallet
// @Description Credit funds to a wallet, idempotent on reference_id
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Param request body DepositRequest true "Deposit data"
// @Success 200 {object} common.APIResponse{data=dtos.WalletOperationResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 409 {object} common.APIResponse "Concurrency or duplicate reference"
// @Failure 422 {object} common.APIResponse "Wallet not active"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/deposit [post]
func (h *WalletHandler) Deposit(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	var req DepositRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.DepositCommand{
		WalletID:    params.ID,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
	}

	result, err := bus.DispatchTyped[dtos.WalletOperationResult](c.Request.Context(), h.bus, cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Withdraw списывает средства с кошелька.
//
// @Summary Withdraw from a wallet
// @Description Debit funds from a wallet, idempotent on reference_id
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Param request body WithdrawRequest true "Withdraw data"
// @Success 200 {object} common.APIResponse{data=dtos.WalletOperationResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 409 {object} common.APIResponse "Concurrency or duplicate reference"
// @Failure 422 {object} common.APIResponse "Insufficient funds or wallet not active"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/withdraw [post]
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	var req WithdrawRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.WithdrawCommand{
		WalletID:    params.ID,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
	}

	result, err := bus.DispatchTyped[dtos.WalletOperationResult](c.Request.Context(), h.bus, cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Transfer переводит средства между кошельками одной валюты.
//
// @Summary Transfer funds between wallets
// @Description Transfer funds from source wallet to destination wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Source Wallet ID" format(uuid)
// @Param request body TransferRequest true "Transfer data"
// @Success 200 {object} common.APIResponse{data=dtos.TransferResult}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 409 {object} common.APIResponse "Concurrency or duplicate reference"
// @Failure 422 {object} common.APIResponse "Insufficient funds or currency mismatch"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/transfer [post]
func (h *WalletHandler) Transfer(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	var req TransferRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.TransferCommand{
		SourceWalletID:      params.ID,
		DestinationWalletID: req.DestinationWalletID,
		Amount:              req.Amount,
		ReferenceID:         req.ReferenceID,
	}

	result, err := bus.DispatchTyped[dtos.TransferResult](c.Request.Context(), h.bus, cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для WalletHandler.
//
// Routes:
//   - POST   /wallets                - Create wallet
//   - GET    /wallets                - List wallets
//   - GET    /wallets/:id            - Get wallet by ID
//   - GET    /wallets/:id/balance    - Get historical balance
//   - POST   /wallets/:id/deposit    - Deposit
//   - POST   /wallets/:id/withdraw   - Withdraw
//   - POST   /wallets/:id/transfer   - Transfer funds
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallets := router.Group("/wallets")
	{
		wallets.POST("", h.CreateWallet)
		wallets.GET("", h.ListWallets)
		wallets.GET("/:id", h.GetWallet)
		wallets.GET("/:id/balance", h.GetHistoricalBalance)
		wallets.POST("/:id/deposit", h.Deposit)
		wallets.POST("/:id/withdraw", h.Withdraw)
		wallets.POST("/:id/transfer", h.Transfer)
	}
}
