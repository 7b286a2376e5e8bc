package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/creatorbridge/backend/internal/middleware"
	"github.com/creatorbridge/backend/internal/models"
)

// WalletStore resolves the caller's wallet.
type WalletStore interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Wallet, error)
}

// LedgerReader is the read-side ledger surface for wallet projections.
type LedgerReader interface {
	Balance(ctx context.Context, walletID uuid.UUID) (int64, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error)
}

// Depositor credits a wallet from an external payment source.
type Depositor interface {
	Deposit(ctx context.Context, walletID uuid.UUID, amount int64) (*models.LedgerEntry, error)
}

// EscrowReader exposes the per-campaign escrow projection.
type EscrowReader interface {
	Status(ctx context.Context, campaignID uuid.UUID) (*models.EscrowAccount, error)
}

// WalletHandler serves account and wallet projection endpoints. All balances
// are derived from the ledger at read time.
type WalletHandler struct {
	Wallets   WalletStore
	Ledger    LedgerReader
	Deposits  Depositor
	Escrows   EscrowReader
	Campaigns CampaignLifecycle
	Logger    *slog.Logger
}

// GetMe handles GET /api/v1/account/me.
func (h *WalletHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type balanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  int64  `json:"balance"`
}

// GetBalance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.callerWallet(w, r)
	if !ok {
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), wallet.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{WalletID: wallet.ID.String(), Balance: balance})
}

// ListLedger handles GET /api/v1/wallet/ledger: the caller's entries in
// append order.
func (h *WalletHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.callerWallet(w, r)
	if !ok {
		return
	}
	entries, err := h.Ledger.ListByWallet(r.Context(), wallet.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if entries == nil {
		entries = []*models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit handles POST /api/v1/wallet/deposit.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.callerWallet(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	entry, err := h.Deposits.Deposit(r.Context(), wallet.ID, req.Amount)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetEscrowStatus handles GET /api/v1/campaigns/{id}/escrow (sponsor-only
// projection of the campaign's custody state).
func (h *WalletHandler) GetEscrowStatus(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	campaignID, ok := pathUUID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	c, err := h.Campaigns.Get(r.Context(), campaignID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if c.SponsorID != acc.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	e, err := h.Escrows.Status(r.Context(), campaignID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *WalletHandler) callerWallet(w http.ResponseWriter, r *http.Request) (*models.Wallet, bool) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return nil, false
	}
	wallet, err := h.Wallets.GetByAccountID(r.Context(), acc.ID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return nil, false
	}
	return wallet, true
}
