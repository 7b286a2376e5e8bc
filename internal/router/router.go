package router

import (
	"net/http"

	"github.com/creatorbridge/backend/internal/auth"
	"github.com/creatorbridge/backend/internal/handlers"
)

// New returns an http.Handler serving the account surface under /api/v1.
// authMW is the JWT middleware; register and login stay public.
func New(authHandler *auth.Handler, walletHandler *handlers.WalletHandler, authMW func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"
	mux.HandleFunc(base+"/auth/register", authHandler.Register)
	mux.HandleFunc(base+"/auth/login", authHandler.Login)

	mux.Handle("GET "+base+"/account/me", authMW(http.HandlerFunc(walletHandler.GetMe)))
	mux.Handle("GET "+base+"/wallet/balance", authMW(http.HandlerFunc(walletHandler.GetBalance)))
	mux.Handle("GET "+base+"/wallet/ledger", authMW(http.HandlerFunc(walletHandler.ListLedger)))
	mux.Handle("POST "+base+"/wallet/deposit", authMW(http.HandlerFunc(walletHandler.Deposit)))
	mux.Handle("GET "+base+"/campaigns/{id}/escrow", authMW(http.HandlerFunc(walletHandler.GetEscrowStatus)))

	return mux
}
