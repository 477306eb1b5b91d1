package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/accountd/internal/handlers/middleware"
	"github.com/nkiryanov/accountd/internal/logger"
	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/service/balance"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	balanceService balanceService,
	logger logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /transaction/use", handleUseBalance(balanceService, logger))
	mux.Handle("POST /transaction/cancel", handleCancelBalance(balanceService, logger))
	mux.Handle("GET /transaction/{transactionId}", handleQueryTransaction(balanceService, logger))
	mux.Handle("GET /account", handleListAccounts(balanceService, logger))
	mux.Handle("GET /account/{accountNumber}/transactions", handleListTransactions(balanceService, logger))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.AuthMiddleware(authService),
	)

	return handler
}

type authService interface {
	// Get request and return client name if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (string, error)
}

type balanceService interface {
	// Has to return typed apperrors for business rule violations
	UseBalance(ctx context.Context, req balance.UseRequest) (models.TransactionResult, error)
	CancelBalance(ctx context.Context, req balance.CancelRequest) (models.TransactionResult, error)

	// If transaction not found has to return apperrors.ErrTransactionNotFound
	QueryTransaction(ctx context.Context, transactionID string) (models.TransactionResult, error)

	// If account not found has to return apperrors.ErrAccountNotFound
	ListTransactions(ctx context.Context, accountNumber string) ([]models.TransactionResult, error)

	// If user not found has to return apperrors.ErrUserNotFound
	ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error)
}
