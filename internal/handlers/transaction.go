package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/handlers/render"
	"github.com/nkiryanov/accountd/internal/logger"
	"github.com/nkiryanov/accountd/internal/models"
	"github.com/nkiryanov/accountd/internal/service/balance"
)

// Result of balance use or cancellation
type mutationResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
}

func newMutationResponse(t models.TransactionResult) mutationResponse {
	return mutationResponse{
		AccountNumber:     t.AccountNumber,
		TransactionResult: t.Result,
		TransactionID:     t.TransactionID,
		Amount:            t.Amount,
		TransactedAt:      t.TransactedAt,
	}
}

type queryResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionType   string    `json:"transactionType"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
}

func newQueryResponse(t models.TransactionResult) queryResponse {
	return queryResponse{
		AccountNumber:     t.AccountNumber,
		TransactionType:   t.Type,
		TransactionResult: t.Result,
		TransactionID:     t.TransactionID,
		Amount:            t.Amount,
		TransactedAt:      t.TransactedAt,
	}
}

func handleUseBalance(balanceService balanceService, l logger.Logger) http.Handler {
	type request struct {
		UserID        int64  `json:"userId" validate:"required,gte=1"`
		AccountNumber string `json:"accountNumber" validate:"required,account_number"`
		Amount        int64  `json:"amount" validate:"required,min=10,max=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := balanceService.UseBalance(r.Context(), balance.UseRequest{
			OwnerID:       req.UserID,
			AccountNumber: req.AccountNumber,
			Amount:        req.Amount,
		})
		if err != nil {
			renderServiceError(w, r, err, l)
			return
		}

		render.JSON(w, newMutationResponse(res))
	})
}

func handleCancelBalance(balanceService balanceService, l logger.Logger) http.Handler {
	type request struct {
		TransactionID string `json:"transactionId" validate:"required"`
		AccountNumber string `json:"accountNumber" validate:"required,account_number"`
		Amount        int64  `json:"amount" validate:"required,min=10,max=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := balanceService.CancelBalance(r.Context(), balance.CancelRequest{
			TransactionID: req.TransactionID,
			AccountNumber: req.AccountNumber,
			Amount:        req.Amount,
		})
		if err != nil {
			renderServiceError(w, r, err, l)
			return
		}

		render.JSON(w, newMutationResponse(res))
	})
}

func handleQueryTransaction(balanceService balanceService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := balanceService.QueryTransaction(r.Context(), r.PathValue("transactionId"))
		if err != nil {
			renderServiceError(w, r, err, l)
			return
		}

		render.JSON(w, newQueryResponse(res))
	})
}

func handleListTransactions(balanceService balanceService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results, err := balanceService.ListTransactions(r.Context(), r.PathValue("accountNumber"))
		if err != nil {
			renderServiceError(w, r, err, l)
			return
		}

		transactions := make([]queryResponse, 0, len(results))
		for _, t := range results {
			transactions = append(transactions, newQueryResponse(t))
		}
		render.JSON(w, transactions)
	})
}

type accountResponse struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
}

func handleListAccounts(balanceService balanceService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil || userID < 1 {
			renderServiceError(w, r, apperrors.ErrInvalidRequest, l)
			return
		}

		accounts, err := balanceService.ListAccounts(r.Context(), userID)
		if err != nil {
			renderServiceError(w, r, err, l)
			return
		}

		res := make([]accountResponse, 0, len(accounts))
		for _, a := range accounts {
			res = append(res, accountResponse{AccountNumber: a.AccountNumber, Balance: a.Balance})
		}
		render.JSON(w, res)
	})
}
