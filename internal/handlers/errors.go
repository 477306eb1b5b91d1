package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/accountd/internal/apperrors"
	"github.com/nkiryanov/accountd/internal/handlers/middleware"
	"github.com/nkiryanov/accountd/internal/handlers/render"
	"github.com/nkiryanov/accountd/internal/logger"
)

// Render service error with its code, unexpected errors are logged and hidden
func renderServiceError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	code := apperrors.CodeOf(err)

	var status int
	switch code {
	case apperrors.CodeInternal:
		client, _ := middleware.ClientFromContext(r.Context())
		l.Error("Request failed", "uri", r.RequestURI, "client", client, "error", err)
		render.CodedServiceError(w, string(code), "Internal server error", http.StatusInternalServerError)
		return
	case apperrors.CodeUserNotFound, apperrors.CodeAccountNotFound, apperrors.CodeTransactionNotFound:
		status = http.StatusNotFound
	case apperrors.CodeAccountTransactionLock:
		status = http.StatusConflict
	case apperrors.CodeInvalidRequest:
		status = http.StatusBadRequest
	default:
		status = http.StatusUnprocessableEntity
	}

	var appErr *apperrors.Error
	errors.As(err, &appErr)
	render.CodedServiceError(w, string(code), appErr.Message, status)
}
