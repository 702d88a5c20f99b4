package httppresentation

import (
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domproduct "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	domshop "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
	domwallet "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
)

var statusByError = []struct {
	err    error
	status int
}{
	{domproduct.ErrNotFound, http.StatusNotFound},
	{domshop.ErrNotFound, http.StatusNotFound},

	{domproduct.ErrDuplicateID, http.StatusConflict},
	{domshop.ErrDuplicateID, http.StatusConflict},

	{domproduct.ErrUnauthorized, http.StatusForbidden},

	{domproduct.ErrInsufficientFunds, http.StatusPaymentRequired},
	{domwallet.ErrInsufficientBalance, http.StatusPaymentRequired},

	{domproduct.ErrInsufficientStock, http.StatusUnprocessableEntity},
	{domproduct.ErrOverflow, http.StatusUnprocessableEntity},
	{domproduct.ErrNotForSale, http.StatusUnprocessableEntity},
	{domproduct.ErrSupplyTooLarge, http.StatusUnprocessableEntity},
	{money.ErrOverflow, http.StatusUnprocessableEntity},

	{application.ErrValidation, http.StatusBadRequest},
	{domproduct.ErrInvalidID, http.StatusBadRequest},
	{domproduct.ErrInvalidOwner, http.StatusBadRequest},
	{domproduct.ErrInvalidPrice, http.StatusBadRequest},
	{domproduct.ErrInvalidQuantity, http.StatusBadRequest},
	{domshop.ErrInvalidID, http.StatusBadRequest},
	{domshop.ErrInvalidOwner, http.StatusBadRequest},
	{domwallet.ErrInvalidOwner, http.StatusBadRequest},
	{domwallet.ErrInvalidAmount, http.StatusBadRequest},
	{money.ErrInvalid, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}
