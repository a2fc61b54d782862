package ledger

import (
	"errors"

	"github.com/stockledger/stockledger/internal/catalog"
)

// ErrorDetail is the reportable error shape surfaced to API consumers.
type ErrorDetail struct {
	Source string `json:"source,omitempty"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// DetailFor maps a ledger error to its reportable detail. Unknown errors map
// to a generic internal detail so collaborator faults never leak internals.
func DetailFor(err error) ErrorDetail {
	switch {
	case errors.Is(err, ErrMissingIdentifier):
		return ErrorDetail{Source: "article", Title: "Missing identifier", Detail: "either articleId or articleCode is required"}
	case errors.Is(err, catalog.ErrCodeNotFound):
		return ErrorDetail{Source: "articleCode", Title: "Article code not found", Detail: err.Error()}
	case errors.Is(err, ErrInvalidWarehouse):
		return ErrorDetail{Source: "warehouse", Title: "Invalid warehouse", Detail: err.Error()}
	case errors.Is(err, ErrStockRecordNotFound):
		return ErrorDetail{Source: "article", Title: "Stock record not found", Detail: err.Error()}
	case errors.Is(err, ErrInvalidQuantity):
		return ErrorDetail{Source: "quantity", Title: "Invalid quantity", Detail: err.Error()}
	}
	return ErrorDetail{Title: "Internal error", Detail: "operation could not be completed"}
}

// Reportable reports whether the error belongs to the recoverable taxonomy.
// Anything else is a collaborator fault and fails the operation outright.
func Reportable(err error) bool {
	return errors.Is(err, ErrMissingIdentifier) ||
		errors.Is(err, catalog.ErrCodeNotFound) ||
		errors.Is(err, ErrInvalidWarehouse) ||
		errors.Is(err, ErrStockRecordNotFound) ||
		errors.Is(err, ErrInvalidQuantity)
}
