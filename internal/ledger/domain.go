package ledger

import (
	"errors"
	"time"

	"github.com/stockledger/stockledger/internal/warehouse"
)

var (
	// ErrMissingIdentifier indicates neither article id nor code was supplied.
	ErrMissingIdentifier = errors.New("article identifier missing")
	// ErrInvalidWarehouse indicates the warehouse code is outside the fixed set.
	ErrInvalidWarehouse = errors.New("invalid warehouse")
	// ErrStockRecordNotFound indicates no stock row exists for the identifier.
	ErrStockRecordNotFound = errors.New("stock record not found")
	// ErrInvalidQuantity indicates a non-positive movement quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// StockRecord is the per-article counter ledger row. ArticleCode holds the
// internal identifier used as primary key; the external alias lives in the
// catalog, not here. All eight counters stay non-negative.
type StockRecord struct {
	ArticleCode   string     `json:"article_code"`
	StockMDP      int64      `json:"stock_mdp"`
	StockBA       int64      `json:"stock_ba"`
	StockGP       int64      `json:"stock_gp"`
	StockROS      int64      `json:"stock_ros"`
	PendingMDP    int64      `json:"pending_mdp"`
	PendingBA     int64      `json:"pending_ba"`
	PendingGP     int64      `json:"pending_gp"`
	PendingROS    int64      `json:"pending_ros"`
	DateCreated   time.Time  `json:"date_created"`
	DateUpdated   time.Time  `json:"date_updated"`
	DateUpdatedBA *time.Time `json:"date_updated_ba,omitempty"`
}

// FieldValue returns the counter held in the given slot.
func (r StockRecord) FieldValue(f warehouse.Field) int64 {
	switch f {
	case warehouse.FieldStockMDP:
		return r.StockMDP
	case warehouse.FieldStockBA:
		return r.StockBA
	case warehouse.FieldStockGP:
		return r.StockGP
	case warehouse.FieldStockROS:
		return r.StockROS
	case warehouse.FieldPendingMDP:
		return r.PendingMDP
	case warehouse.FieldPendingBA:
		return r.PendingBA
	case warehouse.FieldPendingGP:
		return r.PendingGP
	case warehouse.FieldPendingROS:
		return r.PendingROS
	}
	return 0
}

// SetFieldValue stores a counter into the given slot.
func (r *StockRecord) SetFieldValue(f warehouse.Field, v int64) {
	switch f {
	case warehouse.FieldStockMDP:
		r.StockMDP = v
	case warehouse.FieldStockBA:
		r.StockBA = v
	case warehouse.FieldStockGP:
		r.StockGP = v
	case warehouse.FieldStockROS:
		r.StockROS = v
	case warehouse.FieldPendingMDP:
		r.PendingMDP = v
	case warehouse.FieldPendingBA:
		r.PendingBA = v
	case warehouse.FieldPendingGP:
		r.PendingGP = v
	case warehouse.FieldPendingROS:
		r.PendingROS = v
	}
}

// MovementInput describes a reserve or release request. Exactly one of
// ArticleID/ArticleCode is expected; the code wins when both are present.
type MovementInput struct {
	ArticleID   string
	ArticleCode string
	Quantity    int64
	Warehouse   string
	Pending     bool
}

// MovementResult reports the outcome of a reserve or release.
type MovementResult struct {
	ArticleCode   string    `json:"article_code"`
	Field         string    `json:"field"`
	Warehouse     string    `json:"warehouse"`
	Pending       bool      `json:"pending"`
	Quantity      int64     `json:"quantity"`
	PreviousValue int64     `json:"previous_value"`
	NewValue      int64     `json:"new_value"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ArticleQueryResult carries batch read output. Records and Errors may both
// be populated: unresolved codes never abort the rest of the lookup.
type ArticleQueryResult struct {
	Records []StockRecord `json:"data"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}
