package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockledger/stockledger/internal/warehouse"
)

// Counter columns are seeded externally and may be NULL; reads normalise
// them to zero, matching the default applied by movements.
const stockColumns = `article_code,
COALESCE(stock_mdp,0), COALESCE(stock_ba,0), COALESCE(stock_gp,0), COALESCE(stock_ros,0),
COALESCE(pending_mdp,0), COALESCE(pending_ba,0), COALESCE(pending_gp,0), COALESCE(pending_ros,0),
date_created, date_updated, date_updated_ba`

// Repository persists the stock ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindOne returns the stock record for one article identifier.
func (r *Repository) FindOne(ctx context.Context, articleID string) (StockRecord, error) {
	if r == nil || r.pool == nil {
		return StockRecord{}, errors.New("ledger repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock WHERE article_code=$1`, articleID)
	rec, err := scanStockRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockRecord{}, fmt.Errorf("%w: %s", ErrStockRecordNotFound, articleID)
		}
		return StockRecord{}, err
	}
	return rec, nil
}

// FindMany returns the stock records for a set of article identifiers.
// Unknown identifiers are simply absent from the result.
func (r *Repository) FindMany(ctx context.Context, articleIDs []string) ([]StockRecord, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	if len(articleIDs) == 0 {
		return []StockRecord{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+stockColumns+` FROM stock WHERE article_code = ANY($1) ORDER BY article_code`, articleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStockRecords(rows)
}

// FindAll scans the whole stock table in primary key order.
func (r *Repository) FindAll(ctx context.Context) ([]StockRecord, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+stockColumns+` FROM stock ORDER BY article_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStockRecords(rows)
}

// ApplyDelta adds delta to one counter in a single statement. With floor the
// result clamps at zero. The previous value is read under FOR UPDATE inside
// the same statement, so concurrent movements serialise on the row and no
// update can be lost. ErrStockRecordNotFound when the identifier has no row.
func (r *Repository) ApplyDelta(ctx context.Context, articleID string, field warehouse.Field, delta int64, floor bool, now time.Time) (FieldUpdate, error) {
	if r == nil || r.pool == nil {
		return FieldUpdate{}, errors.New("ledger repository not initialised")
	}
	col := field.Column()
	if col == "" {
		return FieldUpdate{}, fmt.Errorf("%w: field %d", ErrInvalidWarehouse, field)
	}
	next := fmt.Sprintf("COALESCE(s.%s,0) + $2", col)
	if floor {
		next = fmt.Sprintf("GREATEST(0, %s)", next)
	}
	touchBA := ""
	if field.Warehouse() == warehouse.BA {
		touchBA = ", date_updated_ba = $3"
	}
	query := fmt.Sprintf(`WITH prev AS (
	SELECT article_code, COALESCE(%[1]s,0) AS value
	FROM stock WHERE article_code = $1 FOR UPDATE
)
UPDATE stock s
SET %[1]s = %[2]s, date_updated = $3%[3]s
FROM prev
WHERE s.article_code = prev.article_code
RETURNING prev.value, s.%[1]s`, col, next, touchBA)

	var update FieldUpdate
	err := r.pool.QueryRow(ctx, query, articleID, delta, now).Scan(&update.Previous, &update.Current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FieldUpdate{}, fmt.Errorf("%w: %s", ErrStockRecordNotFound, articleID)
		}
		return FieldUpdate{}, err
	}
	update.UpdatedAt = now
	return update, nil
}

func scanStockRecord(row pgx.Row) (StockRecord, error) {
	var rec StockRecord
	err := row.Scan(
		&rec.ArticleCode,
		&rec.StockMDP, &rec.StockBA, &rec.StockGP, &rec.StockROS,
		&rec.PendingMDP, &rec.PendingBA, &rec.PendingGP, &rec.PendingROS,
		&rec.DateCreated, &rec.DateUpdated, &rec.DateUpdatedBA,
	)
	return rec, err
}

func collectStockRecords(rows pgx.Rows) ([]StockRecord, error) {
	records := []StockRecord{}
	for rows.Next() {
		rec, err := scanStockRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
