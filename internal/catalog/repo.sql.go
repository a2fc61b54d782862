package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the article catalog from PostgreSQL. The catalog table is
// owned by an external system; this adapter only performs the snapshot read.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchArticleCodeMap returns every code to identifier pair in one batch.
func (r *Repository) FetchArticleCodeMap(ctx context.Context) ([]Mapping, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT code, article_id FROM article_catalog`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	mappings := []Mapping{}
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.Code, &m.ArticleID); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mappings, nil
}
