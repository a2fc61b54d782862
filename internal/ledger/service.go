package ledger

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stockledger/stockledger/internal/warehouse"
)

const allStockKey = "stock:all"

// Store is the persistence boundary the ledger requires. ApplyDelta performs
// the whole read-modify-write as one atomic statement so concurrent movements
// against the same field cannot lose updates.
type Store interface {
	FindOne(ctx context.Context, articleID string) (StockRecord, error)
	FindMany(ctx context.Context, articleIDs []string) ([]StockRecord, error)
	FindAll(ctx context.Context) ([]StockRecord, error)
	ApplyDelta(ctx context.Context, articleID string, field warehouse.Field, delta int64, floor bool, now time.Time) (FieldUpdate, error)
}

// FieldUpdate reports the counter transition produced by ApplyDelta.
type FieldUpdate struct {
	Previous  int64
	Current   int64
	UpdatedAt time.Time
}

// CodeResolver resolves external article codes to ledger identifiers.
type CodeResolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// Service implements the stock ledger operations: reserve, release and the
// single, batch and aggregate reads.
type Service struct {
	store    Store
	resolver CodeResolver
	cache    *Cache
	now      func() time.Time

	scans singleflight.Group
}

// NewService builds Service. cache may be nil; reads then always hit the store.
func NewService(store Store, resolver CodeResolver, cache *Cache) *Service {
	return &Service{store: store, resolver: resolver, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// Reserve increases a warehouse counter by the requested quantity. The
// counter grows unbounded; no ceiling applies.
func (s *Service) Reserve(ctx context.Context, input MovementInput) (MovementResult, error) {
	return s.move(ctx, input, false)
}

// Release decreases a warehouse counter, flooring at zero. The requested
// quantity is echoed back even when the floor clamps the applied delta;
// callers detect clamping by comparing PreviousValue and NewValue.
func (s *Service) Release(ctx context.Context, input MovementInput) (MovementResult, error) {
	return s.move(ctx, input, true)
}

func (s *Service) move(ctx context.Context, input MovementInput, release bool) (MovementResult, error) {
	if input.Quantity <= 0 {
		return MovementResult{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, input.Quantity)
	}
	articleID, err := s.operativeID(ctx, input)
	if err != nil {
		return MovementResult{}, err
	}
	field, ok := warehouse.ResolveField(input.Warehouse, input.Pending)
	if !ok {
		return MovementResult{}, fmt.Errorf("%w: %s", ErrInvalidWarehouse, input.Warehouse)
	}
	delta := input.Quantity
	if release {
		delta = -delta
	}
	update, err := s.store.ApplyDelta(ctx, articleID, field, delta, release, s.now())
	if err != nil {
		return MovementResult{}, err
	}
	return MovementResult{
		ArticleCode:   articleID,
		Field:         field.Column(),
		Warehouse:     string(field.Warehouse()),
		Pending:       field.Pending(),
		Quantity:      input.Quantity,
		PreviousValue: update.Previous,
		NewValue:      update.Current,
		UpdatedAt:     update.UpdatedAt,
	}, nil
}

// operativeID picks the article identifier for a movement. The code branch
// takes precedence when both fields are supplied; an identifier given
// directly is trusted and validated by the store lookup that follows.
func (s *Service) operativeID(ctx context.Context, input MovementInput) (string, error) {
	if input.ArticleCode != "" {
		return s.resolver.Resolve(ctx, input.ArticleCode)
	}
	if input.ArticleID != "" {
		return input.ArticleID, nil
	}
	return "", ErrMissingIdentifier
}

// GetByArticle returns the record for a single article identifier.
func (s *Service) GetByArticle(ctx context.Context, articleID string) (StockRecord, error) {
	if articleID == "" {
		return StockRecord{}, ErrMissingIdentifier
	}
	return s.store.FindOne(ctx, articleID)
}

// GetByArticles looks up records for a mix of identifiers and codes. Codes
// that fail to resolve accumulate as reportable errors while the remaining
// identifiers are still queried in one batch.
func (s *Service) GetByArticles(ctx context.Context, articleIDs, articleCodes []string) (ArticleQueryResult, error) {
	result := ArticleQueryResult{Records: []StockRecord{}}
	seen := make(map[string]struct{}, len(articleIDs)+len(articleCodes))
	ids := make([]string, 0, len(articleIDs)+len(articleCodes))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range articleIDs {
		add(id)
	}
	for _, code := range articleCodes {
		if code == "" {
			continue
		}
		id, err := s.resolver.Resolve(ctx, code)
		if err != nil {
			if !Reportable(err) {
				return ArticleQueryResult{}, err
			}
			result.Errors = append(result.Errors, DetailFor(err))
			continue
		}
		add(id)
	}
	if len(ids) == 0 {
		return result, nil
	}
	records, err := s.store.FindMany(ctx, ids)
	if err != nil {
		return ArticleQueryResult{}, err
	}
	result.Records = records
	return result, nil
}

// GetAll returns the full ledger snapshot through the aggregate cache.
// Within the TTL window repeat calls serve the cached snapshot; a miss runs
// exactly one store scan per process thanks to singleflight.
func (s *Service) GetAll(ctx context.Context) ([]StockRecord, error) {
	v, err, _ := s.scans.Do(allStockKey, func() (interface{}, error) {
		records := []StockRecord{}
		load := func(ctx context.Context) (interface{}, error) {
			return s.store.FindAll(ctx)
		}
		if s.cache == nil {
			all, err := s.store.FindAll(ctx)
			return all, err
		}
		if err := s.cache.Fetch(ctx, allStockKey, &records, load); err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]StockRecord), nil
}

// RefreshAll scans the store and overwrites the aggregate cache with a fresh
// snapshot, restarting the TTL window. Used by the warmup job so the first
// reader after expiry does not pay for the scan.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	records, err := s.store.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Put(ctx, allStockKey, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
