package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockledger/stockledger/internal/catalog"
	"github.com/stockledger/stockledger/internal/warehouse"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]StockRecord
	writes  int
	scans   int
	failAll error
	allGate chan struct{}
}

func newMemStore(records ...StockRecord) *memStore {
	s := &memStore{records: make(map[string]StockRecord)}
	for _, rec := range records {
		s.records[rec.ArticleCode] = rec
	}
	return s
}

func (s *memStore) FindOne(ctx context.Context, articleID string) (StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[articleID]
	if !ok {
		return StockRecord{}, fmt.Errorf("%w: %s", ErrStockRecordNotFound, articleID)
	}
	return rec, nil
}

func (s *memStore) FindMany(ctx context.Context, articleIDs []string) ([]StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []StockRecord{}
	for _, id := range articleIDs {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) FindAll(ctx context.Context) ([]StockRecord, error) {
	s.mu.Lock()
	s.scans++
	fail := s.failAll
	gate := s.allGate
	out := make([]StockRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail != nil {
		return nil, fail
	}
	return out, nil
}

func (s *memStore) ApplyDelta(ctx context.Context, articleID string, field warehouse.Field, delta int64, floor bool, now time.Time) (FieldUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[articleID]
	if !ok {
		return FieldUpdate{}, fmt.Errorf("%w: %s", ErrStockRecordNotFound, articleID)
	}
	prev := rec.FieldValue(field)
	next := prev + delta
	if floor && next < 0 {
		next = 0
	}
	rec.SetFieldValue(field, next)
	rec.DateUpdated = now
	if field.Warehouse() == warehouse.BA {
		ts := now
		rec.DateUpdatedBA = &ts
	}
	s.records[articleID] = rec
	s.writes++
	return FieldUpdate{Previous: prev, Current: next, UpdatedAt: now}, nil
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) scanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans
}

type staticCatalog struct {
	mappings []catalog.Mapping
}

func (c staticCatalog) FetchArticleCodeMap(ctx context.Context) ([]catalog.Mapping, error) {
	return c.mappings, nil
}

func newTestService(store *memStore) *Service {
	resolver := catalog.NewResolver(staticCatalog{mappings: []catalog.Mapping{
		{Code: "FRI44420", ArticleID: "04768"},
		{Code: "FRI10001", ArticleID: "00123"},
	}})
	return NewService(store, resolver, nil)
}

func TestReserveByCode(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768", StockMDP: 4})
	svc := newTestService(store)

	res, err := svc.Reserve(context.Background(), MovementInput{ArticleCode: "FRI44420", Quantity: 5, Warehouse: "MDP"})
	require.NoError(t, err)
	require.Equal(t, "04768", res.ArticleCode)
	require.Equal(t, "stock_mdp", res.Field)
	require.Equal(t, "MDP", res.Warehouse)
	require.False(t, res.Pending)
	require.Equal(t, int64(5), res.Quantity)
	require.Equal(t, int64(4), res.PreviousValue)
	require.Equal(t, int64(9), res.NewValue)
	require.False(t, res.UpdatedAt.IsZero())
}

func TestReserveUnbounded(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768", StockGP: 1_000_000})
	svc := newTestService(store)

	res, err := svc.Reserve(context.Background(), MovementInput{ArticleID: "04768", Quantity: 2_000_000, Warehouse: "gp"})
	require.NoError(t, err)
	require.Equal(t, int64(3_000_000), res.NewValue)
}

func TestReleaseFloorsAtZero(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768", PendingBA: 4})
	svc := newTestService(store)

	res, err := svc.Release(context.Background(), MovementInput{ArticleID: "04768", Quantity: 10, Warehouse: "BA", Pending: true})
	require.NoError(t, err)
	require.Equal(t, "pending_ba", res.Field)
	require.True(t, res.Pending)
	require.Equal(t, int64(0), res.NewValue)
	require.Equal(t, int64(4), res.PreviousValue)
	// Requested quantity is echoed unchanged even when clamped.
	require.Equal(t, int64(10), res.Quantity)

	rec := store.records["04768"]
	require.Equal(t, int64(0), rec.PendingBA)
	require.NotNil(t, rec.DateUpdatedBA)
}

func TestReleaseExactDrain(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768", StockROS: 7})
	svc := newTestService(store)

	res, err := svc.Release(context.Background(), MovementInput{ArticleID: "04768", Quantity: 7, Warehouse: "ROS"})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.NewValue)
	require.Equal(t, int64(7), res.PreviousValue)
}

func TestMovementInvalidWarehouse(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768"})
	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), MovementInput{ArticleID: "04768", Quantity: 5, Warehouse: "XX"})
	require.ErrorIs(t, err, ErrInvalidWarehouse)
	require.Equal(t, 0, store.writeCount())
	require.Equal(t, "Invalid warehouse", DetailFor(err).Title)
}

func TestMovementMissingIdentifier(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), MovementInput{Quantity: 1, Warehouse: "MDP"})
	require.ErrorIs(t, err, ErrMissingIdentifier)
	require.Equal(t, 0, store.writeCount())
}

func TestMovementUnknownCode(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768"})
	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), MovementInput{ArticleCode: "NOPE", Quantity: 1, Warehouse: "MDP"})
	require.ErrorIs(t, err, catalog.ErrCodeNotFound)
	require.Equal(t, 0, store.writeCount())
}

func TestMovementCodePrecedence(t *testing.T) {
	store := newMemStore(
		StockRecord{ArticleCode: "04768"},
		StockRecord{ArticleCode: "00123"},
	)
	svc := newTestService(store)

	// Code wins over a simultaneously supplied identifier.
	res, err := svc.Reserve(context.Background(), MovementInput{ArticleID: "04768", ArticleCode: "FRI10001", Quantity: 3, Warehouse: "BA"})
	require.NoError(t, err)
	require.Equal(t, "00123", res.ArticleCode)
	require.Equal(t, int64(3), store.records["00123"].StockBA)
	require.Equal(t, int64(0), store.records["04768"].StockBA)
}

func TestMovementRecordNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Release(context.Background(), MovementInput{ArticleID: "99999", Quantity: 1, Warehouse: "GP"})
	require.ErrorIs(t, err, ErrStockRecordNotFound)
}

func TestMovementInvalidQuantity(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768"})
	svc := newTestService(store)

	for _, qty := range []int64{0, -5} {
		_, err := svc.Reserve(context.Background(), MovementInput{ArticleID: "04768", Quantity: qty, Warehouse: "MDP"})
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	require.Equal(t, 0, store.writeCount())
}

func TestGetByArticlesMixed(t *testing.T) {
	store := newMemStore(
		StockRecord{ArticleCode: "04768", StockMDP: 4},
		StockRecord{ArticleCode: "00123", StockBA: 2},
	)
	svc := newTestService(store)

	result, err := svc.GetByArticles(context.Background(), []string{"04768"}, []string{"FRI10001", "UNKNOWN_CODE"})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "Article code not found", result.Errors[0].Title)
}

func TestGetByArticlesOnlyUnknownCode(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	result, err := svc.GetByArticles(context.Background(), nil, []string{"UNKNOWN_CODE"})
	require.NoError(t, err)
	require.Empty(t, result.Records)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "Article code not found", result.Errors[0].Title)
}

func TestGetByArticlesDeduplicates(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768"})
	svc := newTestService(store)

	// FRI44420 resolves to 04768, already supplied directly.
	result, err := svc.GetByArticles(context.Background(), []string{"04768", "04768"}, []string{"FRI44420"})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Empty(t, result.Errors)
}

func TestGetByArticle(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768", StockBA: 11})
	svc := newTestService(store)

	rec, err := svc.GetByArticle(context.Background(), "04768")
	require.NoError(t, err)
	require.Equal(t, int64(11), rec.StockBA)

	_, err = svc.GetByArticle(context.Background(), "99999")
	require.ErrorIs(t, err, ErrStockRecordNotFound)

	_, err = svc.GetByArticle(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestGetAllWithoutCacheScansEveryCall(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768"})
	svc := newTestService(store)

	_, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	_, err = svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, store.scans)
}

func TestGetAllConcurrentMissesShareOneScan(t *testing.T) {
	store := newMemStore(StockRecord{ArticleCode: "04768"})
	store.allGate = make(chan struct{})
	svc := newTestService(store)
	ctx := context.Background()

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	counts := make(chan int, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := svc.GetAll(ctx)
			errs <- err
			counts <- len(records)
		}()
	}

	// Let every reader join the in-flight scan before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(store.allGate)
	wg.Wait()
	close(errs)
	close(counts)

	for err := range errs {
		require.NoError(t, err)
	}
	for n := range counts {
		require.Equal(t, 1, n)
	}
	require.Equal(t, 1, store.scanCount())
}

func TestGetAllStoreFaultPropagates(t *testing.T) {
	store := newMemStore()
	store.failAll = errors.New("connection refused")
	svc := newTestService(store)

	_, err := svc.GetAll(context.Background())
	require.ErrorIs(t, err, store.failAll)
}
