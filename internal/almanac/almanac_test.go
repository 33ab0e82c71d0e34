package almanac

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunarcal/internal/astro"
	"github.com/zapponejosh/lunarcal/internal/database"
)

// memStore is an in-memory Store that counts calls.
type memStore struct {
	mu     sync.Mutex
	years  map[int]*database.AlmanacYear
	gets   int
	saves  int
	getErr error
}

func newMemStore() *memStore {
	return &memStore{years: make(map[int]*database.AlmanacYear)}
}

func (m *memStore) GetAlmanacYear(_ context.Context, year int, version string) (*database.AlmanacYear, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	y, ok := m.years[year]
	if !ok || y.ModelVersion != version {
		return nil, database.ErrNotFound
	}
	return y, nil
}

func (m *memStore) SaveAlmanacYear(_ context.Context, y *database.AlmanacYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.years[y.Year] = y
	return nil
}

func (m *memStore) DeleteStaleAlmanac(_ context.Context, version string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, y := range m.years {
		if y.ModelVersion != version {
			delete(m.years, k)
			n++
		}
	}
	return n, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompute(t *testing.T) {
	y := Compute(2025)

	assert.Equal(t, 2025, y.Year)
	assert.Equal(t, astro.ModelVersion, y.ModelVersion)
	assert.Equal(t, 6, y.LeapMonth)
	require.Len(t, y.Terms, 25)
	assert.Equal(t, "winter_solstice", y.Terms[0].Name)
	assert.Equal(t, 2024, y.Terms[0].Date.Year())
	assert.Equal(t, "winter_solstice", y.Terms[24].Name)
	assert.Equal(t, 2025, y.Terms[24].Date.Year())

	assert.Zero(t, Compute(2024).LeapMonth)
}

func TestCheckYear(t *testing.T) {
	assert.NoError(t, CheckYear(1901))
	assert.NoError(t, CheckYear(2099))
	assert.ErrorIs(t, CheckYear(1900), ErrYearOutOfRange)
	assert.ErrorIs(t, CheckYear(2100), ErrYearOutOfRange)
}

func TestService_Year_CachesOnMiss(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, quietLogger())
	ctx := context.Background()

	first, cached, err := svc.Year(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, store.saves)

	second, cached, err := svc.Year(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, first.Terms, second.Terms)
}

func TestService_Year_StaleModelRecomputed(t *testing.T) {
	store := newMemStore()
	store.years[2024] = &database.AlmanacYear{Year: 2024, ModelVersion: "old"}
	svc := NewService(store, quietLogger())

	y, cached, err := svc.Year(context.Background(), 2024)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, astro.ModelVersion, y.ModelVersion)
}

func TestService_Year_StoreError(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk on fire")
	svc := NewService(store, quietLogger())

	_, _, err := svc.Year(context.Background(), 2024)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestService_Year_NoStore(t *testing.T) {
	svc := NewService(nil, nil)

	y, cached, err := svc.Year(context.Background(), 2023)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, y.LeapMonth)
}

func TestService_Year_OutOfRange(t *testing.T) {
	svc := NewService(newMemStore(), quietLogger())
	_, _, err := svc.Year(context.Background(), 1850)
	assert.ErrorIs(t, err, ErrYearOutOfRange)
}

func TestService_Year_ConcurrentMissComputesOnce(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Year(context.Background(), 2030)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.saves)
}

func TestService_Prewarm(t *testing.T) {
	store := newMemStore()
	store.years[1950] = &database.AlmanacYear{Year: 1950, ModelVersion: "old"}
	svc := NewService(store, quietLogger())
	ctx := context.Background()

	_, _, err := svc.Year(ctx, 2024)
	require.NoError(t, err)

	res, err := svc.Prewarm(ctx, 2023, 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Computed)
	assert.Equal(t, 1, res.Cached)
	assert.EqualValues(t, 1, res.Purged)
	assert.Len(t, store.years, 4)
}

func TestService_Prewarm_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(nil, quietLogger()).Prewarm(ctx, 2024, 2024)
	assert.Error(t, err)

	_, err = NewService(newMemStore(), quietLogger()).Prewarm(ctx, 1800, 2024)
	assert.ErrorIs(t, err, ErrYearOutOfRange)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewService(newMemStore(), quietLogger()).Prewarm(cancelled, 2024, 2025)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Year_SQLiteStore(t *testing.T) {
	db, err := database.Open(database.Config{
		Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour,
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Migrate(context.Background())
	require.NoError(t, err)

	svc := NewService(db, quietLogger())
	want, cached, err := svc.Year(context.Background(), 2017)
	require.NoError(t, err)
	assert.False(t, cached)

	got, cached, err := svc.Year(context.Background(), 2017)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 6, got.LeapMonth)
	for i := range want.Terms {
		assert.True(t, want.Terms[i].Date.Equal(got.Terms[i].Date), "term %d", i)
	}
}
