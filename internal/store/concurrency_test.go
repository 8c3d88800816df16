package store

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appliance-alarm-backend/internal/db"
	"appliance-alarm-backend/internal/model"
)

// newPooledSQLiteStore opens a file database shared by several connections.
// Write transactions take the lock at BEGIN and wait for each other.
func newPooledSQLiteStore(t *testing.T, opts ...Option) Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "alarms.db") +
		"?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return NewGormStore(gormDB, zap.NewNop(), opts...)
}

// assertReadIsPrefixClosed checks a newest-first history: once a read
// alarm is seen, every older alarm is read too.
func assertReadIsPrefixClosed(t *testing.T, views []AlarmView) {
	t.Helper()
	seenRead := false
	for i, v := range views {
		if v.Read {
			seenRead = true
			continue
		}
		if seenRead {
			t.Errorf("alarm %d (value %.0f) is unread but older than a read alarm", i, v.Value)
		}
	}
}

func TestGormStore_ConcurrentAppendAndMarkAllRead(t *testing.T) {
	const (
		appenders = 40
		ackers    = 8
	)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	s := newPooledSQLiteStore(t, WithClock(func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Millisecond)
	}))
	ctx := context.Background()
	user := seedUser(t, s, model.Thresholds{"temperature": 30})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results [][]AlarmView
	)
	start := make(chan struct{})

	for i := 0; i < appenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			outcome, err := s.Append(ctx, user.ID, model.Alarm{
				Device: "fridge-1", Type: "temperature", Threshold: 30, Value: float64(100 + i),
			})
			assert.NoError(t, err)
			assert.Equal(t, Applied, outcome)
		}(i)
	}
	for i := 0; i < ackers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			views, err := s.MarkAllRead(ctx, user.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			results = append(results, views)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	for _, views := range results {
		assertReadIsPrefixClosed(t, views)
	}

	views, err := s.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, appenders)
	assertReadIsPrefixClosed(t, views)

	values := make(map[float64]bool, appenders)
	for _, v := range views {
		values[v.Value] = true
	}
	assert.Len(t, values, appenders, "no alarm lost or duplicated")

	views, err = s.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, appenders)
	for _, v := range views {
		assert.True(t, v.Read)
	}
}
