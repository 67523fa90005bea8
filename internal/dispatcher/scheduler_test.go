package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/logger"
	"github.com/richardliu001/bloglite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestScheduler_StopLetsRunningBatchCommit(t *testing.T) {
	reg := NewRegistry()
	started := make(chan struct{})
	var once sync.Once
	On(reg, func(ctx context.Context, tx *gorm.DB, _ Envelope, ev article.StateChanged) error {
		once.Do(func() { close(started) })
		time.Sleep(300 * time.Millisecond)
		return tx.WithContext(ctx).Create(&model.Category{ID: ev.ID, DisplayName: "projected"}).Error
	})
	d, db := newTestDispatcher(t, reg, Config{BatchSize: 10, MaxRetries: 3})
	row := enqueue(t, db, article.StateChanged{ID: "a", State: article.StatePublic})

	s, err := NewScheduler(time.Second, logger.Nop(), d)
	require.NoError(t, err)

	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("tick never started")
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))

	assert.True(t, load(t, db, row.ID).Processed)
	var projected int64
	db.Model(&model.Category{}).Where("id = ?", "a").Count(&projected)
	assert.Equal(t, int64(1), projected)
}

func TestDrain_StopsBetweenBatches(t *testing.T) {
	reg := NewRegistry()
	stop := make(chan struct{})
	calls := 0
	On(reg, func(context.Context, *gorm.DB, Envelope, article.Deleted) error {
		calls++
		if calls == 1 {
			close(stop)
		}
		return nil
	})
	d, db := newTestDispatcher(t, reg, Config{BatchSize: 1, MaxRetries: 3, MaxBatchesPerTick: 10})
	first := enqueue(t, db, article.Deleted{ID: "a"})
	second := enqueue(t, db, article.Deleted{ID: "b"})

	require.NoError(t, d.Drain(context.Background(), stop))
	assert.Equal(t, 1, calls)
	assert.True(t, load(t, db, first.ID).Processed)
	assert.False(t, load(t, db, second.ID).Processed)
}

func TestNewScheduler_Validation(t *testing.T) {
	d, _ := newTestDispatcher(t, NewRegistry(), Config{})
	_, err := NewScheduler(0, logger.Nop(), d)
	assert.Error(t, err)
	_, err = NewScheduler(time.Second, logger.Nop())
	assert.Error(t, err)
}
