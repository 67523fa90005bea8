package dispatcher

import (
	"context"
	"errors"

	"github.com/richardliu001/bloglite/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the part of the repository the dispatcher drives.
type Store interface {
	DB(ctx context.Context) *gorm.DB
	ClaimBatch(ctx context.Context, tx *gorm.DB, limit int) ([]model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, ids []uint64) error
	RecordFailure(ctx context.Context, id uint64, maxRetries int, cause error) (bool, error)
	DeadLetter(ctx context.Context, id uint64, cause error) error
}

type Config struct {
	// Name tags log lines, e.g. "projection" or "relay".
	Name              string
	BatchSize         int
	MaxRetries        int
	MaxBatchesPerTick int
}

// Dispatcher drains the outbox into the registered handlers.
type Dispatcher struct {
	store    Store
	registry *Registry
	cfg      Config
	log      *zap.SugaredLogger
}

func New(store Store, registry *Registry, cfg Config, log *zap.SugaredLogger) *Dispatcher {
	if cfg.Name == "" {
		cfg.Name = "projection"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxBatchesPerTick <= 0 {
		cfg.MaxBatchesPerTick = 1
	}
	return &Dispatcher{store: store, registry: registry, cfg: cfg, log: log}
}

// rowError ties a handler failure to the row that caused it.
type rowError struct {
	row model.OutboxEvent
	err error
}

func (e *rowError) Error() string { return e.err.Error() }
func (e *rowError) Unwrap() error { return e.err }

// ProcessBatch claims one batch and handles it in a single transaction. The
// first failing row aborts the batch: everything is rolled back and only that
// row is charged a retry. It returns how many rows were marked processed.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := d.store.DB(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := d.store.ClaimBatch(ctx, tx, d.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(rows))
		for _, row := range rows {
			if err := d.registry.Dispatch(ctx, tx, envelopeOf(row), []byte(row.Payload)); err != nil {
				return &rowError{row: row, err: err}
			}
			ids = append(ids, row.ID)
		}
		if err := d.store.MarkProcessed(ctx, tx, ids); err != nil {
			return err
		}
		processed = len(ids)
		return nil
	})

	var re *rowError
	if errors.As(err, &re) {
		d.handleFailure(ctx, re.row, re.err)
		return 0, re.err
	}
	if err != nil {
		d.log.Errorf("outbox %s batch: %v", d.cfg.Name, err)
		return 0, err
	}
	return processed, nil
}

// handleFailure runs after the batch rolled back, so its writes survive.
func (d *Dispatcher) handleFailure(ctx context.Context, row model.OutboxEvent, cause error) {
	if isPoison(cause) {
		if err := d.store.DeadLetter(ctx, row.ID, cause); err != nil {
			d.log.Errorw("dead-letter failed", "consumer", d.cfg.Name, "eid", row.EventID, "topic", row.Topic, "error", err)
			return
		}
		d.log.Errorw("poison event dead-lettered", "consumer", d.cfg.Name, "eid", row.EventID, "topic", row.Topic, "article_id", row.AggregateID, "error", cause)
		return
	}

	dead, err := d.store.RecordFailure(ctx, row.ID, d.cfg.MaxRetries, cause)
	if err != nil {
		d.log.Errorw("retry accounting failed", "consumer", d.cfg.Name, "eid", row.EventID, "topic", row.Topic, "error", err)
		return
	}
	if dead {
		d.log.Errorw("event dead-lettered after retries", "consumer", d.cfg.Name, "eid", row.EventID, "topic", row.Topic,
			"article_id", row.AggregateID, "retries", row.Retries, "error", cause)
		return
	}
	d.log.Warnw("event failed, will retry", "consumer", d.cfg.Name, "eid", row.EventID, "topic", row.Topic,
		"article_id", row.AggregateID, "attempt", row.Retries+1, "error", cause)
}

// Tick drains batches until nothing is claimable, a batch fails, or the
// per-tick batch limit is reached.
func (d *Dispatcher) Tick(ctx context.Context) error {
	return d.Drain(ctx, nil)
}

// Drain is Tick that also stops between batches once stop is closed. The
// batch in flight always runs to completion.
func (d *Dispatcher) Drain(ctx context.Context, stop <-chan struct{}) error {
	total := 0
	defer func() {
		if total > 0 {
			d.log.Infow("outbox drained", "consumer", d.cfg.Name, "processed", total)
		}
	}()
	for i := 0; i < d.cfg.MaxBatchesPerTick; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-stop:
			return nil
		default:
		}
		n, err := d.ProcessBatch(ctx)
		total += n
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}
