package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/richardliu001/bloglite/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Track names the outbox columns one consumer keeps its progress in.
type Track struct {
	Name        string
	Done        string
	DoneAt      string
	Retries     string
	LastAttempt string
	Error       string
}

var (
	// ProjectionTrack is drained by the read-model projector.
	ProjectionTrack = Track{
		Name: "projection", Done: "processed", DoneAt: "processed_at",
		Retries: "retries", LastAttempt: "last_attempt_at", Error: "error",
	}
	// RelayTrack is drained by the Kafka relay.
	RelayTrack = Track{
		Name: "relay", Done: "relayed", DoneAt: "relayed_at",
		Retries: "relay_retries", LastAttempt: "relay_last_attempt_at", Error: "relay_error",
	}
)

func (t Track) retriesOf(row model.OutboxEvent) int {
	if t.Name == RelayTrack.Name {
		return row.RelayRetries
	}
	return row.Retries
}

// Queue is the outbox seen through one Track.
type Queue struct {
	db    *gorm.DB
	track Track
}

// Queue returns the outbox view for track.
func (r *Repository) Queue(track Track) *Queue {
	return &Queue{db: r.db, track: track}
}

func (q *Queue) DB(ctx context.Context) *gorm.DB { return q.db.WithContext(ctx) }

func (q *Queue) Track() Track { return q.track }

// ClaimBatch locks up to limit pending rows inside tx, skipping rows another
// claimant holds. A row is only eligible when no older pending row exists for
// the same article, so one article's events are never applied out of order.
// Retries on the returned rows is this track's counter.
func (q *Queue) ClaimBatch(ctx context.Context, tx *gorm.DB, limit int) ([]model.OutboxEvent, error) {
	t := q.track
	var rows []model.OutboxEvent
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where(t.Done+" = ?", false).
		Where(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM outbox prev WHERE prev.aggregate_id = outbox.aggregate_id AND prev.%s = ? AND prev.id < outbox.id)", t.Done), false).
		Order("occurred_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	for i := range rows {
		rows[i].Retries = t.retriesOf(rows[i])
	}
	return rows, err
}

// MarkProcessed flags rows as done inside the batch transaction.
func (q *Queue) MarkProcessed(ctx context.Context, tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return tx.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{q.track.Done: true, q.track.DoneAt: &now, q.track.Error: nil}).Error
}

// RecordFailure does retry accounting for a failed row. Once the row has used
// maxRetries retries it is dead-lettered. It reports whether that happened.
func (q *Queue) RecordFailure(ctx context.Context, id uint64, maxRetries int, cause error) (bool, error) {
	t := q.track
	msg := cause.Error()
	deadLettered := false
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.OutboxEvent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		retries := t.retriesOf(row)
		now := time.Now().UTC()
		updates := map[string]interface{}{t.LastAttempt: &now, t.Error: &msg}
		if retries >= maxRetries {
			updates[t.Done] = true
			updates[t.DoneAt] = &now
			deadLettered = true
		} else {
			updates[t.Retries] = retries + 1
		}
		return tx.Model(&model.OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
	})
	return deadLettered, err
}

// DeadLetter retires a row that can never succeed.
func (q *Queue) DeadLetter(ctx context.Context, id uint64, cause error) error {
	t := q.track
	msg := cause.Error()
	now := time.Now().UTC()
	return q.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			t.Done:        true,
			t.DoneAt:      &now,
			t.LastAttempt: &now,
			t.Error:       &msg,
		}).Error
}

// The Repository methods below drive the projection track.

func (r *Repository) ClaimBatch(ctx context.Context, tx *gorm.DB, limit int) ([]model.OutboxEvent, error) {
	return r.Queue(ProjectionTrack).ClaimBatch(ctx, tx, limit)
}

func (r *Repository) MarkProcessed(ctx context.Context, tx *gorm.DB, ids []uint64) error {
	return r.Queue(ProjectionTrack).MarkProcessed(ctx, tx, ids)
}

func (r *Repository) RecordFailure(ctx context.Context, id uint64, maxRetries int, cause error) (bool, error) {
	return r.Queue(ProjectionTrack).RecordFailure(ctx, id, maxRetries, cause)
}

func (r *Repository) DeadLetter(ctx context.Context, id uint64, cause error) error {
	return r.Queue(ProjectionTrack).DeadLetter(ctx, id, cause)
}

// OutboxSummary describes the outbox backlog. The top-level counters are the
// projection track; the relay fields cover the Kafka relay.
type OutboxSummary struct {
	Pending           int64      `json:"pending"`
	Retrying          int64      `json:"retrying"`
	Processed         int64      `json:"processed"`
	DeadLettered      int64      `json:"dead_lettered"`
	OldestPending     *time.Time `json:"oldest_pending,omitempty"`
	RelayPending      int64      `json:"relay_pending"`
	RelayDeadLettered int64      `json:"relay_dead_lettered"`
}

func (r *Repository) OutboxSummary(ctx context.Context) (OutboxSummary, error) {
	var s OutboxSummary
	db := r.db.WithContext(ctx).Model(&model.OutboxEvent{})
	counts := []struct {
		dst   *int64
		query string
		args  []interface{}
	}{
		{&s.Pending, "processed = ?", []interface{}{false}},
		{&s.Retrying, "processed = ? AND retries > 0", []interface{}{false}},
		{&s.Processed, "processed = ? AND error IS NULL", []interface{}{true}},
		{&s.DeadLettered, "processed = ? AND error IS NOT NULL", []interface{}{true}},
		{&s.RelayPending, "relayed = ?", []interface{}{false}},
		{&s.RelayDeadLettered, "relayed = ? AND relay_error IS NOT NULL", []interface{}{true}},
	}
	for _, c := range counts {
		if err := db.Session(&gorm.Session{}).Where(c.query, c.args...).Count(c.dst).Error; err != nil {
			return s, err
		}
	}
	if s.Pending > 0 {
		var oldest model.OutboxEvent
		err := db.Session(&gorm.Session{}).Where("processed = ?", false).Order("occurred_at ASC").First(&oldest).Error
		if err != nil {
			return s, err
		}
		s.OldestPending = &oldest.OccurredAt
	}
	return s, nil
}
