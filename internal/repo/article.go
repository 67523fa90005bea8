package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindArticle loads the aggregate by id, deleted ones included.
func (r *Repository) FindArticle(ctx context.Context, id string) (*article.Article, error) {
	var row model.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	history, err := DecodeHistory(row.VersionHistory)
	if err != nil {
		return nil, fmt.Errorf("article %s: %w", row.ID, err)
	}
	return article.Restore(row.ID, row.Slug, row.Author, row.CategoryID, article.State(row.State), history, row.Revision), nil
}

// SlugTaken reports whether a live article already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Article{}).
		Where("slug = ? AND state <> ?", slug, int(article.StateDeleted)).
		Count(&n).Error
	return n > 0, err
}

// SaveAll writes the aggregate row and appends one outbox row per event in a
// single transaction. A fresh aggregate (revision 0) is inserted; otherwise the
// row is updated only if its revision is unchanged.
func (r *Repository) SaveAll(ctx context.Context, a *article.Article, events ...article.Event) error {
	history, err := EncodeHistory(a.History())
	if err != nil {
		return err
	}
	rows, err := outboxRows(events, time.Now().UTC())
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveArticle(tx, a, history); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func saveArticle(tx *gorm.DB, a *article.Article, history string) error {
	if a.Revision() == 0 {
		err := tx.Create(&model.Article{
			ID:             a.ID(),
			Slug:           a.Slug(),
			Author:         a.Author(),
			CategoryID:     a.Category(),
			State:          int(a.State()),
			VersionHistory: history,
			Revision:       1,
		}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %q", ErrSlugTaken, a.Slug())
		}
		return err
	}

	res := tx.Model(&model.Article{}).
		Where("id = ? AND revision = ?", a.ID(), a.Revision()).
		Updates(map[string]interface{}{
			"category_id":     a.Category(),
			"state":           int(a.State()),
			"version_history": history,
			"revision":        a.Revision() + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func outboxRows(events []article.Event, now time.Time) ([]model.OutboxEvent, error) {
	rows := make([]model.OutboxEvent, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev.Topic(), err)
		}
		rows = append(rows, model.OutboxEvent{
			EventID:     uuid.NewString(),
			AggregateID: ev.AggregateID(),
			Topic:       ev.Topic(),
			Payload:     string(payload),
			OccurredAt:  now,
		})
	}
	return rows, nil
}

// CategoryExists checks the categories table.
func (r *Repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *Repository) Categories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := r.db.WithContext(ctx).Order("id").Find(&cats).Error
	return cats, err
}

// UpsertCategories inserts categories or refreshes their display names.
func (r *Repository) UpsertCategories(ctx context.Context, cats []model.Category) error {
	if len(cats) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name"}),
		}).
		Create(&cats).Error
}
