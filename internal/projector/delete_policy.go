package projector

import (
	"context"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/model"
	"gorm.io/gorm"
)

// DeletePolicy removes the aggregate row of a deleted article once the
// deletion event is being handled. A second delete is a no-op.
type DeletePolicy struct{}

func (DeletePolicy) Register(reg *dispatcher.Registry) {
	dispatcher.On(reg, DeletePolicy{}.Deleted)
}

func (DeletePolicy) Deleted(ctx context.Context, tx *gorm.DB, _ dispatcher.Envelope, ev article.Deleted) error {
	return tx.WithContext(ctx).
		Where("id = ? AND state = ?", ev.ID, int(article.StateDeleted)).
		Delete(&model.Article{}).Error
}
