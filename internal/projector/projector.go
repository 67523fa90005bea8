package projector

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMissingRow is returned when an event targets a read row that does not exist.
var ErrMissingRow = errors.New("read model row missing")

// Projector keeps articles_rm and article_versions_rm in step with the
// event stream. Every projection is an idempotent upsert or narrow update
// on the dispatcher's transaction.
type Projector struct {
	renderer article.Renderer
	log      *zap.SugaredLogger
}

func New(renderer article.Renderer, log *zap.SugaredLogger) *Projector {
	return &Projector{renderer: renderer, log: log}
}

// Register subscribes every projection.
func (p *Projector) Register(reg *dispatcher.Registry) {
	dispatcher.On(reg, p.Created)
	dispatcher.On(reg, p.ContentUpdated)
	dispatcher.On(reg, p.ContentReverted)
	dispatcher.On(reg, p.CategoryChanged)
	dispatcher.On(reg, p.StateChanged)
	dispatcher.On(reg, p.Deleted)
}

var createdColumns = []string{
	"slug", "category_id", "category_name", "author", "state", "current_version",
	"title", "tags", "rendered_summary", "rendered_content", "updated_at",
}

func (p *Projector) Created(ctx context.Context, tx *gorm.DB, env dispatcher.Envelope, ev article.Created) error {
	tx = tx.WithContext(ctx)
	name, err := categoryName(tx, ev.CategoryID)
	if err != nil {
		return err
	}
	row := model.ArticleRM{
		ID:              ev.ID,
		Slug:            ev.Slug,
		CategoryID:      ev.CategoryID,
		CategoryName:    name,
		Author:          ev.Author,
		State:           int(ev.State),
		CurrentVersion:  ev.CurrentVersion,
		Title:           ev.Title,
		Tags:            nonNil(ev.Tags),
		RenderedSummary: ev.RenderedSummary,
		RenderedContent: ev.RenderedBody,
		CreatedAt:       env.OccurredAt,
		UpdatedAt:       env.OccurredAt,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(createdColumns),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	return insertVersion(tx, model.ArticleVersionRM{
		ArticleID: ev.ID,
		Version:   ev.CurrentVersion,
		Title:     ev.Title,
		Summary:   ev.Summary,
		Body:      ev.Body,
		Tags:      nonNil(ev.Tags),
		CreatedAt: env.OccurredAt,
	})
}

func (p *Projector) ContentUpdated(ctx context.Context, tx *gorm.DB, env dispatcher.Envelope, ev article.ContentUpdated) error {
	tx = tx.WithContext(ctx)
	parent := ev.ParentVersion
	err := insertVersion(tx, model.ArticleVersionRM{
		ArticleID:   ev.ID,
		Version:     ev.CurrentVersion,
		PrevVersion: &parent,
		Title:       ev.Title,
		Summary:     ev.Summary,
		Body:        ev.Body,
		Tags:        nonNil(ev.Tags),
		CreatedAt:   env.OccurredAt,
	})
	if err != nil {
		return err
	}
	return updateContent(tx, env, ev.ID, ev.CurrentVersion, ev.Title, ev.Tags, ev.RenderedSummary, ev.RenderedBody)
}

// ContentReverted re-reads the target version inside the transaction and
// renders it again, so it depends on more than the payload.
func (p *Projector) ContentReverted(ctx context.Context, tx *gorm.DB, env dispatcher.Envelope, ev article.ContentReverted) error {
	tx = tx.WithContext(ctx)
	var v model.ArticleVersionRM
	err := tx.Where("article_id = ? AND version = ?", ev.ID, ev.CurrentVersion).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: version %s of %s", ErrMissingRow, ev.CurrentVersion, ev.ID)
	}
	if err != nil {
		return err
	}

	summary, err := p.renderer.Render(ctx, v.Summary)
	if err != nil {
		return err
	}
	body, err := p.renderer.Render(ctx, v.Body)
	if err != nil {
		return err
	}
	return updateContent(tx, env, ev.ID, v.Version, v.Title, v.Tags, summary, body)
}

func (p *Projector) CategoryChanged(ctx context.Context, tx *gorm.DB, env dispatcher.Envelope, ev article.CategoryChanged) error {
	tx = tx.WithContext(ctx)
	name, err := categoryName(tx, ev.NewCategoryID)
	if err != nil {
		return err
	}
	return update(tx, ev.ID, model.ArticleRM{CategoryID: ev.NewCategoryID, CategoryName: name, UpdatedAt: env.OccurredAt},
		"category_id", "category_name", "updated_at")
}

func (p *Projector) StateChanged(ctx context.Context, tx *gorm.DB, env dispatcher.Envelope, ev article.StateChanged) error {
	return update(tx.WithContext(ctx), ev.ID, model.ArticleRM{State: int(ev.State), UpdatedAt: env.OccurredAt},
		"state", "updated_at")
}

// Deleted drops the read rows. Deleting rows that are already gone is a no-op.
func (p *Projector) Deleted(ctx context.Context, tx *gorm.DB, _ dispatcher.Envelope, ev article.Deleted) error {
	tx = tx.WithContext(ctx)
	if err := tx.Where("article_id = ?", ev.ID).Delete(&model.ArticleVersionRM{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", ev.ID).Delete(&model.ArticleRM{}).Error
}

func insertVersion(tx *gorm.DB, v model.ArticleVersionRM) error {
	// a version row that already exists means the event was redelivered
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&v).Error
}

func updateContent(tx *gorm.DB, env dispatcher.Envelope, id, version, title string, tags []string, summary, body string) error {
	return update(tx, id, model.ArticleRM{
		CurrentVersion:  version,
		Title:           title,
		Tags:            nonNil(tags),
		RenderedSummary: summary,
		RenderedContent: body,
		UpdatedAt:       env.OccurredAt,
	}, "current_version", "title", "tags", "rendered_summary", "rendered_content", "updated_at")
}

func update(tx *gorm.DB, id string, values model.ArticleRM, columns ...string) error {
	res := tx.Model(&model.ArticleRM{}).Where("id = ?", id).Select(columns).Updates(&values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: article %s", ErrMissingRow, id)
	}
	return nil
}

func categoryName(tx *gorm.DB, id string) (string, error) {
	var c model.Category
	err := tx.Where("id = ?", id).Limit(1).Find(&c).Error
	if err != nil {
		return "", err
	}
	if c.DisplayName == "" {
		return id, nil
	}
	return c.DisplayName, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
