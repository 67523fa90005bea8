package repo

import (
	"context"
	"errors"
	"sort"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/model"
	"gorm.io/gorm"
)

// ArticleFilter narrows read-model searches. Empty fields do not filter.
type ArticleFilter struct {
	Category   string
	Author     string
	Tags       []string
	PublicOnly bool
	Offset     int
	Limit      int
}

func visible(db *gorm.DB, publicOnly bool) *gorm.DB {
	if publicOnly {
		return db.Where("state = ?", int(article.StatePublic))
	}
	return db.Where("state <> ?", int(article.StateDeleted))
}

// FindArticleRM returns the read row for slug.
func (r *Repository) FindArticleRM(ctx context.Context, slug string, publicOnly bool) (*model.ArticleRM, error) {
	var row model.ArticleRM
	err := visible(r.db.WithContext(ctx), publicOnly).Where("slug = ?", slug).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SearchArticles lists read rows, newest update first, with the total count.
func (r *Repository) SearchArticles(ctx context.Context, f ArticleFilter) ([]model.ArticleRM, int64, error) {
	q := visible(r.db.WithContext(ctx).Model(&model.ArticleRM{}), f.PublicOnly)
	if f.Category != "" {
		q = q.Where("category_id = ?", f.Category)
	}
	if f.Author != "" {
		q = q.Where("author = ?", f.Author)
	}
	for _, tag := range f.Tags {
		// tags are stored as a JSON array of strings
		q = q.Where("tags LIKE ?", `%"`+tag+`"%`)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ArticleRM
	err := q.Session(&gorm.Session{}).Order("updated_at DESC, id").Offset(f.Offset).Limit(f.Limit).Find(&rows).Error
	return rows, total, err
}

// Tags returns the distinct tags of visible articles, sorted.
func (r *Repository) Tags(ctx context.Context, publicOnly bool) ([]string, error) {
	var rows []model.ArticleRM
	if err := visible(r.db.WithContext(ctx), publicOnly).Select("id", "tags").Find(&rows).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, row := range rows {
		for _, t := range row.Tags {
			set[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *Repository) Versions(ctx context.Context, articleID string) ([]model.ArticleVersionRM, error) {
	var rows []model.ArticleVersionRM
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).Order("created_at, version").Find(&rows).Error
	return rows, err
}

func (r *Repository) Version(ctx context.Context, articleID, version string) (*model.ArticleVersionRM, error) {
	var row model.ArticleVersionRM
	err := r.db.WithContext(ctx).Where("article_id = ? AND version = ?", articleID, version).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
