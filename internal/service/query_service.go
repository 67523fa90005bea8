package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/bloglite/internal/model"
	"github.com/richardliu001/bloglite/internal/repo"
	"go.uber.org/zap"
)

// Visibility decides whether private articles are part of a query.
type Visibility int

const (
	// Public readers only see published articles.
	Public Visibility = iota
	// Admin sees private articles too.
	Admin
)

func (v Visibility) publicOnly() bool { return v != Admin }

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// QueryService answers reads from the read model only.
type QueryService struct {
	repo repo.RepositoryInterface
	log  *zap.SugaredLogger
}

func NewQueryService(r repo.RepositoryInterface, logger *zap.SugaredLogger) *QueryService {
	return &QueryService{repo: r, log: logger}
}

type SearchQuery struct {
	Page     int
	Limit    int
	Category string
	Author   string
	Tags     []string
}

type SearchResult struct {
	Items []model.ArticleRM `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (s *QueryService) GetArticle(ctx context.Context, slug string, v Visibility) (*model.ArticleRM, error) {
	row, err := s.repo.FindArticleRM(ctx, slug, v.publicOnly())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return row, err
}

// Search pages through articles, most recently updated first.
func (s *QueryService) Search(ctx context.Context, q SearchQuery, v Visibility) (SearchResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	items, total, err := s.repo.SearchArticles(ctx, repo.ArticleFilter{
		Category:   q.Category,
		Author:     q.Author,
		Tags:       q.Tags,
		PublicOnly: v.publicOnly(),
		Offset:     (q.Page - 1) * q.Limit,
		Limit:      q.Limit,
	})
	if err != nil {
		return SearchResult{}, err
	}
	if items == nil {
		items = []model.ArticleRM{}
	}
	return SearchResult{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *QueryService) Tags(ctx context.Context, v Visibility) ([]string, error) {
	return s.repo.Tags(ctx, v.publicOnly())
}

func (s *QueryService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.repo.Categories(ctx)
}

func (s *QueryService) Versions(ctx context.Context, articleID string) ([]model.ArticleVersionRM, error) {
	return s.repo.Versions(ctx, articleID)
}

func (s *QueryService) Version(ctx context.Context, articleID, version string) (*model.ArticleVersionRM, error) {
	v, err := s.repo.Version(ctx, articleID, version)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, articleID, version)
	}
	return v, err
}

func (s *QueryService) OutboxSummary(ctx context.Context) (repo.OutboxSummary, error) {
	return s.repo.OutboxSummary(ctx)
}
