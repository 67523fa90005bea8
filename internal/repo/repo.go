package repo

import (
	"context"
	"errors"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConcurrentModification is returned when the aggregate changed since it was read.
	ErrConcurrentModification = errors.New("optimistic lock conflict")
	// ErrSlugTaken is returned when another live article owns the slug.
	ErrSlugTaken = errors.New("slug already taken")
)

// RepositoryInterface restricts Repo methods so services can be tested
// against fakes.
type RepositoryInterface interface {
	DB(ctx context.Context) *gorm.DB

	FindArticle(ctx context.Context, id string) (*article.Article, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	SaveAll(ctx context.Context, a *article.Article, events ...article.Event) error

	CategoryExists(ctx context.Context, id string) (bool, error)
	Categories(ctx context.Context) ([]model.Category, error)
	UpsertCategories(ctx context.Context, cats []model.Category) error

	ClaimBatch(ctx context.Context, tx *gorm.DB, limit int) ([]model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, ids []uint64) error
	RecordFailure(ctx context.Context, id uint64, maxRetries int, cause error) (bool, error)
	DeadLetter(ctx context.Context, id uint64, cause error) error
	OutboxSummary(ctx context.Context) (OutboxSummary, error)

	FindArticleRM(ctx context.Context, slug string, publicOnly bool) (*model.ArticleRM, error)
	SearchArticles(ctx context.Context, f ArticleFilter) ([]model.ArticleRM, int64, error)
	Tags(ctx context.Context, publicOnly bool) ([]string, error)
	Versions(ctx context.Context, articleID string) ([]model.ArticleVersionRM, error)
	Version(ctx context.Context, articleID, version string) (*model.ArticleVersionRM, error)
}

// Repository implements RepositoryInterface.
type Repository struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewRepository constructs repo.
func NewRepository(db *gorm.DB, logger *zap.SugaredLogger) *Repository {
	return &Repository{db: db, log: logger}
}

// DB returns underlying *gorm.DB
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

// Migrate creates every table the write and read side need.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}
