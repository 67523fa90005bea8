package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/repo"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the article does not exist or was deleted.
	ErrNotFound = errors.New("article not found")
	// ErrSlugExists means a live article already uses the slug.
	ErrSlugExists = errors.New("slug already exists")
	// ErrInvalidInput means a command argument is out of range.
	ErrInvalidInput = errors.New("invalid input")
)

// ArticleService handles the write-side commands. Each command loads the
// aggregate, applies one transition and hands the result to SaveAll.
type ArticleService struct {
	repo    repo.RepositoryInterface
	content *article.ContentFactory
	log     *zap.SugaredLogger
}

// NewArticleService returns ArticleService.
func NewArticleService(r repo.RepositoryInterface, content *article.ContentFactory, logger *zap.SugaredLogger) *ArticleService {
	return &ArticleService{repo: r, content: content, log: logger}
}

type CreateCommand struct {
	Slug     string
	Category string
	Author   string
	Document string
}

// Create publishes a new private article and returns its id.
func (s *ArticleService) Create(ctx context.Context, cmd CreateCommand) (string, error) {
	if err := article.ValidateSlug(cmd.Slug); err != nil {
		return "", err
	}
	taken, err := s.repo.SlugTaken(ctx, cmd.Slug)
	if err != nil {
		return "", err
	}
	if taken {
		return "", fmt.Errorf("%w: %q", ErrSlugExists, cmd.Slug)
	}
	exists, err := s.repo.CategoryExists(ctx, cmd.Category)
	if err != nil {
		return "", err
	}
	c, err := s.content.Process(ctx, cmd.Document)
	if err != nil {
		return "", err
	}

	a, ev, err := article.NewBuilder().
		Slug(cmd.Slug).
		Author(cmd.Author).
		Category(cmd.Category, exists).
		Content(c).
		Build()
	if err != nil {
		return "", err
	}
	if err := s.save(ctx, a, ev); err != nil {
		return "", err
	}
	s.log.Infow("article created", "article_id", a.ID(), "slug", a.Slug(), "version", a.CurrentVersion())
	return a.ID(), nil
}

// UpdateContent stores a new version and returns its hash.
func (s *ArticleService) UpdateContent(ctx context.Context, id, document string) (string, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	c, err := s.content.Process(ctx, document)
	if err != nil {
		return "", err
	}
	ev, err := a.UpdateContent(c)
	if err != nil {
		return "", err
	}
	if err := s.save(ctx, a, ev); err != nil {
		return "", err
	}
	return ev.CurrentVersion, nil
}

// RevertContent moves the article back to an earlier version.
func (s *ArticleService) RevertContent(ctx context.Context, id, version string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	ev, err := a.RevertToVersion(version)
	if err != nil {
		return err
	}
	return s.save(ctx, a, ev)
}

func (s *ArticleService) ChangeCategory(ctx context.Context, id, category string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	exists, err := s.repo.CategoryExists(ctx, category)
	if err != nil {
		return err
	}
	ev, err := a.ChangeCategory(category, exists)
	if err != nil {
		return err
	}
	return s.save(ctx, a, ev)
}

// SetState switches between private (0) and public (1).
func (s *ArticleService) SetState(ctx context.Context, id string, state int) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	var (
		next article.Article
		ev   article.StateChanged
	)
	switch article.State(state) {
	case article.StatePublic:
		next, ev, err = a.Public()
	case article.StatePrivate:
		next, ev, err = a.Private()
	default:
		return fmt.Errorf("%w: state %d", ErrInvalidInput, state)
	}
	if err != nil {
		return err
	}
	return s.save(ctx, &next, ev)
}

func (s *ArticleService) Delete(ctx context.Context, id string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	ev := a.Delete()
	if err := s.save(ctx, a, ev); err != nil {
		return err
	}
	s.log.Infow("article deleted", "article_id", id)
	return nil
}

// load returns a live aggregate. Deleted articles are reported as missing.
func (s *ArticleService) load(ctx context.Context, id string) (*article.Article, error) {
	a, err := s.repo.FindArticle(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if a.IsDeleted() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

func (s *ArticleService) save(ctx context.Context, a *article.Article, events ...article.Event) error {
	err := s.repo.SaveAll(ctx, a, events...)
	if errors.Is(err, repo.ErrSlugTaken) {
		return fmt.Errorf("%w: %q", ErrSlugExists, a.Slug())
	}
	return err
}
