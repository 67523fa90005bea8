package service

import (
	"context"
	"strings"
	"testing"

	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/content"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/logger"
	"github.com/richardliu001/bloglite/internal/model"
	"github.com/richardliu001/bloglite/internal/projector"
	"github.com/richardliu001/bloglite/internal/repo"
	"github.com/richardliu001/bloglite/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	cmd   *ArticleService
	query *QueryService
	disp  *dispatcher.Dispatcher
	db    *gorm.DB
}

// bodyHasher makes the body the version hash so tests can name versions.
var bodyHasher = article.HasherFunc(func(_ article.FrontMatter, body string) (string, error) { return body, nil })

var htmlRenderer = article.RendererFunc(func(_ context.Context, text string) (string, error) {
	return "<p>" + text + "</p>", nil
})

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t)
	log := logger.Nop()
	r := repo.NewRepository(db, log)
	require.NoError(t, r.UpsertCategories(context.Background(), []model.Category{
		{ID: "private", DisplayName: "Private"},
		{ID: "rust", DisplayName: "Rust"},
	}))

	reg := dispatcher.NewRegistry()
	projector.New(htmlRenderer, log).Register(reg)
	projector.DeletePolicy{}.Register(reg)

	factory := article.NewContentFactory(content.FrontMatterParser{}, bodyHasher, htmlRenderer)
	return &fixture{
		cmd:   NewArticleService(r, factory, log),
		query: NewQueryService(r, log),
		disp:  dispatcher.New(r, reg, dispatcher.Config{BatchSize: 10, MaxRetries: 3, MaxBatchesPerTick: 10}, log),
		db:    db,
	}
}

func (f *fixture) drain(t *testing.T) {
	require.NoError(t, f.disp.Tick(context.Background()))
}

func doc(title, tags, body string) string {
	return strings.Join([]string{"---", "title: " + title, "summary: about " + title, "tags: " + tags, "---", body}, "\n")
}

func TestEndToEnd_VersionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.cmd.Create(ctx, CreateCommand{Slug: "first-post", Category: "private", Author: "alice", Document: doc("T", "go", "h1")})
	require.NoError(t, err)
	f.drain(t)

	row, err := f.query.GetArticle(ctx, "first-post", Admin)
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)
	assert.Equal(t, "h1", row.CurrentVersion)
	assert.Equal(t, 0, row.State)
	assert.Equal(t, "Private", row.CategoryName)

	version, err := f.cmd.UpdateContent(ctx, id, doc("T2", "go,rust", "h2"))
	require.NoError(t, err)
	assert.Equal(t, "h2", version)
	f.drain(t)

	row, err = f.query.GetArticle(ctx, "first-post", Admin)
	require.NoError(t, err)
	assert.Equal(t, "h2", row.CurrentVersion)
	assert.Equal(t, "T2", row.Title)
	versions, err := f.query.Versions(ctx, id)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	require.NoError(t, f.cmd.RevertContent(ctx, id, "h1"))
	f.drain(t)

	row, err = f.query.GetArticle(ctx, "first-post", Admin)
	require.NoError(t, err)
	h1, err := f.query.Version(ctx, id, "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", row.CurrentVersion)
	assert.Equal(t, h1.Title, row.Title)
	assert.Equal(t, h1.Tags, row.Tags)
	assert.Equal(t, "<p>"+h1.Summary+"</p>", row.RenderedSummary)
	assert.Equal(t, "<p>"+h1.Body+"</p>", row.RenderedContent)

	var outboxBefore int64
	f.db.Model(&model.OutboxEvent{}).Count(&outboxBefore)

	_, err = f.cmd.UpdateContent(ctx, id, doc("T", "go", "h1"))
	assert.ErrorIs(t, err, article.ErrDuplicateVersion)
	f.drain(t)

	var outboxAfter int64
	f.db.Model(&model.OutboxEvent{}).Count(&outboxAfter)
	assert.Equal(t, outboxBefore, outboxAfter)
	unchanged, err := f.query.GetArticle(ctx, "first-post", Admin)
	require.NoError(t, err)
	assert.Equal(t, row, unchanged)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cmd.Create(ctx, CreateCommand{Slug: "bad slug", Category: "private", Author: "a", Document: doc("T", "", "b")})
	assert.ErrorIs(t, err, article.ErrSlugFormat)

	_, err = f.cmd.Create(ctx, CreateCommand{Slug: "ok", Category: "nope", Author: "a", Document: doc("T", "", "b")})
	assert.ErrorIs(t, err, article.ErrInvalidCategory)

	_, err = f.cmd.Create(ctx, CreateCommand{Slug: "ok", Category: "private", Author: "a", Document: "no front matter"})
	assert.ErrorIs(t, err, article.ErrParse)

	_, err = f.cmd.Create(ctx, CreateCommand{Slug: "ok", Category: "private", Author: "a", Document: doc("T", "", "b")})
	require.NoError(t, err)
	_, err = f.cmd.Create(ctx, CreateCommand{Slug: "ok", Category: "private", Author: "a", Document: doc("T", "", "c")})
	assert.ErrorIs(t, err, ErrSlugExists)
}

func TestStateCategoryAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.cmd.Create(ctx, CreateCommand{Slug: "post", Category: "private", Author: "alice", Document: doc("T", "go", "b1")})
	require.NoError(t, err)
	f.drain(t)

	_, err = f.query.GetArticle(ctx, "post", Public)
	assert.ErrorIs(t, err, ErrNotFound, "private articles are hidden from the public")

	require.NoError(t, f.cmd.SetState(ctx, id, 1))
	assert.ErrorIs(t, f.cmd.SetState(ctx, id, 1), article.ErrStatusNotChanged)
	assert.ErrorIs(t, f.cmd.SetState(ctx, id, 7), ErrInvalidInput)
	require.NoError(t, f.cmd.ChangeCategory(ctx, id, "rust"))
	assert.ErrorIs(t, f.cmd.ChangeCategory(ctx, id, "rust"), article.ErrDuplicateCategory)
	assert.ErrorIs(t, f.cmd.ChangeCategory(ctx, id, "zig"), article.ErrInvalidCategory)
	f.drain(t)

	row, err := f.query.GetArticle(ctx, "post", Public)
	require.NoError(t, err)
	assert.Equal(t, 1, row.State)
	assert.Equal(t, "Rust", row.CategoryName)

	tags, err := f.query.Tags(ctx, Public)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, tags)

	res, err := f.query.Search(ctx, SearchQuery{Tags: []string{"go"}, Category: "rust"}, Public)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, defaultPageSize, res.Limit)

	require.NoError(t, f.cmd.Delete(ctx, id))
	assert.ErrorIs(t, f.cmd.Delete(ctx, id), ErrNotFound)
	f.drain(t)

	_, err = f.query.GetArticle(ctx, "post", Admin)
	assert.ErrorIs(t, err, ErrNotFound)
	var aggregates int64
	f.db.Model(&model.Article{}).Count(&aggregates)
	assert.Zero(t, aggregates)

	_, err = f.cmd.Create(ctx, CreateCommand{Slug: "post", Category: "private", Author: "alice", Document: doc("T", "go", "b1")})
	assert.NoError(t, err, "the slug of a deleted article can be reused")
}

func TestSearch_Paging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, slug := range []string{"a", "b", "c"} {
		_, err := f.cmd.Create(ctx, CreateCommand{Slug: slug, Category: "private", Author: "bob", Document: doc(slug, "", slug)})
		require.NoError(t, err)
	}
	f.drain(t)

	res, err := f.query.Search(ctx, SearchQuery{Page: 2, Limit: 2, Author: "bob"}, Admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Items, 1)

	res, err = f.query.Search(ctx, SearchQuery{Author: "bob"}, Public)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.NotNil(t, res.Items)
}
