package article

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapParser map[string]string

func (p mapParser) Parse(raw string) (map[string]string, string, error) {
	return p, raw, nil
}

var bodyHasher = HasherFunc(func(_ FrontMatter, body string) (string, error) { return body, nil })

var upperRenderer = RendererFunc(func(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
})

func TestContentFactory_Process(t *testing.T) {
	f := NewContentFactory(mapParser{"title": "T", "summary": "s", "tags": "go, rust,,go"}, bodyHasher, upperRenderer)

	c, err := f.Process(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", c.Hash)
	assert.Equal(t, "H1", c.RenderedBody)
	assert.Equal(t, "S", c.RenderedSummary)
	assert.Equal(t, []string{"go", "rust"}, c.FrontMatter.Tags)
}

func TestContentFactory_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewContentFactory(mapParser{"summary": "s"}, bodyHasher, upperRenderer).Process(ctx, "b")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewContentFactory(mapParser{"title": "", "summary": "s"}, bodyHasher, upperRenderer).Process(ctx, "b")
	assert.ErrorIs(t, err, ErrEmptyField)

	_, err = NewContentFactory(mapParser{"title": "t", "summary": "s"}, bodyHasher, upperRenderer).Process(ctx, "")
	assert.ErrorIs(t, err, ErrHashing)

	boom := errors.New("boom")
	failing := RendererFunc(func(context.Context, string) (string, error) { return "", boom })
	_, err = NewContentFactory(mapParser{"title": "t", "summary": "s"}, bodyHasher, failing).Process(ctx, "b")
	assert.ErrorIs(t, err, boom)
}

func TestValidators(t *testing.T) {
	_, err := NewTitle(strings.Repeat("a", MaxTitleLength+1))
	assert.ErrorIs(t, err, ErrTitleTooLong)
	_, err = NewSummary(strings.Repeat("a", MaxSummaryLength+1))
	assert.ErrorIs(t, err, ErrSummaryTooLong)
	_, err = NewBody(strings.Repeat("a", MaxBodyLength+1))
	assert.ErrorIs(t, err, ErrBodyTooLong)

	_, err = NewTag("a b")
	assert.ErrorIs(t, err, ErrInvalidTagFormat)
	_, err = NewTag(strings.Repeat("x", MaxTagLength+1))
	assert.ErrorIs(t, err, ErrTagTooLong)
	tag, err := NewTag("中文-tag")
	require.NoError(t, err)
	assert.Equal(t, "中文-tag", tag)

	_, err = ParseTags("a,b,c,d,e")
	assert.ErrorIs(t, err, ErrTooManyTags)
	tags, err := ParseTags("")
	require.NoError(t, err)
	assert.Empty(t, tags)
}
