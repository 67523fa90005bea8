package article

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Builder collects the fields needed to create an article. Build reports
// every field that was never supplied.
type Builder struct {
	slug          *string
	author        *string
	category      *string
	categoryValid bool
	content       *Content
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Slug(slug string) *Builder {
	b.slug = &slug
	return b
}

func (b *Builder) Author(author string) *Builder {
	b.author = &author
	return b
}

// Category sets the category and the result of the caller's existence lookup.
func (b *Builder) Category(category string, exists bool) *Builder {
	b.category = &category
	b.categoryValid = exists
	return b
}

func (b *Builder) Content(c Content) *Builder {
	b.content = &c
	return b
}

// Build creates a Private article with a fresh id and a one-version history,
// together with the Created event.
func (b *Builder) Build() (*Article, Created, error) {
	var missing []string
	if b.slug == nil {
		missing = append(missing, "slug")
	}
	if b.author == nil {
		missing = append(missing, "author")
	}
	if b.category == nil {
		missing = append(missing, "category")
	}
	if b.content == nil {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return nil, Created{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if !b.categoryValid {
		return nil, Created{}, fmt.Errorf("%w: %q", ErrInvalidCategory, *b.category)
	}
	if err := ValidateSlug(*b.slug); err != nil {
		return nil, Created{}, err
	}
	if err := ValidateCategory(*b.category); err != nil {
		return nil, Created{}, err
	}

	c := b.content
	history, err := NewVersionHistory(c.Hash)
	if err != nil {
		return nil, Created{}, err
	}
	a := &Article{
		id:       uuid.NewString(),
		slug:     *b.slug,
		author:   *b.author,
		category: *b.category,
		state:    StatePrivate,
		history:  history,
	}
	return a, Created{
		ID:              a.id,
		Slug:            a.slug,
		CurrentVersion:  c.Hash,
		CategoryID:      a.category,
		Author:          a.author,
		State:           a.state,
		Title:           c.FrontMatter.Title,
		Tags:            c.FrontMatter.Tags,
		Body:            c.Body,
		RenderedBody:    c.RenderedBody,
		Summary:         c.FrontMatter.Summary,
		RenderedSummary: c.RenderedSummary,
	}, nil
}
