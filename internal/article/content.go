package article

import (
	"context"
	"fmt"
)

// FrontMatter holds the validated metadata of a document.
type FrontMatter struct {
	Title   string
	Summary string
	Tags    []string
}

// Content is the processed form of a raw document. It is consumed once to
// produce a version and the event that carries its fields.
type Content struct {
	FrontMatter     FrontMatter
	Body            string
	Hash            string
	RenderedBody    string
	RenderedSummary string
}

// Parser splits a raw document into front matter fields and body.
type Parser interface {
	Parse(raw string) (map[string]string, string, error)
}

// Hasher derives the content hash used as version key.
type Hasher interface {
	Hash(fm FrontMatter, body string) (string, error)
}

// Renderer turns markdown into HTML. It may be a remote call.
type Renderer interface {
	Render(ctx context.Context, text string) (string, error)
}

// HasherFunc adapts a function to Hasher.
type HasherFunc func(fm FrontMatter, body string) (string, error)

func (f HasherFunc) Hash(fm FrontMatter, body string) (string, error) { return f(fm, body) }

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, text string) (string, error)

func (f RendererFunc) Render(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// ContentFactory runs the parse, validate, hash and render pipeline.
type ContentFactory struct {
	parser   Parser
	hasher   Hasher
	renderer Renderer
}

// NewContentFactory wires the pipeline collaborators.
func NewContentFactory(p Parser, h Hasher, r Renderer) *ContentFactory {
	return &ContentFactory{parser: p, hasher: h, renderer: r}
}

// Process turns a raw document into Content.
func (f *ContentFactory) Process(ctx context.Context, raw string) (Content, error) {
	meta, rawBody, err := f.parser.Parse(raw)
	if err != nil {
		return Content{}, err
	}
	body, err := NewBody(rawBody)
	if err != nil {
		return Content{}, err
	}
	fm, err := buildFrontMatter(meta)
	if err != nil {
		return Content{}, err
	}

	hash, err := f.hasher.Hash(fm, body)
	if err != nil {
		return Content{}, err
	}
	if hash == "" {
		return Content{}, fmt.Errorf("%w: empty hash", ErrHashing)
	}

	renderedBody, err := f.renderer.Render(ctx, body)
	if err != nil {
		return Content{}, err
	}
	renderedSummary, err := f.renderer.Render(ctx, fm.Summary)
	if err != nil {
		return Content{}, err
	}

	return Content{
		FrontMatter:     fm,
		Body:            body,
		Hash:            hash,
		RenderedBody:    renderedBody,
		RenderedSummary: renderedSummary,
	}, nil
}

func buildFrontMatter(meta map[string]string) (FrontMatter, error) {
	rawTitle, ok := meta["title"]
	if !ok {
		return FrontMatter{}, fmt.Errorf("%w: title", ErrMissingField)
	}
	title, err := NewTitle(rawTitle)
	if err != nil {
		return FrontMatter{}, err
	}
	rawSummary, ok := meta["summary"]
	if !ok {
		return FrontMatter{}, fmt.Errorf("%w: summary", ErrMissingField)
	}
	summary, err := NewSummary(rawSummary)
	if err != nil {
		return FrontMatter{}, err
	}
	tags, err := ParseTags(meta["tags"])
	if err != nil {
		return FrontMatter{}, err
	}
	return FrontMatter{Title: title, Summary: summary, Tags: tags}, nil
}
