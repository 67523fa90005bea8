package article

import "fmt"

// State is the article lifecycle state.
type State int

const (
	StateDeleted State = -1
	StatePrivate State = 0
	StatePublic  State = 1
)

func (s State) String() string {
	switch s {
	case StateDeleted:
		return "deleted"
	case StatePrivate:
		return "private"
	case StatePublic:
		return "public"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Article is the aggregate root. It exclusively owns its version history.
type Article struct {
	id       string
	slug     string
	author   string
	category string
	state    State
	history  *VersionHistory
	revision int64
}

// Restore rebuilds an aggregate from persisted fields. It is meant for the
// repository only.
func Restore(id, slug, author, category string, state State, history *VersionHistory, revision int64) *Article {
	return &Article{
		id:       id,
		slug:     slug,
		author:   author,
		category: category,
		state:    state,
		history:  history,
		revision: revision,
	}
}

func (a *Article) ID() string               { return a.id }
func (a *Article) Slug() string             { return a.slug }
func (a *Article) Author() string           { return a.author }
func (a *Article) Category() string         { return a.category }
func (a *Article) State() State             { return a.state }
func (a *Article) History() *VersionHistory { return a.history }
func (a *Article) CurrentVersion() string   { return a.history.Current() }
func (a *Article) Revision() int64          { return a.revision }
func (a *Article) IsDeleted() bool          { return a.state == StateDeleted }

// Public returns a copy of the article in the Public state.
func (a Article) Public() (Article, StateChanged, error) {
	return a.transition(StatePublic)
}

// Private returns a copy of the article in the Private state.
func (a Article) Private() (Article, StateChanged, error) {
	return a.transition(StatePrivate)
}

func (a Article) transition(to State) (Article, StateChanged, error) {
	if a.state == StateDeleted {
		return Article{}, StateChanged{}, ErrAlreadyDeleted
	}
	if a.state == to {
		return Article{}, StateChanged{}, ErrStatusNotChanged
	}
	next := a
	next.history = a.history.clone()
	next.state = to
	return next, StateChanged{ID: a.id, State: to}, nil
}

// UpdateContent appends content as a new version.
func (a *Article) UpdateContent(c Content) (ContentUpdated, error) {
	if a.state == StateDeleted {
		return ContentUpdated{}, ErrAlreadyDeleted
	}
	parent := a.history.Current()
	if err := a.history.AddVersion(c.Hash); err != nil {
		return ContentUpdated{}, err
	}
	return ContentUpdated{
		ID:              a.id,
		ParentVersion:   parent,
		CurrentVersion:  c.Hash,
		Title:           c.FrontMatter.Title,
		Tags:            c.FrontMatter.Tags,
		Body:            c.Body,
		RenderedBody:    c.RenderedBody,
		Summary:         c.FrontMatter.Summary,
		RenderedSummary: c.RenderedSummary,
	}, nil
}

// RevertToVersion moves the current pointer back to an existing version.
func (a *Article) RevertToVersion(hash string) (ContentReverted, error) {
	if a.state == StateDeleted {
		return ContentReverted{}, ErrAlreadyDeleted
	}
	prev := a.history.Current()
	if err := a.history.RollbackTo(hash); err != nil {
		return ContentReverted{}, err
	}
	return ContentReverted{ID: a.id, PrevVersion: prev, CurrentVersion: hash}, nil
}

// ChangeCategory switches the category. exists is the result of the caller's
// category lookup.
func (a *Article) ChangeCategory(category string, exists bool) (CategoryChanged, error) {
	if !exists {
		return CategoryChanged{}, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if category == a.category {
		return CategoryChanged{}, ErrDuplicateCategory
	}
	if err := ValidateCategory(category); err != nil {
		return CategoryChanged{}, err
	}
	old := a.category
	a.category = category
	return CategoryChanged{ID: a.id, OldCategoryID: old, NewCategoryID: category}, nil
}

// Delete moves the article to the terminal Deleted state. Callers check the
// current state first; repeated deletes are not rejected here.
func (a *Article) Delete() Deleted {
	a.state = StateDeleted
	return Deleted{ID: a.id}
}
