package article

import "errors"

// Version history errors.
var (
	ErrEmptyHash        = errors.New("version hash must not be empty")
	ErrDuplicateVersion = errors.New("version already exists")
	ErrVersionNotFound  = errors.New("version not found")
	ErrBrokenHistory    = errors.New("version history is inconsistent")
)

// Aggregate errors.
var (
	ErrSlugFormat        = errors.New("invalid article slug")
	ErrCategoryFormat    = errors.New("invalid article category")
	ErrDuplicateCategory = errors.New("article already has this category")
	ErrStatusNotChanged  = errors.New("article state not changed")
	ErrInvalidCategory   = errors.New("category is not registered")
	ErrAlreadyDeleted    = errors.New("article is deleted")
	ErrMissingFields     = errors.New("missing required fields")
)

// Content errors.
var (
	ErrMissingField     = errors.New("missing front matter field")
	ErrEmptyField       = errors.New("field must not be empty")
	ErrBodyTooLong      = errors.New("body too long")
	ErrSummaryTooLong   = errors.New("summary too long")
	ErrTitleTooLong     = errors.New("title too long")
	ErrTagTooLong       = errors.New("tag too long")
	ErrTooManyTags      = errors.New("too many tags")
	ErrInvalidTagFormat = errors.New("tags may only contain letters, digits and '-'")
	ErrParse            = errors.New("document parse failed")
	ErrHashing          = errors.New("content hashing failed")
	ErrRender           = errors.New("content rendering failed")
)
