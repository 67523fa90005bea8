package article

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	MaxTitleLength   = 800
	MaxSummaryLength = 1 << 10
	MaxBodyLength    = 2 << 20
	MaxTagLength     = 20
	MaxTags          = 4
	MaxSlugLength    = 25
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidateSlug checks the public slug format.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > MaxSlugLength || strings.Contains(slug, " ") || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrSlugFormat, slug)
	}
	return nil
}

// ValidateCategory checks the category reference format.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return ErrCategoryFormat
	}
	return nil
}

// NewTitle validates a title.
func NewTitle(s string) (string, error) {
	if len(s) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	if s == "" {
		return "", fmt.Errorf("%w: title", ErrEmptyField)
	}
	return s, nil
}

// NewSummary validates a summary.
func NewSummary(s string) (string, error) {
	if len(s) > MaxSummaryLength {
		return "", ErrSummaryTooLong
	}
	if s == "" {
		return "", fmt.Errorf("%w: summary", ErrEmptyField)
	}
	return s, nil
}

// NewBody validates a body. Empty bodies are allowed.
func NewBody(s string) (string, error) {
	if len(s) > MaxBodyLength {
		return "", ErrBodyTooLong
	}
	return s, nil
}

// NewTag validates a single tag.
func NewTag(s string) (string, error) {
	if len(s) > MaxTagLength {
		return "", ErrTagTooLong
	}
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			return "", fmt.Errorf("%w: %q", ErrInvalidTagFormat, s)
		}
	}
	return s, nil
}

// ParseTags splits a comma separated tag list, drops empty entries and
// duplicates, and returns the tags sorted.
func ParseTags(raw string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, err := NewTag(part)
		if err != nil {
			return nil, err
		}
		seen[tag] = struct{}{}
	}
	if len(seen) > MaxTags {
		return nil, ErrTooManyTags
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}
