package article

import (
	"fmt"
	"sort"
)

// Version is one node of the content history. Root versions have no parent.
type Version struct {
	Hash   string
	Parent string
}

// IsRoot reports whether v has no parent.
func (v Version) IsRoot() bool { return v.Parent == "" }

// VersionHistory is an append-only DAG of content hashes with a movable
// current pointer.
type VersionHistory struct {
	current  string
	versions map[string]Version
}

// NewVersionHistory creates a history holding only the root version.
func NewVersionHistory(rootHash string) (*VersionHistory, error) {
	if rootHash == "" {
		return nil, ErrEmptyHash
	}
	return &VersionHistory{
		current:  rootHash,
		versions: map[string]Version{rootHash: {Hash: rootHash}},
	}, nil
}

// RestoreVersionHistory rebuilds a history from stored versions, checking
// that current and every parent reference exist.
func RestoreVersionHistory(current string, versions []Version) (*VersionHistory, error) {
	h := &VersionHistory{current: current, versions: make(map[string]Version, len(versions))}
	for _, v := range versions {
		if v.Hash == "" {
			return nil, fmt.Errorf("%w: %w", ErrBrokenHistory, ErrEmptyHash)
		}
		h.versions[v.Hash] = v
	}
	if _, ok := h.versions[current]; !ok {
		return nil, fmt.Errorf("%w: current version %q missing", ErrBrokenHistory, current)
	}
	for _, v := range h.versions {
		if v.IsRoot() {
			continue
		}
		if _, ok := h.versions[v.Parent]; !ok {
			return nil, fmt.Errorf("%w: parent %q of %q missing", ErrBrokenHistory, v.Parent, v.Hash)
		}
	}
	return h, nil
}

// AddVersion appends hash as a child of the current version and makes it current.
func (h *VersionHistory) AddVersion(hash string) error {
	if hash == "" {
		return ErrEmptyHash
	}
	if h.Contains(hash) {
		return fmt.Errorf("%w: %q", ErrDuplicateVersion, hash)
	}
	h.versions[hash] = Version{Hash: hash, Parent: h.current}
	h.current = hash
	return nil
}

// RollbackTo moves the current pointer to an existing version. Nothing is removed.
func (h *VersionHistory) RollbackTo(hash string) error {
	if !h.Contains(hash) {
		return fmt.Errorf("%w: %q", ErrVersionNotFound, hash)
	}
	h.current = hash
	return nil
}

// Contains reports whether hash is part of the history.
func (h *VersionHistory) Contains(hash string) bool {
	_, ok := h.versions[hash]
	return ok
}

// Current returns the current version hash.
func (h *VersionHistory) Current() string { return h.current }

// Get returns the version stored under hash.
func (h *VersionHistory) Get(hash string) (Version, bool) {
	v, ok := h.versions[hash]
	return v, ok
}

// Len returns the number of stored versions.
func (h *VersionHistory) Len() int { return len(h.versions) }

// Versions returns all versions sorted by hash.
func (h *VersionHistory) Versions() []Version {
	out := make([]Version, 0, len(h.versions))
	for _, v := range h.versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

func (h *VersionHistory) clone() *VersionHistory {
	c := &VersionHistory{current: h.current, versions: make(map[string]Version, len(h.versions))}
	for k, v := range h.versions {
		c.versions[k] = v
	}
	return c
}
