package repo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/richardliu001/bloglite/internal/article"
)

// ErrDataIntegrity is returned when a stored aggregate cannot be decoded.
var ErrDataIntegrity = errors.New("stored data is inconsistent")

const rootParent = -1

// storedHistory is the persisted form of a version history: a pool of
// unique hashes, (index, parent index) edges and the current index.
type storedHistory struct {
	VersionPool  []string `json:"version_pool"`
	History      [][2]int `json:"history"`
	CurrentIndex *int     `json:"current_index"`
}

// EncodeHistory serializes h into its pooled form.
func EncodeHistory(h *article.VersionHistory) (string, error) {
	versions := h.Versions()
	pool := make([]string, len(versions))
	index := make(map[string]int, len(versions))
	for i, v := range versions {
		pool[i] = v.Hash
		index[v.Hash] = i
	}

	edges := make([][2]int, len(versions))
	for i, v := range versions {
		parent := rootParent
		if !v.IsRoot() {
			parent = index[v.Parent]
		}
		edges[i] = [2]int{i, parent}
	}
	current := index[h.Current()]

	out, err := json.Marshal(storedHistory{VersionPool: pool, History: edges, CurrentIndex: &current})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeHistory rebuilds a version history, failing with ErrDataIntegrity on
// any dangling index.
func DecodeHistory(data string) (*article.VersionHistory, error) {
	var s storedHistory
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	if s.CurrentIndex == nil {
		return nil, fmt.Errorf("%w: current index missing", ErrDataIntegrity)
	}
	inRange := func(i int) bool { return i >= 0 && i < len(s.VersionPool) }
	if !inRange(*s.CurrentIndex) {
		return nil, fmt.Errorf("%w: current index %d out of range", ErrDataIntegrity, *s.CurrentIndex)
	}

	seen := make(map[int]struct{}, len(s.History))
	versions := make([]article.Version, 0, len(s.History))
	for _, edge := range s.History {
		idx, parent := edge[0], edge[1]
		if !inRange(idx) {
			return nil, fmt.Errorf("%w: version index %d out of range", ErrDataIntegrity, idx)
		}
		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("%w: version index %d repeated", ErrDataIntegrity, idx)
		}
		seen[idx] = struct{}{}

		v := article.Version{Hash: s.VersionPool[idx]}
		if parent != rootParent {
			if !inRange(parent) {
				return nil, fmt.Errorf("%w: parent index %d out of range", ErrDataIntegrity, parent)
			}
			v.Parent = s.VersionPool[parent]
		}
		versions = append(versions, v)
	}

	h, err := article.RestoreVersionHistory(s.VersionPool[*s.CurrentIndex], versions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	return h, nil
}
