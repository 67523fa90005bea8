package content

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/richardliu001/bloglite/internal/article"
)

// HashLength is the number of hex characters kept from the digest.
const HashLength = 6

// SHA256Hasher hashes body, title, summary and the sorted tags.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(fm article.FrontMatter, body string) (string, error) {
	tags := append([]string(nil), fm.Tags...)
	sort.Strings(tags)

	h := sha256.New()
	h.Write([]byte(body))
	h.Write([]byte(fm.Title))
	h.Write([]byte(fm.Summary))
	for _, tag := range tags {
		h.Write([]byte(tag))
	}
	return hex.EncodeToString(h.Sum(nil))[:HashLength], nil
}
