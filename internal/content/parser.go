package content

import (
	"fmt"
	"strings"

	"github.com/richardliu001/bloglite/internal/article"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// FrontMatterParser splits a markdown document with a YAML front matter
// block into its metadata and body.
type FrontMatterParser struct{}

func (FrontMatterParser) Parse(raw string) (map[string]string, string, error) {
	input := strings.TrimSpace(raw)
	if !strings.HasPrefix(input, delimiter) {
		return nil, "", fmt.Errorf("%w: document must start with front matter", article.ErrParse)
	}
	rest := input[len(delimiter):]
	end := strings.Index(rest, delimiter)
	if end < 0 {
		return nil, "", fmt.Errorf("%w: missing front matter delimiter", article.ErrParse)
	}
	meta, err := decodeFrontMatter(rest[:end])
	if err != nil {
		return nil, "", err
	}
	body := strings.TrimSpace(rest[end+len(delimiter):])
	return meta, body, nil
}

func decodeFrontMatter(src string) (map[string]string, error) {
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(src), &nodes); err != nil {
		return nil, fmt.Errorf("%w: %v", article.ErrParse, err)
	}
	out := make(map[string]string, len(nodes))
	for key, node := range nodes {
		switch node.Kind {
		case yaml.ScalarNode:
			out[key] = node.Value
		case yaml.SequenceNode:
			items := make([]string, 0, len(node.Content))
			for _, item := range node.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("%w: %s must be a list of strings", article.ErrParse, key)
				}
				items = append(items, item.Value)
			}
			out[key] = strings.Join(items, ",")
		default:
			return nil, fmt.Errorf("%w: %s must be a string", article.ErrParse, key)
		}
	}
	return out, nil
}
