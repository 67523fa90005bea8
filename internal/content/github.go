package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richardliu001/bloglite/internal/article"
)

const defaultGithubEndpoint = "https://api.github.com/markdown"

// GithubRenderer renders markdown through the GitHub markdown API.
type GithubRenderer struct {
	client   *http.Client
	endpoint string
	token    string
}

func NewGithubRenderer(token string, timeout time.Duration) *GithubRenderer {
	return &GithubRenderer{
		client:   &http.Client{Timeout: timeout},
		endpoint: defaultGithubEndpoint,
		token:    token,
	}
}

// WithEndpoint overrides the API URL.
func (r *GithubRenderer) WithEndpoint(endpoint string) *GithubRenderer {
	r.endpoint = endpoint
	return r
}

type githubRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

func (r *GithubRenderer) Render(ctx context.Context, text string) (string, error) {
	payload, _ := json.Marshal(githubRequest{Text: text, Mode: "gfm"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", article.ErrRender, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "bloglite-markdown-render")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", article.ErrRender, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", article.ErrRender, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: github returned %d", article.ErrRender, resp.StatusCode)
	}
	return string(out), nil
}
