package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/auth"
	"github.com/richardliu001/bloglite/internal/config"
	"github.com/richardliu001/bloglite/internal/content"
	"github.com/richardliu001/bloglite/internal/dispatcher"
	"github.com/richardliu001/bloglite/internal/logger"
	"github.com/richardliu001/bloglite/internal/model"
	"github.com/richardliu001/bloglite/internal/projector"
	"github.com/richardliu001/bloglite/internal/repo"
	"github.com/richardliu001/bloglite/internal/service"
	"github.com/richardliu001/bloglite/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var secret = []byte("test-secret")

type server struct {
	router *gin.Engine
	disp   *dispatcher.Dispatcher
	token  string
}

func newServer(t *testing.T, rl config.RateLimitConfig) *server {
	db := testdb.New(t)
	log := logger.Nop()
	r := repo.NewRepository(db, log)
	require.NoError(t, r.UpsertCategories(context.Background(), []model.Category{{ID: "private", DisplayName: "Private"}}))

	renderer := article.RendererFunc(func(_ context.Context, s string) (string, error) { return "<p>" + s + "</p>", nil })
	reg := dispatcher.NewRegistry()
	projector.New(renderer, log).Register(reg)
	projector.DeletePolicy{}.Register(reg)

	factory := article.NewContentFactory(content.FrontMatterParser{}, content.SHA256Hasher{}, renderer)
	h := NewHandler(service.NewArticleService(r, factory, log), service.NewQueryService(r, log), log)

	cfg := &config.Config{
		Server:    config.ServerConfig{MaxBodyBytes: 1 << 20},
		RateLimit: rl,
		Auth:      config.AuthConfig{JWTSecret: string(secret)},
	}
	token, err := auth.GenerateToken("alice", time.Hour, secret)
	require.NoError(t, err)
	return &server{
		router: NewRouter(h, cfg, log),
		disp:   dispatcher.New(r, reg, dispatcher.Config{BatchSize: 10, MaxRetries: 3, MaxBatchesPerTick: 10}, log),
		token:  token,
	}
}

func (s *server) do(req *http.Request, authed bool) *httptest.ResponseRecorder {
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

const document = "---\ntitle: Hello\nsummary: first post\ntags: [go, web]\n---\n# Hello\n"

func TestAdminRequiresToken(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 100, Burst: 100})

	w := s.do(httptest.NewRequest(http.MethodGet, "/v1/admin/outbox", nil), false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/outbox", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = s.do(req, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/admin/outbox", nil), true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pending":0,"retrying":0,"processed":0,"dead_lettered":0,"relay_pending":0,"relay_dead_lettered":0}`, w.Body.String())
}

func TestArticleLifecycle(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 100, Burst: 100})
	ctx := context.Background()

	w := s.do(multipartRequest(t, http.MethodPost, "/v1/admin/articles", map[string]string{
		"slug": "hello", "category": "private", "document": document,
	}), true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := w.Header().Get("Resource-Id")
	require.NotEmpty(t, id)
	require.NoError(t, s.disp.Tick(ctx))

	// private articles stay hidden from the public api
	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/api/articles/hello", nil), false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(jsonRequest(http.MethodPatch, "/v1/admin/articles/"+id+"/state", `{"state":1}`), true)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = s.do(jsonRequest(http.MethodPatch, "/v1/admin/articles/"+id+"/state", `{"state":1}`), true)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, s.disp.Tick(ctx))

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/api/articles/hello", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
	var row model.ArticleRM
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, "Hello", row.Title)
	assert.Equal(t, "alice", row.Author)
	assert.Equal(t, []string{"go", "web"}, row.Tags)
	first := row.CurrentVersion

	w = s.do(multipartRequest(t, http.MethodPost, "/v1/admin/articles/"+id, map[string]string{
		"document": strings.Replace(document, "# Hello", "# Hello again", 1),
	}), true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(jsonRequest(http.MethodPatch, "/v1/admin/articles/"+id+"/version", `{"version":"`+first+`"}`), true)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = s.do(jsonRequest(http.MethodPatch, "/v1/admin/articles/"+id+"/version", `{"version":"ffffff"}`), true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, s.disp.Tick(ctx))

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/admin/articles/"+id+"/versions", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	var versions struct {
		Versions []model.ArticleVersionRM `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &versions))
	assert.Len(t, versions.Versions, 2)

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/api/tags", nil), false)
	assert.JSONEq(t, `{"tags":["go","web"]}`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodDelete, "/v1/admin/articles/"+id, nil), true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(httptest.NewRequest(http.MethodDelete, "/v1/admin/articles/"+id, nil), true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateErrors(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 100, Burst: 100})

	cases := []struct {
		name   string
		fields map[string]string
		status int
	}{
		{"bad slug", map[string]string{"slug": "Bad Slug", "category": "private", "document": document}, http.StatusBadRequest},
		{"unknown category", map[string]string{"slug": "ok", "category": "zig", "document": document}, http.StatusUnprocessableEntity},
		{"no document", map[string]string{"slug": "ok", "category": "private"}, http.StatusBadRequest},
		{"no front matter", map[string]string{"slug": "ok", "category": "private", "document": "plain"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(multipartRequest(t, http.MethodPost, "/v1/admin/articles", tc.fields), true)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	fields := map[string]string{"slug": "taken", "category": "private", "document": document}
	w := s.do(multipartRequest(t, http.MethodPost, "/v1/admin/articles", fields), true)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(multipartRequest(t, http.MethodPost, "/v1/admin/articles", fields), true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSearchDefaults(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 100, Burst: 100})

	w := s.do(httptest.NewRequest(http.MethodGet, "/v1/api/articles?tags=go,,web", nil), false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0,"page":1,"limit":10}`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/api/articles?page=x", nil), false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/api/categories", nil), false)
	assert.JSONEq(t, `{"categories":[{"id":"private","display_name":"Private"}]}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 1, Burst: 1})

	w := s.do(httptest.NewRequest(http.MethodGet, "/v1/api/tags", nil), false)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, "/v1/api/tags", nil), false)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestBodyLimit(t *testing.T) {
	s := newServer(t, config.RateLimitConfig{RPS: 100, Burst: 100})

	req := multipartRequest(t, http.MethodPost, "/v1/admin/articles", map[string]string{
		"slug": "big", "category": "private", "document": strings.Repeat("x", 2<<20),
	})
	w := s.do(req, true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusOf(repo.ErrConcurrentModification))
	assert.Equal(t, http.StatusBadRequest, statusOf(article.ErrTooManyTags))
	assert.Equal(t, http.StatusNotFound, statusOf(service.ErrNotFound))
	assert.Equal(t, http.StatusBadGateway, statusOf(article.ErrRender))
	assert.Equal(t, http.StatusInternalServerError, statusOf(repo.ErrDataIntegrity))
}
