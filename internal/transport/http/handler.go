package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/bloglite/internal/service"
	"go.uber.org/zap"
)

// Handler adapts the article services to gin.
type Handler struct {
	cmd   *service.ArticleService
	query *service.QueryService
	log   *zap.SugaredLogger
}

func NewHandler(cmd *service.ArticleService, query *service.QueryService, log *zap.SugaredLogger) *Handler {
	return &Handler{cmd: cmd, query: query, log: log}
}

type searchReq struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Category string `form:"category"`
	Author   string `form:"author"`
	Tags     string `form:"tags"`
}

func (r searchReq) toQuery() service.SearchQuery {
	q := service.SearchQuery{Page: r.Page, Limit: r.Limit, Category: r.Category, Author: r.Author}
	for _, t := range strings.Split(r.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			q.Tags = append(q.Tags, t)
		}
	}
	return q
}

func (h *Handler) search(v service.Visibility) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req searchReq
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := h.query.Search(c, req.toQuery(), v)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *Handler) getArticle(c *gin.Context) {
	row, err := h.query.GetArticle(c, c.Param("slug"), service.Public)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *Handler) tags(v service.Visibility) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, err := h.query.Tags(c, v)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tags": tags})
	}
}

func (h *Handler) categories(c *gin.Context) {
	cats, err := h.query.Categories(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) createArticle(c *gin.Context) {
	document, err := formDocument(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := h.cmd.Create(c, service.CreateCommand{
		Slug:     c.PostForm("slug"),
		Category: c.PostForm("category"),
		Author:   c.GetString(authorKey),
		Document: document,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Resource-Id", id)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) updateContent(c *gin.Context) {
	document, err := formDocument(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	version, err := h.cmd.UpdateContent(c, c.Param("id"), document)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version})
}

func (h *Handler) deleteArticle(c *gin.Context) {
	if err := h.cmd.Delete(c, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type versionReq struct {
	Version string `json:"version" binding:"required"`
}

func (h *Handler) revertContent(c *gin.Context) {
	var req versionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cmd.RevertContent(c, c.Param("id"), req.Version); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type categoryReq struct {
	Category string `json:"category" binding:"required"`
}

func (h *Handler) changeCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cmd.ChangeCategory(c, c.Param("id"), req.Category); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stateReq struct {
	State *int `json:"state" binding:"required"`
}

func (h *Handler) setState(c *gin.Context) {
	var req stateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.cmd.SetState(c, c.Param("id"), *req.State); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) versions(c *gin.Context) {
	versions, err := h.query.Versions(c, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

func (h *Handler) version(c *gin.Context) {
	v, err := h.query.Version(c, c.Param("id"), c.Param("version"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) outbox(c *gin.Context) {
	summary, err := h.query.OutboxSummary(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// formDocument reads the "document" part as an uploaded file or a plain
// form value.
func formDocument(c *gin.Context) (string, error) {
	if fh, err := c.FormFile("document"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if doc, ok := c.GetPostForm("document"); ok {
		return doc, nil
	}
	return "", fmt.Errorf("%w: document is required", service.ErrInvalidInput)
}
