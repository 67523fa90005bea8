package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/bloglite/internal/article"
	"github.com/richardliu001/bloglite/internal/repo"
	"github.com/richardliu001/bloglite/internal/service"
)

var (
	badRequest = []error{
		article.ErrSlugFormat, article.ErrCategoryFormat, article.ErrMissingField,
		article.ErrEmptyField, article.ErrBodyTooLong, article.ErrSummaryTooLong,
		article.ErrTitleTooLong, article.ErrTagTooLong, article.ErrTooManyTags,
		article.ErrInvalidTagFormat, article.ErrParse, article.ErrMissingFields,
		article.ErrEmptyHash, service.ErrInvalidInput,
	}
	conflict = []error{
		article.ErrDuplicateVersion, article.ErrDuplicateCategory,
		article.ErrStatusNotChanged, article.ErrAlreadyDeleted,
		service.ErrSlugExists, repo.ErrConcurrentModification,
	}
	notFound = []error{
		service.ErrNotFound, article.ErrVersionNotFound, repo.ErrNotFound,
	}
	unprocessable = []error{
		article.ErrInvalidCategory,
	}
)

// statusOf maps a command or query error to its HTTP status.
func statusOf(err error) int {
	switch {
	case matches(err, badRequest):
		return http.StatusBadRequest
	case matches(err, conflict):
		return http.StatusConflict
	case matches(err, notFound):
		return http.StatusNotFound
	case matches(err, unprocessable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, article.ErrRender), errors.Is(err, article.ErrHashing):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func matches(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorw("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
