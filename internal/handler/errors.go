// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"net/url"

	"livepoll/internal/transport/httpdto"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// writeError renders err in the response envelope. Transient failures carry
// Retry-After so clients know the whole call may be repeated.
func writeError(c *gin.Context, err error) {
	status, body := httpdto.FromError(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, body)
}

func invalidRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(message, "INVALID_REQUEST"))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		invalidRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// redirectOutcome answers a form post with 303 See Other, carrying either
// outcome=<ok> or error=<CODE> in the query string.
func redirectOutcome(c *gin.Context, target, ok string, err error) {
	q := url.Values{}
	if err != nil {
		q.Set("error", livepoll_errors.Code(err))
	} else {
		q.Set("outcome", ok)
	}
	c.Redirect(http.StatusSeeOther, target+"?"+q.Encode())
}
