package httpdto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	status, body := FromError(fmt.Errorf("cast: %w", livepoll_errors.ErrDuplicateVote))
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, body.Success)
	assert.Equal(t, "DUPLICATE_VOTE", body.Code)
	assert.Contains(t, body.Error, "active vote")

	status, body = FromError(livepoll_errors.Transient(errors.New("lock timeout on 10.0.0.1")))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "TRANSIENT", body.Code)
	assert.NotContains(t, body.Error, "10.0.0.1")

	status, body = FromError(errors.New("pq: relation votes does not exist"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", body.Error)
}
