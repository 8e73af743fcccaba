package handler

import (
	"context"
	"net/http"
	"strconv"

	"livepoll/internal/domain/poll"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Catalog interface {
	CreatePoll(ctx context.Context, in services.CreatePollInput) (poll.Detail, error)
	GetPoll(ctx context.Context, id uuid.UUID) (poll.Detail, error)
	ListPolls(ctx context.Context, activeOnly bool) ([]poll.Poll, error)
	SetStatus(ctx context.Context, id uuid.UUID, status poll.Status) error
}

// ViewerCounter reports how many live viewers a poll has.
type ViewerCounter interface {
	Count(ctx context.Context, pollID uuid.UUID) (int64, error)
}

type PollHandler struct {
	catalog Catalog
	viewers ViewerCounter
}

// NewPollHandler creates a poll handler. viewers may be nil.
func NewPollHandler(catalog Catalog, viewers ViewerCounter) *PollHandler {
	return &PollHandler{catalog: catalog, viewers: viewers}
}

// List handles GET /v1/polls. ?active=true leaves out closed polls.
func (h *PollHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	items, err := h.catalog.ListPolls(c.Request.Context(), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PollListResponse{Polls: httpdto.FromPolls(items)}))
}

// Get handles GET /v1/polls/:id.
func (h *PollHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.catalog.GetPoll(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := httpdto.FromDetail(detail)
	if h.viewers != nil {
		if n, err := h.viewers.Count(c.Request.Context(), id); err == nil {
			resp.LiveViewers = &n
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

// Create handles POST /v1/admin/polls. The signed-in admin is recorded as
// the poll's author.
func (h *PollHandler) Create(c *gin.Context) {
	var req httpdto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}
	var author uuid.NullUUID
	if id, ok := services.UserIDFromContext(c.Request.Context()); ok {
		author = uuid.NullUUID{UUID: id, Valid: true}
	}
	detail, err := h.catalog.CreatePoll(c.Request.Context(), services.CreatePollInput{
		Question:  req.Question,
		Options:   req.Options,
		Status:    poll.Status(req.Status),
		CreatedBy: author,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromDetail(detail)))
}

// SetStatus handles PATCH /v1/admin/polls/:id/status.
func (h *PollHandler) SetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req httpdto.SetPollStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}
	if err := h.catalog.SetStatus(c.Request.Context(), id, poll.Status(req.Status)); err != nil {
		writeError(c, err)
		return
	}
	detail, err := h.catalog.GetPoll(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromDetail(detail)))
}
