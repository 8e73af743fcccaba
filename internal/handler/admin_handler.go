package handler

import (
	"context"
	"net/http"
	"strings"

	"livepoll/internal/commands"
	"livepoll/internal/domain/vote"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VoteHistory interface {
	List(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error)
	ActiveVoters(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error)
}

type AuditExporter interface {
	Export(ctx context.Context, pollID uuid.UUID) (services.ExportResult, error)
}

// AdminHandler serves the release, audit and export endpoints. All routes sit
// behind AdminAuthMiddleware.
type AdminHandler struct {
	commands CommandExecutor
	history  VoteHistory
	exporter AuditExporter
	live     liveResults
}

func NewAdminHandler(executor CommandExecutor, history VoteHistory, exporter AuditExporter, results ResultsComputer, notifier ResultsNotifier, l *logger.Logger) *AdminHandler {
	if l == nil {
		l = logger.NewNop()
	}
	return &AdminHandler{
		commands: executor,
		history:  history,
		exporter: exporter,
		live:     liveResults{results: results, notifier: notifier, logger: l},
	}
}

// Release handles POST /v1/admin/polls/:id/release.
func (h *AdminHandler) Release(c *gin.Context) {
	pollID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req httpdto.ReleaseVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}

	voteID, err := h.release(c.Request.Context(), pollID, req.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	h.live.refresh(c.Request.Context(), pollID)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ReleaseVoteResponse{
		ReleasedVoteID: voteID,
		Message:        "vote released, " + strings.TrimSpace(req.Address) + " may vote again",
	}))
}

// ReleaseForm handles the POST /admin/release-ip form. A browser follows the
// redirect without the bearer token, so it lands on the public results page.
func (h *AdminHandler) ReleaseForm(c *gin.Context) {
	var req httpdto.ReleaseVoteRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}
	pollID, err := uuid.Parse(req.PollID)
	if err != nil {
		invalidRequest(c, "invalid poll_id")
		return
	}

	_, err = h.release(c.Request.Context(), pollID, req.Address)
	if err == nil {
		h.live.refresh(c.Request.Context(), pollID)
	}
	redirectOutcome(c, "/v1/polls/"+pollID.String()+"/results", "released", err)
}

func (h *AdminHandler) release(ctx context.Context, pollID uuid.UUID, address string) (string, error) {
	res, err := h.commands.Execute(ctx, commands.ReleaseVoteCommand{
		PollID:  pollID,
		Address: strings.TrimSpace(address),
	})
	if err != nil {
		return "", err
	}
	return res.AggregateID, nil
}

// History handles GET /v1/admin/polls/:id/history.
func (h *AdminHandler) History(c *gin.Context) {
	pollID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.history.List(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VoteListResponse{
		PollID: pollID.String(),
		Votes:  httpdto.FromVotes(items),
	}))
}

// Voters handles GET /v1/admin/polls/:id/voters.
func (h *AdminHandler) Voters(c *gin.Context) {
	pollID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.history.ActiveVoters(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VoteListResponse{
		PollID: pollID.String(),
		Votes:  httpdto.FromVotes(items),
	}))
}

// Export handles POST /v1/admin/polls/:id/history/export.
func (h *AdminHandler) Export(c *gin.Context) {
	pollID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.exporter.Export(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ExportResponse{
		Key:         res.Key,
		Votes:       res.Votes,
		DownloadURL: res.DownloadURL,
	}))
}
