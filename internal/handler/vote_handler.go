package handler

import (
	"context"
	"net/http"

	"livepoll/internal/commands"
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VoteHandler serves vote submission and results. The JSON endpoint and the
// form endpoint build the same command.
type VoteHandler struct {
	commands CommandExecutor
	results  ResultsComputer
	live     liveResults
}

func NewVoteHandler(executor CommandExecutor, results ResultsComputer, notifier ResultsNotifier, l *logger.Logger) *VoteHandler {
	if l == nil {
		l = logger.NewNop()
	}
	return &VoteHandler{
		commands: executor,
		results:  results,
		live:     liveResults{results: results, notifier: notifier, logger: l},
	}
}

// Cast handles POST /v1/polls/:id/votes.
func (h *VoteHandler) Cast(c *gin.Context) {
	pollID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req httpdto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		invalidRequest(c, "invalid option_id")
		return
	}

	voteID, err := h.cast(c.Request.Context(), pollID, optionID, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.CastVoteResponse{
		VoteID:  voteID,
		Results: h.live.refresh(c.Request.Context(), pollID),
	}))
}

// CastForm handles the POST /vote form and redirects to the poll's results.
func (h *VoteHandler) CastForm(c *gin.Context) {
	var req httpdto.CastVoteRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}
	pollID, err := uuid.Parse(req.PollID)
	if err != nil {
		invalidRequest(c, "invalid poll_id")
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		invalidRequest(c, "invalid option_id")
		return
	}

	_, err = h.cast(c.Request.Context(), pollID, optionID, c.ClientIP())
	if err == nil {
		h.live.refresh(c.Request.Context(), pollID)
	}
	redirectOutcome(c, "/v1/polls/"+pollID.String()+"/results", "voted", err)
}

func (h *VoteHandler) cast(ctx context.Context, pollID, optionID uuid.UUID, address string) (string, error) {
	res, err := h.commands.Execute(ctx, commands.CastVoteCommand{
		PollID:   pollID,
		OptionID: optionID,
		Address:  address,
	})
	if err != nil {
		return "", err
	}
	return res.AggregateID, nil
}

// Results handles GET /v1/polls/:id/results.
func (h *VoteHandler) Results(c *gin.Context) {
	pollID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.results.Compute(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromResults(res)))
}
