package httpdto

import (
	"time"

	"livepoll/internal/domain/vote"
)

// CastVoteRequest is used for POST /v1/polls/:id/votes and the POST /vote form
type CastVoteRequest struct {
	PollID   string `json:"-" form:"poll_id"`
	OptionID string `json:"option_id" form:"option_id" binding:"required"`
}

type CastVoteResponse struct {
	VoteID  string           `json:"vote_id"`
	Results *ResultsResponse `json:"results,omitempty"`
}

// ReleaseVoteRequest is used for POST /v1/admin/polls/:id/release and the
// POST /admin/release-ip form
type ReleaseVoteRequest struct {
	PollID  string `json:"-" form:"poll_id"`
	Address string `json:"voter_address" form:"voter_ip" binding:"required"`
}

type ReleaseVoteResponse struct {
	ReleasedVoteID string `json:"released_vote_id"`
	Message        string `json:"message"`
}

type VoteDTO struct {
	VoteID     string  `json:"vote_id"`
	OptionID   string  `json:"option_id"`
	Address    string  `json:"voter_address"`
	CastAt     string  `json:"cast_at"`
	ReleasedAt *string `json:"released_at,omitempty"`
	Active     bool    `json:"is_active"`
}

type VoteListResponse struct {
	PollID string    `json:"poll_id"`
	Votes  []VoteDTO `json:"votes"`
}

type ExportResponse struct {
	Key         string `json:"key"`
	Votes       int    `json:"votes"`
	DownloadURL string `json:"download_url,omitempty"`
}

func FromVote(v vote.Vote) VoteDTO {
	dto := VoteDTO{
		VoteID:   v.ID.String(),
		OptionID: v.OptionID.String(),
		Address:  v.Address,
		CastAt:   v.CastAt.UTC().Format(time.RFC3339Nano),
		Active:   v.IsActive(),
	}
	if at, ok := v.ReleasedAt(); ok {
		s := at.UTC().Format(time.RFC3339Nano)
		dto.ReleasedAt = &s
	}
	return dto
}

func FromVotes(items []vote.Vote) []VoteDTO {
	out := make([]VoteDTO, 0, len(items))
	for _, v := range items {
		out = append(out, FromVote(v))
	}
	return out
}
