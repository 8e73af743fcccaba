package httpdto

import (
	"time"

	"livepoll/internal/domain/poll"
)

type PollDTO struct {
	PollID    string `json:"poll_id"`
	Question  string `json:"question"`
	Status    string `json:"status"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

type OptionDTO struct {
	OptionID     string `json:"option_id"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"display_order"`
}

type PollDetailResponse struct {
	Poll        PollDTO     `json:"poll"`
	Options     []OptionDTO `json:"options"`
	LiveViewers *int64      `json:"live_viewers,omitempty"`
}

type PollListResponse struct {
	Polls []PollDTO `json:"polls"`
}

// CreatePollRequest is used for POST /v1/admin/polls
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required,min=2"`
	Status   string   `json:"status,omitempty"`
}

// SetPollStatusRequest is used for PATCH /v1/admin/polls/:id/status
type SetPollStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

type OptionResultDTO struct {
	OptionID     string  `json:"option_id"`
	Label        string  `json:"label"`
	DisplayOrder int     `json:"display_order"`
	Count        int64   `json:"count"`
	Percentage   float64 `json:"percentage"`
}

type ResultsResponse struct {
	PollID  string            `json:"poll_id"`
	Version int64             `json:"version"`
	Total   int64             `json:"total"`
	Options []OptionResultDTO `json:"options"`
}

func FromPoll(p poll.Poll) PollDTO {
	dto := PollDTO{
		PollID:    p.ID.String(),
		Question:  p.Question,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.CreatedBy.Valid {
		dto.CreatedBy = p.CreatedBy.UUID.String()
	}
	return dto
}

func FromPolls(items []poll.Poll) []PollDTO {
	out := make([]PollDTO, 0, len(items))
	for _, p := range items {
		out = append(out, FromPoll(p))
	}
	return out
}

func FromDetail(d poll.Detail) PollDetailResponse {
	options := make([]OptionDTO, 0, len(d.Options))
	for _, o := range d.Options {
		options = append(options, OptionDTO{
			OptionID:     o.ID.String(),
			Label:        o.Label,
			DisplayOrder: o.DisplayOrder,
		})
	}
	return PollDetailResponse{Poll: FromPoll(d.Poll), Options: options}
}

func FromResults(res poll.Results) ResultsResponse {
	options := make([]OptionResultDTO, 0, len(res.Options))
	for _, o := range res.Options {
		options = append(options, OptionResultDTO{
			OptionID:     o.OptionID.String(),
			Label:        o.Label,
			DisplayOrder: o.DisplayOrder,
			Count:        o.Count,
			Percentage:   o.Percentage,
		})
	}
	return ResultsResponse{PollID: res.PollID.String(), Version: res.Version, Total: res.Total, Options: options}
}
