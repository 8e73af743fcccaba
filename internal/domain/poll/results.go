package poll

import (
	"math"
	"sort"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

// OptionTally is the live count of one option.
type OptionTally struct {
	OptionID     uuid.UUID `json:"option_id"`
	Label        string    `json:"label"`
	DisplayOrder int       `json:"display_order"`
	Count        int64     `json:"count"`
	Percentage   float64   `json:"percentage"`
}

// Results is the tally of a poll taken from one ledger snapshot. Version
// counts the ledger writes for the poll seen by that snapshot; every cast and
// every release raises it, so a higher Version is a newer tally.
type Results struct {
	PollID  uuid.UUID     `json:"poll_id"`
	Version int64         `json:"version"`
	Total   int64         `json:"total"`
	Options []OptionTally `json:"options"`
}

// Tally builds Results for every option, including options without votes.
// counts holds active votes per option and total the independently counted
// active votes of the poll. A count for an option outside the poll, or a sum
// that differs from total, is reported as an invariant violation.
func Tally(pollID uuid.UUID, options []Option, counts map[uuid.UUID]int64, total int64) (Results, error) {
	ordered := make([]Option, len(options))
	copy(ordered, options)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})

	known := make(map[uuid.UUID]struct{}, len(ordered))
	for _, o := range ordered {
		known[o.ID] = struct{}{}
	}
	for optionID, n := range counts {
		if _, ok := known[optionID]; !ok && n > 0 {
			return Results{}, livepoll_errors.InvariantViolation("poll %s has %d active votes for foreign option %s", pollID, n, optionID)
		}
	}

	res := Results{
		PollID:  pollID,
		Total:   total,
		Options: make([]OptionTally, 0, len(ordered)),
	}
	var sum int64
	for _, o := range ordered {
		n := counts[o.ID]
		sum += n
		res.Options = append(res.Options, OptionTally{
			OptionID:     o.ID,
			Label:        o.Label,
			DisplayOrder: o.DisplayOrder,
			Count:        n,
			Percentage:   Percentage(n, total),
		})
	}
	if sum != total {
		return Results{}, livepoll_errors.InvariantViolation("poll %s option counts sum to %d, total active is %d", pollID, sum, total)
	}
	return res, nil
}

// Percentage returns count/total*100 rounded to one decimal, or 0 when there
// are no votes.
func Percentage(count, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
