package memory

import (
	"sort"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/vote"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

// state is the whole dataset. votes only grows; a release replaces the entry
// in place with its released copy.
type state struct {
	polls   map[uuid.UUID]poll.Poll
	options map[uuid.UUID]poll.Option
	votes   []vote.Vote
	index   map[uuid.UUID]int
}

func newState() *state {
	return &state{
		polls:   make(map[uuid.UUID]poll.Poll),
		options: make(map[uuid.UUID]poll.Option),
		index:   make(map[uuid.UUID]int),
	}
}

func (st *state) clone() *state {
	out := &state{
		polls:   make(map[uuid.UUID]poll.Poll, len(st.polls)),
		options: make(map[uuid.UUID]poll.Option, len(st.options)),
		votes:   make([]vote.Vote, len(st.votes)),
		index:   make(map[uuid.UUID]int, len(st.index)),
	}
	for id, p := range st.polls {
		out.polls[id] = p
	}
	for id, o := range st.options {
		out.options[id] = o
	}
	copy(out.votes, st.votes)
	for id, i := range st.index {
		out.index[id] = i
	}
	return out
}

func (st *state) pollByID(id uuid.UUID) (poll.Poll, error) {
	p, ok := st.polls[id]
	if !ok {
		return poll.Poll{}, livepoll_errors.ErrNotFound
	}
	return p, nil
}

func (st *state) listPolls() []poll.Poll {
	items := make([]poll.Poll, 0, len(st.polls))
	for _, p := range st.polls {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func (st *state) option(id uuid.UUID) (poll.Option, error) {
	o, ok := st.options[id]
	if !ok {
		return poll.Option{}, livepoll_errors.ErrNotFound
	}
	return o, nil
}

func (st *state) optionsOf(pollID uuid.UUID) []poll.Option {
	items := make([]poll.Option, 0)
	for _, o := range st.options {
		if o.PollID == pollID {
			items = append(items, o)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].DisplayOrder == items[j].DisplayOrder {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].DisplayOrder < items[j].DisplayOrder
	})
	return items
}

// votesOf returns the votes of a poll ordered by cast time, then id.
func (st *state) votesOf(pollID uuid.UUID) []vote.Vote {
	items := make([]vote.Vote, 0)
	for _, v := range st.votes {
		if v.PollID == pollID {
			items = append(items, v)
		}
	}
	sortVotes(items)
	return items
}

func sortVotes(items []vote.Vote) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CastAt.Equal(items[j].CastAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].CastAt.Before(items[j].CastAt)
	})
}

func (st *state) append(v vote.Vote) {
	st.index[v.ID] = len(st.votes)
	st.votes = append(st.votes, v)
}

func (st *state) activeFor(key vote.Key) []vote.Vote {
	var items []vote.Vote
	for _, v := range st.votes {
		if v.Key() == key && v.IsActive() {
			items = append(items, v)
		}
	}
	return items
}
