package vote

import (
	"time"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

// State is either Active or Released. A vote is created Active and moves to
// Released at most once.
type State interface {
	isVoteState()
}

// Active marks a vote that is counted in tallies.
type Active struct{}

// Released marks a vote that an administrator released at At. It stays in the
// ledger for audit and is no longer counted.
type Released struct {
	At time.Time
}

func (Active) isVoteState()   {}
func (Released) isVoteState() {}

// Vote is one ledger record. PollID, OptionID, Address and CastAt never change
// after creation.
type Vote struct {
	ID       uuid.UUID
	PollID   uuid.UUID
	OptionID uuid.UUID
	Address  string
	CastAt   time.Time
	State    State
}

// New returns an active vote with a time-ordered id.
func New(pollID, optionID uuid.UUID, address string, castAt time.Time) Vote {
	return Vote{
		ID:       NewID(),
		PollID:   pollID,
		OptionID: optionID,
		Address:  address,
		CastAt:   castAt.UTC(),
		State:    Active{},
	}
}

// NewID returns a UUIDv7 so that ids sort in creation order.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func (v Vote) IsActive() bool {
	_, ok := v.State.(Active)
	return ok
}

// ReleasedAt returns the release time when the vote has been released.
func (v Vote) ReleasedAt() (time.Time, bool) {
	if r, ok := v.State.(Released); ok {
		return r.At, true
	}
	return time.Time{}, false
}

// Release returns the released copy of an active vote.
func (v Vote) Release(at time.Time) (Vote, error) {
	if !v.IsActive() {
		return Vote{}, livepoll_errors.ErrNoActiveVote
	}
	v.State = Released{At: at.UTC()}
	return v, nil
}

// Key identifies the (poll, address) pair that may hold at most one active
// vote.
type Key struct {
	PollID  uuid.UUID
	Address string
}

func (v Vote) Key() Key {
	return Key{PollID: v.PollID, Address: v.Address}
}

func (k Key) String() string {
	return k.PollID.String() + "|" + k.Address
}
