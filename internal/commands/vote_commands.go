package commands

import (
	"fmt"
	"strings"
	"time"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	TypeCastVote    = "vote.cast"
	TypeReleaseVote = "vote.release"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CastVoteCommand carries everything one vote submission needs. At is the
// request time; a zero At is replaced by the engine clock. Ids are not checked
// here: an id that names nothing is resolved against the ledger and reported
// as NotFound or InvalidOption.
type CastVoteCommand struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	Address  string `validate:"required"`
	At       time.Time
}

func (CastVoteCommand) CommandType() string {
	return TypeCastVote
}

func (c CastVoteCommand) Validate() error {
	return validateStruct(c, c.Address)
}

// ReleaseVoteCommand reopens voting for Address on PollID.
type ReleaseVoteCommand struct {
	PollID  uuid.UUID
	Address string `validate:"required"`
	At      time.Time
}

func (ReleaseVoteCommand) CommandType() string {
	return TypeReleaseVote
}

func (c ReleaseVoteCommand) Validate() error {
	return validateStruct(c, c.Address)
}

func validateStruct(cmd any, address string) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %s", livepoll_errors.ErrInvalidInput, err.Error())
	}
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: address is blank", livepoll_errors.ErrInvalidInput)
	}
	return nil
}
