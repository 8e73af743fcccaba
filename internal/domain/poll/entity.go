package poll

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Poll represents the polls table
type Poll struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Question  string        `gorm:"type:text;not null"`
	Status    Status        `gorm:"type:varchar(16);not null;default:active"`
	CreatedBy uuid.NullUUID `gorm:"type:uuid"`
	CreatedAt time.Time     `gorm:"not null"`
}

// Option represents the poll_options table
type Option struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	PollID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Label        string    `gorm:"type:varchar(255);not null"`
	DisplayOrder int       `gorm:"not null;default:0"`
}

func (Poll) TableName() string {
	return "polls"
}

func (Option) TableName() string {
	return "poll_options"
}

func (p Poll) IsActive() bool {
	return p.Status == StatusActive
}

// Detail is a poll together with its options in display order.
type Detail struct {
	Poll    Poll
	Options []Option
}
