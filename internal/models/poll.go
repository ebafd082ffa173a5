package models

import (
	"time"

	"github.com/google/uuid"
)

// Poll is a question with fixed options and running tallies.
// Counts is index-aligned with Options and TotalVotes is always the sum of Counts.
type Poll struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Options    []string  `json:"options"`
	Counts     []int     `json:"counts"`
	TotalVotes int       `json:"totalVotes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewPoll returns an unsaved poll with a zero tally for every option.
func NewPoll(question string, options []string) *Poll {
	return &Poll{
		Question: question,
		Options:  options,
		Counts:   make([]int, len(options)),
	}
}

// HasOption reports whether index addresses one of the poll's options.
func (p *Poll) HasOption(index int) bool {
	return index >= 0 && index < len(p.Options)
}

// Clone returns a deep copy so callers can hand out a poll without sharing its slices.
func (p *Poll) Clone() *Poll {
	cp := *p
	cp.Options = append([]string(nil), p.Options...)
	cp.Counts = append([]int(nil), p.Counts...)
	return &cp
}
