// Package models defines server-side data models persisted in the database.
package models

import (
	"slices"
	"time"
)

// Proposal is a votable record. Voters holds every caller identity that has
// voted; YesVotes+NoVotes always equals len(Voters).
type Proposal struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Voters      []string   `json:"voters"`
	YesVotes    uint64     `json:"yes_votes"`
	NoVotes     uint64     `json:"no_votes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// HasVoted reports whether caller is already in the voter set.
func (p *Proposal) HasVoted(caller string) bool {
	return slices.Contains(p.Voters, caller)
}

// Clone returns a deep copy so callers never alias stored state.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Voters = slices.Clone(p.Voters)
	if c.Voters == nil {
		c.Voters = []string{}
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
