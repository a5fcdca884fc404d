package api

import "time"

// Proposal is the wire form of a proposal record.
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

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type ListProposalsRequest struct{}

type ListProposalsResponse struct {
	Proposals []*Proposal `json:"proposals"`
}

type GetProposalRequest struct {
	ID string `json:"id"`
}

type CreateProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type VoteRequest struct {
	ID string `json:"id"`
}

type UpdateProposalRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DeleteProposalRequest struct {
	ID string `json:"id"`
}

// ProposalResponse carries the single record returned by get, create, vote,
// update and delete.
type ProposalResponse struct {
	Proposal *Proposal `json:"proposal"`
}

type ExportRequest struct{}

type ExportResponse struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}
