// Package services contains server-side business logic: the proposal
// registry, user registration and login, and proposal exports.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/dbx"
	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/metrics"
	"github.com/dmitrijs2005/gophvote/internal/server/config"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ProposalCache is an optional read-through cache for Get. Get reports a
// miss as a nil proposal plus the entry version; Set must drop its write when
// an Invalidate happened since that version was read.
type ProposalCache interface {
	Get(ctx context.Context, id string) (*models.Proposal, int64, error)
	Set(ctx context.Context, p *models.Proposal, version int64) error
	Invalidate(ctx context.Context, id string) error
}

// ProposalService is the proposal registry. Every mutation runs in one
// transaction over a locked row, so a failed call leaves storage untouched.
// Returned proposals are copies owned by the caller.
type ProposalService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	cache           ProposalCache
	logger          logging.Logger
	metrics         *metrics.Metrics
	validate        *validator.Validate
	now             func() time.Time
	newID           func() string
	restrictUpdates bool
}

type ProposalOption func(*ProposalService)

func WithCache(c ProposalCache) ProposalOption {
	return func(s *ProposalService) { s.cache = c }
}

func WithLogger(l logging.Logger) ProposalOption {
	return func(s *ProposalService) { s.logger = l.With("module", "proposals") }
}

func WithMetrics(m *metrics.Metrics) ProposalOption {
	return func(s *ProposalService) { s.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProposalOption {
	return func(s *ProposalService) { s.now = now }
}

// WithIDGenerator replaces the UUID v4 generator.
func WithIDGenerator(gen func() string) ProposalOption {
	return func(s *ProposalService) { s.newID = gen }
}

func NewProposalService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...ProposalOption) *ProposalService {
	s := &ProposalService{
		db:              db,
		repomanager:     m,
		logger:          logging.Nop(),
		validate:        newValidator(),
		now:             time.Now,
		newID:           func() string { return uuid.NewString() },
		restrictUpdates: cfg.RestrictUpdatesToOwner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every proposal ordered by creation time.
func (s *ProposalService) List(ctx context.Context) (result []*models.Proposal, err error) {
	defer s.record(ctx, "list", &err)

	list, err := s.repomanager.Proposals(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing proposals: %w", err)
	}
	return list, nil
}

// Get returns the proposal for id, or common.ErrorNotFound when id is blank
// or unknown.
func (s *ProposalService) Get(ctx context.Context, id string) (p *models.Proposal, err error) {
	defer s.record(ctx, "get", &err)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, common.ErrorNotFound
	}

	var (
		version  int64
		fillable bool
	)
	if s.cache != nil {
		cached, v, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "cache read failed", "id", id, "error", err)
		case cached != nil:
			return cached, nil
		default:
			version, fillable = v, true
		}
	}

	p, err = s.repomanager.Proposals(s.db).Get(ctx, id)
	if err != nil {
		return nil, s.storageErr("error getting proposal", err)
	}

	if fillable {
		if err := s.cache.Set(ctx, p.Clone(), version); err != nil {
			s.logger.Warn(ctx, "cache write failed", "id", id, "error", err)
		}
	}
	return p, nil
}

// Create stores a new proposal owned by caller. Title and description are
// trimmed and must not be empty.
func (s *ProposalService) Create(ctx context.Context, caller, title, description string) (p *models.Proposal, err error) {
	defer s.record(ctx, "create", &err)

	if caller == "" {
		return nil, common.ErrorUnauthorized
	}

	in := proposalInput{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}

	p = &models.Proposal{
		ID:          s.newID(),
		Owner:       caller,
		Title:       in.Title,
		Description: in.Description,
		Voters:      []string{},
		CreatedAt:   s.timestamp(),
	}

	if err := s.repomanager.Proposals(s.db).Create(ctx, p); err != nil {
		return nil, s.storageErr("error creating proposal", err)
	}

	s.logger.Info(ctx, "proposal created", "id", p.ID, "owner", caller)
	return p.Clone(), nil
}

// VoteYes records a yes vote from caller.
func (s *ProposalService) VoteYes(ctx context.Context, caller, id string) (*models.Proposal, error) {
	return s.vote(ctx, caller, id, common.ChoiceYes)
}

// VoteNo records a no vote from caller.
func (s *ProposalService) VoteNo(ctx context.Context, caller, id string) (*models.Proposal, error) {
	return s.vote(ctx, caller, id, common.ChoiceNo)
}

func (s *ProposalService) vote(ctx context.Context, caller, id, choice string) (p *models.Proposal, err error) {
	defer s.record(ctx, "vote_"+choice, &err)

	if caller == "" {
		return nil, common.ErrorUnauthorized
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, common.ErrorNotFound
	}

	err = s.mutate(ctx, id, func(p *models.Proposal) error {
		if p.Owner == caller {
			return common.ErrorOwnerVote
		}
		if p.HasVoted(caller) {
			return common.ErrorAlreadyVoted
		}

		p.Voters = append(p.Voters, caller)
		if choice == common.ChoiceYes {
			p.YesVotes++
		} else {
			p.NoVotes++
		}
		return nil
	}, &p)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "vote recorded", "id", id, "choice", choice)
	return p, nil
}

// Update replaces title and description. Vote state is untouched. When the
// server runs with RestrictUpdatesToOwner, only the owner may update.
func (s *ProposalService) Update(ctx context.Context, caller, id, title, description string) (p *models.Proposal, err error) {
	defer s.record(ctx, "update", &err)

	if caller == "" {
		return nil, common.ErrorUnauthorized
	}

	in := proposalInput{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := validate(s.validate, in); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, common.ErrorNotFound
	}

	err = s.mutate(ctx, id, func(p *models.Proposal) error {
		if s.restrictUpdates && p.Owner != caller {
			return common.ErrorNotOwner
		}
		p.Title = in.Title
		p.Description = in.Description
		return nil
	}, &p)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "proposal updated", "id", id)
	return p, nil
}

// Delete removes the proposal and returns what was stored. Only the owner
// may delete.
func (s *ProposalService) Delete(ctx context.Context, caller, id string) (deleted *models.Proposal, err error) {
	defer s.record(ctx, "delete", &err)

	if caller == "" {
		return nil, common.ErrorUnauthorized
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id must not be empty", common.ErrorValidation)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Proposals(tx)

		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return s.storageErr("error getting proposal", err)
		}
		if p.Owner != caller {
			return common.ErrorNotOwner
		}
		if err := repo.Delete(ctx, id); err != nil {
			return s.storageErr("error deleting proposal", err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.logger.Info(ctx, "proposal deleted", "id", id, "owner", caller)
	return deleted, nil
}

// mutate loads id under a row lock, applies fn and writes the result back,
// all in one transaction. fn returning an error aborts without writing.
func (s *ProposalService) mutate(ctx context.Context, id string, fn func(*models.Proposal) error, out **models.Proposal) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Proposals(tx)

		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return s.storageErr("error getting proposal", err)
		}
		if err := fn(p); err != nil {
			return err
		}

		ts := s.timestamp()
		p.UpdatedAt = &ts

		if err := repo.Update(ctx, p); err != nil {
			return s.storageErr("error updating proposal", err)
		}
		*out = p
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *ProposalService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn(ctx, "cache invalidate failed", "id", id, "error", err)
	}
}

// timestamp is truncated to what PostgreSQL stores.
func (s *ProposalService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// storageErr passes common.ErrorNotFound through and wraps anything else.
func (s *ProposalService) storageErr(msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *ProposalService) record(ctx context.Context, op string, errp *error) {
	err := *errp
	switch {
	case err == nil:
		s.metrics.RecordOperation(op, metrics.OutcomeOK)
	case isRejection(err):
		s.metrics.RecordOperation(op, metrics.OutcomeRejected)
	default:
		s.metrics.RecordOperation(op, metrics.OutcomeError)
		s.logger.Error(ctx, "proposal operation failed", "op", op, "error", err)
	}
}

func isRejection(err error) bool {
	for _, target := range []error{
		common.ErrorNotFound, common.ErrorValidation, common.ErrorForbidden,
		common.ErrorAlreadyVoted, common.ErrorUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
