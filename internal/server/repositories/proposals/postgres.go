package proposals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/dbx"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
)

// PostgresRepository implements proposal storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Proposal, error) {
	query := `SELECT ` + columns + ` FROM proposals ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select proposals: %w", err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Proposal, error) {
	return r.get(ctx, `SELECT `+columns+` FROM proposals WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	return r.get(ctx, `SELECT `+columns+` FROM proposals WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Proposal, error) {
	p, err := scanProposal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Proposal) error {
	voters, err := encodeVoters(p.Voters)
	if err != nil {
		return err
	}

	query := `INSERT INTO proposals (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Owner, p.Title, p.Description, voters,
		int64(p.YesVotes), int64(p.NoVotes), p.CreatedAt.UTC(), nullableTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Proposal) error {
	voters, err := encodeVoters(p.Voters)
	if err != nil {
		return err
	}

	query := `UPDATE proposals
		SET title = $2, description = $3, voters = $4, yes_votes = $5, no_votes = $6, updated_at = $7
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Description, voters,
		int64(p.YesVotes), int64(p.NoVotes), nullableTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}
