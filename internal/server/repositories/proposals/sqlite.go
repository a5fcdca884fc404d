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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
// SQLite has no row locks; writers are serialized by the immediate
// transaction the caller runs in, so GetForUpdate is a plain read.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM proposals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select proposals: %w", err)
	}
	return scanAll(rows)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := scanProposal(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM proposals WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select proposal: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Create(ctx context.Context, p *models.Proposal) error {
	voters, err := encodeVoters(p.Voters)
	if err != nil {
		return err
	}

	query := `INSERT INTO proposals (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Owner, p.Title, p.Description, voters,
		int64(p.YesVotes), int64(p.NoVotes), p.CreatedAt.UTC(), nullableTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *models.Proposal) error {
	voters, err := encodeVoters(p.Voters)
	if err != nil {
		return err
	}

	query := `UPDATE proposals
		SET title = ?, description = ?, voters = ?, yes_votes = ?, no_votes = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Title, p.Description, voters, int64(p.YesVotes), int64(p.NoVotes), nullableTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}
