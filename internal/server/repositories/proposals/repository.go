// Package proposals provides the durable proposal table for PostgreSQL and
// SQLite. Both implementations are bound to a dbx.DBTX so the service can
// run them inside a transaction.
package proposals

import (
	"context"

	"github.com/dmitrijs2005/gophvote/internal/server/models"
)

type Repository interface {
	// List returns every proposal ordered by creation time.
	List(ctx context.Context) ([]*models.Proposal, error)
	// Get returns common.ErrorNotFound when id is absent.
	Get(ctx context.Context, id string) (*models.Proposal, error)
	// GetForUpdate is Get that also locks the row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Proposal, error)
	Create(ctx context.Context, p *models.Proposal) error
	// Update overwrites the mutable columns of p; common.ErrorNotFound when absent.
	Update(ctx context.Context, p *models.Proposal) error
	// Delete removes id; common.ErrorNotFound when absent.
	Delete(ctx context.Context, id string) error
}
