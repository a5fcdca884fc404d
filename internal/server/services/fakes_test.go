package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophvote/internal/dbx"
	"github.com/dmitrijs2005/gophvote/internal/server/migrations"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
	proposalsrepo "github.com/dmitrijs2005/gophvote/internal/server/repositories/proposals"
	usersrepo "github.com/dmitrijs2005/gophvote/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = u
	return nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeProposalsRepo struct {
	stored *models.Proposal

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	updated *models.Proposal
	deleted string
}

func (f *fakeProposalsRepo) List(ctx context.Context) ([]*models.Proposal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.stored == nil {
		return []*models.Proposal{}, nil
	}
	return []*models.Proposal{f.stored.Clone()}, nil
}

func (f *fakeProposalsRepo) Get(ctx context.Context, id string) (*models.Proposal, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.stored.Clone(), nil
}

func (f *fakeProposalsRepo) GetForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	return f.Get(ctx, id)
}

func (f *fakeProposalsRepo) Create(ctx context.Context, p *models.Proposal) error {
	return f.createErr
}

func (f *fakeProposalsRepo) Update(ctx context.Context, p *models.Proposal) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = p.Clone()
	return nil
}

func (f *fakeProposalsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = id
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakeProposalsRepo
}

func (m *fakeRepoManager) Dialect() string                                { return migrations.Postgres }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository         { return m.u }
func (m *fakeRepoManager) Proposals(db dbx.DBTX) proposalsrepo.Repository { return m.p }
