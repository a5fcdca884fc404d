// Package users persists registered callers.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophvote/internal/server/models"
)

type Repository interface {
	// Create inserts user; a taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error
	// GetUserByLogin returns common.ErrorNotFound when no such username exists.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
