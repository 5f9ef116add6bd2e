package auth

import (
	"context"
	"errors"
)

var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Admin struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Hash     []byte `json:"-"`
}

type Store interface {
	Create(ctx context.Context, username, password, role string) error
	Verify(ctx context.Context, username, password string) (Admin, error)
}
