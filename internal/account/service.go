// Package account registers users and checks their credentials.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourorg/paper-broker/internal/domain"
	pgRepo "github.com/yourorg/paper-broker/internal/repository/postgres"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects longer inputs.
const maxPasswordBytes = 72

type Service struct {
	users *pgRepo.UserRepo
	cost  int
	// compared against when the username is unknown, so both paths cost one bcrypt run
	dummyHash []byte
}

func NewService(users *pgRepo.UserRepo, bcryptCost int) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return &Service{users: users, cost: bcryptCost, dummyHash: dummy}, nil
}

// Register creates a user holding domain.StartingCash.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}
	if password == "" || confirmation == "" {
		return nil, domain.ErrPasswordRequired
	}
	if password != confirmation {
		return nil, domain.ErrPasswordMismatch
	}
	if len(password) > maxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Cash:         domain.StartingCash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}
	if password == "" {
		return nil, domain.ErrPasswordRequired
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
