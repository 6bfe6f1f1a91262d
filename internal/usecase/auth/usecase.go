package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	guard "budget-portal/internal/auth"
	"budget-portal/internal/domain/user"

	"github.com/rs/zerolog"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", guard.ErrUnauthenticated)

type TokenIssuer interface {
	Issue(u *user.User) (string, time.Time, error)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type Usecase struct {
	users  user.Repository
	tokens TokenIssuer
	log    zerolog.Logger
}

func NewUsecase(users user.Repository, tokens TokenIssuer, log zerolog.Logger) *Usecase {
	return &Usecase{users: users, tokens: tokens, log: log}
}

func (u *Usecase) Login(ctx context.Context, in LoginInput) (*LoginDTO, error) {
	usr, err := u.users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := guard.CheckPassword(usr.PasswordHash, in.Password); err != nil {
		u.log.Info().Str("user_id", usr.UserID).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := u.tokens.Issue(usr)
	if err != nil {
		return nil, err
	}
	if err := u.users.TouchLastLogin(ctx, usr.UserID); err != nil {
		// the token is valid either way
		u.log.Warn().Err(err).Str("user_id", usr.UserID).Msg("update last login")
	}

	return &LoginDTO{
		ID:         usr.UserID,
		Name:       usr.Name,
		Email:      usr.Email,
		Role:       string(usr.Role),
		Department: usr.Department,
		Token:      token,
		ExpiresAt:  exp,
	}, nil
}
