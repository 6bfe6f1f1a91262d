package uow

import (
	"budget-portal/internal/domain/program"
	"budget-portal/internal/domain/user"
	"context"
)

// domain/uow/uow.go
type Repos struct {
	Programs program.Repository
	Users    user.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the program row first, then pass it in; program.ErrNotFound when absent
	WithinProgramTx(ctx context.Context, programID string, fn func(r Repos, p *program.Program) error) error
}
